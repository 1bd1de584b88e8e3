package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Terminal color palette shared by every command.
var (
	colorCyan  = lipgloss.Color("36")  // primary accents
	colorGreen = lipgloss.Color("35")  // success
	colorRed   = lipgloss.Color("167") // errors
	colorBlue  = lipgloss.Color("75")  // commands
	colorWhite = lipgloss.Color("255") // values
	colorGray  = lipgloss.Color("245") // secondary text
	colorDim   = lipgloss.Color("240") // muted text
)

// Styles exported for the interactive commands.
var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleValue       = lipgloss.NewStyle().Foreground(colorWhite)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleCached      = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed    = lipgloss.NewStyle().Foreground(colorGray)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
)

// statusLine prints an icon-prefixed message.
func statusLine(icon string, iconStyle lipgloss.Style, format string, args ...any) {
	fmt.Println(iconStyle.Render(icon) + " " + fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...any) {
	statusLine(iconSuccess, styleIconSuccess, format, args...)
}

func printError(format string, args ...any) {
	statusLine(iconError, styleIconError, format, args...)
}

func printInfo(format string, args ...any) {
	statusLine(iconInfo, styleIconInfo, format, args...)
}

// printDetail prints an indented, muted detail line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints the path of a written artifact.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + styleValue.Render(path))
}

// printKeyValue prints a fixed-width label followed by its value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + styleValue.Render(value))
}

// printStats prints a one-line workspace summary: block and group counts
// plus whether the result came from the cache.
func printStats(blockCount, groupCount int, cached bool) {
	var parts []string
	if blockCount > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d blocks", blockCount)))
	}
	if groupCount > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d groups", groupCount)))
	}
	if cached {
		parts = append(parts, styleCached.Render("cached"))
	} else {
		parts = append(parts, styleComputed.Render("fresh"))
	}
	fmt.Println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}
