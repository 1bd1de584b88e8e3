package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/snapstack/pkg/geometry"
	"github.com/matzehuels/snapstack/pkg/layout"
	"github.com/matzehuels/snapstack/pkg/model"
	"github.com/matzehuels/snapstack/pkg/observability"
	"github.com/matzehuels/snapstack/pkg/pipeline"
)

// Terminal cells are taller than wide; these factors map view units to
// columns and rows so blocks keep roughly their drawn aspect ratio.
const (
	unitsPerCol = 4.0
	unitsPerRow = 8.0

	// moveStep is how far one arrow key press moves a carried group,
	// in workspace units. Two presses cross one grid row.
	moveStep = 4.0
)

// Canvas styles
var (
	canvasBlockStyle     = lipgloss.NewStyle().Foreground(colorWhite)
	canvasShadowStyle    = lipgloss.NewStyle().Foreground(colorDim)
	canvasSelectedStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	canvasCarriedStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	canvasCandidateStyle = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
)

// playOpts holds the command-line flags for the play command.
type playOpts struct {
	scale      float64
	rtl        bool
	configPath string
	output     string // write the edited workspace back on exit
}

// playCommand creates the play command for the interactive playground.
func (c *CLI) playCommand() *cobra.Command {
	opts := playOpts{scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "play [workspace.json]",
		Short: "Edit a workspace in an interactive terminal playground",
		Long: `Edit a workspace in an interactive terminal playground.

The play command loads a workspace and draws its block groups on a
canvas. Pick up a group, move it around, and drop it near a compatible
connection to snap the blocks together. Displaced chains are bumped
aside, exactly as the layout engine does for any editor front end.

Keys:
  tab / shift+tab   select the next / previous block group
  enter, space      pick up or drop the selected group
  arrows, hjkl      move the carried group
  esc               cancel a carry without connecting
  q                 quit

With --output, the edited workspace is written back as JSON on exit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlay(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "workspace-to-view scale factor")
	cmd.Flags().BoolVar(&opts.rtl, "rtl", false, "lay blocks out right-to-left")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "TOML file with geometry and color overrides")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the edited workspace to this file on exit")

	return cmd
}

// runPlay loads the workspace, runs the playground, and optionally writes
// the edited workspace back.
func (c *CLI) runPlay(ctx context.Context, input string, opts *playOpts) error {
	runner, err := c.newRunner(true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	popts := pipeline.Options{
		Path:       input,
		Scale:      opts.scale,
		RTL:        opts.rtl,
		ConfigPath: opts.configPath,
		Logger:     c.Logger,
	}

	ws, err := runner.Load(ctx, popts)
	if err != nil {
		return fmt.Errorf("load workspace %s: %w", input, err)
	}

	coord, _, err := runner.BuildLayout(ws, popts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}

	p := tea.NewProgram(newPlayModel(coord), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	fm, ok := finalModel.(playModel)
	if !ok {
		return nil
	}

	printSuccess("Playground closed: %d moves, %d connections", fm.moves, fm.connects)
	printStats(ws.BlockCount(), len(coord.WorkspaceLayout().BlockGroups()), false)

	if opts.output != "" {
		data, err := model.MarshalWorkspace(ws)
		if err != nil {
			return fmt.Errorf("encode workspace: %w", err)
		}
		if err := os.WriteFile(opts.output, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.output, err)
		}
		printFile(opts.output)
	}

	return nil
}

// =============================================================================
// playModel - Interactive block canvas
// =============================================================================

// playModel is the bubbletea model for the playground. It owns a live
// coordinator: key presses translate directly into engine transactions,
// and every frame is drawn from the current layout tree.
type playModel struct {
	coord  *layout.Coordinator
	groups []*layout.BlockGroupLayout
	cursor int

	carrying  bool
	moving    *model.Connection // carried side of the pending snap
	candidate *model.Connection // stationary side of the pending snap

	status string
	width  int
	height int

	moves    int
	connects int
}

// newPlayModel creates a playground over the coordinator's workspace.
func newPlayModel(coord *layout.Coordinator) playModel {
	m := playModel{
		coord:  coord,
		width:  80,
		height: 24,
	}
	return m.refreshGroups()
}

func (m playModel) Init() tea.Cmd {
	return nil
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.carrying {
				m = m.drop(false)
			}
			return m, tea.Quit
		case "esc":
			if m.carrying {
				m = m.drop(false)
			}
		case "tab":
			if !m.carrying && len(m.groups) > 0 {
				m.cursor = (m.cursor + 1) % len(m.groups)
			}
		case "shift+tab":
			if !m.carrying && len(m.groups) > 0 {
				m.cursor = (m.cursor + len(m.groups) - 1) % len(m.groups)
			}
		case "enter", " ":
			if m.carrying {
				m = m.drop(true)
			} else {
				m = m.pickUp()
			}
		case "up", "k":
			m = m.move(0, -moveStep)
		case "down", "j":
			m = m.move(0, moveStep)
		case "left", "h":
			m = m.move(-moveStep, 0)
		case "right", "l":
			m = m.move(moveStep, 0)
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

// pickUp starts carrying the selected group.
func (m playModel) pickUp() playModel {
	g := m.selectedGroup()
	if g == nil {
		return m
	}
	g.SetDragging(true)
	m.coord.BringToFront(g)
	m.carrying = true
	m.status = "carrying " + groupName(g)
	return m.updateCandidate()
}

// drop releases the carried group. With connect set and a snap candidate
// in range, the pending pair is connected through the coordinator.
func (m playModel) drop(connect bool) playModel {
	g := m.selectedGroup()
	if g == nil {
		m.carrying = false
		return m
	}
	g.SetDragging(false)
	m.carrying = false

	if connect && m.moving != nil && m.candidate != nil {
		stationary := m.candidate.SourceBlock().Name()
		err := withTransaction(context.Background(), "connect", func() error {
			return m.coord.ConnectPair(m.moving, m.candidate)
		})
		if err != nil {
			m.status = "connect failed: " + err.Error()
		} else {
			m.connects++
			m.status = fmt.Sprintf("connected %s to %s of %s",
				m.moving.Kind(), m.candidate.Kind(), stationary)
		}
	} else {
		m.status = "dropped " + groupName(g)
	}

	m.moving, m.candidate = nil, nil
	return m.refreshGroups()
}

// move shifts the carried group by (dx, dy) workspace units and refreshes
// the snap candidate. Without a carry, arrow keys are ignored.
func (m playModel) move(dx, dy float64) playModel {
	if !m.carrying {
		return m
	}
	g := m.selectedGroup()
	if g == nil || g.Empty() {
		return m
	}
	p := g.RelativePosition().Add(geometry.Pt(dx, dy))
	err := withTransaction(context.Background(), "move", func() error {
		return m.coord.MoveBlockGroup(g.FirstBlockLayout().Block(), p)
	})
	if err != nil {
		m.status = err.Error()
		return m
	}
	m.moves++
	return m.updateCandidate()
}

// updateCandidate queries the connection index from every free connection
// of the carried chain and keeps the closest pairing.
func (m playModel) updateCandidate() playModel {
	m.moving, m.candidate = nil, nil
	g := m.selectedGroup()
	if g == nil || g.Empty() {
		return m
	}

	head := g.FirstBlockLayout().Block()
	tail := g.LastBlockLayout().Block()
	probes := []*model.Connection{
		head.PreviousConnection(),
		head.OutputConnection(),
		tail.NextConnection(),
	}

	radius := m.coord.WorkspaceLayout().Config().WorkspaceUnit(layout.KeyConnectionSnapRadius)
	best := -1.0
	for _, probe := range probes {
		if probe == nil || probe.Connected() {
			continue
		}
		candidates := m.coord.Index().FindCandidates(probe, radius)
		observability.Engine().OnSnapQuery(context.Background(), len(candidates))
		if len(candidates) == 0 {
			continue
		}
		cand := candidates[0]
		d := probe.Position().DistanceTo(cand.Position())
		if best < 0 || d < best {
			best = d
			m.moving, m.candidate = probe, cand
		}
	}

	if m.candidate != nil {
		m.status = fmt.Sprintf("snap: %s to %s of %s",
			m.moving.Kind(), m.candidate.Kind(), m.candidate.SourceBlock().Name())
	} else if m.carrying {
		m.status = "carrying " + groupName(g)
	}
	return m
}

// refreshGroups re-reads the top-level groups after a structural change
// and keeps the cursor in range.
func (m playModel) refreshGroups() playModel {
	m.groups = m.coord.WorkspaceLayout().BlockGroups()
	if m.cursor >= len(m.groups) {
		m.cursor = len(m.groups) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m
}

func (m playModel) selectedGroup() *layout.BlockGroupLayout {
	if m.cursor < 0 || m.cursor >= len(m.groups) {
		return nil
	}
	return m.groups[m.cursor]
}

func (m playModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Snapstack Playground"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("tab select  enter grab/drop  arrows move  esc cancel  q quit"))
	b.WriteString("\n\n")

	canvasH := m.height - 6
	if canvasH < 8 {
		canvasH = 8
	}
	b.WriteString(m.renderCanvas(m.width, canvasH))
	b.WriteString("\n")

	if g := m.selectedGroup(); g != nil {
		pos := g.RelativePosition()
		line := fmt.Sprintf("  [%d/%d] %s at %.0f, %.0f",
			m.cursor+1, len(m.groups), groupName(g), pos.X, pos.Y)
		b.WriteString(StyleDim.Render(line))
	}
	b.WriteString("\n")
	if m.status != "" {
		style := StyleDim
		if m.candidate != nil {
			style = StyleSuccess
		}
		b.WriteString("  " + style.Render(m.status))
	}

	return b.String()
}

// renderCanvas draws every block group onto a character grid, lowest
// z-index first so the carried group paints on top.
func (m playModel) renderCanvas(w, h int) string {
	cv := newTermCanvas(w, h)

	ordered := append([]*layout.BlockGroupLayout(nil), m.groups...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ZIndex() < ordered[j].ZIndex()
	})

	selected := m.selectedGroup()
	for _, g := range ordered {
		style := &canvasBlockStyle
		switch {
		case g == selected && m.carrying:
			style = &canvasCarriedStyle
		case g == selected:
			style = &canvasSelectedStyle
		}
		walkBlockLayouts(g, 0, func(bl *layout.BlockLayout, _ int) {
			bs := style
			if bl.Block().Shadow() {
				bs = &canvasShadowStyle
			}
			if m.candidate != nil && m.candidate.SourceBlock() == bl.Block() {
				bs = &canvasCandidateStyle
			}
			drawBlockBox(cv, bl, bs)
		})
	}

	if m.candidate != nil {
		p := m.candidate.Position()
		cv.set(cellCol(p.X), cellRow(p.Y), '*', &canvasCandidateStyle)
	}

	return cv.render()
}

// drawBlockBox draws one block layout's view rect as a bordered box with
// the block name inside.
func drawBlockBox(cv *termCanvas, bl *layout.BlockLayout, style *lipgloss.Style) {
	r := bl.ViewRect()
	x := cellCol(r.Origin.X)
	y := cellRow(r.Origin.Y)
	w := int(r.Size.Width/unitsPerCol + 0.5)
	h := int(r.Size.Height/unitsPerRow + 0.5)
	if w < 4 {
		w = 4
	}
	if h < 2 {
		h = 2
	}
	cv.drawBox(x, y, w, h, style)
	cv.drawText(x+1, y+h/2, w-2, bl.Block().Name(), style)
}

func cellCol(x float64) int { return int(x/unitsPerCol + 0.5) }
func cellRow(y float64) int { return int(y/unitsPerRow + 0.5) }

func groupName(g *layout.BlockGroupLayout) string {
	first := g.FirstBlockLayout()
	if first == nil {
		return "(empty)"
	}
	return first.Block().Name()
}

// =============================================================================
// termCanvas - character grid with per-cell styles
// =============================================================================

// termCanvas is a fixed-size character grid. Cells outside the grid are
// silently dropped, which clips blocks at the canvas edge. Styles are
// tracked per cell by pointer so render can coalesce runs cheaply.
type termCanvas struct {
	w, h   int
	runes  [][]rune
	styles [][]*lipgloss.Style
}

func newTermCanvas(w, h int) *termCanvas {
	cv := &termCanvas{
		w:      w,
		h:      h,
		runes:  make([][]rune, h),
		styles: make([][]*lipgloss.Style, h),
	}
	for row := 0; row < h; row++ {
		cv.runes[row] = make([]rune, w)
		cv.styles[row] = make([]*lipgloss.Style, w)
		for col := 0; col < w; col++ {
			cv.runes[row][col] = ' '
		}
	}
	return cv
}

func (cv *termCanvas) set(col, row int, r rune, style *lipgloss.Style) {
	if col < 0 || col >= cv.w || row < 0 || row >= cv.h {
		return
	}
	cv.runes[row][col] = r
	cv.styles[row][col] = style
}

func (cv *termCanvas) drawBox(x, y, w, h int, style *lipgloss.Style) {
	for col := x + 1; col < x+w-1; col++ {
		cv.set(col, y, '─', style)
		cv.set(col, y+h-1, '─', style)
	}
	for row := y + 1; row < y+h-1; row++ {
		cv.set(x, row, '│', style)
		cv.set(x+w-1, row, '│', style)
	}
	cv.set(x, y, '╭', style)
	cv.set(x+w-1, y, '╮', style)
	cv.set(x, y+h-1, '╰', style)
	cv.set(x+w-1, y+h-1, '╯', style)
}

func (cv *termCanvas) drawText(x, y, maxW int, s string, style *lipgloss.Style) {
	if maxW <= 0 {
		return
	}
	runes := []rune(s)
	if len(runes) > maxW {
		runes = runes[:maxW]
	}
	for i, r := range runes {
		cv.set(x+i, y, r, style)
	}
}

// render flattens the grid to a string, styling runs of cells that share
// a style so plain regions stay unwrapped.
func (cv *termCanvas) render() string {
	var b strings.Builder
	for row := 0; row < cv.h; row++ {
		col := 0
		for col < cv.w {
			style := cv.styles[row][col]
			start := col
			for col < cv.w && cv.styles[row][col] == style {
				col++
			}
			run := string(cv.runes[row][start:col])
			if style == nil {
				b.WriteString(run)
			} else {
				b.WriteString(style.Render(run))
			}
		}
		if row < cv.h-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
