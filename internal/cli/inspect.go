package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/snapstack/pkg/layout"
	"github.com/matzehuels/snapstack/pkg/model"
	"github.com/matzehuels/snapstack/pkg/pipeline"
)

// inspectOpts holds the command-line flags for the inspect command.
type inspectOpts struct {
	scale       float64
	rtl         bool
	configPath  string
	connections bool // also print the connection table
}

// inspectCommand creates the inspect command for examining computed layouts.
func (c *CLI) inspectCommand() *cobra.Command {
	opts := inspectOpts{scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "inspect [workspace.json]",
		Short: "Print the computed layout tree as a table",
		Long: `Print the computed layout tree as a table.

The inspect command loads a workspace, computes the block layout, and
prints one row per block showing its kind, workspace position, total
size, and field values. Nesting depth mirrors the layout tree: blocks
connected into an input socket are indented under their host.

With --connections, a second table lists every connection point with
its kind, position, and target.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "workspace-to-view scale factor")
	cmd.Flags().BoolVar(&opts.rtl, "rtl", false, "lay blocks out right-to-left")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "TOML file with geometry and color overrides")
	cmd.Flags().BoolVar(&opts.connections, "connections", false, "also print the connection table")

	return cmd
}

// runInspect loads the workspace, builds the layout, and prints the tables.
func (c *CLI) runInspect(ctx context.Context, input string, opts *inspectOpts) error {
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

	logger := loggerFromContext(ctx)
	logger.Debugf("Loading %s", input)

	ws, err := runner.Load(ctx, popts)
	if err != nil {
		return fmt.Errorf("load workspace %s: %w", input, err)
	}

	coord, _, err := runner.BuildLayout(ws, popts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}
	wl := coord.WorkspaceLayout()
	logger.Debugf("Laid out %d blocks in %d groups", ws.BlockCount(), len(wl.BlockGroups()))

	canvas := wl.ViewRect()
	printKeyValue("Workspace", input)
	printKeyValue("Blocks", fmt.Sprintf("%d", ws.BlockCount()))
	printKeyValue("Groups", fmt.Sprintf("%d", len(wl.BlockGroups())))
	printKeyValue("Canvas", fmt.Sprintf("%.0f x %.0f", canvas.Size.Width, canvas.Size.Height))
	printNewline()

	fmt.Println(renderBlockTable(wl))

	if opts.connections {
		printNewline()
		fmt.Println(renderConnectionTable(ws))
	}

	return nil
}

// blockRow is one line of the block table plus the styling hints the
// table's StyleFunc needs.
type blockRow struct {
	cells  []string
	shadow bool
}

// renderBlockTable renders one row per block in layout-tree order.
func renderBlockTable(wl *layout.WorkspaceLayout) string {
	var rows []blockRow
	for _, g := range wl.BlockGroups() {
		walkBlockLayouts(g, 0, func(bl *layout.BlockLayout, depth int) {
			b := bl.Block()
			pos := bl.AbsolutePosition()
			size := bl.TotalSize()
			rows = append(rows, blockRow{
				cells: []string{
					strings.Repeat("  ", depth) + b.Name(),
					blockKind(b),
					fmt.Sprintf("%.0f, %.0f", pos.X, pos.Y),
					fmt.Sprintf("%.0f x %.0f", size.Width, size.Height),
					fieldSummary(b),
				},
				shadow: b.Shadow(),
			})
		})
	}

	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = r.cells
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Block", "Kind", "Position", "Size", "Fields").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row >= 0 && row < len(rows) && rows[row].shadow {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	return t.Render()
}

// renderConnectionTable renders one row per connection point in the
// workspace, in block tree order.
func renderConnectionTable(ws *model.Workspace) string {
	var rows [][]string
	for _, top := range ws.TopBlocks() {
		for _, b := range top.AllBlocksInTree() {
			for _, conn := range b.Connections() {
				target := "-"
				if t := conn.Target(); t != nil {
					target = t.SourceBlock().Name()
				}
				socket := ""
				if in := conn.SourceInput(); in != nil {
					socket = in.Name()
				}
				pos := conn.Position()
				rows = append(rows, []string{
					b.Name(),
					conn.Kind().String(),
					socket,
					fmt.Sprintf("%.0f, %.0f", pos.X, pos.Y),
					target,
				})
			}
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Block", "Kind", "Socket", "Position", "Target").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return lipgloss.NewStyle()
		})

	return t.Render()
}

// walkBlockLayouts visits every block layout under n in tree order,
// reporting nesting depth: stacked chain members share a depth, blocks
// connected into an input socket sit one level deeper than their host.
func walkBlockLayouts(n layout.Node, depth int, visit func(*layout.BlockLayout, int)) {
	next := depth
	if bl, ok := n.(*layout.BlockLayout); ok {
		visit(bl, depth)
		next = depth + 1
	}
	for _, child := range n.Children() {
		walkBlockLayouts(child, next, visit)
	}
}

// blockKind classifies a block by its connection set.
func blockKind(b *model.Block) string {
	switch {
	case b.OutputConnection() != nil:
		return "value"
	case b.PreviousConnection() != nil || b.NextConnection() != nil:
		return "statement"
	default:
		return "plain"
	}
}

// fieldSummary joins a block's field values into a single cell.
func fieldSummary(b *model.Block) string {
	var parts []string
	for _, in := range b.Inputs() {
		for _, f := range in.Fields() {
			parts = append(parts, fmt.Sprintf("%s=%s", f.Name(), f.Text()))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
