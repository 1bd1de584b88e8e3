package export

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/snapstack/pkg/model"
)

// DOTOptions configures connection-graph rendering.
type DOTOptions struct {
	// Detailed includes field values and block flags in node labels.
	// When false, only the block name is shown.
	Detailed bool
}

// ToDOT converts a workspace's connection graph to Graphviz DOT format.
// Every block becomes a node; every occupied superior connection (a next
// link or an input socket) becomes an edge to the connected block. Shadow
// blocks and shadow links render dashed so dormant structure stays
// distinguishable from live structure. The resulting DOT string can be
// rendered with [RenderGraphSVG].
func ToDOT(ws *model.Workspace, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph workspace {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, top := range ws.TopBlocks() {
		for _, b := range top.AllBlocksInTree() {
			label := fmtDOTLabel(b, opts.Detailed)
			attrs := fmtDOTAttrs(b, label)
			fmt.Fprintf(&buf, "  %q [%s];\n", b.ID(), strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("\n")
	for _, top := range ws.TopBlocks() {
		for _, b := range top.AllBlocksInTree() {
			writeDOTEdges(&buf, b)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtDOTLabel(b *model.Block, detailed bool) string {
	if !detailed {
		return b.Name()
	}

	var parts []string
	for _, in := range b.Inputs() {
		for _, f := range in.Fields() {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Name(), f.Text()))
		}
	}
	if b.Shadow() {
		parts = append(parts, "shadow")
	}
	if b.Disabled() {
		parts = append(parts, "disabled")
	}
	if len(parts) == 0 {
		return b.Name()
	}
	return b.Name() + "\n" + strings.Join(parts, "\n")
}

func fmtDOTAttrs(b *model.Block, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if b.Shadow() {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

func writeDOTEdges(buf *bytes.Buffer, b *model.Block) {
	if nc := b.NextConnection(); nc != nil {
		if t := nc.Target(); t != nil {
			fmt.Fprintf(buf, "  %q -> %q;\n", b.ID(), t.SourceBlock().ID())
		}
		if st := nc.ShadowTarget(); st != nil {
			fmt.Fprintf(buf, "  %q -> %q [style=dashed, color=grey];\n", b.ID(), st.SourceBlock().ID())
		}
	}
	for _, in := range b.Inputs() {
		conn := in.Connection()
		if conn == nil {
			continue
		}
		if t := conn.Target(); t != nil {
			fmt.Fprintf(buf, "  %q -> %q [label=%q];\n", b.ID(), t.SourceBlock().ID(), in.Name())
		}
		if st := conn.ShadowTarget(); st != nil {
			fmt.Fprintf(buf, "  %q -> %q [label=%q, style=dashed, color=grey];\n", b.ID(), st.SourceBlock().ID(), in.Name())
		}
	}
}

// RenderGraphSVG renders a DOT graph to SVG using Graphviz.
func RenderGraphSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
