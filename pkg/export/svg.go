package export

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/snapstack/pkg/layout"
	"github.com/matzehuels/snapstack/pkg/model"
)

const fieldTextColor = "#ffffff"

// SVGOption configures SVG rendering via [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	background  bool
	connections bool
}

// WithCanvasBackground fills the canvas with the configured background color.
func WithCanvasBackground() SVGOption { return func(r *svgRenderer) { r.background = true } }

// WithConnectionMarkers overlays a small circle on every connection point,
// filled when the connection is occupied.
func WithConnectionMarkers() SVGOption { return func(r *svgRenderer) { r.connections = true } }

// RenderSVG produces an SVG snapshot of the workspace. Block groups paint in
// ascending z-order so raised groups cover lower ones, matching the editor's
// stacking. Hidden nodes are skipped.
func RenderSVG(wl *layout.WorkspaceLayout, opts ...SVGOption) []byte {
	r := svgRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	cfg := wl.Config()
	view := wl.ViewRect()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		view.Size.Width, view.Size.Height, view.Size.Width, view.Size.Height)

	if r.background {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill=%q/>`+"\n",
			cfg.Color(layout.KeyCanvasColor))
	}

	groups := wl.BlockGroups()
	slices.SortFunc(groups, func(a, b *layout.BlockGroupLayout) int {
		return cmp.Compare(a.ZIndex(), b.ZIndex())
	})
	for _, g := range groups {
		renderGroupSVG(&buf, cfg, g)
	}

	if r.connections {
		for _, g := range groups {
			renderConnectionMarkers(&buf, cfg, g)
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderGroupSVG(buf *bytes.Buffer, cfg *layout.Config, g *layout.BlockGroupLayout) {
	for _, bl := range g.BlockLayouts() {
		renderBlockSVG(buf, cfg, bl)
	}
}

func renderBlockSVG(buf *bytes.Buffer, cfg *layout.Config, bl *layout.BlockLayout) {
	if !bl.Visible() {
		return
	}
	block := bl.Block()
	rect := bl.ViewRect()

	fill := cfg.Color(layout.KeyBlockFillColor)
	stroke := cfg.Color(layout.KeyBlockStrokeColor)
	if block.Shadow() {
		fill = cfg.Color(layout.KeyShadowFillColor)
		stroke = cfg.Color(layout.KeyShadowStrokeColor)
	}
	extra := ""
	if block.Disabled() {
		extra = ` fill-opacity="0.5"`
	}

	fmt.Fprintf(buf, `  <rect id="block-%s" class="block" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" fill=%q stroke=%q%s/>`+"\n",
		block.ID(), rect.Origin.X, rect.Origin.Y, rect.Size.Width, rect.Size.Height,
		cfg.Unit(layout.KeyBlockCornerRadius).View, fill, stroke, extra)

	for _, il := range bl.InputLayouts() {
		for _, fl := range il.FieldLayouts() {
			renderFieldSVG(buf, cfg, fl)
		}
		renderGroupSVG(buf, cfg, il.RenderedGroup())
	}
}

func renderFieldSVG(buf *bytes.Buffer, cfg *layout.Config, fl *layout.FieldLayout) {
	if !fl.Visible() {
		return
	}
	field := fl.Field()
	rect := fl.ViewRect()

	if field.Kind() == model.FieldCheckbox {
		fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="#ffffff" stroke=%q/>`+"\n",
			rect.Origin.X, rect.Origin.Y, rect.Size.Width, rect.Size.Height,
			cfg.Color(layout.KeyBlockStrokeColor))
		if field.Checked() {
			inset := rect.Size.Width / 4
			fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill=%q/>`+"\n",
				rect.Origin.X+inset, rect.Origin.Y+inset,
				rect.Size.Width-2*inset, rect.Size.Height-2*inset,
				cfg.Color(layout.KeyBlockStrokeColor))
		}
		return
	}

	fmt.Fprintf(buf, `  <text class="block-text" x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="central" font-family="monospace" font-size="%.0f" fill=%q>%s</text>`+"\n",
		rect.Origin.X+rect.Size.Width/2, rect.Origin.Y+rect.Size.Height/2,
		13*cfg.Scale(), fieldTextColor, escapeText(field.Text()))
}

func renderConnectionMarkers(buf *bytes.Buffer, cfg *layout.Config, g *layout.BlockGroupLayout) {
	scale := cfg.Scale()
	for _, bl := range g.BlockLayouts() {
		if !bl.Visible() {
			continue
		}
		for _, conn := range bl.Block().Connections() {
			p := conn.Position()
			fill := "none"
			if conn.Connected() {
				fill = cfg.Color(layout.KeyHighlightColor)
			}
			fmt.Fprintf(buf, `  <circle cx="%.1f" cy="%.1f" r="%.1f" fill=%q stroke=%q/>`+"\n",
				p.X*scale, p.Y*scale, 3*scale, fill,
				cfg.Color(layout.KeyBlockStrokeColor))
		}
		for _, il := range bl.InputLayouts() {
			renderConnectionMarkers(buf, cfg, il.RenderedGroup())
		}
	}
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeText(s string) string { return textEscaper.Replace(s) }
