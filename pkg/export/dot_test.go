package export

import (
	"fmt"
	"strings"
	"testing"

	"github.com/matzehuels/snapstack/pkg/model"
)

func TestToDOT_Basic(t *testing.T) {
	ws := model.NewWorkspace()
	a := stmtBlock(t, "a")
	b := stmtBlock(t, "b")
	if err := a.NextConnection().Connect(b.PreviousConnection()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	addTree(t, ws, a)

	dot := ToDOT(ws, DOTOptions{})

	if !strings.Contains(dot, "digraph workspace") {
		t.Error("ToDOT() output missing digraph declaration")
	}
	if !strings.Contains(dot, `label="a"`) {
		t.Error("ToDOT() output missing node a")
	}
	if !strings.Contains(dot, `label="b"`) {
		t.Error("ToDOT() output missing node b")
	}
	if !strings.Contains(dot, fmt.Sprintf("%q -> %q;", a.ID(), b.ID())) {
		t.Error("ToDOT() output missing next edge")
	}
}

func TestToDOT_InputEdgeLabeled(t *testing.T) {
	ws := model.NewWorkspace()
	host := hostBlock(t, "host")
	child := exprBlock(t, "child")
	if err := host.Inputs()[0].Connection().Connect(child.OutputConnection()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	addTree(t, ws, host)

	dot := ToDOT(ws, DOTOptions{})

	want := fmt.Sprintf("%q -> %q [label=%q];", host.ID(), child.ID(), "VAL")
	if !strings.Contains(dot, want) {
		t.Errorf("ToDOT() missing labeled input edge %s:\n%s", want, dot)
	}
	if got := strings.Count(dot, "->"); got != 1 {
		t.Errorf("edge count = %d, want 1", got)
	}
}

func TestToDOT_ShadowDashed(t *testing.T) {
	ws := model.NewWorkspace()
	host := hostBlock(t, "host")
	shade := model.NewBlockBuilder("shade").
		WithOutputConnection().
		WithShadow().
		MustBuild()
	if err := host.Inputs()[0].Connection().ConnectShadow(shade.OutputConnection()); err != nil {
		t.Fatalf("ConnectShadow: %v", err)
	}
	addTree(t, ws, host)

	dot := ToDOT(ws, DOTOptions{})

	if !strings.Contains(dot, "style=dashed") {
		t.Error("ToDOT() shadow edge missing dashed style")
	}
	if !strings.Contains(dot, "lightgrey") {
		t.Error("ToDOT() shadow node missing lightgrey fill")
	}
}

func TestFmtDOTLabel(t *testing.T) {
	block := hostBlock(t, "host")

	if got := fmtDOTLabel(block, false); got != "host" {
		t.Errorf("fmtDOTLabel() simple mode = %q, want %q", got, "host")
	}

	detailed := fmtDOTLabel(block, true)
	if !strings.HasPrefix(detailed, "host\n") {
		t.Errorf("fmtDOTLabel() detailed should start with the name: %q", detailed)
	}
	if !strings.Contains(detailed, "LBL: host") {
		t.Errorf("fmtDOTLabel() detailed missing field value: %q", detailed)
	}
}

func TestFmtDOTAttrs(t *testing.T) {
	regular := stmtBlock(t, "regular")
	if attrs := fmtDOTAttrs(regular, "x"); len(attrs) != 1 {
		t.Errorf("regular block should have 1 attr, got %d: %v", len(attrs), attrs)
	}

	shade := model.NewBlockBuilder("shade").
		WithOutputConnection().
		WithShadow().
		MustBuild()
	attrs := fmtDOTAttrs(shade, "x")
	if len(attrs) != 4 {
		t.Fatalf("shadow block should have 4 attrs, got %d: %v", len(attrs), attrs)
	}
	joined := strings.Join(attrs, " ")
	if !strings.Contains(joined, "dashed") || !strings.Contains(joined, "lightgrey") {
		t.Errorf("shadow attrs missing dashed style: %v", attrs)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
		{
			name: "zero dimensions",
			svg:  `<svg viewBox="0 0 0 0">content</svg>`,
			want: `<svg viewBox="0 0 0 0">content</svg>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeViewBox([]byte(tt.svg))
			if string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", string(got), tt.want)
			}
		})
	}
}

func TestRenderGraphSVG(t *testing.T) {
	dot := `digraph G { a -> b; }`
	svg, err := RenderGraphSVG(dot)
	if err != nil {
		t.Fatalf("RenderGraphSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderGraphSVG() output missing <svg> tag")
	}
}

func TestRenderGraphSVG_InvalidDOT(t *testing.T) {
	if _, err := RenderGraphSVG(`not valid DOT {{{`); err == nil {
		t.Error("RenderGraphSVG() should return error for invalid DOT")
	}
}
