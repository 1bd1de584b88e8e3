// Package export turns a laid-out workspace into shareable artifacts.
//
// # Overview
//
// Exporters read the final geometry surface of a [layout.WorkspaceLayout]
// (view rects, visibility, z-order) and the block model behind it. They
// never mutate either one. Three formats are provided:
//
//   - SVG: a visual snapshot of the canvas
//   - JSON: the layout tree as nested geometry records
//   - DOT: the connection graph, renderable via Graphviz
//
// # SVG Snapshots
//
// [RenderSVG] paints block groups in ascending z-order, each block as a
// rounded rect at its view rect, fields as centered text or checkbox boxes.
// Shadow blocks use the config's shadow palette.
//
//	svg := export.RenderSVG(coordinator.WorkspaceLayout(),
//	    export.WithCanvasBackground(),
//	    export.WithConnectionMarkers(),
//	)
//
// # JSON Dumps
//
// [RenderJSON] mirrors the layout tree: groups hold blocks, blocks hold
// inputs, inputs hold fields and nested blocks, every record carrying its
// view rect. External tools and the artifact cache consume this form.
//
// # Connection Graphs
//
// [ToDOT] walks the model and emits one node per block and one edge per
// superior connection (next links and input sockets). Shadow blocks and
// shadow links are dashed. [RenderGraphSVG] runs the DOT text through
// Graphviz.
//
//	dot := export.ToDOT(workspace, export.DOTOptions{Detailed: true})
//	svg, err := export.RenderGraphSVG(dot)
//
// [layout.WorkspaceLayout]: github.com/matzehuels/snapstack/pkg/layout.WorkspaceLayout
package export
