// Package pkg provides the core libraries for Snapstack block editing.
//
// # Overview
//
// Snapstack keeps a workspace of connectable blocks and the geometry tree
// over it in sync while edits happen—the engine behind every rendering and
// editing surface in this repository. The pkg directory is organized into
// four main areas:
//
//  1. [model] - Block model (workspace, blocks, inputs, connections)
//  2. [layout] - Live geometry engine (layout tree, coordinator, snapping)
//  3. [export] - Output formats (SVG scenes, JSON snapshots, DOT graphs)
//  4. [pipeline] - Orchestration (load → layout → export) over [cache] and [store]
//
// # Architecture
//
// The typical data flow through Snapstack:
//
//	Workspace Document (JSON)
//	         ↓
//	    [model] package (blocks, connections, shadows)
//	         ↓ change events
//	    [layout] package (measure → size → position, batched per flush)
//	         ↓
//	    [export] package (SVG / JSON / DOT output)
//
// Edits run the other direction: an editing surface calls the coordinator
// ([layout.Coordinator.ConnectPair], [layout.Coordinator.MoveBlockGroup]),
// the model mutates, and the change events bring the geometry back in sync.
//
// # Quick Start
//
// Build a workspace, lay it out, and render an SVG:
//
//	import (
//	    "github.com/matzehuels/snapstack/pkg/export"
//	    "github.com/matzehuels/snapstack/pkg/layout"
//	    "github.com/matzehuels/snapstack/pkg/measure"
//	    "github.com/matzehuels/snapstack/pkg/model"
//	)
//
//	// 1. Build a workspace
//	ws := model.NewWorkspace()
//	move := model.NewBlockBuilder("move").
//	    WithPreviousConnection().
//	    WithNextConnection().
//	    MustBuild()
//	_ = ws.AddBlockTree(move)
//
//	// 2. Stand up the layout engine
//	factory := layout.NewFactory(layout.NewConfig(), layout.NewScheduler())
//	measure.InstallDefaults(factory)
//	coord := layout.NewCoordinator(ws, factory)
//	_ = coord.Rebuild()
//
//	// 3. Render
//	svg := export.RenderSVG(coord.WorkspaceLayout())
//
// # Main Packages
//
// ## Core Domain Logic
//
// [model] - The block model: workspaces with ordered top-level blocks,
// blocks built through a builder, value/statement/dummy inputs, label,
// text input and checkbox fields, and connections with complementary
// kinds, type checks, and coexisting real and shadow targets. Includes
// the JSON workspace document format.
//
// [layout] - The live geometry engine. A layout tree mirrors the block
// model (field → input → block → group → workspace), a coordinator
// subscribes to model events and re-measures, re-sizes, and re-positions
// exactly the dirty subtrees per flush, and a spatial connection index
// answers drag-to-snap queries.
//
// [geometry] - Workspace/view dual-coordinate value types: points, sizes,
// rects, and RTL-aware edge insets.
//
// [measure] - Field measurers. Text measurement runs on a deterministic
// bitmap font so sizes agree across platforms and in tests.
//
// ## Output
//
// [export] - Renderers over the layout tree and the block model: SVG
// scenes with z-ordered groups, JSON layout snapshots for editor front
// ends, and DOT connection graphs rendered through Graphviz.
//
// ## Infrastructure
//
// [pipeline] - The load → layout → export pipeline shared by the CLI and
// the serve API, with content-hash caching at every stage.
//
// [cache] - Artifact and snapshot caching: file-backed with sharded
// directories for the CLI, Redis for multi-instance deployments, plus
// null and scoped wrappers.
//
// [store] - Workspace document persistence: memory, file, and MongoDB
// backends behind one interface.
//
// [observability] - Pipeline, cache, and engine hook interfaces with
// no-op defaults; the serve command plugs Prometheus collectors in here.
//
// [errors] - Structured errors with machine-readable codes shared across
// the engine and its surfaces.
//
// [buildinfo] - Version metadata injected at build time.
//
// # Common Workflows
//
// Load a stored document and inspect it:
//
//	ws, _ := model.UnmarshalWorkspace(data)
//	for _, b := range ws.TopBlocks() {
//	    fmt.Println(b.Name(), b.Position())
//	}
//
// Drive an interactive edit:
//
//	_ = coord.MoveBlockGroup(block, geometry.Pt(120, 40))
//	if cand := coord.SnapCandidate(block.PreviousConnection()); cand != nil {
//	    _ = coord.ConnectPair(block.PreviousConnection(), cand)
//	}
//
// Run the full pipeline with caching:
//
//	runner := pipeline.NewRunner(fileCache, keyer, logger)
//	result, _ := runner.Execute(ctx, pipeline.Options{
//	    Path:    "workspace.json",
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	_ = os.WriteFile("workspace.svg", result.Artifacts[pipeline.FormatSVG], 0o644)
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...              # All tests
//	go test ./pkg/layout/...       # Specific package
//	go test -run Example ./pkg/... # Examples only
//
// [model]: https://pkg.go.dev/github.com/matzehuels/snapstack/pkg/model
// [layout]: https://pkg.go.dev/github.com/matzehuels/snapstack/pkg/layout
// [geometry]: https://pkg.go.dev/github.com/matzehuels/snapstack/pkg/geometry
// [measure]: https://pkg.go.dev/github.com/matzehuels/snapstack/pkg/measure
// [export]: https://pkg.go.dev/github.com/matzehuels/snapstack/pkg/export
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/snapstack/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/snapstack/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/snapstack/pkg/store
// [observability]: https://pkg.go.dev/github.com/matzehuels/snapstack/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/snapstack/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/snapstack/pkg/buildinfo
package pkg
