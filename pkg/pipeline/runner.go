package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/snapstack/pkg/cache"
	"github.com/matzehuels/snapstack/pkg/export"
	"github.com/matzehuels/snapstack/pkg/layout"
	"github.com/matzehuels/snapstack/pkg/measure"
	"github.com/matzehuels/snapstack/pkg/model"
	"github.com/matzehuels/snapstack/pkg/observability"
	"github.com/matzehuels/snapstack/pkg/store"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → export pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.Source())
	ws, wsHit, err := r.LoadWithCacheInfo(ctx, opts)
	blocks := 0
	if ws != nil {
		blocks = ws.BlockCount()
	}
	observability.Pipeline().OnLoadComplete(ctx, opts.Source(), blocks, time.Since(loadStart), err)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Workspace = ws
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.BlockCount = blocks
	result.CacheInfo.WorkspaceHit = wsHit

	// Compute the content hash for cache keys and API responses
	if data, err := model.MarshalWorkspace(ws); err == nil {
		result.WorkspaceHash = cache.Hash(data)
	}

	r.Logger.Info("loaded workspace",
		"source", opts.Source(),
		"blocks", result.Stats.BlockCount,
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, result.Stats.BlockCount)
	coord, configHash, err := r.BuildLayout(ws, opts)
	groups := 0
	if coord != nil {
		groups = len(coord.WorkspaceLayout().BlockGroups())
	}
	observability.Pipeline().OnLayoutComplete(ctx, groups, time.Since(layoutStart), err)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = coord.WorkspaceLayout()
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.GroupCount = groups

	r.Logger.Info("computed layout",
		"groups", groups,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Export
	exportStart := time.Now()
	observability.Pipeline().OnExportStart(ctx, opts.Formats)
	artifacts, artifactHit, err := r.ExportWithCacheInfo(ctx, coord, result.WorkspaceHash, configHash, opts)
	observability.Pipeline().OnExportComplete(ctx, opts.Formats, time.Since(exportStart), err)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.ExportTime = time.Since(exportStart)
	result.CacheInfo.ArtifactHit = artifactHit

	r.Logger.Info("rendered artifacts",
		"formats", opts.Formats,
		"cached", artifactHit,
		"duration", result.Stats.ExportTime)

	return result, nil
}

// LoadWithCacheInfo loads a workspace and returns cache hit info.
// Stored workspaces are cached by document ID; file and inline sources
// always load fresh.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (*model.Workspace, bool, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	switch {
	case len(opts.Data) > 0:
		ws, err := model.UnmarshalWorkspace(opts.Data)
		if err != nil {
			return nil, false, fmt.Errorf("parse workspace: %w", err)
		}
		return ws, false, nil

	case opts.Path != "":
		data, err := os.ReadFile(opts.Path)
		if err != nil {
			return nil, false, fmt.Errorf("read workspace file: %w", err)
		}
		ws, err := model.UnmarshalWorkspace(data)
		if err != nil {
			return nil, false, fmt.Errorf("parse workspace file: %w", err)
		}
		return ws, false, nil
	}

	// Stored workspace: try the cache, then the document store
	key := r.Keyer.WorkspaceKey(opts.WorkspaceID)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if ws, err := model.UnmarshalWorkspace(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "workspace")
				return ws, true, nil
			}
		}
	}
	observability.Cache().OnCacheMiss(ctx, "workspace")

	doc, err := opts.Store.Get(ctx, opts.WorkspaceID)
	if err != nil {
		return nil, false, fmt.Errorf("load workspace %q: %w", opts.WorkspaceID, err)
	}
	if doc == nil {
		return nil, false, fmt.Errorf("workspace %q: %w", opts.WorkspaceID, store.ErrNotFound)
	}

	ws, err := model.UnmarshalWorkspace(doc.Data)
	if err != nil {
		return nil, false, fmt.Errorf("parse workspace %q: %w", opts.WorkspaceID, err)
	}

	_ = r.Cache.Set(ctx, key, doc.Data, cache.TTLWorkspace)
	observability.Cache().OnCacheSet(ctx, "workspace", len(doc.Data))

	return ws, false, nil
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards the cache hit info.
func (r *Runner) Load(ctx context.Context, opts Options) (*model.Workspace, error) {
	ws, _, err := r.LoadWithCacheInfo(ctx, opts)
	return ws, err
}

// BuildLayout constructs the live layout tree for a workspace.
// The returned coordinator keeps tracking model changes, which the
// interactive surfaces rely on. The second return is the content hash
// of the applied config file, empty when no override is loaded.
func (r *Runner) BuildLayout(ws *model.Workspace, opts Options) (*layout.Coordinator, string, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, "", err
	}
	r.applyLogger(&opts)

	cfg := layout.NewConfig()
	var configHash string
	if opts.ConfigPath != "" {
		data, err := os.ReadFile(opts.ConfigPath)
		if err != nil {
			return nil, "", fmt.Errorf("read config: %w", err)
		}
		if err := cfg.LoadFile(opts.ConfigPath); err != nil {
			return nil, "", fmt.Errorf("load config: %w", err)
		}
		configHash = cache.Hash(data)
	}
	if opts.RTL {
		cfg.SetRTL(true)
	}

	factory := layout.NewFactory(cfg, layout.NewScheduler())
	measure.InstallDefaults(factory)

	coord := layout.NewCoordinator(ws, factory, layout.WithLogger(opts.Logger))
	if err := coord.Rebuild(); err != nil {
		return nil, "", err
	}
	coord.SetScale(opts.Scale)

	return coord, configHash, nil
}

// LayoutSnapshot returns the serialized layout for a workspace, cached
// by content hash. The serve API uses it for layout queries where the
// live tree isn't needed afterwards.
func (r *Runner) LayoutSnapshot(ctx context.Context, ws *model.Workspace, opts Options) ([]byte, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	var key string
	if data, err := model.MarshalWorkspace(ws); err == nil {
		keyOpts := opts.LayoutKeyOpts()
		if opts.ConfigPath != "" {
			if raw, err := os.ReadFile(opts.ConfigPath); err == nil {
				keyOpts.ConfigHash = cache.Hash(raw)
			}
		}
		key = r.Keyer.LayoutKey(cache.Hash(data), keyOpts)

		if snapshot, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "layout")
			return snapshot, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	coord, _, err := r.BuildLayout(ws, opts)
	if err != nil {
		return nil, false, err
	}
	snapshot, err := export.RenderJSON(coord.WorkspaceLayout(), export.WithJSONConnections())
	if err != nil {
		return nil, false, err
	}

	if key != "" {
		_ = r.Cache.Set(ctx, key, snapshot, cache.TTLLayout)
		observability.Cache().OnCacheSet(ctx, "layout", len(snapshot))
	}

	return snapshot, false, nil
}

// ExportWithCacheInfo renders artifacts with caching and returns cache hit info.
// workspaceHash keys the artifact cache; with an empty hash caching is
// skipped entirely.
func (r *Runner) ExportWithCacheInfo(ctx context.Context, coord *layout.Coordinator, workspaceHash, configHash string, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForExport(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	keyFor := func(format string) string {
		keyOpts := opts.ArtifactKeyOpts(format)
		keyOpts.ConfigHash = configHash
		return r.Keyer.ArtifactKey(workspaceHash, keyOpts)
	}

	// Try to get all formats from cache
	allCached := workspaceHash != ""
	artifacts := make(map[string][]byte)
	if allCached {
		for _, format := range opts.Formats {
			if data, hit, err := r.Cache.Get(ctx, keyFor(format)); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
			} else {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				allCached = false
				break
			}
		}
	}
	if allCached && len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil // All artifacts from cache
	}

	// Render all formats
	rendered, err := r.renderArtifacts(coord, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	if workspaceHash != "" {
		for format, data := range rendered {
			_ = r.Cache.Set(ctx, keyFor(format), data, cache.TTLArtifact)
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, false, nil // Cache miss
}

// Export is a convenience wrapper that calls ExportWithCacheInfo and discards the cache hit info.
func (r *Runner) Export(ctx context.Context, coord *layout.Coordinator, workspaceHash, configHash string, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.ExportWithCacheInfo(ctx, coord, workspaceHash, configHash, opts)
	return artifacts, err
}

// renderArtifacts renders every requested format from the live layout.
func (r *Runner) renderArtifacts(coord *layout.Coordinator, opts Options) (map[string][]byte, error) {
	wl := coord.WorkspaceLayout()
	ws := wl.Workspace()

	out := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		switch format {
		case FormatSVG:
			var svgOpts []export.SVGOption
			if opts.Background {
				svgOpts = append(svgOpts, export.WithCanvasBackground())
			}
			if opts.Markers {
				svgOpts = append(svgOpts, export.WithConnectionMarkers())
			}
			out[format] = export.RenderSVG(wl, svgOpts...)

		case FormatJSON:
			var jsonOpts []export.JSONOption
			if opts.Markers {
				jsonOpts = append(jsonOpts, export.WithJSONConnections())
			}
			data, err := export.RenderJSON(wl, jsonOpts...)
			if err != nil {
				return nil, fmt.Errorf("render json: %w", err)
			}
			out[format] = data

		case FormatDOT:
			out[format] = []byte(export.ToDOT(ws, export.DOTOptions{Detailed: opts.Detailed}))

		case FormatGraph:
			dot := export.ToDOT(ws, export.DOTOptions{Detailed: opts.Detailed})
			data, err := export.RenderGraphSVG(dot)
			if err != nil {
				return nil, fmt.Errorf("render graph: %w", err)
			}
			out[format] = data
		}
	}
	return out, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
