// Package pipeline provides the core rendering pipeline for Snapstack.
//
// This package implements the complete load → layout → export pipeline that
// can be used by CLI, API, and worker components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read a workspace document from a file, the document store,
//     or inline bytes
//  2. Layout: Build the live layout tree with measured geometry
//  3. Export: Generate output in various formats (SVG, JSON, DOT, graph)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Path:    "workspace.json",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Load only
//	ws, err := runner.Load(ctx, opts)
//
//	// Layout with an existing workspace
//	coord, _, err := runner.BuildLayout(ws, opts)
//
//	// Export with an existing layout
//	artifacts, err := runner.Export(ctx, coord, hash, "", opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/snapstack/pkg/cache"
	"github.com/matzehuels/snapstack/pkg/layout"
	"github.com/matzehuels/snapstack/pkg/model"
	"github.com/matzehuels/snapstack/pkg/store"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Worker
// =============================================================================

const (
	// DefaultScale is the default workspace-to-view scale factor.
	DefaultScale = 1.0
)

// Format constants for output formats.
const (
	FormatSVG   = "svg"
	FormatJSON  = "json"
	FormatDOT   = "dot"
	FormatGraph = "graph"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:   true,
	FormatJSON:  true,
	FormatDOT:   true,
	FormatGraph: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the rendering pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Exactly one of Path, WorkspaceID, or Data selects
	// the workspace source.
	Path        string `json:"path,omitempty"`         // Workspace JSON file
	WorkspaceID string `json:"workspace_id,omitempty"` // Stored document ID
	Data        []byte `json:"data,omitempty"`         // Inline workspace JSON
	Refresh     bool   `json:"refresh,omitempty"`

	// Layout options
	Scale      float64 `json:"scale,omitempty"`
	RTL        bool    `json:"rtl,omitempty"`
	ConfigPath string  `json:"config_path,omitempty"` // TOML geometry/color overrides

	// Export options
	Formats    []string `json:"formats,omitempty"`
	Background bool     `json:"background,omitempty"` // Paint the canvas color behind blocks
	Markers    bool     `json:"markers,omitempty"`    // Include connection overlays
	Detailed   bool     `json:"detailed,omitempty"`   // Verbose DOT labels

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
	Store  store.Store `json:"-"` // Required for WorkspaceID loads

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Workspace is the loaded block model.
	Workspace *model.Workspace

	// WorkspaceHash is the content hash of the canonical workspace document.
	WorkspaceHash string

	// Layout is the live layout tree built for this run.
	Layout *layout.WorkspaceLayout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	BlockCount int
	GroupCount int
	LoadTime   time.Duration
	LayoutTime time.Duration
	ExportTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	WorkspaceHit bool // Whether the workspace document came from cache
	ArtifactHit  bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, json, dot, graph)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	o.SetLayoutDefaults()
	o.SetExportDefaults()
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading a workspace.
func (o *Options) ValidateForLoad() error {
	sources := 0
	if o.Path != "" {
		sources++
	}
	if o.WorkspaceID != "" {
		sources++
	}
	if len(o.Data) > 0 {
		sources++
	}
	if sources == 0 {
		return fmt.Errorf("workspace source is required (path, workspace_id, or data)")
	}
	if sources > 1 {
		return fmt.Errorf("only one workspace source may be set")
	}
	if o.WorkspaceID != "" && o.Store == nil {
		return fmt.Errorf("store is required for workspace_id loads")
	}

	// Logger default
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if o.Scale <= 0 {
		return fmt.Errorf("invalid scale: %v (must be positive)", o.Scale)
	}
	return nil
}

// SetExportDefaults sets default values for exporting.
func (o *Options) SetExportDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForExport validates and sets defaults for exporting.
func (o *Options) ValidateForExport() error {
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	o.SetExportDefaults()
	return ValidateFormats(o.Formats)
}

// Source describes where the workspace comes from, for logs and hooks.
func (o *Options) Source() string {
	switch {
	case o.Path != "":
		return o.Path
	case o.WorkspaceID != "":
		return "store:" + o.WorkspaceID
	case len(o.Data) > 0:
		return "inline"
	}
	return ""
}

// LayoutKeyOpts returns cache key options for layout snapshots.
// ConfigHash is filled in by the runner once the config file is read.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Scale: o.Scale,
		RTL:   o.RTL,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
// ConfigHash is filled in by the runner once the config file is read.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     format,
		Scale:      o.Scale,
		RTL:        o.RTL,
		Background: o.Background,
		Markers:    o.Markers,
		Detailed:   o.Detailed,
	}
}
