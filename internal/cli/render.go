package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/snapstack/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
// These options control layout geometry and the produced artifact set.
type renderOpts struct {
	output     string   // output file (single format) or base path (multiple)
	formats    []string // output formats: "svg", "json", "dot", "graph"
	scale      float64  // workspace-to-view scale factor
	rtl        bool     // right-to-left block layout
	configPath string   // TOML geometry/color overrides
	background bool     // paint the canvas color behind blocks (svg)
	markers    bool     // include connection overlays (svg/json)
	detailed   bool     // verbose node labels (dot/graph)
	noCache    bool     // disable the artifact cache
	refresh    bool     // recompute even on a cache hit
}

// artifactExts maps pipeline formats to output file extensions.
var artifactExts = map[string]string{
	pipeline.FormatSVG:   "svg",
	pipeline.FormatJSON:  "json",
	pipeline.FormatDOT:   "dot",
	pipeline.FormatGraph: "graph.svg",
}

// renderCommand creates the render command for generating artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "render [workspace.json]",
		Short: "Render a workspace to SVG, JSON, or DOT artifacts",
		Long: `Render a workspace to SVG, JSON, or DOT artifacts.

The render command loads a workspace JSON file, computes the block layout,
and writes one artifact per requested format:

  svg    the laid-out blocks as an SVG drawing
  json   block frames and connection points with view coordinates
  dot    the block connection graph in Graphviz DOT
  graph  the DOT graph rendered to SVG via Graphviz

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot, graph (comma-separated)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "workspace-to-view scale factor")
	cmd.Flags().BoolVar(&opts.rtl, "rtl", false, "lay blocks out right-to-left")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "TOML file with geometry and color overrides")
	cmd.Flags().BoolVar(&opts.background, "background", false, "paint the canvas color behind blocks")
	cmd.Flags().BoolVar(&opts.markers, "markers", false, "include connection point overlays")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "verbose node labels (dot, graph)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when cached")

	return cmd
}

// runRender executes the full pipeline for input and writes the artifacts.
func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	popts := pipeline.Options{
		Path:       input,
		Refresh:    opts.refresh,
		Scale:      opts.scale,
		RTL:        opts.rtl,
		ConfigPath: opts.configPath,
		Formats:    opts.formats,
		Background: opts.background,
		Markers:    opts.markers,
		Detailed:   opts.detailed,
		Logger:     c.Logger,
	}

	spinner := newSpinnerWithContext(ctx, "Rendering workspace...")
	spinner.Start()

	result, err := runner.Execute(ctx, popts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	written, err := writeArtifacts(result.Artifacts, opts.formats, opts.output, input)
	if err != nil {
		return err
	}

	printSuccess("Rendered %d artifact(s)", len(written))
	for _, path := range written {
		printFile(path)
	}
	printStats(result.Stats.BlockCount, result.Stats.GroupCount, result.CacheInfo.ArtifactHit)

	return nil
}

// writeArtifacts writes one file per requested format and returns the paths
// in format order. With a single format and an explicit output path the
// artifact goes exactly there; otherwise paths derive from the base path
// plus the format extension.
func writeArtifacts(artifacts map[string][]byte, formats []string, output, input string) ([]string, error) {
	if len(formats) == 1 && output != "" {
		if err := writeArtifact(output, artifacts[formats[0]]); err != nil {
			return nil, err
		}
		return []string{output}, nil
	}

	base := basePath(output, input)
	written := make([]string, 0, len(formats))
	for _, format := range formats {
		path := base + "." + artifactExts[format]
		if err := writeArtifact(path, artifacts[format]); err != nil {
			return nil, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeArtifact(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .json, etc.), it strips that extension.
// This is used when generating multiple files (e.g., workspace.svg, workspace.dot).
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	switch strings.TrimPrefix(ext, ".") {
	case "svg", "json", "dot":
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
