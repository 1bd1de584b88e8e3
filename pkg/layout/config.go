package layout

import (
	"github.com/BurntSushi/toml"
	"github.com/matzehuels/snapstack/pkg/errors"
	"github.com/matzehuels/snapstack/pkg/geometry"
)

// Unit is a scalar config value carried in both coordinate systems.
// View is always Workspace multiplied by the config's current scale.
type Unit struct {
	Workspace float64
	View      float64
}

// SizeValue is a size config value carried in both coordinate systems.
type SizeValue struct {
	Workspace geometry.Size
	View      geometry.Size
}

// InsetValue is an edge-inset config value carried in both coordinate
// systems.
type InsetValue struct {
	Workspace geometry.EdgeInsets
	View      geometry.EdgeInsets
}

// ConfigKey names one entry in the config table.
type ConfigKey string

// Scalar config keys, in workspace units.
const (
	// KeyXSeparatorSpace is the horizontal space between sibling elements.
	KeyXSeparatorSpace ConfigKey = "x_separator_space"
	// KeyYSeparatorSpace is the vertical space between stacked elements.
	KeyYSeparatorSpace ConfigKey = "y_separator_space"
	// KeyInlineXPadding pads inline inputs horizontally.
	KeyInlineXPadding ConfigKey = "inline_x_padding"
	// KeyInlineYPadding pads inline inputs vertically.
	KeyInlineYPadding ConfigKey = "inline_y_padding"
	// KeyBlockCornerRadius is the corner radius of block outlines.
	KeyBlockCornerRadius ConfigKey = "block_corner_radius"
	// KeyNotchWidth is the width of the previous/next notch.
	KeyNotchWidth ConfigKey = "notch_width"
	// KeyNotchHeight is the vertical overlap of interlocking notches.
	KeyNotchHeight ConfigKey = "notch_height"
	// KeyPuzzleTabWidth is the width of the output/input puzzle tab.
	KeyPuzzleTabWidth ConfigKey = "puzzle_tab_width"
	// KeyPuzzleTabHeight is the height of the output/input puzzle tab.
	KeyPuzzleTabHeight ConfigKey = "puzzle_tab_height"
	// KeyMinBlockHeight is the minimum total height of a block.
	KeyMinBlockHeight ConfigKey = "min_block_height"
	// KeyBlockBumpDistance is how far a displaced block is nudged clear.
	KeyBlockBumpDistance ConfigKey = "block_bump_distance"
	// KeyConnectionSnapRadius is the drag-to-connect search radius.
	KeyConnectionSnapRadius ConfigKey = "connection_snap_radius"
)

// Size config keys.
const (
	// KeyCheckboxSize is the drawn size of a checkbox field.
	KeyCheckboxSize ConfigKey = "checkbox"
)

// Inset config keys.
const (
	// KeyFieldInsets pads every field's content box.
	KeyFieldInsets ConfigKey = "field"
)

// Color config keys. Values are CSS-style hex strings consumed by the
// exporters and the playground.
const (
	KeyBlockFillColor    ConfigKey = "block_fill"
	KeyBlockStrokeColor  ConfigKey = "block_stroke"
	KeyShadowFillColor   ConfigKey = "shadow_fill"
	KeyShadowStrokeColor ConfigKey = "shadow_stroke"
	KeyHighlightColor    ConfigKey = "highlight"
	KeyCanvasColor       ConfigKey = "canvas_background"
)

// Config is the keyed table of layout parameters. Every numeric entry is
// stored in workspace units with a cached view-unit mirror; the mirror is
// refreshed by [Config.UpdateViewValues], which [Config.SetScale] invokes.
//
// Use [NewConfig] for a table populated with defaults; the zero value is
// not usable.
type Config struct {
	scale float64
	rtl   bool

	units  map[ConfigKey]*Unit
	sizes  map[ConfigKey]*SizeValue
	insets map[ConfigKey]*InsetValue
	colors map[ConfigKey]string
}

// NewConfig creates a config table with default values at scale 1.
func NewConfig() *Config {
	c := &Config{
		scale:  1,
		units:  make(map[ConfigKey]*Unit),
		sizes:  make(map[ConfigKey]*SizeValue),
		insets: make(map[ConfigKey]*InsetValue),
		colors: make(map[ConfigKey]string),
	}

	c.SetUnit(KeyXSeparatorSpace, 10)
	c.SetUnit(KeyYSeparatorSpace, 10)
	c.SetUnit(KeyInlineXPadding, 10)
	c.SetUnit(KeyInlineYPadding, 5)
	c.SetUnit(KeyBlockCornerRadius, 4)
	c.SetUnit(KeyNotchWidth, 15)
	c.SetUnit(KeyNotchHeight, 4)
	c.SetUnit(KeyPuzzleTabWidth, 8)
	c.SetUnit(KeyPuzzleTabHeight, 20)
	c.SetUnit(KeyMinBlockHeight, 25)
	c.SetUnit(KeyBlockBumpDistance, 20)
	c.SetUnit(KeyConnectionSnapRadius, 25)

	c.SetSize(KeyCheckboxSize, geometry.Sz(14, 14))
	c.SetInsets(KeyFieldInsets, geometry.Insets(2, 4, 2, 4))

	c.SetColor(KeyBlockFillColor, "#5b80a5")
	c.SetColor(KeyBlockStrokeColor, "#496684")
	c.SetColor(KeyShadowFillColor, "#b0bec5")
	c.SetColor(KeyShadowStrokeColor, "#90a4ae")
	c.SetColor(KeyHighlightColor, "#ffcc33")
	c.SetColor(KeyCanvasColor, "#ffffff")
	return c
}

// Scale returns the current workspace-to-view scale factor.
func (c *Config) Scale() float64 { return c.scale }

// SetScale changes the scale factor and refreshes every cached view value.
func (c *Config) SetScale(scale float64) {
	c.scale = scale
	c.UpdateViewValues()
}

// RTL reports whether layout runs right-to-left.
func (c *Config) RTL() bool { return c.rtl }

// SetRTL switches the layout direction.
func (c *Config) SetRTL(rtl bool) { c.rtl = rtl }

// UpdateViewValues recomputes the view-unit mirror of every entry from its
// workspace value and the current scale. Call after changing the scale
// through means other than [Config.SetScale].
func (c *Config) UpdateViewValues() {
	for _, u := range c.units {
		u.View = u.Workspace * c.scale
	}
	for _, s := range c.sizes {
		s.View = s.Workspace.Scaled(c.scale)
	}
	for _, i := range c.insets {
		i.View = i.Workspace.Scaled(c.scale)
	}
}

// SetUnit stores a scalar entry in workspace units. Unknown keys are
// created, so callers may add their own entries.
func (c *Config) SetUnit(key ConfigKey, workspace float64) {
	c.units[key] = &Unit{Workspace: workspace, View: workspace * c.scale}
}

// Unit returns the scalar entry for key, or a zero Unit for unknown keys.
func (c *Config) Unit(key ConfigKey) Unit {
	if u, ok := c.units[key]; ok {
		return *u
	}
	return Unit{}
}

// WorkspaceUnit returns the workspace-unit value of a scalar entry.
func (c *Config) WorkspaceUnit(key ConfigKey) float64 { return c.Unit(key).Workspace }

// ViewUnit returns the view-unit value of a scalar entry.
func (c *Config) ViewUnit(key ConfigKey) float64 { return c.Unit(key).View }

// SetSize stores a size entry in workspace units.
func (c *Config) SetSize(key ConfigKey, workspace geometry.Size) {
	c.sizes[key] = &SizeValue{Workspace: workspace, View: workspace.Scaled(c.scale)}
}

// Size returns the size entry for key, or a zero SizeValue for unknown keys.
func (c *Config) Size(key ConfigKey) SizeValue {
	if s, ok := c.sizes[key]; ok {
		return *s
	}
	return SizeValue{}
}

// SetInsets stores an inset entry in workspace units.
func (c *Config) SetInsets(key ConfigKey, workspace geometry.EdgeInsets) {
	c.insets[key] = &InsetValue{Workspace: workspace, View: workspace.Scaled(c.scale)}
}

// Insets returns the inset entry for key, or a zero InsetValue for unknown
// keys.
func (c *Config) Insets(key ConfigKey) InsetValue {
	if i, ok := c.insets[key]; ok {
		return *i
	}
	return InsetValue{}
}

// SetColor stores a color entry.
func (c *Config) SetColor(key ConfigKey, color string) { c.colors[key] = color }

// Color returns the color entry for key, or "" for unknown keys.
func (c *Config) Color(key ConfigKey) string { return c.colors[key] }

// configDoc is the TOML override file shape:
//
//	scale = 2.0
//	rtl = false
//
//	[units]
//	notch_width = 16
//
//	[sizes]
//	checkbox = [14, 14]
//
//	[insets]
//	field = [2, 4, 2, 4]
//
//	[colors]
//	block_fill = "#ff8800"
type configDoc struct {
	Scale  *float64             `toml:"scale"`
	RTL    *bool                `toml:"rtl"`
	Units  map[string]float64   `toml:"units"`
	Sizes  map[string][]float64 `toml:"sizes"`
	Insets map[string][]float64 `toml:"insets"`
	Colors map[string]string    `toml:"colors"`
}

// LoadFile applies overrides from a TOML file on top of the current values.
// Every overridden key must already exist in the table; unknown keys fail
// with an INVALID_CONFIG error so typos do not silently vanish.
func (c *Config) LoadFile(path string) error {
	var doc configDoc
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "load config %s", path)
	}
	return c.apply(&doc)
}

func (c *Config) apply(doc *configDoc) error {
	for k, v := range doc.Units {
		if _, ok := c.units[ConfigKey(k)]; !ok {
			return errors.New(errors.ErrCodeInvalidConfig, "unknown unit key %q", k)
		}
		c.SetUnit(ConfigKey(k), v)
	}
	for k, v := range doc.Sizes {
		if _, ok := c.sizes[ConfigKey(k)]; !ok {
			return errors.New(errors.ErrCodeInvalidConfig, "unknown size key %q", k)
		}
		if len(v) != 2 {
			return errors.New(errors.ErrCodeInvalidConfig, "size key %q needs [width, height]", k)
		}
		c.SetSize(ConfigKey(k), geometry.Sz(v[0], v[1]))
	}
	for k, v := range doc.Insets {
		if _, ok := c.insets[ConfigKey(k)]; !ok {
			return errors.New(errors.ErrCodeInvalidConfig, "unknown inset key %q", k)
		}
		if len(v) != 4 {
			return errors.New(errors.ErrCodeInvalidConfig, "inset key %q needs [top, leading, bottom, trailing]", k)
		}
		c.SetInsets(ConfigKey(k), geometry.Insets(v[0], v[1], v[2], v[3]))
	}
	for k, v := range doc.Colors {
		if _, ok := c.colors[ConfigKey(k)]; !ok {
			return errors.New(errors.ErrCodeInvalidConfig, "unknown color key %q", k)
		}
		c.SetColor(ConfigKey(k), v)
	}
	if doc.Scale != nil {
		if *doc.Scale <= 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "scale must be positive, got %v", *doc.Scale)
		}
		c.SetScale(*doc.Scale)
	}
	if doc.RTL != nil {
		c.SetRTL(*doc.RTL)
	}
	return nil
}
