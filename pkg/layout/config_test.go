package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/snapstack/pkg/errors"
	"github.com/matzehuels/snapstack/pkg/geometry"
)

func TestNewConfigDefaults(t *testing.T) {
	c := NewConfig()

	if got := c.Scale(); got != 1 {
		t.Errorf("Scale = %v, want 1", got)
	}
	if c.RTL() {
		t.Error("RTL on by default")
	}

	units := map[ConfigKey]float64{
		KeyXSeparatorSpace:      10,
		KeyNotchWidth:           15,
		KeyNotchHeight:          4,
		KeyPuzzleTabWidth:       8,
		KeyMinBlockHeight:       25,
		KeyBlockBumpDistance:    20,
		KeyConnectionSnapRadius: 25,
	}
	for key, want := range units {
		u := c.Unit(key)
		if u.Workspace != want || u.View != want {
			t.Errorf("Unit(%s) = %+v, want %v at scale 1", key, u, want)
		}
	}

	if got, want := c.Size(KeyCheckboxSize).Workspace, geometry.Sz(14, 14); got != want {
		t.Errorf("checkbox size = %v, want %v", got, want)
	}
	if got, want := c.Insets(KeyFieldInsets).Workspace, geometry.Insets(2, 4, 2, 4); got != want {
		t.Errorf("field insets = %v, want %v", got, want)
	}
	if got, want := c.Color(KeyBlockFillColor), "#5b80a5"; got != want {
		t.Errorf("block fill = %q, want %q", got, want)
	}
}

func TestSetScaleRefreshesViewValues(t *testing.T) {
	c := NewConfig()
	c.SetScale(2)

	if got, want := c.ViewUnit(KeyNotchWidth), 30.0; got != want {
		t.Errorf("view notch width = %v, want %v", got, want)
	}
	if got, want := c.WorkspaceUnit(KeyNotchWidth), 15.0; got != want {
		t.Errorf("workspace notch width = %v, want %v", got, want)
	}
	if got, want := c.Size(KeyCheckboxSize).View, geometry.Sz(28, 28); got != want {
		t.Errorf("view checkbox size = %v, want %v", got, want)
	}
	if got, want := c.Insets(KeyFieldInsets).View, geometry.Insets(4, 8, 4, 8); got != want {
		t.Errorf("view field insets = %v, want %v", got, want)
	}
}

func TestConfigUnknownKeysReturnZeroValues(t *testing.T) {
	c := NewConfig()
	if got := c.Unit("no_such_key"); got != (Unit{}) {
		t.Errorf("Unit = %+v, want zero", got)
	}
	if got := c.Size("no_such_key"); got != (SizeValue{}) {
		t.Errorf("Size = %+v, want zero", got)
	}
	if got := c.Insets("no_such_key"); got != (InsetValue{}) {
		t.Errorf("Insets = %+v, want zero", got)
	}
	if got := c.Color("no_such_key"); got != "" {
		t.Errorf("Color = %q, want empty", got)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layout.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadFileAppliesOverrides(t *testing.T) {
	c := NewConfig()
	path := writeConfigFile(t, `
scale = 2.0
rtl = true

[units]
notch_width = 16

[sizes]
checkbox = [20, 20]

[insets]
field = [1, 2, 3, 4]

[colors]
block_fill = "#ff8800"
`)

	if err := c.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if got := c.Scale(); got != 2 {
		t.Errorf("Scale = %v, want 2", got)
	}
	if !c.RTL() {
		t.Error("RTL not applied")
	}
	if got, want := c.Unit(KeyNotchWidth), (Unit{Workspace: 16, View: 32}); got != want {
		t.Errorf("notch width = %+v, want %+v", got, want)
	}
	if got, want := c.Size(KeyCheckboxSize).View, geometry.Sz(40, 40); got != want {
		t.Errorf("view checkbox = %v, want %v", got, want)
	}
	if got, want := c.Insets(KeyFieldInsets).Workspace, geometry.Insets(1, 2, 3, 4); got != want {
		t.Errorf("field insets = %v, want %v", got, want)
	}
	if got, want := c.Color(KeyBlockFillColor), "#ff8800"; got != want {
		t.Errorf("block fill = %q, want %q", got, want)
	}
	// Untouched entries keep their defaults, rescaled.
	if got, want := c.Unit(KeyPuzzleTabWidth), (Unit{Workspace: 8, View: 16}); got != want {
		t.Errorf("puzzle tab width = %+v, want %+v", got, want)
	}
}

func TestLoadFileRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown unit key", "[units]\nnotch_widht = 16\n"},
		{"unknown color key", "[colors]\nblock_full = \"#fff\"\n"},
		{"size arity", "[sizes]\ncheckbox = [20]\n"},
		{"inset arity", "[insets]\nfield = [1, 2]\n"},
		{"zero scale", "scale = 0.0\n"},
		{"negative scale", "scale = -1.5\n"},
		{"malformed toml", "[units\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfig()
			err := c.LoadFile(writeConfigFile(t, tt.content))
			if err == nil {
				t.Fatal("LoadFile accepted bad input")
			}
			if got := errors.GetCode(err); got != errors.ErrCodeInvalidConfig {
				t.Errorf("code = %v, want %v", got, errors.ErrCodeInvalidConfig)
			}
		})
	}
}

func TestLoadFileMissingFile(t *testing.T) {
	c := NewConfig()
	err := c.LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Fatal("LoadFile succeeded on a missing file")
	}
	if got := errors.GetCode(err); got != errors.ErrCodeInvalidConfig {
		t.Errorf("code = %v, want %v", got, errors.ErrCodeInvalidConfig)
	}
}
