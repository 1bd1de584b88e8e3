package measure

import (
	"testing"

	"github.com/matzehuels/snapstack/pkg/geometry"
	"github.com/matzehuels/snapstack/pkg/layout"
	"github.com/matzehuels/snapstack/pkg/model"
)

func TestTextMeasurerWidthTracksText(t *testing.T) {
	m := NewTextMeasurer()
	cfg := layout.NewConfig()

	tests := []struct {
		text string
		want geometry.Size
	}{
		{"", geometry.Sz(0, 13)},
		{"x", geometry.Sz(7, 13)},
		{"snap", geometry.Sz(28, 13)},
		{"snap stack", geometry.Sz(70, 13)},
	}
	for _, tt := range tests {
		got := m.MeasureField(model.NewLabelField("LBL", tt.text), cfg)
		if got != tt.want {
			t.Errorf("MeasureField(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestTextInputEnforcesMinimumWidth(t *testing.T) {
	m := NewTextMeasurer()
	cfg := layout.NewConfig()

	if got, want := m.MeasureField(model.NewTextInputField("VAL", ""), cfg), geometry.Sz(14, 13); got != want {
		t.Errorf("empty input = %v, want %v", got, want)
	}
	if got, want := m.MeasureField(model.NewTextInputField("VAL", "a"), cfg), geometry.Sz(14, 13); got != want {
		t.Errorf("one-char input = %v, want %v", got, want)
	}
	if got, want := m.MeasureField(model.NewTextInputField("VAL", "abc"), cfg), geometry.Sz(21, 13); got != want {
		t.Errorf("three-char input = %v, want %v", got, want)
	}
}

func TestCheckboxMeasurerReadsConfig(t *testing.T) {
	cfg := layout.NewConfig()
	field := model.NewCheckboxField("FLAG", true)

	if got, want := (CheckboxMeasurer{}).MeasureField(field, cfg), geometry.Sz(14, 14); got != want {
		t.Errorf("default checkbox = %v, want %v", got, want)
	}

	cfg.SetSize(layout.KeyCheckboxSize, geometry.Sz(20, 20))
	if got, want := (CheckboxMeasurer{}).MeasureField(field, cfg), geometry.Sz(20, 20); got != want {
		t.Errorf("configured checkbox = %v, want %v", got, want)
	}
}

func TestInstallDefaultsCoversAllFieldKinds(t *testing.T) {
	f := layout.NewFactory(layout.NewConfig(), layout.NewScheduler())
	InstallDefaults(f)

	fields := []*model.Field{
		model.NewLabelField("LBL", "if"),
		model.NewTextInputField("VAL", "10"),
		model.NewCheckboxField("FLAG", false),
	}
	for _, field := range fields {
		if _, err := f.CreateFieldLayout(field); err != nil {
			t.Errorf("CreateFieldLayout(%v): %v", field.Kind(), err)
		}
	}
}
