// Package measure provides the default field measurers for the layout
// engine. All extents come from the fixed basicfont face, so measured
// sizes are identical on every platform and in tests.
package measure

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/snapstack/pkg/geometry"
	"github.com/matzehuels/snapstack/pkg/layout"
	"github.com/matzehuels/snapstack/pkg/model"
)

// minEditableWidth keeps an empty text input wide enough to present an
// edit target.
const minEditableWidth = 14

// TextMeasurer measures label and text-input fields against a monospace
// bitmap face. One pixel of the face maps to one workspace unit; the view
// scale is applied later by the layout tree.
type TextMeasurer struct {
	face font.Face
}

// NewTextMeasurer creates a measurer over the builtin 7x13 face.
func NewTextMeasurer() *TextMeasurer {
	return &TextMeasurer{face: basicfont.Face7x13}
}

// MeasureField returns the extent of the field's text. Text inputs never
// shrink below minEditableWidth.
func (m *TextMeasurer) MeasureField(field *model.Field, _ *layout.Config) geometry.Size {
	w := m.width(field.Text())
	if field.Kind() == model.FieldTextInput && w < minEditableWidth {
		w = minEditableWidth
	}
	met := m.face.Metrics()
	return geometry.Sz(w, float64(met.Ascent.Round()+met.Descent.Round()))
}

func (m *TextMeasurer) width(s string) float64 {
	d := &font.Drawer{Face: m.face}
	return float64(d.MeasureString(s) >> 6)
}

// CheckboxMeasurer sizes checkbox fields from the config's checkbox entry.
type CheckboxMeasurer struct{}

// MeasureField returns the configured checkbox box size.
func (CheckboxMeasurer) MeasureField(_ *model.Field, config *layout.Config) geometry.Size {
	return config.Size(layout.KeyCheckboxSize).Workspace
}

// InstallDefaults registers a measurer for every field kind on the factory.
func InstallDefaults(f *layout.Factory) {
	text := NewTextMeasurer()
	f.RegisterMeasurer(model.FieldLabel, text)
	f.RegisterMeasurer(model.FieldTextInput, text)
	f.RegisterMeasurer(model.FieldCheckbox, CheckboxMeasurer{})
}
