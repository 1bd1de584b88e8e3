package layout

import (
	"github.com/matzehuels/snapstack/pkg/geometry"
	"github.com/matzehuels/snapstack/pkg/model"
)

// FieldMeasurer computes the content size of a field's value in workspace
// units. Text-bearing kinds measure rendered text; fixed-extent kinds such
// as checkboxes read their size from the config. Measurers are registered
// per field kind on the [Factory].
type FieldMeasurer interface {
	MeasureField(field *model.Field, config *Config) geometry.Size
}

// FieldLayout is the leaf node kind: it mirrors one model field. It has no
// children; its content size comes entirely from the measurer, and its
// insets pad the field within the input row.
//
// The layout registers itself as the field's value listener, so an edit
// resizes the field and reflows every ancestor up to the root.
type FieldLayout struct {
	Base
	field    *model.Field
	measurer FieldMeasurer
}

// NewFieldLayout creates the layout node for field using measurer for
// sizing. The node installs itself as the field's value listener.
func NewFieldLayout(field *model.Field, measurer FieldMeasurer, config *Config, scheduler *Scheduler) *FieldLayout {
	fl := &FieldLayout{field: field, measurer: measurer}
	fl.initBase(fl, config, scheduler)
	field.SetListener(fl)
	return fl
}

// Field returns the model field this node mirrors.
func (fl *FieldLayout) Field() *model.Field { return fl.field }

// PerformLayout sizes the field from its measurer. Fields have no
// children, so recurse is irrelevant.
func (fl *FieldLayout) PerformLayout(bool) {
	fl.setEdgeInsets(fl.config.Insets(KeyFieldInsets).Workspace)
	fl.setContentSize(fl.measurer.MeasureField(fl.field, fl.config))
}

// FieldValueChanged implements [model.FieldListener]. An edited value
// re-measures this field and reflows the ancestry without touching
// unrelated subtrees.
func (fl *FieldLayout) FieldValueChanged(*model.Field) {
	fl.markAncestorsNeedLayout()
	fl.sendChange(FlagFieldValue | FlagNeedsDisplay)
	fl.UpdateLayoutUpTree()
}
