package layout

import (
	"github.com/matzehuels/snapstack/pkg/errors"
	"github.com/matzehuels/snapstack/pkg/model"
)

// Factory creates layout nodes bound to one config and scheduler, with a
// measurer registered per field kind. The builder routes every node
// creation through here so a workspace's layouts share one geometry
// environment.
type Factory struct {
	config    *Config
	scheduler *Scheduler
	measurers map[model.FieldKind]FieldMeasurer
}

// NewFactory creates a factory producing nodes bound to config and
// scheduler. No measurers are registered; field layout creation fails
// until the caller registers one per field kind in use.
func NewFactory(config *Config, scheduler *Scheduler) *Factory {
	return &Factory{
		config:    config,
		scheduler: scheduler,
		measurers: make(map[model.FieldKind]FieldMeasurer),
	}
}

// Config returns the config the factory binds into its nodes.
func (f *Factory) Config() *Config { return f.config }

// Scheduler returns the scheduler the factory binds into its nodes.
func (f *Factory) Scheduler() *Scheduler { return f.scheduler }

// RegisterMeasurer installs the measurer used for fields of the given
// kind, replacing any previous registration.
func (f *Factory) RegisterMeasurer(kind model.FieldKind, m FieldMeasurer) {
	f.measurers[kind] = m
}

// CreateFieldLayout creates the layout for field. Returns a
// MEASURER_NOT_FOUND error when no measurer is registered for the field's
// kind.
func (f *Factory) CreateFieldLayout(field *model.Field) (*FieldLayout, error) {
	m, ok := f.measurers[field.Kind()]
	if !ok {
		return nil, errors.New(errors.ErrCodeMeasurerNotFound,
			"no measurer registered for field kind %q", field.Kind())
	}
	return NewFieldLayout(field, m, f.config, f.scheduler), nil
}

// CreateInputLayout creates the layout for input, including its two empty
// block groups.
func (f *Factory) CreateInputLayout(input *model.Input) *InputLayout {
	return NewInputLayout(input, f.config, f.scheduler)
}

// CreateBlockLayout creates the layout for block.
func (f *Factory) CreateBlockLayout(block *model.Block) *BlockLayout {
	return NewBlockLayout(block, f.config, f.scheduler)
}

// CreateBlockGroupLayout creates an empty block group.
func (f *Factory) CreateBlockGroupLayout() *BlockGroupLayout {
	return NewBlockGroupLayout(f.config, f.scheduler)
}

// CreateWorkspaceLayout creates the root layout for workspace.
func (f *Factory) CreateWorkspaceLayout(workspace *model.Workspace) *WorkspaceLayout {
	return NewWorkspaceLayout(workspace, f.config, f.scheduler)
}
