package layout

import (
	"github.com/matzehuels/snapstack/pkg/model"
)

// Registry resolves model blocks to their live layout nodes. Each
// coordinator owns one; nothing here is global, so independent workspaces
// never see each other's layouts.
type Registry struct {
	blocks map[string]*BlockLayout
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{blocks: make(map[string]*BlockLayout)}
}

// Register records bl as the layout of its model block, replacing any
// previous registration for the same block.
func (r *Registry) Register(bl *BlockLayout) {
	r.blocks[bl.Block().ID()] = bl
}

// Unregister removes the registration for block, if any.
func (r *Registry) Unregister(block *model.Block) {
	delete(r.blocks, block.ID())
}

// UnregisterTree removes the registrations for block and every block in
// its subtree, shadow subtrees included.
func (r *Registry) UnregisterTree(block *model.Block) {
	for _, b := range block.AllBlocksInTree() {
		delete(r.blocks, b.ID())
	}
}

// BlockLayoutFor returns the registered layout for block, or nil.
func (r *Registry) BlockLayoutFor(block *model.Block) *BlockLayout {
	if block == nil {
		return nil
	}
	return r.blocks[block.ID()]
}

// Count returns the number of registered block layouts.
func (r *Registry) Count() int { return len(r.blocks) }

// Reset drops every registration.
func (r *Registry) Reset() {
	r.blocks = make(map[string]*BlockLayout)
}
