// Package model implements the block model: workspaces, blocks, inputs,
// fields, and the typed connections that link blocks into chains and nested
// expressions.
//
// The model is purely structural. It knows which blocks exist, how they are
// wired together, and what content their fields carry; it computes no
// geometry. The layout engine mirrors this structure into a tree of
// positioned nodes and keeps itself synchronized by subscribing to the
// model's event surface:
//
//   - [WorkspaceListener] delivers top-level block additions and removals.
//   - [ConnectionTargetListener] delivers target and shadow-target changes
//     per connection, each with the previous target.
//   - [ConnectionPositionListener] delivers workspace-position updates,
//     consumed by the spatial connection index.
//   - [FieldListener] delivers field value edits.
//
// # Chains and trees
//
// Statement blocks chain tail-to-head: block i's next connection fuses to
// block i+1's previous connection. Expression blocks plug their output into
// a value input's socket. A block tree is one top-level block plus
// everything reachable below it, including attached shadow placeholders.
//
// # Shadow blocks
//
// A shadow block is a placeholder shown in a slot only while nothing real
// occupies it. Shadows attach to a slot through the connection's shadow
// target, which coexists with a real target: connecting a real block leaves
// the shadow attached but dormant. Within a shadow chain the links are
// ordinary connections between shadow blocks.
package model

import "slices"

// WorkspaceListener observes top-level block-tree additions and removals.
type WorkspaceListener interface {
	// BlockAdded fires after a block tree was added to the workspace. The
	// block is the tree's root.
	BlockAdded(ws *Workspace, block *Block)

	// BlockWillBeRemoved fires before a block tree is removed, while the
	// tree is still fully registered.
	BlockWillBeRemoved(ws *Workspace, block *Block)
}

// Workspace is the logical canvas holding all block trees. It registers
// every block in every tree by ID and maintains the ordered list of
// top-level blocks: blocks with no real or shadow parent attachment.
//
// The top-level list updates automatically as connections change; new
// top-level blocks append at the end, preserving a stable ordering that the
// layout builder and serializer both follow.
//
// Use [NewWorkspace]; the zero value is not usable.
type Workspace struct {
	blocks    map[string]*Block
	topIDs    []string
	listeners []WorkspaceListener
}

// NewWorkspace creates an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{blocks: make(map[string]*Block)}
}

// AddListener registers a workspace listener. Adding the same listener
// twice is a no-op.
func (ws *Workspace) AddListener(l WorkspaceListener) {
	if slices.Contains(ws.listeners, l) {
		return
	}
	ws.listeners = append(ws.listeners, l)
}

// RemoveListener removes a previously added listener.
func (ws *Workspace) RemoveListener(l WorkspaceListener) {
	ws.listeners = slices.DeleteFunc(ws.listeners,
		func(x WorkspaceListener) bool { return x == l })
}

// AddBlockTree registers root and every block reachable below it, appends
// root to the top-level list, and notifies listeners once with the root.
//
// Returns [ErrBlockNotTopLevel] if root is still attached to a parent, or
// [ErrDuplicateBlock] if any block in the tree collides with a registered
// ID. On error the workspace is unchanged.
func (ws *Workspace) AddBlockTree(root *Block) error {
	if root.ParentBlock() != nil {
		return ErrBlockNotTopLevel
	}
	tree := root.AllBlocksInTree()
	for _, b := range tree {
		if _, exists := ws.blocks[b.id]; exists {
			return ErrDuplicateBlock
		}
	}
	for _, b := range tree {
		b.workspace = ws
		ws.blocks[b.id] = b
	}
	ws.topIDs = append(ws.topIDs, root.id)
	for _, l := range ws.listeners {
		l.BlockAdded(ws, root)
	}
	return nil
}

// RemoveBlockTree notifies listeners, then unregisters root and every block
// reachable below it and drops root from the top-level list.
//
// Returns [ErrBlockNotInWorkspace] if root is not registered here, or
// [ErrBlockNotTopLevel] if it is still attached to a parent.
func (ws *Workspace) RemoveBlockTree(root *Block) error {
	if ws.blocks[root.id] != root {
		return ErrBlockNotInWorkspace
	}
	if !ws.isTopLevel(root) {
		return ErrBlockNotTopLevel
	}
	for _, l := range ws.listeners {
		l.BlockWillBeRemoved(ws, root)
	}
	for _, b := range root.AllBlocksInTree() {
		delete(ws.blocks, b.id)
		b.workspace = nil
	}
	ws.topIDs = slices.DeleteFunc(ws.topIDs, func(id string) bool { return id == root.id })
	return nil
}

// TopBlocks returns the top-level blocks in workspace order.
func (ws *Workspace) TopBlocks() []*Block {
	blocks := make([]*Block, 0, len(ws.topIDs))
	for _, id := range ws.topIDs {
		if b, ok := ws.blocks[id]; ok {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// AllBlocks returns every registered block, including nested blocks and
// shadows. The order is not guaranteed.
func (ws *Workspace) AllBlocks() []*Block {
	blocks := make([]*Block, 0, len(ws.blocks))
	for _, b := range ws.blocks {
		blocks = append(blocks, b)
	}
	return blocks
}

// BlockByID returns the registered block with the given ID and true, or nil
// and false.
func (ws *Workspace) BlockByID(id string) (*Block, bool) {
	b, ok := ws.blocks[id]
	return b, ok
}

// ContainsBlock reports whether the block is registered in this workspace.
func (ws *Workspace) ContainsBlock(b *Block) bool {
	return b != nil && ws.blocks[b.id] == b
}

// BlockCount returns the number of registered blocks, shadows included.
func (ws *Workspace) BlockCount() int { return len(ws.blocks) }

func (ws *Workspace) isTopLevel(b *Block) bool {
	return slices.Contains(ws.topIDs, b.id)
}

// refreshTopLevel reconciles one block's membership in the top-level list
// after a connection change. Detached registered blocks append at the end;
// newly attached blocks drop out. Order of the remaining entries is
// preserved.
func (ws *Workspace) refreshTopLevel(b *Block) {
	if ws.blocks[b.id] != b {
		return
	}
	attached := b.ParentBlock() != nil
	if attached {
		ws.topIDs = slices.DeleteFunc(ws.topIDs, func(id string) bool { return id == b.id })
		return
	}
	if !slices.Contains(ws.topIDs, b.id) {
		ws.topIDs = append(ws.topIDs, b.id)
	}
}
