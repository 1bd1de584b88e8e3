package layout

import (
	"github.com/matzehuels/snapstack/pkg/geometry"
)

// BlockGroupLayout is the layout of one block chain: an ordered run of
// block layouts connected previous-to-next in the model. Groups appear in
// two places: as direct children of the workspace layout, one per
// top-level chain, and nested inside input layouts for connected sockets.
//
// A group mirrors no model object of its own; its member order must match
// the model chain exactly, which the builder and coordinator maintain.
// Stacking overlaps consecutive members by the interlock notch so that
// each member's previous connection lands exactly on its predecessor's
// next connection.
type BlockGroupLayout struct {
	Base
	blockLayouts []*BlockLayout
}

// NewBlockGroupLayout creates an empty block group.
func NewBlockGroupLayout(config *Config, scheduler *Scheduler) *BlockGroupLayout {
	g := &BlockGroupLayout{}
	g.initBase(g, config, scheduler)
	return g
}

// Empty reports whether the group has no member block layouts.
func (g *BlockGroupLayout) Empty() bool { return len(g.blockLayouts) == 0 }

// BlockLayouts returns the member block layouts in chain order.
func (g *BlockGroupLayout) BlockLayouts() []*BlockLayout {
	return append([]*BlockLayout(nil), g.blockLayouts...)
}

// FirstBlockLayout returns the chain head's layout, or nil for an empty
// group.
func (g *BlockGroupLayout) FirstBlockLayout() *BlockLayout {
	if len(g.blockLayouts) == 0 {
		return nil
	}
	return g.blockLayouts[0]
}

// LastBlockLayout returns the chain tail's layout, or nil for an empty
// group.
func (g *BlockGroupLayout) LastBlockLayout() *BlockLayout {
	if len(g.blockLayouts) == 0 {
		return nil
	}
	return g.blockLayouts[len(g.blockLayouts)-1]
}

// AppendBlockLayout adopts bl as the group's next chain member. New
// members inherit the group's z-index and drag state.
func (g *BlockGroupLayout) AppendBlockLayout(bl *BlockLayout) {
	g.blockLayouts = append(g.blockLayouts, bl)
	g.AdoptChild(bl)
	propagateZIndex(bl, g.zIndex)
	propagateDragging(bl, g.dragging)
}

// AppendBlockLayouts appends a run of block layouts in order.
func (g *BlockGroupLayout) AppendBlockLayouts(bls []*BlockLayout) {
	for _, bl := range bls {
		g.AppendBlockLayout(bl)
	}
}

// DetachBlockLayoutsFrom removes bl and every member after it from the
// group and returns the removed run in chain order. Returns nil if bl is
// not a member. The detached layouts keep their subtrees and are ready to
// append to another group.
func (g *BlockGroupLayout) DetachBlockLayoutsFrom(bl *BlockLayout) []*BlockLayout {
	at := -1
	for i, member := range g.blockLayouts {
		if member == bl {
			at = i
			break
		}
	}
	if at < 0 {
		return nil
	}
	detached := append([]*BlockLayout(nil), g.blockLayouts[at:]...)
	g.blockLayouts = g.blockLayouts[:at]
	for _, member := range detached {
		g.RemoveChild(member)
	}
	g.markAncestorsNeedLayout()
	return detached
}

// MoveToWorkspacePosition places a top-level group's origin at p in
// workspace coordinates and reflows the workspace around it, so canvas
// size and change notifications follow the ordinary layout path.
func (g *BlockGroupLayout) MoveToWorkspacePosition(p geometry.Point) {
	g.SetRelativePosition(p)
	g.UpdateLayoutUpTree()
}

// SetZIndex assigns the group's stacking order and propagates it through
// the subtree. Members never carry a z-index of their own.
func (g *BlockGroupLayout) SetZIndex(z uint64) {
	propagateZIndex(g, z)
}

// SetDragging toggles the drag state for the whole subtree.
func (g *BlockGroupLayout) SetDragging(dragging bool) {
	propagateDragging(g, dragging)
}

func propagateZIndex(n Node, z uint64) {
	n.base().setZIndex(z)
	for _, child := range n.Children() {
		propagateZIndex(child, z)
	}
}

func propagateDragging(n Node, dragging bool) {
	n.base().SetDragging(dragging)
	for _, child := range n.Children() {
		propagateDragging(child, dragging)
	}
}

// PerformLayout stacks the member block layouts vertically, overlapping
// consecutive members by the notch height so the chain interlocks.
func (g *BlockGroupLayout) PerformLayout(recurse bool) {
	if recurse {
		for _, bl := range g.blockLayouts {
			bl.PerformLayout(true)
		}
	}

	notchH := g.config.WorkspaceUnit(KeyNotchHeight)
	g.setEdgeInsets(geometry.EdgeInsets{})

	var y, w float64
	for i, bl := range g.blockLayouts {
		if i > 0 {
			y -= notchH
		}
		g.placeChild(bl, geometry.Pt(0, y))
		total := bl.TotalSize()
		y += total.Height
		w = max(w, total.Width)
	}
	g.setContentSize(geometry.Sz(w, max(y, 0)))
}
