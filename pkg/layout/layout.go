// Package layout implements the live layout tree of a block workspace: a
// mirror of the block model in which every field, input, block, block
// chain, and the workspace itself is a positioned, sized node.
//
// # Architecture
//
// Five node kinds form a closed set: [FieldLayout], [InputLayout],
// [BlockLayout], [BlockGroupLayout], and [WorkspaceLayout]. All embed
// [Base], which owns identity, geometry, tree membership, dirty tracking,
// and change notifications; each kind contributes only its sizing policy
// through PerformLayout.
//
// The [Builder] materializes layout subtrees from model subtrees. The
// [ConnectionIndex] tracks connection endpoints spatially for
// drag-to-connect queries. The [Coordinator] owns both plus the model
// subscriptions, and performs the reparenting, cleanup, and shadow
// substitution that keep tree, index, and model in agreement whenever the
// connection graph changes.
//
// # Geometry
//
// All stored positions and sizes are workspace units; view units are
// derived through the [Config] scale. A node's relative position is the
// offset of its total box from the parent's content origin. The cached
// absolute position is the node's content origin in workspace coordinates:
//
//	absolute = parentAbsolute + relative + ownInsets
//
// and the view rectangle is the total box scaled to view units. Absolute
// positions and view rectangles are valid only immediately after a
// top-down refresh from the root; structural or positional mutations mark
// the node's ancestors (sizes) and descendants (positions) stale until the
// next pass.
//
// # Concurrency
//
// Everything here is single-threaded and run-to-completion: one logical
// owner mutates the tree, the index, and the model, with no internal
// locking. Change notifications coalesce per node in a [Scheduler] and
// are delivered when the coordinator finishes its current entry point.
package layout

import (
	"slices"

	"github.com/google/uuid"
	"github.com/matzehuels/snapstack/pkg/geometry"
)

// Node is one node of the layout tree. The implementer set is closed:
// FieldLayout, InputLayout, BlockLayout, BlockGroupLayout, and
// WorkspaceLayout. All of them embed [Base], which provides everything
// except PerformLayout.
type Node interface {
	// ID returns the node's stable unique identifier.
	ID() string
	// Parent returns the parent node, or nil at the root.
	Parent() Node
	// Children returns the node's children in no particular order.
	Children() []Node
	// RelativePosition returns the offset of the node's total box from the
	// parent's content origin, in workspace units.
	RelativePosition() geometry.Point
	// ContentSize returns the node's content size in workspace units.
	ContentSize() geometry.Size
	// EdgeInsets returns the insets between total box and content box.
	EdgeInsets() geometry.EdgeInsets
	// TotalSize returns content size plus insets.
	TotalSize() geometry.Size
	// AbsolutePosition returns the cached workspace position of the node's
	// content origin, valid after the last top-down refresh.
	AbsolutePosition() geometry.Point
	// ViewRect returns the cached total box in view units.
	ViewRect() geometry.Rect
	// Visible reports whether the render layer should draw this subtree.
	Visible() bool
	// ZIndex returns the node's stacking order.
	ZIndex() uint64
	// Dragging reports whether the node is part of an active drag.
	Dragging() bool
	// NeedsLayout reports whether the node's size must be recomputed on
	// the next tree pass.
	NeedsLayout() bool

	// PerformLayout recomputes the node's content size by positioning its
	// children per the kind's sizing policy. With recurse set, children
	// recompute themselves first.
	PerformLayout(recurse bool)

	base() *Base
	absoluteRefreshed()
}

// HierarchyListener observes structural changes on a node's child set.
// Notifications fire after the structure has settled: a listener never
// sees a child reachable from two parents.
type HierarchyListener interface {
	// ChildAdopted fires after child was attached to parent. oldParent is
	// the previous parent, or nil if the child was detached.
	ChildAdopted(parent, child Node, oldParent Node)
	// ChildRemoved fires after child was detached from parent.
	ChildRemoved(parent, child Node)
}

// Base carries the shared state and behavior of every layout node kind.
// Concrete kinds embed it and call [Base.initBase] with themselves during
// construction; the self reference is what routes PerformLayout calls to
// the kind's own implementation during tree passes.
//
// The parent reference is non-owning; ownership runs strictly parent to
// child through the child set. A node is reachable from at most one parent
// at any time.
type Base struct {
	id        string
	config    *Config
	scheduler *Scheduler
	self      Node

	relativePosition geometry.Point
	contentSize      geometry.Size
	edgeInsets       geometry.EdgeInsets
	absolutePosition geometry.Point
	viewRect         geometry.Rect

	parent   Node
	children map[string]Node

	visible  bool
	zIndex   uint64
	dragging bool

	needsLayout   bool
	stalePosition bool

	hierarchyListeners []HierarchyListener
	changeListeners    []ChangeListener
}

func (b *Base) initBase(self Node, config *Config, scheduler *Scheduler) {
	b.id = uuid.NewString()
	b.config = config
	b.scheduler = scheduler
	b.self = self
	b.children = make(map[string]Node)
	b.visible = true
}

func (b *Base) base() *Base { return b }

// ID returns the node's stable unique identifier.
func (b *Base) ID() string { return b.id }

// Config returns the layout config the node sizes itself against.
func (b *Base) Config() *Config { return b.config }

// Parent returns the parent node, or nil at the root.
func (b *Base) Parent() Node { return b.parent }

// Children returns the node's children in no particular order.
func (b *Base) Children() []Node {
	children := make([]Node, 0, len(b.children))
	for _, c := range b.children {
		children = append(children, c)
	}
	return children
}

// ChildCount returns the number of children.
func (b *Base) ChildCount() int { return len(b.children) }

// Root walks parent references to the tree's root node.
func (b *Base) Root() Node {
	root := b.self
	for root.Parent() != nil {
		root = root.Parent()
	}
	return root
}

// RelativePosition returns the offset of the node's total box from the
// parent's content origin.
func (b *Base) RelativePosition() geometry.Point { return b.relativePosition }

// SetRelativePosition moves the node within its parent and marks the
// affected geometry stale: the node's subtree for positions, its ancestors
// for sizes.
func (b *Base) SetRelativePosition(p geometry.Point) {
	if b.relativePosition == p {
		return
	}
	b.relativePosition = p
	b.markAncestorsNeedLayout()
	b.markSubtreePositionsStale()
}

// placeChild assigns a child's relative position during this node's own
// layout pass. Unlike [Base.SetRelativePosition] it performs no dirty
// marking: the caller is mid-pass, and the positional refresh that follows
// every pass picks the new value up.
func (b *Base) placeChild(child Node, p geometry.Point) {
	child.base().relativePosition = p
}

// ContentSize returns the node's content size.
func (b *Base) ContentSize() geometry.Size { return b.contentSize }

// setContentSize records the result of a layout pass and clears the node's
// own layout flag. Every PerformLayout implementation ends here.
func (b *Base) setContentSize(s geometry.Size) {
	if b.contentSize != s {
		b.contentSize = s
		b.sendChange(FlagNeedsDisplay)
	}
	b.needsLayout = false
}

// EdgeInsets returns the insets between the node's total box and content
// box.
func (b *Base) EdgeInsets() geometry.EdgeInsets { return b.edgeInsets }

// setEdgeInsets is called by sizing policies before setContentSize.
func (b *Base) setEdgeInsets(e geometry.EdgeInsets) { b.edgeInsets = e }

// TotalSize returns the content size plus insets.
func (b *Base) TotalSize() geometry.Size {
	return geometry.Sz(
		b.contentSize.Width+b.edgeInsets.Horizontal(),
		b.contentSize.Height+b.edgeInsets.Vertical(),
	)
}

// AbsolutePosition returns the cached workspace position of the node's
// content origin.
func (b *Base) AbsolutePosition() geometry.Point { return b.absolutePosition }

// ViewRect returns the cached total box in view units.
func (b *Base) ViewRect() geometry.Rect { return b.viewRect }

// Visible reports whether the render layer should draw this subtree.
func (b *Base) Visible() bool { return b.visible }

func (b *Base) setVisible(visible bool) {
	if b.visible == visible {
		return
	}
	b.visible = visible
	b.sendChange(FlagNeedsDisplay)
}

// ZIndex returns the node's stacking order.
func (b *Base) ZIndex() uint64 { return b.zIndex }

func (b *Base) setZIndex(z uint64) {
	if b.zIndex == z {
		return
	}
	b.zIndex = z
	b.sendChange(FlagZIndex)
}

// Dragging reports whether the node is part of an active drag.
func (b *Base) Dragging() bool { return b.dragging }

// SetDragging toggles the node's dragging state.
func (b *Base) SetDragging(dragging bool) {
	if b.dragging == dragging {
		return
	}
	b.dragging = dragging
	b.sendChange(FlagDragging)
}

// NeedsLayout reports whether the node's content size is stale.
func (b *Base) NeedsLayout() bool { return b.needsLayout }

// PerformLayout on the base type is a programming error: every concrete
// kind overrides it with its own sizing policy.
func (b *Base) PerformLayout(bool) {
	panic("layout: PerformLayout called on base node; concrete kinds must override it")
}

func (b *Base) absoluteRefreshed() {}

// ============================================================================
// Tree passes
// ============================================================================

// UpdateLayoutDownTree performs a full relayout of the subtree rooted here,
// then refreshes every descendant's absolute position and view rectangle
// from the new relative positions.
func (b *Base) UpdateLayoutDownTree() {
	b.self.PerformLayout(true)
	b.RefreshTreePositions()
}

// UpdateLayoutUpTree re-lays-out this node without recursing into its
// children, repeats at each ancestor up to the root, and finishes with a
// top-down positional refresh from the root. Use after a localized size
// change, such as an edited field value, to correct everyone's placement
// without recomputing unaffected siblings' internals.
func (b *Base) UpdateLayoutUpTree() {
	var root Node
	for n := b.self; n != nil; n = n.Parent() {
		n.PerformLayout(false)
		root = n
	}
	root.base().RefreshTreePositions()
}

// RefreshTreePositions recomputes absolute positions and view rectangles
// for this node and every descendant, strictly top-down. The parent's
// cached absolute position must already be valid; at the root it is the
// workspace origin.
func (b *Base) RefreshTreePositions() {
	parentOrigin := geometry.Point{}
	if b.parent != nil {
		parentOrigin = b.parent.AbsolutePosition()
	}
	b.refreshPositions(parentOrigin)
}

func (b *Base) refreshPositions(parentOrigin geometry.Point) {
	rtl := b.config.RTL()
	scale := b.config.Scale()

	b.absolutePosition = parentOrigin.
		Add(b.relativePosition).
		Add(geometry.Pt(b.edgeInsets.Left(rtl), b.edgeInsets.Top))

	total := b.TotalSize()
	viewRect := geometry.NewRect(
		(b.absolutePosition.X-b.edgeInsets.Left(rtl))*scale,
		(b.absolutePosition.Y-b.edgeInsets.Top)*scale,
		total.Width*scale,
		total.Height*scale,
	)
	if viewRect != b.viewRect {
		b.viewRect = viewRect
		b.sendChange(FlagFrame | FlagNeedsDisplay)
	}
	b.stalePosition = false

	for _, child := range b.children {
		child.base().refreshPositions(b.absolutePosition)
	}
	b.self.absoluteRefreshed()
}

// ============================================================================
// Structure
// ============================================================================

// AdoptChild attaches child to this node. A child that already has a
// different parent is detached there first, atomically: its old absolute
// position is recorded and its new relative position is computed from the
// position delta, so the child does not visually jump before the next
// relayout. Hierarchy listeners on both parents fire only after the
// reparenting is complete.
func (b *Base) AdoptChild(child Node) {
	cb := child.base()
	oldParent := cb.parent
	if oldParent == b.self {
		return
	}

	var oldAbsolute geometry.Point
	hadParent := oldParent != nil
	if hadParent {
		oldAbsolute = cb.absolutePosition
		delete(oldParent.base().children, child.ID())
	}
	cb.parent = b.self
	b.children[child.ID()] = child

	if hadParent {
		rtl := b.config.RTL()
		cb.relativePosition = geometry.Pt(
			oldAbsolute.X-b.absolutePosition.X-cb.edgeInsets.Left(rtl),
			oldAbsolute.Y-b.absolutePosition.Y-cb.edgeInsets.Top,
		)
	}
	b.markAncestorsNeedLayout()
	if hadParent {
		oldParent.base().markAncestorsNeedLayout()
	}

	for _, l := range b.hierarchyListeners {
		l.ChildAdopted(b.self, child, oldParent)
	}
	if hadParent && oldParent.base() != b {
		for _, l := range oldParent.base().hierarchyListeners {
			l.ChildAdopted(b.self, child, oldParent)
		}
	}
}

// RemoveChild detaches child from this node and notifies hierarchy
// listeners. A no-op if child is not attached here.
func (b *Base) RemoveChild(child Node) {
	cb := child.base()
	if cb.parent != b.self {
		return
	}
	delete(b.children, child.ID())
	cb.parent = nil
	b.markAncestorsNeedLayout()
	for _, l := range b.hierarchyListeners {
		l.ChildRemoved(b.self, child)
	}
}

// RemoveFromParent detaches this node from its parent, if any.
func (b *Base) RemoveFromParent() {
	if b.parent != nil {
		b.parent.base().RemoveChild(b.self)
	}
}

// ============================================================================
// Dirty marking
// ============================================================================

// markAncestorsNeedLayout marks this node and every ancestor as needing a
// size recomputation. The walk stops at the first node already marked:
// marking always proceeds upward, so a marked node implies marked
// ancestors.
func (b *Base) markAncestorsNeedLayout() {
	for n := b.self; n != nil; n = n.Parent() {
		nb := n.base()
		if nb.needsLayout {
			return
		}
		nb.needsLayout = true
	}
}

// markSubtreePositionsStale marks this node and every descendant as having
// stale absolute positions. A marked node implies a marked subtree, so the
// walk prunes at already-marked children.
func (b *Base) markSubtreePositionsStale() {
	if b.stalePosition {
		return
	}
	b.stalePosition = true
	for _, child := range b.children {
		child.base().markSubtreePositionsStale()
	}
}

// ============================================================================
// Listeners
// ============================================================================

// AddHierarchyListener registers a structural-change listener. Adding the
// same listener twice is a no-op.
func (b *Base) AddHierarchyListener(l HierarchyListener) {
	if slices.Contains(b.hierarchyListeners, l) {
		return
	}
	b.hierarchyListeners = append(b.hierarchyListeners, l)
}

// RemoveHierarchyListener removes a previously added listener.
func (b *Base) RemoveHierarchyListener(l HierarchyListener) {
	b.hierarchyListeners = slices.DeleteFunc(b.hierarchyListeners,
		func(x HierarchyListener) bool { return x == l })
}

// AddChangeListener registers a change-notification listener. Adding the
// same listener twice is a no-op.
func (b *Base) AddChangeListener(l ChangeListener) {
	if slices.Contains(b.changeListeners, l) {
		return
	}
	b.changeListeners = append(b.changeListeners, l)
}

// RemoveChangeListener removes a previously added listener.
func (b *Base) RemoveChangeListener(l ChangeListener) {
	b.changeListeners = slices.DeleteFunc(b.changeListeners,
		func(x ChangeListener) bool { return x == l })
}

// sendChange reports changed aspects. With a scheduler attached the flags
// coalesce until the next flush; standalone nodes deliver immediately.
func (b *Base) sendChange(flags ChangeFlags) {
	if b.scheduler != nil {
		b.scheduler.Schedule(b.self, flags)
		return
	}
	b.deliverChange(flags)
}

func (b *Base) deliverChange(flags ChangeFlags) {
	for _, l := range b.changeListeners {
		l.LayoutChanged(b.self, flags)
	}
}
