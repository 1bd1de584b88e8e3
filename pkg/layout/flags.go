package layout

import "strings"

// ChangeFlags is a bitmask of node aspects that changed since the last
// notification. Bits 0–15 are common to every node kind; kind-specific
// flags start at [FlagKindBase] so the two ranges never collide.
type ChangeFlags uint64

// Common flags, delivered by every node kind.
const (
	// FlagNeedsDisplay marks that the node must be redrawn.
	FlagNeedsDisplay ChangeFlags = 1 << iota
	// FlagFrame marks that the node's view rectangle changed.
	FlagFrame
	// FlagZIndex marks that the node's z-index changed.
	FlagZIndex
	// FlagDragging marks that the node's dragging state toggled.
	FlagDragging
)

// FlagKindBase is the first bit available for kind-specific flags. Kinds
// declare their own flags as FlagKindBase, FlagKindBase << 1, and so on.
const FlagKindBase ChangeFlags = 1 << 16

// Kind-specific flags.
const (
	// FlagFieldValue marks that a field layout's model value changed.
	FlagFieldValue ChangeFlags = FlagKindBase << iota
	// FlagRenderedGroup marks that an input layout switched between its
	// real and shadow group.
	FlagRenderedGroup
	// FlagCanvasSize marks that the workspace layout's canvas size changed.
	FlagCanvasSize
)

// Has reports whether any of the given bits is set.
func (f ChangeFlags) Has(other ChangeFlags) bool { return f&other != 0 }

// String lists the set flags for logs, e.g. "needs_display|frame".
func (f ChangeFlags) String() string {
	if f == 0 {
		return "none"
	}
	names := []struct {
		flag ChangeFlags
		name string
	}{
		{FlagNeedsDisplay, "needs_display"},
		{FlagFrame, "frame"},
		{FlagZIndex, "z_index"},
		{FlagDragging, "dragging"},
		{FlagFieldValue, "field_value"},
		{FlagRenderedGroup, "rendered_group"},
		{FlagCanvasSize, "canvas_size"},
	}
	var parts []string
	for _, n := range names {
		if f.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "|")
}
