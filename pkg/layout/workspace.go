package layout

import (
	"math"
	"slices"

	"github.com/matzehuels/snapstack/pkg/geometry"
	"github.com/matzehuels/snapstack/pkg/model"
)

// WorkspaceLayout is the root of the layout tree. Its children are block
// groups, one per top-level chain in the model workspace, kept in the
// order the chains became top-level. The workspace's content size is the
// canvas: the bounding box of its groups, anchored at the origin.
//
// The workspace also owns the stacking order. Every group gets its
// z-index from a monotonically increasing counter; when the counter would
// exhaust its range, all groups are renumbered compactly from 1 in their
// current stacking order and the counter continues from there.
type WorkspaceLayout struct {
	Base
	workspace  *model.Workspace
	groupOrder []*BlockGroupLayout

	zCounter uint64
	zCeiling uint64
}

// NewWorkspaceLayout creates the root layout node for workspace.
func NewWorkspaceLayout(workspace *model.Workspace, config *Config, scheduler *Scheduler) *WorkspaceLayout {
	wl := &WorkspaceLayout{
		workspace: workspace,
		zCeiling:  math.MaxUint64 - 1,
	}
	wl.initBase(wl, config, scheduler)
	return wl
}

// Workspace returns the model workspace this node mirrors.
func (wl *WorkspaceLayout) Workspace() *model.Workspace { return wl.workspace }

// BlockGroups returns the top-level block groups in workspace order.
func (wl *WorkspaceLayout) BlockGroups() []*BlockGroupLayout {
	return append([]*BlockGroupLayout(nil), wl.groupOrder...)
}

// GroupForBlock returns the top-level group whose chain head mirrors
// block, or nil.
func (wl *WorkspaceLayout) GroupForBlock(block *model.Block) *BlockGroupLayout {
	for _, g := range wl.groupOrder {
		if first := g.FirstBlockLayout(); first != nil && first.Block() == block {
			return g
		}
	}
	return nil
}

// AppendBlockGroup adopts g as a new top-level group and stacks it above
// every existing group.
func (wl *WorkspaceLayout) AppendBlockGroup(g *BlockGroupLayout) {
	wl.groupOrder = append(wl.groupOrder, g)
	wl.AdoptChild(g)
	g.SetZIndex(wl.nextZIndex())
}

// RemoveBlockGroup detaches a top-level group from the workspace.
func (wl *WorkspaceLayout) RemoveBlockGroup(g *BlockGroupLayout) {
	wl.groupOrder = slices.DeleteFunc(wl.groupOrder,
		func(x *BlockGroupLayout) bool { return x == g })
	wl.RemoveChild(g)
}

// RemoveAllBlockGroups detaches every top-level group, leaving an empty
// canvas. Used by the builder before a full rebuild.
func (wl *WorkspaceLayout) RemoveAllBlockGroups() {
	for _, g := range wl.BlockGroups() {
		wl.RemoveBlockGroup(g)
	}
}

// BringToFront restacks g above every other group.
func (wl *WorkspaceLayout) BringToFront(g *BlockGroupLayout) {
	g.SetZIndex(wl.nextZIndex())
}

// TidyGroups arranges the top-level groups in a single column separated by
// the vertical separator space, then refreshes the whole tree. Useful
// after a full rebuild, when no group has a meaningful position yet.
func (wl *WorkspaceLayout) TidyGroups() {
	ySep := wl.config.WorkspaceUnit(KeyYSeparatorSpace)
	var y float64
	for _, g := range wl.groupOrder {
		g.PerformLayout(true)
		g.SetRelativePosition(geometry.Pt(0, y))
		y += g.TotalSize().Height + ySep
	}
	wl.UpdateLayoutDownTree()
}

// nextZIndex issues the next stacking index. At the ceiling, groups are
// renumbered compactly in their current stacking order and the counter
// resumes above them.
func (wl *WorkspaceLayout) nextZIndex() uint64 {
	if wl.zCounter >= wl.zCeiling {
		byZ := wl.BlockGroups()
		slices.SortStableFunc(byZ, func(a, b *BlockGroupLayout) int {
			switch {
			case a.ZIndex() < b.ZIndex():
				return -1
			case a.ZIndex() > b.ZIndex():
				return 1
			}
			return 0
		})
		for i, g := range byZ {
			g.SetZIndex(uint64(i) + 1)
		}
		wl.zCounter = uint64(len(byZ))
	}
	wl.zCounter++
	return wl.zCounter
}

// PerformLayout recomputes the canvas as the bounding box of the group
// total boxes, anchored at the workspace origin.
func (wl *WorkspaceLayout) PerformLayout(recurse bool) {
	if recurse {
		for _, g := range wl.groupOrder {
			g.PerformLayout(true)
		}
	}

	var size geometry.Size
	for _, g := range wl.groupOrder {
		rel := g.RelativePosition()
		total := g.TotalSize()
		size.Width = max(size.Width, rel.X+total.Width)
		size.Height = max(size.Height, rel.Y+total.Height)
	}
	if size != wl.contentSize {
		wl.sendChange(FlagCanvasSize)
	}
	wl.setContentSize(size)
}
