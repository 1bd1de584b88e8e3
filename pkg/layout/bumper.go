package layout

import (
	"github.com/matzehuels/snapstack/pkg/geometry"
)

// Bumper nudges a displaced block group clear of the group that now
// occupies the slot it was bumped from. The coordinator hands a chain
// here when a reconnect displaced it and no re-splice was possible; the
// bumper's only job is to find a nearby non-overlapping spot.
type Bumper struct {
	config *Config
}

// NewBumper creates a bumper reading its step distance from config.
func NewBumper(config *Config) *Bumper {
	return &Bumper{config: config}
}

// BumpAway moves group diagonally in bump-distance steps until its frame
// no longer overlaps occupant's frame, then applies the final spot through
// the ordinary move-to-workspace-position path so the tree reacts with
// normal layout-change notifications. Both groups must be top-level. A
// group already clear of the occupant is left where it is.
func (bp *Bumper) BumpAway(group, occupant *BlockGroupLayout) {
	if group == occupant || group == nil || occupant == nil {
		return
	}
	bump := bp.config.WorkspaceUnit(KeyBlockBumpDistance)
	if bump <= 0 {
		bump = 1
	}

	occFrame := topLevelFrame(occupant)
	size := group.TotalSize()
	pos := group.RelativePosition()
	moved := false
	for geometry.NewRect(pos.X, pos.Y, size.Width, size.Height).Intersects(occFrame) {
		pos = pos.Add(geometry.Pt(bump, bump))
		moved = true
	}
	if moved {
		group.MoveToWorkspacePosition(pos)
		if head := group.FirstBlockLayout(); head != nil {
			head.Block().SetPosition(pos)
		}
	}
}

// topLevelFrame is a top-level group's total box in workspace coordinates.
func topLevelFrame(g *BlockGroupLayout) geometry.Rect {
	pos := g.RelativePosition()
	size := g.TotalSize()
	return geometry.NewRect(pos.X, pos.Y, size.Width, size.Height)
}
