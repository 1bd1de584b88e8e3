package layout

import (
	"math"
	"sort"

	"github.com/matzehuels/snapstack/pkg/model"
)

type cellKey struct {
	col int
	row int
}

// ConnectionIndex tracks connection endpoints spatially so drag-to-connect
// can find the closest compatible counterpart without scanning the whole
// workspace. Endpoints hash into square grid cells sized at twice the snap
// radius; a proximity query inspects only the cells overlapping the search
// circle.
//
// The index subscribes to each tracked connection's position updates, so
// layout refreshes keep it current with one bucket move per endpoint.
// Querying with an untracked connection returns an empty result.
type ConnectionIndex struct {
	cellSize float64
	cells    map[cellKey]map[*model.Connection]struct{}
	tracked  map[*model.Connection]cellKey
}

// NewConnectionIndex creates an empty index with cells derived from the
// config's snap radius.
func NewConnectionIndex(config *Config) *ConnectionIndex {
	cell := 2 * config.WorkspaceUnit(KeyConnectionSnapRadius)
	if cell <= 0 {
		cell = 1
	}
	return &ConnectionIndex{
		cellSize: cell,
		cells:    make(map[cellKey]map[*model.Connection]struct{}),
		tracked:  make(map[*model.Connection]cellKey),
	}
}

func (ix *ConnectionIndex) cellFor(c *model.Connection) cellKey {
	p := c.Position()
	return cellKey{
		col: int(math.Floor(p.X / ix.cellSize)),
		row: int(math.Floor(p.Y / ix.cellSize)),
	}
}

// Track adds c to the index at its current position and subscribes to its
// position updates. Tracking an already-tracked connection is a no-op.
func (ix *ConnectionIndex) Track(c *model.Connection) {
	if _, ok := ix.tracked[c]; ok {
		return
	}
	key := ix.cellFor(c)
	ix.insert(key, c)
	c.AddPositionListener(ix)
}

// Untrack removes c from the index and unsubscribes from its position
// updates. Untracking an untracked connection is a no-op.
func (ix *ConnectionIndex) Untrack(c *model.Connection) {
	key, ok := ix.tracked[c]
	if !ok {
		return
	}
	ix.remove(key, c)
	c.RemovePositionListener(ix)
}

// TrackBlockTree tracks every connection of block and its whole subtree,
// shadow subtrees included.
func (ix *ConnectionIndex) TrackBlockTree(block *model.Block) {
	for _, b := range block.AllBlocksInTree() {
		for _, c := range b.Connections() {
			ix.Track(c)
		}
	}
}

// UntrackBlockTree untracks every connection of block and its subtree.
func (ix *ConnectionIndex) UntrackBlockTree(block *model.Block) {
	for _, b := range block.AllBlocksInTree() {
		for _, c := range b.Connections() {
			ix.Untrack(c)
		}
	}
}

// Tracked reports whether c is in the index.
func (ix *ConnectionIndex) Tracked(c *model.Connection) bool {
	_, ok := ix.tracked[c]
	return ok
}

// Count returns the number of tracked connections.
func (ix *ConnectionIndex) Count() int { return len(ix.tracked) }

// ConnectionPositionChanged implements [model.ConnectionPositionListener],
// moving c between cells when its position crosses a cell boundary.
func (ix *ConnectionIndex) ConnectionPositionChanged(c *model.Connection) {
	oldKey, ok := ix.tracked[c]
	if !ok {
		return
	}
	newKey := ix.cellFor(c)
	if newKey == oldKey {
		return
	}
	ix.remove(oldKey, c)
	ix.insert(newKey, c)
}

// FindCandidates returns the tracked connections c could connect to right
// now, ordered by ascending distance from c: complementary kind,
// compatible type checks, both sides free, rooted in a different tree, and
// within radius workspace units. Querying with an untracked connection
// returns an empty result; absence of tracking means "currently
// invisible", a normal state during rebuilds.
func (ix *ConnectionIndex) FindCandidates(c *model.Connection, radius float64) []*model.Connection {
	if _, ok := ix.tracked[c]; !ok {
		return nil
	}
	if radius <= 0 {
		return nil
	}

	center := ix.cellFor(c)
	span := int(math.Ceil(radius / ix.cellSize))
	origin := c.Position()
	root := c.SourceBlock().RootBlock()

	type candidate struct {
		conn *model.Connection
		dist float64
	}
	var found []candidate
	for col := center.col - span; col <= center.col+span; col++ {
		for row := center.row - span; row <= center.row+span; row++ {
			for cand := range ix.cells[cellKey{col: col, row: row}] {
				if cand == c {
					continue
				}
				if cand.SourceBlock().RootBlock() == root {
					continue
				}
				if c.CheckConnect(cand) != nil {
					continue
				}
				d := origin.DistanceTo(cand.Position())
				if d > radius {
					continue
				}
				found = append(found, candidate{conn: cand, dist: d})
			}
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].dist != found[j].dist {
			return found[i].dist < found[j].dist
		}
		return found[i].conn.ID() < found[j].conn.ID()
	})

	conns := make([]*model.Connection, len(found))
	for i, f := range found {
		conns[i] = f.conn
	}
	return conns
}

// ClosestEligible returns the nearest candidate within radius, or nil.
func (ix *ConnectionIndex) ClosestEligible(c *model.Connection, radius float64) *model.Connection {
	candidates := ix.FindCandidates(c, radius)
	if len(candidates) == 0 {
		return nil
	}
	return candidates[0]
}

func (ix *ConnectionIndex) insert(key cellKey, c *model.Connection) {
	cell := ix.cells[key]
	if cell == nil {
		cell = make(map[*model.Connection]struct{})
		ix.cells[key] = cell
	}
	cell[c] = struct{}{}
	ix.tracked[c] = key
}

func (ix *ConnectionIndex) remove(key cellKey, c *model.Connection) {
	if cell := ix.cells[key]; cell != nil {
		delete(cell, c)
		if len(cell) == 0 {
			delete(ix.cells, key)
		}
	}
	delete(ix.tracked, c)
}
