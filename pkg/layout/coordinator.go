package layout

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/snapstack/pkg/errors"
	"github.com/matzehuels/snapstack/pkg/geometry"
	"github.com/matzehuels/snapstack/pkg/model"
)

// =============================================================================
// Coordinator - model/layout synchronization
// =============================================================================

// Coordinator keeps the layout tree, the connection index, and the block
// model in mutual agreement. It subscribes to the model's event surface
// and translates every connection-lifecycle event into the structural
// work it implies: building subtrees for added blocks, reparenting chains
// when connections change, substituting shadow subtrees, tearing layouts
// down when blocks leave.
//
// Every handler is a transaction: precondition checks run before the
// first mutation, structural work completes before geometry recomputes,
// geometry recomputes top-down before notifications deliver, and the
// scheduler flushes once at the end. A failed precondition aborts with an
// ILLEGAL_STATE error and leaves the pre-transaction tree in place.
//
// The coordinator is single-threaded, like everything else here: it must
// be driven from the same logical owner that mutates the model.
type Coordinator struct {
	workspace       *model.Workspace
	workspaceLayout *WorkspaceLayout
	factory         *Factory
	registry        *Registry
	builder         *Builder
	index           *ConnectionIndex
	bumper          *Bumper
	scheduler       *Scheduler
	logger          *log.Logger
}

// CoordinatorOption configures a coordinator.
type CoordinatorOption func(*Coordinator)

// WithLogger sets the coordinator's logger. The default discards.
func WithLogger(logger *log.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = logger }
}

// NewCoordinator creates a coordinator for workspace, with all of its
// collaborators built through factory, and subscribes it to the
// workspace's events. Call [Coordinator.Rebuild] to mirror blocks that
// were already in the workspace.
func NewCoordinator(workspace *model.Workspace, factory *Factory, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		workspace: workspace,
		factory:   factory,
		registry:  NewRegistry(),
		scheduler: factory.Scheduler(),
		logger:    log.NewWithOptions(io.Discard, log.Options{}),
	}
	c.workspaceLayout = factory.CreateWorkspaceLayout(workspace)
	c.builder = NewBuilder(factory, c.registry, c.workspaceLayout)
	c.index = NewConnectionIndex(factory.Config())
	c.bumper = NewBumper(factory.Config())
	for _, opt := range opts {
		opt(c)
	}
	workspace.AddListener(c)
	return c
}

// WorkspaceLayout returns the root of the coordinated layout tree.
func (c *Coordinator) WorkspaceLayout() *WorkspaceLayout { return c.workspaceLayout }

// Workspace returns the coordinated model workspace.
func (c *Coordinator) Workspace() *model.Workspace { return c.workspace }

// Registry returns the block-to-layout registry.
func (c *Coordinator) Registry() *Registry { return c.registry }

// Index returns the spatial connection index.
func (c *Coordinator) Index() *ConnectionIndex { return c.index }

// Flush delivers all pending coalesced change notifications now. Handlers
// flush on completion themselves; callers needing synchronous feedback
// mid-sequence, such as before measuring for a snapshot, call this.
func (c *Coordinator) Flush() { c.flush() }

func (c *Coordinator) flush() {
	if c.scheduler != nil {
		c.scheduler.Flush()
	}
}

// Rebuild discards the layout tree and mirrors the model from scratch:
// one group per top-level chain at its chain head's stored position, every
// connection listened to and tracked. Use once after construction for a
// pre-populated workspace, or to recover from a model restored wholesale.
func (c *Coordinator) Rebuild() error {
	defer c.flush()
	c.untrackLayoutTree(c.workspaceLayout)
	if err := c.builder.BuildTree(); err != nil {
		return err
	}
	for _, block := range c.workspace.TopBlocks() {
		c.listenTree(block)
		if g := c.workspaceLayout.GroupForBlock(block); g != nil {
			g.SetRelativePosition(block.Position())
		}
	}
	c.workspaceLayout.UpdateLayoutDownTree()
	c.trackLayoutTree(c.workspaceLayout)
	c.workspaceLayout.sendChange(FlagNeedsDisplay)
	return nil
}

// SetScale changes the view scale: the config's view-unit cache refreshes
// first, then every view rectangle recomputes.
func (c *Coordinator) SetScale(scale float64) {
	defer c.flush()
	c.factory.Config().SetScale(scale)
	c.workspaceLayout.UpdateLayoutDownTree()
}

// =============================================================================
// Model events
// =============================================================================

// BlockAdded implements [model.WorkspaceListener]. A top-level addition
// builds the chain's layout subtree, lays it out, tracks its connections,
// and recomputes the canvas. Non-top-level blocks never arrive here; they
// enter the tree through connection changes.
func (c *Coordinator) BlockAdded(_ *model.Workspace, block *model.Block) {
	defer c.flush()
	group, err := c.builder.BuildTreeForTopLevelBlock(block)
	if err != nil {
		c.logger.Error("failed to build layout for added block",
			"block", block.ID(), "error", err)
		return
	}
	if group == nil {
		return
	}
	c.listenTree(block)
	group.SetRelativePosition(block.Position())
	group.UpdateLayoutDownTree()
	c.trackLayoutTree(group)
	c.workspaceLayout.PerformLayout(false)
	c.workspaceLayout.sendChange(FlagNeedsDisplay)
}

// BlockWillBeRemoved implements [model.WorkspaceListener]. The whole
// chain's connections untrack, its group detaches from the workspace, and
// its layouts unregister, all while the model tree is still intact.
func (c *Coordinator) BlockWillBeRemoved(_ *model.Workspace, block *model.Block) {
	defer c.flush()
	if c.registry.BlockLayoutFor(block) == nil {
		return
	}
	group := c.workspaceLayout.GroupForBlock(block)
	if group != nil {
		c.discardLayoutTree(group)
		c.workspaceLayout.RemoveBlockGroup(group)
	}
	c.unlistenTree(block)
	c.workspaceLayout.PerformLayout(false)
	c.workspaceLayout.sendChange(FlagNeedsDisplay)
}

// ConnectionTargetChanged implements [model.ConnectionTargetListener].
// Only the inferior endpoint drives reparenting: previous and output
// connections move with their block, while next and input connections are
// passive followers whose own change event carries no extra information.
func (c *Coordinator) ConnectionTargetChanged(conn *model.Connection, oldTarget *model.Connection) {
	if conn.Kind().IsSuperior() {
		return
	}
	defer c.flush()
	if err := c.connectionChanged(conn, oldTarget); err != nil {
		c.logger.Error("connection change left layout untouched",
			"connection", conn.ID(), "kind", conn.Kind().String(), "error", err)
	}
}

// ConnectionShadowChanged implements [model.ConnectionTargetListener].
// Shadow substitution is slot-side work, so only superior endpoints react:
// a newly attached shadow materializes if its slot is vacant, and a
// removed shadow tears its layout subtree down.
func (c *Coordinator) ConnectionShadowChanged(conn *model.Connection, oldShadow *model.Connection) {
	if !conn.Kind().IsSuperior() {
		return
	}
	defer c.flush()
	if conn.ShadowTarget() != nil {
		c.rebuildShadowLayouts(conn)
	} else if oldShadow != nil {
		c.teardownShadowLayouts(oldShadow)
	}
	c.workspaceLayout.UpdateLayoutDownTree()
	c.workspaceLayout.sendChange(FlagNeedsDisplay)
}

// connectionChanged realigns the layout tree after conn's target changed.
// conn is the inferior (previous or output) endpoint of the moved chain;
// oldTarget is the superior slot the chain vacated, if any.
//
// All precondition checks complete before the first mutation, so an
// ILLEGAL_STATE abort leaves the tree exactly as it was.
func (c *Coordinator) connectionChanged(conn *model.Connection, oldTarget *model.Connection) error {
	source := conn.SourceBlock()
	target := conn.Target()

	sourceLayout := c.registry.BlockLayoutFor(source)
	if sourceLayout == nil {
		return errors.New(errors.ErrCodeIllegalState,
			"source block %q has no layout", source.ID())
	}
	if source.Workspace() != c.workspace {
		return errors.New(errors.ErrCodeIllegalState,
			"source block %q belongs to a different workspace", source.ID())
	}

	var destGroup *BlockGroupLayout
	var destInput *InputLayout
	if target != nil {
		targetBlock := target.SourceBlock()
		if targetBlock.Workspace() != c.workspace {
			return errors.New(errors.ErrCodeIllegalState,
				"target block %q belongs to a different workspace", targetBlock.ID())
		}
		targetLayout := c.registry.BlockLayoutFor(targetBlock)
		if targetLayout == nil {
			return errors.New(errors.ErrCodeIllegalState,
				"target block %q has no layout", targetBlock.ID())
		}
		if input := target.SourceInput(); input != nil {
			destInput = targetLayout.InputLayoutFor(input)
			if destInput == nil {
				return errors.New(errors.ErrCodeIllegalState,
					"input %q of block %q has no layout", input.Name(), targetBlock.ID())
			}
			destGroup = destInput.RealGroup()
		} else {
			g, ok := targetLayout.Parent().(*BlockGroupLayout)
			if !ok {
				return errors.New(errors.ErrCodeIllegalState,
					"target block %q is not in a block group", targetBlock.ID())
			}
			destGroup = g
		}
	}

	oldGroup, ok := sourceLayout.Parent().(*BlockGroupLayout)
	if !ok {
		return errors.New(errors.ErrCodeIllegalState,
			"source block %q is not in a block group", source.ID())
	}

	// The chain's on-screen spot before any mutation, used to seed a
	// canvas drop without a visual jump.
	formerAbs := sourceLayout.AbsolutePosition()
	ins := sourceLayout.EdgeInsets()
	formerOrigin := geometry.Pt(
		formerAbs.X-ins.Left(c.factory.Config().RTL()),
		formerAbs.Y-ins.Top,
	)

	moved := oldGroup.DetachBlockLayoutsFrom(sourceLayout)

	if oldGroup.Empty() {
		if _, isRoot := oldGroup.Parent().(*WorkspaceLayout); isRoot {
			c.workspaceLayout.RemoveBlockGroup(oldGroup)
		}
	}

	if destGroup != nil {
		if destInput != nil {
			c.evictShadowLayouts(destInput)
		} else if st := target.ShadowTarget(); st != nil {
			// A rendered next-slot shadow chain trails the target in its
			// group; it has to go before the real chain takes its place.
			c.teardownShadowLayouts(st)
		}
		destGroup.AppendBlockLayouts(moved)
		if destInput != nil {
			destInput.refreshRenderedGroup()
		}
	} else {
		newGroup := c.factory.CreateBlockGroupLayout()
		newGroup.SetRelativePosition(formerOrigin)
		c.workspaceLayout.AppendBlockGroup(newGroup)
		newGroup.AppendBlockLayouts(moved)
		source.SetPosition(formerOrigin)
	}

	if oldTarget != nil {
		c.rebuildShadowLayouts(oldTarget)
	}

	for _, bl := range moved {
		c.trackLayoutTree(bl)
	}
	c.workspaceLayout.UpdateLayoutDownTree()
	c.workspaceLayout.sendChange(FlagNeedsDisplay)
	return nil
}

// =============================================================================
// Shadow substitution
// =============================================================================

// evictShadowLayouts deletes the shadow subtree occupying an input's slot.
// Called before a real chain attaches; the model keeps its shadow target,
// so the subtree can rebuild when the slot vacates again.
func (c *Coordinator) evictShadowLayouts(il *InputLayout) {
	head := il.ShadowGroup().FirstBlockLayout()
	if head == nil {
		return
	}
	for _, bl := range il.ShadowGroup().DetachBlockLayoutsFrom(head) {
		c.discardLayoutTree(bl)
	}
	il.refreshRenderedGroup()
}

// rebuildShadowLayouts materializes the shadow subtree for a vacated
// superior slot. Skipped when the slot is occupied, has no shadow defined,
// or the shadow is already built.
func (c *Coordinator) rebuildShadowLayouts(vacated *model.Connection) {
	if vacated.Target() != nil || vacated.ShadowTarget() == nil {
		return
	}
	head := vacated.ShadowTarget().SourceBlock()
	if c.registry.BlockLayoutFor(head) != nil {
		return
	}
	ownerLayout := c.registry.BlockLayoutFor(vacated.SourceBlock())
	if ownerLayout == nil {
		return
	}

	switch vacated.Kind() {
	case model.InputConnection:
		il := ownerLayout.InputLayoutFor(vacated.SourceInput())
		if il == nil {
			return
		}
		if err := c.builder.BuildGroupChain(il.ShadowGroup(), head); err != nil {
			c.logger.Error("failed to rebuild shadow subtree",
				"block", head.ID(), "error", err)
			return
		}
		il.refreshRenderedGroup()
		c.listenTree(head)
		c.trackLayoutTree(il.ShadowGroup())
	case model.NextConnection:
		g, ok := ownerLayout.Parent().(*BlockGroupLayout)
		if !ok {
			return
		}
		if err := c.builder.BuildGroupChain(g, head); err != nil {
			c.logger.Error("failed to rebuild shadow chain",
				"block", head.ID(), "error", err)
			return
		}
		c.listenTree(head)
		c.trackLayoutTree(g)
	}
}

// teardownShadowLayouts removes the layout subtree of a shadow chain,
// untracking its connections and unregistering its layouts. A no-op when
// the chain was never materialized.
func (c *Coordinator) teardownShadowLayouts(oldShadow *model.Connection) {
	if oldShadow == nil {
		return
	}
	head := oldShadow.SourceBlock()
	headLayout := c.registry.BlockLayoutFor(head)
	if headLayout == nil {
		return
	}
	g, ok := headLayout.Parent().(*BlockGroupLayout)
	if !ok {
		return
	}
	for _, bl := range g.DetachBlockLayoutsFrom(headLayout) {
		c.discardLayoutTree(bl)
	}
	if il, ok := g.Parent().(*InputLayout); ok {
		il.refreshRenderedGroup()
	}
}

// =============================================================================
// Connect / disconnect / move
// =============================================================================

// ConnectPair joins two connections the way an interactive drop does. The
// moving connection's kind picks the superior side, both sides disconnect
// from whatever held them, the pair connects, and a chain displaced from
// the superior slot is re-spliced onto the tail of the new chain when its
// shape allows; otherwise the bumper offsets it to a clear spot. Returns
// an INCOMPATIBLE_CONNECTION error, before any disconnect, when the pair
// could never join.
func (c *Coordinator) ConnectPair(moving, stationary *model.Connection) error {
	defer c.flush()

	var superior, inferior *model.Connection
	if moving.Kind().IsSuperior() {
		superior, inferior = moving, stationary
	} else {
		superior, inferior = stationary, moving
	}
	if !model.Compatible(superior, inferior) {
		return errors.New(errors.ErrCodeIncompatible,
			"%s connection cannot pair with %s connection",
			moving.Kind(), stationary.Kind())
	}
	if superior.Target() == inferior {
		return nil
	}

	displaced := superior.Target()
	superior.Disconnect()
	inferior.Disconnect()
	if err := superior.Connect(inferior); err != nil {
		return err
	}

	if displaced != nil {
		c.respliceOrBump(inferior, displaced)
	}
	return nil
}

// respliceOrBump reattaches a chain displaced by ConnectPair: onto the new
// chain's tail when the displaced head is a previous connection the tail
// accepts, else out of the way via the bumper.
func (c *Coordinator) respliceOrBump(inferior, displaced *model.Connection) {
	if displaced.Kind() == model.PreviousConnection {
		tail := inferior.SourceBlock().LastBlockInChain()
		if tc := tail.NextConnection(); tc != nil && tc.CheckConnect(displaced) == nil {
			if err := tc.Connect(displaced); err == nil {
				return
			}
		}
	}

	displacedGroup := c.workspaceLayout.GroupForBlock(displaced.SourceBlock().RootBlock())
	occupantGroup := c.workspaceLayout.GroupForBlock(inferior.SourceBlock().RootBlock())
	if displacedGroup == nil || occupantGroup == nil {
		c.logger.Warn("displaced chain has no top-level group to bump",
			"connection", displaced.ID())
		return
	}
	c.bumper.BumpAway(displacedGroup, occupantGroup)
}

// MoveBlockGroup places the top-level group containing block at p in
// workspace coordinates and raises it to the front.
func (c *Coordinator) MoveBlockGroup(block *model.Block, p geometry.Point) error {
	defer c.flush()
	root := block.RootBlock()
	group := c.workspaceLayout.GroupForBlock(root)
	if group == nil {
		return errors.New(errors.ErrCodeLayoutNotFound,
			"block %q has no top-level group", block.ID())
	}
	group.MoveToWorkspacePosition(p)
	root.SetPosition(p)
	c.workspaceLayout.BringToFront(group)
	return nil
}

// BringToFront restacks a top-level group above every other group.
func (c *Coordinator) BringToFront(group *BlockGroupLayout) {
	defer c.flush()
	c.workspaceLayout.BringToFront(group)
}

// SnapCandidate returns the closest connection conn could connect to
// within the configured snap radius, or nil.
func (c *Coordinator) SnapCandidate(conn *model.Connection) *model.Connection {
	return c.index.ClosestEligible(conn,
		c.factory.Config().WorkspaceUnit(KeyConnectionSnapRadius))
}

// =============================================================================
// Tree walking helpers
// =============================================================================

func forEachBlockLayout(n Node, fn func(*BlockLayout)) {
	if bl, ok := n.(*BlockLayout); ok {
		fn(bl)
	}
	for _, child := range n.Children() {
		forEachBlockLayout(child, fn)
	}
}

// trackLayoutTree tracks the connections of every block layout under n.
// Tracking is idempotent, so re-tracking a moved chain is safe.
func (c *Coordinator) trackLayoutTree(n Node) {
	forEachBlockLayout(n, func(bl *BlockLayout) {
		for _, conn := range bl.Block().Connections() {
			c.index.Track(conn)
		}
	})
}

func (c *Coordinator) untrackLayoutTree(n Node) {
	forEachBlockLayout(n, func(bl *BlockLayout) {
		for _, conn := range bl.Block().Connections() {
			c.index.Untrack(conn)
		}
	})
}

// discardLayoutTree untracks and unregisters every block layout under n,
// in preparation for dropping the subtree.
func (c *Coordinator) discardLayoutTree(n Node) {
	forEachBlockLayout(n, func(bl *BlockLayout) {
		for _, conn := range bl.Block().Connections() {
			c.index.Untrack(conn)
		}
		c.registry.Unregister(bl.Block())
	})
}

// listenTree subscribes the coordinator to target and shadow changes on
// every connection in block's model subtree.
func (c *Coordinator) listenTree(block *model.Block) {
	for _, b := range block.AllBlocksInTree() {
		for _, conn := range b.Connections() {
			conn.SetTargetListener(c)
		}
	}
}

func (c *Coordinator) unlistenTree(block *model.Block) {
	for _, b := range block.AllBlocksInTree() {
		for _, conn := range b.Connections() {
			conn.SetTargetListener(nil)
		}
	}
}
