package layout

import (
	"github.com/matzehuels/snapstack/pkg/errors"
	"github.com/matzehuels/snapstack/pkg/model"
)

// Builder materializes layout subtrees from model subtrees. It creates
// every node through the factory, records block layouts in the registry,
// and mirrors chain order, nested connections, and shadow subtrees
// exactly. It never touches the connection index; index membership is the
// coordinator's business.
type Builder struct {
	factory         *Factory
	registry        *Registry
	workspaceLayout *WorkspaceLayout
}

// NewBuilder creates a builder producing layouts under workspaceLayout.
func NewBuilder(factory *Factory, registry *Registry, workspaceLayout *WorkspaceLayout) *Builder {
	return &Builder{
		factory:         factory,
		registry:        registry,
		workspaceLayout: workspaceLayout,
	}
}

// BuildTree rebuilds the entire layout tree from the model workspace:
// existing top-level groups are discarded, the registry is reset, and one
// group per top-level chain is rebuilt in the workspace's order.
func (b *Builder) BuildTree() error {
	wl := b.workspaceLayout
	wl.RemoveAllBlockGroups()
	b.registry.Reset()
	for _, block := range wl.Workspace().TopBlocks() {
		group := b.factory.CreateBlockGroupLayout()
		if err := b.BuildGroupChain(group, block); err != nil {
			return err
		}
		wl.AppendBlockGroup(group)
	}
	return nil
}

// BuildTreeForTopLevelBlock builds the top-level group for block's chain
// and attaches it to the workspace layout. Returns the existing group if
// the chain is already built, nil without error if block is not top-level,
// and an ILLEGAL_STATE error if block belongs to a different workspace.
func (b *Builder) BuildTreeForTopLevelBlock(block *model.Block) (*BlockGroupLayout, error) {
	wl := b.workspaceLayout
	if block.Workspace() != wl.Workspace() {
		return nil, errors.New(errors.ErrCodeIllegalState,
			"block %q does not belong to this workspace", block.ID())
	}
	if !block.TopLevel() {
		return nil, nil
	}
	if g := wl.GroupForBlock(block); g != nil {
		return g, nil
	}
	group := b.factory.CreateBlockGroupLayout()
	if err := b.BuildGroupChain(group, block); err != nil {
		return nil, err
	}
	wl.AppendBlockGroup(group)
	return group, nil
}

// BuildGroupChain walks the chain starting at firstBlock and appends one
// block layout per link to group. Where a next connection has no real
// target but carries a shadow, the walk continues into the shadow chain,
// so placeholder tails render as part of the same group.
func (b *Builder) BuildGroupChain(group *BlockGroupLayout, firstBlock *model.Block) error {
	for cur := firstBlock; cur != nil; {
		bl, err := b.BuildBlockTree(cur)
		if err != nil {
			return err
		}
		group.AppendBlockLayout(bl)

		next := cur.NextBlock()
		if next == nil {
			if nc := cur.NextConnection(); nc != nil && nc.ShadowTarget() != nil {
				next = nc.ShadowTarget().SourceBlock()
			}
		}
		cur = next
	}
	return nil
}

// BuildBlockTree builds the layout subtree for one block: the block
// layout, an input layout per model input, field layouts, and nested
// groups for each socket's real and shadow subtrees. The new block layout
// is registered before its children build, so nested lookups during the
// build already resolve.
func (b *Builder) BuildBlockTree(block *model.Block) (*BlockLayout, error) {
	bl := b.factory.CreateBlockLayout(block)
	b.registry.Register(bl)

	for _, input := range block.Inputs() {
		il := b.factory.CreateInputLayout(input)
		for _, f := range input.Fields() {
			fl, err := b.factory.CreateFieldLayout(f)
			if err != nil {
				return nil, err
			}
			il.AppendFieldLayout(fl)
		}
		if conn := input.Connection(); conn != nil {
			switch {
			case conn.Target() != nil:
				if err := b.BuildGroupChain(il.RealGroup(), conn.Target().SourceBlock()); err != nil {
					return nil, err
				}
			case conn.ShadowTarget() != nil:
				// Shadows materialize only while the slot is vacant; the
				// coordinator rebuilds them when a real occupant leaves.
				if err := b.BuildGroupChain(il.ShadowGroup(), conn.ShadowTarget().SourceBlock()); err != nil {
					return nil, err
				}
			}
			il.refreshRenderedGroup()
		}
		bl.AppendInputLayout(il)
	}
	return bl, nil
}
