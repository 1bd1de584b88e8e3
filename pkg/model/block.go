package model

import (
	"slices"

	"github.com/google/uuid"
	"github.com/matzehuels/snapstack/pkg/geometry"
)

// Block is a single model unit: optional previous/next/output connections
// plus an ordered list of inputs. Statement blocks chain vertically through
// previous/next pairs; expression blocks plug into value sockets through
// their output connection. A block has an output or a previous connection,
// never both.
//
// Blocks are created by [BlockBuilder.Build]; the zero value is not usable.
// The model is not safe for concurrent use without external synchronization.
type Block struct {
	id   string
	name string

	previous *Connection
	next     *Connection
	output   *Connection
	inputs   []*Input

	inputsInline bool
	shadow       bool
	movable      bool
	editable     bool
	disabled     bool

	position  geometry.Point
	workspace *Workspace
}

// ID returns the block's stable unique identifier.
func (b *Block) ID() string { return b.id }

// Name returns the block's definition name (e.g. "controls_repeat").
func (b *Block) Name() string { return b.name }

// Shadow reports whether the block is a placeholder shadow block.
func (b *Block) Shadow() bool { return b.shadow }

// Movable reports whether the block may be dragged.
func (b *Block) Movable() bool { return b.movable }

// Editable reports whether the block's fields may be edited.
func (b *Block) Editable() bool { return b.editable }

// Disabled reports whether the block is disabled.
func (b *Block) Disabled() bool { return b.disabled }

// SetDisabled toggles the disabled state.
func (b *Block) SetDisabled(disabled bool) { b.disabled = disabled }

// InputsInline reports whether the block renders its inputs left-to-right
// instead of stacked top-to-bottom.
func (b *Block) InputsInline() bool { return b.inputsInline }

// Position returns the block's stored workspace position. Only meaningful
// for top-level blocks; nested blocks derive their placement from layout.
func (b *Block) Position() geometry.Point { return b.position }

// SetPosition updates the block's stored workspace position.
func (b *Block) SetPosition(p geometry.Point) { b.position = p }

// Workspace returns the workspace the block belongs to, or nil.
func (b *Block) Workspace() *Workspace { return b.workspace }

// PreviousConnection returns the block's previous connection, or nil.
func (b *Block) PreviousConnection() *Connection { return b.previous }

// NextConnection returns the block's next connection, or nil.
func (b *Block) NextConnection() *Connection { return b.next }

// OutputConnection returns the block's output connection, or nil.
func (b *Block) OutputConnection() *Connection { return b.output }

// Inputs returns the block's inputs in source order. The returned slice is
// a copy; the inputs themselves are shared.
func (b *Block) Inputs() []*Input { return slices.Clone(b.inputs) }

// InputByName returns the named input and true, or nil and false.
func (b *Block) InputByName(name string) (*Input, bool) {
	for _, in := range b.inputs {
		if in.name == name {
			return in, true
		}
	}
	return nil, false
}

// NextBlock returns the block connected to this block's next connection,
// or nil.
func (b *Block) NextBlock() *Block {
	if b.next == nil || b.next.target == nil {
		return nil
	}
	return b.next.target.sourceBlock
}

// PreviousBlock returns the block connected to this block's previous
// connection, or nil.
func (b *Block) PreviousBlock() *Block {
	if b.previous == nil || b.previous.target == nil {
		return nil
	}
	return b.previous.target.sourceBlock
}

// ParentConnection returns the inferior connection that attaches this block
// to a parent: the previous connection if present, else the output
// connection, else nil.
func (b *Block) ParentConnection() *Connection {
	if b.previous != nil {
		return b.previous
	}
	return b.output
}

// ParentBlock returns the block this block hangs under, following either a
// real or a shadow attachment, or nil for a detached or top-level block.
func (b *Block) ParentBlock() *Block {
	pc := b.ParentConnection()
	if pc == nil {
		return nil
	}
	if pc.target != nil {
		return pc.target.sourceBlock
	}
	if pc.shadowTarget != nil {
		return pc.shadowTarget.sourceBlock
	}
	return nil
}

// RootBlock walks parent links to the top of the tree this block lives in.
// A detached block is its own root.
func (b *Block) RootBlock() *Block {
	root := b
	for {
		parent := root.ParentBlock()
		if parent == nil {
			return root
		}
		root = parent
	}
}

// TopLevel reports whether the block is one of its workspace's top-level
// blocks. False for nested blocks, attached shadow blocks, and blocks not
// in a workspace.
func (b *Block) TopLevel() bool {
	return b.workspace != nil && b.workspace.isTopLevel(b)
}

// LastBlockInChain follows next connections to the end of this block's
// chain. A block with no next target is its own chain tail.
func (b *Block) LastBlockInChain() *Block {
	last := b
	for {
		next := last.NextBlock()
		if next == nil {
			return last
		}
		last = next
	}
}

// NextChain returns this block and every block after it in its chain, in
// chain order.
func (b *Block) NextChain() []*Block {
	var chain []*Block
	for cur := b; cur != nil; cur = cur.NextBlock() {
		chain = append(chain, cur)
	}
	return chain
}

// Connections returns the block's own connections: previous, next, output,
// and each value/statement input's socket. Nested blocks' connections are
// not included; walk [Block.AllBlocksInTree] for those.
func (b *Block) Connections() []*Connection {
	var conns []*Connection
	for _, c := range []*Connection{b.previous, b.next, b.output} {
		if c != nil {
			conns = append(conns, c)
		}
	}
	for _, in := range b.inputs {
		if in.connection != nil {
			conns = append(conns, in.connection)
		}
	}
	return conns
}

// AllBlocksInTree returns this block and every block reachable below it:
// nested input children, the next chain, and attached shadow blocks, in
// depth-first order.
func (b *Block) AllBlocksInTree() []*Block {
	var blocks []*Block
	var walk func(*Block)
	walk = func(cur *Block) {
		blocks = append(blocks, cur)
		for _, in := range cur.inputs {
			if child := in.ConnectedBlock(); child != nil {
				walk(child)
			}
			if shadow := in.ConnectedShadowBlock(); shadow != nil {
				walk(shadow)
			}
		}
		if cur.next != nil {
			if next := cur.NextBlock(); next != nil {
				walk(next)
			}
			if shadow := cur.next.shadowTarget; shadow != nil {
				walk(shadow.sourceBlock)
			}
		}
	}
	walk(b)
	return blocks
}

func (b *Block) appendInput(in *Input) {
	in.sourceBlock = b
	if in.connection != nil {
		in.connection.sourceBlock = b
	}
	b.inputs = append(b.inputs, in)
}

// ============================================================================
// Block builder
// ============================================================================

// BlockBuilder assembles blocks from a declarative description. A builder is
// reusable: Build clones the registered inputs and fields, so every built
// block has independent connections.
type BlockBuilder struct {
	name string

	hasPrevious    bool
	previousChecks []string
	hasNext        bool
	nextChecks     []string
	hasOutput      bool
	outputChecks   []string

	inputs       []*Input
	inputsInline bool
	shadow       bool
	movable      bool
	editable     bool
	position     geometry.Point
}

// NewBlockBuilder creates a builder for blocks with the given definition
// name. Blocks start movable and editable, with no connections and no
// inputs.
func NewBlockBuilder(name string) *BlockBuilder {
	return &BlockBuilder{name: name, movable: true, editable: true}
}

// WithPreviousConnection adds a previous connection with optional type
// checks. Mutually exclusive with an output connection.
func (bb *BlockBuilder) WithPreviousConnection(typeChecks ...string) *BlockBuilder {
	bb.hasPrevious = true
	bb.previousChecks = typeChecks
	return bb
}

// WithNextConnection adds a next connection with optional type checks.
func (bb *BlockBuilder) WithNextConnection(typeChecks ...string) *BlockBuilder {
	bb.hasNext = true
	bb.nextChecks = typeChecks
	return bb
}

// WithOutputConnection adds an output connection with optional type checks.
// Mutually exclusive with a previous connection.
func (bb *BlockBuilder) WithOutputConnection(typeChecks ...string) *BlockBuilder {
	bb.hasOutput = true
	bb.outputChecks = typeChecks
	return bb
}

// WithInput appends an input template. Build clones it, so the same input
// may be registered on several builders.
func (bb *BlockBuilder) WithInput(in *Input) *BlockBuilder {
	bb.inputs = append(bb.inputs, in)
	return bb
}

// WithInputsInline lays the block's inputs out left-to-right.
func (bb *BlockBuilder) WithInputsInline() *BlockBuilder {
	bb.inputsInline = true
	return bb
}

// WithShadow marks built blocks as shadow placeholders. Shadow blocks are
// not movable.
func (bb *BlockBuilder) WithShadow() *BlockBuilder {
	bb.shadow = true
	return bb
}

// WithPosition sets the initial workspace position of built blocks.
func (bb *BlockBuilder) WithPosition(p geometry.Point) *BlockBuilder {
	bb.position = p
	return bb
}

// Build creates a new block from the builder's description. Returns
// [ErrOutputAndPrevious] if both an output and a previous connection were
// requested.
func (bb *BlockBuilder) Build() (*Block, error) {
	if bb.hasOutput && bb.hasPrevious {
		return nil, ErrOutputAndPrevious
	}

	b := &Block{
		id:           uuid.NewString(),
		name:         bb.name,
		inputsInline: bb.inputsInline,
		shadow:       bb.shadow,
		movable:      bb.movable && !bb.shadow,
		editable:     bb.editable,
		position:     bb.position,
	}
	if bb.hasPrevious {
		b.previous = newConnection(PreviousConnection, bb.previousChecks)
		b.previous.sourceBlock = b
	}
	if bb.hasNext {
		b.next = newConnection(NextConnection, bb.nextChecks)
		b.next.sourceBlock = b
	}
	if bb.hasOutput {
		b.output = newConnection(OutputConnection, bb.outputChecks)
		b.output.sourceBlock = b
	}
	for _, in := range bb.inputs {
		b.appendInput(in.clone())
	}
	return b, nil
}

// MustBuild is like Build but panics on error. Intended for statically
// valid block definitions.
func (bb *BlockBuilder) MustBuild() *Block {
	b, err := bb.Build()
	if err != nil {
		panic(err)
	}
	return b
}

func (in *Input) clone() *Input {
	var c *Input
	switch in.kind {
	case InputValue:
		c = NewValueInput(in.name, in.connection.typeChecks...)
	case InputStatement:
		c = NewStatementInput(in.name, in.connection.typeChecks...)
	default:
		c = NewDummyInput(in.name)
	}
	for _, f := range in.fields {
		c.AppendField(f.clone())
	}
	return c
}

func (f *Field) clone() *Field {
	cp := *f
	cp.sourceInput = nil
	cp.listener = nil
	return &cp
}
