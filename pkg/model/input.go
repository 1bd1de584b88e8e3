package model

import "slices"

// InputKind identifies one of the three input-slot kinds.
type InputKind int

const (
	// InputValue holds fields plus a socket for an expression block.
	InputValue InputKind = iota
	// InputStatement holds fields plus a socket for a statement chain.
	InputStatement
	// InputDummy holds fields only; it has no connection.
	InputDummy
)

// String returns the kind's name for logs and serialized documents.
func (k InputKind) String() string {
	switch k {
	case InputValue:
		return "value"
	case InputStatement:
		return "statement"
	case InputDummy:
		return "dummy"
	}
	return "unknown"
}

// Input is a named slot on a block: an ordered run of fields followed, for
// value and statement inputs, by a connection that can hold a nested block
// chain. Dummy inputs carry fields only.
//
// Create inputs with [NewValueInput], [NewStatementInput], or
// [NewDummyInput]; the zero value is not usable.
type Input struct {
	kind        InputKind
	name        string
	fields      []*Field
	connection  *Connection
	sourceBlock *Block
}

// NewValueInput creates a value input. typeChecks constrain which output
// connections the socket accepts; an empty list accepts anything.
func NewValueInput(name string, typeChecks ...string) *Input {
	in := &Input{kind: InputValue, name: name}
	in.connection = newConnection(InputConnection, typeChecks)
	in.connection.sourceInput = in
	return in
}

// NewStatementInput creates a statement input.
func NewStatementInput(name string, typeChecks ...string) *Input {
	in := &Input{kind: InputStatement, name: name}
	in.connection = newConnection(NextConnection, typeChecks)
	in.connection.sourceInput = in
	return in
}

// NewDummyInput creates a field-only input with no connection.
func NewDummyInput(name string) *Input {
	return &Input{kind: InputDummy, name: name}
}

// Kind returns the input's kind.
func (in *Input) Kind() InputKind { return in.kind }

// Name returns the input's name within its block.
func (in *Input) Name() string { return in.name }

// Fields returns the input's fields in source order. The returned slice is
// a copy; the fields themselves are shared.
func (in *Input) Fields() []*Field { return slices.Clone(in.fields) }

// Connection returns the input's socket, or nil for dummy inputs. Statement
// inputs expose a next-kind connection, value inputs an input-kind one.
func (in *Input) Connection() *Connection { return in.connection }

// SourceBlock returns the block this input belongs to, or nil before the
// input is added to one.
func (in *Input) SourceBlock() *Block { return in.sourceBlock }

// AppendField adds a field to the end of the input's field list and sets the
// field's back-reference.
func (in *Input) AppendField(f *Field) {
	f.sourceInput = in
	in.fields = append(in.fields, f)
}

// ConnectedBlock returns the block really connected to this input's socket,
// or nil when the socket is empty, has only a shadow, or the input is dummy.
func (in *Input) ConnectedBlock() *Block {
	if in.connection == nil || in.connection.target == nil {
		return nil
	}
	return in.connection.target.sourceBlock
}

// ConnectedShadowBlock returns the shadow block attached to this input's
// socket, or nil.
func (in *Input) ConnectedShadowBlock() *Block {
	if in.connection == nil || in.connection.shadowTarget == nil {
		return nil
	}
	return in.connection.shadowTarget.sourceBlock
}

// FieldByName returns the named field and true, or nil and false.
func (in *Input) FieldByName(name string) (*Field, bool) {
	for _, f := range in.fields {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}
