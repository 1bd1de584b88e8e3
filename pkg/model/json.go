package model

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/snapstack/pkg/geometry"
)

// Workspace documents serialize blocks in their nesting structure: each top
// level block carries its inputs, each input its connected child or shadow,
// and each block its next-chain successor. Connection declarations (which
// connections a block has, with their type checks) are stored separately
// from the links so unconnected sockets round-trip too.

type workspaceDoc struct {
	Blocks []*blockDoc `json:"blocks"`
}

type blockDoc struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name"`
	X            float64  `json:"x,omitempty"`
	Y            float64  `json:"y,omitempty"`
	Shadow       bool     `json:"shadow,omitempty"`
	InputsInline bool     `json:"inputs_inline,omitempty"`
	Disabled     bool     `json:"disabled,omitempty"`
	Previous     *connDoc `json:"previous,omitempty"`
	NextConn     *connDoc `json:"next_connection,omitempty"`
	Output       *connDoc `json:"output,omitempty"`

	Inputs     []*inputDoc `json:"inputs,omitempty"`
	Next       *blockDoc   `json:"next,omitempty"`
	NextShadow *blockDoc   `json:"next_shadow,omitempty"`
}

type connDoc struct {
	Checks []string `json:"checks,omitempty"`
}

type inputDoc struct {
	Kind   string      `json:"kind"`
	Name   string      `json:"name"`
	Checks []string    `json:"checks,omitempty"`
	Fields []*fieldDoc `json:"fields,omitempty"`
	Block  *blockDoc   `json:"block,omitempty"`
	Shadow *blockDoc   `json:"shadow,omitempty"`
}

type fieldDoc struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Text    string `json:"text,omitempty"`
	Checked bool   `json:"checked,omitempty"`
}

// MarshalWorkspace serializes the workspace's block trees to indented JSON.
// Top-level blocks appear in workspace order; nested blocks, shadows, and
// chains follow their structural nesting.
func MarshalWorkspace(ws *Workspace) ([]byte, error) {
	doc := &workspaceDoc{}
	for _, b := range ws.TopBlocks() {
		doc.Blocks = append(doc.Blocks, encodeBlock(b))
	}
	return json.MarshalIndent(doc, "", "  ")
}

// UnmarshalWorkspace parses a workspace document and reconstructs the full
// model: blocks, fields, connection declarations, real links, and shadow
// links. Block IDs from the document are preserved.
func UnmarshalWorkspace(data []byte) (*Workspace, error) {
	var doc workspaceDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse workspace document: %w", err)
	}
	ws := NewWorkspace()
	for _, bd := range doc.Blocks {
		b, err := decodeBlock(bd)
		if err != nil {
			return nil, err
		}
		if err := ws.AddBlockTree(b); err != nil {
			return nil, fmt.Errorf("add block %q: %w", b.name, err)
		}
	}
	return ws, nil
}

func encodeBlock(b *Block) *blockDoc {
	doc := &blockDoc{
		ID:           b.id,
		Name:         b.name,
		X:            b.position.X,
		Y:            b.position.Y,
		Shadow:       b.shadow,
		InputsInline: b.inputsInline,
		Disabled:     b.disabled,
	}
	if b.previous != nil {
		doc.Previous = &connDoc{Checks: b.previous.typeChecks}
	}
	if b.next != nil {
		doc.NextConn = &connDoc{Checks: b.next.typeChecks}
	}
	if b.output != nil {
		doc.Output = &connDoc{Checks: b.output.typeChecks}
	}
	for _, in := range b.inputs {
		doc.Inputs = append(doc.Inputs, encodeInput(in))
	}
	if b.next != nil {
		if next := b.NextBlock(); next != nil {
			doc.Next = encodeBlock(next)
		}
		if st := b.next.shadowTarget; st != nil {
			doc.NextShadow = encodeBlock(st.sourceBlock)
		}
	}
	return doc
}

func encodeInput(in *Input) *inputDoc {
	doc := &inputDoc{Kind: in.kind.String(), Name: in.name}
	if in.connection != nil {
		doc.Checks = in.connection.typeChecks
	}
	for _, f := range in.fields {
		fd := &fieldDoc{Kind: f.kind.String(), Name: f.name}
		if f.kind == FieldCheckbox {
			fd.Checked = f.checked
		} else {
			fd.Text = f.text
		}
		doc.Fields = append(doc.Fields, fd)
	}
	if child := in.ConnectedBlock(); child != nil {
		doc.Block = encodeBlock(child)
	}
	if shadow := in.ConnectedShadowBlock(); shadow != nil {
		doc.Shadow = encodeBlock(shadow)
	}
	return doc
}

func decodeBlock(doc *blockDoc) (*Block, error) {
	bb := NewBlockBuilder(doc.Name)
	if doc.Previous != nil {
		bb.WithPreviousConnection(doc.Previous.Checks...)
	}
	if doc.NextConn != nil {
		bb.WithNextConnection(doc.NextConn.Checks...)
	}
	if doc.Output != nil {
		bb.WithOutputConnection(doc.Output.Checks...)
	}
	if doc.InputsInline {
		bb.WithInputsInline()
	}
	if doc.Shadow {
		bb.WithShadow()
	}
	b, err := bb.Build()
	if err != nil {
		return nil, fmt.Errorf("decode block %q: %w", doc.Name, err)
	}
	if doc.ID != "" {
		b.id = doc.ID
	}
	b.position = geometry.Pt(doc.X, doc.Y)
	b.disabled = doc.Disabled

	for _, ind := range doc.Inputs {
		in, err := decodeInput(ind)
		if err != nil {
			return nil, fmt.Errorf("decode block %q: %w", doc.Name, err)
		}
		b.appendInput(in)
	}
	for i, ind := range doc.Inputs {
		in := b.inputs[i]
		if ind.Block != nil {
			child, err := decodeBlock(ind.Block)
			if err != nil {
				return nil, err
			}
			if err := connectChild(in.connection, child, false); err != nil {
				return nil, fmt.Errorf("input %q of block %q: %w", in.name, doc.Name, err)
			}
		}
		if ind.Shadow != nil {
			shadow, err := decodeBlock(ind.Shadow)
			if err != nil {
				return nil, err
			}
			if err := connectChild(in.connection, shadow, true); err != nil {
				return nil, fmt.Errorf("input %q of block %q: %w", in.name, doc.Name, err)
			}
		}
	}
	if doc.Next != nil {
		next, err := decodeBlock(doc.Next)
		if err != nil {
			return nil, err
		}
		if err := connectChild(b.next, next, false); err != nil {
			return nil, fmt.Errorf("next of block %q: %w", doc.Name, err)
		}
	}
	if doc.NextShadow != nil {
		shadow, err := decodeBlock(doc.NextShadow)
		if err != nil {
			return nil, err
		}
		if err := connectChild(b.next, shadow, true); err != nil {
			return nil, fmt.Errorf("next shadow of block %q: %w", doc.Name, err)
		}
	}
	return b, nil
}

func decodeInput(doc *inputDoc) (*Input, error) {
	var in *Input
	switch doc.Kind {
	case "value":
		in = NewValueInput(doc.Name, doc.Checks...)
	case "statement":
		in = NewStatementInput(doc.Name, doc.Checks...)
	case "dummy":
		in = NewDummyInput(doc.Name)
	default:
		return nil, fmt.Errorf("unknown input kind %q", doc.Kind)
	}
	for _, fd := range doc.Fields {
		switch fd.Kind {
		case "label":
			in.AppendField(NewLabelField(fd.Name, fd.Text))
		case "text_input":
			in.AppendField(NewTextInputField(fd.Name, fd.Text))
		case "checkbox":
			in.AppendField(NewCheckboxField(fd.Name, fd.Checked))
		default:
			return nil, fmt.Errorf("unknown field kind %q", fd.Kind)
		}
	}
	return in, nil
}

// connectChild links a decoded child block under the given superior
// connection, picking the child's previous or output side to match.
func connectChild(conn *Connection, child *Block, asShadow bool) error {
	if conn == nil {
		return fmt.Errorf("no connection declared for child %q", child.name)
	}
	var inferior *Connection
	switch conn.kind.Opposite() {
	case PreviousConnection:
		inferior = child.previous
	case OutputConnection:
		inferior = child.output
	}
	if inferior == nil {
		return fmt.Errorf("child %q has no %s connection", child.name, conn.kind.Opposite())
	}
	if asShadow {
		return conn.ConnectShadow(inferior)
	}
	return conn.Connect(inferior)
}
