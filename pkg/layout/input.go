package layout

import (
	"github.com/matzehuels/snapstack/pkg/geometry"
	"github.com/matzehuels/snapstack/pkg/model"
)

// InputLayout mirrors one model input: its fields laid out as a row,
// followed by the block group plugged into the input's socket.
//
// Every input layout owns exactly two block groups, created with the node
// itself: one for the real connection target and one for the shadow
// target. At most one of them renders at a time; the other is hidden and
// excluded from sizing. The shadow group renders only while the real group
// is empty, so connecting a real block over a shadow swaps the rendered
// group without discarding the shadow's layout subtree.
type InputLayout struct {
	Base
	input        *model.Input
	fieldLayouts []*FieldLayout
	realGroup    *BlockGroupLayout
	shadowGroup  *BlockGroupLayout
	rendered     *BlockGroupLayout

	// socketOffset is the connected group's origin relative to the input's
	// content origin, recorded by the last layout pass. The input's socket
	// connection sits at this point in workspace coordinates.
	socketOffset geometry.Point
}

// NewInputLayout creates the layout node for input, including its two
// empty block groups. Field layouts are appended by the builder.
func NewInputLayout(input *model.Input, config *Config, scheduler *Scheduler) *InputLayout {
	il := &InputLayout{input: input}
	il.initBase(il, config, scheduler)
	il.realGroup = NewBlockGroupLayout(config, scheduler)
	il.shadowGroup = NewBlockGroupLayout(config, scheduler)
	il.AdoptChild(il.realGroup)
	il.AdoptChild(il.shadowGroup)
	il.rendered = il.realGroup
	il.shadowGroup.setVisible(false)
	return il
}

// Input returns the model input this node mirrors.
func (il *InputLayout) Input() *model.Input { return il.input }

// FieldLayouts returns the input's field layouts in field order.
func (il *InputLayout) FieldLayouts() []*FieldLayout {
	return append([]*FieldLayout(nil), il.fieldLayouts...)
}

// AppendFieldLayout adopts fl as the next field in the input's row.
func (il *InputLayout) AppendFieldLayout(fl *FieldLayout) {
	il.fieldLayouts = append(il.fieldLayouts, fl)
	il.AdoptChild(fl)
}

// RealGroup returns the group holding the socket's real target subtree.
func (il *InputLayout) RealGroup() *BlockGroupLayout { return il.realGroup }

// ShadowGroup returns the group holding the socket's shadow subtree.
func (il *InputLayout) ShadowGroup() *BlockGroupLayout { return il.shadowGroup }

// RenderedGroup returns the group currently rendered in the socket: the
// shadow group while the real group is empty and the shadow group is not,
// otherwise the real group.
func (il *InputLayout) RenderedGroup() *BlockGroupLayout {
	if il.realGroup.Empty() && !il.shadowGroup.Empty() {
		return il.shadowGroup
	}
	return il.realGroup
}

// refreshRenderedGroup reconciles group visibility with the rendered-group
// rule and reports a swap. Called after any change to either group's
// membership.
func (il *InputLayout) refreshRenderedGroup() {
	rendered := il.RenderedGroup()
	il.realGroup.setVisible(rendered == il.realGroup)
	il.shadowGroup.setVisible(rendered == il.shadowGroup)
	if rendered != il.rendered {
		il.rendered = rendered
		il.markAncestorsNeedLayout()
		il.sendChange(FlagRenderedGroup | FlagNeedsDisplay)
	}
}

// PerformLayout lays the fields out left to right, vertically centered on
// the row, and places the rendered group after them. Value and statement
// sockets reserve space when empty so the drop target stays visible.
func (il *InputLayout) PerformLayout(recurse bool) {
	il.refreshRenderedGroup()
	group := il.rendered

	if recurse {
		for _, fl := range il.fieldLayouts {
			fl.PerformLayout(true)
		}
		if !group.Empty() {
			group.PerformLayout(true)
		}
	}

	xSep := il.config.WorkspaceUnit(KeyXSeparatorSpace)
	xPad := il.config.WorkspaceUnit(KeyInlineXPadding)
	yPad := il.config.WorkspaceUnit(KeyInlineYPadding)
	minH := il.config.WorkspaceUnit(KeyMinBlockHeight)
	il.setEdgeInsets(geometry.Insets(yPad, xPad, yPad, xPad))

	var rowW, rowH float64
	for i, fl := range il.fieldLayouts {
		size := fl.TotalSize()
		if i > 0 {
			rowW += xSep
		}
		rowW += size.Width
		if size.Height > rowH {
			rowH = size.Height
		}
	}
	var x float64
	for i, fl := range il.fieldLayouts {
		if i > 0 {
			x += xSep
		}
		size := fl.TotalSize()
		il.placeChild(fl, geometry.Pt(x, (rowH-size.Height)/2))
		x += size.Width
	}

	socketX := rowW
	if rowW > 0 {
		socketX += xSep
	}
	il.socketOffset = geometry.Pt(socketX, 0)

	switch il.input.Kind() {
	case model.InputDummy:
		il.setContentSize(geometry.Sz(rowW, rowH))
	case model.InputValue:
		if group.Empty() {
			tabW := il.config.WorkspaceUnit(KeyPuzzleTabWidth)
			il.setContentSize(geometry.Sz(socketX+tabW, max(rowH, minH)))
			return
		}
		il.placeChild(group, geometry.Pt(socketX, 0))
		groupSize := group.TotalSize()
		il.setContentSize(geometry.Sz(socketX+groupSize.Width, max(rowH, groupSize.Height)))
	case model.InputStatement:
		if group.Empty() {
			notchW := il.config.WorkspaceUnit(KeyNotchWidth)
			il.setContentSize(geometry.Sz(socketX+notchW, max(rowH, minH)))
			return
		}
		il.placeChild(group, geometry.Pt(socketX, 0))
		groupSize := group.TotalSize()
		il.setContentSize(geometry.Sz(socketX+groupSize.Width, max(rowH, groupSize.Height, minH)))
	}
}

// absoluteRefreshed publishes the socket connection's workspace position
// after a positional refresh, so the connection index tracks the live
// geometry.
func (il *InputLayout) absoluteRefreshed() {
	if conn := il.input.Connection(); conn != nil {
		conn.MoveToPoint(il.absolutePosition.Add(il.socketOffset))
	}
}
