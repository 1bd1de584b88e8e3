package layout

import (
	"github.com/matzehuels/snapstack/pkg/geometry"
	"github.com/matzehuels/snapstack/pkg/model"
)

// BlockLayout mirrors one model block. Its children are the input layouts,
// one per model input in declaration order, stacked top to bottom or, for
// an inline block, laid out left to right.
//
// The block's own connection anatomy shows up as insets: a block with an
// output connection reserves its puzzle tab in the leading inset, and a
// block with a next connection reserves the interlock notch in the bottom
// inset. Group stacking and socket placement subtract exactly these
// insets, so the workspace positions of two connected endpoints coincide.
type BlockLayout struct {
	Base
	block        *model.Block
	inputLayouts []*InputLayout
}

// NewBlockLayout creates the layout node for block. Input layouts are
// appended by the builder.
func NewBlockLayout(block *model.Block, config *Config, scheduler *Scheduler) *BlockLayout {
	bl := &BlockLayout{block: block}
	bl.initBase(bl, config, scheduler)
	return bl
}

// Block returns the model block this node mirrors.
func (bl *BlockLayout) Block() *model.Block { return bl.block }

// InputLayouts returns the block's input layouts in input order.
func (bl *BlockLayout) InputLayouts() []*InputLayout {
	return append([]*InputLayout(nil), bl.inputLayouts...)
}

// AppendInputLayout adopts il as the layout of the block's next input.
func (bl *BlockLayout) AppendInputLayout(il *InputLayout) {
	bl.inputLayouts = append(bl.inputLayouts, il)
	bl.AdoptChild(il)
}

// InputLayoutFor returns the layout mirroring input, or nil.
func (bl *BlockLayout) InputLayoutFor(input *model.Input) *InputLayout {
	for _, il := range bl.inputLayouts {
		if il.input == input {
			return il
		}
	}
	return nil
}

// PerformLayout sizes the block around its inputs: stacked vertically by
// default, or in one row when the model block renders inline.
func (bl *BlockLayout) PerformLayout(recurse bool) {
	if recurse {
		for _, il := range bl.inputLayouts {
			il.PerformLayout(true)
		}
	}

	ySep := bl.config.WorkspaceUnit(KeyYSeparatorSpace)
	xSep := bl.config.WorkspaceUnit(KeyXSeparatorSpace)
	minH := bl.config.WorkspaceUnit(KeyMinBlockHeight)

	var insets geometry.EdgeInsets
	if bl.block.OutputConnection() != nil {
		insets.Leading = bl.config.WorkspaceUnit(KeyPuzzleTabWidth)
	}
	if bl.block.NextConnection() != nil {
		insets.Bottom = bl.config.WorkspaceUnit(KeyNotchHeight)
	}
	bl.setEdgeInsets(insets)

	var content geometry.Size
	if bl.block.InputsInline() {
		var x, h float64
		for i, il := range bl.inputLayouts {
			if i > 0 {
				x += xSep
			}
			bl.placeChild(il, geometry.Pt(x, 0))
			size := il.TotalSize()
			x += size.Width
			h = max(h, size.Height)
		}
		content = geometry.Sz(x, max(h, minH))
	} else {
		var y, w float64
		for i, il := range bl.inputLayouts {
			if i > 0 {
				y += ySep
			}
			bl.placeChild(il, geometry.Pt(0, y))
			size := il.TotalSize()
			y += size.Height
			w = max(w, size.Width)
		}
		content = geometry.Sz(w, max(y, minH))
	}
	bl.setContentSize(content)
}

// absoluteRefreshed publishes the block's own connection positions after a
// positional refresh. Previous sits at the content origin, next at the
// content box's bottom-left, and output at the puzzle tab's tip on the
// leading edge, so connected endpoint pairs report identical points.
func (bl *BlockLayout) absoluteRefreshed() {
	abs := bl.absolutePosition
	rtl := bl.config.RTL()
	if c := bl.block.PreviousConnection(); c != nil {
		c.MoveToPoint(abs)
	}
	if c := bl.block.NextConnection(); c != nil {
		c.MoveToPoint(abs.Add(geometry.Pt(0, bl.contentSize.Height)))
	}
	if c := bl.block.OutputConnection(); c != nil {
		c.MoveToPoint(geometry.Pt(abs.X-bl.edgeInsets.Left(rtl), abs.Y))
	}
}
