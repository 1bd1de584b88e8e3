package layout

import (
	"testing"

	"github.com/matzehuels/snapstack/pkg/errors"
	"github.com/matzehuels/snapstack/pkg/geometry"
	"github.com/matzehuels/snapstack/pkg/model"
)

func TestFieldLayoutMeasuresThroughMeasurer(t *testing.T) {
	f := newTestFactory()
	field := model.NewLabelField("LBL", "move")
	fl, err := f.CreateFieldLayout(field)
	if err != nil {
		t.Fatalf("CreateFieldLayout: %v", err)
	}

	fl.PerformLayout(false)

	if got, want := fl.ContentSize(), geometry.Sz(40, 20); got != want {
		t.Errorf("content = %v, want %v", got, want)
	}
	if got, want := fl.EdgeInsets(), geometry.Insets(2, 4, 2, 4); got != want {
		t.Errorf("insets = %v, want %v", got, want)
	}
	if got, want := fl.TotalSize(), geometry.Sz(48, 24); got != want {
		t.Errorf("total = %v, want %v", got, want)
	}
}

func TestCreateFieldLayoutWithoutMeasurer(t *testing.T) {
	f := NewFactory(NewConfig(), NewScheduler())
	_, err := f.CreateFieldLayout(model.NewLabelField("LBL", "x"))
	if err == nil {
		t.Fatal("CreateFieldLayout succeeded without a measurer")
	}
	if got := errors.GetCode(err); got != errors.ErrCodeMeasurerNotFound {
		t.Errorf("code = %v, want %v", got, errors.ErrCodeMeasurerNotFound)
	}
	if !errors.IsNotFound(err) {
		t.Error("missing measurer not classified as not-found")
	}
}

func TestDummyInputLaysFieldsInARow(t *testing.T) {
	f := newTestFactory()
	in := model.NewDummyInput("ROW")
	in.AppendField(model.NewLabelField("A", "a"))
	in.AppendField(model.NewLabelField("B", "b"))
	block := model.NewBlockBuilder("row").WithInput(in).MustBuild()

	bl, err := NewBuilder(f, NewRegistry(), nil).BuildBlockTree(block)
	if err != nil {
		t.Fatalf("BuildBlockTree: %v", err)
	}
	il := bl.InputLayouts()[0]
	il.PerformLayout(true)

	if got, want := il.ContentSize(), geometry.Sz(106, 24); got != want {
		t.Errorf("content = %v, want %v", got, want)
	}
	if got, want := il.TotalSize(), geometry.Sz(126, 34); got != want {
		t.Errorf("total = %v, want %v", got, want)
	}
	fls := il.FieldLayouts()
	if got, want := fls[0].RelativePosition(), geometry.Pt(0, 0); got != want {
		t.Errorf("first field at %v, want %v", got, want)
	}
	if got, want := fls[1].RelativePosition(), geometry.Pt(58, 0); got != want {
		t.Errorf("second field at %v, want %v", got, want)
	}
}

func TestValueInputReservesSocketSpaceWhenEmpty(t *testing.T) {
	f := newTestFactory()
	host := hostBlock("host")

	bl, err := NewBuilder(f, NewRegistry(), nil).BuildBlockTree(host)
	if err != nil {
		t.Fatalf("BuildBlockTree: %v", err)
	}
	il := bl.InputLayoutFor(host.Inputs()[0])
	if il == nil {
		t.Fatal("no layout for the value input")
	}
	il.PerformLayout(true)

	// One 48-wide field plus a separator puts the socket at x=58; an empty
	// socket reserves one puzzle-tab width and at least the minimum block
	// height.
	if got, want := il.ContentSize(), geometry.Sz(66, 25); got != want {
		t.Errorf("content = %v, want %v", got, want)
	}
	if got, want := il.TotalSize(), geometry.Sz(86, 35); got != want {
		t.Errorf("total = %v, want %v", got, want)
	}
}

func TestStatementInputReservesNotchSpaceWhenEmpty(t *testing.T) {
	f := newTestFactory()
	in := model.NewStatementInput("DO")
	in.AppendField(model.NewLabelField("LBL", "do"))
	block := model.NewBlockBuilder("loop").
		WithPreviousConnection().
		WithNextConnection().
		WithInput(in).
		MustBuild()

	bl, err := NewBuilder(f, NewRegistry(), nil).BuildBlockTree(block)
	if err != nil {
		t.Fatalf("BuildBlockTree: %v", err)
	}
	il := bl.InputLayoutFor(block.Inputs()[0])
	il.PerformLayout(true)

	if got, want := il.ContentSize(), geometry.Sz(73, 25); got != want {
		t.Errorf("content = %v, want %v", got, want)
	}
}

func TestBlockInsetsFollowConnectionAnatomy(t *testing.T) {
	f := newTestFactory()
	tests := []struct {
		name  string
		block *model.Block
		want  geometry.EdgeInsets
	}{
		{"statement", stmtBlock("s"), geometry.Insets(0, 0, 4, 0)},
		{"expression", exprBlock("e"), geometry.Insets(0, 8, 0, 0)},
		{
			"terminal",
			model.NewBlockBuilder("t").WithPreviousConnection().MustBuild(),
			geometry.EdgeInsets{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bl, err := NewBuilder(f, NewRegistry(), nil).BuildBlockTree(tt.block)
			if err != nil {
				t.Fatalf("BuildBlockTree: %v", err)
			}
			bl.PerformLayout(true)
			if got := bl.EdgeInsets(); got != tt.want {
				t.Errorf("insets = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatementBlockGeometry(t *testing.T) {
	f := newTestFactory()
	bl, err := NewBuilder(f, NewRegistry(), nil).BuildBlockTree(stmtBlock("s"))
	if err != nil {
		t.Fatalf("BuildBlockTree: %v", err)
	}
	bl.PerformLayout(true)

	if got, want := bl.ContentSize(), geometry.Sz(68, 34); got != want {
		t.Errorf("content = %v, want %v", got, want)
	}
	if got, want := bl.TotalSize(), geometry.Sz(68, 38); got != want {
		t.Errorf("total = %v, want %v", got, want)
	}
}

func TestExpressionBlockGeometry(t *testing.T) {
	f := newTestFactory()
	bl, err := NewBuilder(f, NewRegistry(), nil).BuildBlockTree(exprBlock("e"))
	if err != nil {
		t.Fatalf("BuildBlockTree: %v", err)
	}
	bl.PerformLayout(true)

	if got, want := bl.ContentSize(), geometry.Sz(68, 34); got != want {
		t.Errorf("content = %v, want %v", got, want)
	}
	if got, want := bl.TotalSize(), geometry.Sz(76, 34); got != want {
		t.Errorf("total = %v, want %v", got, want)
	}
}

func TestInputsStackedVersusInline(t *testing.T) {
	f := newTestFactory()
	makeInput := func(name string) *model.Input {
		in := model.NewDummyInput(name)
		in.AppendField(model.NewLabelField("LBL", name))
		return in
	}

	stacked := model.NewBlockBuilder("stacked").
		WithInput(makeInput("A")).
		WithInput(makeInput("B")).
		MustBuild()
	inline := model.NewBlockBuilder("inline").
		WithInput(makeInput("A")).
		WithInput(makeInput("B")).
		WithInputsInline().
		MustBuild()

	builder := NewBuilder(f, NewRegistry(), nil)

	sl, err := builder.BuildBlockTree(stacked)
	if err != nil {
		t.Fatalf("BuildBlockTree: %v", err)
	}
	sl.PerformLayout(true)
	if got, want := sl.ContentSize(), geometry.Sz(68, 78); got != want {
		t.Errorf("stacked content = %v, want %v", got, want)
	}

	il, err := builder.BuildBlockTree(inline)
	if err != nil {
		t.Fatalf("BuildBlockTree: %v", err)
	}
	il.PerformLayout(true)
	if got, want := il.ContentSize(), geometry.Sz(146, 34); got != want {
		t.Errorf("inline content = %v, want %v", got, want)
	}
}

func TestHostGrowsAroundConnectedValue(t *testing.T) {
	f := newTestFactory()
	ws := model.NewWorkspace()
	host := hostBlock("host")
	child := exprBlock("child")
	mustConnect(t, host.Inputs()[0].Connection(), child.OutputConnection())
	addTree(t, ws, host)

	wl, reg, b := newTestTree(f, ws)
	if err := b.BuildTree(); err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	wl.UpdateLayoutDownTree()

	hl := reg.BlockLayoutFor(host)
	if got, want := hl.ContentSize(), geometry.Sz(154, 44); got != want {
		t.Errorf("host content = %v, want %v", got, want)
	}
	il := hl.InputLayoutFor(host.Inputs()[0])
	if got, want := il.ContentSize(), geometry.Sz(134, 34); got != want {
		t.Errorf("input content = %v, want %v", got, want)
	}
	if got, want := il.RenderedGroup().TotalSize(), geometry.Sz(76, 34); got != want {
		t.Errorf("nested group total = %v, want %v", got, want)
	}
}

func TestConnectedValueEndpointsCoincide(t *testing.T) {
	f := newTestFactory()
	ws := model.NewWorkspace()
	host := hostBlock("host")
	child := exprBlock("child")
	mustConnect(t, host.Inputs()[0].Connection(), child.OutputConnection())
	addTree(t, ws, host)

	wl, reg, b := newTestTree(f, ws)
	if err := b.BuildTree(); err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	wl.UpdateLayoutDownTree()

	socket := host.Inputs()[0].Connection().Position()
	output := child.OutputConnection().Position()
	if socket != output {
		t.Errorf("socket at %v, output at %v; connected endpoints must coincide", socket, output)
	}
	if want := geometry.Pt(68, 5); socket != want {
		t.Errorf("socket = %v, want %v", socket, want)
	}
	if got, want := reg.BlockLayoutFor(child).AbsolutePosition(), geometry.Pt(76, 5); got != want {
		t.Errorf("child absolute = %v, want %v", got, want)
	}
}

func TestStackedEndpointsCoincide(t *testing.T) {
	f := newTestFactory()
	ws := model.NewWorkspace()
	a := stmtBlock("a")
	bb := stmtBlock("b")
	mustConnect(t, a.NextConnection(), bb.PreviousConnection())
	addTree(t, ws, a)

	wl, _, b := newTestTree(f, ws)
	if err := b.BuildTree(); err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	wl.UpdateLayoutDownTree()

	next := a.NextConnection().Position()
	prev := bb.PreviousConnection().Position()
	if next != prev {
		t.Errorf("next at %v, previous at %v; stacked endpoints must coincide", next, prev)
	}
	if want := geometry.Pt(0, 34); next != want {
		t.Errorf("joint = %v, want %v", next, want)
	}
	if got, want := a.PreviousConnection().Position(), geometry.Pt(0, 0); got != want {
		t.Errorf("chain head previous = %v, want %v", got, want)
	}
}

func TestFieldEditReflowsAncestors(t *testing.T) {
	f := NewFactory(NewConfig(), NewScheduler())
	m := textWidthMeasurer{}
	f.RegisterMeasurer(model.FieldLabel, m)
	f.RegisterMeasurer(model.FieldTextInput, m)
	f.RegisterMeasurer(model.FieldCheckbox, m)

	ws := model.NewWorkspace()
	in := model.NewDummyInput("ROW")
	field := model.NewTextInputField("TXT", "ab")
	in.AppendField(field)
	block := model.NewBlockBuilder("note").
		WithPreviousConnection().
		WithNextConnection().
		WithInput(in).
		MustBuild()
	addTree(t, ws, block)

	wl, reg, b := newTestTree(f, ws)
	if err := b.BuildTree(); err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	wl.UpdateLayoutDownTree()

	bl := reg.BlockLayoutFor(block)
	before := bl.ContentSize()

	rec := &changeRecorder{}
	fl := bl.InputLayouts()[0].FieldLayouts()[0]
	fl.AddChangeListener(rec)

	field.SetText("abcd")
	f.Scheduler().Flush()

	if got, want := bl.ContentSize().Width, before.Width+10; got != want {
		t.Errorf("block width after edit = %v, want %v", got, want)
	}
	var flags ChangeFlags
	for _, fl := range rec.flags {
		flags |= fl
	}
	if !flags.Has(FlagFieldValue) {
		t.Error("field edit did not report a field value change")
	}
}

// textWidthMeasurer sizes a field from its text so edits change geometry.
type textWidthMeasurer struct{}

func (textWidthMeasurer) MeasureField(f *model.Field, _ *Config) geometry.Size {
	return geometry.Sz(float64(5*len(f.Text())), 20)
}
