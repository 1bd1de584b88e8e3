package layout

import (
	"testing"

	"github.com/matzehuels/snapstack/pkg/geometry"
	"github.com/matzehuels/snapstack/pkg/model"
)

// buildChainGroup builds a group holding the chain starting at head.
func buildChainGroup(t *testing.T, f *Factory, head *model.Block) *BlockGroupLayout {
	t.Helper()
	g := f.CreateBlockGroupLayout()
	if err := NewBuilder(f, NewRegistry(), nil).BuildGroupChain(g, head); err != nil {
		t.Fatalf("BuildGroupChain: %v", err)
	}
	return g
}

func TestGroupStacksMembersAtNotchJoints(t *testing.T) {
	f := newTestFactory()
	a, b, c := stmtBlock("a"), stmtBlock("b"), stmtBlock("c")
	mustConnect(t, a.NextConnection(), b.PreviousConnection())
	mustConnect(t, b.NextConnection(), c.PreviousConnection())

	g := buildChainGroup(t, f, a)
	g.UpdateLayoutDownTree()

	bls := g.BlockLayouts()
	if len(bls) != 3 {
		t.Fatalf("members = %d, want 3", len(bls))
	}
	wantY := []float64{0, 34, 68}
	for i, bl := range bls {
		if got := bl.RelativePosition().Y; got != wantY[i] {
			t.Errorf("member %d at y=%v, want %v", i, got, wantY[i])
		}
	}
	// Each joint overlaps by one notch height: three 38-tall boxes stack to
	// 106 instead of 114.
	if got, want := g.ContentSize(), geometry.Sz(68, 106); got != want {
		t.Errorf("group content = %v, want %v", got, want)
	}
}

func TestEmptyGroupHasZeroSize(t *testing.T) {
	f := newTestFactory()
	g := f.CreateBlockGroupLayout()
	g.PerformLayout(true)

	if !g.Empty() {
		t.Error("new group not empty")
	}
	if got := g.ContentSize(); !got.IsZero() {
		t.Errorf("content = %v, want zero", got)
	}
	if g.FirstBlockLayout() != nil || g.LastBlockLayout() != nil {
		t.Error("empty group reported members")
	}
}

func TestDetachBlockLayoutsFrom(t *testing.T) {
	f := newTestFactory()
	a, b, c := stmtBlock("a"), stmtBlock("b"), stmtBlock("c")
	mustConnect(t, a.NextConnection(), b.PreviousConnection())
	mustConnect(t, b.NextConnection(), c.PreviousConnection())
	g := buildChainGroup(t, f, a)
	g.UpdateLayoutDownTree()

	detached := g.DetachBlockLayoutsFrom(g.BlockLayouts()[1])

	if len(detached) != 2 {
		t.Fatalf("detached = %d, want 2", len(detached))
	}
	if detached[0].Block() != b || detached[1].Block() != c {
		t.Error("detached run out of chain order")
	}
	if got := len(g.BlockLayouts()); got != 1 {
		t.Errorf("remaining members = %d, want 1", got)
	}
	for _, bl := range detached {
		if bl.Parent() != nil {
			t.Error("detached layout still parented to the group")
		}
	}
}

func TestDetachNonMemberReturnsNil(t *testing.T) {
	f := newTestFactory()
	g := buildChainGroup(t, f, stmtBlock("a"))
	outsider, err := NewBuilder(f, NewRegistry(), nil).BuildBlockTree(stmtBlock("x"))
	if err != nil {
		t.Fatalf("BuildBlockTree: %v", err)
	}

	if got := g.DetachBlockLayoutsFrom(outsider); got != nil {
		t.Errorf("detach of non-member returned %d layouts, want nil", len(got))
	}
	if got := len(g.BlockLayouts()); got != 1 {
		t.Errorf("members = %d, want 1", got)
	}
}

func TestAppendedLayoutInheritsGroupState(t *testing.T) {
	f := newTestFactory()
	g := buildChainGroup(t, f, stmtBlock("a"))
	g.SetZIndex(7)
	g.SetDragging(true)

	late, err := NewBuilder(f, NewRegistry(), nil).BuildBlockTree(stmtBlock("late"))
	if err != nil {
		t.Fatalf("BuildBlockTree: %v", err)
	}
	g.AppendBlockLayout(late)

	walkNodes(late, func(n Node) {
		if n.ZIndex() != 7 {
			t.Errorf("node %s z = %d, want 7", n.ID(), n.ZIndex())
		}
		if !n.Dragging() {
			t.Errorf("node %s not dragging", n.ID())
		}
	})
}

func TestGroupZIndexAndDraggingPropagate(t *testing.T) {
	f := newTestFactory()
	ws := model.NewWorkspace()
	host := hostBlock("host")
	child := exprBlock("child")
	mustConnect(t, host.Inputs()[0].Connection(), child.OutputConnection())
	addTree(t, ws, host)

	wl, _, b := newTestTree(f, ws)
	if err := b.BuildTree(); err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	g := wl.BlockGroups()[0]

	g.SetZIndex(9)
	walkNodes(g, func(n Node) {
		if n.ZIndex() != 9 {
			t.Errorf("node %s z = %d, want 9", n.ID(), n.ZIndex())
		}
	})

	g.SetDragging(true)
	walkNodes(g, func(n Node) {
		if !n.Dragging() {
			t.Errorf("node %s not dragging", n.ID())
		}
	})
	g.SetDragging(false)
	walkNodes(g, func(n Node) {
		if n.Dragging() {
			t.Errorf("node %s still dragging", n.ID())
		}
	})
}

func TestMoveToWorkspacePosition(t *testing.T) {
	f := newTestFactory()
	ws := model.NewWorkspace()
	a, bb := stmtBlock("a"), stmtBlock("b")
	mustConnect(t, a.NextConnection(), bb.PreviousConnection())
	addTree(t, ws, a)

	wl, reg, b := newTestTree(f, ws)
	if err := b.BuildTree(); err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	wl.UpdateLayoutDownTree()

	g := wl.BlockGroups()[0]
	g.MoveToWorkspacePosition(geometry.Pt(40, 60))

	if got, want := g.RelativePosition(), geometry.Pt(40, 60); got != want {
		t.Errorf("group at %v, want %v", got, want)
	}
	// The move refreshes absolutes immediately, members included.
	if got, want := reg.BlockLayoutFor(a).AbsolutePosition(), geometry.Pt(40, 60); got != want {
		t.Errorf("head absolute = %v, want %v", got, want)
	}
	if got, want := reg.BlockLayoutFor(bb).AbsolutePosition(), geometry.Pt(40, 94); got != want {
		t.Errorf("tail absolute = %v, want %v", got, want)
	}
	if got, want := a.NextConnection().Position(), geometry.Pt(40, 94); got != want {
		t.Errorf("joint position = %v, want %v", got, want)
	}
}
