package layout

import (
	"testing"

	"github.com/matzehuels/snapstack/pkg/geometry"
	"github.com/matzehuels/snapstack/pkg/model"
)

func TestIndexTrackUntrack(t *testing.T) {
	ix := NewConnectionIndex(NewConfig())
	conn := stmtBlock("a").NextConnection()

	ix.Track(conn)
	if !ix.Tracked(conn) {
		t.Fatal("connection not tracked after Track")
	}
	if got := ix.Count(); got != 1 {
		t.Errorf("Count = %d, want 1", got)
	}

	// Tracking twice stays a single entry.
	ix.Track(conn)
	if got := ix.Count(); got != 1 {
		t.Errorf("Count after re-track = %d, want 1", got)
	}

	ix.Untrack(conn)
	if ix.Tracked(conn) {
		t.Error("connection tracked after Untrack")
	}
	if got := ix.Count(); got != 0 {
		t.Errorf("Count = %d, want 0", got)
	}
	ix.Untrack(conn)
}

func TestIndexTrackBlockTree(t *testing.T) {
	ix := NewConnectionIndex(NewConfig())
	host := hostBlock("host")
	child := exprBlock("child")
	if err := host.Inputs()[0].Connection().Connect(child.OutputConnection()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	ix.TrackBlockTree(host)
	// Previous, next, and the value input on the host plus the child's
	// output.
	if got := ix.Count(); got != 4 {
		t.Errorf("Count = %d, want 4", got)
	}

	ix.UntrackBlockTree(host)
	if got := ix.Count(); got != 0 {
		t.Errorf("Count after untrack = %d, want 0", got)
	}
}

func TestIndexQueryUntrackedReturnsNothing(t *testing.T) {
	ix := NewConnectionIndex(NewConfig())
	conn := stmtBlock("a").PreviousConnection()

	if got := ix.FindCandidates(conn, 25); got != nil {
		t.Errorf("FindCandidates on untracked = %d results, want none", len(got))
	}
	if got := ix.ClosestEligible(conn, 25); got != nil {
		t.Error("ClosestEligible on untracked returned a candidate")
	}
}

func TestIndexFollowsConnectionMoves(t *testing.T) {
	ix := NewConnectionIndex(NewConfig())
	query := stmtBlock("q").PreviousConnection()
	cand := stmtBlock("c").NextConnection()
	ix.Track(query)
	ix.Track(cand)

	cand.MoveToPoint(geometry.Pt(1000, 1000))
	if got := ix.FindCandidates(query, 25); len(got) != 0 {
		t.Fatalf("distant candidate found: %d results", len(got))
	}

	cand.MoveToPoint(geometry.Pt(10, 10))
	got := ix.FindCandidates(query, 25)
	if len(got) != 1 || got[0] != cand {
		t.Errorf("moved candidate not found, got %d results", len(got))
	}

	// Once untracked, moves no longer resurrect the entry.
	ix.Untrack(cand)
	cand.MoveToPoint(geometry.Pt(5, 5))
	if got := ix.FindCandidates(query, 25); len(got) != 0 {
		t.Error("untracked candidate still discoverable")
	}
}

func TestFindCandidatesOrderedByDistance(t *testing.T) {
	ix := NewConnectionIndex(NewConfig())
	q := stmtBlock("q")
	near, mid, far := stmtBlock("near"), stmtBlock("mid"), stmtBlock("far")
	out := stmtBlock("out")

	ix.Track(q.PreviousConnection())
	ix.Track(q.NextConnection())
	for _, c := range []*model.Connection{
		near.NextConnection(), mid.NextConnection(), far.NextConnection(), out.NextConnection(),
	} {
		ix.Track(c)
	}
	near.NextConnection().MoveToPoint(geometry.Pt(7, 0))
	mid.NextConnection().MoveToPoint(geometry.Pt(12, 0))
	far.NextConnection().MoveToPoint(geometry.Pt(25, 0))
	out.NextConnection().MoveToPoint(geometry.Pt(100, 0))
	q.NextConnection().MoveToPoint(geometry.Pt(1, 0))

	got := ix.FindCandidates(q.PreviousConnection(), 25)

	want := []*model.Connection{near.NextConnection(), mid.NextConnection(), far.NextConnection()}
	if len(got) != len(want) {
		t.Fatalf("candidates = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate %d = %v, want %v", i, got[i].ID(), want[i].ID())
		}
	}
}

func TestFindCandidatesEligibility(t *testing.T) {
	ix := NewConnectionIndex(NewConfig())

	q := model.NewBlockBuilder("q").WithPreviousConnection("alpha").MustBuild()

	eligible := stmtBlock("ok")
	wrongKind := stmtBlock("wrong-kind")
	typed := model.NewBlockBuilder("typed").WithNextConnection("beta").MustBuild()
	shadow := shadowStmtBlock("shade")
	occupiedHead, occupiedTail := stmtBlock("o1"), stmtBlock("o2")
	if err := occupiedHead.NextConnection().Connect(occupiedTail.PreviousConnection()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	ix.Track(q.PreviousConnection())
	ix.Track(eligible.NextConnection())
	ix.Track(wrongKind.PreviousConnection())
	ix.Track(typed.NextConnection())
	ix.Track(shadow.NextConnection())
	ix.Track(occupiedHead.NextConnection())
	eligible.NextConnection().MoveToPoint(geometry.Pt(6, 0))
	wrongKind.PreviousConnection().MoveToPoint(geometry.Pt(1, 0))
	typed.NextConnection().MoveToPoint(geometry.Pt(2, 0))
	shadow.NextConnection().MoveToPoint(geometry.Pt(3, 0))
	occupiedHead.NextConnection().MoveToPoint(geometry.Pt(4, 0))

	got := ix.FindCandidates(q.PreviousConnection(), 25)

	if len(got) != 1 || got[0] != eligible.NextConnection() {
		ids := make([]string, len(got))
		for i, c := range got {
			ids[i] = c.ID()
		}
		t.Errorf("candidates = %v, want only the free untyped next connection", ids)
	}
}

func TestClosestEligible(t *testing.T) {
	ix := NewConnectionIndex(NewConfig())
	q := stmtBlock("q")
	a, b := stmtBlock("a"), stmtBlock("b")
	ix.Track(q.PreviousConnection())
	ix.Track(a.NextConnection())
	ix.Track(b.NextConnection())
	a.NextConnection().MoveToPoint(geometry.Pt(9, 0))
	b.NextConnection().MoveToPoint(geometry.Pt(5, 0))

	if got := ix.ClosestEligible(q.PreviousConnection(), 25); got != b.NextConnection() {
		t.Error("ClosestEligible did not pick the nearest candidate")
	}
	if got := ix.ClosestEligible(q.PreviousConnection(), 4); got != nil {
		t.Error("ClosestEligible ignored the radius")
	}
}
