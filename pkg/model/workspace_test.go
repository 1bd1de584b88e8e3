package model

import (
	"errors"
	"testing"
)

type recordingWorkspaceListener struct {
	added   []*Block
	removed []*Block
}

func (r *recordingWorkspaceListener) BlockAdded(_ *Workspace, b *Block) {
	r.added = append(r.added, b)
}

func (r *recordingWorkspaceListener) BlockWillBeRemoved(_ *Workspace, b *Block) {
	r.removed = append(r.removed, b)
}

func TestAddBlockTree(t *testing.T) {
	ws := NewWorkspace()
	l := &recordingWorkspaceListener{}
	ws.AddListener(l)

	a := stmtBlock(t, "a")
	b := stmtBlock(t, "b")
	mustConnect(t, a.NextConnection(), b.PreviousConnection())

	if err := ws.AddBlockTree(a); err != nil {
		t.Fatalf("AddBlockTree() error = %v", err)
	}
	if ws.BlockCount() != 2 {
		t.Errorf("BlockCount() = %d, want 2", ws.BlockCount())
	}
	if len(ws.TopBlocks()) != 1 || ws.TopBlocks()[0] != a {
		t.Errorf("TopBlocks() = %v, want [a]", ws.TopBlocks())
	}
	if !a.TopLevel() {
		t.Error("a.TopLevel() = false, want true")
	}
	if b.TopLevel() {
		t.Error("b.TopLevel() = true, want false")
	}
	if len(l.added) != 1 || l.added[0] != a {
		t.Errorf("added events = %v, want root only", l.added)
	}
	if got, ok := ws.BlockByID(b.ID()); !ok || got != b {
		t.Error("nested block not registered by ID")
	}
}

func TestAddBlockTreeErrors(t *testing.T) {
	ws := NewWorkspace()
	a := stmtBlock(t, "a")
	b := stmtBlock(t, "b")
	mustConnect(t, a.NextConnection(), b.PreviousConnection())

	if err := ws.AddBlockTree(b); !errors.Is(err, ErrBlockNotTopLevel) {
		t.Errorf("AddBlockTree(nested) error = %v, want %v", err, ErrBlockNotTopLevel)
	}
	if err := ws.AddBlockTree(a); err != nil {
		t.Fatalf("AddBlockTree() error = %v", err)
	}
	a.NextConnection().Disconnect()
	if err := ws.AddBlockTree(b); !errors.Is(err, ErrDuplicateBlock) {
		t.Errorf("AddBlockTree(duplicate) error = %v, want %v", err, ErrDuplicateBlock)
	}
}

func TestRemoveBlockTree(t *testing.T) {
	ws := NewWorkspace()
	l := &recordingWorkspaceListener{}
	ws.AddListener(l)

	a := stmtBlock(t, "a")
	b := stmtBlock(t, "b")
	mustConnect(t, a.NextConnection(), b.PreviousConnection())
	if err := ws.AddBlockTree(a); err != nil {
		t.Fatalf("AddBlockTree() error = %v", err)
	}

	if err := ws.RemoveBlockTree(b); !errors.Is(err, ErrBlockNotTopLevel) {
		t.Errorf("RemoveBlockTree(nested) error = %v, want %v", err, ErrBlockNotTopLevel)
	}

	if err := ws.RemoveBlockTree(a); err != nil {
		t.Fatalf("RemoveBlockTree() error = %v", err)
	}
	if ws.BlockCount() != 0 {
		t.Errorf("BlockCount() = %d, want 0", ws.BlockCount())
	}
	if len(ws.TopBlocks()) != 0 {
		t.Errorf("TopBlocks() = %v, want empty", ws.TopBlocks())
	}
	if len(l.removed) != 1 || l.removed[0] != a {
		t.Errorf("removed events = %v, want [a]", l.removed)
	}
	if a.Workspace() != nil || b.Workspace() != nil {
		t.Error("workspace back-reference not cleared")
	}

	if err := ws.RemoveBlockTree(a); !errors.Is(err, ErrBlockNotInWorkspace) {
		t.Errorf("RemoveBlockToTree(foreign) error = %v, want %v", err, ErrBlockNotInWorkspace)
	}
}

func TestTopLevelListFollowsConnections(t *testing.T) {
	ws := NewWorkspace()
	a := stmtBlock(t, "a")
	b := stmtBlock(t, "b")
	if err := ws.AddBlockTree(a); err != nil {
		t.Fatalf("AddBlockTree(a) error = %v", err)
	}
	if err := ws.AddBlockTree(b); err != nil {
		t.Fatalf("AddBlockTree(b) error = %v", err)
	}

	// Connecting b under a removes b from the top-level list.
	mustConnect(t, a.NextConnection(), b.PreviousConnection())
	if got := len(ws.TopBlocks()); got != 1 {
		t.Fatalf("len(TopBlocks()) after connect = %d, want 1", got)
	}
	if b.TopLevel() {
		t.Error("b still top-level while connected")
	}

	// Disconnecting appends b back at the end.
	a.NextConnection().Disconnect()
	top := ws.TopBlocks()
	if len(top) != 2 {
		t.Fatalf("len(TopBlocks()) after disconnect = %d, want 2", len(top))
	}
	if top[0] != a || top[1] != b {
		t.Errorf("TopBlocks() order = [%s %s], want [a b]", top[0].Name(), top[1].Name())
	}
}

func TestTopLevelExcludesAttachedShadows(t *testing.T) {
	ws := NewWorkspace()
	a := stmtBlock(t, "a")
	s := shadowStmtBlock(t, "s")
	if err := a.NextConnection().ConnectShadow(s.PreviousConnection()); err != nil {
		t.Fatalf("ConnectShadow() error = %v", err)
	}
	if err := ws.AddBlockTree(a); err != nil {
		t.Fatalf("AddBlockTree() error = %v", err)
	}

	if len(ws.TopBlocks()) != 1 {
		t.Errorf("len(TopBlocks()) = %d, want 1", len(ws.TopBlocks()))
	}
	if s.TopLevel() {
		t.Error("attached shadow reported top-level")
	}
	if !ws.ContainsBlock(s) {
		t.Error("attached shadow not registered in workspace")
	}
}
