package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/snapstack/pkg/geometry"
	"github.com/matzehuels/snapstack/pkg/model"
)

// captionInput builds the dummy input a named block carries as its label.
func captionInput(text string) *model.Input {
	in := model.NewDummyInput("CAPTION")
	in.AppendField(model.NewLabelField("caption", text))
	return in
}

// newTestPlayModel builds a playground over two detached statement blocks.
func newTestPlayModel(t *testing.T) (playModel, *model.Block, *model.Block) {
	t.Helper()
	ws := model.NewWorkspace()

	alpha := model.NewBlockBuilder("alpha").
		WithPreviousConnection().
		WithNextConnection().
		WithInput(captionInput("alpha")).
		MustBuild()
	beta := model.NewBlockBuilder("beta").
		WithPreviousConnection().
		WithNextConnection().
		WithInput(captionInput("beta")).
		WithPosition(geometry.Pt(400, 200)).
		MustBuild()

	if err := ws.AddBlockTree(alpha); err != nil {
		t.Fatalf("add alpha: %v", err)
	}
	if err := ws.AddBlockTree(beta); err != nil {
		t.Fatalf("add beta: %v", err)
	}

	coord := buildTestCoordinator(t, ws)
	return newPlayModel(coord), alpha, beta
}

func keyPress(t *testing.T, m playModel, key tea.KeyType) playModel {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: key})
	got, ok := next.(playModel)
	if !ok {
		t.Fatalf("Update returned %T, want playModel", next)
	}
	return got
}

func TestPlayTabCyclesSelection(t *testing.T) {
	m, _, _ := newTestPlayModel(t)
	if len(m.groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(m.groups))
	}
	if m.cursor != 0 {
		t.Fatalf("initial cursor = %d, want 0", m.cursor)
	}

	m = keyPress(t, m, tea.KeyTab)
	if m.cursor != 1 {
		t.Errorf("cursor after tab = %d, want 1", m.cursor)
	}
	m = keyPress(t, m, tea.KeyTab)
	if m.cursor != 0 {
		t.Errorf("cursor after second tab = %d, want 0 (wrap)", m.cursor)
	}
	m = keyPress(t, m, tea.KeyShiftTab)
	if m.cursor != 1 {
		t.Errorf("cursor after shift+tab = %d, want 1 (wrap back)", m.cursor)
	}
}

func TestPlayPickUpAndCancel(t *testing.T) {
	m, _, _ := newTestPlayModel(t)

	m = keyPress(t, m, tea.KeyEnter)
	if !m.carrying {
		t.Fatal("expected carry after enter")
	}
	if g := m.selectedGroup(); g == nil || !g.Dragging() {
		t.Error("selected group should be dragging while carried")
	}

	m = keyPress(t, m, tea.KeyEscape)
	if m.carrying {
		t.Error("esc should cancel the carry")
	}
	if g := m.selectedGroup(); g != nil && g.Dragging() {
		t.Error("group should not be dragging after cancel")
	}
}

func TestPlayMoveIgnoredWithoutCarry(t *testing.T) {
	m, _, _ := newTestPlayModel(t)
	before := m.groups[0].RelativePosition()

	m = keyPress(t, m, tea.KeyRight)
	if m.moves != 0 {
		t.Errorf("moves = %d, want 0", m.moves)
	}
	if got := m.groups[0].RelativePosition(); got != before {
		t.Errorf("group moved to %v without a carry", got)
	}
}

func TestPlayMoveCarriedGroup(t *testing.T) {
	m, _, _ := newTestPlayModel(t)

	m = keyPress(t, m, tea.KeyEnter)
	start := m.selectedGroup().RelativePosition()

	m = keyPress(t, m, tea.KeyRight)
	if m.moves != 1 {
		t.Fatalf("moves = %d, want 1", m.moves)
	}
	want := start.Add(geometry.Pt(moveStep, 0))
	if got := m.selectedGroup().RelativePosition(); got != want {
		t.Errorf("group at %v, want %v", got, want)
	}

	m = keyPress(t, m, tea.KeyDown)
	want = want.Add(geometry.Pt(0, moveStep))
	if got := m.selectedGroup().RelativePosition(); got != want {
		t.Errorf("group at %v, want %v", got, want)
	}
}

func TestPlayDropConnectsSnapCandidate(t *testing.T) {
	m, alpha, beta := newTestPlayModel(t)

	// Park beta's previous connection a few units from alpha's next so the
	// snap radius query finds the pair.
	target := alpha.NextConnection().Position().Add(geometry.Pt(4, 3))
	if err := m.coord.MoveBlockGroup(beta, target); err != nil {
		t.Fatalf("move beta: %v", err)
	}

	m = keyPress(t, m, tea.KeyTab) // select beta
	m = keyPress(t, m, tea.KeyEnter)
	if !m.carrying {
		t.Fatal("expected carry after enter")
	}
	if m.candidate == nil {
		t.Fatal("expected a snap candidate within radius")
	}

	m = keyPress(t, m, tea.KeyEnter) // drop and connect
	if m.connects != 1 {
		t.Fatalf("connects = %d, want 1", m.connects)
	}
	if alpha.NextBlock() != beta {
		t.Error("beta should follow alpha after the drop")
	}
	if len(m.groups) != 1 {
		t.Errorf("groups = %d, want 1 after merge", len(m.groups))
	}
	if !strings.Contains(m.status, "connected") {
		t.Errorf("status = %q, want a connected message", m.status)
	}
}

func TestPlayViewRendersCanvas(t *testing.T) {
	m, _, _ := newTestPlayModel(t)

	view := m.View()
	if !strings.Contains(view, "alpha") {
		t.Errorf("view missing block name:\n%s", view)
	}
	if !strings.Contains(view, "Playground") {
		t.Errorf("view missing title:\n%s", view)
	}
}
