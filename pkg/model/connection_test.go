package model

import (
	"errors"
	"testing"

	"github.com/matzehuels/snapstack/pkg/geometry"
)

func stmtBlock(t *testing.T, name string) *Block {
	t.Helper()
	return NewBlockBuilder(name).
		WithPreviousConnection().
		WithNextConnection().
		MustBuild()
}

func exprBlock(t *testing.T, name string, checks ...string) *Block {
	t.Helper()
	return NewBlockBuilder(name).WithOutputConnection(checks...).MustBuild()
}

func shadowStmtBlock(t *testing.T, name string) *Block {
	t.Helper()
	return NewBlockBuilder(name).
		WithPreviousConnection().
		WithNextConnection().
		WithShadow().
		MustBuild()
}

func TestConnectionKindOpposite(t *testing.T) {
	tests := []struct {
		kind ConnectionKind
		want ConnectionKind
	}{
		{PreviousConnection, NextConnection},
		{NextConnection, PreviousConnection},
		{InputConnection, OutputConnection},
		{OutputConnection, InputConnection},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.Opposite(); got != tt.want {
				t.Errorf("Opposite() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConnectionKindIsSuperior(t *testing.T) {
	if PreviousConnection.IsSuperior() || OutputConnection.IsSuperior() {
		t.Error("previous/output must be inferior")
	}
	if !NextConnection.IsSuperior() || !InputConnection.IsSuperior() {
		t.Error("next/input must be superior")
	}
}

func TestConnectRoundTrip(t *testing.T) {
	a := stmtBlock(t, "a")
	b := stmtBlock(t, "b")

	if err := a.NextConnection().Connect(b.PreviousConnection()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if a.NextBlock() != b {
		t.Errorf("NextBlock() = %v, want b", a.NextBlock())
	}
	if b.PreviousBlock() != a {
		t.Errorf("PreviousBlock() = %v, want a", b.PreviousBlock())
	}

	a.NextConnection().Disconnect()
	if a.NextConnection().Connected() {
		t.Error("a.next still connected after Disconnect")
	}
	if b.PreviousConnection().Connected() {
		t.Error("b.previous still connected after Disconnect")
	}
}

func TestConnectErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) (*Connection, *Connection)
		want  error
	}{
		{
			name: "NilTarget",
			setup: func(t *testing.T) (*Connection, *Connection) {
				return stmtBlock(t, "a").NextConnection(), nil
			},
			want: ErrNilTarget,
		},
		{
			name: "SelfConnection",
			setup: func(t *testing.T) (*Connection, *Connection) {
				a := stmtBlock(t, "a")
				return a.NextConnection(), a.PreviousConnection()
			},
			want: ErrSelfConnection,
		},
		{
			name: "WrongKind",
			setup: func(t *testing.T) (*Connection, *Connection) {
				a := stmtBlock(t, "a")
				b := stmtBlock(t, "b")
				return a.NextConnection(), b.NextConnection()
			},
			want: ErrWrongKind,
		},
		{
			name: "AlreadyConnected",
			setup: func(t *testing.T) (*Connection, *Connection) {
				a := stmtBlock(t, "a")
				b := stmtBlock(t, "b")
				c := stmtBlock(t, "c")
				if err := a.NextConnection().Connect(b.PreviousConnection()); err != nil {
					t.Fatalf("setup Connect() error = %v", err)
				}
				return a.NextConnection(), c.PreviousConnection()
			},
			want: ErrMustDisconnect,
		},
		{
			name: "TypeMismatch",
			setup: func(t *testing.T) (*Connection, *Connection) {
				holder := NewBlockBuilder("holder").
					WithInput(NewValueInput("VALUE", "Number")).
					MustBuild()
				in, _ := holder.InputByName("VALUE")
				return in.Connection(), exprBlock(t, "text", "String").OutputConnection()
			},
			want: ErrTypeMismatch,
		},
		{
			name: "ShadowToReal",
			setup: func(t *testing.T) (*Connection, *Connection) {
				a := stmtBlock(t, "a")
				s := shadowStmtBlock(t, "s")
				return a.NextConnection(), s.PreviousConnection()
			},
			want: ErrShadowMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, target := tt.setup(t)
			err := conn.Connect(target)
			if !errors.Is(err, tt.want) {
				t.Errorf("Connect() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConnectTypeChecksOverlap(t *testing.T) {
	holder := NewBlockBuilder("holder").
		WithInput(NewValueInput("VALUE", "Number", "String")).
		MustBuild()
	in, _ := holder.InputByName("VALUE")

	if err := in.Connection().Connect(exprBlock(t, "num", "Number").OutputConnection()); err != nil {
		t.Errorf("Connect() with overlapping checks error = %v", err)
	}
}

func TestConnectShadowBetweenShadows(t *testing.T) {
	// Shadow chains link internally through ordinary connections.
	s1 := shadowStmtBlock(t, "s1")
	s2 := shadowStmtBlock(t, "s2")

	if err := s1.NextConnection().Connect(s2.PreviousConnection()); err != nil {
		t.Errorf("shadow-to-shadow Connect() error = %v", err)
	}
}

func TestConnectShadow(t *testing.T) {
	a := stmtBlock(t, "a")
	s := shadowStmtBlock(t, "s")

	if err := a.NextConnection().ConnectShadow(s.PreviousConnection()); err != nil {
		t.Fatalf("ConnectShadow() error = %v", err)
	}
	if a.NextConnection().ShadowTarget() != s.PreviousConnection() {
		t.Error("shadow target not set on superior side")
	}

	// A real connection coexists with the dormant shadow.
	b := stmtBlock(t, "b")
	if err := a.NextConnection().Connect(b.PreviousConnection()); err != nil {
		t.Fatalf("Connect() with shadow attached error = %v", err)
	}
	if !a.NextConnection().ShadowConnected() {
		t.Error("shadow target lost after real connect")
	}

	a.NextConnection().DisconnectShadow()
	if a.NextConnection().ShadowConnected() || s.PreviousConnection().ShadowConnected() {
		t.Error("shadow target still set after DisconnectShadow")
	}
}

func TestConnectShadowRejectsRealBlock(t *testing.T) {
	a := stmtBlock(t, "a")
	b := stmtBlock(t, "b")

	if err := a.NextConnection().ConnectShadow(b.PreviousConnection()); !errors.Is(err, ErrNotShadowBlock) {
		t.Errorf("ConnectShadow() error = %v, want %v", err, ErrNotShadowBlock)
	}
}

type recordingTargetListener struct {
	targetEvents []*Connection
	oldTargets   []*Connection
	shadowEvents []*Connection
}

func (r *recordingTargetListener) ConnectionTargetChanged(c *Connection, old *Connection) {
	r.targetEvents = append(r.targetEvents, c)
	r.oldTargets = append(r.oldTargets, old)
}

func (r *recordingTargetListener) ConnectionShadowChanged(c *Connection, old *Connection) {
	r.shadowEvents = append(r.shadowEvents, c)
}

func TestConnectNotifiesBothEndpoints(t *testing.T) {
	a := stmtBlock(t, "a")
	b := stmtBlock(t, "b")

	la := &recordingTargetListener{}
	lb := &recordingTargetListener{}
	a.NextConnection().SetTargetListener(la)
	b.PreviousConnection().SetTargetListener(lb)

	if err := a.NextConnection().Connect(b.PreviousConnection()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if len(la.targetEvents) != 1 || len(lb.targetEvents) != 1 {
		t.Fatalf("events = %d/%d, want 1/1", len(la.targetEvents), len(lb.targetEvents))
	}
	if la.oldTargets[0] != nil {
		t.Errorf("oldTarget on connect = %v, want nil", la.oldTargets[0])
	}

	a.NextConnection().Disconnect()
	if len(la.targetEvents) != 2 || len(lb.targetEvents) != 2 {
		t.Fatalf("events after disconnect = %d/%d, want 2/2", len(la.targetEvents), len(lb.targetEvents))
	}
	if la.oldTargets[1] != b.PreviousConnection() {
		t.Errorf("oldTarget on disconnect = %v, want b.previous", la.oldTargets[1])
	}
}

type recordingPositionListener struct {
	events int
}

func (r *recordingPositionListener) ConnectionPositionChanged(*Connection) { r.events++ }

func TestMoveToPoint(t *testing.T) {
	a := stmtBlock(t, "a")
	conn := a.PreviousConnection()

	l := &recordingPositionListener{}
	conn.AddPositionListener(l)

	conn.MoveToPoint(geometry.Pt(10, 20))
	if conn.Position() != geometry.Pt(10, 20) {
		t.Errorf("Position() = %v, want (10, 20)", conn.Position())
	}
	if l.events != 1 {
		t.Errorf("events = %d, want 1", l.events)
	}

	// Moving to the same point does not notify.
	conn.MoveToPoint(geometry.Pt(10, 20))
	if l.events != 1 {
		t.Errorf("events after no-op move = %d, want 1", l.events)
	}

	conn.RemovePositionListener(l)
	conn.MoveToPoint(geometry.Pt(30, 40))
	if l.events != 1 {
		t.Errorf("events after removal = %d, want 1", l.events)
	}
}
