package model

import (
	"slices"

	"github.com/google/uuid"
	"github.com/matzehuels/snapstack/pkg/geometry"
)

// ConnectionKind identifies one of the four attachment-point kinds on a block.
// Kinds pair up by strict complementary rules: a previous connection may only
// pair with a next connection, and an output plug may only pair with an input
// socket.
type ConnectionKind int

const (
	// PreviousConnection sits on top of a statement block and plugs into the
	// next connection of the block above it.
	PreviousConnection ConnectionKind = iota
	// NextConnection sits on the bottom of a statement block and accepts the
	// previous connection of the block below it.
	NextConnection
	// InputConnection is the socket of a value input slot and accepts an
	// output connection.
	InputConnection
	// OutputConnection is the plug on the left of an expression block and
	// plugs into an input connection.
	OutputConnection
)

// String returns the kind's name for logs and serialized documents.
func (k ConnectionKind) String() string {
	switch k {
	case PreviousConnection:
		return "previous"
	case NextConnection:
		return "next"
	case InputConnection:
		return "input"
	case OutputConnection:
		return "output"
	}
	return "unknown"
}

// Opposite returns the complementary kind: previous/next, input/output.
func (k ConnectionKind) Opposite() ConnectionKind {
	switch k {
	case PreviousConnection:
		return NextConnection
	case NextConnection:
		return PreviousConnection
	case InputConnection:
		return OutputConnection
	default:
		return InputConnection
	}
}

// IsSuperior reports whether a connection of this kind sits on the parent
// side of a link. Next and input connections are superior: the block that
// owns them becomes the structural parent. Previous and output connections
// are inferior.
func (k ConnectionKind) IsSuperior() bool {
	return k == NextConnection || k == InputConnection
}

// ConnectionTargetListener observes target and shadow-target changes on a
// connection. Both endpoints of a link are notified after every change, each
// with its own previous target, so a listener registered on either side sees
// the full lifecycle.
type ConnectionTargetListener interface {
	// ConnectionTargetChanged fires after the connection's target changed.
	// oldTarget is nil when the connection was previously unoccupied.
	ConnectionTargetChanged(c *Connection, oldTarget *Connection)

	// ConnectionShadowChanged fires after the connection's shadow target
	// changed. oldShadow is nil when no shadow was attached before.
	ConnectionShadowChanged(c *Connection, oldShadow *Connection)
}

// ConnectionPositionListener observes workspace-position updates on a
// connection, delivered by [Connection.MoveToPoint].
type ConnectionPositionListener interface {
	ConnectionPositionChanged(c *Connection)
}

// Connection is a typed attachment point on a block. It holds at most one
// real target and at most one shadow target at a time; both may be set
// simultaneously, in which case the shadow is dormant until the real target
// disconnects.
//
// The workspace position is written by the layout layer after each geometry
// pass and read by the spatial connection index through position listeners.
//
// Connections are created by [BlockBuilder.Build] and by the input
// constructors; the zero value is not usable.
type Connection struct {
	id          string
	kind        ConnectionKind
	sourceBlock *Block
	sourceInput *Input
	typeChecks  []string

	position     geometry.Point
	target       *Connection
	shadowTarget *Connection

	targetListener    ConnectionTargetListener
	positionListeners []ConnectionPositionListener
}

func newConnection(kind ConnectionKind, typeChecks []string) *Connection {
	return &Connection{
		id:         uuid.NewString(),
		kind:       kind,
		typeChecks: slices.Clone(typeChecks),
	}
}

// ID returns the connection's stable unique identifier.
func (c *Connection) ID() string { return c.id }

// Kind returns the connection's kind.
func (c *Connection) Kind() ConnectionKind { return c.kind }

// SourceBlock returns the block this connection belongs to.
func (c *Connection) SourceBlock() *Block { return c.sourceBlock }

// SourceInput returns the value input this connection belongs to, or nil for
// previous/next/output connections.
func (c *Connection) SourceInput() *Input { return c.sourceInput }

// TypeChecks returns the connection's declared type-check list. An empty
// list accepts anything.
func (c *Connection) TypeChecks() []string { return slices.Clone(c.typeChecks) }

// Position returns the connection's current workspace position.
func (c *Connection) Position() geometry.Point { return c.position }

// Target returns the connected counterpart, or nil.
func (c *Connection) Target() *Connection { return c.target }

// ShadowTarget returns the attached shadow counterpart, or nil.
func (c *Connection) ShadowTarget() *Connection { return c.shadowTarget }

// Connected reports whether the connection has a real target.
func (c *Connection) Connected() bool { return c.target != nil }

// ShadowConnected reports whether the connection has a shadow target.
func (c *Connection) ShadowConnected() bool { return c.shadowTarget != nil }

// IsSuperior reports whether this connection sits on the parent side of a
// link. See [ConnectionKind.IsSuperior].
func (c *Connection) IsSuperior() bool { return c.kind.IsSuperior() }

// SetTargetListener installs the single target listener. The layout
// coordinator registers itself here when it starts tracking the connection;
// passing nil removes the listener.
func (c *Connection) SetTargetListener(l ConnectionTargetListener) { c.targetListener = l }

// AddPositionListener registers a position listener. Adding the same
// listener twice is a no-op.
func (c *Connection) AddPositionListener(l ConnectionPositionListener) {
	if slices.Contains(c.positionListeners, l) {
		return
	}
	c.positionListeners = append(c.positionListeners, l)
}

// RemovePositionListener removes a previously added position listener.
func (c *Connection) RemovePositionListener(l ConnectionPositionListener) {
	c.positionListeners = slices.DeleteFunc(c.positionListeners,
		func(x ConnectionPositionListener) bool { return x == l })
}

// MoveToPoint updates the connection's workspace position and notifies
// position listeners. Moving to the current position is a no-op.
func (c *Connection) MoveToPoint(p geometry.Point) {
	if c.position == p {
		return
	}
	c.position = p
	for _, l := range c.positionListeners {
		l.ConnectionPositionChanged(c)
	}
}

// Compatible reports whether a and b could ever form a link: complementary
// kinds, different source blocks, matching shadow parity, and overlapping
// type checks. Unlike [Connection.CheckConnect] it ignores current
// occupancy, so it answers "could these pair after disconnecting" rather
// than "can they connect right now".
func Compatible(a, b *Connection) bool {
	if a == nil || b == nil {
		return false
	}
	if a.sourceBlock == b.sourceBlock {
		return false
	}
	if b.kind != a.kind.Opposite() {
		return false
	}
	if !typeChecksMatch(a.typeChecks, b.typeChecks) {
		return false
	}
	if a.sourceBlock != nil && b.sourceBlock != nil &&
		a.sourceBlock.shadow != b.sourceBlock.shadow {
		return false
	}
	return true
}

// CheckConnect reports whether Connect(target) would succeed, returning the
// same error Connect would return and nil otherwise. It never mutates either
// connection.
func (c *Connection) CheckConnect(target *Connection) error {
	if target == nil {
		return ErrNilTarget
	}
	if target.sourceBlock == c.sourceBlock {
		return ErrSelfConnection
	}
	if target.kind != c.kind.Opposite() {
		return ErrWrongKind
	}
	if c.target != nil || target.target != nil {
		return ErrMustDisconnect
	}
	if !typeChecksMatch(c.typeChecks, target.typeChecks) {
		return ErrTypeMismatch
	}
	if c.sourceBlock != nil && target.sourceBlock != nil &&
		c.sourceBlock.shadow != target.sourceBlock.shadow {
		return ErrShadowMismatch
	}
	return nil
}

// Connect links this connection to target and target back to this
// connection, then notifies both endpoints' target listeners and refreshes
// top-level bookkeeping on both blocks.
//
// Preconditions (checked before any mutation): target is non-nil, belongs to
// a different block, has the complementary kind, both sides are unoccupied,
// type checks overlap, and the two blocks are either both shadows or both
// real. Violations return the matching sentinel error from this package and
// leave both connections untouched.
func (c *Connection) Connect(target *Connection) error {
	if err := c.CheckConnect(target); err != nil {
		return err
	}
	c.target = target
	target.target = c
	c.notifyTargetChanged(nil)
	target.notifyTargetChanged(nil)
	c.refreshTopLevel()
	target.refreshTopLevel()
	return nil
}

// Disconnect clears the connection's real target on both sides and notifies
// both endpoints. Disconnecting an unoccupied connection is a no-op.
func (c *Connection) Disconnect() {
	target := c.target
	if target == nil {
		return
	}
	c.target = nil
	target.target = nil
	c.notifyTargetChanged(target)
	target.notifyTargetChanged(c)
	c.refreshTopLevel()
	target.refreshTopLevel()
}

// CheckConnectShadow reports whether ConnectShadow(target) would succeed.
// It never mutates either connection.
func (c *Connection) CheckConnectShadow(target *Connection) error {
	if target == nil {
		return ErrNilTarget
	}
	if target.sourceBlock == c.sourceBlock {
		return ErrSelfConnection
	}
	if target.kind != c.kind.Opposite() {
		return ErrWrongKind
	}
	if target.sourceBlock == nil || !target.sourceBlock.shadow {
		return ErrNotShadowBlock
	}
	if c.shadowTarget != nil || target.shadowTarget != nil {
		return ErrMustDisconnect
	}
	if !typeChecksMatch(c.typeChecks, target.typeChecks) {
		return ErrTypeMismatch
	}
	return nil
}

// ConnectShadow attaches a shadow counterpart. The target must belong to a
// shadow block; the link coexists with a real target, staying dormant while
// the real target is present. Both endpoints' listeners are notified.
func (c *Connection) ConnectShadow(target *Connection) error {
	if err := c.CheckConnectShadow(target); err != nil {
		return err
	}
	c.shadowTarget = target
	target.shadowTarget = c
	c.notifyShadowChanged(nil)
	target.notifyShadowChanged(nil)
	c.refreshTopLevel()
	target.refreshTopLevel()
	return nil
}

// DisconnectShadow clears the shadow target on both sides and notifies both
// endpoints. A no-op when no shadow is attached.
func (c *Connection) DisconnectShadow() {
	target := c.shadowTarget
	if target == nil {
		return
	}
	c.shadowTarget = nil
	target.shadowTarget = nil
	c.notifyShadowChanged(target)
	target.notifyShadowChanged(c)
	c.refreshTopLevel()
	target.refreshTopLevel()
}

func (c *Connection) notifyTargetChanged(oldTarget *Connection) {
	if c.targetListener != nil {
		c.targetListener.ConnectionTargetChanged(c, oldTarget)
	}
}

func (c *Connection) notifyShadowChanged(oldShadow *Connection) {
	if c.targetListener != nil {
		c.targetListener.ConnectionShadowChanged(c, oldShadow)
	}
}

func (c *Connection) refreshTopLevel() {
	if c.sourceBlock != nil && c.sourceBlock.workspace != nil {
		c.sourceBlock.workspace.refreshTopLevel(c.sourceBlock)
	}
}

// typeChecksMatch implements the standard compatibility rule: an empty list
// on either side accepts anything; otherwise the lists must share at least
// one entry.
func typeChecksMatch(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	for _, t := range a {
		if slices.Contains(b, t) {
			return true
		}
	}
	return false
}
