package model

import "errors"

var (
	// ErrNilTarget is returned by [Connection.Connect] and
	// [Connection.ConnectShadow] when the target connection is nil.
	// Use [Connection.Disconnect] or [Connection.DisconnectShadow] to clear
	// an existing target instead.
	ErrNilTarget = errors.New("target connection must not be nil")

	// ErrSelfConnection is returned when both connections belong to the
	// same block. A block can never connect to itself.
	ErrSelfConnection = errors.New("block cannot connect to itself")

	// ErrWrongKind is returned when the two connection kinds are not
	// complementary. Previous pairs only with next, output only with input.
	ErrWrongKind = errors.New("connection kinds are not complementary")

	// ErrMustDisconnect is returned by [Connection.Connect] when either side
	// already has a target. Callers must disconnect explicitly first; an
	// implicit disconnect would silently detach a chain the caller may not
	// know about.
	ErrMustDisconnect = errors.New("connection already has a target")

	// ErrTypeMismatch is returned by [Connection.Connect] when both sides
	// declare type checks and the two lists share no entry.
	ErrTypeMismatch = errors.New("connection type checks do not match")

	// ErrShadowMismatch is returned by [Connection.Connect] when exactly one
	// of the two blocks is a shadow. Shadow blocks link to each other with
	// ordinary connections, but a shadow chain attaches to a real block only
	// through [Connection.ConnectShadow].
	ErrShadowMismatch = errors.New("cannot connect a shadow block to a real block")

	// ErrNotShadowBlock is returned by [Connection.ConnectShadow] when the
	// target's source block is not a shadow block.
	ErrNotShadowBlock = errors.New("shadow target must belong to a shadow block")

	// ErrOutputAndPrevious is returned by [BlockBuilder.Build] when the
	// builder requests both an output and a previous connection. A block is
	// either an expression (output) or a statement (previous/next), never both.
	ErrOutputAndPrevious = errors.New("block cannot have both output and previous connections")

	// ErrDuplicateBlock is returned by [Workspace.AddBlockTree] when a block
	// with the same ID is already registered in the workspace.
	ErrDuplicateBlock = errors.New("block ID already exists in workspace")

	// ErrBlockNotInWorkspace is returned by [Workspace.RemoveBlockTree] when
	// the block is not registered in the workspace.
	ErrBlockNotInWorkspace = errors.New("block does not belong to this workspace")

	// ErrBlockNotTopLevel is returned by [Workspace.RemoveBlockTree] when the
	// block is still connected to a parent. Disconnect it first; removing a
	// nested block directly would corrupt the parent's chain.
	ErrBlockNotTopLevel = errors.New("block is still connected to a parent")
)
