package command

import "errors"

var (
	// ErrUnknownProperty is returned when a PropertyCommand is constructed for
	// a key its target does not track.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrGroupOpen is returned by Undo and Redo while a command group is open.
	ErrGroupOpen = errors.New("command group in progress")

	// ErrNoGroup is returned by EndGroup and CancelGroup when no group is open.
	ErrNoGroup = errors.New("no command group in progress")

	// ErrCheckpointLost is returned by UndoTo and RedoTo when the history no
	// longer reaches the checkpoint.
	ErrCheckpointLost = errors.New("checkpoint no longer in history")
)
