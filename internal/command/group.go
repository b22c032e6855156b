package command

import (
	"context"
	"errors"
	"fmt"
)

// group collects the commands executed while a group is open.
type group struct {
	name     string
	commands []Command

	// marks holds len(commands) at each nested BeginGroup, innermost last.
	marks []int
}

// BeginGroup starts a command group. Commands executed until the matching
// EndGroup are recorded as a single undo unit. Nested calls are counted; only
// the outermost EndGroup closes the group.
func (m *Manager) BeginGroup(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.group != nil {
		m.group.marks = append(m.group.marks, len(m.group.commands))
		return
	}
	m.group = &group{name: name}
}

// EndGroup closes the innermost level of the open group. When the outermost
// level closes, the collected commands are pushed as one CompoundCommand.
// A group with no commands leaves the history unchanged.
func (m *Manager) EndGroup() error {
	m.mu.Lock()
	if m.group == nil {
		m.mu.Unlock()
		return ErrNoGroup
	}

	if n := len(m.group.marks); n > 0 {
		m.group.marks = m.group.marks[:n-1]
		m.mu.Unlock()
		return nil
	}

	g := m.group
	m.group = nil
	if len(g.commands) == 0 {
		m.mu.Unlock()
		return nil
	}

	m.recordLocked(NewCompoundCommand(g.name, g.commands...))
	canUndo, canRedo := m.syncFlagsLocked()
	m.mu.Unlock()

	m.logger.Debug().Str("group", g.name).Int("commands", len(g.commands)).Msg("group recorded")
	m.publish(canUndo, canRedo)
	m.Notify(SignalExecuted)
	return nil
}

// CancelGroup closes the innermost level of the open group and undoes, in
// reverse order, the commands executed since that level began. Commands
// collected by outer levels are kept.
func (m *Manager) CancelGroup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.group == nil {
		return ErrNoGroup
	}

	var cmds []Command
	if n := len(m.group.marks); n > 0 {
		mark := m.group.marks[n-1]
		m.group.marks = m.group.marks[:n-1]
		cmds = m.group.commands[mark:]
		m.group.commands = m.group.commands[:mark:mark]
	} else {
		cmds = m.group.commands
		m.group = nil
	}

	var errs []error
	for i := len(cmds) - 1; i >= 0; i-- {
		if err := cmds[i].Undo(ctx); err != nil {
			errs = append(errs, fmt.Errorf("roll back %q: %w", cmds[i].Description(), err))
		}
	}
	return errors.Join(errs...)
}

// IsGrouping returns true if a command group is open.
func (m *Manager) IsGrouping() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.group != nil
}

// Transaction runs fn inside a command group. If fn returns an error the
// group is cancelled and its commands rolled back; otherwise the group is
// recorded as one undo unit.
func (m *Manager) Transaction(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	m.BeginGroup(name)

	if err := fn(ctx); err != nil {
		if cerr := m.CancelGroup(ctx); cerr != nil {
			return errors.Join(err, cerr)
		}
		return err
	}

	return m.EndGroup()
}

// ExecuteGrouped executes multiple commands as a single undo unit.
func (m *Manager) ExecuteGrouped(ctx context.Context, name string, cmds ...Command) error {
	if len(cmds) == 0 {
		return nil
	}
	if len(cmds) == 1 {
		return m.Execute(ctx, cmds[0])
	}

	return m.Transaction(ctx, name, func(ctx context.Context) error {
		for _, cmd := range cmds {
			if err := m.Execute(ctx, cmd); err != nil {
				return err
			}
		}
		return nil
	})
}

// Checkpoint represents a point in history that can be returned to. It names
// the command on top of the undo stack when it was taken.
type Checkpoint struct {
	seq       uint64
	evictions uint64
}

// position of a checkpoint relative to the current history.
type position int

const (
	posLost    position = iota // no longer reachable
	posCurrent                 // the current state
	posBehind                  // on the undo stack under newer commands
	posAhead                   // on the redo stack
)

// Checkpoint records the current history position.
func (m *Manager) Checkpoint() Checkpoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := Checkpoint{evictions: m.evictions}
	if n := len(m.undoStack); n > 0 {
		cp.seq = m.undoStack[n-1].seq
	}
	return cp
}

func (m *Manager) locate(cp Checkpoint) position {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cp.seq == 0 {
		switch {
		case m.evictions != cp.evictions:
			return posLost
		case len(m.undoStack) == 0:
			return posCurrent
		default:
			return posBehind
		}
	}
	for i := len(m.undoStack) - 1; i >= 0; i-- {
		if m.undoStack[i].seq == cp.seq {
			if i == len(m.undoStack)-1 {
				return posCurrent
			}
			return posBehind
		}
	}
	for _, e := range m.redoStack {
		if e.seq == cp.seq {
			return posAhead
		}
	}
	return posLost
}

// UndoTo undoes every command recorded since cp. It returns
// ErrCheckpointLost if the commands needed to get back to cp were evicted or
// discarded.
func (m *Manager) UndoTo(ctx context.Context, cp Checkpoint) error {
	for {
		switch m.locate(cp) {
		case posLost:
			return ErrCheckpointLost
		case posCurrent, posAhead:
			return nil
		}
		if err := m.Undo(ctx); err != nil {
			return err
		}
	}
}

// RedoTo redoes commands until the history is back at cp. It does nothing if
// cp is at or behind the current state and returns ErrCheckpointLost if cp can
// no longer be reached.
func (m *Manager) RedoTo(ctx context.Context, cp Checkpoint) error {
	for {
		switch m.locate(cp) {
		case posLost:
			return ErrCheckpointLost
		case posCurrent, posBehind:
			return nil
		}
		if err := m.Redo(ctx); err != nil {
			return err
		}
	}
}
