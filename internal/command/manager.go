package command

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/heliocanvas/internal/observable"
)

// MaxCommands is the default capacity of each history stack.
const MaxCommands = 100

// Property names published by Manager.
type Property string

const (
	// PropCanUndo is published with a bool after every stack change.
	PropCanUndo Property = "canUndo"
	// PropCanRedo is published with a bool after every stack change.
	PropCanRedo Property = "canRedo"
)

// Signal names notified by Manager.
type Signal string

const (
	SignalExecuted Signal = "executed"
	SignalUndone   Signal = "undone"
	SignalRedone   Signal = "redone"
	SignalCleared  Signal = "cleared"
	SignalFailed   Signal = "failed"
	SignalTrimmed  Signal = "trimmed"
)

// entry wraps a command with metadata.
type entry struct {
	command   Command
	timestamp time.Time
	seq       uint64
}

// Info describes a history entry for display.
type Info struct {
	Description string
	Timestamp   time.Time
}

// Manager executes commands and maintains bounded undo/redo history.
//
// Execute, Undo and Redo are serialized: each call holds the manager for the
// whole duration of the command body, so a slow command delays the next call
// instead of interleaving with it. Property and signal callbacks run after the
// manager is released. A command must not call back into its own manager.
type Manager struct {
	observable.Observable[Property, Signal]

	mu sync.Mutex

	undoStack []*entry
	redoStack []*entry

	canUndo bool
	canRedo bool

	group *group

	// seq numbers recorded entries. evictions counts the times entries left
	// the bottom of the undo stack without being undone.
	seq       uint64
	evictions uint64

	maxCommands int
	logger      zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxCommands sets the capacity of each stack. Values <= 0 are ignored.
func WithMaxCommands(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxCommands = n
		}
	}
}

// WithLogger sets the logger used for history events.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new command manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		maxCommands: MaxCommands,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Execute runs cmd and records it on the undo stack, clearing the redo stack.
// If cmd fails, nothing is recorded and the error is returned.
func (m *Manager) Execute(ctx context.Context, cmd Command) error {
	if cmd == nil {
		panic("command: Execute called with nil command")
	}

	m.mu.Lock()
	if err := m.callLocked(func() error { return cmd.Execute(ctx) }); err != nil {
		m.mu.Unlock()
		m.logger.Warn().Err(err).Str("command", cmd.Description()).Msg("execute failed")
		m.Notify(SignalFailed)
		return fmt.Errorf("execute %q: %w", cmd.Description(), err)
	}

	if m.group != nil {
		m.group.commands = append(m.group.commands, cmd)
		name := m.group.name
		m.mu.Unlock()
		m.logger.Debug().Str("command", cmd.Description()).Str("group", name).Msg("executed in group")
		return nil
	}

	m.recordLocked(cmd)
	canUndo, canRedo := m.syncFlagsLocked()
	depth := len(m.undoStack)
	m.mu.Unlock()

	m.logger.Debug().Str("command", cmd.Description()).Int("undo_depth", depth).Msg("executed")
	m.publish(canUndo, canRedo)
	m.Notify(SignalExecuted)
	return nil
}

// Undo reverses the most recent command and moves it to the redo stack.
// Undo with an empty undo stack does nothing. If the command's Undo fails,
// the command stays on the undo stack and the error is returned.
func (m *Manager) Undo(ctx context.Context) error {
	m.mu.Lock()
	if m.group != nil {
		m.mu.Unlock()
		return ErrGroupOpen
	}
	if len(m.undoStack) == 0 {
		m.mu.Unlock()
		return nil
	}

	e := m.undoStack[len(m.undoStack)-1]
	if err := m.callLocked(func() error { return e.command.Undo(ctx) }); err != nil {
		m.mu.Unlock()
		m.logger.Warn().Err(err).Str("command", e.command.Description()).Msg("undo failed")
		m.Notify(SignalFailed)
		return fmt.Errorf("undo %q: %w", e.command.Description(), err)
	}

	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	m.redoStack = m.pushBounded(m.redoStack, e)
	canUndo, canRedo := m.syncFlagsLocked()
	m.mu.Unlock()

	m.logger.Debug().Str("command", e.command.Description()).Msg("undone")
	m.publish(canUndo, canRedo)
	m.Notify(SignalUndone)
	return nil
}

// Redo re-executes the most recently undone command and moves it back to the
// undo stack. Redo with an empty redo stack does nothing. If the command's
// Execute fails, the command stays on the redo stack and the error is returned.
func (m *Manager) Redo(ctx context.Context) error {
	m.mu.Lock()
	if m.group != nil {
		m.mu.Unlock()
		return ErrGroupOpen
	}
	if len(m.redoStack) == 0 {
		m.mu.Unlock()
		return nil
	}

	e := m.redoStack[len(m.redoStack)-1]
	if err := m.callLocked(func() error { return e.command.Execute(ctx) }); err != nil {
		m.mu.Unlock()
		m.logger.Warn().Err(err).Str("command", e.command.Description()).Msg("redo failed")
		m.Notify(SignalFailed)
		return fmt.Errorf("redo %q: %w", e.command.Description(), err)
	}

	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	m.pushUndoLocked(e)
	canUndo, canRedo := m.syncFlagsLocked()
	m.mu.Unlock()

	m.logger.Debug().Str("command", e.command.Description()).Msg("redone")
	m.publish(canUndo, canRedo)
	m.Notify(SignalRedone)
	return nil
}

// Clear removes all undo/redo history and discards an open group without
// rolling it back.
func (m *Manager) Clear() {
	m.mu.Lock()
	changed := len(m.undoStack) > 0 || len(m.redoStack) > 0
	if len(m.undoStack) > 0 {
		m.evictions++
	}
	m.undoStack = nil
	m.redoStack = nil
	m.group = nil
	canUndo, canRedo := m.syncFlagsLocked()
	m.mu.Unlock()

	if !changed {
		return
	}
	m.logger.Debug().Msg("history cleared")
	m.publish(canUndo, canRedo)
	m.Notify(SignalCleared)
}

// SetMaxCommands changes the capacity of both stacks.
// If a stack is larger than n, its oldest entries are removed and
// SignalTrimmed is notified.
func (m *Manager) SetMaxCommands(n int) {
	if n <= 0 {
		n = MaxCommands
	}

	m.mu.Lock()
	m.maxCommands = n
	changed := false
	if excess := len(m.undoStack) - n; excess > 0 {
		clear(m.undoStack[:excess])
		m.undoStack = m.undoStack[excess:]
		m.evictions++
		changed = true
	}
	if excess := len(m.redoStack) - n; excess > 0 {
		clear(m.redoStack[:excess])
		m.redoStack = m.redoStack[excess:]
		changed = true
	}
	canUndo, canRedo := m.syncFlagsLocked()
	m.mu.Unlock()

	if changed {
		m.logger.Debug().Int("max_commands", n).Msg("history trimmed")
		m.publish(canUndo, canRedo)
		m.Notify(SignalTrimmed)
	}
}

// MaxCommands returns the capacity of each stack.
func (m *Manager) MaxCommands() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxCommands
}

// CanUndo returns true if undo is available.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canUndo
}

// CanRedo returns true if redo is available.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canRedo
}

// UndoCount returns the number of commands on the undo stack.
func (m *Manager) UndoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undoStack)
}

// RedoCount returns the number of commands on the redo stack.
func (m *Manager) RedoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redoStack)
}

// UndoInfo returns the undo stack, oldest first.
func (m *Manager) UndoInfo() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	return infoOf(m.undoStack)
}

// RedoInfo returns the redo stack, oldest first.
func (m *Manager) RedoInfo() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	return infoOf(m.redoStack)
}

// PeekUndo returns the command Undo would reverse next.
func (m *Manager) PeekUndo() (Info, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.undoStack) == 0 {
		return Info{}, false
	}
	return infoOf(m.undoStack[len(m.undoStack)-1:])[0], true
}

// PeekRedo returns the command Redo would re-execute next.
func (m *Manager) PeekRedo() (Info, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.redoStack) == 0 {
		return Info{}, false
	}
	return infoOf(m.redoStack[len(m.redoStack)-1:])[0], true
}

// recordLocked pushes cmd onto the undo stack and invalidates the redo stack.
func (m *Manager) recordLocked(cmd Command) {
	m.seq++
	m.pushUndoLocked(&entry{
		command:   cmd,
		timestamp: time.Now(),
		seq:       m.seq,
	})
	m.redoStack = nil
}

// pushUndoLocked pushes e onto the undo stack, counting an eviction if the
// stack was full.
func (m *Manager) pushUndoLocked(e *entry) {
	n := len(m.undoStack) + 1
	m.undoStack = m.pushBounded(m.undoStack, e)
	if len(m.undoStack) < n {
		m.evictions++
	}
}

// callLocked runs fn while the caller holds m.mu. If fn panics the mutex is
// released before the panic continues, leaving the stacks as they were.
func (m *Manager) callLocked(fn func() error) error {
	defer func() {
		if r := recover(); r != nil {
			m.mu.Unlock()
			panic(r)
		}
	}()
	return fn()
}

// pushBounded appends e and drops the oldest entry when over capacity.
func (m *Manager) pushBounded(stack []*entry, e *entry) []*entry {
	stack = append(stack, e)
	if excess := len(stack) - m.maxCommands; excess > 0 {
		clear(stack[:excess])
		stack = stack[excess:]
	}
	return stack
}

// syncFlagsLocked re-derives canUndo and canRedo from the stacks.
func (m *Manager) syncFlagsLocked() (canUndo, canRedo bool) {
	m.canUndo = len(m.undoStack) > 0
	m.canRedo = len(m.redoStack) > 0
	return m.canUndo, m.canRedo
}

func (m *Manager) publish(canUndo, canRedo bool) {
	m.Publish(PropCanUndo, canUndo)
	m.Publish(PropCanRedo, canRedo)
}

func infoOf(stack []*entry) []Info {
	result := make([]Info, len(stack))
	for i, e := range stack {
		result[i] = Info{
			Description: e.command.Description(),
			Timestamp:   e.timestamp,
		}
	}
	return result
}
