package command

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dshills/heliocanvas/internal/observable"
)

// record is a plain keyed target used to exercise PropertyCommand.
type record struct {
	values map[string]any
	writes int
}

func newRecord(kv ...any) *record {
	r := &record{values: make(map[string]any)}
	for i := 0; i+1 < len(kv); i += 2 {
		r.values[kv[i].(string)] = kv[i+1]
	}
	return r
}

func (r *record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

func (r *record) Set(key string, value any) error {
	r.values[key] = value
	r.writes++
	return nil
}

// counter is a command that increments a shared total.
type counter struct {
	total *int
	step  int
	fail  error
	undos int
}

func (c *counter) Execute(context.Context) error {
	if c.fail != nil {
		return c.fail
	}
	*c.total += c.step
	return nil
}

func (c *counter) Undo(context.Context) error {
	c.undos++
	*c.total -= c.step
	return nil
}

func (c *counter) Description() string { return fmt.Sprintf("add %d", c.step) }

// flaky fails its next Undo or Execute when armed.
type flaky struct {
	applied  bool
	failUndo bool
	failExec bool
}

var errFlaky = errors.New("flaky")

func (f *flaky) Execute(context.Context) error {
	if f.failExec {
		return errFlaky
	}
	f.applied = true
	return nil
}

func (f *flaky) Undo(context.Context) error {
	if f.failUndo {
		return errFlaky
	}
	f.applied = false
	return nil
}

func (f *flaky) Description() string { return "flaky" }

// flagRecorder asserts flag consistency at every published point.
type flagRecorder struct {
	t       *testing.T
	m       *Manager
	canUndo []bool
	canRedo []bool
}

func recordFlags(t *testing.T, m *Manager) *flagRecorder {
	t.Helper()
	fr := &flagRecorder{t: t, m: m}
	observable.Watch(m, PropCanUndo, func(v bool) {
		fr.canUndo = append(fr.canUndo, v)
		if want := m.UndoCount() > 0; v != want {
			t.Errorf("published canUndo = %v while undo depth is %d", v, m.UndoCount())
		}
	})
	observable.Watch(m, PropCanRedo, func(v bool) {
		fr.canRedo = append(fr.canRedo, v)
		if want := m.RedoCount() > 0; v != want {
			t.Errorf("published canRedo = %v while redo depth is %d", v, m.RedoCount())
		}
	})
	return fr
}

func (fr *flagRecorder) publishes() (int, int) {
	return len(fr.canUndo), len(fr.canRedo)
}

func TestPropertyCommand_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		old  any
		new  any
	}{
		{"string", "A", "B"},
		{"int", 3, 7},
		{"float", 0.1, 0.30000000000000004},
		{"nil to value", nil, "set"},
		{"same value", "x", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRecord("k", tt.old)
			cmd, err := NewPropertyCommand[string, any](r, "k", tt.new)
			if err != nil {
				t.Fatalf("NewPropertyCommand: %v", err)
			}

			if err := cmd.Execute(context.Background()); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if r.values["k"] != tt.new {
				t.Errorf("after Execute k = %v, want %v", r.values["k"], tt.new)
			}
			if err := cmd.Undo(context.Background()); err != nil {
				t.Fatalf("Undo: %v", err)
			}
			if r.values["k"] != tt.old {
				t.Errorf("after Undo k = %v, want %v", r.values["k"], tt.old)
			}
		})
	}
}

func TestPropertyCommand_UnknownKey(t *testing.T) {
	r := newRecord("name", "A")
	cmd, err := NewPropertyCommand[string, any](r, "missing", 1)
	if !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("err = %v, want ErrUnknownProperty", err)
	}
	if cmd != nil {
		t.Error("expected nil command")
	}
	if r.writes != 0 {
		t.Errorf("target written %d times during construction", r.writes)
	}
}

func TestPropertyCommand_CapturesOldValueAtConstruction(t *testing.T) {
	r := newRecord("name", "A")
	cmd, _ := NewPropertyCommand[string, any](r, "name", "C")

	r.values["name"] = "B"

	if cmd.OldValue() != "A" {
		t.Errorf("OldValue = %v, want A", cmd.OldValue())
	}
	if cmd.Description() != "Set name" {
		t.Errorf("Description = %q", cmd.Description())
	}
}

func TestManager_UndoRedoScenario(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	fr := recordFlags(t, m)
	obj := newRecord("name", "A")

	cmd, err := NewPropertyCommand[string, any](obj, "name", "B")
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Execute(ctx, cmd); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if obj.values["name"] != "B" || !m.CanUndo() || m.CanRedo() {
		t.Fatalf("after Execute: name=%v canUndo=%v canRedo=%v", obj.values["name"], m.CanUndo(), m.CanRedo())
	}

	if err := m.Undo(ctx); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if obj.values["name"] != "A" || m.CanUndo() || !m.CanRedo() {
		t.Fatalf("after Undo: name=%v canUndo=%v canRedo=%v", obj.values["name"], m.CanUndo(), m.CanRedo())
	}

	if err := m.Redo(ctx); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if obj.values["name"] != "B" || !m.CanUndo() || m.CanRedo() {
		t.Fatalf("after Redo: name=%v canUndo=%v canRedo=%v", obj.values["name"], m.CanUndo(), m.CanRedo())
	}

	wantUndo := []bool{true, false, true}
	wantRedo := []bool{false, true, false}
	for i := range wantUndo {
		if fr.canUndo[i] != wantUndo[i] || fr.canRedo[i] != wantRedo[i] {
			t.Errorf("publish %d: canUndo=%v canRedo=%v, want %v %v",
				i, fr.canUndo[i], fr.canRedo[i], wantUndo[i], wantRedo[i])
		}
	}
}

func TestManager_EmptyStacksAreNoOps(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	fr := recordFlags(t, m)

	var signals int
	for _, s := range []Signal{SignalUndone, SignalRedone, SignalFailed} {
		m.Connect(s, func() { signals++ })
	}

	if err := m.Undo(ctx); err != nil {
		t.Errorf("Undo on empty manager: %v", err)
	}
	if err := m.Redo(ctx); err != nil {
		t.Errorf("Redo on empty manager: %v", err)
	}

	if m.CanUndo() || m.CanRedo() {
		t.Error("flags changed by no-op undo/redo")
	}
	if u, r := fr.publishes(); u != 0 || r != 0 {
		t.Errorf("no-op published flags %d/%d times", u, r)
	}
	if signals != 0 {
		t.Errorf("no-op notified %d signals", signals)
	}
}

func TestManager_BoundedHistory(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	total := 0

	for i := 1; i <= MaxCommands+5; i++ {
		if err := m.Execute(ctx, &counter{total: &total, step: i}); err != nil {
			t.Fatal(err)
		}
	}

	if got := m.UndoCount(); got != MaxCommands {
		t.Fatalf("UndoCount = %d, want %d", got, MaxCommands)
	}

	// Undo far more times than there are entries.
	for i := 0; i < MaxCommands+20; i++ {
		if err := m.Undo(ctx); err != nil {
			t.Fatal(err)
		}
	}

	// Steps 1..5 were evicted and stay applied.
	if want := 1 + 2 + 3 + 4 + 5; total != want {
		t.Errorf("total after undoing everything = %d, want %d", total, want)
	}
	if m.CanUndo() {
		t.Error("CanUndo after exhausting history")
	}
	if got := m.RedoCount(); got != MaxCommands {
		t.Errorf("RedoCount = %d, want %d", got, MaxCommands)
	}
}

func TestManager_EvictsOldestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewManager(WithMaxCommands(3))
	total := 0

	for i := 1; i <= 5; i++ {
		_ = m.Execute(ctx, &counter{total: &total, step: i})
	}

	info := m.UndoInfo()
	if len(info) != 3 {
		t.Fatalf("len(UndoInfo) = %d, want 3", len(info))
	}
	for i, want := range []string{"add 3", "add 4", "add 5"} {
		if info[i].Description != want {
			t.Errorf("UndoInfo[%d] = %q, want %q", i, info[i].Description, want)
		}
	}
}

func TestManager_RedoStackBounded(t *testing.T) {
	ctx := context.Background()
	m := NewManager(WithMaxCommands(2))
	total := 0
	for i := 1; i <= 2; i++ {
		_ = m.Execute(ctx, &counter{total: &total, step: i})
	}
	_ = m.Undo(ctx)
	_ = m.Undo(ctx)

	if m.RedoCount() != 2 {
		t.Fatalf("RedoCount = %d, want 2", m.RedoCount())
	}
	if p, ok := m.PeekRedo(); !ok || p.Description != "add 1" {
		t.Errorf("PeekRedo = %+v, %v", p, ok)
	}
}

func TestManager_ExecuteClearsRedo(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	total := 0
	a := &counter{total: &total, step: 1}
	b := &counter{total: &total, step: 10}
	c := &counter{total: &total, step: 100}

	_ = m.Execute(ctx, a)
	_ = m.Execute(ctx, b)
	_ = m.Undo(ctx)

	if !m.CanRedo() {
		t.Fatal("expected redo to be available")
	}

	_ = m.Execute(ctx, c)

	if m.CanRedo() || m.RedoCount() != 0 {
		t.Fatal("Execute did not clear the redo stack")
	}
	if err := m.Redo(ctx); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if total != 101 {
		t.Errorf("total = %d, want 101 (B must not be redone)", total)
	}
}

func TestManager_PublishesOncePerCall(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	fr := recordFlags(t, m)
	total := 0

	calls := []func() error{
		func() error { return m.Execute(ctx, &counter{total: &total, step: 1}) },
		func() error { return m.Execute(ctx, &counter{total: &total, step: 2}) },
		func() error { return m.Undo(ctx) },
		func() error { return m.Redo(ctx) },
		func() error { return m.Undo(ctx) },
		func() error { return m.Undo(ctx) },
	}

	for i, call := range calls {
		beforeU, beforeR := fr.publishes()
		if err := call(); err != nil {
			t.Fatal(err)
		}
		afterU, afterR := fr.publishes()
		if afterU-beforeU != 1 || afterR-beforeR != 1 {
			t.Errorf("call %d published canUndo %d times and canRedo %d times, want 1 each",
				i, afterU-beforeU, afterR-beforeR)
		}
	}
}

func TestManager_SignalOrder(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	var events []string

	m.Subscribe(PropCanUndo, func(any) { events = append(events, "canUndo") })
	m.Subscribe(PropCanRedo, func(any) { events = append(events, "canRedo") })
	m.Connect(SignalExecuted, func() { events = append(events, "executed") })
	m.Connect(SignalUndone, func() { events = append(events, "undone") })
	m.Connect(SignalRedone, func() { events = append(events, "redone") })

	total := 0
	_ = m.Execute(ctx, &counter{total: &total, step: 1})
	_ = m.Undo(ctx)
	_ = m.Redo(ctx)

	want := []string{
		"canUndo", "canRedo", "executed",
		"canUndo", "canRedo", "undone",
		"canUndo", "canRedo", "redone",
	}
	if fmt.Sprint(events) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestManager_ExecuteFailure(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	total := 0
	_ = m.Execute(ctx, &counter{total: &total, step: 1})
	_ = m.Execute(ctx, &counter{total: &total, step: 2})
	_ = m.Undo(ctx)

	fr := recordFlags(t, m)
	var failed int
	m.Connect(SignalFailed, func() { failed++ })

	boom := errors.New("boom")
	err := m.Execute(ctx, &counter{total: &total, step: 50, fail: boom})

	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
	if m.UndoCount() != 1 || m.RedoCount() != 1 {
		t.Errorf("stacks changed by failed execute: undo=%d redo=%d", m.UndoCount(), m.RedoCount())
	}
	if !m.CanUndo() || !m.CanRedo() {
		t.Error("flags changed by failed execute")
	}
	if u, r := fr.publishes(); u != 0 || r != 0 {
		t.Errorf("failed execute published flags %d/%d times", u, r)
	}
	if failed != 1 {
		t.Errorf("failed signal notified %d times, want 1", failed)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestManager_UndoFailureKeepsCommand(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	f := &flaky{}
	_ = m.Execute(ctx, f)

	f.failUndo = true
	if err := m.Undo(ctx); !errors.Is(err, errFlaky) {
		t.Fatalf("Undo err = %v, want errFlaky", err)
	}
	if m.UndoCount() != 1 || m.RedoCount() != 0 {
		t.Errorf("undo=%d redo=%d, want 1 and 0", m.UndoCount(), m.RedoCount())
	}
	if !f.applied {
		t.Error("command state changed by failed undo")
	}

	f.failUndo = false
	if err := m.Undo(ctx); err != nil {
		t.Fatalf("retry Undo: %v", err)
	}
	if f.applied || m.CanUndo() || !m.CanRedo() {
		t.Error("retry did not undo the command")
	}
}

func TestManager_RedoFailureKeepsCommand(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	f := &flaky{}
	_ = m.Execute(ctx, f)
	_ = m.Undo(ctx)

	f.failExec = true
	if err := m.Redo(ctx); !errors.Is(err, errFlaky) {
		t.Fatalf("Redo err = %v, want errFlaky", err)
	}
	if m.UndoCount() != 0 || m.RedoCount() != 1 {
		t.Errorf("undo=%d redo=%d, want 0 and 1", m.UndoCount(), m.RedoCount())
	}
}

func TestManager_FlagConsistencyRandomWalk(t *testing.T) {
	ctx := context.Background()
	m := NewManager(WithMaxCommands(4))
	recordFlags(t, m)
	total := 0

	ops := "eeuueueerruuuueeeeeerrruuuuuuuuerr"
	for i, op := range ops {
		var err error
		switch op {
		case 'e':
			err = m.Execute(ctx, &counter{total: &total, step: i})
		case 'u':
			err = m.Undo(ctx)
		case 'r':
			err = m.Redo(ctx)
		}
		if err != nil {
			t.Fatalf("op %d (%c): %v", i, op, err)
		}
		if m.CanUndo() != (m.UndoCount() > 0) || m.CanRedo() != (m.RedoCount() > 0) {
			t.Fatalf("op %d: flags inconsistent with stacks", i)
		}
		if m.UndoCount() > 4 || m.RedoCount() > 4 {
			t.Fatalf("op %d: stack over capacity", i)
		}
	}
}

func TestManager_Clear(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	total := 0
	_ = m.Execute(ctx, &counter{total: &total, step: 1})
	_ = m.Execute(ctx, &counter{total: &total, step: 2})
	_ = m.Undo(ctx)

	var cleared int
	m.Connect(SignalCleared, func() { cleared++ })
	fr := recordFlags(t, m)

	m.Clear()
	m.Clear()

	if m.CanUndo() || m.CanRedo() || m.UndoCount() != 0 || m.RedoCount() != 0 {
		t.Error("history not cleared")
	}
	if cleared != 1 {
		t.Errorf("cleared notified %d times, want 1", cleared)
	}
	if u, r := fr.publishes(); u != 1 || r != 1 {
		t.Errorf("Clear published flags %d/%d times, want 1/1", u, r)
	}
}

func TestManager_SetMaxCommands(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	total := 0
	for i := 1; i <= 10; i++ {
		_ = m.Execute(ctx, &counter{total: &total, step: i})
	}

	m.SetMaxCommands(4)

	if m.MaxCommands() != 4 {
		t.Errorf("MaxCommands = %d, want 4", m.MaxCommands())
	}
	if m.UndoCount() != 4 {
		t.Errorf("UndoCount = %d, want 4", m.UndoCount())
	}
	if p, _ := m.PeekUndo(); p.Description != "add 10" {
		t.Errorf("PeekUndo = %q, want add 10", p.Description)
	}

	m.SetMaxCommands(0)
	if m.MaxCommands() != MaxCommands {
		t.Errorf("MaxCommands = %d, want default", m.MaxCommands())
	}
}

func TestManager_NilCommandPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	_ = NewManager().Execute(context.Background(), nil)
}

func TestNewFunc(t *testing.T) {
	ctx := context.Background()
	state := 0
	cmd := NewFunc("toggle",
		func(context.Context) error { state = 1; return nil },
		func(context.Context) error { state = 0; return nil },
	)

	m := NewManager()
	_ = m.Execute(ctx, cmd)
	if state != 1 {
		t.Error("Func execute not called")
	}
	_ = m.Undo(ctx)
	if state != 0 {
		t.Error("Func undo not called")
	}
	if cmd.Description() != "toggle" {
		t.Errorf("Description = %q", cmd.Description())
	}

	defer func() {
		if recover() == nil {
			t.Error("NewFunc with nil undo should panic")
		}
	}()
	NewFunc("bad", func(context.Context) error { return nil }, nil)
}

func TestCompoundCommand(t *testing.T) {
	ctx := context.Background()
	total := 0
	a := &counter{total: &total, step: 1}
	b := &counter{total: &total, step: 10}
	c := NewCompoundCommand("both", a, b)

	if err := c.Execute(ctx); err != nil {
		t.Fatal(err)
	}
	if total != 11 {
		t.Errorf("total = %d, want 11", total)
	}
	if err := c.Undo(ctx); err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
	if c.Description() != "both" {
		t.Errorf("Description = %q", c.Description())
	}
}

func TestCompoundCommand_RollsBackOnFailure(t *testing.T) {
	total := 0
	a := &counter{total: &total, step: 1}
	b := &counter{total: &total, step: 10, fail: errors.New("nope")}
	c := NewCompoundCommand("", a, b)

	if err := c.Execute(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if total != 0 {
		t.Errorf("total = %d, want 0 after rollback", total)
	}
	if a.undos != 1 {
		t.Errorf("first step undone %d times, want 1", a.undos)
	}
	if c.Description() != "2 operations" {
		t.Errorf("Description = %q", c.Description())
	}
}

func TestManager_PanickingCommandReleasesManager(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	total := 0
	_ = m.Execute(ctx, &counter{total: &total, step: 1})

	boom := NewFunc("boom",
		func(context.Context) error { panic("boom") },
		func(context.Context) error { panic("boom") },
	)
	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Errorf("recovered %v, want boom", r)
			}
		}()
		_ = m.Execute(ctx, boom)
	}()

	done := make(chan error, 1)
	go func() { done <- m.Undo(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Undo blocked after a panicking command")
	}
	if total != 0 || m.UndoCount() != 0 || m.RedoCount() != 1 {
		t.Errorf("total=%d undo=%d redo=%d, want 0, 0 and 1", total, m.UndoCount(), m.RedoCount())
	}
}

func TestManager_SetMaxCommandsNotifiesTrim(t *testing.T) {
	ctx := context.Background()
	m := NewManager()
	total := 0
	trimmed := 0
	m.Connect(SignalTrimmed, func() { trimmed++ })

	for i := 0; i < 4; i++ {
		_ = m.Execute(ctx, &counter{total: &total, step: 1})
	}
	m.SetMaxCommands(10)
	if trimmed != 0 {
		t.Errorf("trimmed = %d after growing capacity, want 0", trimmed)
	}
	m.SetMaxCommands(2)
	if trimmed != 1 || m.UndoCount() != 2 {
		t.Errorf("trimmed=%d undo=%d, want 1 and 2", trimmed, m.UndoCount())
	}
}
