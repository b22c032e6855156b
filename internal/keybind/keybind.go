// Package keybind maps terminal key events to history actions.
//
// Bindings are written as modifier names joined to a single letter with
// "+", for example "Ctrl+Z", "Meta+Shift+Z" or "Cmd+Y". Recognised
// modifiers are Ctrl, Alt, Shift and Meta (alias Cmd).
package keybind

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"
)

// Action is what a key event asks the editor to do.
type Action int

const (
	ActionNone Action = iota
	ActionUndo
	ActionRedo
)

func (a Action) String() string {
	switch a {
	case ActionUndo:
		return "undo"
	case ActionRedo:
		return "redo"
	default:
		return "none"
	}
}

// ErrInvalidBinding is returned for a binding string that cannot be parsed.
var ErrInvalidBinding = errors.New("invalid key binding")

const modMask = tcell.ModCtrl | tcell.ModAlt | tcell.ModShift | tcell.ModMeta

// Binding is a modifier set plus a lowercase letter.
type Binding struct {
	Mod  tcell.ModMask
	Rune rune
}

// Parse parses a binding such as "Ctrl+Shift+Z".
func Parse(s string) (Binding, error) {
	parts := strings.Split(s, "+")
	if len(parts) < 2 {
		return Binding{}, fmt.Errorf("%w %q: needs a modifier and a key", ErrInvalidBinding, s)
	}

	var b Binding
	for _, p := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "ctrl", "control":
			b.Mod |= tcell.ModCtrl
		case "alt", "option":
			b.Mod |= tcell.ModAlt
		case "shift":
			b.Mod |= tcell.ModShift
		case "meta", "cmd", "command":
			b.Mod |= tcell.ModMeta
		default:
			return Binding{}, fmt.Errorf("%w %q: unknown modifier %q", ErrInvalidBinding, s, p)
		}
	}

	k := []rune(strings.TrimSpace(parts[len(parts)-1]))
	if len(k) != 1 || !unicode.IsLetter(k[0]) {
		return Binding{}, fmt.Errorf("%w %q: key must be a single letter", ErrInvalidBinding, s)
	}
	b.Rune = unicode.ToLower(k[0])
	return b, nil
}

// String formats b in the form accepted by Parse.
func (b Binding) String() string {
	var parts []string
	if b.Mod&tcell.ModCtrl != 0 {
		parts = append(parts, "Ctrl")
	}
	if b.Mod&tcell.ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	if b.Mod&tcell.ModMeta != 0 {
		parts = append(parts, "Meta")
	}
	if b.Mod&tcell.ModShift != 0 {
		parts = append(parts, "Shift")
	}
	parts = append(parts, string(unicode.ToUpper(b.Rune)))
	return strings.Join(parts, "+")
}

// FromEvent normalizes a tcell key event to a Binding. Control codes
// (KeyCtrlA..KeyCtrlZ) become Ctrl plus the letter, and an uppercase rune
// implies Shift. It returns false for events that are not letter keys.
func FromEvent(ev *tcell.EventKey) (Binding, bool) {
	mod := ev.Modifiers() & modMask
	switch k := ev.Key(); {
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		return Binding{Mod: mod | tcell.ModCtrl, Rune: 'a' + rune(k-tcell.KeyCtrlA)}, true
	case k == tcell.KeyRune:
		r := ev.Rune()
		if !unicode.IsLetter(r) {
			return Binding{}, false
		}
		if unicode.IsUpper(r) {
			mod |= tcell.ModShift
		}
		return Binding{Mod: mod, Rune: unicode.ToLower(r)}, true
	}
	return Binding{}, false
}

// Map resolves key events to actions.
type Map struct {
	actions map[Binding]Action
	undo    []Binding
	redo    []Binding
}

// New builds a map from undo and redo binding strings.
func New(undo, redo []string) (*Map, error) {
	m := &Map{actions: make(map[Binding]Action)}
	if err := m.bind(ActionUndo, undo); err != nil {
		return nil, err
	}
	if err := m.bind(ActionRedo, redo); err != nil {
		return nil, err
	}
	return m, nil
}

// Default returns the standard bindings: Ctrl/Meta+Z to undo and
// Ctrl/Meta+Shift+Z or Ctrl/Meta+Y to redo.
func Default() *Map {
	m, err := New(
		[]string{"Ctrl+Z", "Meta+Z"},
		[]string{"Ctrl+Shift+Z", "Meta+Shift+Z", "Ctrl+Y", "Meta+Y"},
	)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Map) bind(a Action, specs []string) error {
	for _, s := range specs {
		b, err := Parse(s)
		if err != nil {
			return err
		}
		if prev, ok := m.actions[b]; ok && prev != a {
			return fmt.Errorf("%w %q: already bound to %s", ErrInvalidBinding, s, prev)
		}
		if _, ok := m.actions[b]; ok {
			continue
		}
		m.actions[b] = a
		if a == ActionUndo {
			m.undo = append(m.undo, b)
		} else {
			m.redo = append(m.redo, b)
		}
	}
	return nil
}

// Resolve returns the action bound to ev.
func (m *Map) Resolve(ev *tcell.EventKey) Action {
	b, ok := FromEvent(ev)
	if !ok {
		return ActionNone
	}
	return m.actions[b]
}

// Bindings returns the bindings of a in configuration order.
func (m *Map) Bindings(a Action) []Binding {
	switch a {
	case ActionUndo:
		return slices.Clone(m.undo)
	case ActionRedo:
		return slices.Clone(m.redo)
	}
	return nil
}
