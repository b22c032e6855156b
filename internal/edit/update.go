package edit

import (
	"context"
	"fmt"

	"github.com/dshills/heliocanvas/internal/command"
	"github.com/dshills/heliocanvas/internal/scene"
)

// Update assigns one property of an object and saves the result.
type Update struct {
	obj   scene.Object
	store Persister
	prop  *command.PropertyCommand[scene.Property, any]
}

// NewUpdate returns a command that sets prop on obj to value. It returns
// scene.ErrUnknownProperty if obj does not track prop.
func NewUpdate(store Persister, obj scene.Object, prop scene.Property, value any) (*Update, error) {
	if obj == nil {
		panic("edit: NewUpdate requires an object")
	}
	if _, ok := obj.Get(prop); !ok {
		return nil, fmt.Errorf("%w: %s has no %q", scene.ErrUnknownProperty, obj.Kind(), prop)
	}
	pc, err := command.NewPropertyCommand[scene.Property, any](obj, prop, value)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", obj.Kind(), obj.ID(), err)
	}
	return &Update{obj: obj, store: orNop(store), prop: pc}, nil
}

// Execute assigns the new value.
func (u *Update) Execute(ctx context.Context) error {
	return u.apply(ctx, u.prop.Execute, u.prop.Undo)
}

// Undo restores the previous value.
func (u *Update) Undo(ctx context.Context) error {
	return u.apply(ctx, u.prop.Undo, u.prop.Execute)
}

// apply runs do, saves, and runs revert if the save fails.
func (u *Update) apply(ctx context.Context, do, revert func(context.Context) error) error {
	if err := do(ctx); err != nil {
		return err
	}
	if err := u.store.Save(ctx, u.obj); err != nil {
		if rerr := revert(ctx); rerr != nil {
			return fmt.Errorf("save %s: %w (revert: %v)", u.obj.ID(), err, rerr)
		}
		return fmt.Errorf("save %s: %w", u.obj.ID(), err)
	}
	u.obj.Notify(scene.SignalUpdated)
	return nil
}

func (u *Update) Description() string {
	return fmt.Sprintf("Update %s %q %s", u.obj.Kind(), u.obj.Name(), u.prop.Key())
}

// Move records a position change that has already been applied, such as the
// end of a drag gesture. Executing it sets the position to "to" and undoing
// sets it back to "from".
type Move struct {
	obj      scene.Positioned
	store    Persister
	from, to scene.Vector3
}

// NewMove returns a command that moves obj from one position to another.
func NewMove(store Persister, obj scene.Positioned, from, to scene.Vector3) *Move {
	if obj == nil {
		panic("edit: NewMove requires an object")
	}
	return &Move{obj: obj, store: orNop(store), from: from, to: to}
}

func (m *Move) Execute(ctx context.Context) error {
	return m.moveTo(ctx, m.to, m.from)
}

func (m *Move) Undo(ctx context.Context) error {
	return m.moveTo(ctx, m.from, m.to)
}

func (m *Move) moveTo(ctx context.Context, p, prev scene.Vector3) error {
	m.obj.SetPosition(p)
	if err := m.store.Save(ctx, m.obj); err != nil {
		m.obj.SetPosition(prev)
		return fmt.Errorf("save %s: %w", m.obj.ID(), err)
	}
	m.obj.Notify(scene.SignalUpdated)
	return nil
}

func (m *Move) Description() string {
	return fmt.Sprintf("Move %s %q", m.obj.Kind(), m.obj.Name())
}
