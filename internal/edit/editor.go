package edit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dshills/heliocanvas/internal/command"
	"github.com/dshills/heliocanvas/internal/scene"
)

// Editor issues edits against one scene through one history.
type Editor struct {
	scene   *scene.Scene
	history *command.Manager
	store   Persister
}

// NewEditor creates an editor. A nil store disables persistence.
func NewEditor(s *scene.Scene, history *command.Manager, store Persister) *Editor {
	if s == nil || history == nil {
		panic("edit: NewEditor requires a scene and a history")
	}
	return &Editor{scene: s, history: history, store: orNop(store)}
}

// Scene returns the edited scene.
func (e *Editor) Scene() *scene.Scene { return e.scene }

// History returns the command manager.
func (e *Editor) History() *command.Manager { return e.history }

// Lookup returns the object with the given ID, or the first object with
// that name when ref is not an ID.
func (e *Editor) Lookup(ref string) (scene.Object, error) {
	if id, err := uuid.Parse(ref); err == nil {
		if obj, ok := e.scene.Get(id); ok {
			return obj, nil
		}
	}
	if obj, ok := e.scene.FindByName(ref); ok {
		return obj, nil
	}
	return nil, fmt.Errorf("%w: %s", scene.ErrObjectNotFound, ref)
}

// Create adds a new object of kind k with the given initial properties.
// The properties are applied before the object enters the scene and are
// part of the same undo step.
func (e *Editor) Create(ctx context.Context, k scene.Kind, props map[scene.Property]any) (scene.Object, error) {
	obj, err := scene.NewObject(k)
	if err != nil {
		return nil, err
	}
	for _, p := range obj.Properties() {
		v, ok := props[p]
		if !ok {
			continue
		}
		if err := obj.Set(p, v); err != nil {
			return nil, err
		}
	}
	for p := range props {
		if _, ok := obj.Get(p); !ok {
			return nil, fmt.Errorf("%w: %s has no %q", scene.ErrUnknownProperty, k, p)
		}
	}
	if err := e.history.Execute(ctx, NewCreate(e.scene, e.store, obj)); err != nil {
		return nil, err
	}
	return obj, nil
}

// Delete removes the object with id.
func (e *Editor) Delete(ctx context.Context, id uuid.UUID) error {
	obj, ok := e.scene.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", scene.ErrObjectNotFound, id)
	}
	return e.history.Execute(ctx, NewDelete(e.scene, e.store, obj))
}

// Duplicate copies the object with id and returns the copy.
func (e *Editor) Duplicate(ctx context.Context, id uuid.UUID) (scene.Object, error) {
	obj, ok := e.scene.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", scene.ErrObjectNotFound, id)
	}
	cmd := NewDuplicate(e.scene, e.store, obj)
	if err := e.history.Execute(ctx, cmd); err != nil {
		return nil, err
	}
	return cmd.Object(), nil
}

// Update sets one property of the object with id.
func (e *Editor) Update(ctx context.Context, id uuid.UUID, p scene.Property, value any) error {
	obj, ok := e.scene.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", scene.ErrObjectNotFound, id)
	}
	cmd, err := NewUpdate(e.store, obj, p, value)
	if err != nil {
		return err
	}
	return e.history.Execute(ctx, cmd)
}

// Move sets the position of the object with id.
func (e *Editor) Move(ctx context.Context, id uuid.UUID, to scene.Vector3) error {
	obj, ok := e.scene.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", scene.ErrObjectNotFound, id)
	}
	pos, ok := obj.(scene.Positioned)
	if !ok {
		return fmt.Errorf("%w: %s has no %q", scene.ErrUnknownProperty, obj.Kind(), scene.PropPosition)
	}
	return e.history.Execute(ctx, NewMove(e.store, pos, pos.Position(), to))
}

// Group runs fn as a single undo step. If fn fails, its edits are rolled back.
func (e *Editor) Group(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return e.history.Transaction(ctx, name, fn)
}

// Undo reverses the most recent edit.
func (e *Editor) Undo(ctx context.Context) error { return e.history.Undo(ctx) }

// Redo re-applies the most recently undone edit.
func (e *Editor) Redo(ctx context.Context) error { return e.history.Redo(ctx) }
