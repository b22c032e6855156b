package edit

import (
	"context"
	"fmt"

	"github.com/dshills/heliocanvas/internal/scene"
)

// Create inserts a new object into the scene.
type Create struct {
	scene *scene.Scene
	store Persister
	obj   scene.Object
	index int
	verb  string
}

// NewCreate returns a command that adds obj to s.
func NewCreate(s *scene.Scene, store Persister, obj scene.Object) *Create {
	if s == nil || obj == nil {
		panic("edit: NewCreate requires a scene and an object")
	}
	return &Create{scene: s, store: orNop(store), obj: obj, index: -1, verb: "Create"}
}

// NewDuplicate returns a command that adds a duplicate of src to s.
// The duplicate is built once, so redo restores the same object.
func NewDuplicate(s *scene.Scene, store Persister, src scene.Object) *Create {
	if src == nil {
		panic("edit: NewDuplicate requires a source object")
	}
	c := NewCreate(s, store, src.Duplicate())
	c.verb = "Duplicate"
	return c
}

// Object returns the object this command adds.
func (c *Create) Object() scene.Object {
	return c.obj
}

// Execute saves and inserts the object.
func (c *Create) Execute(ctx context.Context) error {
	if c.scene.Contains(c.obj.ID()) {
		return fmt.Errorf("%w: %s", scene.ErrDuplicateObject, c.obj.ID())
	}
	return insert(ctx, c.scene, c.store, c.index, c.obj)
}

// Undo removes the object from the store and the scene.
func (c *Create) Undo(ctx context.Context) error {
	i, err := remove(ctx, c.scene, c.store, c.obj)
	if err != nil {
		return err
	}
	c.index = i
	return nil
}

func (c *Create) Description() string {
	return fmt.Sprintf("%s %s %q", c.verb, c.obj.Kind(), c.obj.Name())
}

// Delete removes an object from the scene.
type Delete struct {
	scene *scene.Scene
	store Persister
	obj   scene.Object
	index int
}

// NewDelete returns a command that removes obj from s.
func NewDelete(s *scene.Scene, store Persister, obj scene.Object) *Delete {
	if s == nil || obj == nil {
		panic("edit: NewDelete requires a scene and an object")
	}
	return &Delete{scene: s, store: orNop(store), obj: obj, index: -1}
}

// Execute deletes the stored object and removes it from the scene.
func (d *Delete) Execute(ctx context.Context) error {
	if !d.scene.Contains(d.obj.ID()) {
		return fmt.Errorf("%w: %s", scene.ErrObjectNotFound, d.obj.ID())
	}
	i, err := remove(ctx, d.scene, d.store, d.obj)
	if err != nil {
		return err
	}
	d.index = i
	return nil
}

// Undo saves the object again and reinserts it at its former position.
func (d *Delete) Undo(ctx context.Context) error {
	return insert(ctx, d.scene, d.store, d.index, d.obj)
}

func (d *Delete) Description() string {
	return fmt.Sprintf("Delete %s %q", d.obj.Kind(), d.obj.Name())
}

// insert saves obj and inserts it into s at i. If the insert fails the saved
// copy is deleted again.
func insert(ctx context.Context, s *scene.Scene, store Persister, i int, obj scene.Object) error {
	if err := store.Save(ctx, obj); err != nil {
		return fmt.Errorf("save %s: %w", obj.ID(), err)
	}
	if err := s.Insert(i, obj); err != nil {
		if derr := store.Delete(ctx, obj.ID()); derr != nil {
			return fmt.Errorf("%w (delete: %v)", err, derr)
		}
		return err
	}
	return nil
}

// remove deletes the stored obj and removes it from s, returning its former
// position. If the removal fails obj is saved again.
func remove(ctx context.Context, s *scene.Scene, store Persister, obj scene.Object) (int, error) {
	if err := store.Delete(ctx, obj.ID()); err != nil {
		return -1, fmt.Errorf("delete %s: %w", obj.ID(), err)
	}
	_, i, err := s.Remove(obj.ID())
	if err != nil {
		if serr := store.Save(ctx, obj); serr != nil {
			return -1, fmt.Errorf("%w (save: %v)", err, serr)
		}
		return -1, err
	}
	return i, nil
}
