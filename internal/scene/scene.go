package scene

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/heliocanvas/internal/observable"
)

// PropCount is published by Scene with the new object count after every
// insertion or removal.
const PropCount Property = "count"

// Scene signals.
const (
	SignalAdded   Signal = "added"
	SignalRemoved Signal = "removed"
)

// Scene is the ordered set of objects in a layout.
type Scene struct {
	observable.Observable[Property, Signal]

	mu      sync.RWMutex
	objects []Object
	index   map[uuid.UUID]Object
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{index: make(map[uuid.UUID]Object)}
}

// Add appends obj.
func (s *Scene) Add(obj Object) error {
	return s.Insert(-1, obj)
}

// Insert places obj at position i. A negative or out of range i appends.
func (s *Scene) Insert(i int, obj Object) error {
	if obj == nil {
		panic("scene: Insert called with nil object")
	}

	s.mu.Lock()
	if _, ok := s.index[obj.ID()]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateObject, obj.ID())
	}
	if i < 0 || i > len(s.objects) {
		i = len(s.objects)
	}
	s.objects = slices.Insert(s.objects, i, obj)
	s.index[obj.ID()] = obj
	n := len(s.objects)
	s.mu.Unlock()

	s.Publish(PropCount, n)
	s.Notify(SignalAdded)
	return nil
}

// Remove deletes the object with id and returns it with its former position.
func (s *Scene) Remove(id uuid.UUID) (Object, int, error) {
	s.mu.Lock()
	obj, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return nil, -1, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	i := slices.Index(s.objects, obj)
	s.objects = slices.Delete(s.objects, i, i+1)
	delete(s.index, id)
	n := len(s.objects)
	s.mu.Unlock()

	s.Publish(PropCount, n)
	s.Notify(SignalRemoved)
	return obj, i, nil
}

// Get returns the object with id.
func (s *Scene) Get(id uuid.UUID) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.index[id]
	return obj, ok
}

// Contains reports whether id is in the scene.
func (s *Scene) Contains(id uuid.UUID) bool {
	_, ok := s.Get(id)
	return ok
}

// Objects returns the objects in insertion order.
func (s *Scene) Objects() []Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.objects)
}

// Len returns the number of objects.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// FindByName returns the first object named name.
func (s *Scene) FindByName(name string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, obj := range s.objects {
		if obj.Name() == name {
			return obj, true
		}
	}
	return nil, false
}
