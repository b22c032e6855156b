package command

import (
	"context"
	"fmt"
)

// Target is an object whose tracked properties can be read and assigned by
// key. Set must route through the object's notifying setter for key.
type Target[K comparable, V any] interface {
	// Get returns the current value of key and whether key is tracked.
	Get(key K) (V, bool)

	// Set assigns value to key.
	Set(key K, value V) error
}

// PropertyCommand assigns a single property of a target.
// The previous value is read when the command is constructed.
type PropertyCommand[K comparable, V any] struct {
	target   Target[K, V]
	key      K
	oldValue V
	newValue V
}

// NewPropertyCommand creates a command that sets key on target to newValue.
// It returns ErrUnknownProperty if target does not track key.
func NewPropertyCommand[K comparable, V any](target Target[K, V], key K, newValue V) (*PropertyCommand[K, V], error) {
	if target == nil {
		panic("command: NewPropertyCommand requires a target")
	}
	old, ok := target.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownProperty, key)
	}
	return &PropertyCommand[K, V]{
		target:   target,
		key:      key,
		oldValue: old,
		newValue: newValue,
	}, nil
}

// Execute sets the property to the new value.
func (c *PropertyCommand[K, V]) Execute(context.Context) error {
	if err := c.target.Set(c.key, c.newValue); err != nil {
		return fmt.Errorf("set %v: %w", c.key, err)
	}
	return nil
}

// Undo restores the value read at construction.
func (c *PropertyCommand[K, V]) Undo(context.Context) error {
	if err := c.target.Set(c.key, c.oldValue); err != nil {
		return fmt.Errorf("restore %v: %w", c.key, err)
	}
	return nil
}

// Description returns a human-readable description.
func (c *PropertyCommand[K, V]) Description() string {
	return fmt.Sprintf("Set %v", c.key)
}

// Key returns the property key.
func (c *PropertyCommand[K, V]) Key() K {
	return c.key
}

// OldValue returns the value captured at construction.
func (c *PropertyCommand[K, V]) OldValue() V {
	return c.oldValue
}

// NewValue returns the value assigned by Execute.
func (c *PropertyCommand[K, V]) NewValue() V {
	return c.newValue
}
