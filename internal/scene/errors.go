package scene

import "errors"

var (
	// ErrUnknownProperty is returned by Set for a property the object does
	// not track.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrInvalidValue is returned by Set when the value cannot be converted
	// to the property's type.
	ErrInvalidValue = errors.New("invalid value")

	// ErrDuplicateObject is returned when adding an object whose ID is
	// already in the scene.
	ErrDuplicateObject = errors.New("object already in scene")

	// ErrObjectNotFound is returned when an ID is not in the scene.
	ErrObjectNotFound = errors.New("object not found")

	// ErrUnknownKind is returned when decoding a record of an unknown kind.
	ErrUnknownKind = errors.New("unknown object kind")
)
