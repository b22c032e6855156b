package scene

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Record is the serialized form of an object.
type Record struct {
	ID         uuid.UUID      `json:"id"`
	Kind       Kind           `json:"kind"`
	Properties map[string]any `json:"properties"`
}

// Snapshot captures obj's current property values.
func Snapshot(obj Object) Record {
	props := make(map[string]any, len(obj.Properties()))
	for _, p := range obj.Properties() {
		v, _ := obj.Get(p)
		props[string(p)] = v
	}
	return Record{ID: obj.ID(), Kind: obj.Kind(), Properties: props}
}

// Restore builds an object from r, keeping r's ID.
func Restore(r Record) (Object, error) {
	obj, err := NewObject(r.Kind)
	if err != nil {
		return nil, err
	}
	switch o := obj.(type) {
	case *Heliostat:
		o.id = r.ID
	case *Receiver:
		o.id = r.ID
	case *LightSource:
		o.id = r.ID
	}

	for _, p := range obj.Properties() {
		v, ok := r.Properties[string(p)]
		if !ok {
			continue
		}
		if err := obj.Set(p, v); err != nil {
			return nil, fmt.Errorf("restore %s %s: %w", r.Kind, r.ID, err)
		}
	}
	return obj, nil
}

// Encode marshals obj to JSON.
func Encode(obj Object) ([]byte, error) {
	return json.Marshal(Snapshot(obj))
}

// Decode unmarshals an object from JSON produced by Encode.
func Decode(data []byte) (Object, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	return Restore(r)
}
