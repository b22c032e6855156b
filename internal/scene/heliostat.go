package scene

import "github.com/google/uuid"

// Heliostat is a tracking mirror placed in the field.
type Heliostat struct {
	base
	name     string
	position Vector3
}

// NewHeliostat creates a heliostat with a fresh ID.
func NewHeliostat(name string, position Vector3) *Heliostat {
	return &Heliostat{base: base{id: uuid.New()}, name: name, position: position}
}

func (h *Heliostat) Kind() Kind        { return KindHeliostat }
func (h *Heliostat) Name() string      { return h.name }
func (h *Heliostat) Position() Vector3 { return h.position }

func (h *Heliostat) Properties() []Property {
	return []Property{PropName, PropPosition}
}

// SetName sets the heliostat name.
func (h *Heliostat) SetName(name string) {
	h.name = name
	h.Publish(PropName, name)
}

// SetPosition moves the heliostat.
func (h *Heliostat) SetPosition(p Vector3) {
	h.position = p
	h.Publish(PropPosition, p)
}

// Get returns the value of p.
func (h *Heliostat) Get(p Property) (any, bool) {
	switch p {
	case PropName:
		return h.name, true
	case PropPosition:
		return h.position, true
	}
	return nil, false
}

// Set assigns p through its setter.
func (h *Heliostat) Set(p Property, value any) error {
	switch p {
	case PropName:
		s, err := asString(p, value)
		if err != nil {
			return err
		}
		h.SetName(s)
	case PropPosition:
		v, err := asVector(p, value)
		if err != nil {
			return err
		}
		h.SetPosition(v)
	default:
		return unknown(KindHeliostat, p)
	}
	return nil
}

// Duplicate returns a copy offset three metres south.
func (h *Heliostat) Duplicate() Object {
	return NewHeliostat(copyName(h.name, "Heliostat"), h.position.Add(Vec(0, 0, -3)))
}
