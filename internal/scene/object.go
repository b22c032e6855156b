package scene

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dshills/heliocanvas/internal/observable"
)

// Kind identifies the type of a scene object.
type Kind string

const (
	KindHeliostat   Kind = "heliostat"
	KindReceiver    Kind = "receiver"
	KindLightSource Kind = "lightSource"
)

// Property names tracked by scene objects.
type Property string

const (
	PropName     Property = "name"
	PropPosition Property = "position"

	// Receiver
	PropTowerType    Property = "towerType"
	PropNormalVector Property = "normalVector"
	PropPlaneE       Property = "planeE"
	PropPlaneU       Property = "planeU"
	PropResolutionE  Property = "resolutionE"
	PropResolutionU  Property = "resolutionU"
	PropCurvatureE   Property = "curvatureE"
	PropCurvatureU   Property = "curvatureU"

	// Light source
	PropNumberOfRays           Property = "numberOfRays"
	PropLightSourceType        Property = "lightSourceType"
	PropDistributionType       Property = "distributionType"
	PropDistributionMean       Property = "distributionMean"
	PropDistributionCovariance Property = "distributionCovariance"
)

// Signal names raised by scene objects.
type Signal string

// SignalUpdated is raised after an edit of the object has been persisted.
const SignalUpdated Signal = "updated"

// Object is a selectable, editable item of the scene.
type Object interface {
	ID() uuid.UUID
	Kind() Kind
	Name() string

	// Get returns the current value of p and whether the object tracks p.
	Get(p Property) (any, bool)

	// Set assigns p through its setter, converting value when possible.
	Set(p Property, value any) error

	// Properties lists the tracked properties in display order.
	Properties() []Property

	// Duplicate returns an unsaved copy with a new ID.
	Duplicate() Object

	Subscribe(name Property, fn func(value any)) observable.Unsubscribe
	Connect(signal Signal, fn func()) observable.Unsubscribe
	Notify(signal Signal)
}

// Positioned is implemented by objects placed in the field.
type Positioned interface {
	Object
	Position() Vector3
	SetPosition(p Vector3)
}

// base carries the identity and subscriber tables shared by every object.
type base struct {
	observable.Observable[Property, Signal]
	id uuid.UUID
}

// ID returns the object's identifier.
func (b *base) ID() uuid.UUID {
	return b.id
}

// copyName returns the name given to a duplicate.
func copyName(name string, fallback string) string {
	if name == "" {
		return fallback + "_Copy"
	}
	return name + "_Copy"
}

func unknown(k Kind, p Property) error {
	return fmt.Errorf("%w: %s has no %q", ErrUnknownProperty, k, p)
}

// NewObject creates an unnamed object of kind k with default parameters.
func NewObject(k Kind) (Object, error) {
	switch k {
	case KindHeliostat:
		return NewHeliostat("", Vector3{}), nil
	case KindReceiver:
		return NewReceiver("", Vector3{}, DefaultReceiverParams()), nil
	case KindLightSource:
		return NewLightSource("", DefaultLightSourceParams()), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
}
