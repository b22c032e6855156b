package scene

import "github.com/google/uuid"

// TowerPlanar is the only receiver tower type currently modelled.
const TowerPlanar = "planar"

// ReceiverParams holds the optical parameters of a receiver.
type ReceiverParams struct {
	TowerType    string
	NormalVector Vector3
	PlaneE       float64
	PlaneU       float64
	ResolutionE  int
	ResolutionU  int
	CurvatureE   float64
	CurvatureU   float64
}

// DefaultReceiverParams returns the parameters of a new planar receiver.
func DefaultReceiverParams() ReceiverParams {
	return ReceiverParams{
		TowerType:    TowerPlanar,
		NormalVector: Vec(0, 1, 0),
		PlaneE:       8.629666667,
		PlaneU:       7.0,
		ResolutionE:  256,
		ResolutionU:  256,
	}
}

// Receiver is the target surface on a tower.
type Receiver struct {
	base
	name     string
	position Vector3
	params   ReceiverParams
}

// NewReceiver creates a receiver with a fresh ID.
func NewReceiver(name string, position Vector3, params ReceiverParams) *Receiver {
	return &Receiver{base: base{id: uuid.New()}, name: name, position: position, params: params}
}

func (r *Receiver) Kind() Kind             { return KindReceiver }
func (r *Receiver) Name() string           { return r.name }
func (r *Receiver) Position() Vector3      { return r.position }
func (r *Receiver) Params() ReceiverParams { return r.params }

func (r *Receiver) Properties() []Property {
	return []Property{
		PropName, PropPosition, PropTowerType, PropNormalVector,
		PropPlaneE, PropPlaneU, PropResolutionE, PropResolutionU,
		PropCurvatureE, PropCurvatureU,
	}
}

func (r *Receiver) SetName(name string) {
	r.name = name
	r.Publish(PropName, name)
}

func (r *Receiver) SetPosition(p Vector3) {
	r.position = p
	r.Publish(PropPosition, p)
}

func (r *Receiver) SetTowerType(t string) {
	r.params.TowerType = t
	r.Publish(PropTowerType, t)
}

func (r *Receiver) SetNormalVector(v Vector3) {
	r.params.NormalVector = v
	r.Publish(PropNormalVector, v)
}

func (r *Receiver) SetPlaneE(v float64) {
	r.params.PlaneE = v
	r.Publish(PropPlaneE, v)
}

func (r *Receiver) SetPlaneU(v float64) {
	r.params.PlaneU = v
	r.Publish(PropPlaneU, v)
}

func (r *Receiver) SetResolutionE(v int) {
	r.params.ResolutionE = v
	r.Publish(PropResolutionE, v)
}

func (r *Receiver) SetResolutionU(v int) {
	r.params.ResolutionU = v
	r.Publish(PropResolutionU, v)
}

func (r *Receiver) SetCurvatureE(v float64) {
	r.params.CurvatureE = v
	r.Publish(PropCurvatureE, v)
}

func (r *Receiver) SetCurvatureU(v float64) {
	r.params.CurvatureU = v
	r.Publish(PropCurvatureU, v)
}

// Get returns the value of p.
func (r *Receiver) Get(p Property) (any, bool) {
	switch p {
	case PropName:
		return r.name, true
	case PropPosition:
		return r.position, true
	case PropTowerType:
		return r.params.TowerType, true
	case PropNormalVector:
		return r.params.NormalVector, true
	case PropPlaneE:
		return r.params.PlaneE, true
	case PropPlaneU:
		return r.params.PlaneU, true
	case PropResolutionE:
		return r.params.ResolutionE, true
	case PropResolutionU:
		return r.params.ResolutionU, true
	case PropCurvatureE:
		return r.params.CurvatureE, true
	case PropCurvatureU:
		return r.params.CurvatureU, true
	}
	return nil, false
}

// Set assigns p through its setter.
func (r *Receiver) Set(p Property, value any) error {
	switch p {
	case PropName, PropTowerType:
		s, err := asString(p, value)
		if err != nil {
			return err
		}
		if p == PropName {
			r.SetName(s)
		} else {
			r.SetTowerType(s)
		}
	case PropPosition, PropNormalVector:
		v, err := asVector(p, value)
		if err != nil {
			return err
		}
		if p == PropPosition {
			r.SetPosition(v)
		} else {
			r.SetNormalVector(v)
		}
	case PropPlaneE, PropPlaneU, PropCurvatureE, PropCurvatureU:
		f, err := asFloat(p, value)
		if err != nil {
			return err
		}
		switch p {
		case PropPlaneE:
			r.SetPlaneE(f)
		case PropPlaneU:
			r.SetPlaneU(f)
		case PropCurvatureE:
			r.SetCurvatureE(f)
		default:
			r.SetCurvatureU(f)
		}
	case PropResolutionE, PropResolutionU:
		n, err := asInt(p, value)
		if err != nil {
			return err
		}
		if p == PropResolutionE {
			r.SetResolutionE(n)
		} else {
			r.SetResolutionU(n)
		}
	default:
		return unknown(KindReceiver, p)
	}
	return nil
}

// Duplicate returns a copy offset 35 metres south.
func (r *Receiver) Duplicate() Object {
	return NewReceiver(copyName(r.name, "Receiver"), r.position.Add(Vec(0, 0, -35)), r.params)
}
