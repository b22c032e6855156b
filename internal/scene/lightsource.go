package scene

import "github.com/google/uuid"

// Light source types and ray distributions.
const (
	LightSourceSun     = "sun"
	DistributionNormal = "normal"
)

// LightSourceParams holds the ray tracing parameters of a light source.
type LightSourceParams struct {
	NumberOfRays           int
	Type                   string
	DistributionType       string
	DistributionMean       float64
	DistributionCovariance float64
}

// DefaultLightSourceParams returns the parameters of a new sun.
func DefaultLightSourceParams() LightSourceParams {
	return LightSourceParams{
		NumberOfRays:           100,
		Type:                   LightSourceSun,
		DistributionType:       DistributionNormal,
		DistributionMean:       0,
		DistributionCovariance: 4.3681e-06,
	}
}

// LightSource is a ray source. It has no position in the field.
type LightSource struct {
	base
	name   string
	params LightSourceParams
}

// NewLightSource creates a light source with a fresh ID.
func NewLightSource(name string, params LightSourceParams) *LightSource {
	return &LightSource{base: base{id: uuid.New()}, name: name, params: params}
}

func (l *LightSource) Kind() Kind                { return KindLightSource }
func (l *LightSource) Name() string              { return l.name }
func (l *LightSource) Params() LightSourceParams { return l.params }

func (l *LightSource) Properties() []Property {
	return []Property{
		PropName, PropNumberOfRays, PropLightSourceType, PropDistributionType,
		PropDistributionMean, PropDistributionCovariance,
	}
}

func (l *LightSource) SetName(name string) {
	l.name = name
	l.Publish(PropName, name)
}

func (l *LightSource) SetNumberOfRays(n int) {
	l.params.NumberOfRays = n
	l.Publish(PropNumberOfRays, n)
}

func (l *LightSource) SetType(t string) {
	l.params.Type = t
	l.Publish(PropLightSourceType, t)
}

func (l *LightSource) SetDistributionType(t string) {
	l.params.DistributionType = t
	l.Publish(PropDistributionType, t)
}

func (l *LightSource) SetDistributionMean(v float64) {
	l.params.DistributionMean = v
	l.Publish(PropDistributionMean, v)
}

func (l *LightSource) SetDistributionCovariance(v float64) {
	l.params.DistributionCovariance = v
	l.Publish(PropDistributionCovariance, v)
}

// Get returns the value of p.
func (l *LightSource) Get(p Property) (any, bool) {
	switch p {
	case PropName:
		return l.name, true
	case PropNumberOfRays:
		return l.params.NumberOfRays, true
	case PropLightSourceType:
		return l.params.Type, true
	case PropDistributionType:
		return l.params.DistributionType, true
	case PropDistributionMean:
		return l.params.DistributionMean, true
	case PropDistributionCovariance:
		return l.params.DistributionCovariance, true
	}
	return nil, false
}

// Set assigns p through its setter.
func (l *LightSource) Set(p Property, value any) error {
	switch p {
	case PropName, PropLightSourceType, PropDistributionType:
		s, err := asString(p, value)
		if err != nil {
			return err
		}
		switch p {
		case PropName:
			l.SetName(s)
		case PropLightSourceType:
			l.SetType(s)
		default:
			l.SetDistributionType(s)
		}
	case PropNumberOfRays:
		n, err := asInt(p, value)
		if err != nil {
			return err
		}
		l.SetNumberOfRays(n)
	case PropDistributionMean, PropDistributionCovariance:
		f, err := asFloat(p, value)
		if err != nil {
			return err
		}
		if p == PropDistributionMean {
			l.SetDistributionMean(f)
		} else {
			l.SetDistributionCovariance(f)
		}
	default:
		return unknown(KindLightSource, p)
	}
	return nil
}

// Duplicate returns a copy with the same parameters.
func (l *LightSource) Duplicate() Object {
	return NewLightSource(copyName(l.name, "lightsource"), l.params)
}
