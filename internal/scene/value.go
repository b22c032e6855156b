package scene

import (
	"fmt"
	"math"
)

// The as* helpers convert loosely typed values, such as those decoded from
// scripts or JSON, to property types.

func asString(p Property, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", invalid(p, v)
	}
	return s, nil
}

func asFloat(p Property, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	default:
		return 0, invalid(p, v)
	}
}

func asInt(p Property, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case int32:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, invalid(p, v)
		}
		return int(n), nil
	default:
		return 0, invalid(p, v)
	}
}

func asVector(p Property, v any) (Vector3, error) {
	switch vec := v.(type) {
	case Vector3:
		return vec, nil
	case *Vector3:
		if vec == nil {
			return Vector3{}, invalid(p, v)
		}
		return *vec, nil
	case map[string]any:
		var out Vector3
		var err error
		if out.X, err = asFloat(p, vec["x"]); err != nil {
			return Vector3{}, invalid(p, v)
		}
		if out.Y, err = asFloat(p, vec["y"]); err != nil {
			return Vector3{}, invalid(p, v)
		}
		if out.Z, err = asFloat(p, vec["z"]); err != nil {
			return Vector3{}, invalid(p, v)
		}
		return out, nil
	case []any:
		if len(vec) != 3 {
			return Vector3{}, invalid(p, v)
		}
		var xyz [3]float64
		for i, c := range vec {
			f, err := asFloat(p, c)
			if err != nil {
				return Vector3{}, invalid(p, v)
			}
			xyz[i] = f
		}
		return Vector3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
	default:
		return Vector3{}, invalid(p, v)
	}
}

func invalid(p Property, v any) error {
	return fmt.Errorf("%w for %s: %v (%T)", ErrInvalidValue, p, v, v)
}
