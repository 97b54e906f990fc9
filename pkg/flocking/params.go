package flocking

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameters is wrapped by every Parameters validation failure.
var ErrInvalidParameters = errors.New("invalid flocking parameters")

// Parameters are the tunables shared by every agent of a flock.
// They are passed into each Step call instead of being looked up by the agents.
type Parameters struct {
	Speed             float64 `json:"speed"`             // max scalar speed
	RotationSpeed     float64 `json:"rotationSpeed"`     // heading interpolation rate per second
	NeighborDistance  float64 `json:"neighborDistance"`  // alignment and cohesion radius
	AvoidanceDistance float64 `json:"avoidanceDistance"` // separation radius
	MaxForce          float64 `json:"maxForce"`          // clamp for alignment and cohesion
}

// DefaultParameters returns the tunables a fresh flock starts with.
func DefaultParameters() Parameters {
	return Parameters{
		Speed:             2.0,
		RotationSpeed:     4.0,
		NeighborDistance:  3.0,
		AvoidanceDistance: 1.0,
		MaxForce:          0.5,
	}
}

// Validate checks the ranges of every field.
func (p Parameters) Validate() error {
	checks := []struct {
		name     string
		value    float64
		positive bool
	}{
		{"speed", p.Speed, true},
		{"rotationSpeed", p.RotationSpeed, true},
		{"neighborDistance", p.NeighborDistance, false},
		{"avoidanceDistance", p.AvoidanceDistance, false},
		{"maxForce", p.MaxForce, false},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidParameters, c.name, c.value)
		}
		if c.positive && c.value <= 0 {
			return fmt.Errorf("%w: %s must be > 0, got %v", ErrInvalidParameters, c.name, c.value)
		}
		if !c.positive && c.value < 0 {
			return fmt.Errorf("%w: %s must be >= 0, got %v", ErrInvalidParameters, c.name, c.value)
		}
	}
	return nil
}

// ParameterUpdate is a partial set of tunables; nil fields keep their current value.
type ParameterUpdate struct {
	Speed             *float64 `json:"speed,omitempty"`
	RotationSpeed     *float64 `json:"rotationSpeed,omitempty"`
	NeighborDistance  *float64 `json:"neighborDistance,omitempty"`
	AvoidanceDistance *float64 `json:"avoidanceDistance,omitempty"`
	MaxForce          *float64 `json:"maxForce,omitempty"`
}

// IsEmpty reports whether the update carries no field at all.
func (u ParameterUpdate) IsEmpty() bool {
	return u.Speed == nil && u.RotationSpeed == nil && u.NeighborDistance == nil &&
		u.AvoidanceDistance == nil && u.MaxForce == nil
}

// Apply returns p with every non nil field of u replaced.
func (u ParameterUpdate) Apply(p Parameters) Parameters {
	if u.Speed != nil {
		p.Speed = *u.Speed
	}
	if u.RotationSpeed != nil {
		p.RotationSpeed = *u.RotationSpeed
	}
	if u.NeighborDistance != nil {
		p.NeighborDistance = *u.NeighborDistance
	}
	if u.AvoidanceDistance != nil {
		p.AvoidanceDistance = *u.AvoidanceDistance
	}
	if u.MaxForce != nil {
		p.MaxForce = *u.MaxForce
	}
	return p
}

// Float is a small helper to fill ParameterUpdate literals.
func Float(v float64) *float64 {
	return &v
}

// Diff returns the update that turns from into to, carrying only changed fields.
func Diff(from, to Parameters) ParameterUpdate {
	var u ParameterUpdate
	if from.Speed != to.Speed {
		u.Speed = Float(to.Speed)
	}
	if from.RotationSpeed != to.RotationSpeed {
		u.RotationSpeed = Float(to.RotationSpeed)
	}
	if from.NeighborDistance != to.NeighborDistance {
		u.NeighborDistance = Float(to.NeighborDistance)
	}
	if from.AvoidanceDistance != to.AvoidanceDistance {
		u.AvoidanceDistance = Float(to.AvoidanceDistance)
	}
	if from.MaxForce != to.MaxForce {
		u.MaxForce = Float(to.MaxForce)
	}
	return u
}
