package flocking

import (
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// DefaultHeading is the direction new agents face when spawned ("up").
var DefaultHeading = geometry.Vector2D{X: 0, Y: 1}

// State is the part of an agent its neighbors are allowed to read.
type State struct {
	Position geometry.Vector2D
	Velocity geometry.Vector2D
}

// Agent is a single boid ("bird-oid object", Craig Reynolds 1986).
// Orientation is a display heading in radians that trails the velocity angle.
type Agent struct {
	Position    geometry.Vector2D `json:"position"`
	Velocity    geometry.Vector2D `json:"velocity"`
	Orientation float64           `json:"orientation"`
}

// Steering holds the per-rule contributions computed for one tick.
type Steering struct {
	Separation geometry.Vector2D // raw sum of push-away vectors, not normalized
	Alignment  geometry.Vector2D // average neighbor velocity clamped to MaxForce
	Cohesion   geometry.Vector2D // unit direction to the neighbors centroid clamped to MaxForce
	Neighbors  int               // agents strictly inside NeighborDistance
	Crowding   int               // agents strictly inside AvoidanceDistance
}

// Force is the velocity change per second produced by the three rules.
// Only the direction of the separation sum survives.
func (s Steering) Force() geometry.Vector2D {
	return s.Separation.Normalize().Add(s.Alignment).Add(s.Cohesion)
}

// State returns the neighbor-visible part of the agent.
func (a *Agent) State() State {
	return State{Position: a.Position, Velocity: a.Velocity}
}

// Steer evaluates separation, alignment and cohesion against neighbors.
// neighbors must not contain the agent itself; agents outside both radii are ignored,
// so callers may pass a pre-filtered list or everybody else.
func (a *Agent) Steer(neighbors []State, p Parameters) Steering {
	var s Steering
	avoidSq := p.AvoidanceDistance * p.AvoidanceDistance
	neighborSq := p.NeighborDistance * p.NeighborDistance

	var velSum, posSum geometry.Vector2D
	for _, other := range neighbors {
		offset := other.Position.Sub(a.Position)
		distSq := offset.LenSqr()

		if distSq < avoidSq {
			s.Separation = s.Separation.Sub(offset)
			s.Crowding++
		}
		if distSq < neighborSq {
			velSum = velSum.Add(other.Velocity)
			posSum = posSum.Add(other.Position)
			s.Neighbors++
		}
	}

	if s.Neighbors > 0 {
		inv := 1 / float64(s.Neighbors)
		s.Alignment = velSum.Mul(inv).ClampMagnitude(p.MaxForce)
		s.Cohesion = posSum.Mul(inv).Sub(a.Position).Normalize().ClampMagnitude(p.MaxForce)
	}
	return s
}

// Step advances the agent by dt seconds and returns the steering it applied.
// A dt <= 0 still evaluates steering and the speed clamp but moves nothing.
func (a *Agent) Step(neighbors []State, p Parameters, bounds geometry.Rect, dt float64) Steering {
	s := a.Steer(neighbors, p)
	if dt > 0 {
		a.Velocity = a.Velocity.Add(s.Force().Mul(dt))
	}
	a.Velocity = a.Velocity.ClampMagnitude(p.Speed)
	if dt <= 0 {
		return s
	}

	a.Position = a.Position.Add(a.Velocity.Mul(dt))
	a.turn(p.RotationSpeed * dt)
	a.reflect(bounds)
	return s
}

// turn eases Orientation towards the velocity angle; a still agent keeps its heading.
func (a *Agent) turn(t float64) {
	if a.Velocity.IsZero() {
		return
	}
	a.Orientation = geometry.SlerpAngle(a.Orientation, a.Velocity.Angle(), t)
}

// reflect flips a velocity component when the agent is past a border and still
// heading away from the inside, so a crossing produces a single flip.
func (a *Agent) reflect(b geometry.Rect) {
	if (a.Position.X > b.Max.X && a.Velocity.X > 0) || (a.Position.X < b.Min.X && a.Velocity.X < 0) {
		a.Velocity.X = -a.Velocity.X
	}
	if (a.Position.Y > b.Max.Y && a.Velocity.Y > 0) || (a.Position.Y < b.Min.Y && a.Velocity.Y < 0) {
		a.Velocity.Y = -a.Velocity.Y
	}
}
