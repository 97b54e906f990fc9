package simulation

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flocking"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// The world actor speaks protobuf well-known types:
//
//	*durationpb.Duration  tick by dt
//	*wrapperspb.Int64Value resize the population
//	*structpb.Struct      configure any subset of the tunables
//	*structpb.ListValue   set the boundary [minX, minY, maxX, maxY]
//	*emptypb.Empty        ask for a snapshot, answered with a *structpb.ListValue

// ErrBadMessage is wrapped by every decoding failure.
var ErrBadMessage = errors.New("malformed world message")

const (
	keySpeed             = "speed"
	keyRotationSpeed     = "rotationSpeed"
	keyNeighborDistance  = "neighborDistance"
	keyAvoidanceDistance = "avoidanceDistance"
	keyMaxForce          = "maxForce"

	keyPosition    = "position"
	keyVelocity    = "velocity"
	keyOrientation = "orientation"
)

// TickMessage asks the world to advance by dt.
func TickMessage(dt time.Duration) *durationpb.Duration {
	return durationpb.New(dt)
}

// ResizeMessage asks the world to rebuild its population.
func ResizeMessage(count int) *wrapperspb.Int64Value {
	return wrapperspb.Int64(int64(count))
}

// SnapshotRequest asks the world for the current agents.
func SnapshotRequest() *emptypb.Empty {
	return &emptypb.Empty{}
}

// ConfigureMessage encodes only the fields set in u.
func ConfigureMessage(u flocking.ParameterUpdate) *structpb.Struct {
	fields := make(map[string]*structpb.Value, 5)
	put := func(key string, v *float64) {
		if v != nil {
			fields[key] = structpb.NewNumberValue(*v)
		}
	}
	put(keySpeed, u.Speed)
	put(keyRotationSpeed, u.RotationSpeed)
	put(keyNeighborDistance, u.NeighborDistance)
	put(keyAvoidanceDistance, u.AvoidanceDistance)
	put(keyMaxForce, u.MaxForce)
	return &structpb.Struct{Fields: fields}
}

// ParameterUpdateFromProto decodes a ConfigureMessage. Unknown keys are rejected.
func ParameterUpdateFromProto(s *structpb.Struct) (flocking.ParameterUpdate, error) {
	var u flocking.ParameterUpdate
	for key, value := range s.GetFields() {
		n, ok := value.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return flocking.ParameterUpdate{}, fmt.Errorf("%w: %q is not a number", ErrBadMessage, key)
		}
		v := flocking.Float(n.NumberValue)
		switch key {
		case keySpeed:
			u.Speed = v
		case keyRotationSpeed:
			u.RotationSpeed = v
		case keyNeighborDistance:
			u.NeighborDistance = v
		case keyAvoidanceDistance:
			u.AvoidanceDistance = v
		case keyMaxForce:
			u.MaxForce = v
		default:
			return flocking.ParameterUpdate{}, fmt.Errorf("%w: unknown parameter %q", ErrBadMessage, key)
		}
	}
	return u, nil
}

// BoundaryMessage encodes a rectangle as [minX, minY, maxX, maxY].
func BoundaryMessage(r geometry.Rect) *structpb.ListValue {
	return numberList(r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
}

// BoundaryFromProto decodes a BoundaryMessage without validating it.
func BoundaryFromProto(l *structpb.ListValue) (geometry.Rect, error) {
	n, err := numbers(l, 4)
	if err != nil {
		return geometry.Rect{}, err
	}
	return geometry.NewRect(n[0], n[1], n[2], n[3]), nil
}

// SnapshotToProto encodes agents as a list of {position, velocity, orientation} structs.
func SnapshotToProto(agents []flocking.Agent) *structpb.ListValue {
	values := make([]*structpb.Value, len(agents))
	for i, a := range agents {
		values[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			keyPosition:    structpb.NewListValue(numberList(a.Position.X, a.Position.Y)),
			keyVelocity:    structpb.NewListValue(numberList(a.Velocity.X, a.Velocity.Y)),
			keyOrientation: structpb.NewNumberValue(a.Orientation),
		}})
	}
	return &structpb.ListValue{Values: values}
}

// SnapshotFromProto is the inverse of SnapshotToProto.
func SnapshotFromProto(l *structpb.ListValue) ([]flocking.Agent, error) {
	agents := make([]flocking.Agent, 0, len(l.GetValues()))
	for i, v := range l.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("%w: agent %d is not a struct", ErrBadMessage, i)
		}
		pos, err := numbers(s.GetFields()[keyPosition].GetListValue(), 2)
		if err != nil {
			return nil, fmt.Errorf("agent %d position: %w", i, err)
		}
		vel, err := numbers(s.GetFields()[keyVelocity].GetListValue(), 2)
		if err != nil {
			return nil, fmt.Errorf("agent %d velocity: %w", i, err)
		}
		agents = append(agents, flocking.Agent{
			Position:    geometry.Vector2D{X: pos[0], Y: pos[1]},
			Velocity:    geometry.Vector2D{X: vel[0], Y: vel[1]},
			Orientation: s.GetFields()[keyOrientation].GetNumberValue(),
		})
	}
	return agents, nil
}

func numberList(v ...float64) *structpb.ListValue {
	values := make([]*structpb.Value, len(v))
	for i, x := range v {
		values[i] = structpb.NewNumberValue(x)
	}
	return &structpb.ListValue{Values: values}
}

func numbers(l *structpb.ListValue, want int) ([]float64, error) {
	values := l.GetValues()
	if len(values) != want {
		return nil, fmt.Errorf("%w: want %d numbers, got %d", ErrBadMessage, want, len(values))
	}
	out := make([]float64, want)
	for i, v := range values {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is not a number", ErrBadMessage, i)
		}
		out[i] = n.NumberValue
	}
	return out, nil
}
