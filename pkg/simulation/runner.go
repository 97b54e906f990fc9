package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flocking"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// askTimeout bounds the snapshot request queued behind every pending tick.
const askTimeout = time.Minute

// Summary describes a population at the end of a headless run.
type Summary struct {
	Ticks     int
	Count     int
	MeanSpeed float64
	MaxSpeed  float64
	Centroid  geometry.Vector2D
}

// Summarize computes the aggregate motion of agents.
func Summarize(agents []flocking.Agent) Summary {
	s := Summary{Count: len(agents)}
	if len(agents) == 0 {
		return s
	}
	var sum geometry.Vector2D
	for _, a := range agents {
		speed := a.Velocity.Len()
		s.MeanSpeed += speed
		s.MaxSpeed = max(s.MaxSpeed, speed)
		sum = sum.Add(a.Position)
	}
	n := float64(len(agents))
	s.MeanSpeed /= n
	s.Centroid = sum.Mul(1 / n)
	return s
}

// RunHeadless spawns a world actor named name in system, ticks it without any
// renderer and reports the final population.
func RunHeadless(ctx context.Context, system actor.ActorSystem, name string, cfg *Config, ticks int, dt time.Duration, logger *zap.Logger) (*Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	world, err := NewWorldActor(nil, cfg, logger)
	if err != nil {
		return nil, err
	}
	pid, err := system.Spawn(ctx, name, world)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn world: %w", err)
	}

	for i := 0; i < ticks; i++ {
		if err := actor.Tell(ctx, pid, TickMessage(dt)); err != nil {
			return nil, fmt.Errorf("tick %d: %w", i, err)
		}
	}

	agents, err := AskSnapshot(ctx, pid)
	if err != nil {
		return nil, err
	}
	summary := Summarize(agents)
	summary.Ticks = ticks
	logger.Info("headless run finished",
		zap.Int("ticks", ticks),
		zap.Int("boids", summary.Count),
		zap.Float64("meanSpeed", summary.MeanSpeed),
		zap.Float64("maxSpeed", summary.MaxSpeed),
		zap.Stringer("centroid", summary.Centroid))
	return &summary, nil
}

// AskSnapshot requests the current agents of a world actor.
func AskSnapshot(ctx context.Context, pid *actor.PID) ([]flocking.Agent, error) {
	reply, err := actor.Ask(ctx, pid, SnapshotRequest(), askTimeout)
	if err != nil {
		return nil, fmt.Errorf("snapshot request failed: %w", err)
	}
	list, ok := reply.(*structpb.ListValue)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected snapshot reply %T", ErrBadMessage, reply)
	}
	return SnapshotFromProto(list)
}
