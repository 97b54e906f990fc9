package simulation

import (
	"fmt"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flocking"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// WorldSnapshot is what the world pushes to the renderer after every tick.
type WorldSnapshot struct {
	Tick       uint64
	Agents     []flocking.Agent
	Parameters flocking.Parameters
	Boundary   geometry.Rect
}

// WorldActor owns the Flock. Its mailbox serializes every command, so tunables,
// boundary and population only ever change between two ticks.
type WorldActor struct {
	flock      *flocking.Flock
	cfg        *Config
	snapshotCh chan<- *WorldSnapshot

	ticks uint64
	// --- Benchmark Stats ---
	ticksSinceLog int
	lastLogTime   time.Time
}

var _ actor.Actor = (*WorldActor)(nil)

// NewWorldActor builds the flock described by cfg. snapshotCh may be nil
// when nobody renders (headless runs, tests).
func NewWorldActor(snapshotCh chan<- *WorldSnapshot, cfg *Config, logger *zap.Logger) (*WorldActor, error) {
	flock, err := flocking.New(cfg.FlockOptions(logger)...)
	if err != nil {
		return nil, fmt.Errorf("failed to build flock: %w", err)
	}
	return &WorldActor{
		flock:       flock,
		cfg:         cfg,
		snapshotCh:  snapshotCh,
		lastLogTime: time.Now(),
	}, nil
}

func (w *WorldActor) PreStart(ctx *actor.Context) error {
	if err := w.flock.Resize(w.cfg.BoidCount); err != nil {
		return err
	}
	ctx.ActorSystem().Logger().Infof("World is spawning %d boids...", w.flock.Len())
	return nil
}

func (w *WorldActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Info("World started")

	case *durationpb.Duration:
		if err := w.flock.Tick(msg.AsDuration().Seconds()); err != nil {
			ctx.Logger().Warnf("tick %d: %v", w.ticks+1, err)
		}
		w.ticks++
		w.logBenchmarks(ctx)
		w.pushSnapshot()

	case *wrapperspb.Int64Value:
		if err := w.flock.Resize(int(msg.GetValue())); err != nil {
			ctx.Logger().Warnf("resize ignored: %v", err)
		}

	case *structpb.Struct:
		update, err := ParameterUpdateFromProto(msg)
		if err == nil {
			err = w.flock.Configure(update)
		}
		if err != nil {
			ctx.Logger().Warnf("configure ignored: %v", err)
		}

	case *structpb.ListValue:
		rect, err := BoundaryFromProto(msg)
		if err == nil {
			err = w.flock.SetBoundary(rect)
		}
		if err != nil {
			ctx.Logger().Warnf("boundary ignored: %v", err)
		}

	case *emptypb.Empty:
		ctx.Response(SnapshotToProto(w.flock.Snapshot()))

	default:
		ctx.Unhandled()
	}
}

func (w *WorldActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Info("World is shutdown...")
	return nil
}

func (w *WorldActor) logBenchmarks(ctx *actor.ReceiveContext) {
	w.ticksSinceLog++
	if time.Since(w.lastLogTime) >= time.Second {
		ctx.Logger().Debugf("📊 TICK RATE: %d/sec | Boids: %d", w.ticksSinceLog, w.flock.Len())
		w.ticksSinceLog = 0
		w.lastLogTime = time.Now()
	}
}

func (w *WorldActor) pushSnapshot() {
	if w.snapshotCh == nil {
		return
	}
	select {
	case w.snapshotCh <- w.buildSnapshot():
	default:
		// UI busy, skip frame
	}
}

func (w *WorldActor) buildSnapshot() *WorldSnapshot {
	return &WorldSnapshot{
		Tick:       w.ticks,
		Agents:     w.flock.Snapshot(),
		Parameters: w.flock.Parameters(),
		Boundary:   w.flock.Boundary(),
	}
}
