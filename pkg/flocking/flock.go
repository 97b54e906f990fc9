// Package flocking implements the boids rules (separation, alignment, cohesion)
// and a Flock that advances a population of agents one tick at a time.
package flocking

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

var (
	// ErrInvalidBoundary is returned by SetBoundary when min >= max on an axis.
	ErrInvalidBoundary = errors.New("invalid flock boundary")
	// ErrNegativeCount is returned by Resize for a negative population.
	ErrNegativeCount = errors.New("agent count must be >= 0")
	// ErrDiverged is returned by Tick when an agent state overflows to Inf or NaN.
	ErrDiverged = errors.New("agent state is not finite")
)

// Unbounded is the boundary of a flock nobody has constrained yet.
var Unbounded = geometry.Rect{
	Min: geometry.Vector2D{X: math.Inf(-1), Y: math.Inf(-1)},
	Max: geometry.Vector2D{X: math.Inf(1), Y: math.Inf(1)},
}

// minAgentsPerWorker avoids paying goroutine overhead for tiny batches.
const minAgentsPerWorker = 32

// Flock owns a population of agents, their shared Parameters and the boundary.
// A Flock is driven by a single goroutine: Tick, Resize and the setters must not
// be called concurrently. Tick may fan out internally, see WithWorkers.
type Flock struct {
	agents []*Agent
	params Parameters
	bounds geometry.Rect

	origin      geometry.Vector2D
	spawnRadius float64
	rng         *rand.Rand

	index    NeighborIndex
	workers  int
	snapshot []State
	scratch  [][]State

	logger *zap.Logger
}

// Option configures a Flock at construction time.
type Option func(*Flock)

// WithParameters sets the initial tunables.
func WithParameters(p Parameters) Option {
	return func(f *Flock) { f.params = p }
}

// WithBoundary sets the initial reflection rectangle.
func WithBoundary(r geometry.Rect) Option {
	return func(f *Flock) { f.bounds = r }
}

// WithSpawn sets the disc new agents are placed in by Resize.
func WithSpawn(origin geometry.Vector2D, radius float64) Option {
	return func(f *Flock) {
		f.origin = origin
		f.spawnRadius = radius
	}
}

// WithSeed makes spawn positions reproducible.
func WithSeed(seed uint64) Option {
	return func(f *Flock) { f.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithWorkers splits Tick across n goroutines once the snapshot is taken.
func WithWorkers(n int) Option {
	return func(f *Flock) { f.workers = n }
}

// WithNeighborIndex replaces the brute force scan, e.g. with NewGrid().
func WithNeighborIndex(idx NeighborIndex) Option {
	return func(f *Flock) { f.index = idx }
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(f *Flock) { f.logger = l }
}

// New builds an empty flock. Call Resize or Replace to populate it.
func New(opts ...Option) (*Flock, error) {
	f := &Flock{
		params:      DefaultParameters(),
		bounds:      Unbounded,
		spawnRadius: 10,
		workers:     1,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.rng == nil {
		f.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if f.index == nil {
		f.index = &BruteForce{}
	}
	if f.workers < 1 {
		f.workers = 1
	}
	if err := f.params.Validate(); err != nil {
		return nil, err
	}
	if err := f.bounds.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBoundary, err)
	}
	if f.spawnRadius < 0 || math.IsNaN(f.spawnRadius) {
		return nil, fmt.Errorf("spawn radius must be >= 0, got %v", f.spawnRadius)
	}
	return f, nil
}

// Len returns the number of live agents.
func (f *Flock) Len() int {
	return len(f.agents)
}

// Parameters returns the tunables the next Tick will use.
func (f *Flock) Parameters() Parameters {
	return f.params
}

// Boundary returns the rectangle the next Tick will reflect against.
func (f *Flock) Boundary() geometry.Rect {
	return f.bounds
}

// SpawnArea returns the origin and radius used by Resize.
func (f *Flock) SpawnArea() (geometry.Vector2D, float64) {
	return f.origin, f.spawnRadius
}

// Snapshot copies the agents for rendering; the flock keeps ownership of its own.
func (f *Flock) Snapshot() []Agent {
	out := make([]Agent, len(f.agents))
	for i, a := range f.agents {
		out[i] = *a
	}
	return out
}

// SetParameters replaces every tunable at once. Invalid sets are rejected
// and the previous parameters stay in force.
func (f *Flock) SetParameters(p Parameters) error {
	if err := p.Validate(); err != nil {
		f.logger.Warn("rejected flocking parameters", zap.Error(err))
		return err
	}
	f.params = p
	return nil
}

// Configure applies a partial update on top of the current parameters.
func (f *Flock) Configure(u ParameterUpdate) error {
	return f.SetParameters(u.Apply(f.params))
}

// SetBoundary updates the reflection rectangle used from the next Tick on.
func (f *Flock) SetBoundary(r geometry.Rect) error {
	if err := r.Validate(); err != nil {
		f.logger.Warn("rejected flock boundary", zap.Stringer("rect", r))
		return fmt.Errorf("%w: %w", ErrInvalidBoundary, err)
	}
	f.bounds = r
	return nil
}

// Resize drops every agent and spawns count fresh ones inside the spawn disc,
// all heading along DefaultHeading at the current speed.
func (f *Flock) Resize(count int) error {
	if count < 0 {
		f.logger.Warn("rejected resize", zap.Int("count", count))
		return fmt.Errorf("%w: got %d", ErrNegativeCount, count)
	}
	agents := make([]*Agent, count)
	for i := range agents {
		agents[i] = f.spawn()
	}
	f.agents = agents
	f.logger.Debug("flock resized", zap.Int("count", count))
	return nil
}

// Replace swaps the population for copies of the given agents.
func (f *Flock) Replace(agents []Agent) {
	f.agents = make([]*Agent, len(agents))
	for i := range agents {
		a := agents[i]
		f.agents[i] = &a
	}
}

func (f *Flock) spawn() *Agent {
	// sqrt keeps the density uniform over the disc
	r := f.spawnRadius * math.Sqrt(f.rng.Float64())
	theta := 2 * math.Pi * f.rng.Float64()
	return &Agent{
		Position:    f.origin.Add(geometry.NewVectorPolar(r, theta)),
		Velocity:    DefaultHeading.Mul(f.params.Speed),
		Orientation: DefaultHeading.Angle(),
	}
}

// Tick advances every agent by dt seconds. All agents steer from the same
// pre-tick snapshot, so the update order never matters. Every agent is stepped
// even when one diverges; the first ErrDiverged found is returned.
func (f *Flock) Tick(dt float64) error {
	n := len(f.agents)
	if n == 0 {
		return nil
	}

	f.snapshot = f.snapshot[:0]
	for _, a := range f.agents {
		f.snapshot = append(f.snapshot, a.State())
	}
	f.index.Rebuild(f.snapshot, math.Max(f.params.NeighborDistance, f.params.AvoidanceDistance))

	workers := min(f.workers, n/minAgentsPerWorker)
	if workers <= 1 {
		f.scratch = f.ensureScratch(1)
		var err error
		f.scratch[0], err = f.stepRange(0, n, dt, f.scratch[0])
		return err
	}

	f.scratch = f.ensureScratch(workers)
	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, min((w+1)*chunk, n)
		if lo >= hi {
			break
		}
		g.Go(func() error {
			var err error
			f.scratch[w], err = f.stepRange(lo, hi, dt, f.scratch[w])
			return err
		})
	}
	return g.Wait()
}

func (f *Flock) stepRange(lo, hi int, dt float64, buf []State) ([]State, error) {
	var err error
	for i := lo; i < hi; i++ {
		buf = f.index.Candidates(i, buf[:0])
		a := f.agents[i]
		a.Step(buf, f.params, f.bounds, dt)
		if err == nil && !(finite(a.Position) && finite(a.Velocity)) {
			err = fmt.Errorf("%w: agent %d at %s moving %s", ErrDiverged, i, a.Position, a.Velocity)
		}
	}
	return buf, err
}

func finite(v geometry.Vector2D) bool {
	return !math.IsInf(v.X, 0) && !math.IsNaN(v.X) && !math.IsInf(v.Y, 0) && !math.IsNaN(v.Y)
}

func (f *Flock) ensureScratch(n int) [][]State {
	for len(f.scratch) < n {
		f.scratch = append(f.scratch, nil)
	}
	return f.scratch
}
