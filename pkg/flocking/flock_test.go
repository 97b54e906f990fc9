package flocking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

func newTestFlock(t *testing.T, opts ...Option) *Flock {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t)), WithSeed(42)}, opts...)
	f, err := New(opts...)
	require.NoError(t, err)
	return f
}

func TestNew_RejectsInvalidOptions(t *testing.T) {
	_, err := New(WithParameters(Parameters{Speed: 0, RotationSpeed: 1}))
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = New(WithBoundary(geometry.NewRect(1, 1, 0, 0)))
	assert.ErrorIs(t, err, ErrInvalidBoundary)

	_, err = New(WithSpawn(vec(0, 0), -1))
	assert.Error(t, err)
}

func TestFlock_TickEmpty(t *testing.T) {
	f := newTestFlock(t)
	require.NoError(t, f.Resize(0))

	assert.NoError(t, f.Tick(0.016))
	assert.NoError(t, f.Tick(0))
	assert.Zero(t, f.Len())
	assert.Empty(t, f.Snapshot())
}

func TestFlock_SpeedClampInvariant(t *testing.T) {
	f := newTestFlock(t,
		WithSpawn(vec(0, 0), 5),
		WithBoundary(geometry.NewRect(-8, -6, 8, 6)),
		WithParameters(Parameters{Speed: 3, RotationSpeed: 4, NeighborDistance: 3, AvoidanceDistance: 1, MaxForce: 5}),
	)
	require.NoError(t, f.Resize(120))

	for tick := 0; tick < 200; tick++ {
		require.NoError(t, f.Tick(1.0/30))
		for i, a := range f.Snapshot() {
			require.LessOrEqual(t, a.Velocity.Len(), f.Parameters().Speed+1e-12, "tick %d agent %d", tick, i)
			require.False(t, math.IsNaN(a.Position.X) || math.IsNaN(a.Position.Y))
		}
	}
}

func TestFlock_ResizeSequence(t *testing.T) {
	f := newTestFlock(t, WithSpawn(vec(3, -2), 10))
	origin, radius := f.SpawnArea()
	require.Equal(t, vec(3, -2), origin)
	require.Equal(t, 10.0, radius)

	require.NoError(t, f.Resize(50))
	require.Equal(t, 50, f.Len())
	require.NoError(t, f.Resize(0))
	require.Zero(t, f.Len())
	require.NoError(t, f.Resize(10))

	agents := f.Snapshot()
	require.Len(t, agents, 10)
	for _, a := range agents {
		assert.LessOrEqual(t, a.Position.DistanceTo(origin), radius+1e-9)
		assertVecInDelta(t, DefaultHeading.Mul(f.Parameters().Speed), a.Velocity, 0)
		assert.InDelta(t, math.Pi/2, a.Orientation, 1e-12)
	}
}

func TestFlock_ResizeNegativeKeepsPopulation(t *testing.T) {
	f := newTestFlock(t)
	require.NoError(t, f.Resize(7))
	before := f.Snapshot()

	err := f.Resize(-1)

	assert.ErrorIs(t, err, ErrNegativeCount)
	assert.Equal(t, before, f.Snapshot())
}

func TestFlock_SetBoundary(t *testing.T) {
	f := newTestFlock(t)
	valid := geometry.NewRect(-10, -5, 10, 5)
	require.NoError(t, f.SetBoundary(valid))

	err := f.SetBoundary(geometry.NewRect(0, 0, 0, 5))
	assert.ErrorIs(t, err, ErrInvalidBoundary)
	assert.ErrorIs(t, err, geometry.ErrEmptyRect)
	assert.Equal(t, valid, f.Boundary(), "last valid boundary is retained")
}

func TestFlock_Configure(t *testing.T) {
	f := newTestFlock(t)

	require.NoError(t, f.Configure(ParameterUpdate{MaxForce: Float(1.5)}))
	want := DefaultParameters()
	want.MaxForce = 1.5
	assert.Equal(t, want, f.Parameters())

	err := f.Configure(ParameterUpdate{NeighborDistance: Float(4), Speed: Float(-1)})
	assert.ErrorIs(t, err, ErrInvalidParameters)
	assert.Equal(t, want, f.Parameters(), "a rejected update changes nothing")

	require.NoError(t, f.SetParameters(Parameters{Speed: 5, RotationSpeed: 1, MaxForce: 0}))
	assert.Equal(t, 5.0, f.Parameters().Speed)
}

func TestFlock_PreTickSnapshot(t *testing.T) {
	// 3 agents: (0,0) and (1,0) repel each other while (10,10) is out of reach.
	p := Parameters{Speed: 2, RotationSpeed: 4, NeighborDistance: 5, AvoidanceDistance: 2, MaxForce: 0.5}
	f := newTestFlock(t, WithParameters(p))
	f.Replace([]Agent{
		{Position: vec(0, 0)},
		{Position: vec(1, 0)},
		{Position: vec(10, 10)},
	})

	require.NoError(t, f.Tick(1))

	got := f.Snapshot()
	// separation (-1,0) normalized, cohesion (1,0) clamped to 0.5
	assertVecInDelta(t, vec(-0.5, 0), got[0].Velocity, 1e-12)
	assertVecInDelta(t, vec(-0.5, 0), got[0].Position, 1e-12)
	// same rule seen from the other side: it reads (0,0), not the moved agent
	assertVecInDelta(t, vec(0.5, 0), got[1].Velocity, 1e-12)
	assertVecInDelta(t, vec(1.5, 0), got[1].Position, 1e-12)
	// the far agent is untouched
	assert.True(t, got[2].Velocity.IsZero())
	assertVecInDelta(t, vec(10, 10), got[2].Position, 0)
}

func TestFlock_AlignmentConvergesWhenStacked(t *testing.T) {
	p := Parameters{Speed: 100, RotationSpeed: 4, NeighborDistance: 1, AvoidanceDistance: 0, MaxForce: 100}
	f := newTestFlock(t, WithParameters(p))
	start := []Agent{
		{Velocity: vec(1, 0)},
		{Velocity: vec(0, 2)},
		{Velocity: vec(-3, 1)},
		{Velocity: vec(2, -2)},
	}
	f.Replace(start)

	require.NoError(t, f.Tick(1))

	// v' = v + mean(others): pairwise spread shrinks by (n-2)/(n-1)
	got := f.Snapshot()
	ratio := float64(len(start)-2) / float64(len(start)-1)
	for i := range got {
		for j := i + 1; j < len(got); j++ {
			before := start[i].Velocity.Sub(start[j].Velocity).Len()
			after := got[i].Velocity.Sub(got[j].Velocity).Len()
			assert.InDelta(t, before*ratio, after, 1e-9, "pair %d,%d", i, j)
		}
	}

	// with two agents they agree after a single tick
	f.Replace(start[:2])
	require.NoError(t, f.Tick(1))
	pair := f.Snapshot()
	assertVecInDelta(t, pair[0].Velocity, pair[1].Velocity, 1e-12)
	assertVecInDelta(t, vec(1, 2), pair[0].Velocity, 1e-12)
}

func TestFlock_ZeroDtIsIdempotent(t *testing.T) {
	f := newTestFlock(t, WithBoundary(geometry.NewRect(-1, -1, 1, 1)))
	require.NoError(t, f.Resize(30))
	require.NoError(t, f.Tick(0.1))
	before := f.Snapshot()

	require.NoError(t, f.Tick(0))
	require.NoError(t, f.Tick(0))

	assert.Equal(t, before, f.Snapshot())
}

func TestFlock_Deterministic(t *testing.T) {
	run := func(ticks int, opts ...Option) []Agent {
		f := newTestFlock(t, append([]Option{
			WithSpawn(vec(0, 0), 8),
			WithBoundary(geometry.NewRect(-12, -9, 12, 9)),
		}, opts...)...)
		require.NoError(t, f.Resize(150))
		for i := 0; i < ticks; i++ {
			require.NoError(t, f.Tick(1.0/60))
		}
		return f.Snapshot()
	}

	reference := run(60)
	assert.Equal(t, reference, run(60), "same seed, same trajectory")
	assert.Equal(t, reference, run(60, WithWorkers(4)), "parallel tick matches the serial one")

	// the grid only changes the summation order
	brute := run(5)
	grid := run(5, WithNeighborIndex(NewGrid()))
	require.Len(t, grid, len(brute))
	for i := range brute {
		assertVecInDelta(t, brute[i].Position, grid[i].Position, 1e-9, "agent %d", i)
		assertVecInDelta(t, brute[i].Velocity, grid[i].Velocity, 1e-9, "agent %d", i)
	}
}

func TestFlock_ParallelTickLeavesNoGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newTestFlock(t, WithWorkers(8))
	require.NoError(t, f.Resize(512))
	for i := 0; i < 10; i++ {
		require.NoError(t, f.Tick(0.02))
	}
	assert.Equal(t, 512, f.Len())
}

func TestFlock_TickReportsDivergence(t *testing.T) {
	for _, workers := range []int{1, 4} {
		f := newTestFlock(t, WithBoundary(Unbounded), WithWorkers(workers))
		require.NoError(t, f.Resize(256))

		err := f.Tick(1e308)

		assert.ErrorIs(t, err, ErrDiverged, "workers=%d", workers)
		assert.Equal(t, 256, f.Len(), "workers=%d", workers)
	}
}

func TestFlock_SnapshotIsACopy(t *testing.T) {
	f := newTestFlock(t)
	require.NoError(t, f.Resize(3))

	snap := f.Snapshot()
	snap[0].Position = vec(1e6, 1e6)

	assert.NotEqual(t, snap[0].Position, f.Snapshot()[0].Position)
}

func BenchmarkFlock_TickBruteForce(b *testing.B) {
	benchmarkTick(b)
}

func BenchmarkFlock_TickGrid(b *testing.B) {
	benchmarkTick(b, WithNeighborIndex(NewGrid()))
}

func BenchmarkFlock_TickParallel(b *testing.B) {
	benchmarkTick(b, WithWorkers(4))
}

func benchmarkTick(b *testing.B, opts ...Option) {
	f, err := New(append([]Option{WithSeed(1), WithSpawn(vec(0, 0), 25)}, opts...)...)
	if err != nil {
		b.Fatal(err)
	}
	if err := f.Resize(500); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := f.Tick(1.0 / 60); err != nil {
			b.Fatal(err)
		}
	}
}
