package simulation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flocking"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, flocking.DefaultParameters(), cfg.Parameters())
	assert.Equal(t, 50, cfg.BoidCount)
	assert.Equal(t, 1, cfg.Workers)
	assert.NoError(t, cfg.Parameters().Validate())
}

func TestLoadConfig(t *testing.T) {
	t.Run("partial file keeps defaults", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, `{"boidCount": 120, "speed": 3.5, "spatialGrid": true}`))
		require.NoError(t, err)
		assert.Equal(t, 120, cfg.BoidCount)
		assert.Equal(t, 3.5, cfg.Speed)
		assert.True(t, cfg.SpatialGrid)
		assert.Equal(t, DefaultConfig().RotationSpeed, cfg.RotationSpeed)
		assert.Equal(t, DefaultConfig().WorldWidth, cfg.WorldWidth)
	})

	t.Run("sample config", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join("..", "..", "config", "config.json"))
		require.NoError(t, err)
		assert.NoError(t, cfg.Parameters().Validate())
	})

	tests := []struct {
		name string
		body string
	}{
		{"unknown key", `{"boidz": 10}`},
		{"negative count", `{"boidCount": -1}`},
		{"zero speed", `{"speed": 0}`},
		{"wrong type", `{"speed": "fast"}`},
		{"negative radius", `{"neighborDistance": -2}`},
		{"not json", `{speed`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})
}

func TestConfig_Viewport(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WorldWidth, cfg.WorldHeight, cfg.PixelsPerUnit = 800, 400, 20
	assert.Equal(t, geometry.NewRect(-20, -10, 20, 10), cfg.Viewport())
	assert.Equal(t, geometry.NewRect(-30, -5, 30, 5), cfg.ViewportFor(1200, 200))
}

func TestConfig_FlockOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.SpatialGrid = true
	cfg.SpawnOriginX, cfg.SpawnOriginY = 2, -3
	cfg.SpawnRadius = 4

	f, err := flocking.New(cfg.FlockOptions(zaptest.NewLogger(t))...)
	require.NoError(t, err)
	require.NoError(t, f.Resize(30))

	assert.Equal(t, cfg.Parameters(), f.Parameters())
	assert.Equal(t, cfg.Viewport(), f.Boundary())
	origin := geometry.Vector2D{X: 2, Y: -3}
	for _, a := range f.Snapshot() {
		assert.LessOrEqual(t, a.Position.DistanceTo(origin), 4.0+geometry.Epsilon)
	}

	// same seed, same population
	g, err := flocking.New(cfg.FlockOptions(nil)...)
	require.NoError(t, err)
	require.NoError(t, g.Resize(30))
	assert.Equal(t, f.Snapshot(), g.Snapshot())
}
