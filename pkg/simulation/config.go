package simulation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flocking"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

//go:embed config.schema.json
var configSchema string

type Config struct {
	// Window in pixels, the world is centered on it
	WorldWidth    float64 `json:"worldWidth"`
	WorldHeight   float64 `json:"worldHeight"`
	PixelsPerUnit float64 `json:"pixelsPerUnit"`

	// Population
	BoidCount    int     `json:"boidCount"`
	SpawnRadius  float64 `json:"spawnRadius"`
	SpawnOriginX float64 `json:"spawnOriginX"`
	SpawnOriginY float64 `json:"spawnOriginY"`

	// Flocking tunables (see flocking.Parameters)
	Speed             float64 `json:"speed"`
	RotationSpeed     float64 `json:"rotationSpeed"`
	NeighborDistance  float64 `json:"neighborDistance"`
	AvoidanceDistance float64 `json:"avoidanceDistance"`
	MaxForce          float64 `json:"maxForce"`

	// Engine
	Seed        uint64 `json:"seed"` // 0 picks a random seed
	Workers     int    `json:"workers"`
	SpatialGrid bool   `json:"spatialGrid"`

	// Presentation only
	DisplayTrails bool `json:"displayTrails"`
	DisplayGizmo  bool `json:"displayGizmo"`
	TrailLength   int  `json:"trailLength"`
}

func DefaultConfig() *Config {
	p := flocking.DefaultParameters()
	return &Config{
		WorldWidth:        1000,
		WorldHeight:       800,
		PixelsPerUnit:     20,
		BoidCount:         50,
		SpawnRadius:       10,
		Speed:             p.Speed,
		RotationSpeed:     p.RotationSpeed,
		NeighborDistance:  p.NeighborDistance,
		AvoidanceDistance: p.AvoidanceDistance,
		MaxForce:          p.MaxForce,
		Workers:           1,
		DisplayTrails:     true,
		DisplayGizmo:      false,
		TrailLength:       30,
	}
}

// LoadConfig reads a JSON file, validates it against the embedded schema and
// overlays it on DefaultConfig, so a file only needs the keys it changes.
func LoadConfig(configFile string) (*Config, error) {
	sch, err := jsonschema.CompileString("config.schema.json", configSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Parameters().Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Parameters projects the tunables of the config.
func (c *Config) Parameters() flocking.Parameters {
	return flocking.Parameters{
		Speed:             c.Speed,
		RotationSpeed:     c.RotationSpeed,
		NeighborDistance:  c.NeighborDistance,
		AvoidanceDistance: c.AvoidanceDistance,
		MaxForce:          c.MaxForce,
	}
}

// Viewport is the world rectangle visible in a window of the configured size.
func (c *Config) Viewport() geometry.Rect {
	return c.ViewportFor(c.WorldWidth, c.WorldHeight)
}

// ViewportFor is the world rectangle, in world units, centered on a window of
// width x height pixels.
func (c *Config) ViewportFor(width, height float64) geometry.Rect {
	halfW := width / 2 / c.PixelsPerUnit
	halfH := height / 2 / c.PixelsPerUnit
	return geometry.NewRect(-halfW, -halfH, halfW, halfH)
}

// FlockOptions translates the engine settings into flocking options.
func (c *Config) FlockOptions(logger *zap.Logger) []flocking.Option {
	opts := []flocking.Option{
		flocking.WithParameters(c.Parameters()),
		flocking.WithBoundary(c.Viewport()),
		flocking.WithSpawn(geometry.Vector2D{X: c.SpawnOriginX, Y: c.SpawnOriginY}, c.SpawnRadius),
		flocking.WithWorkers(c.Workers),
	}
	if c.Seed != 0 {
		opts = append(opts, flocking.WithSeed(c.Seed))
	}
	if c.SpatialGrid {
		opts = append(opts, flocking.WithNeighborIndex(flocking.NewGrid()))
	}
	if logger != nil {
		opts = append(opts, flocking.WithLogger(logger))
	}
	return opts
}
