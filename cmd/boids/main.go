package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/viewer"
)

var (
	// Global flags
	verbose    bool
	configFile string
	count      int
	seed       uint64
	workers    int
	grid       bool

	// run flags
	ticks int
	dt    time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "boids",
	Short: "Flocking simulation (separation, alignment, cohesion)",
	Long: `boids opens a window showing a flock of agents steered by three local rules.
The sliders of the side panel tune speed, rotation speed, neighbor and avoidance
distances, the steering force clamp and the population size while it runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runWindow,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Tick the flock without a window and print a summary",
	Args:  cobra.NoArgs,
	RunE:  runHeadless,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "JSON config file (defaults apply when empty)")
	rootCmd.PersistentFlags().IntVar(&count, "count", -1, "override the number of boids")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "override the spawn seed (0 keeps the config value)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "override the number of tick workers")
	rootCmd.PersistentFlags().BoolVar(&grid, "grid", false, "use the spatial grid instead of the all-pairs scan")

	runCmd.Flags().IntVar(&ticks, "ticks", 600, "number of ticks to run")
	runCmd.Flags().DurationVar(&dt, "dt", time.Second/60, "time step per tick")

	rootCmd.AddCommand(runCmd)
}

// loadConfig applies the command line overrides on top of the config file.
func loadConfig() (*simulation.Config, error) {
	cfg := simulation.DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = simulation.LoadConfig(configFile); err != nil {
			return nil, err
		}
	}
	if count >= 0 {
		cfg.BoidCount = count
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if grid {
		cfg.SpatialGrid = true
	}
	return cfg, nil
}

// startSystem silences the actor runtime unless --verbose is set.
func startSystem(ctx context.Context) (actor.ActorSystem, error) {
	opts := []actor.Option{actor.WithActorInitMaxRetries(3)}
	if !verbose {
		opts = append(opts, actor.WithLogger(golog.DiscardLogger))
	}
	system, err := actor.NewActorSystem("FlockSystem", opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start actor system: %w", err)
	}
	return system, nil
}

func runWindow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	system, err := startSystem(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = system.Stop(ctx) }()

	game, err := viewer.NewGame(ctx, cfg, system, logger)
	if err != nil {
		return err
	}
	logger.Info("starting window",
		zap.Int("boids", cfg.BoidCount),
		zap.Float64("width", cfg.WorldWidth),
		zap.Float64("height", cfg.WorldHeight))

	ebiten.SetWindowSize(int(cfg.WorldWidth), int(cfg.WorldHeight))
	ebiten.SetWindowTitle("Boids")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(game)
}

func runHeadless(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	system, err := startSystem(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = system.Stop(ctx) }()

	summary, err := simulation.RunHeadless(ctx, system, "world", cfg, ticks, dt, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ticks=%d boids=%d meanSpeed=%.4f maxSpeed=%.4f centroid=%s\n",
		summary.Ticks, summary.Count, summary.MeanSpeed, summary.MaxSpeed, summary.Centroid)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
