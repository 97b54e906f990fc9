// Package viewer is the ebiten front end: it renders world snapshots and turns
// panel input into world actor messages.
package viewer

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tochemey/goakt/v3/actor"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flocking"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/ui"
)

// sliderScale maps a slider position to a tunable: tunable = slider value * 10.
const (
	sliderScale = 10.0
	minTunable  = 0.01 // speed and rotation speed must stay > 0
	maxBoids    = 500
)

var (
	boidColor    = color.RGBA{R: 100, G: 200, B: 255, A: 255}
	trailColor   = color.RGBA{R: 100, G: 200, B: 255, A: 70}
	neighborRing = color.RGBA{R: 50, G: 255, B: 50, A: 90}
	avoidRing    = color.RGBA{R: 255, G: 50, B: 50, A: 120}
)

type Game struct {
	ctx        context.Context
	System     actor.ActorSystem
	worldPID   *actor.PID
	snapshotCh chan *simulation.WorldSnapshot
	lastState  *simulation.WorldSnapshot
	cfg        *simulation.Config
	logger     *zap.Logger
	whiteImage *ebiten.Image

	// window size in pixels, as last reported to Layout
	screenW, screenH float64

	// UI Controls
	panel           *ui.UIPanel
	widgetSpeed     *ui.Slider
	widgetRotation  *ui.Slider
	widgetNeighbor  *ui.Slider
	widgetAvoidance *ui.Slider
	widgetForce     *ui.Slider
	widgetCount     *ui.Slider
	widgetTrails    *ui.Checkbox
	widgetGizmo     *ui.Checkbox

	// what the world was last told
	sentParams flocking.Parameters
	sentCount  int
	sentBounds geometry.Rect

	trails *Trails

	// Timing instrumentation
	updateAvg float64 // rolling average in ms
	drawAvg   float64
}

// NewGame spawns the world actor in system and builds the control panel.
func NewGame(ctx context.Context, cfg *simulation.Config, system actor.ActorSystem, logger *zap.Logger) (*Game, error) {
	snapshotCh := make(chan *simulation.WorldSnapshot, 10)

	world, err := simulation.NewWorldActor(snapshotCh, cfg, logger)
	if err != nil {
		return nil, err
	}
	worldPID, err := system.Spawn(ctx, "world", world)
	if err != nil {
		return nil, fmt.Errorf("failed to spawn world: %w", err)
	}

	g := &Game{
		ctx:        ctx,
		System:     system,
		worldPID:   worldPID,
		snapshotCh: snapshotCh,
		lastState:  &simulation.WorldSnapshot{},
		cfg:        cfg,
		logger:     logger,
		whiteImage: ebiten.NewImage(3, 3),
		screenW:    cfg.WorldWidth,
		screenH:    cfg.WorldHeight,
		sentParams: cfg.Parameters(),
		sentCount:  cfg.BoidCount,
		sentBounds: cfg.Viewport(),
		trails:     NewTrails(cfg.TrailLength),
	}
	g.whiteImage.Fill(color.White)
	g.buildPanel()
	return g, nil
}

func (g *Game) buildPanel() {
	p := g.cfg.Parameters()
	panel := ui.NewUIPanel("Flock", 10, 10, 260, 420)

	panel.AddSection("Rules (x10)")
	g.widgetSpeed = panel.AddSlider("Speed", minTunable/sliderScale, 1, p.Speed/sliderScale)
	g.widgetRotation = panel.AddSlider("Rotation Speed", minTunable/sliderScale, 1, p.RotationSpeed/sliderScale)
	g.widgetNeighbor = panel.AddSlider("Neighbor Distance", 0, 1, p.NeighborDistance/sliderScale)
	g.widgetAvoidance = panel.AddSlider("Avoidance Distance", 0, 1, p.AvoidanceDistance/sliderScale)
	g.widgetForce = panel.AddSlider("Max Force", 0, 1, p.MaxForce/sliderScale)
	panel.EndSection()

	panel.AddSection("Population")
	g.widgetCount = panel.AddSlider("Boids", 0, maxBoids, float64(g.cfg.BoidCount))
	panel.AddButton("Respawn", g.respawn)
	panel.EndSection()

	panel.AddSection("Visualization")
	g.widgetTrails = panel.AddCheckbox("Show Trails", g.cfg.DisplayTrails)
	g.widgetTrails.OnToggle = func(on bool) {
		if !on {
			g.trails.Reset()
		}
	}
	g.widgetGizmo = panel.AddCheckbox("Show Radii", g.cfg.DisplayGizmo)
	panel.EndSection()

	g.panel = panel
}

// controls reads the tunables off the sliders.
func (g *Game) controls() flocking.Parameters {
	return flocking.Parameters{
		Speed:             max(g.widgetSpeed.Value*sliderScale, minTunable),
		RotationSpeed:     max(g.widgetRotation.Value*sliderScale, minTunable),
		NeighborDistance:  g.widgetNeighbor.Value * sliderScale,
		AvoidanceDistance: g.widgetAvoidance.Value * sliderScale,
		MaxForce:          g.widgetForce.Value * sliderScale,
	}
}

func (g *Game) tell(msg proto.Message) error {
	return actor.Tell(g.ctx, g.worldPID, msg)
}

func (g *Game) respawn() {
	g.trails.Reset()
	if err := g.tell(simulation.ResizeMessage(g.sentCount)); err != nil {
		g.logger.Warn("respawn failed", zap.Error(err))
	}
}

// syncControls forwards slider, population and viewport changes to the world.
// Everything is queued before the next tick so no agent sees a half applied change.
func (g *Game) syncControls() error {
	if params := g.controls(); params != g.sentParams {
		if err := g.tell(simulation.ConfigureMessage(flocking.Diff(g.sentParams, params))); err != nil {
			return err
		}
		g.sentParams = params
	}

	if count := int(math.Round(g.widgetCount.Value)); count != g.sentCount {
		g.sentCount = count
		g.respawn()
	}

	if bounds := g.viewport(); bounds != g.sentBounds {
		if err := g.tell(simulation.BoundaryMessage(bounds)); err != nil {
			return err
		}
		g.sentBounds = bounds
	}
	return nil
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	g.panel.Update()

	select {
	case snap := <-g.snapshotCh:
		g.lastState = snap
		if g.widgetTrails.Value {
			positions := make([]geometry.Vector2D, len(snap.Agents))
			for i, a := range snap.Agents {
				positions[i] = a.Position
			}
			g.trails.Record(positions)
		}
	default:
		// keep drawing the previous snapshot
	}

	if err := g.syncControls(); err != nil {
		return fmt.Errorf("failed to update world: %w", err)
	}
	tps := ebiten.TPS()
	if tps <= 0 {
		tps = ebiten.DefaultTPS
	}
	dt := time.Second / time.Duration(tps)
	if err := g.tell(simulation.TickMessage(dt)); err != nil {
		return fmt.Errorf("failed to tick world: %w", err)
	}
	return nil
}

// viewport is the world rectangle covered by the current window.
func (g *Game) viewport() geometry.Rect {
	return g.cfg.ViewportFor(g.screenW, g.screenH)
}

// toScreen maps world units (y up, origin at the window center) to pixels.
func (g *Game) toScreen(p geometry.Vector2D) (float32, float32) {
	x := g.screenW/2 + p.X*g.cfg.PixelsPerUnit
	y := g.screenH/2 - p.Y*g.cfg.PixelsPerUnit
	return float32(x), float32(y)
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	screen.Fill(color.RGBA{R: 10, G: 10, B: 30, A: 255})

	if g.widgetTrails.Value {
		g.drawTrails(screen)
	}
	for _, a := range g.lastState.Agents {
		if g.widgetGizmo.Value {
			g.drawGizmo(screen, a)
		}
		g.drawBoid(screen, a)
	}

	g.panel.Draw(screen)

	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\nBoids: %d\nTick: %d\n\nUpdate: %.2fms\nDraw:   %.2fms",
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		len(g.lastState.Agents),
		g.lastState.Tick,
		g.updateAvg,
		g.drawAvg)
	ebitenutil.DebugPrintAt(screen, msg, int(g.screenW)-150, 10)
}

func (g *Game) drawTrails(screen *ebiten.Image) {
	for _, path := range g.trails.Paths() {
		for i := 1; i < len(path); i++ {
			x0, y0 := g.toScreen(path[i-1])
			x1, y1 := g.toScreen(path[i])
			vector.StrokeLine(screen, x0, y0, x1, y1, 1, trailColor, true)
		}
	}
}

func (g *Game) drawGizmo(screen *ebiten.Image, a flocking.Agent) {
	x, y := g.toScreen(a.Position)
	ppu := float32(g.cfg.PixelsPerUnit)
	params := g.lastState.Parameters
	vector.StrokeCircle(screen, x, y, float32(params.NeighborDistance)*ppu, 1, neighborRing, true)
	vector.StrokeCircle(screen, x, y, float32(params.AvoidanceDistance)*ppu, 1, avoidRing, true)
}

// drawBoid draws a small triangle pointing along the agent orientation.
func (g *Game) drawBoid(screen *ebiten.Image, a flocking.Agent) {
	cx, cy := g.toScreen(a.Position)
	// screen y grows downwards
	angle := -a.Orientation

	corner := func(offset, radius float64) ebiten.Vertex {
		return ebiten.Vertex{
			DstX:   cx + float32(math.Cos(angle+offset)*radius),
			DstY:   cy + float32(math.Sin(angle+offset)*radius),
			SrcX:   1,
			SrcY:   1,
			ColorR: float32(boidColor.R) / 255,
			ColorG: float32(boidColor.G) / 255,
			ColorB: float32(boidColor.B) / 255,
			ColorA: 1,
		}
	}
	vertices := []ebiten.Vertex{corner(0, 6), corner(2.5, 5), corner(-2.5, 5)}
	indices := []uint16{0, 1, 2}

	screen.DrawTriangles(vertices, indices, g.whiteImage, &ebiten.DrawTrianglesOptions{})
}

// Layout follows the window size, so resizing the window moves the boundary
// the flock reflects against.
func (g *Game) Layout(w, h int) (int, int) {
	if w > 0 && h > 0 {
		g.screenW, g.screenH = float64(w), float64(h)
	}
	return int(g.screenW), int(g.screenH)
}
