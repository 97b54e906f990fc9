package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Checkbox is a boolean toggle. OnToggle, when set, fires with the new value.
type Checkbox struct {
	Label    string
	Value    bool
	X, Y     float64
	Size     float64
	OnToggle func(bool)
	clicked  bool // debounce: one toggle per press
}

// NewCheckbox creates a new checkbox instance
func NewCheckbox(x, y float64, label string, value bool) *Checkbox {
	return &Checkbox{
		Label: label,
		Value: value,
		X:     x,
		Y:     y,
		Size:  16,
	}
}

// Toggle flips the value and notifies OnToggle.
func (c *Checkbox) Toggle() {
	c.Value = !c.Value
	if c.OnToggle != nil {
		c.OnToggle(c.Value)
	}
}

func (c *Checkbox) contains(mx, my int) bool {
	return float64(mx) >= c.X && float64(mx) <= c.X+c.Size &&
		float64(my) >= c.Y && float64(my) <= c.Y+c.Size
}

// Update toggles on a fresh left click over the box.
func (c *Checkbox) Update() {
	mx, my := ebiten.CursorPosition()
	if c.contains(mx, my) && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if !c.clicked {
			c.Toggle()
			c.clicked = true
		}
	} else {
		c.clicked = false
	}
}

// Draw renders the checkbox
func (c *Checkbox) Draw(screen *ebiten.Image) {
	vector.StrokeRect(screen,
		float32(c.X), float32(c.Y),
		float32(c.Size), float32(c.Size),
		2,
		color.RGBA{R: 200, G: 200, B: 200, A: 255},
		true)

	if c.Value {
		vector.FillRect(screen,
			float32(c.X+2), float32(c.Y+2),
			float32(c.Size-4), float32(c.Size-4),
			color.RGBA{R: 100, G: 200, B: 100, A: 255},
			true)
	}
}
