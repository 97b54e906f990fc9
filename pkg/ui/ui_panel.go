package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	titleHeight   = 30.0
	sectionHeight = 25.0
	labelHeight   = 15.0
)

// UIWidget is an interface for all UI widgets
type UIWidget interface {
	Update()
	Draw(screen *ebiten.Image)
	GetHeight() float64
	setY(y float64)
	hasLabel() bool
}

type sliderWidget struct{ *Slider }

func (s sliderWidget) GetHeight() float64 { return s.H + 25 }
func (s sliderWidget) setY(y float64)     { s.Y = y }
func (s sliderWidget) hasLabel() bool     { return true }

type checkboxWidget struct{ *Checkbox }

func (c checkboxWidget) GetHeight() float64 { return c.Size + 20 }
func (c checkboxWidget) setY(y float64)     { c.Y = y }
func (c checkboxWidget) hasLabel() bool     { return true }

type buttonWidget struct{ *Button }

func (b buttonWidget) GetHeight() float64 { return b.Height + 10 }
func (b buttonWidget) setY(y float64)     { b.Y = y - labelHeight }
func (b buttonWidget) hasLabel() bool     { return false }

// PanelSection groups the widgets in [StartIndex, EndIndex) under a title.
type PanelSection struct {
	Title      string
	StartIndex int
	EndIndex   int
}

// UIPanel stacks widgets in titled sections and scrolls with the mouse wheel.
type UIPanel struct {
	Title         string
	X, Y          float64
	Width, Height float64
	Widgets       []UIWidget
	Labels        []string
	ScrollOffset  float64
	Hidden        bool

	BGColor     color.RGBA
	BorderColor color.RGBA

	sections []PanelSection
}

// NewUIPanel creates a new UI panel
func NewUIPanel(title string, x, y, width, height float64) *UIPanel {
	return &UIPanel{
		Title:       title,
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
	}
}

// AddSection opens a section; widgets added next belong to it.
func (p *UIPanel) AddSection(title string) {
	p.sections = append(p.sections, PanelSection{Title: title, StartIndex: len(p.Widgets), EndIndex: len(p.Widgets)})
}

// EndSection closes the current section
func (p *UIPanel) EndSection() {
	if len(p.sections) > 0 {
		p.sections[len(p.sections)-1].EndIndex = len(p.Widgets)
	}
}

// AddSlider adds a slider widget to the panel
func (p *UIPanel) AddSlider(label string, min, max, value float64) *Slider {
	slider := NewSlider(p.X+10, p.Y+p.contentHeight()+20, p.Width-20, label, min, max, value)
	p.add(sliderWidget{slider}, label)
	return slider
}

// AddCheckbox adds a checkbox widget to the panel
func (p *UIPanel) AddCheckbox(label string, value bool) *Checkbox {
	checkbox := NewCheckbox(p.X+10, p.Y+p.contentHeight()+20, label, value)
	p.add(checkboxWidget{checkbox}, label)
	return checkbox
}

// AddButton adds a full width button to the panel
func (p *UIPanel) AddButton(label string, onClick func()) *Button {
	button := NewButton(p.X+10, p.Y+p.contentHeight()+20, p.Width-20, 20, label, onClick)
	p.add(buttonWidget{button}, label)
	return button
}

func (p *UIPanel) add(w UIWidget, label string) {
	p.Widgets = append(p.Widgets, w)
	p.Labels = append(p.Labels, label)
	if len(p.sections) > 0 {
		p.sections[len(p.sections)-1].EndIndex = len(p.Widgets)
	}
}

func (p *UIPanel) contentHeight() float64 {
	h := float64(len(p.sections)) * sectionHeight
	for _, w := range p.Widgets {
		h += w.GetHeight()
	}
	return h
}

// Update handles input for all widgets
func (p *UIPanel) Update() {
	if p.Hidden {
		return
	}
	if _, dy := ebiten.Wheel(); dy != 0 {
		maxScroll := max(titleHeight+p.contentHeight()-p.Height+40, 0)
		p.ScrollOffset = clamp(p.ScrollOffset-dy*20, 0, maxScroll)
	}
	for _, widget := range p.Widgets {
		widget.Update()
	}
}

// Draw renders the panel and all visible widgets
func (p *UIPanel) Draw(screen *ebiten.Image) {
	if p.Hidden {
		return
	}
	vector.FillRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), p.BGColor, true)
	vector.StrokeRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), 2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+10), int(p.Y+5))

	currentY := p.Y + titleHeight - p.ScrollOffset
	for _, section := range p.sections {
		if p.visible(currentY) {
			vector.FillRect(screen, float32(p.X+5), float32(currentY), float32(p.Width-10), 20,
				color.RGBA{R: 60, G: 60, B: 70, A: 255}, true)
			ebitenutil.DebugPrintAt(screen, section.Title, int(p.X+10), int(currentY+5))
		}
		currentY += sectionHeight

		for i := section.StartIndex; i < section.EndIndex && i < len(p.Widgets); i++ {
			widget := p.Widgets[i]
			if p.visible(currentY) {
				if widget.hasLabel() {
					ebitenutil.DebugPrintAt(screen, p.Labels[i], int(p.X+10), int(currentY))
				}
				widget.setY(currentY + labelHeight)
				widget.Draw(screen)
			}
			currentY += widget.GetHeight()
		}
	}
}

func (p *UIPanel) visible(y float64) bool {
	return y >= p.Y && y <= p.Y+p.Height-sectionHeight
}
