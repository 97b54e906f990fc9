package geometry

import (
	"errors"
	"fmt"
)

// ErrEmptyRect is returned by Validate when a rectangle has no area on some axis.
var ErrEmptyRect = errors.New("rectangle min must be strictly below max on both axes")

// Rect is an axis aligned rectangle given by its min and max corners.
type Rect struct {
	Min Vector2D `json:"min"`
	Max Vector2D `json:"max"`
}

// NewRect builds a Rect from raw corner coordinates.
func NewRect(minX, minY, maxX, maxY float64) Rect {
	return Rect{Min: Vector2D{X: minX, Y: minY}, Max: Vector2D{X: maxX, Y: maxY}}
}

// Validate returns ErrEmptyRect when min >= max on either axis.
func (r Rect) Validate() error {
	if !(r.Min.X < r.Max.X) || !(r.Min.Y < r.Max.Y) {
		return fmt.Errorf("%w: got %s", ErrEmptyRect, r)
	}
	return nil
}

// ContainsX reports whether x lies inside [Min.X, Max.X].
func (r Rect) ContainsX(x float64) bool {
	return x >= r.Min.X && x <= r.Max.X
}

// ContainsY reports whether y lies inside [Min.Y, Max.Y].
func (r Rect) ContainsY(y float64) bool {
	return y >= r.Min.Y && y <= r.Max.Y
}

// Contains reports whether p lies inside the rectangle, borders included.
func (r Rect) Contains(p Vector2D) bool {
	return r.ContainsX(p.X) && r.ContainsY(p.Y)
}

// Size returns the width and height as a vector.
func (r Rect) Size() Vector2D {
	return r.Max.Sub(r.Min)
}

// Center returns the middle point of the rectangle.
func (r Rect) Center() Vector2D {
	return r.Min.Lerp(r.Max, 0.5)
}

func (r Rect) String() string {
	return fmt.Sprintf("[%s - %s]", r.Min, r.Max)
}
