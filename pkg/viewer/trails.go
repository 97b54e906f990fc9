package viewer

import "github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"

// Trails keeps the last few positions of every agent, oldest first.
// It is a presentation concern only; the flock never sees it.
type Trails struct {
	length int
	paths  [][]geometry.Vector2D
}

// NewTrails keeps at most length points per agent.
func NewTrails(length int) *Trails {
	return &Trails{length: max(length, 1)}
}

// Record appends the current positions. A population change restarts every path,
// agents are rebuilt from scratch by a resize.
func (t *Trails) Record(positions []geometry.Vector2D) {
	if len(positions) != len(t.paths) {
		t.paths = make([][]geometry.Vector2D, len(positions))
	}
	for i, p := range positions {
		path := t.paths[i]
		if len(path) == t.length {
			copy(path, path[1:])
			path = path[:len(path)-1]
		}
		t.paths[i] = append(path, p)
	}
}

// Reset forgets every path.
func (t *Trails) Reset() {
	t.paths = nil
}

// Paths returns the recorded paths; callers must not modify them.
func (t *Trails) Paths() [][]geometry.Vector2D {
	return t.paths
}
