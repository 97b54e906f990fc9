package flocking

import "math"

// minCellSize keeps the grid from degenerating into one cell per agent
// when both radii are tiny or zero.
const minCellSize = 0.5

// NeighborIndex answers "who could be a neighbor of agent i" for one tick.
// Candidates may return a superset of the real neighbors but never agent i itself;
// Agent.Steer does the exact distance filtering.
type NeighborIndex interface {
	// Rebuild indexes the pre-tick snapshot. cellSize is the largest radius in use.
	Rebuild(snapshot []State, cellSize float64)
	// Candidates appends the possible neighbors of snapshot[i] to dst.
	// It must be safe to call from several goroutines after Rebuild returned.
	Candidates(i int, dst []State) []State
}

// BruteForce returns every other agent: the plain O(n²) scan.
type BruteForce struct {
	snapshot []State
}

func (b *BruteForce) Rebuild(snapshot []State, _ float64) {
	b.snapshot = snapshot
}

func (b *BruteForce) Candidates(i int, dst []State) []State {
	for j, s := range b.snapshot {
		if j != i {
			dst = append(dst, s)
		}
	}
	return dst
}

type gridKey struct {
	x, y int
}

// Grid is a uniform spatial hash. With a cell at least as large as the largest
// radius, scanning the 3x3 block around an agent covers all of its neighbors.
type Grid struct {
	snapshot []State
	cellSize float64
	cells    map[gridKey][]int
	// emptied cell slices waiting to be reused by the next Rebuild
	pool [][]int
}

// NewGrid returns an empty spatial hash.
func NewGrid() *Grid {
	return &Grid{cells: make(map[gridKey][]int)}
}

func (g *Grid) Rebuild(snapshot []State, cellSize float64) {
	// only occupied cells stay in the map; their slices go back to the pool
	for _, idx := range g.cells {
		g.pool = append(g.pool, idx[:0])
	}
	clear(g.cells)
	g.snapshot = snapshot
	g.cellSize = math.Max(cellSize, minCellSize)

	for i, s := range snapshot {
		key := g.keyOf(s.Position.X, s.Position.Y)
		idx, ok := g.cells[key]
		if !ok && len(g.pool) > 0 {
			idx = g.pool[len(g.pool)-1]
			g.pool = g.pool[:len(g.pool)-1]
		}
		g.cells[key] = append(idx, i)
	}
}

func (g *Grid) Candidates(i int, dst []State) []State {
	me := g.snapshot[i]
	center := g.keyOf(me.Position.X, me.Position.Y)

	for x := center.x - 1; x <= center.x+1; x++ {
		for y := center.y - 1; y <= center.y+1; y++ {
			for _, j := range g.cells[gridKey{x: x, y: y}] {
				if j != i {
					dst = append(dst, g.snapshot[j])
				}
			}
		}
	}
	return dst
}

// CellSize reports the edge length used by the last Rebuild.
func (g *Grid) CellSize() float64 {
	return g.cellSize
}

func (g *Grid) keyOf(x, y float64) gridKey {
	return gridKey{
		x: int(math.Floor(x / g.cellSize)),
		y: int(math.Floor(y / g.cellSize)),
	}
}
