package game

import (
	"iter"
	"sort"
)

type GameMap interface {
	Width() int
	Height() int
	Contains(p Position) bool
	Neighbour(p Position, d Direction) Position
	Distance(from, to Position) int
	// DirectionsTowards yields the directions whose single step gets closer to
	// the target, best first. Callers normally only take the first one.
	DirectionsTowards(from, to Position) iter.Seq[Direction]
}

// GridMap is a rectangular grid. When wrap is set both axes wrap around, the
// same way a snake leaving the right edge comes back on the left.
type GridMap struct {
	width  int
	height int
	wrap   bool
}

func NewGridMap(width int, height int, wrap bool) *GridMap {
	return &GridMap{width: width, height: height, wrap: wrap}
}

func (m *GridMap) Width() int {
	return m.width
}

func (m *GridMap) Height() int {
	return m.height
}

func (m *GridMap) Wraps() bool {
	return m.wrap
}

func (m *GridMap) Contains(p Position) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < m.width && p.Y < m.height
}

func (m *GridMap) Neighbour(p Position, d Direction) Position {
	dx, dy := d.Delta()
	next := p.Add(dx, dy)
	if !m.wrap {
		return next
	}

	if next.X < 0 {
		next.X = m.width - 1
	} else if next.X >= m.width {
		next.X = 0
	}
	if next.Y < 0 {
		next.Y = m.height - 1
	} else if next.Y >= m.height {
		next.Y = 0
	}
	return next
}

func (m *GridMap) Distance(from, to Position) int {
	if !m.wrap {
		return GetManhattanDistance(from, to)
	}
	dx := abs(from.X - to.X)
	dy := abs(from.Y - to.Y)
	return min(dx, m.width-dx) + min(dy, m.height-dy)
}

func (m *GridMap) DirectionsTowards(from, to Position) iter.Seq[Direction] {
	return func(yield func(Direction) bool) {
		type candidate struct {
			dir      Direction
			distance int
		}

		current := m.Distance(from, to)
		candidates := []candidate{}
		for _, dir := range Directions() {
			next := m.Neighbour(from, dir)
			if distance := m.Distance(next, to); distance < current {
				candidates = append(candidates, candidate{dir: dir, distance: distance})
			}
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].distance < candidates[j].distance
		})

		for _, c := range candidates {
			if !yield(c.dir) {
				return
			}
		}
	}
}
