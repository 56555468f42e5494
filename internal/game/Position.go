package game

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownDirection = errors.New("unknown direction")

type Position struct {
	X int
	Y int
}

func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// dx, dy per direction, indexed by Direction. North is towards row 0.
var directionDeltas = [][]int{
	{0, -1},
	{1, 0},
	{0, 1},
	{-1, 0},
}

var directionNames = []string{"NORTH", "EAST", "SOUTH", "WEST"}

// Directions returns every direction in declaration order.
func Directions() []Direction {
	return []Direction{North, East, South, West}
}

func (d Direction) Delta() (int, int) {
	delta := directionDeltas[d]
	return delta[0], delta[1]
}

func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

func (d Direction) String() string {
	if d < North || d > West {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

func ParseDirection(name string) (Direction, error) {
	for i, dirName := range directionNames {
		if strings.EqualFold(dirName, strings.TrimSpace(name)) {
			return Direction(i), nil
		}
	}
	return North, fmt.Errorf("%w: %q", ErrUnknownDirection, name)
}

func GetManhattanDistance(p1, p2 Position) int {
	return abs(p1.X-p2.X) + abs(p1.Y-p2.Y)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

type PositionSet map[Position]struct{}

func NewPositionSet(positions ...Position) PositionSet {
	set := make(PositionSet, len(positions))
	for _, p := range positions {
		set.Add(p)
	}
	return set
}

func (s PositionSet) Add(p Position) {
	s[p] = struct{}{}
}

func (s PositionSet) Has(p Position) bool {
	_, ok := s[p]
	return ok
}

func (s PositionSet) Len() int {
	return len(s)
}

// Sorted returns the positions in row-major order.
func (s PositionSet) Sorted() []Position {
	result := make([]Position, 0, len(s))
	for p := range s {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Y != result[j].Y {
			return result[i].Y < result[j].Y
		}
		return result[i].X < result[j].X
	})
	return result
}
