package arena

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/contestantbots/hackbots/internal/game"
)

var ErrUnknownMap = errors.New("unknown map")

// Layout is a playable map: its size, the cells nobody may enter and one
// spawn point per bot slot.
type Layout struct {
	Name            string          `yaml:"name"`
	Width           int             `yaml:"width"`
	Height          int             `yaml:"height"`
	Wrap            bool            `yaml:"wrap"`
	MaxCollectables int             `yaml:"maxCollectables"`
	OutOfBounds     []game.Position `yaml:"outOfBounds"`
	SpawnPoints     []game.Position `yaml:"spawnPoints"`
}

type preset struct {
	name            string
	width, height   int
	wrap            bool
	walls           float64
	maxCollectables int
}

var presets = []preset{
	{name: "VeryEasy", width: 10, height: 8, walls: 0, maxCollectables: 4},
	{name: "Easy", width: 16, height: 10, walls: 0.05, maxCollectables: 6},
	{name: "Medium", width: 24, height: 14, walls: 0.10, maxCollectables: 8},
	{name: "LargeMedium", width: 36, height: 20, wrap: true, walls: 0.12, maxCollectables: 12},
	{name: "Hard", width: 48, height: 24, wrap: true, walls: 0.20, maxCollectables: 16},
}

func PresetNames() []string {
	return lo.Map(presets, func(p preset, _ int) string { return p.name })
}

func newRNG(seed uint64) *frand.RNG {
	if seed == 0 {
		return frand.New()
	}
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	return frand.NewCustom(key[:], 1024, 12)
}

// Generate builds a preset map. The same seed always yields the same map; a
// zero seed picks one at random.
func Generate(name string, seed uint64) (Layout, error) {
	p, ok := lo.Find(presets, func(p preset) bool { return strings.EqualFold(p.name, name) })
	if !ok {
		return Layout{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownMap, name, strings.Join(PresetNames(), ", "))
	}

	layout := Layout{
		Name:            p.name,
		Width:           p.width,
		Height:          p.height,
		Wrap:            p.wrap,
		MaxCollectables: p.maxCollectables,
		SpawnPoints: []game.Position{
			{X: 1, Y: 1},
			{X: p.width - 2, Y: p.height - 2},
			{X: p.width - 2, Y: 1},
			{X: 1, Y: p.height - 2},
		},
	}

	gameMap := layout.gameMap()
	keepClear := game.NewPositionSet()
	for _, spawn := range layout.SpawnPoints {
		keepClear.Add(spawn)
		for _, dir := range game.Directions() {
			keepClear.Add(gameMap.Neighbour(spawn, dir))
		}
	}

	rng := newRNG(seed)
	walls := int(min(p.walls, maxWallFraction) * float64(p.width*p.height))
	for try := 0; try < maxGenerateAttempts; try++ {
		outOfBounds := game.NewPositionSet()
		for attempts := 0; outOfBounds.Len() < walls && attempts < walls*10; attempts++ {
			cell := game.Position{X: rng.Intn(p.width), Y: rng.Intn(p.height)}
			if keepClear.Has(cell) {
				continue
			}
			outOfBounds.Add(cell)
		}
		layout.OutOfBounds = outOfBounds.Sorted()
		if layout.connected() {
			return layout.sealed(), nil
		}
	}

	// every attempt walled a spawn point off, fall back to an open map
	layout.OutOfBounds = nil
	return layout.sealed(), nil
}

// LoadLayout reads a YAML map file.
func LoadLayout(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("could not read map %q: %w", path, err)
	}
	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return Layout{}, fmt.Errorf("could not parse map %q: %w", path, err)
	}
	if layout.Name == "" {
		layout.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if layout.MaxCollectables <= 0 {
		layout.MaxCollectables = defaultMaxCollectables
	}
	if err := layout.Validate(); err != nil {
		return Layout{}, fmt.Errorf("map %q: %w", path, err)
	}
	return layout.sealed(), nil
}

// ResolveLayout prefers a map file over a preset name.
func ResolveLayout(name, file string, seed uint64) (Layout, error) {
	if file != "" {
		return LoadLayout(file)
	}
	return Generate(name, seed)
}

func (l Layout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("map size %dx%d is not playable", l.Width, l.Height)
	}
	if len(l.SpawnPoints) == 0 {
		return errors.New("map has no spawn points")
	}
	gameMap := l.gameMap()
	outOfBounds := game.NewPositionSet()
	for _, p := range l.OutOfBounds {
		if !gameMap.Contains(p) {
			return fmt.Errorf("out of bounds cell %v is outside the map", p)
		}
		outOfBounds.Add(p)
	}
	seen := game.NewPositionSet()
	for _, p := range l.SpawnPoints {
		switch {
		case !gameMap.Contains(p):
			return fmt.Errorf("spawn point %v is outside the map", p)
		case outOfBounds.Has(p):
			return fmt.Errorf("spawn point %v is out of bounds", p)
		case seen.Has(p):
			return fmt.Errorf("spawn point %v is listed twice", p)
		}
		seen.Add(p)
	}
	return nil
}

func (l Layout) gameMap() *game.GridMap {
	return game.NewGridMap(l.Width, l.Height, l.Wrap)
}

// reachable flood-fills the open cells from the given starting cells.
func (l Layout) reachable(from ...game.Position) game.PositionSet {
	gameMap := l.gameMap()
	blocked := game.NewPositionSet(l.OutOfBounds...)
	reached := game.NewPositionSet(from...)

	q := append([]game.Position{}, from...)
	for len(q) > 0 {
		cell := q[0]
		q = q[1:]

		for _, dir := range game.Directions() {
			next := gameMap.Neighbour(cell, dir)
			if !gameMap.Contains(next) || blocked.Has(next) || reached.Has(next) {
				continue
			}
			reached.Add(next)
			q = append(q, next)
		}
	}
	return reached
}

// connected reports whether every spawn point can reach the first one.
func (l Layout) connected() bool {
	reached := l.reachable(l.SpawnPoints[0])
	return lo.EveryBy(l.SpawnPoints, reached.Has)
}

// sealed marks every cell that no spawn point can reach as out of bounds, so
// collectables never appear where nobody can get to them.
func (l Layout) sealed() Layout {
	reached := l.reachable(l.SpawnPoints...)
	blocked := game.NewPositionSet(l.OutOfBounds...)
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			cell := game.Position{X: x, Y: y}
			if !reached.Has(cell) {
				blocked.Add(cell)
			}
		}
	}
	l.OutOfBounds = blocked.Sorted()
	return l
}
