package engine

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Source picks a uniform int in [0, n). *rand.Rand from math/rand/v2
// satisfies it.
type Source interface {
	IntN(n int) int
}

type Rules struct {
	BoardSize int
	ZoneWidth int
}

func (r Rules) Validate() error {
	if r.BoardSize < 2 {
		return fmt.Errorf("%w: board size must be >= 2, got %d", ErrInvalidRules, r.BoardSize)
	}
	if r.ZoneWidth < 1 {
		return fmt.Errorf("%w: zone width must be >= 1, got %d", ErrInvalidRules, r.ZoneWidth)
	}
	if 2*r.ZoneWidth > r.BoardSize {
		return fmt.Errorf("%w: zones of width %d overlap on a board of size %d", ErrInvalidRules, r.ZoneWidth, r.BoardSize)
	}
	return nil
}

// Spawn is everything placement needs to create one unit.
type Spawn struct {
	Owner  string
	Team   Team
	Name   string
	Level  int
	Stats  Stats
	Skills []int
}

// Zone returns a team's home tiles: the first ZoneWidth columns for A, the
// last ZoneWidth columns for B, every row.
func (r Rules) Zone(team Team) []Point {
	first := 0
	if team == TeamB {
		first = r.BoardSize - r.ZoneWidth
	}
	tiles := make([]Point, 0, r.ZoneWidth*r.BoardSize)
	for x := first; x < first+r.ZoneWidth; x++ {
		for y := 0; y < r.BoardSize; y++ {
			tiles = append(tiles, Point{X: x, Y: y})
		}
	}
	return tiles
}

// Place draws a free tile in its team's zone for every spawn, in order.
// A full zone fails the whole placement; no units are returned.
func Place(r Rules, spawns []Spawn, src Source) ([]*Unit, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	occupied := make(map[Point]bool, len(spawns))
	units := make([]*Unit, 0, len(spawns))
	for _, sp := range spawns {
		if !sp.Team.Valid() {
			return nil, fmt.Errorf("%w: %s has no team", ErrPlacementFailed, sp.Owner)
		}
		var free []Point
		for _, p := range r.Zone(sp.Team) {
			if !occupied[p] {
				free = append(free, p)
			}
		}
		if len(free) == 0 {
			return nil, fmt.Errorf("%w: zone for team %s is full", ErrPlacementFailed, sp.Team)
		}
		pos := free[src.IntN(len(free))]
		occupied[pos] = true
		units = append(units, newUnit(sp, pos))
	}
	return units, nil
}

func newUnit(sp Spawn, pos Point) *Unit {
	maxHP, maxMove := sp.Stats.MaxHP(), sp.Stats.MaxMove()
	return &Unit{
		ID:          UnitID(uuid.NewString()),
		Owner:       sp.Owner,
		Team:        sp.Team,
		Name:        sp.Name,
		Initial:     initial(sp.Name),
		Level:       sp.Level,
		Pos:         pos,
		HP:          maxHP,
		MaxHP:       maxHP,
		CurrentMove: maxMove,
		MaxMove:     maxMove,
		Stats:       sp.Stats,
		Skills:      append([]int(nil), sp.Skills...),
	}
}

func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}
