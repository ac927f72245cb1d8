package engine

import (
	"math"

	"github.com/DoyleJ11/grid-tactics-server/internal/catalog"
)

func Manhattan(a, b Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// EffectiveRange resolves how far u can reach with s.
func EffectiveRange(s catalog.Skill, u *Unit) int {
	switch s.RangeType {
	case catalog.RangeFixed:
		return s.RangeValue
	case catalog.RangeStatDependent:
		return 2 + u.Stats.Get(s.RangeDependency())/2
	case catalog.RangeMovePath:
		return u.MaxMove
	}
	return 0
}

// Magnitude is floor(stat * base_multiplier) for the skill's dependency.
func Magnitude(s catalog.Skill, st Stats) int {
	return int(math.Floor(float64(st.Get(s.StatDependency)) * s.BaseMultiplier))
}

var (
	crossOffsets  = []Point{{0, 0}, {0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	squareOffsets = []Point{{0, 0}, {-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}
)

// AffectedTiles returns the tiles a shape covers around center, clipped to
// a size x size board. The center comes first.
func AffectedTiles(shape catalog.Shape, center Point, size int) []Point {
	var offsets []Point
	switch shape {
	case catalog.ShapeSingle:
		offsets = crossOffsets[:1]
	case catalog.ShapeCross:
		offsets = crossOffsets
	case catalog.ShapeSquare:
		offsets = squareOffsets
	}

	tiles := make([]Point, 0, len(offsets))
	for _, o := range offsets {
		p := Point{X: center.X + o.X, Y: center.Y + o.Y}
		if p.X >= 0 && p.Y >= 0 && p.X < size && p.Y < size {
			tiles = append(tiles, p)
		}
	}
	return tiles
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
