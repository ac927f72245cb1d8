// Package catalog holds the read-only table of skill definitions a session
// resolves casts against.
package catalog

import (
	"fmt"
	"strings"
)

// Stat names one of the six base character stats.
type Stat string

const (
	StatSTR Stat = "STR"
	StatDEX Stat = "DEX"
	StatVIT Stat = "VIT"
	StatINT Stat = "INT"
	StatAGI Stat = "AGI"
	StatLUK Stat = "LUK"
)

// Stats lists every stat in display order.
var Stats = []Stat{StatSTR, StatDEX, StatVIT, StatINT, StatAGI, StatLUK}

// ParseStat accepts a stat name in any case.
func ParseStat(s string) (Stat, error) {
	st := Stat(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatSTR, StatDEX, StatVIT, StatINT, StatAGI, StatLUK:
		return st, nil
	}
	return "", fmt.Errorf("unknown stat %q", s)
}

type SkillType string

const (
	TypeOffensive SkillType = "offensive"
	TypeSupport   SkillType = "support"
)

func ParseSkillType(s string) (SkillType, error) {
	switch t := SkillType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeOffensive, TypeSupport:
		return t, nil
	}
	return "", fmt.Errorf("unknown skill type %q", s)
}

type RangeType string

const (
	RangeFixed         RangeType = "fixed"
	RangeStatDependent RangeType = "stat_dependent"
	RangeMovePath      RangeType = "move_path"
)

func ParseRangeType(s string) (RangeType, error) {
	switch r := RangeType(strings.ToLower(strings.TrimSpace(s))); r {
	case RangeFixed, RangeStatDependent, RangeMovePath:
		return r, nil
	}
	return "", fmt.Errorf("unknown range type %q", s)
}

// Shape is the tile pattern a skill affects around its target tile.
type Shape string

const (
	ShapeSingle Shape = "single"
	ShapeCross  Shape = "cross"  // target plus its 4 orthogonal neighbours
	ShapeSquare Shape = "square" // 3x3 block centred on the target
)

func ParseShape(s string) (Shape, error) {
	switch sh := Shape(strings.ToLower(strings.TrimSpace(s))); sh {
	case ShapeSingle, ShapeCross, ShapeSquare:
		return sh, nil
	}
	return "", fmt.Errorf("unknown target shape %q", s)
}

// Skill is one immutable catalog entry.
type Skill struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Cost           int       `json:"cost"`
	Type           SkillType `json:"type"`
	StatDependency Stat      `json:"stat_dependency"`
	RangeType      RangeType `json:"range_type"`
	RangeValue     int       `json:"range_value"`
	// RangeStat is set when a stat_dependent entry names its range stat in
	// range_value instead of a number. It overrides StatDependency for the
	// range calculation only.
	RangeStat      Stat    `json:"range_stat,omitempty"`
	TargetShape    Shape   `json:"target_shape"`
	BaseMultiplier float64 `json:"base_multiplier"`
}

// RangeDependency returns the stat a stat_dependent range scales with.
func (s Skill) RangeDependency() Stat {
	if s.RangeStat != "" {
		return s.RangeStat
	}
	return s.StatDependency
}
