package engine

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/DoyleJ11/grid-tactics-server/internal/catalog"
)

const (
	BaseHP   = 50
	HPPerVIT = 10
	MinMove  = 1
)

// Stats are the six base character stats.
type Stats struct {
	STR int `json:"STR"`
	DEX int `json:"DEX"`
	VIT int `json:"VIT"`
	INT int `json:"INT"`
	AGI int `json:"AGI"`
	LUK int `json:"LUK"`
}

func (s Stats) Get(st catalog.Stat) int {
	switch st {
	case catalog.StatSTR:
		return s.STR
	case catalog.StatDEX:
		return s.DEX
	case catalog.StatVIT:
		return s.VIT
	case catalog.StatINT:
		return s.INT
	case catalog.StatAGI:
		return s.AGI
	case catalog.StatLUK:
		return s.LUK
	}
	return 0
}

// MaxHP is 50 + VIT*10.
func (s Stats) MaxHP() int { return BaseHP + s.VIT*HPPerVIT }

// MaxMove is AGI + floor(LUK/2), never below MinMove.
func (s Stats) MaxMove() int { return max(MinMove, s.AGI+s.LUK/2) }

type UnitID string

// Unit is a live piece on the board. Owner is the connection that controls
// it; ID is independent of the connection.
type Unit struct {
	ID          UnitID `json:"id"`
	Owner       string `json:"playerId"`
	Team        Team   `json:"team"`
	Name        string `json:"name"`
	Initial     string `json:"initial"`
	Level       int    `json:"level"`
	Pos         Point  `json:"pos"`
	HP          int    `json:"hp"`
	MaxHP       int    `json:"maxHp"`
	CurrentMove int    `json:"currentMove"`
	MaxMove     int    `json:"maxMove"`
	Stats       Stats  `json:"stats"`
	Skills      []int  `json:"skills"`
}

// applyDamage floors HP at zero and returns the HP actually removed.
func (u *Unit) applyDamage(amount int) int {
	dealt := min(amount, u.HP)
	u.HP -= dealt
	return dealt
}

// heal caps HP at MaxHP and returns the HP actually restored.
func (u *Unit) heal(amount int) int {
	restored := min(amount, u.MaxHP-u.HP)
	u.HP += restored
	return restored
}

func (u *Unit) clone() *Unit {
	c := *u
	c.Skills = append([]int(nil), u.Skills...)
	return &c
}

// Board is the grid plus every live unit in placement order.
type Board struct {
	Size      int     `json:"size"`
	ZoneWidth int     `json:"zoneWidth"`
	Units     []*Unit `json:"units"`
	Log       []Event `json:"log"`
}

func (b *Board) InBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < b.Size && p.Y < b.Size
}

func (b *Board) Unit(id UnitID) (*Unit, bool) {
	for _, u := range b.Units {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}

func (b *Board) UnitAt(p Point) (*Unit, bool) {
	for _, u := range b.Units {
		if u.Pos == p {
			return u, true
		}
	}
	return nil, false
}

func (b *Board) remove(id UnitID) (*Unit, bool) {
	for i, u := range b.Units {
		if u.ID == id {
			b.Units = append(b.Units[:i:i], b.Units[i+1:]...)
			return u, true
		}
	}
	return nil, false
}

// refreshMoves restores every live unit's move budget.
func (b *Board) refreshMoves() {
	for _, u := range b.Units {
		u.CurrentMove = u.MaxMove
	}
}

func (b *Board) record(round int, events []Event) {
	for i := range events {
		if events[i].Round == 0 {
			events[i].Round = round
		}
	}
	b.Log = append(b.Log, events...)
}

// Validate checks the board invariants.
func (b *Board) Validate() error {
	var errs error
	seen := make(map[Point]UnitID, len(b.Units))
	for _, u := range b.Units {
		if other, dup := seen[u.Pos]; dup {
			errs = multierr.Append(errs, fmt.Errorf("units %s and %s share (%d,%d)", other, u.ID, u.Pos.X, u.Pos.Y))
		}
		seen[u.Pos] = u.ID
		if !b.InBounds(u.Pos) {
			errs = multierr.Append(errs, fmt.Errorf("unit %s is off the board", u.ID))
		}
		if !u.Team.Valid() {
			errs = multierr.Append(errs, fmt.Errorf("unit %s has team %q", u.ID, u.Team))
		}
		if u.HP < 0 || u.HP > u.MaxHP {
			errs = multierr.Append(errs, fmt.Errorf("unit %s hp %d outside [0,%d]", u.ID, u.HP, u.MaxHP))
		}
		if u.CurrentMove < 0 || u.CurrentMove > u.MaxMove {
			errs = multierr.Append(errs, fmt.Errorf("unit %s move %d outside [0,%d]", u.ID, u.CurrentMove, u.MaxMove))
		}
	}
	return errs
}

// Clone returns a deep copy.
func (b *Board) Clone() *Board {
	c := &Board{Size: b.Size, ZoneWidth: b.ZoneWidth}
	c.Units = make([]*Unit, 0, len(b.Units))
	for _, u := range b.Units {
		c.Units = append(c.Units, u.clone())
	}
	c.Log = append([]Event(nil), b.Log...)
	return c
}
