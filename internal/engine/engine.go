package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/DoyleJ11/grid-tactics-server/internal/catalog"
)

var ErrNotYourTurn = errors.New("not your turn")
var ErrUnknownSkill = errors.New("unknown skill")
var ErrSkillNotEquipped = errors.New("skill not equipped")
var ErrOutOfRange = errors.New("target out of range")
var ErrInsufficientMove = errors.New("insufficient move")
var ErrTileOccupied = errors.New("tile occupied")
var ErrInvalidTarget = errors.New("invalid target")
var ErrPlacementFailed = errors.New("startup placement failed")
var ErrTeamEmpty = errors.New("each team needs at least one unit")
var ErrInvalidRules = errors.New("invalid rules")
var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrSessionEnded = errors.New("session already ended")
var ErrSessionInProgress = errors.New("session already in progress")
var ErrNoSession = errors.New("no session in progress")

type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

func (t Team) Valid() bool { return t == TeamA || t == TeamB }

func (t Team) Other() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

// ParseTeam accepts "A"/"B" in either case.
func ParseTeam(s string) (Team, bool) {
	switch s {
	case "A", "a":
		return TeamA, true
	case "B", "b":
		return TeamB, true
	default:
		return "", false
	}
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type CommandType string

const (
	CmdMove      CommandType = "Move"
	CmdCastSkill CommandType = "CastSkill"
	CmdEndTurn   CommandType = "EndTurn"
)

/*
	CmdMove      -> EvtUnitMoved
	CmdCastSkill -> EvtSkillCast -> EvtUnitDamaged | EvtUnitHealed ... -> EvtUnitDefeated
	                -> (EvtTurnAdvanced | EvtSessionEnded when a defeat changes the cursor)
	CmdEndTurn   -> EvtTurnAdvanced, or EvtMovesRefreshed -> EvtTurnAdvanced on a team flip,
	                or EvtSessionEnded
	Disconnect   -> EvtUnitRemoved -> (EvtTurnAdvanced | EvtSessionEnded)
*/

// Command is one action request. Actor is the requesting connection id; the
// session maps it to a unit.
type Command struct {
	Type    CommandType
	Actor   string
	Target  Point
	SkillID int
}

type EventType string

const (
	EvtSessionStarted EventType = "SessionStarted"
	EvtUnitMoved      EventType = "UnitMoved"
	EvtSkillCast      EventType = "SkillCast"
	EvtUnitDamaged    EventType = "UnitDamaged"
	EvtUnitHealed     EventType = "UnitHealed"
	EvtUnitDefeated   EventType = "UnitDefeated"
	EvtUnitRemoved    EventType = "UnitRemoved"
	EvtMovesRefreshed EventType = "MovesRefreshed"
	EvtTurnAdvanced   EventType = "TurnAdvanced"
	EvtSessionEnded   EventType = "SessionEnded"
)

type Event struct {
	Type     EventType `json:"type"`
	Round    int       `json:"round"`
	Team     Team      `json:"team,omitempty"`
	UnitID   UnitID    `json:"unitId,omitempty"`
	TargetID UnitID    `json:"targetId,omitempty"`
	From     *Point    `json:"from,omitempty"`
	To       *Point    `json:"to,omitempty"`
	SkillID  int       `json:"skillId,omitempty"`
	Amount   int       `json:"amount,omitempty"`
	Draw     bool      `json:"draw,omitempty"`
}

// SkillLookup resolves skill ids. *catalog.Catalog satisfies it.
type SkillLookup interface {
	Skill(id int) (catalog.Skill, bool)
}

// Apply validates cmd against the current board and cursor and, if it is
// legal, mutates them. A rejected command leaves the session untouched.
func (s *Session) Apply(cmd Command) ([]Event, error) {
	if s.Cursor.State == StateSessionEnded {
		return nil, ErrSessionEnded
	}

	actor, err := s.actingUnit(cmd.Actor)
	if err != nil {
		return nil, err
	}

	var events []Event
	switch cmd.Type {
	case CmdMove:
		events, err = s.move(actor, cmd.Target)
	case CmdCastSkill:
		events, err = s.castSkill(actor, cmd.SkillID, cmd.Target)
	case CmdEndTurn:
		events = s.Cursor.advanceUnit(s.Board)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCommand, cmd.Type)
	}
	if err != nil {
		return nil, err
	}

	s.Board.record(s.Cursor.Round, events)
	return events, nil
}

// actingUnit enforces turn ownership: conn must own a live unit and that unit
// must be the one the cursor points at.
func (s *Session) actingUnit(conn string) (*Unit, error) {
	id, ok := s.owners[conn]
	if !ok {
		return nil, fmt.Errorf("%w: no live unit", ErrNotYourTurn)
	}
	current, ok := s.Cursor.Current()
	if !ok || current != id {
		return nil, ErrNotYourTurn
	}
	u, ok := s.Board.Unit(id)
	if !ok {
		return nil, fmt.Errorf("%w: no live unit", ErrNotYourTurn)
	}
	return u, nil
}

func (s *Session) move(u *Unit, to Point) ([]Event, error) {
	if !s.Board.InBounds(to) {
		return nil, fmt.Errorf("%w: (%d,%d) is outside the board", ErrInvalidTarget, to.X, to.Y)
	}
	dist := Manhattan(u.Pos, to)
	if dist == 0 {
		return nil, fmt.Errorf("%w: already at (%d,%d)", ErrInvalidTarget, to.X, to.Y)
	}
	if dist > u.CurrentMove {
		return nil, fmt.Errorf("%w: distance %d, %d move left", ErrInsufficientMove, dist, u.CurrentMove)
	}
	if _, occupied := s.Board.UnitAt(to); occupied {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrTileOccupied, to.X, to.Y)
	}

	from := u.Pos
	u.Pos = to
	u.CurrentMove -= dist
	return []Event{{Type: EvtUnitMoved, Team: u.Team, UnitID: u.ID, From: &from, To: &to, Amount: dist}}, nil
}

func (s *Session) castSkill(u *Unit, skillID int, target Point) ([]Event, error) {
	skill, ok := s.skills.Skill(skillID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSkill, skillID)
	}
	if !slices.Contains(u.Skills, skillID) {
		return nil, fmt.Errorf("%w: %d", ErrSkillNotEquipped, skillID)
	}
	if !s.Board.InBounds(target) {
		return nil, fmt.Errorf("%w: (%d,%d) is outside the board", ErrInvalidTarget, target.X, target.Y)
	}
	reach := EffectiveRange(skill, u)
	if dist := Manhattan(u.Pos, target); dist > reach {
		return nil, fmt.Errorf("%w: distance %d, range %d", ErrOutOfRange, dist, reach)
	}

	// Everything below is infallible.
	magnitude := Magnitude(skill, u.Stats)
	events := []Event{{Type: EvtSkillCast, Team: u.Team, UnitID: u.ID, SkillID: skill.ID, To: &target, Amount: magnitude}}

	var defeated []*Unit
	for _, tile := range AffectedTiles(skill.TargetShape, target, s.Board.Size) {
		hit, ok := s.Board.UnitAt(tile)
		if !ok {
			continue
		}
		switch skill.Type {
		case catalog.TypeOffensive:
			if hit.Team == u.Team {
				continue
			}
			dealt := hit.applyDamage(magnitude)
			events = append(events, Event{Type: EvtUnitDamaged, Team: hit.Team, UnitID: u.ID, TargetID: hit.ID, SkillID: skill.ID, Amount: dealt})
			if hit.HP == 0 {
				defeated = append(defeated, hit)
			}
		case catalog.TypeSupport:
			if hit.Team != u.Team {
				continue
			}
			healed := hit.heal(magnitude)
			events = append(events, Event{Type: EvtUnitHealed, Team: hit.Team, UnitID: u.ID, TargetID: hit.ID, SkillID: skill.ID, Amount: healed})
		}
	}

	for _, dead := range defeated {
		events = append(events, s.removeUnit(dead, EvtUnitDefeated)...)
	}
	return events, nil
}
