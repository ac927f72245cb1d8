package engine

import (
	"fmt"
	"slices"
)

// Session is one running battle: the board, the turn cursor, and the table
// mapping connections to the units they control. It is not safe for
// concurrent use; the owning lobby serializes every call.
type Session struct {
	Board  *Board
	Cursor *Cursor

	skills SkillLookup
	owners map[string]UnitID
}

// Start places every spawn, seals the board and hands the first turn to
// team A.
//
// Precondition: skills is non-nil.
// Postcondition: Returns a session in StateAwaitingAction, or an error and no session.
func Start(r Rules, spawns []Spawn, skills SkillLookup, src Source) (*Session, []Event, error) {
	var hasA, hasB bool
	for _, sp := range spawns {
		hasA = hasA || sp.Team == TeamA
		hasB = hasB || sp.Team == TeamB
	}
	if !hasA || !hasB {
		return nil, nil, ErrTeamEmpty
	}

	units, err := Place(r, spawns, src)
	if err != nil {
		return nil, nil, err
	}

	board := &Board{Size: r.BoardSize, ZoneWidth: r.ZoneWidth, Units: units}
	if err := board.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrPlacementFailed, err)
	}

	order := map[Team][]UnitID{}
	owners := make(map[string]UnitID, len(units))
	for _, u := range units {
		order[u.Team] = append(order[u.Team], u.ID)
		owners[u.Owner] = u.ID
	}

	s := &Session{
		Board:  board,
		Cursor: NewCursor(order),
		skills: skills,
		owners: owners,
	}
	events := []Event{{Type: EvtSessionStarted, Round: s.Cursor.Round}}
	events = append(events, s.Cursor.advanceUnit(board)...)
	board.record(s.Cursor.Round, events)
	return s, events, nil
}

// UnitFor returns the live unit controlled by conn.
func (s *Session) UnitFor(conn string) (*Unit, bool) {
	id, ok := s.owners[conn]
	if !ok {
		return nil, false
	}
	return s.Board.Unit(id)
}

// CurrentUnit returns the unit holding the turn.
func (s *Session) CurrentUnit() (*Unit, bool) {
	id, ok := s.Cursor.Current()
	if !ok {
		return nil, false
	}
	return s.Board.Unit(id)
}

func (s *Session) Ended() bool { return s.Cursor.Ended() }

// RemoveOwner takes conn's unit off the board after a disconnect. The
// cursor moves on by itself if that unit held the turn.
func (s *Session) RemoveOwner(conn string) ([]Event, bool) {
	u, ok := s.UnitFor(conn)
	if !ok || s.Ended() {
		return nil, false
	}
	events := s.removeUnit(u, EvtUnitRemoved)
	s.Board.record(s.Cursor.Round, events)
	return events, true
}

// Abort ends the session with no winner and no draw, as when the host
// walks out. An ended session is left alone.
func (s *Session) Abort() []Event {
	if s.Ended() {
		return nil
	}
	events := []Event{s.Cursor.end("", false)}
	s.Board.record(s.Cursor.Round, events)
	return events
}

// removeUnit is the single path for units leaving the board, by death or by
// disconnect.
func (s *Session) removeUnit(u *Unit, reason EventType) []Event {
	s.Board.remove(u.ID)
	delete(s.owners, u.Owner)

	events := []Event{{Type: reason, Round: s.Cursor.Round, Team: u.Team, UnitID: u.ID}}
	wasActive := s.Cursor.removeUnit(u.ID, u.Team)
	if end := s.Cursor.checkElimination(); len(end) > 0 {
		return append(events, end...)
	}
	if wasActive {
		events = append(events, s.Cursor.advanceUnit(s.Board)...)
	}
	return events
}

// ReachableTiles lists the free tiles u could move to with its remaining
// move budget.
func (s *Session) ReachableTiles(u *Unit) []Point {
	var tiles []Point
	for y := 0; y < s.Board.Size; y++ {
		for x := 0; x < s.Board.Size; x++ {
			p := Point{X: x, Y: y}
			d := Manhattan(u.Pos, p)
			if d == 0 || d > u.CurrentMove {
				continue
			}
			if _, occupied := s.Board.UnitAt(p); occupied {
				continue
			}
			tiles = append(tiles, p)
		}
	}
	return tiles
}

// TargetableTiles lists the tiles u may aim skillID at. Unknown or
// unequipped skills have none.
func (s *Session) TargetableTiles(u *Unit, skillID int) []Point {
	skill, ok := s.skills.Skill(skillID)
	if !ok || !slices.Contains(u.Skills, skillID) {
		return nil
	}
	reach := EffectiveRange(skill, u)
	var tiles []Point
	for y := 0; y < s.Board.Size; y++ {
		for x := 0; x < s.Board.Size; x++ {
			p := Point{X: x, Y: y}
			if Manhattan(u.Pos, p) <= reach {
				tiles = append(tiles, p)
			}
		}
	}
	return tiles
}

// Snapshot deep-copies the board and cursor.
func (s *Session) Snapshot() (*Board, *Cursor) {
	return s.Board.Clone(), s.Cursor.Clone()
}
