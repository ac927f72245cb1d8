package engine

import "slices"

type CursorState string

const (
	StatePending        CursorState = "pending"
	StateAwaitingAction CursorState = "awaiting_action"
	StateTeamExhausted  CursorState = "team_exhausted"
	StateSessionEnded   CursorState = "session_ended"
)

// Cursor decides which unit may act. Order holds each team's live unit ids
// in placement order; Index points into Order[Team].
type Cursor struct {
	State  CursorState       `json:"state"`
	Team   Team              `json:"team"`
	Index  int               `json:"index"`
	Round  int               `json:"round"`
	Order  map[Team][]UnitID `json:"order"`
	Winner Team              `json:"winner,omitempty"`
	Draw   bool              `json:"draw,omitempty"`
}

// NewCursor starts on team A before its first unit, so the first
// advanceUnit lands on index 0.
func NewCursor(order map[Team][]UnitID) *Cursor {
	return &Cursor{
		State: StatePending,
		Team:  TeamA,
		Index: -1,
		Round: 1,
		Order: map[Team][]UnitID{
			TeamA: slices.Clone(order[TeamA]),
			TeamB: slices.Clone(order[TeamB]),
		},
	}
}

// Current returns the unit holding the turn.
func (c *Cursor) Current() (UnitID, bool) {
	if c.State != StateAwaitingAction {
		return "", false
	}
	list := c.Order[c.Team]
	if c.Index < 0 || c.Index >= len(list) {
		return "", false
	}
	return list[c.Index], true
}

func (c *Cursor) Ended() bool { return c.State == StateSessionEnded }

func (c *Cursor) advanceUnit(b *Board) []Event {
	if c.Ended() {
		return nil
	}
	c.Index++
	if c.Index < len(c.Order[c.Team]) {
		c.State = StateAwaitingAction
		return []Event{c.turnEvent()}
	}
	c.State = StateTeamExhausted
	return c.advanceTeam(b)
}

// advanceTeam flips the active team and refreshes every live unit's move
// budget. An empty incoming team ends the session.
func (c *Cursor) advanceTeam(b *Board) []Event {
	c.Team = c.Team.Other()
	c.Index = 0
	if c.Team == TeamA {
		c.Round++
	}
	b.refreshMoves()
	events := []Event{{Type: EvtMovesRefreshed, Round: c.Round, Team: c.Team}}

	if len(c.Order[c.Team]) > 0 {
		c.State = StateAwaitingAction
		return append(events, c.turnEvent())
	}
	if len(c.Order[c.Team.Other()]) == 0 {
		return append(events, c.end("", true))
	}
	return append(events, c.end(c.Team.Other(), false))
}

// removeUnit drops id from its team's list and reports whether it held the
// turn. Index is shifted so the active unit stays active.
func (c *Cursor) removeUnit(id UnitID, team Team) bool {
	list := c.Order[team]
	pos := slices.Index(list, id)
	if pos < 0 {
		return false
	}
	c.Order[team] = slices.Delete(slices.Clone(list), pos, pos+1)
	if team != c.Team {
		return false
	}
	active := pos == c.Index && c.State == StateAwaitingAction
	if pos < c.Index || active {
		c.Index--
	}
	return active
}

func (c *Cursor) checkElimination() []Event {
	if c.Ended() {
		return nil
	}
	a, b := len(c.Order[TeamA]), len(c.Order[TeamB])
	switch {
	case a == 0 && b == 0:
		return []Event{c.end("", true)}
	case a == 0:
		return []Event{c.end(TeamB, false)}
	case b == 0:
		return []Event{c.end(TeamA, false)}
	}
	return nil
}

func (c *Cursor) end(winner Team, draw bool) Event {
	c.State = StateSessionEnded
	c.Winner = winner
	c.Draw = draw
	return Event{Type: EvtSessionEnded, Round: c.Round, Team: winner, Draw: draw}
}

func (c *Cursor) turnEvent() Event {
	id, _ := c.Current()
	return Event{Type: EvtTurnAdvanced, Round: c.Round, Team: c.Team, UnitID: id}
}

// Clone returns a deep copy.
func (c *Cursor) Clone() *Cursor {
	cp := *c
	cp.Order = map[Team][]UnitID{
		TeamA: slices.Clone(c.Order[TeamA]),
		TeamB: slices.Clone(c.Order[TeamB]),
	}
	return &cp
}
