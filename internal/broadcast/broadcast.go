// Package broadcast projects roster and session state into outbound
// messages. Every function is pure: the same inputs give the same message.
package broadcast

import (
	"errors"
	"slices"

	"github.com/DoyleJ11/grid-tactics-server/internal/engine"
	"github.com/DoyleJ11/grid-tactics-server/internal/roster"
	"github.com/DoyleJ11/grid-tactics-server/internal/types"
)

func Welcome(conn string) types.ServerMessage {
	return types.ServerMessage{Type: types.MsgWelcome, ConnectionID: conn}
}

func PlayerList(participants []roster.Participant) types.ServerMessage {
	players := make([]types.PlayerView, 0, len(participants))
	for _, p := range participants {
		players = append(players, types.PlayerView{
			Name:   p.Sheet.Name,
			Level:  p.Sheet.Level,
			Team:   p.Team,
			IsHost: p.Host,
		})
	}
	return types.ServerMessage{Type: types.MsgPlayerListUpdate, Players: players}
}

// State flattens the board and cursor. events are the deltas that produced
// this state, if any.
func State(s *engine.Session, events []engine.Event) *types.StateView {
	units := make([]types.UnitView, 0, len(s.Board.Units))
	for _, u := range s.Board.Units {
		units = append(units, types.UnitView{
			ID:          u.ID,
			PlayerID:    u.Owner,
			Team:        u.Team,
			Name:        u.Name,
			Initial:     u.Initial,
			Level:       u.Level,
			X:           u.Pos.X,
			Y:           u.Pos.Y,
			HP:          u.HP,
			MaxHP:       u.MaxHP,
			CurrentMove: u.CurrentMove,
			MaxMove:     u.MaxMove,
			Stats:       u.Stats,
			Skills:      slices.Clone(u.Skills),
		})
	}

	view := &types.StateView{
		BoardSize: s.Board.Size,
		ZoneWidth: s.Board.ZoneWidth,
		Units:     units,
		Status:    string(s.Cursor.State),
		Round:     s.Cursor.Round,
		Winner:    s.Cursor.Winner,
		Draw:      s.Cursor.Draw,
		Events:    slices.Clone(events),
	}
	if id, ok := s.Cursor.Current(); ok {
		view.CurrentTeam = s.Cursor.Team
		view.CurrentUnitID = id
	}
	return view
}

func GameStart(s *engine.Session) types.ServerMessage {
	return types.ServerMessage{Type: types.MsgGameStart, InitialState: State(s, nil)}
}

func StateUpdate(s *engine.Session, events []engine.Event) types.ServerMessage {
	return types.ServerMessage{Type: types.MsgStateUpdate, NewState: State(s, events)}
}

// TurnChange announces the unit now holding the turn together with its
// legal move and skill tiles.
func TurnChange(s *engine.Session) types.ServerMessage {
	msg := types.ServerMessage{
		Type:     types.MsgTurnChange,
		Round:    s.Cursor.Round,
		NewState: State(s, nil),
	}
	u, ok := s.CurrentUnit()
	if !ok {
		return msg
	}
	msg.CurrentTeam = u.Team
	msg.CurrentUnitID = u.ID
	msg.CurrentUnitName = u.Name
	msg.CurrentPlayerID = u.Owner
	msg.Reachable = s.ReachableTiles(u)
	msg.SkillRanges = make(map[int][]engine.Point, len(u.Skills))
	for _, id := range u.Skills {
		msg.SkillRanges[id] = s.TargetableTiles(u, id)
	}
	return msg
}

func GameOver(s *engine.Session, reason string) types.ServerMessage {
	return types.ServerMessage{
		Type:     types.MsgGameOver,
		Winner:   s.Cursor.Winner,
		Draw:     s.Cursor.Draw,
		Reason:   reason,
		NewState: State(s, nil),
	}
}

// AfterEvents is the sequence every client sees after a resolution: the
// state delta, then the turn or session change it caused.
func AfterEvents(s *engine.Session, events []engine.Event) []types.ServerMessage {
	msgs := []types.ServerMessage{StateUpdate(s, events)}
	switch {
	case engine.ContainsEvent(events, engine.EvtSessionEnded):
		msgs = append(msgs, GameOver(s, ReasonElimination))
	case engine.ContainsEvent(events, engine.EvtTurnAdvanced):
		msgs = append(msgs, TurnChange(s))
	}
	return msgs
}

const (
	ReasonElimination = "elimination"
	ReasonHostLeft    = "host left"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{engine.ErrNotYourTurn, "NOT_YOUR_TURN"},
	{engine.ErrUnknownSkill, "UNKNOWN_SKILL"},
	{engine.ErrSkillNotEquipped, "SKILL_NOT_EQUIPPED"},
	{engine.ErrOutOfRange, "OUT_OF_RANGE"},
	{engine.ErrInsufficientMove, "INSUFFICIENT_MOVE"},
	{engine.ErrTileOccupied, "TILE_OCCUPIED"},
	{engine.ErrInvalidTarget, "INVALID_TARGET"},
	{engine.ErrPlacementFailed, "START_FAILED"},
	{engine.ErrInvalidRules, "START_FAILED"},
	{engine.ErrTeamEmpty, "TEAM_EMPTY"},
	{engine.ErrUnsupportedCommand, "UNSUPPORTED_COMMAND"},
	{engine.ErrSessionEnded, "SESSION_ENDED"},
	{engine.ErrSessionInProgress, "SESSION_IN_PROGRESS"},
	{engine.ErrNoSession, "NO_SESSION"},
	{roster.ErrUnknownParticipant, "UNKNOWN_PARTICIPANT"},
	{roster.ErrNotHost, "NOT_HOST"},
	{roster.ErrInvalidSheet, "INVALID_SHEET"},
	{types.ErrMalformedMessage, "BAD_MESSAGE"},
}

// ErrorCode maps err to the stable code clients switch on.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "INTERNAL"
}

func Error(err error) types.ServerMessage {
	return types.ServerMessage{Type: types.MsgError, Code: ErrorCode(err), Message: err.Error()}
}
