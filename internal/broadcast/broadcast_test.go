package broadcast_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/grid-tactics-server/internal/broadcast"
	"github.com/DoyleJ11/grid-tactics-server/internal/catalog"
	"github.com/DoyleJ11/grid-tactics-server/internal/engine"
	"github.com/DoyleJ11/grid-tactics-server/internal/roster"
	"github.com/DoyleJ11/grid-tactics-server/internal/types"
)

func startSession(t *testing.T) *engine.Session {
	t.Helper()
	skills, err := catalog.New([]catalog.Skill{
		{ID: 1, Name: "Slash", Type: catalog.TypeOffensive, StatDependency: catalog.StatSTR,
			RangeType: catalog.RangeFixed, RangeValue: 1, TargetShape: catalog.ShapeSingle, BaseMultiplier: 1},
	})
	require.NoError(t, err)

	stats := engine.Stats{STR: 2, DEX: 1, VIT: 1, INT: 1, AGI: 2, LUK: 1}
	spawns := []engine.Spawn{
		{Owner: "c1", Team: engine.TeamA, Name: "ayla", Level: 1, Stats: stats, Skills: []int{1}},
		{Owner: "c2", Team: engine.TeamB, Name: "bren", Level: 2, Stats: stats, Skills: []int{1}},
	}
	s, _, err := engine.Start(engine.Rules{BoardSize: 8, ZoneWidth: 2}, spawns, skills, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	return s
}

func TestPlayerList(t *testing.T) {
	r := roster.New()
	r.Join("c1", roster.Sheet{Name: "ayla", Level: 3}, engine.TeamA)
	r.Join("c2", roster.Sheet{Name: "bren", Level: 1}, "")

	msg := broadcast.PlayerList(r.Snapshot())
	assert.Equal(t, types.MsgPlayerListUpdate, msg.Type)
	assert.Equal(t, []types.PlayerView{
		{Name: "ayla", Level: 3, Team: engine.TeamA, IsHost: true},
		{Name: "bren", Level: 1, IsHost: false},
	}, msg.Players)
}

func TestState_FlattensUnits(t *testing.T) {
	s := startSession(t)
	view := broadcast.State(s, nil)

	assert.Equal(t, 8, view.BoardSize)
	assert.Equal(t, string(engine.StateAwaitingAction), view.Status)
	assert.Equal(t, engine.TeamA, view.CurrentTeam)
	require.Len(t, view.Units, 2)

	for i, u := range s.Board.Units {
		assert.Equal(t, u.ID, view.Units[i].ID)
		assert.Equal(t, u.Pos.X, view.Units[i].X)
		assert.Equal(t, u.Pos.Y, view.Units[i].Y)
		assert.Equal(t, u.Owner, view.Units[i].PlayerID)
	}
}

func TestProjections_AreDeterministic(t *testing.T) {
	s := startSession(t)
	assert.Equal(t, broadcast.TurnChange(s), broadcast.TurnChange(s))
	assert.Equal(t, broadcast.GameStart(s), broadcast.GameStart(s))
}

func TestTurnChange_NamesCurrentUnit(t *testing.T) {
	s := startSession(t)
	u, ok := s.CurrentUnit()
	require.True(t, ok)

	msg := broadcast.TurnChange(s)
	assert.Equal(t, types.MsgTurnChange, msg.Type)
	assert.Equal(t, engine.TeamA, msg.CurrentTeam)
	assert.Equal(t, u.ID, msg.CurrentUnitID)
	assert.Equal(t, "ayla", msg.CurrentUnitName)
	assert.Equal(t, "c1", msg.CurrentPlayerID)
	assert.Equal(t, 1, msg.Round)
	assert.NotEmpty(t, msg.Reachable)
	assert.Contains(t, msg.SkillRanges, 1)
}

func TestAfterEvents(t *testing.T) {
	s := startSession(t)

	events, err := s.Apply(engine.Command{Type: engine.CmdEndTurn, Actor: "c1"})
	require.NoError(t, err)
	msgs := broadcast.AfterEvents(s, events)
	require.Len(t, msgs, 2)
	assert.Equal(t, types.MsgStateUpdate, msgs[0].Type)
	assert.Equal(t, types.MsgTurnChange, msgs[1].Type)
	assert.Equal(t, "c2", msgs[1].CurrentPlayerID)

	events, ok := s.RemoveOwner("c2")
	require.True(t, ok)
	msgs = broadcast.AfterEvents(s, events)
	require.Len(t, msgs, 2)
	assert.Equal(t, types.MsgGameOver, msgs[1].Type)
	assert.Equal(t, engine.TeamA, msgs[1].Winner)
	assert.Equal(t, broadcast.ReasonElimination, msgs[1].Reason)
}

func TestErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("%w: distance 5", engine.ErrOutOfRange), "OUT_OF_RANGE"},
		{engine.ErrNotYourTurn, "NOT_YOUR_TURN"},
		{fmt.Errorf("%w: zone full", engine.ErrPlacementFailed), "START_FAILED"},
		{roster.ErrNotHost, "NOT_HOST"},
		{fmt.Errorf("%w: x", roster.ErrInvalidSheet), "INVALID_SHEET"},
		{fmt.Errorf("boom"), "INTERNAL"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, broadcast.ErrorCode(tc.err), tc.err.Error())
	}

	msg := broadcast.Error(engine.ErrTileOccupied)
	assert.Equal(t, types.MsgError, msg.Type)
	assert.Equal(t, "TILE_OCCUPIED", msg.Code)
	assert.Equal(t, "tile occupied", msg.Message)
}
