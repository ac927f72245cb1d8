package ws

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/grid-tactics-server/internal/catalog"
	"github.com/DoyleJ11/grid-tactics-server/internal/engine"
	"github.com/DoyleJ11/grid-tactics-server/internal/hub"
	"github.com/DoyleJ11/grid-tactics-server/internal/lobby"
	"github.com/DoyleJ11/grid-tactics-server/internal/types"
)

func TestToLobbyMsg(t *testing.T) {
	cases := []struct {
		name  string
		frame string
		want  lobby.Msg
	}{
		{"move", `{"type":"ACTION_MOVE","targetX":2,"targetY":3}`,
			lobby.Action{Cmd: engine.Command{Type: engine.CmdMove, Actor: "c1", Target: engine.Point{X: 2, Y: 3}}}},
		{"skill", `{"type":"ACTION_SKILL","skillId":4,"targetX":1,"targetY":0}`,
			lobby.Action{Cmd: engine.Command{Type: engine.CmdCastSkill, Actor: "c1", SkillID: 4, Target: engine.Point{X: 1}}}},
		{"end turn", `{"type":"ACTION_END_TURN"}`,
			lobby.Action{Cmd: engine.Command{Type: engine.CmdEndTurn, Actor: "c1"}}},
		{"start", `{"type":"HOST_START_GAME"}`, lobby.StartGame{ClientID: "c1"}},
		{"start pvp alias", `{"type":"HOST_START_GAME_PVP"}`, lobby.StartGame{ClientID: "c1"}},
		{"team", `{"type":"UPDATE_TEAM","team":"b"}`, lobby.UpdateTeam{ClientID: "c1", Team: engine.TeamB}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := toLobbyMsg("c1", []byte(tc.frame))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestToLobbyMsg_Join(t *testing.T) {
	got, err := toLobbyMsg("c1", []byte(`{"type":"PLAYER_JOIN","team":"A","character":{"id":7,"name":"ayla","level":2,
		"stats":{"STR":1,"DEX":1,"VIT":1,"INT":1,"AGI":1,"LUK":1},"skills":[1]}}`))
	require.NoError(t, err)
	join, ok := got.(lobby.PlayerJoin)
	require.True(t, ok)
	assert.Equal(t, engine.TeamA, join.Team)
	assert.Equal(t, "ayla", join.Sheet.Name)
	assert.Equal(t, []int{1}, join.Sheet.Skills)
}

func TestToLobbyMsg_Rejects(t *testing.T) {
	for _, frame := range []string{
		`{"type":"PLAYER_JOIN"}`,
		`{"type":"PLAYER_JOIN","team":"C","character":{"name":"x"}}`,
		`{"type":"UPDATE_TEAM","team":""}`,
		`{"type":"UPDATE_CHARACTER"}`,
		`{"type":"ACTION_SKILL","targetX":1}`,
		`{"type":"DANCE"}`,
		`{{`,
	} {
		_, err := toLobbyMsg("c1", []byte(frame))
		assert.Error(t, err, frame)
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	skills, err := catalog.New([]catalog.Skill{
		{ID: 1, Name: "Slash", Type: catalog.TypeOffensive, StatDependency: catalog.StatSTR,
			RangeType: catalog.RangeFixed, RangeValue: 1, TargetShape: catalog.ShapeSingle, BaseMultiplier: 1},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	h := hub.NewHub(ctx, hub.Config{
		Lobby:       lobby.Config{Rules: engine.Rules{BoardSize: 10, ZoneWidth: 3}, Skills: skills},
		NewSource:   func() engine.Source { return rand.New(rand.NewPCG(1, 2)) },
		DefaultRoom: "main",
	})
	srv := httptest.NewServer(Handler(h, Options{ReadTimeout: 5 * time.Second, WriteTimeout: time.Second, OutboxSize: 16}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(frame)))
}

// readUntil reads frames until one satisfies match.
func readUntil(t *testing.T, conn *websocket.Conn, match func(types.ServerMessage) bool) types.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		var msg types.ServerMessage
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		if match(msg) {
			return msg
		}
	}
}

func ofType(typ string) func(types.ServerMessage) bool {
	return func(m types.ServerMessage) bool { return m.Type == typ }
}

func withPlayers(n int) func(types.ServerMessage) bool {
	return func(m types.ServerMessage) bool {
		return m.Type == types.MsgPlayerListUpdate && len(m.Players) == n
	}
}

func joinFrame(name, team string) string {
	return fmt.Sprintf(`{"type":"PLAYER_JOIN","team":%q,"character":{"id":%q,"name":%q,"level":1,
		"stats":{"STR":3,"DEX":1,"VIT":1,"INT":1,"AGI":3,"LUK":1},"skills":[{"id":1}]}}`, team, name, name)
}

func TestHandler_RoundTrip(t *testing.T) {
	srv := newTestServer(t)

	c1 := dial(t, srv, "")
	welcome := readUntil(t, c1, ofType(types.MsgWelcome))
	assert.NotEmpty(t, welcome.ConnectionID)

	c2 := dial(t, srv, "?code=main")
	readUntil(t, c2, ofType(types.MsgWelcome))

	send(t, c1, joinFrame("ayla", "A"))
	readUntil(t, c1, withPlayers(1))
	send(t, c2, joinFrame("bren", "B"))
	list := readUntil(t, c1, withPlayers(2))
	assert.True(t, list.Players[0].IsHost)
	assert.Equal(t, engine.TeamB, list.Players[1].Team)

	send(t, c1, `not json`)
	bad := readUntil(t, c1, ofType(types.MsgError))
	assert.Equal(t, "BAD_MESSAGE", bad.Code)

	send(t, c1, `{"type":"HOST_START_GAME_PVP"}`)
	start := readUntil(t, c2, ofType(types.MsgGameStart))
	require.NotNil(t, start.InitialState)
	assert.Len(t, start.InitialState.Units, 2)

	turn := readUntil(t, c1, ofType(types.MsgTurnChange))
	assert.Equal(t, welcome.ConnectionID, turn.CurrentPlayerID)
	require.NotEmpty(t, turn.Reachable)

	// c2 may not act on c1's turn.
	send(t, c2, `{"type":"ACTION_END_TURN"}`)
	notYours := readUntil(t, c2, ofType(types.MsgError))
	assert.Equal(t, "NOT_YOUR_TURN", notYours.Code)

	target := turn.Reachable[0]
	send(t, c1, fmt.Sprintf(`{"type":"ACTION_MOVE","targetX":%d,"targetY":%d}`, target.X, target.Y))
	update := readUntil(t, c2, ofType(types.MsgStateUpdate))
	var moved bool
	for _, u := range update.NewState.Units {
		if u.PlayerID == welcome.ConnectionID {
			moved = u.X == target.X && u.Y == target.Y
		}
	}
	assert.True(t, moved, "c1's unit should be at %+v", target)

	// Dropping the only team B player ends the session.
	require.NoError(t, c2.Close(websocket.StatusNormalClosure, "bye"))
	over := readUntil(t, c1, ofType(types.MsgGameOver))
	assert.Equal(t, engine.TeamA, over.Winner)
}

func TestHandler_UnknownRoom(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "?code=nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_HubStopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := hub.NewHub(ctx, hub.Config{DefaultRoom: "main"})
	h.Inbox() <- hub.ShutdownHub{}
	<-h.Done()

	rec := httptest.NewRecorder()
	Handler(h, Options{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?code=main", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
