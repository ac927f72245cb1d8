package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/grid-tactics-server/internal/engine"
)

func TestDecodeClientMessage_PlayerJoinFromBrowserClient(t *testing.T) {
	frame := `{
		"type": "PLAYER_JOIN",
		"team": "A",
		"character": {
			"id": 1718000000000,
			"name": "Ayla",
			"level": 3,
			"stats": {"STR": 5, "DEX": 2, "VIT": 3, "INT": 1, "AGI": 4, "LUK": 2, "MAX_HP": 999, "MAX_MOVE": 99},
			"skills": [{"id": 2, "name": "Mend", "cost": 1}, null],
			"createdAt": "2024-06-10T00:00:00Z"
		}
	}`
	m, err := DecodeClientMessage([]byte(frame))
	require.NoError(t, err)
	require.NotNil(t, m.Character)

	s := m.Character.Sheet()
	assert.Equal(t, "1718000000000", s.ID)
	assert.Equal(t, "Ayla", s.Name)
	assert.Equal(t, 3, s.Level)
	assert.Equal(t, engine.Stats{STR: 5, DEX: 2, VIT: 3, INT: 1, AGI: 4, LUK: 2}, s.Stats)
	assert.Equal(t, []int{2}, s.Skills)
	assert.Equal(t, 80, s.MaxHP())
}

func TestSkillRefs_MixedElements(t *testing.T) {
	var refs SkillRefs
	require.NoError(t, json.Unmarshal([]byte(`[3, {"id": 4}, 0, null]`), &refs))
	assert.Equal(t, SkillRefs{3, 4}, refs)

	assert.Error(t, json.Unmarshal([]byte(`["fireball"]`), &refs))
	assert.Error(t, json.Unmarshal([]byte(`[{"name": "no id"}]`), &refs))
}

func TestFlexID(t *testing.T) {
	var c Character
	require.NoError(t, json.Unmarshal([]byte(`{"id": "abc"}`), &c))
	assert.Equal(t, FlexID("abc"), c.ID)
	require.NoError(t, json.Unmarshal([]byte(`{"id": 42}`), &c))
	assert.Equal(t, FlexID("42"), c.ID)
	assert.Error(t, json.Unmarshal([]byte(`{"id": [1]}`), &c))
}

func TestDecodeClientMessage_Actions(t *testing.T) {
	m, err := DecodeClientMessage([]byte(`{"type":"ACTION_SKILL","skillId":7,"targetX":2,"targetY":0}`))
	require.NoError(t, err)
	assert.Equal(t, MsgActionSkill, m.Type)
	assert.Equal(t, 7, m.SkillID)
	assert.Equal(t, 2, m.TargetX)
	assert.Equal(t, 0, m.TargetY)
}

func TestDecodeClientMessage_Malformed(t *testing.T) {
	for _, frame := range []string{`not json`, `{}`, `{"type": 5}`} {
		_, err := DecodeClientMessage([]byte(frame))
		assert.ErrorIs(t, err, ErrMalformedMessage, frame)
	}
}

func TestServerMessage_OmitsUnsetFields(t *testing.T) {
	b, err := json.Marshal(ServerMessage{Type: MsgWelcome, ConnectionID: "c1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"WELCOME","connectionId":"c1"}`, string(b))

	b, err = json.Marshal(ServerMessage{Type: MsgError, Code: "NOT_YOUR_TURN", Message: "not your turn"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ERROR","code":"NOT_YOUR_TURN","message":"not your turn"}`, string(b))
}
