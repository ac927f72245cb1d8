package types

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DoyleJ11/grid-tactics-server/internal/engine"
	"github.com/DoyleJ11/grid-tactics-server/internal/roster"
)

var ErrMalformedMessage = errors.New("malformed message")

// Client -> Server
const (
	MsgPlayerJoin       = "PLAYER_JOIN"
	MsgUpdateTeam       = "UPDATE_TEAM"
	MsgUpdateCharacter  = "UPDATE_CHARACTER"
	MsgHostStartGame    = "HOST_START_GAME"
	MsgHostStartGamePvP = "HOST_START_GAME_PVP"
	MsgActionMove       = "ACTION_MOVE"
	MsgActionSkill      = "ACTION_SKILL"
	MsgActionEndTurn    = "ACTION_END_TURN"
)

// Server -> Client
const (
	MsgWelcome          = "WELCOME"
	MsgPlayerListUpdate = "PLAYER_LIST_UPDATE"
	MsgGameStart        = "GAME_START"
	MsgStateUpdate      = "STATE_UPDATE"
	MsgTurnChange       = "TURN_CHANGE"
	MsgGameOver         = "GAME_OVER"
	MsgError            = "ERROR"
)

type ClientMessage struct {
	Type      string     `json:"type"`
	Character *Character `json:"character,omitempty"`
	Team      string     `json:"team,omitempty"`
	SkillID   int        `json:"skillId,omitempty"`
	TargetX   int        `json:"targetX"`
	TargetY   int        `json:"targetY"`
}

// DecodeClientMessage parses one inbound frame. Unknown types are left for
// the caller to reject.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var m ClientMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if m.Type == "" {
		return ClientMessage{}, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	return m, nil
}

// Character is the build a client brings to a room. Derived stats the
// client sends alongside (MAX_HP, MAX_MOVE, ...) are ignored.
type Character struct {
	ID     FlexID       `json:"id"`
	Name   string       `json:"name"`
	Level  int          `json:"level"`
	Stats  engine.Stats `json:"stats"`
	Skills SkillRefs    `json:"skills"`
}

func (c Character) Sheet() roster.Sheet {
	return roster.Sheet{
		ID:     string(c.ID),
		Name:   c.Name,
		Level:  c.Level,
		Stats:  c.Stats,
		Skills: []int(c.Skills),
	}
}

// FlexID accepts a JSON string or number.
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("id: want a string or a number")
	}
	*id = FlexID(n.String())
	return nil
}

// SkillRefs is a list of skill ids. Each element may be a bare id or a full
// skill object carrying an "id"; nulls and zeros are empty slots.
type SkillRefs []int

func (r *SkillRefs) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("skills: %w", err)
	}

	refs := make(SkillRefs, 0, len(raw))
	for i, item := range raw {
		if string(item) == "null" {
			continue
		}
		var id int
		if err := json.Unmarshal(item, &id); err == nil {
			if id != 0 {
				refs = append(refs, id)
			}
			continue
		}
		var obj struct {
			ID *int `json:"id"`
		}
		if err := json.Unmarshal(item, &obj); err != nil || obj.ID == nil {
			return fmt.Errorf("skills[%d]: want a number or an object with an id", i)
		}
		refs = append(refs, *obj.ID)
	}
	*r = refs
	return nil
}

type ServerMessage struct {
	Type string `json:"type"`

	ConnectionID string       `json:"connectionId,omitempty"`
	Players      []PlayerView `json:"players,omitempty"`

	InitialState *StateView `json:"initialState,omitempty"`
	NewState     *StateView `json:"newState,omitempty"`

	CurrentTeam     engine.Team            `json:"currentTeam,omitempty"`
	CurrentUnitID   engine.UnitID          `json:"currentUnitId,omitempty"`
	CurrentUnitName string                 `json:"currentUnitName,omitempty"`
	CurrentPlayerID string                 `json:"currentPlayerId,omitempty"`
	Round           int                    `json:"round,omitempty"`
	Reachable       []engine.Point         `json:"reachable,omitempty"`
	SkillRanges     map[int][]engine.Point `json:"skillRanges,omitempty"`

	Winner engine.Team `json:"winner,omitempty"`
	Draw   bool        `json:"draw,omitempty"`
	Reason string      `json:"reason,omitempty"`

	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type PlayerView struct {
	Name   string      `json:"name"`
	Level  int         `json:"level"`
	Team   engine.Team `json:"team"`
	IsHost bool        `json:"isHost"`
}

// StateView is the board as clients draw it.
type StateView struct {
	BoardSize     int            `json:"boardSize"`
	ZoneWidth     int            `json:"zoneWidth"`
	Units         []UnitView     `json:"units"`
	Status        string         `json:"status"`
	CurrentTeam   engine.Team    `json:"currentTeam,omitempty"`
	CurrentUnitID engine.UnitID  `json:"currentUnitId,omitempty"`
	Round         int            `json:"round"`
	Winner        engine.Team    `json:"winner,omitempty"`
	Draw          bool           `json:"draw,omitempty"`
	Events        []engine.Event `json:"events,omitempty"`
}

type UnitView struct {
	ID          engine.UnitID `json:"id"`
	PlayerID    string        `json:"playerId"`
	Team        engine.Team   `json:"team"`
	Name        string        `json:"name"`
	Initial     string        `json:"initial"`
	Level       int           `json:"level"`
	X           int           `json:"x"`
	Y           int           `json:"y"`
	HP          int           `json:"hp"`
	MaxHP       int           `json:"maxHp"`
	CurrentMove int           `json:"currentMove"`
	MaxMove     int           `json:"maxMove"`
	Stats       engine.Stats  `json:"stats"`
	Skills      []int         `json:"skills"`
}
