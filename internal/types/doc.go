// Package types holds the JSON frames exchanged over the websocket.
//
// Client -> Server
//
//	PLAYER_JOIN:
//	  character: { id, name, level, stats: {STR, DEX, VIT, INT, AGI, LUK}, skills: [id | {id}] }
//	  team: "A" | "B" | ""   // optional
//
//	UPDATE_TEAM:
//	  team: "A" | "B"
//
//	UPDATE_CHARACTER:
//	  character: same shape as PLAYER_JOIN
//
//	HOST_START_GAME (HOST_START_GAME_PVP): {}
//
//	ACTION_MOVE:
//	  targetX, targetY: number
//
//	ACTION_SKILL:
//	  skillId: number
//	  targetX, targetY: number
//
//	ACTION_END_TURN: {}
//
// Server -> Client
//
//	WELCOME:            connectionId
//	PLAYER_LIST_UPDATE: players: [{name, level, team, isHost}]
//	GAME_START:         initialState
//	STATE_UPDATE:       newState
//	TURN_CHANGE:        currentTeam, currentUnitId, currentUnitName, currentPlayerId, round,
//	                    reachable, skillRanges, newState
//	GAME_OVER:          winner | draw, reason, newState
//	ERROR:              code, message   // only to the offending connection
package types
