package ws

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/grid-tactics-server/internal/broadcast"
	"github.com/DoyleJ11/grid-tactics-server/internal/engine"
	"github.com/DoyleJ11/grid-tactics-server/internal/hub"
	"github.com/DoyleJ11/grid-tactics-server/internal/lobby"
	"github.com/DoyleJ11/grid-tactics-server/internal/types"
)

type Options struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	OutboxSize     int
	OriginPatterns []string
	Logger         *zap.Logger
}

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = 8
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Minute
	}

	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			code = h.DefaultRoom()
		}
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		reply := make(chan *lobby.Lobby, 1)
		if !h.Send(r.Context(), hub.GetLobby{Code: code, Reply: reply}) {
			http.Error(w, "server shutting down", http.StatusServiceUnavailable)
			return
		}
		lb, ok := hub.Await(r.Context(), h, reply)
		if !ok {
			http.Error(w, "server shutting down", http.StatusServiceUnavailable)
			return
		}
		if lb == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.CloseNow()

		clientID := uuid.NewString()
		log := log.With(zap.String("room", code), zap.String("client", clientID))

		out := make(chan types.ServerMessage, opts.OutboxSize)
		if !lb.Send(lobby.Attach{ClientID: clientID, Outbox: out}) {
			conn.Close(websocket.StatusGoingAway, "room closed")
			return
		}
		defer lb.Send(lobby.Detach{ClientID: clientID})
		log.Debug("client connected")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine. The lobby closes out when it drops or forgets
		// this client; cancelling ctx then ends the reader below.
		go func() {
			defer cancel()
			for msg := range out {
				if err := write(ctx, conn, opts.WriteTimeout, msg); err != nil {
					log.Debug("write failed", zap.Error(err))
					return
				}
			}
		}()

		// Reader loop
		for {
			readCtx, cancelRead := context.WithTimeout(ctx, opts.ReadTimeout)
			_, data, err := conn.Read(readCtx)
			cancelRead()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					log.Debug("client closed")
				default:
					log.Debug("read ended", zap.Error(err))
				}
				return
			}

			msg, err := toLobbyMsg(clientID, data)
			if err != nil {
				_ = write(ctx, conn, opts.WriteTimeout, broadcast.Error(err))
				continue
			}
			if !lb.Send(msg) {
				conn.Close(websocket.StatusGoingAway, "room closed")
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, timeout time.Duration, msg types.ServerMessage) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return wsjson.Write(ctx, conn, msg)
}

// toLobbyMsg turns one inbound frame into the lobby message it asks for.
func toLobbyMsg(clientID string, data []byte) (lobby.Msg, error) {
	m, err := types.DecodeClientMessage(data)
	if err != nil {
		return nil, err
	}

	switch m.Type {
	case types.MsgPlayerJoin:
		if m.Character == nil {
			return nil, fmt.Errorf("%w: character is required", types.ErrMalformedMessage)
		}
		var team engine.Team
		if m.Team != "" {
			t, ok := engine.ParseTeam(m.Team)
			if !ok {
				return nil, fmt.Errorf("%w: unknown team %q", types.ErrMalformedMessage, m.Team)
			}
			team = t
		}
		return lobby.PlayerJoin{ClientID: clientID, Sheet: m.Character.Sheet(), Team: team}, nil

	case types.MsgUpdateTeam:
		team, ok := engine.ParseTeam(m.Team)
		if !ok {
			return nil, fmt.Errorf("%w: unknown team %q", types.ErrMalformedMessage, m.Team)
		}
		return lobby.UpdateTeam{ClientID: clientID, Team: team}, nil

	case types.MsgUpdateCharacter:
		if m.Character == nil {
			return nil, fmt.Errorf("%w: character is required", types.ErrMalformedMessage)
		}
		return lobby.UpdateCharacter{ClientID: clientID, Sheet: m.Character.Sheet()}, nil

	case types.MsgHostStartGame, types.MsgHostStartGamePvP:
		return lobby.StartGame{ClientID: clientID}, nil

	case types.MsgActionMove:
		return lobby.Action{Cmd: engine.Command{
			Type:   engine.CmdMove,
			Actor:  clientID,
			Target: engine.Point{X: m.TargetX, Y: m.TargetY},
		}}, nil

	case types.MsgActionSkill:
		if m.SkillID == 0 {
			return nil, fmt.Errorf("%w: skillId is required", types.ErrMalformedMessage)
		}
		return lobby.Action{Cmd: engine.Command{
			Type:    engine.CmdCastSkill,
			Actor:   clientID,
			SkillID: m.SkillID,
			Target:  engine.Point{X: m.TargetX, Y: m.TargetY},
		}}, nil

	case types.MsgActionEndTurn:
		return lobby.Action{Cmd: engine.Command{Type: engine.CmdEndTurn, Actor: clientID}}, nil

	default:
		return nil, fmt.Errorf("%w: %q", engine.ErrUnsupportedCommand, m.Type)
	}
}
