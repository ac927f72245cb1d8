package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/grid-tactics-server/internal/engine"
	"github.com/DoyleJ11/grid-tactics-server/internal/lobby"
)

type HubMsg interface{ isHubMsg() }

// CreateLobby makes a new room under Code. Reply gets nil when the code is
// already taken.
type CreateLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type EnsureLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

// RemoveLobby shuts the room down. Reply, if set, reports whether it existed.
type RemoveLobby struct {
	Code  string
	Reply chan bool
}

type ListLobbies struct {
	Reply chan []string
}

type ShutdownHub struct{}

func (CreateLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (EnsureLobby) isHubMsg() {}
func (RemoveLobby) isHubMsg() {}
func (ListLobbies) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

// Config is the template every room is built from. Rooms run on their own
// goroutines, so each gets a fresh Source from NewSource.
type Config struct {
	Lobby       lobby.Config
	NewSource   func() engine.Source
	DefaultRoom string
	Logger      *zap.Logger
}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	cfg     Config
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, cfg Config) *Hub {
	ctx, cancel := context.WithCancel(parent)
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		cfg:     cfg,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	if cfg.DefaultRoom != "" {
		h.newLobby(cfg.DefaultRoom)
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) DefaultRoom() string { return h.cfg.DefaultRoom }

// Done is closed once the hub stops.
func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

// Send delivers msg unless ctx ends or the hub has stopped.
func (h *Hub) Send(ctx context.Context, msg HubMsg) bool {
	select {
	case h.inbox <- msg:
		return true
	case <-ctx.Done():
		return false
	case <-h.ctx.Done():
		return false
	}
}

// Await waits for the answer to a request sent with Send. A hub that stops
// first never answers, so ok is false then.
func Await[T any](ctx context.Context, h *Hub, reply chan T) (v T, ok bool) {
	select {
	case v = <-reply:
		return v, true
	case <-ctx.Done():
		return v, false
	case <-h.ctx.Done():
		return v, false
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				if h.lobbies[msg.Code] != nil {
					msg.Reply <- nil
					break
				}
				msg.Reply <- h.newLobby(msg.Code)

			case GetLobby:
				msg.Reply <- h.lobbies[msg.Code] // May be nil

			case EnsureLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					msg.Reply <- lb
					break
				}
				msg.Reply <- h.newLobby(msg.Code)

			case RemoveLobby:
				lb, ok := h.lobbies[msg.Code]
				if ok {
					lb.Send(lobby.Shutdown{})
					delete(h.lobbies, msg.Code)
					h.log.Info("room removed", zap.String("room", msg.Code))
				}
				if msg.Reply != nil {
					msg.Reply <- ok
				}

			case ListLobbies:
				codes := make([]string, 0, len(h.lobbies))
				for code := range h.lobbies {
					codes = append(codes, code)
				}
				msg.Reply <- codes

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) newLobby(code string) *lobby.Lobby {
	cfg := h.cfg.Lobby
	if h.cfg.NewSource != nil {
		cfg.Source = h.cfg.NewSource()
	}
	lb := lobby.NewLobby(h.ctx, code, cfg)
	h.lobbies[code] = lb
	h.log.Info("room created", zap.String("room", code))
	return lb
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		lb.Send(lobby.Shutdown{})
	}
	clear(h.lobbies)
	h.cancel()
}
