package lobby

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/grid-tactics-server/internal/broadcast"
	"github.com/DoyleJ11/grid-tactics-server/internal/engine"
	"github.com/DoyleJ11/grid-tactics-server/internal/roster"
	"github.com/DoyleJ11/grid-tactics-server/internal/types"
)

type Msg interface{ isLobbyMsg() }

// Attach registers a connection's outbox. The lobby owns the channel from
// here on and closes it when the client leaves or is dropped.
type Attach struct {
	ClientID string
	Outbox   chan types.ServerMessage
}

func (Attach) isLobbyMsg() {}

type Detach struct{ ClientID string }

func (Detach) isLobbyMsg() {}

type PlayerJoin struct {
	ClientID string
	Sheet    roster.Sheet
	Team     engine.Team
}

func (PlayerJoin) isLobbyMsg() {}

type UpdateTeam struct {
	ClientID string
	Team     engine.Team
}

func (UpdateTeam) isLobbyMsg() {}

type UpdateCharacter struct {
	ClientID string
	Sheet    roster.Sheet
}

func (UpdateCharacter) isLobbyMsg() {}

type StartGame struct{ ClientID string }

func (StartGame) isLobbyMsg() {}

// Action carries a game command; Cmd.Actor is the sending client.
type Action struct{ Cmd engine.Command }

func (Action) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// View is a race-free copy of the lobby's state for tests and the HTTP layer.
type View struct {
	Code         string
	Version      int
	NumClients   int
	Participants []roster.Participant
	InProgress   bool
	Board        *engine.Board
	Cursor       *engine.Cursor
}

type Config struct {
	Rules     engine.Rules
	Skills    engine.SkillLookup
	Source    engine.Source
	InboxSize int
	Logger    *zap.Logger
}

type Lobby struct {
	code    string
	inbox   chan Msg
	cfg     Config
	log     *zap.Logger
	roster  *roster.Registry
	session *engine.Session
	version int
	clients map[string]chan types.ServerMessage
	// dropped holds slow clients cut off mid fan-out. They leave the roster
	// and the board only after the current message is fully handled.
	dropped []string
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewLobby(parent context.Context, code string, cfg Config) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 64
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	l := &Lobby{
		code:    code,
		inbox:   make(chan Msg, cfg.InboxSize),
		cfg:     cfg,
		log:     log.With(zap.String("room", code)),
		roster:  roster.New(),
		clients: make(map[string]chan types.ServerMessage),
		ctx:     ctx,
		cancel:  cancel,
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Attach:
				l.attach(msg)

			case Detach:
				l.disconnect(msg.ClientID)

			case PlayerJoin:
				if err := roster.ValidateSheet(msg.Sheet, l.cfg.Skills); err != nil {
					l.reject(msg.ClientID, err)
					break
				}
				p := l.roster.Join(msg.ClientID, msg.Sheet, msg.Team)
				l.log.Info("player joined",
					zap.String("client", msg.ClientID),
					zap.String("name", p.Sheet.Name),
					zap.Bool("host", p.Host))
				l.broadcast(broadcast.PlayerList(l.roster.Snapshot()))

			case UpdateTeam:
				if err := l.roster.SetTeam(msg.ClientID, msg.Team); err != nil {
					l.reject(msg.ClientID, err)
					break
				}
				l.broadcast(broadcast.PlayerList(l.roster.Snapshot()))

			case UpdateCharacter:
				if err := roster.ValidateSheet(msg.Sheet, l.cfg.Skills); err != nil {
					l.reject(msg.ClientID, err)
					break
				}
				if err := l.roster.UpdateCharacter(msg.ClientID, msg.Sheet); err != nil {
					l.reject(msg.ClientID, err)
					break
				}
				l.broadcast(broadcast.PlayerList(l.roster.Snapshot()))

			case StartGame:
				l.start(msg.ClientID)

			case Action:
				l.apply(msg.Cmd)

			case GetState:
				// test-only: reflect internal state without data races
				v := View{
					Code:         l.code,
					Version:      l.version,
					NumClients:   len(l.clients),
					Participants: l.roster.Snapshot(),
					InProgress:   l.session != nil,
				}
				if l.session != nil {
					v.Board, v.Cursor = l.session.Snapshot()
				}
				msg.Reply <- v

			case Shutdown:
				l.shutdown()
				return
			}
			l.leaveDropped()
		}
	}
}

func (l *Lobby) attach(msg Attach) {
	l.clients[msg.ClientID] = msg.Outbox
	l.send(msg.ClientID, broadcast.Welcome(msg.ClientID))
	l.send(msg.ClientID, broadcast.PlayerList(l.roster.Snapshot()))
	if l.session != nil {
		l.send(msg.ClientID, broadcast.GameStart(l.session))
		l.send(msg.ClientID, broadcast.TurnChange(l.session))
	}
}

func (l *Lobby) start(clientID string) {
	if _, ok := l.roster.Get(clientID); !ok {
		l.reject(clientID, roster.ErrUnknownParticipant)
		return
	}
	if !l.roster.IsHost(clientID) {
		l.reject(clientID, roster.ErrNotHost)
		return
	}
	if l.session != nil {
		l.reject(clientID, engine.ErrSessionInProgress)
		return
	}

	s, _, err := engine.Start(l.cfg.Rules, l.roster.Spawns(), l.cfg.Skills, l.cfg.Source)
	if err != nil {
		l.log.Warn("start failed", zap.Error(err))
		l.reject(clientID, err)
		return
	}
	l.session = s
	l.version++
	l.log.Info("session started", zap.Int("units", len(s.Board.Units)))
	l.broadcast(broadcast.GameStart(s))
	l.broadcast(broadcast.TurnChange(s))
}

func (l *Lobby) apply(cmd engine.Command) {
	if l.session == nil {
		l.reject(cmd.Actor, engine.ErrNoSession)
		return
	}
	events, err := l.session.Apply(cmd)
	if err != nil {
		l.log.Debug("action rejected",
			zap.String("client", cmd.Actor),
			zap.String("command", string(cmd.Type)),
			zap.Error(err))
		l.reject(cmd.Actor, err)
		return
	}
	l.version++
	l.publish(events)
}

// publish fans out the messages for a resolution and tears the session down
// once it has ended.
func (l *Lobby) publish(events []engine.Event) {
	s := l.session
	for _, m := range broadcast.AfterEvents(s, events) {
		l.broadcast(m)
	}
	if s.Ended() && l.session == s {
		l.log.Info("session ended",
			zap.String("winner", string(s.Cursor.Winner)),
			zap.Bool("draw", s.Cursor.Draw),
			zap.Int("round", s.Cursor.Round))
		l.session = nil
	}
}

// disconnect handles a client that closed its socket.
func (l *Lobby) disconnect(clientID string) {
	if ch, ok := l.clients[clientID]; ok {
		close(ch)
		delete(l.clients, clientID)
	}
	l.leave(clientID)
}

// drop cuts off a client whose outbox is full. Its departure is applied by
// leaveDropped, so a resolution already being fanned out is never
// interleaved with the one the departure causes.
func (l *Lobby) drop(clientID string) {
	ch, ok := l.clients[clientID]
	if !ok {
		return
	}
	l.log.Warn("dropping slow client", zap.String("client", clientID))
	close(ch)
	delete(l.clients, clientID)
	l.dropped = append(l.dropped, clientID)
}

func (l *Lobby) leaveDropped() {
	for len(l.dropped) > 0 {
		id := l.dropped[0]
		l.dropped = l.dropped[1:]
		l.leave(id)
	}
}

// leave is the single path for a participant going away, whether it closed
// the socket or was dropped for being slow.
func (l *Lobby) leave(clientID string) {
	p, err := l.roster.Leave(clientID)
	if errors.Is(err, roster.ErrUnknownParticipant) {
		return
	}
	l.log.Info("player left", zap.String("client", clientID), zap.Bool("host", p.Host))

	if s := l.session; s != nil {
		if p.Host {
			s.Abort()
			l.session = nil
			l.version++
			l.log.Info("session ended", zap.String("reason", broadcast.ReasonHostLeft))
			l.broadcast(broadcast.GameOver(s, broadcast.ReasonHostLeft))
		} else if events, ok := s.RemoveOwner(clientID); ok {
			l.version++
			l.publish(events)
		}
	}
	l.broadcast(broadcast.PlayerList(l.roster.Snapshot()))
}

func (l *Lobby) reject(clientID string, err error) {
	l.send(clientID, broadcast.Error(err))
}

// send delivers to one client without blocking. A full outbox drops the
// client like broadcast does.
func (l *Lobby) send(clientID string, msg types.ServerMessage) {
	ch, ok := l.clients[clientID]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		l.drop(clientID)
	}
}

func (l *Lobby) broadcast(msg types.ServerMessage) {
	var slow []string
	for id, ch := range l.clients {
		select {
		case ch <- msg:
			//ok
		default:
			// Client is slow/full - drop them.
			slow = append(slow, id)
		}
	}
	for _, id := range slow {
		l.drop(id)
	}
}

func (l *Lobby) shutdown() {
	for id, ch := range l.clients {
		close(ch) // Tell client no more messages
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) Code() string { return l.code }

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Send delivers msg unless the lobby has already shut down.
func (l *Lobby) Send(msg Msg) bool {
	select {
	case l.inbox <- msg:
		return true
	case <-l.ctx.Done():
		return false
	}
}

// Done is closed once the lobby stops.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }
