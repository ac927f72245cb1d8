package roster

import (
	"errors"
	"fmt"
	"slices"

	"github.com/DoyleJ11/grid-tactics-server/internal/engine"
)

var ErrUnknownParticipant = errors.New("unknown participant")
var ErrNotHost = errors.New("only the host can do that")

// Participant is one connection registered in a room. Team is empty while
// unassigned; unassigned participants watch but get no unit.
type Participant struct {
	ConnID string
	Sheet  Sheet
	Team   engine.Team
	Host   bool
	Seq    int
}

// Registry tracks the participants of one room. It is owned by the room's
// lobby goroutine and does no locking of its own.
type Registry struct {
	byConn map[string]*Participant
	order  []string
	seq    int
}

func New() *Registry {
	return &Registry{byConn: make(map[string]*Participant)}
}

func (r *Registry) Len() int { return len(r.order) }

// Join registers conn, or updates it in place when it already joined. The
// first participant of an empty room becomes host.
func (r *Registry) Join(conn string, sheet Sheet, team engine.Team) Participant {
	if p, ok := r.byConn[conn]; ok {
		p.Sheet = sheet
		p.Team = team
		return *p
	}

	r.seq++
	p := &Participant{
		ConnID: conn,
		Sheet:  sheet,
		Team:   team,
		Host:   len(r.order) == 0,
		Seq:    r.seq,
	}
	r.byConn[conn] = p
	r.order = append(r.order, conn)
	return *p
}

func (r *Registry) SetTeam(conn string, team engine.Team) error {
	p, ok := r.byConn[conn]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, conn)
	}
	p.Team = team
	return nil
}

func (r *Registry) UpdateCharacter(conn string, sheet Sheet) error {
	p, ok := r.byConn[conn]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, conn)
	}
	p.Sheet = sheet
	return nil
}

// Leave removes conn. A departing host hands the flag to the earliest
// remaining participant.
func (r *Registry) Leave(conn string) (Participant, error) {
	p, ok := r.byConn[conn]
	if !ok {
		return Participant{}, fmt.Errorf("%w: %s", ErrUnknownParticipant, conn)
	}
	delete(r.byConn, conn)
	r.order = slices.DeleteFunc(r.order, func(id string) bool { return id == conn })

	if p.Host && len(r.order) > 0 {
		r.byConn[r.order[0]].Host = true
	}
	return *p, nil
}

func (r *Registry) Get(conn string) (Participant, bool) {
	p, ok := r.byConn[conn]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

func (r *Registry) IsHost(conn string) bool {
	p, ok := r.byConn[conn]
	return ok && p.Host
}

// Snapshot copies every participant in join order.
func (r *Registry) Snapshot() []Participant {
	out := make([]Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byConn[id])
	}
	return out
}

// Teams groups the participants with a team, keeping join order.
func (r *Registry) Teams() map[engine.Team][]Participant {
	teams := map[engine.Team][]Participant{}
	for _, p := range r.Snapshot() {
		if p.Team.Valid() {
			teams[p.Team] = append(teams[p.Team], p)
		}
	}
	return teams
}

// Spawns lists what placement needs: team A first, then team B, each in
// join order.
func (r *Registry) Spawns() []engine.Spawn {
	teams := r.Teams()
	spawns := make([]engine.Spawn, 0, len(teams[engine.TeamA])+len(teams[engine.TeamB]))
	for _, team := range []engine.Team{engine.TeamA, engine.TeamB} {
		for _, p := range teams[team] {
			spawns = append(spawns, engine.Spawn{
				Owner:  p.ConnID,
				Team:   team,
				Name:   p.Sheet.Name,
				Level:  p.Sheet.Level,
				Stats:  p.Sheet.Stats,
				Skills: slices.Clone(p.Sheet.Skills),
			})
		}
	}
	return spawns
}
