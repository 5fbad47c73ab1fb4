package game

import "time"

type Task struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Name     string `json:"name"`
	Done     bool   `json:"done"`
}

// Death records how a player died. Ejected players have no killer and are
// public knowledge from the moment of ejection.
type Death struct {
	At       time.Time
	KillerID string
	Reported bool
	Ejected  bool
}

type Player struct {
	ID       string
	Name     string
	Avatar   string
	JoinedAt time.Time
	joinSeq  uint64

	Ready   bool
	Role    Role
	Support SupportRole
	Alive   bool
	Left    bool
	Tasks   []Task
	Death   *Death

	KillReadyAt   time.Time
	EmergencyUsed bool

	statusCheckReady bool
	statusCheckUntil time.Time
	countedTasks     map[string]bool
}

func (p *Player) Active() bool {
	return !p.Left
}

func (p *Player) Living() bool {
	return p.Alive && !p.Left
}

func (p *Player) task(id string) *Task {
	for i := range p.Tasks {
		if p.Tasks[i].ID == id {
			return &p.Tasks[i]
		}
	}
	return nil
}

func (p *Player) resetRound() {
	p.Role = RoleNone
	p.Support = SupportNone
	p.Alive = true
	p.Tasks = nil
	p.Death = nil
	p.KillReadyAt = time.Time{}
	p.EmergencyUsed = false
	p.statusCheckReady = false
	p.statusCheckUntil = time.Time{}
	p.countedTasks = nil
}

// earlierJoin orders players by join time, then by join sequence for players
// that joined within the same clock tick.
func earlierJoin(a, b *Player) bool {
	if !a.JoinedAt.Equal(b.JoinedAt) {
		return a.JoinedAt.Before(b.JoinedAt)
	}
	return a.joinSeq < b.joinSeq
}
