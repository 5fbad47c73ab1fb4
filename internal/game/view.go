package game

import "time"

type SelfView struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Avatar        string      `json:"avatar"`
	Ready         bool        `json:"ready"`
	Role          Role        `json:"role,omitempty"`
	Support       SupportRole `json:"support_role,omitempty"`
	Alive         bool        `json:"alive"`
	EmergencyUsed bool        `json:"emergency_used"`
	IsLeader      bool        `json:"is_leader"`
}

// RosterEntry is another player as the viewer is allowed to see them. Alive
// only turns false once the death is public knowledge.
type RosterEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Ready    bool   `json:"ready"`
	Alive    bool   `json:"alive"`
	Left     bool   `json:"left"`
	IsLeader bool   `json:"is_leader"`
	Role     Role   `json:"role,omitempty"`
}

type KillView struct {
	Ready     bool `json:"ready"`
	Remaining int  `json:"remaining"`
}

type SabotageView struct {
	Active    bool `json:"active"`
	Affected  bool `json:"affected"`
	Remaining int  `json:"remaining"`
}

type MedicView struct {
	Ready     bool `json:"ready"`
	Active    bool `json:"active"`
	Remaining int  `json:"remaining"`
}

type MeetingView struct {
	ID                 string      `json:"id"`
	Kind               MeetingKind `json:"kind"`
	CallerID           string      `json:"caller_id"`
	CallerName         string      `json:"caller_name"`
	BodyID             string      `json:"body_id,omitempty"`
	BodyName           string      `json:"body_name,omitempty"`
	StartedAt          time.Time   `json:"started_at"`
	VotesOpenAt        time.Time   `json:"votes_open_at"`
	EndsAt             time.Time   `json:"ends_at"`
	VotingOpen         bool        `json:"voting_open"`
	SecondsUntilVoting int         `json:"seconds_until_voting"`
	SecondsRemaining   int         `json:"seconds_remaining"`
	YourVote           string      `json:"your_vote,omitempty"`
	Voted              []string    `json:"voted"`
	EligibleVoters     int         `json:"eligible_voters"`
}

// PlayerView is the full state one player polls for. It never carries the
// role of another living player, except fellow impostors for an impostor.
type PlayerView struct {
	Code        string          `json:"code"`
	Phase       Phase           `json:"phase"`
	Round       int             `json:"round"`
	LeaderID    string          `json:"leader_id"`
	You         SelfView        `json:"you"`
	Players     []RosterEntry   `json:"players"`
	Tasks       []Task          `json:"tasks"`
	Progress    float64         `json:"progress"`
	Kill        *KillView       `json:"kill,omitempty"`
	Sabotage    SabotageView    `json:"sabotage"`
	Medic       *MedicView      `json:"medic,omitempty"`
	Meeting     *MeetingView    `json:"meeting,omitempty"`
	LastMeeting *MeetingSummary `json:"last_meeting,omitempty"`
	GameOver    *EndInfo        `json:"game_over,omitempty"`
	ServerTime  time.Time       `json:"server_time"`
}

type LobbyEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Ready    bool   `json:"ready"`
	IsLeader bool   `json:"is_leader"`
}

type LobbySnapshot struct {
	Code          string       `json:"code"`
	CreatedAt     time.Time    `json:"created_at"`
	Phase         Phase        `json:"phase"`
	LeaderID      string       `json:"leader_id"`
	IsLeader      bool         `json:"is_leader"`
	Players       []LobbyEntry `json:"players"`
	Config        Config       `json:"config"`
	Limits        ConfigLimits `json:"limits"`
	EveryoneReady bool         `json:"everyone_ready"`
	CanStart      bool         `json:"can_start"`
}

func (s *Session) PlayerView(playerID string) (PlayerView, error) {
	now := s.enter()
	defer s.mu.Unlock()

	me, err := s.activePlayerLocked(playerID)
	if err != nil {
		return PlayerView{}, err
	}
	ended := s.phase == PhaseEnded
	v := PlayerView{
		Code:     s.code,
		Phase:    s.phase,
		Round:    s.round,
		LeaderID: s.leaderID,
		You: SelfView{
			ID:            me.ID,
			Name:          me.Name,
			Avatar:        me.Avatar,
			Ready:         me.Ready,
			Role:          me.Role,
			Support:       me.Support,
			Alive:         me.Alive,
			EmergencyUsed: me.EmergencyUsed,
			IsLeader:      me.ID == s.leaderID,
		},
		Tasks:       append([]Task{}, me.Tasks...),
		Progress:    s.revealed,
		LastMeeting: s.lastSummary,
		ServerTime:  now,
	}
	if s.end != nil {
		end := *s.end
		v.GameOver = &end
	}

	for _, p := range s.allPlayersLocked() {
		if p.Left && s.phase == PhaseLobby {
			continue
		}
		entry := RosterEntry{
			ID:       p.ID,
			Name:     p.Name,
			Avatar:   p.Avatar,
			Ready:    p.Ready,
			Alive:    p.Alive || !deathPublic(p),
			Left:     p.Left,
			IsLeader: p.ID == s.leaderID,
		}
		switch {
		case p.ID == me.ID:
			entry.Alive = p.Alive
			entry.Role = p.Role
		case ended:
			entry.Role = p.Role
		case me.Role == RoleImpostor && p.Role == RoleImpostor:
			entry.Role = p.Role
		}
		v.Players = append(v.Players, entry)
	}

	if s.phase.Playing() && now.Before(s.sabotageUntil) {
		v.Sabotage = SabotageView{
			Active:    true,
			Affected:  me.Role != RoleImpostor,
			Remaining: secondsUntil(now, s.sabotageUntil),
		}
	}
	if me.Role == RoleImpostor {
		remaining := secondsUntil(now, me.KillReadyAt)
		v.Kill = &KillView{Ready: remaining == 0 && me.Alive, Remaining: remaining}
	}
	if me.Support == SupportMedic {
		v.Medic = &MedicView{
			Ready:     me.statusCheckReady,
			Active:    now.Before(me.statusCheckUntil),
			Remaining: secondsUntil(now, me.statusCheckUntil),
		}
	}
	if m := s.meeting; m != nil {
		mv := &MeetingView{
			ID:                 m.ID,
			Kind:               m.Kind,
			CallerID:           m.CallerID,
			BodyID:             m.BodyID,
			StartedAt:          m.StartedAt,
			VotesOpenAt:        m.VotesOpenAt,
			EndsAt:             m.EndsAt,
			VotingOpen:         !now.Before(m.VotesOpenAt),
			SecondsUntilVoting: secondsUntil(now, m.VotesOpenAt),
			SecondsRemaining:   secondsUntil(now, m.EndsAt),
			YourVote:           m.votes[me.ID],
			Voted:              []string{},
		}
		if c, ok := s.players[m.CallerID]; ok {
			mv.CallerName = c.Name
		}
		if b, ok := s.players[m.BodyID]; ok {
			mv.BodyName = b.Name
		}
		for _, p := range s.allPlayersLocked() {
			if !p.Living() {
				continue
			}
			mv.EligibleVoters++
			if _, ok := m.votes[p.ID]; ok {
				mv.Voted = append(mv.Voted, p.ID)
			}
		}
		v.Meeting = mv
	}
	return v, nil
}

// deathPublic reports whether everyone knows the player is dead.
func deathPublic(p *Player) bool {
	return p.Death != nil && (p.Death.Reported || p.Death.Ejected)
}

// LobbySnapshot projects the lobby for any viewer. viewerID may be empty.
func (s *Session) LobbySnapshot(viewerID string) LobbySnapshot {
	s.enter()
	defer s.mu.Unlock()

	active := s.activeLocked()
	snap := LobbySnapshot{
		Code:          s.code,
		CreatedAt:     s.createdAt,
		Phase:         s.phase,
		LeaderID:      s.leaderID,
		IsLeader:      viewerID != "" && viewerID == s.leaderID,
		Players:       make([]LobbyEntry, 0, len(active)),
		Config:        s.config.clone(),
		Limits:        CurrentLimits(),
		EveryoneReady: len(active) > 0,
	}
	for _, p := range active {
		if !p.Ready {
			snap.EveryoneReady = false
		}
		snap.Players = append(snap.Players, LobbyEntry{
			ID:       p.ID,
			Name:     p.Name,
			Avatar:   p.Avatar,
			Ready:    p.Ready,
			IsLeader: p.ID == s.leaderID,
		})
	}
	snap.CanStart = s.phase == PhaseLobby &&
		snap.EveryoneReady &&
		len(active) >= s.config.RequiredPlayers &&
		s.config.Impostors < len(active)
	return snap
}
