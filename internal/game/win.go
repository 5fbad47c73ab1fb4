package game

import (
	"time"

	"github.com/rs/zerolog/log"
)

type EndInfo struct {
	Winner     Faction   `json:"winner"`
	Reason     EndReason `json:"reason"`
	PlayerID   string    `json:"player_id,omitempty"`
	PlayerName string    `json:"player_name,omitempty"`
	At         time.Time `json:"at"`
}

// winContext names the player whose removal triggered the check, if any.
type winContext struct {
	ejected  *Player
	departed *Player
}

// checkWinLocked evaluates the win rules in order and ends the round on the
// first match. It reports whether the round ended.
func (s *Session) checkWinLocked(now time.Time, wc winContext) bool {
	if !s.phase.Playing() {
		return false
	}
	impostors, crew := 0, 0
	for _, p := range s.players {
		if !p.Living() {
			continue
		}
		switch p.Role {
		case RoleImpostor:
			impostors++
		case RoleCrewmate:
			crew++
		}
	}

	if impostors == 0 {
		switch {
		case wc.ejected != nil && wc.ejected.Role == RoleImpostor:
			s.endGameLocked(now, FactionCrewmates, ReasonImpostorEjected, wc.ejected)
			return true
		case wc.departed != nil && wc.departed.Role == RoleImpostor:
			s.endGameLocked(now, FactionCrewmates, ReasonImpostorLeft, wc.departed)
			return true
		}
	}
	if impostors > 0 && (crew == 0 || (impostors == 1 && crew <= 1)) {
		s.endGameLocked(now, FactionImpostors, ReasonLastCrewmate, nil)
		return true
	}
	if done, total := s.taskCountsLocked(); total > 0 && done >= total {
		s.endGameLocked(now, FactionCrewmates, ReasonTasks, nil)
		return true
	}
	if impostors == 0 {
		s.endGameLocked(now, FactionCrewmates, ReasonImpostorsEliminated, nil)
		return true
	}
	return false
}

func (s *Session) endGameLocked(now time.Time, winner Faction, reason EndReason, subject *Player) {
	s.end = &EndInfo{Winner: winner, Reason: reason, At: now}
	if subject != nil {
		s.end.PlayerID = subject.ID
		s.end.PlayerName = subject.Name
	}
	s.phase = PhaseEnded
	s.meeting = nil
	s.sabotageUntil = time.Time{}
	if done, total := s.taskCountsLocked(); total > 0 {
		s.revealed = max(s.revealed, float64(done)/float64(total))
	}
	log.Info().
		Str("code", s.code).
		Int("round", s.round).
		Str("winner", string(winner)).
		Str("reason", string(reason)).
		Msg("game ended")
}

// taskCountsLocked counts tasks that contribute to the crew task win: those
// held by living, active crewmates without a support role.
func (s *Session) taskCountsLocked() (done, total int) {
	for _, p := range s.players {
		if !p.Living() || p.Role != RoleCrewmate || p.Support != SupportNone {
			continue
		}
		for _, t := range p.Tasks {
			total++
			if t.Done {
				done++
			}
		}
	}
	return done, total
}

func (s *Session) progressLocked() float64 {
	done, total := s.taskCountsLocked()
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total)
}
