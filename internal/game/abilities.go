package game

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"
)

// StatusEntry is one row of the medic's liveness snapshot.
type StatusEntry struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Alive    bool   `json:"alive"`
	Left     bool   `json:"left"`
}

type StatusCheckResult struct {
	Remaining int           `json:"remaining"`
	Until     time.Time     `json:"until"`
	Players   []StatusEntry `json:"players"`
}

// CompleteTask sets a task's done flag. The first completion of a task id in
// a round re-arms the holder's status check when they hold the support role.
func (s *Session) CompleteTask(playerID, taskID string, done bool) error {
	now := s.enter()
	defer s.mu.Unlock()

	p, err := s.activePlayerLocked(playerID)
	if err != nil {
		return err
	}
	if !s.phase.Playing() {
		return withMessage(ErrWrongPhase, "tasks can only be completed during a round")
	}
	t := p.task(taskID)
	if t == nil {
		return ErrTaskNotFound
	}
	t.Done = done
	if !done {
		return nil
	}
	if p.countedTasks == nil {
		p.countedTasks = map[string]bool{}
	}
	if !p.countedTasks[taskID] {
		p.countedTasks[taskID] = true
		if p.Support == SupportMedic {
			p.statusCheckReady = true
		}
	}
	s.checkWinLocked(now, winContext{})
	return nil
}

// Kill eliminates a crewmate. The target is validated before the cooldown so
// an invalid target never reports a cooldown.
func (s *Session) Kill(killerID, targetID string) error {
	now := s.enter()
	defer s.mu.Unlock()

	killer, err := s.activePlayerLocked(killerID)
	if err != nil {
		return err
	}
	if s.phase != PhaseInGame {
		return withMessage(ErrWrongPhase, "kills are only possible during the round")
	}
	if killer.Role != RoleImpostor {
		return ErrNotImpostor
	}
	if !killer.Alive {
		return ErrPlayerDead
	}
	target, ok := s.players[targetID]
	if !ok {
		return ErrTargetNotFound
	}
	if target.ID == killer.ID || !target.Living() || target.Role == RoleImpostor {
		return ErrInvalidTarget
	}
	if now.Before(killer.KillReadyAt) {
		return rateLimited(ErrKillCooldown, secondsUntil(now, killer.KillReadyAt))
	}

	killer.KillReadyAt = now.Add(time.Duration(s.config.KillCooldown) * time.Second)
	target.Alive = false
	target.Death = &Death{At: now, KillerID: killer.ID}
	log.Info().Str("code", s.code).Str("killer_id", killer.ID).Str("victim_id", target.ID).Msg("player killed")

	s.checkWinLocked(now, winContext{})
	return nil
}

type SabotageResult struct {
	Until     time.Time `json:"until"`
	Remaining int       `json:"remaining"`
}

// Sabotage opens the session-wide sabotage window.
func (s *Session) Sabotage(playerID string) (SabotageResult, error) {
	now := s.enter()
	defer s.mu.Unlock()

	p, err := s.activePlayerLocked(playerID)
	if err != nil {
		return SabotageResult{}, err
	}
	if s.phase != PhaseInGame {
		return SabotageResult{}, withMessage(ErrWrongPhase, "sabotage is only possible during the round")
	}
	if p.Role != RoleImpostor {
		return SabotageResult{}, ErrNotImpostor
	}
	if now.Before(s.sabotageUntil) {
		return SabotageResult{}, rateLimited(ErrSabotageActive, secondsUntil(now, s.sabotageUntil))
	}
	s.sabotageUntil = now.Add(s.timings.SabotageWindow)
	log.Info().Str("code", s.code).Str("player_id", p.ID).Time("until", s.sabotageUntil).Msg("sabotage started")
	return SabotageResult{Until: s.sabotageUntil, Remaining: secondsUntil(now, s.sabotageUntil)}, nil
}

// StatusCheck opens the medic's liveness window. Calling it again while the
// window is open returns the same window without consuming readiness.
func (s *Session) StatusCheck(playerID string) (StatusCheckResult, error) {
	now := s.enter()
	defer s.mu.Unlock()

	p, err := s.activePlayerLocked(playerID)
	if err != nil {
		return StatusCheckResult{}, err
	}
	if s.phase != PhaseInGame {
		return StatusCheckResult{}, withMessage(ErrWrongPhase, "the status check is only available during the round")
	}
	if p.Support != SupportMedic {
		return StatusCheckResult{}, ErrNotSupportRole
	}
	if !p.Alive {
		return StatusCheckResult{}, ErrPlayerDead
	}
	if now.Before(p.statusCheckUntil) {
		return s.statusSnapshotLocked(now, p.statusCheckUntil), nil
	}
	if !p.statusCheckReady {
		return StatusCheckResult{}, ErrAbilityNotReady
	}
	p.statusCheckReady = false
	p.statusCheckUntil = now.Add(s.timings.StatusCheckWindow)
	log.Debug().Str("code", s.code).Str("player_id", p.ID).Msg("status check used")
	return s.statusSnapshotLocked(now, p.statusCheckUntil), nil
}

func (s *Session) statusSnapshotLocked(now, until time.Time) StatusCheckResult {
	res := StatusCheckResult{Remaining: secondsUntil(now, until), Until: until}
	for _, p := range s.allPlayersLocked() {
		if p.Role == RoleNone {
			continue
		}
		res.Players = append(res.Players, StatusEntry{PlayerID: p.ID, Name: p.Name, Alive: p.Alive, Left: p.Left})
	}
	return res
}

// secondsUntil rounds the time left up to whole seconds.
func secondsUntil(now, deadline time.Time) int {
	d := deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
