package game

import (
	"slices"
	"strings"
	"time"

	"impostor-irl/internal/ids"

	"github.com/rs/zerolog/log"
)

// Meeting exists only while the session phase is meeting.
type Meeting struct {
	ID          string
	Kind        MeetingKind
	CallerID    string
	BodyID      string
	StartedAt   time.Time
	VotesOpenAt time.Time
	EndsAt      time.Time

	votes map[string]string
}

type VoteCount struct {
	Target string `json:"target"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

// MeetingSummary is produced exactly once per resolved meeting.
type MeetingSummary struct {
	MeetingID   string      `json:"meeting_id"`
	Kind        MeetingKind `json:"kind"`
	CallerID    string      `json:"caller_id"`
	BodyID      string      `json:"body_id,omitempty"`
	Votes       []VoteCount `json:"votes"`
	Outcome     Outcome     `json:"outcome"`
	EjectedID   string      `json:"ejected_id,omitempty"`
	EjectedName string      `json:"ejected_name,omitempty"`
	EjectedRole Role        `json:"ejected_role,omitempty"`
	Progress    float64     `json:"progress"`
	ResolvedAt  time.Time   `json:"resolved_at"`
	GameOver    *EndInfo    `json:"game_over,omitempty"`
}

func (s *Session) CallEmergency(callerID string) error {
	now := s.enter()
	defer s.mu.Unlock()

	caller, err := s.meetingCallerLocked(callerID)
	if err != nil {
		return err
	}
	if caller.EmergencyUsed {
		return ErrEmergencyUsed
	}
	caller.EmergencyUsed = true
	s.openMeetingLocked(now, MeetingEmergency, caller, "")
	return nil
}

func (s *Session) ReportBody(callerID, bodyID string) error {
	now := s.enter()
	defer s.mu.Unlock()

	caller, err := s.meetingCallerLocked(callerID)
	if err != nil {
		return err
	}
	body, ok := s.players[bodyID]
	if !ok {
		return ErrTargetNotFound
	}
	if body.Alive || body.Death == nil || body.Death.Reported || body.Death.Ejected {
		return ErrBodyNotReported
	}
	body.Death.Reported = true
	s.openMeetingLocked(now, MeetingReportedBody, caller, body.ID)
	return nil
}

func (s *Session) meetingCallerLocked(callerID string) (*Player, error) {
	caller, err := s.activePlayerLocked(callerID)
	if err != nil {
		return nil, err
	}
	if s.phase != PhaseInGame {
		return nil, withMessage(ErrWrongPhase, "meetings can only be called during the round")
	}
	if !caller.Alive {
		return nil, ErrPlayerDead
	}
	return caller, nil
}

func (s *Session) openMeetingLocked(now time.Time, kind MeetingKind, caller *Player, bodyID string) {
	s.meeting = &Meeting{
		ID:          ids.NewID(),
		Kind:        kind,
		CallerID:    caller.ID,
		BodyID:      bodyID,
		StartedAt:   now,
		VotesOpenAt: now.Add(s.timings.VoteDelay),
		EndsAt:      now.Add(time.Duration(s.config.MeetingDuration) * time.Second),
		votes:       map[string]string{},
	}
	s.phase = PhaseMeeting
	s.sabotageUntil = time.Time{}
	log.Info().
		Str("code", s.code).
		Str("meeting_id", s.meeting.ID).
		Str("kind", string(kind)).
		Str("caller_id", caller.ID).
		Msg("meeting called")
}

// Vote records or replaces the voter's ballot. target is a living player id
// or SkipVote.
func (s *Session) Vote(voterID, target string) error {
	now := s.enter()
	defer s.mu.Unlock()

	voter, err := s.activePlayerLocked(voterID)
	if err != nil {
		return err
	}
	if s.meeting == nil {
		return ErrNoMeeting
	}
	if !voter.Alive {
		return ErrPlayerDead
	}
	if now.Before(s.meeting.VotesOpenAt) {
		return rateLimited(ErrVotingNotOpen, secondsUntil(now, s.meeting.VotesOpenAt))
	}
	target = strings.TrimSpace(target)
	if target != SkipVote {
		t, ok := s.players[target]
		if !ok || !t.Living() {
			return ErrInvalidTarget
		}
	}
	s.meeting.votes[voter.ID] = target
	if s.allVotedLocked() {
		s.resolveMeetingLocked(now)
	}
	return nil
}

func (s *Session) allVotedLocked() bool {
	if s.meeting == nil {
		return false
	}
	for _, p := range s.players {
		if !p.Living() {
			continue
		}
		if _, ok := s.meeting.votes[p.ID]; !ok {
			return false
		}
	}
	return true
}

// resolveMeetingLocked tallies the active meeting and discards it. With no
// active meeting it does nothing, so a second call is harmless.
func (s *Session) resolveMeetingLocked(now time.Time) {
	m := s.meeting
	if m == nil {
		return
	}
	counts := map[string]int{}
	for voterID, target := range m.votes {
		if v, ok := s.players[voterID]; !ok || !v.Living() {
			continue
		}
		counts[target]++
	}

	summary := &MeetingSummary{
		MeetingID:  m.ID,
		Kind:       m.Kind,
		CallerID:   m.CallerID,
		BodyID:     m.BodyID,
		ResolvedAt: now,
	}
	top, leaders := 0, []string(nil)
	for target, n := range counts {
		summary.Votes = append(summary.Votes, VoteCount{Target: target, Label: s.voteLabelLocked(target), Count: n})
		switch {
		case n > top:
			top, leaders = n, []string{target}
		case n == top:
			leaders = append(leaders, target)
		}
	}
	slices.SortFunc(summary.Votes, func(a, b VoteCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Label, b.Label)
	})

	var ejected *Player
	switch {
	case len(counts) == 0:
		summary.Outcome = OutcomeNoVotes
	case len(leaders) == 1 && leaders[0] != SkipVote:
		ejected = s.players[leaders[0]]
	default:
		summary.Outcome = noEjectionOutcome(counts)
	}
	if ejected != nil && ejected.Living() {
		ejected.Alive = false
		ejected.Death = &Death{At: now, Ejected: true}
		summary.Outcome = OutcomeEjected
		summary.EjectedID = ejected.ID
		summary.EjectedName = ejected.Name
		summary.EjectedRole = ejected.Role
	} else if ejected != nil {
		ejected = nil
		summary.Outcome = noEjectionOutcome(counts)
	}

	if p := s.progressLocked(); p > s.revealed {
		s.revealed = p
	}
	summary.Progress = s.revealed

	s.meeting = nil
	s.phase = PhaseInGame
	s.lastSummary = summary
	log.Info().
		Str("code", s.code).
		Str("meeting_id", m.ID).
		Str("outcome", string(summary.Outcome)).
		Str("ejected_id", summary.EjectedID).
		Msg("meeting resolved")

	if s.checkWinLocked(now, winContext{ejected: ejected}) {
		end := *s.end
		summary.GameOver = &end
	}
}

// noEjectionOutcome reports skipped whenever anyone voted to skip, even when
// skip did not hold the top count.
func noEjectionOutcome(counts map[string]int) Outcome {
	if counts[SkipVote] > 0 {
		return OutcomeSkipped
	}
	return OutcomeNoElimination
}

func (s *Session) voteLabelLocked(target string) string {
	if target == SkipVote {
		return "Skip"
	}
	if p, ok := s.players[target]; ok {
		return p.Name
	}
	return target
}
