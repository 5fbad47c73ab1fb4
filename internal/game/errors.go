package game

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindNotFound Kind = iota + 1
	KindPrecondition
	KindUnauthorized
	KindValidation
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPrecondition:
		return "precondition"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Error is the structured failure every session action returns. Two errors
// match under errors.Is when their codes are equal, so callers can compare
// against the package sentinels even when Remaining or Message differ.
type Error struct {
	Kind      Kind
	Code      string
	Message   string
	Remaining int
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrSessionNotFound = &Error{Kind: KindNotFound, Code: "session_not_found", Message: "lobby not found"}
	ErrPlayerNotFound  = &Error{Kind: KindNotFound, Code: "player_not_found", Message: "player not found"}
	ErrPlayerLeft      = &Error{Kind: KindNotFound, Code: "player_left", Message: "player has left the game"}
	ErrTargetNotFound  = &Error{Kind: KindNotFound, Code: "target_not_found", Message: "target player not found"}
	ErrTaskNotFound    = &Error{Kind: KindNotFound, Code: "task_not_found", Message: "task not found"}

	ErrGameInProgress   = &Error{Kind: KindPrecondition, Code: "game_in_progress", Message: "the game has already started; wait for it to finish to join"}
	ErrNameTaken        = &Error{Kind: KindPrecondition, Code: "name_taken", Message: "that name is already in use in this lobby"}
	ErrWrongPhase       = &Error{Kind: KindPrecondition, Code: "wrong_phase", Message: "action not allowed in the current phase"}
	ErrNotEnoughPlayers = &Error{Kind: KindPrecondition, Code: "not_enough_players", Message: "not enough players"}
	ErrNotAllReady      = &Error{Kind: KindPrecondition, Code: "not_all_ready", Message: "not every player is ready"}
	ErrTooManyImpostors = &Error{Kind: KindPrecondition, Code: "too_many_impostors", Message: "invalid setup: too many impostors for this lobby"}
	ErrCannotKickSelf   = &Error{Kind: KindPrecondition, Code: "cannot_kick_self", Message: "you cannot kick yourself"}
	ErrPlayerDead       = &Error{Kind: KindPrecondition, Code: "player_dead", Message: "dead players cannot do that"}
	ErrEmergencyUsed    = &Error{Kind: KindPrecondition, Code: "emergency_used", Message: "emergency meeting already used this round"}
	ErrBodyNotReported  = &Error{Kind: KindPrecondition, Code: "body_not_reportable", Message: "that player cannot be reported"}
	ErrNoMeeting        = &Error{Kind: KindPrecondition, Code: "no_meeting", Message: "there is no active meeting"}
	ErrAbilityNotReady  = &Error{Kind: KindPrecondition, Code: "ability_not_ready", Message: "complete a new task to recharge the status check"}

	ErrNotLeader      = &Error{Kind: KindUnauthorized, Code: "not_leader", Message: "only the lobby leader can do that"}
	ErrNotImpostor    = &Error{Kind: KindUnauthorized, Code: "not_impostor", Message: "only impostors can do that"}
	ErrNotSupportRole = &Error{Kind: KindUnauthorized, Code: "not_support_role", Message: "only the medic can do that"}

	ErrNameRequired  = &Error{Kind: KindValidation, Code: "name_required", Message: "choose a name"}
	ErrNameTooLong   = &Error{Kind: KindValidation, Code: "name_too_long", Message: "name is too long"}
	ErrInvalidTarget = &Error{Kind: KindValidation, Code: "invalid_target", Message: "invalid target"}
	ErrInvalidConfig = &Error{Kind: KindValidation, Code: "invalid_config", Message: "invalid settings"}

	ErrKillCooldown   = &Error{Kind: KindRateLimited, Code: "kill_cooldown", Message: "kill is on cooldown"}
	ErrSabotageActive = &Error{Kind: KindRateLimited, Code: "sabotage_active", Message: "a sabotage is already active"}
	ErrVotingNotOpen  = &Error{Kind: KindRateLimited, Code: "voting_not_open", Message: "voting has not opened yet"}
)

func rateLimited(base *Error, remaining int) *Error {
	return &Error{
		Kind:      base.Kind,
		Code:      base.Code,
		Message:   fmt.Sprintf("%s: %d seconds remaining", base.Message, remaining),
		Remaining: remaining,
	}
}

func withMessage(base *Error, msg string) *Error {
	return &Error{Kind: base.Kind, Code: base.Code, Message: msg}
}

// AsError unwraps err into a structured *Error when it is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
