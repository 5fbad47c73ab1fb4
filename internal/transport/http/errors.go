package httptransport

import (
	"encoding/json"
	"net/http"

	"impostor-irl/internal/game"

	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Remaining int    `json:"remaining,omitempty"`
}

func statusForKind(k game.Kind) int {
	switch k {
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindPrecondition:
		return http.StatusConflict
	case game.KindUnauthorized:
		return http.StatusForbidden
	case game.KindValidation:
		return http.StatusBadRequest
	case game.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func WriteHTTPError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// WriteGameError maps a session failure onto its HTTP status. Anything that
// is not a *game.Error is an internal error.
func WriteGameError(w http.ResponseWriter, err error) {
	metricActionErrors.Add(1)
	gerr, ok := game.AsError(err)
	if !ok {
		log.Error().Err(err).Msg("unexpected action error")
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	if gerr.Kind == game.KindRateLimited {
		metricRateLimited.Add(1)
	}
	log.Debug().Str("code", gerr.Code).Str("kind", gerr.Kind.String()).Msg("action rejected")
	writeJSON(w, statusForKind(gerr.Kind), errorResponse{
		Error:     gerr.Code,
		Message:   gerr.Message,
		Remaining: gerr.Remaining,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
