package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"impostor-irl/internal/game"
	"impostor-irl/internal/registry"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 64 << 10

type LobbyHandlers struct {
	reg *registry.Registry
}

func NewLobbyHandlers(reg *registry.Registry) *LobbyHandlers {
	return &LobbyHandlers{reg: reg}
}

type joinRequest struct {
	Name string `json:"name"`
}

type createResponse struct {
	OK     bool             `json:"ok"`
	Code   string           `json:"code"`
	Player *game.JoinResult `json:"player,omitempty"`
}

type joinResponse struct {
	OK   bool   `json:"ok"`
	Code string `json:"code"`
	game.JoinResult
}

// Create opens a new lobby. When a name is supplied the caller joins it
// straight away and becomes its leader.
func (h *LobbyHandlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricLobbyCreateTotal.Add(1)
		var req joinRequest
		if err := decodeBody(r, &req, true); err != nil {
			metricLobbyCreateErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		code, s, err := h.reg.Create()
		if err != nil {
			metricLobbyCreateErrors.Add(1)
			WriteHTTPError(w, http.StatusServiceUnavailable, err.Error(), "no lobby codes available")
			return
		}
		metricSessionsActive.Set(int64(h.reg.Len()))
		resp := createResponse{OK: true, Code: code}
		if req.Name != "" {
			res, err := s.AddPlayer(req.Name)
			if err != nil {
				h.reg.Evict(code)
				metricSessionsActive.Set(int64(h.reg.Len()))
				WriteGameError(w, err)
				return
			}
			setPlayerCookie(w, res.PlayerID)
			resp.Player = &res
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func (h *LobbyHandlers) Join() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricLobbyJoinTotal.Add(1)
		var req joinRequest
		if err := decodeBody(r, &req, false); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		s, res, err := h.reg.Join(chi.URLParam(r, "code"), req.Name)
		if err != nil {
			WriteGameError(w, err)
			return
		}
		setPlayerCookie(w, res.PlayerID)
		writeJSON(w, http.StatusCreated, joinResponse{OK: true, Code: s.Code(), JoinResult: res})
	}
}

// State is the lobby snapshot. It does not require a player id, but marks the
// caller as leader when one is supplied.
func (h *LobbyHandlers) State() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricStatePollsTotal.Add(1)
		s, _ := SessionFromContext(r.Context())
		viewer := r.Header.Get(PlayerHeader)
		if viewer == "" {
			if c, err := r.Cookie(PlayerCookie); err == nil {
				viewer = c.Value
			}
		}
		writeJSON(w, http.StatusOK, s.LobbySnapshot(viewer))
	}
}

func (h *LobbyHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":       true,
			"sessions": h.reg.Len(),
			"time":     time.Now().UTC(),
		})
	}
}

// decodeBody reads a JSON request body. An empty body is accepted only when
// allowEmpty is set.
func decodeBody(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return errors.New("request body required")
		}
		return err
	}
	return nil
}

func setPlayerCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     PlayerCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
