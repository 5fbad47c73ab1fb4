package httptransport

import (
	"net/http"

	"impostor-irl/internal/game"
	"impostor-irl/internal/registry"
)

type PlayerHandlers struct {
	reg *registry.Registry
}

func NewPlayerHandlers(reg *registry.Registry) *PlayerHandlers {
	return &PlayerHandlers{reg: reg}
}

type okResponse struct {
	OK bool `json:"ok"`
}

type readyRequest struct {
	Ready bool `json:"ready"`
}

type targetRequest struct {
	PlayerID string `json:"player_id"`
}

type taskRequest struct {
	TaskID string `json:"task_id"`
	Done   *bool  `json:"done"`
}

type reportRequest struct {
	BodyID string `json:"body_id"`
}

type voteRequest struct {
	Target string `json:"target"`
}

type configResponse struct {
	OK     bool        `json:"ok"`
	Config game.Config `json:"config"`
}

type kickResponse struct {
	OK bool `json:"ok"`
	game.KickResult
}

type sabotageResponse struct {
	OK bool `json:"ok"`
	game.SabotageResult
}

type statusCheckResponse struct {
	OK bool `json:"ok"`
	game.StatusCheckResult
}

// action adapts one session call to an HTTP handler. The JSON body, if any,
// is decoded into T first. A nil response is written as {"ok":true}.
func action[T any](run func(s *game.Session, playerID string, req *T) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricActionTotal.Add(1)
		s, _ := SessionFromContext(r.Context())
		var req T
		if err := decodeBody(r, &req, true); err != nil {
			metricActionErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		resp, err := run(s, PlayerIDFromContext(r.Context()), &req)
		if err != nil {
			WriteGameError(w, err)
			return
		}
		if resp == nil {
			resp = okResponse{OK: true}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *PlayerHandlers) View() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricStatePollsTotal.Add(1)
		s, _ := SessionFromContext(r.Context())
		view, err := s.PlayerView(PlayerIDFromContext(r.Context()))
		if err != nil {
			WriteGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (h *PlayerHandlers) Leave() http.HandlerFunc {
	return action(func(s *game.Session, id string, _ *struct{}) (any, error) {
		if err := s.Leave(id); err != nil {
			return nil, err
		}
		if h.reg.EvictIfEmpty(s.Code()) {
			metricSessionsActive.Set(int64(h.reg.Len()))
		}
		return nil, nil
	})
}

func (h *PlayerHandlers) Ready() http.HandlerFunc {
	return action(func(s *game.Session, id string, req *readyRequest) (any, error) {
		return nil, s.ToggleReady(id, req.Ready)
	})
}

func (h *PlayerHandlers) UpdateConfig() http.HandlerFunc {
	return action(func(s *game.Session, id string, req *game.ConfigUpdate) (any, error) {
		cfg, err := s.UpdateConfig(id, *req)
		if err != nil {
			return nil, err
		}
		return configResponse{OK: true, Config: cfg}, nil
	})
}

func (h *PlayerHandlers) Kick() http.HandlerFunc {
	return action(func(s *game.Session, id string, req *targetRequest) (any, error) {
		res, err := s.Kick(id, req.PlayerID)
		if err != nil {
			return nil, err
		}
		return kickResponse{OK: true, KickResult: res}, nil
	})
}

func (h *PlayerHandlers) Start() http.HandlerFunc {
	return action(func(s *game.Session, id string, _ *struct{}) (any, error) {
		if err := s.StartGame(id); err != nil {
			return nil, err
		}
		metricGamesStarted.Add(1)
		return nil, nil
	})
}

func (h *PlayerHandlers) Reset() http.HandlerFunc {
	return action(func(s *game.Session, id string, _ *struct{}) (any, error) {
		return nil, s.ResetToLobby(id)
	})
}

func (h *PlayerHandlers) CompleteTask() http.HandlerFunc {
	return action(func(s *game.Session, id string, req *taskRequest) (any, error) {
		done := true
		if req.Done != nil {
			done = *req.Done
		}
		return nil, s.CompleteTask(id, req.TaskID, done)
	})
}

func (h *PlayerHandlers) Emergency() http.HandlerFunc {
	return action(func(s *game.Session, id string, _ *struct{}) (any, error) {
		if err := s.CallEmergency(id); err != nil {
			return nil, err
		}
		metricMeetingsCalled.Add(1)
		return nil, nil
	})
}

func (h *PlayerHandlers) Report() http.HandlerFunc {
	return action(func(s *game.Session, id string, req *reportRequest) (any, error) {
		if err := s.ReportBody(id, req.BodyID); err != nil {
			return nil, err
		}
		metricMeetingsCalled.Add(1)
		return nil, nil
	})
}

func (h *PlayerHandlers) Vote() http.HandlerFunc {
	return action(func(s *game.Session, id string, req *voteRequest) (any, error) {
		return nil, s.Vote(id, req.Target)
	})
}

func (h *PlayerHandlers) Kill() http.HandlerFunc {
	return action(func(s *game.Session, id string, req *targetRequest) (any, error) {
		return nil, s.Kill(id, req.PlayerID)
	})
}

func (h *PlayerHandlers) Sabotage() http.HandlerFunc {
	return action(func(s *game.Session, id string, _ *struct{}) (any, error) {
		res, err := s.Sabotage(id)
		if err != nil {
			return nil, err
		}
		return sabotageResponse{OK: true, SabotageResult: res}, nil
	})
}

func (h *PlayerHandlers) StatusCheck() http.HandlerFunc {
	return action(func(s *game.Session, id string, _ *struct{}) (any, error) {
		res, err := s.StatusCheck(id)
		if err != nil {
			return nil, err
		}
		return statusCheckResponse{OK: true, StatusCheckResult: res}, nil
	})
}
