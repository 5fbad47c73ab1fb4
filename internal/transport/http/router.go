package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"impostor-irl/internal/registry"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func NewRouter(reg *registry.Registry) *chi.Mux {
	lobbyHandlers := NewLobbyHandlers(reg)
	playerHandlers := NewPlayerHandlers(reg)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", lobbyHandlers.Health())

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Post("/lobbies", lobbyHandlers.Create())

		r.Route("/lobbies/{code}", func(r chi.Router) {
			r.Use(SessionMiddleware(reg))
			r.Post("/players", lobbyHandlers.Join())
			r.Get("/state", lobbyHandlers.State())

			r.Group(func(r chi.Router) {
				r.Use(PlayerMiddleware())
				r.Get("/player", playerHandlers.View())
				r.Post("/leave", playerHandlers.Leave())
				r.Post("/ready", playerHandlers.Ready())
				r.Post("/config", playerHandlers.UpdateConfig())
				r.Post("/kick", playerHandlers.Kick())
				r.Post("/start", playerHandlers.Start())
				r.Post("/reset", playerHandlers.Reset())
				r.Post("/tasks/complete", playerHandlers.CompleteTask())
				r.Post("/meetings/emergency", playerHandlers.Emergency())
				r.Post("/meetings/report", playerHandlers.Report())
				r.Post("/meetings/vote", playerHandlers.Vote())
				r.Post("/abilities/kill", playerHandlers.Kill())
				r.Post("/abilities/sabotage", playerHandlers.Sabotage())
				r.Post("/abilities/status-check", playerHandlers.StatusCheck())
			})
		})

		r.Route("/debug", func(r chi.Router) {
			r.Use(BodyCaptureMiddleware(4096))
			r.Get("/vars", expvar.Handler().ServeHTTP)
		})
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
