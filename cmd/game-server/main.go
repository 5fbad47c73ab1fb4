package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"impostor-irl/internal/catalog"
	"impostor-irl/internal/config"
	"impostor-irl/internal/game"
	"impostor-irl/internal/logging"
	"impostor-irl/internal/registry"
	httptransport "impostor-irl/internal/transport/http"

	"github.com/rs/zerolog/log"
)

const catalogReloadDebounce = 250 * time.Millisecond

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalogs, err := newCatalogStore(cfg.Server)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Server.TaskCatalogPath).Msg("load task catalog failed")
	}
	if cfg.Server.TaskCatalogWatch && cfg.Server.TaskCatalogPath != "" {
		go func() {
			if err := catalog.Watch(ctx, catalogs, cfg.Server.TaskCatalogPath, catalogReloadDebounce); err != nil {
				log.Error().Err(err).Msg("task catalog watcher stopped")
			}
		}()
	}

	reg := newRegistry(cfg, catalogs)
	reg.StartJanitor(ctx, cfg.Server.JanitorInterval)

	r := httptransport.NewRouter(reg)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

func newCatalogStore(cfg config.ServerConfig) (*catalog.Store, error) {
	if cfg.TaskCatalogPath == "" {
		log.Info().Msg("using built-in task catalog")
		return catalog.NewStore(nil), nil
	}
	c, seeded, err := catalog.LoadOrSeed(cfg.TaskCatalogPath)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("path", cfg.TaskCatalogPath).
		Int("categories", len(c.Categories)).
		Bool("seeded", seeded).
		Msg("task catalog loaded")
	return catalog.NewStore(c), nil
}

func newRegistry(cfg config.AppConfig, catalogs *catalog.Store) *registry.Registry {
	return registry.New(registry.Options{
		Session: game.Options{
			Catalog: catalogs,
			Timings: timingsFromConfig(cfg.Game),
		},
		IdleTTL:    cfg.Server.SessionIdleTTL,
		EmptyGrace: cfg.Server.EmptySessionGrace,
	})
}

func timingsFromConfig(cfg config.GameConfig) game.Timings {
	return game.Timings{
		VoteDelay:           cfg.VoteDelay(),
		SabotageWindow:      cfg.SabotageWindow(),
		StatusCheckWindow:   cfg.StatusCheckWindow(),
		DefaultKillCooldown: cfg.DefaultKillCooldownSeconds,
		DefaultMeeting:      cfg.DefaultMeetingSeconds,
	}
}
