package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/freezetag-backend/internal"
	"github.com/scythe504/freezetag-backend/internal/config"
	"github.com/scythe504/freezetag-backend/internal/database"
	"github.com/scythe504/freezetag-backend/internal/game"
	"github.com/scythe504/freezetag-backend/internal/logger"
	"github.com/scythe504/freezetag-backend/internal/server"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
	done <- true
}

func main() {
	config.InitConfig()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Setup(cfg.LogLevel, cfg.IsProduction())

	settings := game.Settings{
		TickRate:       cfg.TickRate,
		RoundDuration:  cfg.RoundDuration,
		StartPolicy:    internal.StartPolicy(cfg.StartPolicy),
		MaxPlayers:     cfg.MaxPlayers,
		MessageRate:    cfg.MessageRate,
		MessageBurst:   cfg.MessageBurst,
		AllowedOrigins: cfg.AllowedOrigins,
	}

	var (
		recorder game.MatchRecorder
		history  server.MatchHistory
		health   server.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := database.New(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer db.Close()
		recorder, history, health = db, db, db
	} else {
		log.Warn().Msg("DATABASE_URL not set, match history is kept in memory")
		mem := game.NewMemoryRecorder(100)
		recorder, history = mem, mem
	}

	coordinator := game.NewCoordinator(settings, game.WithRecorder(recorder))
	srv := server.New(cfg.Port, coordinator, history, health, cfg.AllowedOrigins).HTTPServer()

	done := make(chan bool, 1)
	go gracefulShutdown(srv, done)

	log.Info().Str("addr", srv.Addr).Int("tickRate", cfg.TickRate).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("http server error")
		os.Exit(1)
	}

	<-done
	log.Info().Msg("graceful shutdown complete")
}
