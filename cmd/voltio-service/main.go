package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voltio/voltio-backend/internal/api"
	"github.com/voltio/voltio-backend/internal/config"
	"github.com/voltio/voltio-backend/internal/hub"
	"github.com/voltio/voltio-backend/internal/logger"
	"github.com/voltio/voltio-backend/internal/presence"
	"github.com/voltio/voltio-backend/internal/store"
	"github.com/voltio/voltio-backend/internal/store/postgres"
	"github.com/voltio/voltio-backend/internal/store/sqlite"
)

func main() {
	// Optional driver flag override (sqlite | postgres)
	dbDriver := flag.String("db-driver", "", "Override VOLTIO_DB_DRIVER (sqlite, postgres)")
	flag.Parse()

	log := logger.New("voltio-service")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *dbDriver != "" {
		cfg.DBDriver = *dbDriver
		if err := cfg.ResolveDefaults(); err != nil {
			log.Fatal().Err(err).Msg("Invalid db-driver override")
		}
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("Project service starting…")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// -------- Storage layer -----------------
	var st store.Store
	switch cfg.DBDriver {
	case "postgres":
		st, err = postgres.New(ctx, cfg.PostgresDSN)
	default:
		st, err = sqlite.New(cfg.SQLitePath)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Storage adapter unavailable")
	}

	// -------- Presence & update hub ---------
	updateHub := hub.New()
	tracker := presence.NewTracker(cfg.PresenceTTL, log)
	go tracker.Run(ctx)

	// -------- Router & Server --------------
	router := api.NewRouter(st, updateHub, tracker)
	server := &http.Server{
		Addr:         cfg.GetHTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server…")
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
