package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"cloudbill/internal/api"
	"cloudbill/internal/config"
	"cloudbill/internal/metrics"
	"cloudbill/internal/report"
	"cloudbill/internal/store"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// Load configuration file if one is given, otherwise defaults.
	cfg := config.Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to load config")
		}
		cfg = loaded
	}

	// Environment overrides.
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}

	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	// Initialize store
	log.Info().Msg("connecting to database")
	dbCfg := store.DefaultConfig(cfg.Database.URL)
	dbCfg.MaxConnections = cfg.Database.MaxConnections
	dbCfg.MinConnections = cfg.Database.MinConnections

	pool, err := store.NewPool(context.Background(), dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	st := store.New(pool)
	defer st.Close()

	// Report service with metrics
	collector := metrics.New()
	reports := report.NewService(st, log, collector)

	// Create API server
	serverCfg := api.DefaultServerConfig()
	serverCfg.Port = cfg.Server.Port
	serverCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout()
	serverCfg.EnableCORS = cfg.Server.EnableCORS
	serverCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	serverCfg.MaxBodySize = cfg.Server.MaxBodySize
	serverCfg.RateLimitRequests = cfg.Server.RateLimitRequests

	server := api.NewServer(serverCfg, st, reports)

	log.Info().
		Int("port", serverCfg.Port).
		Bool("cors", serverCfg.EnableCORS).
		Msg("starting API server")

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server exited")
}
