package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codegraph-hq/codegraph/internal/analyzer"
	"github.com/codegraph-hq/codegraph/internal/api"
	"github.com/codegraph-hq/codegraph/internal/classifier"
	"github.com/codegraph-hq/codegraph/internal/config"
	"github.com/codegraph-hq/codegraph/internal/db"
	"github.com/codegraph-hq/codegraph/internal/extractor"
	"github.com/codegraph-hq/codegraph/internal/github"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	store := db.NewStore(database)

	ext := extractor.New(extractor.WithMaxFileSize(cfg.MaxFileSize))

	var client classifier.Client
	if !cfg.Classifier.Disabled && cfg.Classifier.APIKey != "" {
		client = classifier.NewLLMClient(cfg.Classifier.APIKey, cfg.Classifier.Model, cfg.Classifier.BaseURL)
	}
	cls := classifier.New(client)

	an := analyzer.New(ext, cls)
	repos := github.NewRepoService(cfg.WorkDir, cfg.GitHubToken)

	// Create server
	srv, err := api.NewServer(cfg, database, store, an, repos)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create server")
	}

	// Start server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("server is shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Fatal().Err(err).Msg("could not gracefully shutdown the server")
		}
		close(done)
	}()

	log.Info().Int("port", cfg.Port).Msg("starting API server")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("could not listen on port")
	}

	<-done
	log.Info().Msg("server stopped")
}
