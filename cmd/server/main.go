// Package main runs the PlanPress API server. Backing services are optional:
// without Postgres, Redis, or MinIO configured it runs standalone on the
// in-memory store, the inline render pool, and local disk artifacts.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/planpress/planpress/internal/api"
	"github.com/planpress/planpress/internal/config"
	"github.com/planpress/planpress/internal/database"
	"github.com/planpress/planpress/internal/layout"
	"github.com/planpress/planpress/internal/logging"
	"github.com/planpress/planpress/internal/queue"
	"github.com/planpress/planpress/internal/repository"
	"github.com/planpress/planpress/internal/schema"
	"github.com/planpress/planpress/internal/signing"
	"github.com/planpress/planpress/internal/storage"
	"github.com/planpress/planpress/internal/worker"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New("info")
		fallback.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	templates, err := schema.LoadDir(cfg.TemplateDir)
	if err != nil {
		log.Fatal().Err(err).Msg("load templates")
	}
	for _, summary := range templates.List() {
		tpl, _ := templates.Get(summary.ID)
		if dupes := schema.DuplicateFieldIDs(tpl); len(dupes) > 0 {
			log.Warn().Str("template", tpl.ID).Strs("fields", dupes).Msg("duplicate field ids; later values overwrite earlier ones")
		}
	}

	store, cleanup, err := buildStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init document store")
	}
	defer cleanup()

	artifacts, err := buildArtifacts(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init artifact storage")
	}

	signer := signing.NewSigner([]byte(cfg.SigningSecret))
	dispatcher := buildDispatcher(ctx, cfg, store, artifacts, templates, signer, log)

	srv := api.New(cfg, templates, store, artifacts, dispatcher, signer, log)
	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

func buildStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (repository.Store, func(), error) {
	if !cfg.UsePostgres() {
		log.Info().Msg("no database configured, using in-memory document store")
		return repository.NewMemoryStore(), func() {}, nil
	}
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repository.NewPostgresStore(pool), pool.Close, nil
}

func buildArtifacts(ctx context.Context, cfg *config.Config) (storage.Artifacts, error) {
	if !cfg.UseMinio() {
		return storage.NewLocal(cfg.ArtifactDir)
	}
	store, err := storage.NewMinio(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func buildDispatcher(ctx context.Context, cfg *config.Config, store repository.Store, artifacts storage.Artifacts, templates *schema.Store, signer *signing.Signer, log zerolog.Logger) queue.Dispatcher {
	if cfg.UseAsynq() {
		client := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return queue.NewAsynqDispatcher(client)
	}
	log.Info().Msg("no redis configured, rendering on the inline pool")
	links := signing.NewLinkBuilder(cfg.PublicBaseURL, signer, cfg.SignedURLTTL)
	processor := worker.NewProcessor(store, artifacts, templates, layout.NewPDFRenderer(), links, cfg.SignedURLTTL, log)
	pool := queue.NewInlinePool(processor.Process, cfg.WorkerConcurrency, log)
	pool.Start(ctx)
	return pool
}
