// Package main runs the asynq render worker. It requires Redis; in
// standalone deployments the API server renders on its inline pool instead
// and no worker process is needed.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/planpress/planpress/internal/config"
	"github.com/planpress/planpress/internal/database"
	"github.com/planpress/planpress/internal/layout"
	"github.com/planpress/planpress/internal/logging"
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
	if !cfg.UseAsynq() {
		log.Fatal().Msg("PLANPRESS_REDIS_ADDR must be set for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	templates, err := schema.LoadDir(cfg.TemplateDir)
	if err != nil {
		log.Fatal().Err(err).Msg("load templates")
	}

	var store repository.Store
	if cfg.UsePostgres() {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect database")
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("ensure schema")
		}
		store = repository.NewPostgresStore(pool)
	} else {
		// A worker process without a shared database cannot see the API's
		// in-memory documents; refuse the footgun.
		log.Fatal().Msg("PLANPRESS_DATABASE_URL must be set for the worker")
	}

	var artifacts storage.Artifacts
	if cfg.UseMinio() {
		minioStore, err := storage.NewMinio(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("init storage")
		}
		if err := minioStore.EnsureBucket(ctx); err != nil {
			log.Fatal().Err(err).Msg("ensure bucket")
		}
		artifacts = minioStore
	} else {
		artifacts, err = storage.NewLocal(cfg.ArtifactDir)
		if err != nil {
			log.Fatal().Err(err).Msg("init storage")
		}
	}

	signer := signing.NewSigner([]byte(cfg.SigningSecret))
	links := signing.NewLinkBuilder(cfg.PublicBaseURL, signer, cfg.SignedURLTTL)
	processor := worker.NewProcessor(store, artifacts, templates, layout.NewPDFRenderer(), links, cfg.SignedURLTTL, log)

	server := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
	})

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	if err := server.Run(processor.Handler()); err != nil {
		log.Error().Err(err).Msg("worker stopped")
		os.Exit(1)
	}
}
