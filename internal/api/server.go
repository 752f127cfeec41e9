// Package api exposes the HTTP surface: template listing, document
// generation, status checks, and the signed artifact view route.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/planpress/planpress/internal/config"
	"github.com/planpress/planpress/internal/queue"
	"github.com/planpress/planpress/internal/repository"
	"github.com/planpress/planpress/internal/schema"
	"github.com/planpress/planpress/internal/signing"
	"github.com/planpress/planpress/internal/storage"
)

// Server hosts the HTTP handlers and stitches together templates, the
// document store, artifact storage, and the render dispatcher.
type Server struct {
	cfg        *config.Config
	templates  *schema.Store
	store      repository.Store
	artifacts  storage.Artifacts
	dispatcher queue.Dispatcher
	signer     *signing.Signer
	log        zerolog.Logger
	server     *http.Server
	once       sync.Once
}

// New constructs a Server.
func New(cfg *config.Config, templates *schema.Store, store repository.Store, artifacts storage.Artifacts, dispatcher queue.Dispatcher, signer *signing.Signer, log zerolog.Logger) *Server {
	return &Server{
		cfg:        cfg,
		templates:  templates,
		store:      store,
		artifacts:  artifacts,
		dispatcher: dispatcher,
		signer:     signer,
		log:        log,
	}
}

// Router builds the route table. Exposed for handler tests.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/templates", s.handleTemplates).Methods(http.MethodGet)
	r.HandleFunc("/api/pdf", s.handleGenerate).Methods(http.MethodPost)
	r.HandleFunc("/api/pdf/status/{documentId}", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/pdf/view/{documentId}", s.handleView).Methods(http.MethodGet)
	return corsMiddleware(s.loggingMiddleware(r))
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		s.server = &http.Server{
			Addr:    s.cfg.Address,
			Handler: s.Router(),
		}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	s.log.Info().Str("address", s.cfg.Address).Msg("api listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
