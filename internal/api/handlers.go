package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/planpress/planpress/internal/model"
	"github.com/planpress/planpress/internal/queue"
	"github.com/planpress/planpress/internal/repository"
	"github.com/planpress/planpress/internal/schema"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTemplates serves both ?list=true and ?id={id} lookups.
func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("list") == "true" {
		respondJSON(w, http.StatusOK, map[string]any{"templates": s.templates.List()})
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing id or list parameter")
		return
	}
	tpl, err := s.templates.Get(id)
	if err != nil {
		if errors.Is(err, schema.ErrNotFound) {
			respondError(w, http.StatusNotFound, "template not found: "+id)
			return
		}
		respondError(w, http.StatusInternalServerError, "template lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"template": tpl})
}

// handleGenerate accepts a submission payload, creates a draft document, and
// dispatches a render job. The draft handle is returned immediately; clients
// poll the status endpoint until generation reaches a terminal state.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload model.SubmissionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.TemplateID == "" {
		respondError(w, http.StatusBadRequest, "missing template_id")
		return
	}
	tpl, err := s.templates.GetByBackingID(payload.TemplateID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown template_id: "+payload.TemplateID)
		return
	}

	// Lenient editing, strict submission: values outside the template's
	// declared field set are dropped here at the boundary.
	known := schema.KnownFieldIDs(tpl)
	formData := make(map[string]string, len(known))
	for id := range known {
		formData[id] = payload.FormData[id]
	}

	doc := &model.Document{
		ID:         uuid.NewString(),
		TemplateID: payload.TemplateID,
	}
	if err := s.store.Create(ctx, doc); err != nil {
		s.log.Error().Err(err).Msg("create document")
		respondError(w, http.StatusInternalServerError, "failed to store document")
		return
	}
	job := queue.RenderPayload{
		DocumentID: doc.ID,
		TemplateID: payload.TemplateID,
		FormData:   formData,
	}
	if err := s.dispatcher.Dispatch(ctx, job); err != nil {
		s.log.Error().Err(err).Str("document_id", doc.ID).Msg("dispatch render")
		_ = s.store.MarkFailure(ctx, doc.ID, "failed to queue render job")
		respondError(w, http.StatusInternalServerError, "failed to queue render job")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"document": doc})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["documentId"]
	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "document not found: "+id)
			return
		}
		respondError(w, http.StatusInternalServerError, "document lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"document": doc})
}

// handleView streams the artifact for signed links minted by the worker.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["documentId"]
	expires := r.URL.Query().Get("expires")
	sig := r.URL.Query().Get("sig")
	if !s.signer.Validate(id, expires, sig) {
		respondError(w, http.StatusForbidden, "invalid or expired link")
		return
	}
	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "document not found: "+id)
		return
	}
	if doc.Status != model.StatusSuccess || doc.ObjectKey == "" {
		respondError(w, http.StatusConflict, "document not ready")
		return
	}
	data, err := s.artifacts.Get(r.Context(), doc.ObjectKey)
	if err != nil {
		s.log.Error().Err(err).Str("document_id", id).Msg("fetch artifact")
		respondError(w, http.StatusInternalServerError, "failed to fetch artifact")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+id+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
