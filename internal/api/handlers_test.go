package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planpress/planpress/internal/config"
	"github.com/planpress/planpress/internal/model"
	"github.com/planpress/planpress/internal/queue"
	"github.com/planpress/planpress/internal/repository"
	"github.com/planpress/planpress/internal/schema"
	"github.com/planpress/planpress/internal/signing"
)

const testCatalog = `{
  "templates": [
    {
      "id": "plan-prevencion",
      "name": "Plan de Prevención",
      "description": "Plan personalizado",
      "template_id": "tpl-plan",
      "fields": [
        {
          "step": 1,
          "section": "Datos",
          "fields": [
            {"id": "patient_name", "name": "Nombre", "type": "text", "required": true},
            {"id": "recommendation", "name": "Recomendación", "type": "textarea", "required": false}
          ]
        }
      ]
    }
  ]
}`

// recordingDispatcher captures render jobs instead of running them.
type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []queue.RenderPayload
	fail bool
}

func (d *recordingDispatcher) Dispatch(_ context.Context, payload queue.RenderPayload) error {
	if d.fail {
		return errors.New("queue unavailable")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, payload)
	return nil
}

// mapArtifacts is an in-memory Artifacts backend without presigning.
type mapArtifacts struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMapArtifacts() *mapArtifacts {
	return &mapArtifacts{objects: make(map[string][]byte)}
}

func (a *mapArtifacts) Put(_ context.Context, key string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = data
	return nil
}

func (a *mapArtifacts) Get(_ context.Context, key string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such object: %s", key)
	}
	return data, nil
}

func (a *mapArtifacts) PresignDownload(context.Context, string, time.Duration) (string, bool, error) {
	return "", false, nil
}

type testEnv struct {
	server     *Server
	store      *repository.MemoryStore
	artifacts  *mapArtifacts
	dispatcher *recordingDispatcher
	signer     *signing.Signer
	router     http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.json"), []byte(testCatalog), 0o644))
	templates, err := schema.LoadDir(dir)
	require.NoError(t, err)

	cfg := &config.Config{Address: ":0", SigningSecret: "test-secret"}
	store := repository.NewMemoryStore()
	artifacts := newMapArtifacts()
	dispatcher := &recordingDispatcher{}
	signer := signing.NewSigner([]byte(cfg.SigningSecret))
	srv := New(cfg, templates, store, artifacts, dispatcher, signer, zerolog.Nop())
	return &testEnv{
		server:     srv,
		store:      store,
		artifacts:  artifacts,
		dispatcher: dispatcher,
		signer:     signer,
		router:     srv.Router(),
	}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTemplatesList(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/templates?list=true", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Templates []model.TemplateSummary `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Templates, 1)
	assert.Equal(t, "plan-prevencion", body.Templates[0].ID)
}

func TestTemplatesGetByID(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/templates?id=plan-prevencion", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Template model.Template `json:"template"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "tpl-plan", body.Template.TemplateID)

	rec = env.do(t, http.MethodGet, "/api/templates?id=unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/templates", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateCreatesDraftAndDispatches(t *testing.T) {
	env := newTestEnv(t)
	payload := `{"template_id":"tpl-plan","formData":{"patient_name":"Ana","stray":"dropped"}}`
	rec := env.do(t, http.MethodPost, "/api/pdf", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Document model.Document `json:"document"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Document.ID)
	assert.Equal(t, model.StatusDraft, body.Document.Status)

	require.Len(t, env.dispatcher.jobs, 1)
	job := env.dispatcher.jobs[0]
	assert.Equal(t, body.Document.ID, job.DocumentID)
	assert.Equal(t, "tpl-plan", job.TemplateID)
	assert.Equal(t, "Ana", job.FormData["patient_name"])
	_, hasStray := job.FormData["stray"]
	assert.False(t, hasStray, "undeclared fields must be dropped at the boundary")
	_, declared := job.FormData["recommendation"]
	assert.True(t, declared, "declared fields are always present")

	stored, err := env.store.Get(context.Background(), body.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, stored.Status)
}

func TestGenerateRejectsBadPayloads(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/pdf", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/pdf", `{"formData":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/pdf", `{"template_id":"tpl-unknown","formData":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateMarksFailureWhenDispatchFails(t *testing.T) {
	env := newTestEnv(t)
	env.dispatcher.fail = true

	rec := env.do(t, http.MethodPost, "/api/pdf", `{"template_id":"tpl-plan","formData":{}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := &model.Document{ID: "doc-1", TemplateID: "tpl-plan"}
	require.NoError(t, env.store.Create(ctx, doc))

	rec := env.do(t, http.MethodGet, "/api/pdf/status/doc-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Document model.Document `json:"document"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, model.StatusDraft, body.Document.Status)

	rec = env.do(t, http.MethodGet, "/api/pdf/status/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestViewServesSignedArtifact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := &model.Document{ID: "doc-1", TemplateID: "tpl-plan"}
	require.NoError(t, env.store.Create(ctx, doc))
	require.NoError(t, env.artifacts.Put(ctx, "documents/doc-1/tpl-plan.pdf", []byte("%PDF-fake")))
	require.NoError(t, env.store.MarkSuccess(ctx, "doc-1", "documents/doc-1/tpl-plan.pdf", "", ""))

	expires := time.Now().Add(time.Hour).Unix()
	sig := env.signer.Sign("doc-1", expires)
	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/pdf/view/doc-1?expires=%d&sig=%s", expires, sig), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-fake", rec.Body.String())
}

func TestViewRejectsBadSignatureAndUnreadyDocuments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.store.Create(ctx, &model.Document{ID: "doc-1", TemplateID: "tpl-plan"}))

	// Wrong signature.
	rec := env.do(t, http.MethodGet, "/api/pdf/view/doc-1?expires=99999999999&sig=bogus", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Expired link.
	past := time.Now().Add(-time.Hour).Unix()
	sig := env.signer.Sign("doc-1", past)
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/pdf/view/doc-1?expires=%d&sig=%s", past, sig), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Valid link, document still a draft.
	future := time.Now().Add(time.Hour).Unix()
	sig = env.signer.Sign("doc-1", future)
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/pdf/view/doc-1?expires=%d&sig=%s", future, sig), "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodOptions, "/api/pdf", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
