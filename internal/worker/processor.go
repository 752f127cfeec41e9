// Package worker renders submitted documents in the background and records
// the outcome, regardless of whether jobs arrive over asynq or the inline
// pool.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/planpress/planpress/internal/layout"
	pdfutil "github.com/planpress/planpress/internal/pdf"
	"github.com/planpress/planpress/internal/queue"
	"github.com/planpress/planpress/internal/repository"
	"github.com/planpress/planpress/internal/schema"
	"github.com/planpress/planpress/internal/signing"
	"github.com/planpress/planpress/internal/storage"
)

// Processor turns render payloads into stored PDF artifacts.
type Processor struct {
	store     repository.Store
	artifacts storage.Artifacts
	templates *schema.Store
	renderer  layout.Renderer
	links     *signing.LinkBuilder
	urlTTL    time.Duration
	log       zerolog.Logger
}

// NewProcessor wires the render pipeline. urlTTL bounds presigned download
// links.
func NewProcessor(store repository.Store, artifacts storage.Artifacts, templates *schema.Store, renderer layout.Renderer, links *signing.LinkBuilder, urlTTL time.Duration, log zerolog.Logger) *Processor {
	return &Processor{
		store:     store,
		artifacts: artifacts,
		templates: templates,
		renderer:  renderer,
		links:     links,
		urlTTL:    urlTTL,
		log:       log,
	}
}

// Handler registers the asynq render handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.RenderDocumentTask, p.handleTask)
	return mux
}

func (p *Processor) handleTask(ctx context.Context, task *asynq.Task) error {
	var payload queue.RenderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return p.Process(ctx, payload)
}

// Process renders one document: build the layout from template plus form
// data, render, verify the artifact parses, store it, attach URLs, and move
// the document to its terminal status. Every error path marks the document
// failed so pollers observe a terminal state instead of hanging on draft.
func (p *Processor) Process(ctx context.Context, payload queue.RenderPayload) error {
	failure := func(err error) error {
		p.log.Error().Err(err).Str("document_id", payload.DocumentID).Msg("render failed")
		_ = p.store.MarkFailure(ctx, payload.DocumentID, err.Error())
		return err
	}
	tpl, err := p.templates.GetByBackingID(payload.TemplateID)
	if err != nil {
		return failure(err)
	}
	doc := layout.FromTemplate(tpl, payload.FormData)
	data, err := p.renderer.Render(ctx, doc)
	if err != nil {
		return failure(err)
	}
	pages, err := pdfutil.Verify(data)
	if err != nil {
		return failure(fmt.Errorf("artifact verification: %w", err))
	}
	objectKey := fmt.Sprintf("documents/%s/%s.pdf", payload.DocumentID, tpl.ID)
	if err := p.artifacts.Put(ctx, objectKey, data); err != nil {
		return failure(err)
	}
	downloadURL, previewURL := p.documentURLs(ctx, payload.DocumentID, objectKey)
	if err := p.store.MarkSuccess(ctx, payload.DocumentID, objectKey, downloadURL, previewURL); err != nil {
		return failure(err)
	}
	p.log.Info().
		Str("document_id", payload.DocumentID).
		Str("template", tpl.ID).
		Int("pages", pages).
		Int("bytes", len(data)).
		Msg("document rendered")
	return nil
}

// documentURLs prefers a storage-presigned download URL and always falls
// back to the API's own signed view route.
func (p *Processor) documentURLs(ctx context.Context, documentID, objectKey string) (string, string) {
	viewURL := p.links.ViewURL(documentID)
	download, ok, err := p.artifacts.PresignDownload(ctx, objectKey, p.urlTTL)
	if err != nil || !ok {
		if err != nil {
			p.log.Warn().Err(err).Str("document_id", documentID).Msg("presign failed, using view url")
		}
		return viewURL, viewURL
	}
	return download, viewURL
}
