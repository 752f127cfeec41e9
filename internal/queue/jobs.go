// Package queue defines the render task and the dispatchers that hand it to
// a worker: asynq when Redis is configured, an in-process pool otherwise.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// RenderDocumentTask is scheduled each time a form is submitted.
	RenderDocumentTask = "document:render"
)

// RenderPayload carries everything the worker needs to generate a document.
type RenderPayload struct {
	DocumentID string            `json:"document_id"`
	TemplateID string            `json:"template_id"`
	FormData   map[string]string `json:"form_data"`
}

// Dispatcher hands a render job to whichever worker backend is configured.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload RenderPayload) error
}

// AsynqDispatcher enqueues render jobs over Redis.
type AsynqDispatcher struct {
	client *asynq.Client
}

// NewAsynqDispatcher wraps an asynq client.
func NewAsynqDispatcher(client *asynq.Client) *AsynqDispatcher {
	return &AsynqDispatcher{client: client}
}

// Dispatch enqueues a render job.
func (d *AsynqDispatcher) Dispatch(ctx context.Context, payload RenderPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(RenderDocumentTask, data)
	if _, err := d.client.EnqueueContext(ctx, task, asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("enqueue render task: %w", err)
	}
	return nil
}
