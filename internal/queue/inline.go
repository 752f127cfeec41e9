package queue

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// RenderFunc is the worker entry point an InlinePool drives.
type RenderFunc func(ctx context.Context, payload RenderPayload) error

// InlinePool renders documents on background goroutines inside the API
// process. It keeps standalone deployments (no Redis) working with the same
// draft-then-poll protocol as the asynq path.
type InlinePool struct {
	render  RenderFunc
	jobs    chan RenderPayload
	workers int
	log     zerolog.Logger
}

// NewInlinePool builds a pool with queue capacity tied to worker count.
func NewInlinePool(render RenderFunc, workers int, log zerolog.Logger) *InlinePool {
	if workers <= 0 {
		workers = 1
	}
	return &InlinePool{
		render:  render,
		jobs:    make(chan RenderPayload, workers*4),
		workers: workers,
		log:     log,
	}
}

// Start launches the worker goroutines; they exit when ctx is cancelled.
func (p *InlinePool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		go p.worker(ctx)
	}
}

// Dispatch queues a job. A full buffer surfaces as an error so the API can
// report the submission as failed instead of silently dropping it.
func (p *InlinePool) Dispatch(_ context.Context, payload RenderPayload) error {
	select {
	case p.jobs <- payload:
		return nil
	default:
		return fmt.Errorf("render queue full, rejecting document %s", payload.DocumentID)
	}
}

func (p *InlinePool) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-p.jobs:
			if err := p.render(ctx, payload); err != nil {
				p.log.Error().Err(err).Str("document_id", payload.DocumentID).Msg("inline render failed")
			}
		}
	}
}
