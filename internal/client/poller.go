package client

import (
	"context"
	"time"

	"github.com/planpress/planpress/internal/model"
)

// DefaultPollInterval paces status checks while a document is still a draft.
const DefaultPollInterval = 3 * time.Second

// Update is delivered to the poll consumer after every status check. URL is
// set once the document succeeds; Err carries transient check failures, an
// InvalidURLError on a bad terminal URL, or a PollError on terminal failure.
type Update struct {
	Document *model.Document
	URL      string
	Err      error
}

// Terminal reports whether this update ends the polling loop.
func (u Update) Terminal() bool {
	return u.Document != nil && u.Document.Status.Terminal()
}

// Poller repeatedly checks a document's status until it leaves draft.
type Poller struct {
	client   *Client
	interval time.Duration
}

// NewPoller builds a poller; a non-positive interval falls back to the
// default 3s cadence.
func NewPoller(c *Client, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{client: c, interval: interval}
}

// Handle stops a running poll loop. Stop is idempotent and returns once the
// loop has fully exited, so no further updates arrive after it.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Stop cancels the loop and waits for it to wind down.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

// Done is closed when the loop exits, whether by terminal status,
// cancellation, or consumer stop.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Start begins polling and invokes fn after every check. The first check
// fires immediately, subsequent ones on the interval. The loop stops on the
// first terminal status or when the handle is stopped; consumers tear the
// handle down with the view so no orphaned timer mutates state afterwards.
func (p *Poller) Start(ctx context.Context, documentID string, fn func(Update)) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		if p.check(ctx, documentID, fn) {
			return
		}
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if p.check(ctx, documentID, fn) {
					return
				}
			}
		}
	}()
	return h
}

// check runs one status round-trip and reports whether polling should stop.
func (p *Poller) check(ctx context.Context, documentID string, fn func(Update)) bool {
	doc, err := p.client.GetStatus(ctx, documentID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		// Transient failure; keep polling, the next tick may succeed.
		fn(Update{Err: err})
		return false
	}
	update := Update{Document: doc}
	switch doc.Status {
	case model.StatusSuccess:
		update.URL, update.Err = ResolveURL(doc)
	case model.StatusDraft:
		// Still generating; nothing to resolve.
	default:
		update.Err = &PollError{Status: doc.Status, Message: doc.Message}
	}
	fn(update)
	return update.Terminal()
}

// Wait polls until the document reaches a terminal state and returns the
// resolved URL. Terminal failure comes back as a PollError, a bad URL as an
// InvalidURLError; cancellation returns the context error.
func (p *Poller) Wait(ctx context.Context, documentID string) (string, error) {
	var last Update
	h := p.Start(ctx, documentID, func(u Update) { last = u })
	select {
	case <-ctx.Done():
		h.Stop()
		return "", ctx.Err()
	case <-h.Done():
	}
	if !last.Terminal() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
	if last.Err != nil {
		return "", last.Err
	}
	return last.URL, nil
}
