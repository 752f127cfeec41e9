package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planpress/planpress/internal/model"
)

// scriptedStatus serves a fixed sequence of status responses, then repeats
// the last one.
func scriptedStatus(t *testing.T, responses []string) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1)) - 1
		if n >= len(responses) {
			n = len(responses) - 1
		}
		fmt.Fprint(w, responses[n])
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL), &calls
}

func TestPollerStopsOnSuccess(t *testing.T) {
	draft := `{"document":{"id":"doc-1","status":"draft","download_url":null,"preview_url":null}}`
	success := `{"document":{"id":"doc-1","status":"success","download_url":"https://files.example.com/doc-1.pdf","preview_url":null}}`
	c, calls := scriptedStatus(t, []string{draft, draft, success})

	var updates []Update
	p := NewPoller(c, 10*time.Millisecond)
	h := p.Start(context.Background(), "doc-1", func(u Update) { updates = append(updates, u) })

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("poller never finished")
	}

	assert.Equal(t, int32(3), calls.Load())
	require.Len(t, updates, 3)
	assert.Equal(t, model.StatusDraft, updates[0].Document.Status)
	assert.Equal(t, model.StatusDraft, updates[1].Document.Status)
	last := updates[2]
	assert.True(t, last.Terminal())
	require.NoError(t, last.Err)
	assert.Equal(t, "https://files.example.com/doc-1.pdf", last.URL)
}

func TestPollerReportsFailureAsPollError(t *testing.T) {
	failure := `{"document":{"id":"doc-1","status":"failure","download_url":null,"preview_url":null}}`
	c, _ := scriptedStatus(t, []string{failure})

	p := NewPoller(c, 10*time.Millisecond)
	_, err := p.Wait(context.Background(), "doc-1")
	var pollErr *PollError
	require.True(t, errors.As(err, &pollErr))
	assert.Equal(t, model.StatusFailure, pollErr.Status)
}

func TestPollerSurfacesInvalidTerminalURL(t *testing.T) {
	success := `{"document":{"id":"doc-1","status":"success","download_url":"not-a-url","preview_url":null}}`
	c, _ := scriptedStatus(t, []string{success})

	p := NewPoller(c, 10*time.Millisecond)
	_, err := p.Wait(context.Background(), "doc-1")
	var badURL *InvalidURLError
	assert.True(t, errors.As(err, &badURL))
}

func TestPollerKeepsGoingOnTransientError(t *testing.T) {
	draft := `{"document":{"id":"doc-1","status":"draft","download_url":null,"preview_url":null}}`
	success := `{"document":{"id":"doc-1","status":"success","download_url":"https://files.example.com/doc-1.pdf","preview_url":null}}`
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			fmt.Fprint(w, draft)
		case 2:
			http.Error(w, "flaky", http.StatusBadGateway)
		default:
			fmt.Fprint(w, success)
		}
	}))
	t.Cleanup(srv.Close)

	p := NewPoller(New(srv.URL), 10*time.Millisecond)
	var sawTransient bool
	h := p.Start(context.Background(), "doc-1", func(u Update) {
		if u.Document == nil && u.Err != nil {
			sawTransient = true
		}
	})
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("poller never finished")
	}
	assert.True(t, sawTransient)
}

func TestHandleStopEndsLoop(t *testing.T) {
	draft := `{"document":{"id":"doc-1","status":"draft","download_url":null,"preview_url":null}}`
	c, _ := scriptedStatus(t, []string{draft})

	var count atomic.Int32
	p := NewPoller(c, 10*time.Millisecond)
	h := p.Start(context.Background(), "doc-1", func(Update) { count.Add(1) })

	time.Sleep(35 * time.Millisecond)
	h.Stop()
	after := count.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, count.Load(), "no updates may arrive after Stop returns")

	// Stop is idempotent.
	h.Stop()
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	draft := `{"document":{"id":"doc-1","status":"draft","download_url":null,"preview_url":null}}`
	c, _ := scriptedStatus(t, []string{draft})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	p := NewPoller(c, 10*time.Millisecond)
	_, err := p.Wait(ctx, "doc-1")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
