package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlinePoolRunsDispatchedJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	seen := make(map[string]bool)
	done := make(chan struct{}, 8)

	pool := NewInlinePool(func(_ context.Context, payload RenderPayload) error {
		mu.Lock()
		seen[payload.DocumentID] = true
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, 2, zerolog.Nop())
	pool.Start(ctx)

	require.NoError(t, pool.Dispatch(ctx, RenderPayload{DocumentID: "a"}))
	require.NoError(t, pool.Dispatch(ctx, RenderPayload{DocumentID: "b"}))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job never ran")
		}
	}
	mu.Lock()
	defer mu.Unlock()
	assert.True(t, seen["a"])
	assert.True(t, seen["b"])
}

func TestInlinePoolRejectsWhenFull(t *testing.T) {
	// Never started, so the buffer (workers*4) fills and the next dispatch
	// must fail rather than block.
	pool := NewInlinePool(func(context.Context, RenderPayload) error { return nil }, 1, zerolog.Nop())

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, pool.Dispatch(ctx, RenderPayload{DocumentID: "queued"}))
	}
	assert.Error(t, pool.Dispatch(ctx, RenderPayload{DocumentID: "overflow"}))
}
