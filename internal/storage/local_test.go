package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	key := "documents/doc-1/plan.pdf"
	require.NoError(t, store.Put(ctx, key, []byte("%PDF-data")))

	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-data"), data)

	_, err = store.Get(ctx, "documents/missing.pdf")
	assert.Error(t, err)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Put(ctx, "../escape.pdf", []byte("x")))
	assert.Error(t, store.Put(ctx, "/abs/path.pdf", []byte("x")))
	_, err = store.Get(ctx, "../../etc/passwd")
	assert.Error(t, err)
}

func TestLocalStoreCannotPresign(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	url, ok, err := store.PresignDownload(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, url)
}
