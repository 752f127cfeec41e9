package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planpress/planpress/internal/model"
)

func TestMemoryStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	doc := &model.Document{ID: "doc-1", TemplateID: "tpl-plan"}
	require.NoError(t, store.Create(ctx, doc))

	got, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, got.Status)
	assert.Equal(t, "tpl-plan", got.TemplateID)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = store.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, &model.Document{ID: "doc-1"}))

	got, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)
	got.Status = model.StatusFailure

	again, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, again.Status)
}

func TestMemoryStoreMarkSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, &model.Document{ID: "doc-1"}))

	err := store.MarkSuccess(ctx, "doc-1", "documents/doc-1/tpl.pdf",
		"https://files.example.com/doc-1.pdf", "https://api.example.com/view/doc-1")
	require.NoError(t, err)

	got, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccess, got.Status)
	assert.Equal(t, "documents/doc-1/tpl.pdf", got.ObjectKey)
	require.NotNil(t, got.DownloadURL)
	assert.Equal(t, "https://files.example.com/doc-1.pdf", *got.DownloadURL)

	assert.True(t, errors.Is(store.MarkSuccess(ctx, "missing", "", "", ""), ErrNotFound))
}

func TestStatusIsMonotonic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, &model.Document{ID: "doc-1"}))
	require.NoError(t, store.MarkFailure(ctx, "doc-1", "render exploded"))

	// A late success must not overwrite the terminal failure.
	require.NoError(t, store.MarkSuccess(ctx, "doc-1", "key", "https://late.example.com/doc.pdf", ""))

	got, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailure, got.Status)
	assert.Equal(t, "render exploded", got.Message)
	assert.Nil(t, got.DownloadURL)
}
