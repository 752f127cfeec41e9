package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/planpress/planpress/internal/model"
)

// MemoryStore keeps documents in a map guarded by an RWMutex. It backs
// standalone mode (no database configured) and the package tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*model.Document
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*model.Document)}
}

// Create inserts a draft document.
func (m *MemoryStore) Create(_ context.Context, doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	doc.Status = model.StatusDraft
	doc.CreatedAt = now
	doc.UpdatedAt = now
	cp := *doc
	m.docs[doc.ID] = &cp
	return nil
}

// Get returns a copy of the stored document.
func (m *MemoryStore) Get(_ context.Context, id string) (*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := *doc
	return &cp, nil
}

// MarkSuccess transitions a draft document to success.
func (m *MemoryStore) MarkSuccess(_ context.Context, id, objectKey, downloadURL, previewURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if doc.Status.Terminal() {
		return nil
	}
	doc.Status = model.StatusSuccess
	doc.ObjectKey = objectKey
	if downloadURL != "" {
		doc.DownloadURL = &downloadURL
	}
	if previewURL != "" {
		doc.PreviewURL = &previewURL
	}
	doc.Message = ""
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkFailure transitions a draft document to failure.
func (m *MemoryStore) MarkFailure(_ context.Context, id, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if doc.Status.Terminal() {
		return nil
	}
	doc.Status = model.StatusFailure
	doc.Message = message
	doc.UpdatedAt = time.Now().UTC()
	return nil
}
