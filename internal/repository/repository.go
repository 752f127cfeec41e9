// Package repository persists document generation records.
package repository

import (
	"context"
	"errors"

	"github.com/planpress/planpress/internal/model"
)

// ErrNotFound is returned when a document id does not exist.
var ErrNotFound = errors.New("document not found")

// Store is implemented by the Postgres repository and the in-memory store
// used for standalone mode and tests. Status updates are monotonic: a
// document never leaves success or failure.
type Store interface {
	Create(ctx context.Context, doc *model.Document) error
	Get(ctx context.Context, id string) (*model.Document, error)
	MarkSuccess(ctx context.Context, id, objectKey, downloadURL, previewURL string) error
	MarkFailure(ctx context.Context, id, message string) error
}
