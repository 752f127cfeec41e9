// Package storage persists rendered PDF artifacts and mints URLs for them.
package storage

import (
	"context"
	"time"
)

// Artifacts is implemented by the MinIO store and the local-disk store used
// in standalone mode.
type Artifacts interface {
	Put(ctx context.Context, objectKey string, data []byte) error
	Get(ctx context.Context, objectKey string) ([]byte, error)
	// PresignDownload returns a signed GET URL for the object. ok is false
	// when the backend cannot mint externally reachable URLs; the API then
	// serves the artifact itself through its signed view route.
	PresignDownload(ctx context.Context, objectKey string, ttl time.Duration) (url string, ok bool, err error)
}
