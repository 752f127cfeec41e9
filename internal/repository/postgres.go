package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planpress/planpress/internal/model"
)

// PostgresStore wraps all SQL used by the API and the worker.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Store backed by pgx.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create inserts a draft document before generation begins.
func (r *PostgresStore) Create(ctx context.Context, doc *model.Document) error {
	now := time.Now().UTC()
	doc.Status = model.StatusDraft
	doc.CreatedAt = now
	doc.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO documents (id, template_id, status, object_key, download_url, preview_url, message, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, doc.ID, doc.TemplateID, doc.Status, doc.ObjectKey, doc.DownloadURL, doc.PreviewURL, doc.Message, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Get returns a document by id.
func (r *PostgresStore) Get(ctx context.Context, id string) (*model.Document, error) {
	var (
		doc         model.Document
		downloadURL sql.NullString
		previewURL  sql.NullString
	)
	row := r.pool.QueryRow(ctx, `
		SELECT id, template_id, status, object_key, download_url, preview_url, COALESCE(message,''), created_at, updated_at
		FROM documents WHERE id=$1
	`, id)
	if err := row.Scan(&doc.ID, &doc.TemplateID, &doc.Status, &doc.ObjectKey, &downloadURL, &previewURL, &doc.Message, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("select document: %w", err)
	}
	if downloadURL.Valid && downloadURL.String != "" {
		u := downloadURL.String
		doc.DownloadURL = &u
	}
	if previewURL.Valid && previewURL.String != "" {
		u := previewURL.String
		doc.PreviewURL = &u
	}
	return &doc, nil
}

// MarkSuccess stores the artifact references and flips the status. The WHERE
// clause keeps the update from resurrecting an already-terminal document.
func (r *PostgresStore) MarkSuccess(ctx context.Context, id, objectKey, downloadURL, previewURL string) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		UPDATE documents
		SET status=$1, object_key=$2, download_url=$3, preview_url=$4, message='', updated_at=$5
		WHERE id=$6 AND status=$7
	`, model.StatusSuccess, objectKey, downloadURL, previewURL, now, id, model.StatusDraft)
	if err != nil {
		return fmt.Errorf("mark success: %w", err)
	}
	return nil
}

// MarkFailure records the terminal failure and its message.
func (r *PostgresStore) MarkFailure(ctx context.Context, id, message string) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		UPDATE documents
		SET status=$1, message=$2, updated_at=$3
		WHERE id=$4 AND status=$5
	`, model.StatusFailure, message, now, id, model.StatusDraft)
	if err != nil {
		return fmt.Errorf("mark failure: %w", err)
	}
	return nil
}
