// Package store persists sketch documents locally. Two backends implement
// the same Repository contract: a SQLite database (default) and an
// S3-compatible object store. Both can seal blobs at rest when a
// passphrase is configured.
package store

import (
	"context"

	"github.com/dmitrijs2005/sketchsync/internal/models"
)

// Repository describes persistence operations for sketch documents.
type Repository interface {
	// Insert stores a new document.
	Insert(ctx context.Context, doc *models.Document) error

	// InsertAll stores a batch of documents atomically where the backend
	// supports it.
	InsertAll(ctx context.Context, docs []*models.Document) error

	// Update rewrites an existing document by ID.
	Update(ctx context.Context, doc *models.Document) error

	// Delete removes a document by ID. Deleting an absent ID is not an
	// error.
	Delete(ctx context.Context, id string) error

	// FetchAll loads every stored document.
	FetchAll(ctx context.Context) ([]*models.Document, error)
}
