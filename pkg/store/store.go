// Package store persists saved process models as documents.
//
// Sessions in [github.com/fpbviz/fpbviz/pkg/session] are transient; a
// document is what remains when a user saves their work. Backends:
// MongoStore for the server, FileStore for single-user CLI setups.
package store

import (
	"context"
	"time"

	"github.com/fpbviz/fpbviz/pkg/errors"
	"github.com/fpbviz/fpbviz/pkg/fpb"
	"github.com/fpbviz/fpbviz/pkg/layout"
)

// Document is one saved process model with its layout config.
type Document struct {
	ID        string            `json:"id" bson:"_id"`
	Title     string            `json:"title" bson:"title"`
	Model     *fpb.ProcessModel `json:"model" bson:"model"`
	Config    layout.Config     `json:"config" bson:"config"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" bson:"updated_at"`
}

// Store is the interface for document persistence backends.
type Store interface {
	// Get retrieves a document by ID. Returns an error with code
	// MODEL_NOT_FOUND when the document does not exist.
	Get(ctx context.Context, id string) (*Document, error)

	// Put creates or replaces a document.
	Put(ctx context.Context, doc *Document) error

	// Delete removes a document. Deleting a missing document is not an
	// error.
	Delete(ctx context.Context, id string) error

	// List returns summaries of all documents, newest first.
	List(ctx context.Context) ([]Summary, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// Summary is the listing view of a document, without the model payload.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NotFound builds the standard missing-document error.
func NotFound(id string) error {
	return errors.New(errors.ErrCodeModelNotFound, "document %s not found", id)
}
