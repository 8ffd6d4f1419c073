package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fpbviz/fpbviz/pkg/errors"
	"github.com/fpbviz/fpbviz/pkg/observability"
)

const fileBackend = "file"

// FileStore persists documents as JSON files in one directory, for
// single-user CLI setups without a database.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates a file-based document store in dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "create store dir")
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) docPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Get retrieves a document by ID.
func (s *FileStore) Get(ctx context.Context, id string) (*Document, error) {
	if err := errors.ValidateSessionID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	start := time.Now()
	data, err := os.ReadFile(s.docPath(id))
	observability.Store().OnStoreRead(ctx, fileBackend, id, time.Since(start), err)

	if os.IsNotExist(err) {
		return nil, NotFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "read document %s", id)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "parse document %s", id)
	}
	return &doc, nil
}

// Put creates or replaces a document.
func (s *FileStore) Put(ctx context.Context, doc *Document) error {
	if err := errors.ValidateSessionID(doc.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc.UpdatedAt = time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = doc.UpdatedAt
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "marshal document %s", doc.ID)
	}

	start := time.Now()
	err = os.WriteFile(s.docPath(doc.ID), data, 0644)
	observability.Store().OnStoreWrite(ctx, fileBackend, doc.ID, len(data), time.Since(start), err)

	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "write document %s", doc.ID)
	}
	return nil
}

// Delete removes a document. Deleting a missing document is not an
// error.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateSessionID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	err := os.Remove(s.docPath(id))
	observability.Store().OnStoreDelete(ctx, fileBackend, id, time.Since(start), err)

	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeStore, err, "delete document %s", id)
	}
	return nil
}

// List returns summaries of all documents, newest first.
func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "read store dir")
	}

	var out []Summary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}
		out = append(out, Summary{ID: doc.ID, Title: doc.Title, UpdatedAt: doc.UpdatedAt})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Close does nothing for file store.
func (s *FileStore) Close(ctx context.Context) error { return nil }

var _ Store = (*FileStore)(nil)
