// Package session provides editing-session management for the diagram
// server.
//
// A session holds one working process model plus the spacing config used
// to lay it out, keyed by a generated session ID. The live editor posts
// model updates into its session and pulls recomputed diagrams back out;
// closing the browser abandons the session, which then ages out.
//
// Storage backends:
//   - memory: in-memory storage for development/testing
//   - file: file-based storage for CLI applications
//   - redis: Redis-backed storage for production multi-instance deployments
//
// # Usage
//
// Create a session store:
//
//	// Development
//	store := session.NewMemoryStore()
//
//	// Production
//	store, err := session.NewRedisStore(ctx, "localhost:6379", "", 0)
//
//	// CLI
//	store, err := session.NewFileStore("")  // Uses ~/.config/fpbviz/sessions/
//
// Manage sessions:
//
//	sess := session.New(model, cfg, session.DefaultTTL)
//	store.Set(ctx, sess)
//
//	sess, err := store.Get(ctx, sessionID)
//	if sess == nil {
//	    // Session not found or expired
//	}
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fpbviz/fpbviz/pkg/fpb"
	"github.com/fpbviz/fpbviz/pkg/layout"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExpired is returned when a session has exceeded its TTL.
	ErrExpired = errors.New("expired")
)

// Session is one editing session: a working model, its layout config and
// the bookkeeping timestamps.
type Session struct {
	ID        string            `json:"id"`
	Model     *fpb.ProcessModel `json:"model"`
	Config    layout.Config     `json:"config"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch refreshes the update timestamp and pushes the expiry out by ttl.
func (s *Session) Touch(ttl time.Duration) {
	now := time.Now()
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(ttl)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions (may be a no-op for backends with
	// native expiry).
	Cleanup(ctx context.Context) error
}

// DefaultTTL is the default session duration.
const DefaultTTL = 24 * time.Hour

// GenerateID creates a new random session ID.
func GenerateID() string {
	return uuid.NewString()
}

// New creates a new session around the given model.
func New(model *fpb.ProcessModel, cfg layout.Config, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        GenerateID(),
		Model:     model,
		Config:    cfg,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}
