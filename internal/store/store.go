// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/founderport/angel/internal/domain"
)

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a session save lost an optimistic-lock race. The
	// caller decides whether to retry the whole submission; the store never
	// retries on its own.
	ErrConflict = errors.New("session version conflict")
)

// Repository defines the interface for persisting users, interview sessions,
// and conversation history.
type Repository interface {
	// GetUser retrieves a user by id. Returns nil, nil when absent.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// CreateSession inserts a new interview session.
	CreateSession(ctx context.Context, session *domain.Session) error

	// GetSession retrieves a session by id. Returns ErrNotFound when absent.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// ListSessions retrieves all sessions owned by a user, newest first.
	ListSessions(ctx context.Context, userID string) ([]*domain.Session, error)

	// UpdateSession persists a mutated session. The write only lands if the
	// stored version matches session.Version (optimistic locking); on a
	// stale version it returns ErrConflict and session is untouched. On
	// success session.Version is bumped to the stored value.
	UpdateSession(ctx context.Context, session *domain.Session) error

	// AppendHistory appends one conversation entry. History is append-only.
	AppendHistory(ctx context.Context, entry *domain.HistoryEntry) error

	// History retrieves the ordered conversation for a session.
	History(ctx context.Context, sessionID string) ([]domain.HistoryEntry, error)

	// CleanupExpiredSessions removes sessions idle longer than ttl, along
	// with their history. Returns the number of sessions removed.
	CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
