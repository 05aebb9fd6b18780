// Package repository defines the durable session store interface and errors.
package repository

import (
	"context"

	"github.com/okian/intake/internal/domain/model"
)

// Store provides durable access to onboarding session records.
type Store interface {
	// Insert writes a new session row. Returns ErrDuplicateID when the
	// id already exists.
	Insert(ctx context.Context, session model.Session) error

	// UpdateScore attaches a score and explanation to an existing,
	// still-unscored session. It never touches any other column and is
	// a no-op when the session already carries a score. Returns
	// ErrNotFound for an unknown id.
	UpdateScore(ctx context.Context, id string, score int, explanation string) error

	// FindByID returns the session for id. Returns ErrNotFound when no
	// such row exists; absence is a normal outcome, not a failure.
	FindByID(ctx context.Context, id string) (model.Session, error)

	// Count returns the number of stored sessions.
	Count(ctx context.Context) int

	// Close releases the underlying storage handle.
	Close() error
}
