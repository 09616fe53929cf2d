package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/bartender/internal/bartender/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface implemented by each driver under
// drivers/. Any error other than the sentinels above is a storage fault.
type Store interface {
	Identities() Identities

	// ApplyMigrations brings the schema up to date. Drivers without a schema
	// treat it as a no-op.
	ApplyMigrations() error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Identities persists registered users. Usernames and emails are unique
// across all identities, and two concurrent creates with the same username
// or email result in exactly one success.
type Identities interface {
	// CreateIdentity inserts i, returning ErrAlreadyExists (wrapped with the
	// offending field where known) on a username or email collision.
	CreateIdentity(ctx context.Context, i domain.Identity) error

	GetIdentityByID(ctx context.Context, id string) (domain.Identity, error)
	GetIdentityByUsername(ctx context.Context, username string) (domain.Identity, error)

	// DeleteIdentity returns ErrNotFound when id does not exist.
	DeleteIdentity(ctx context.Context, id string) error
}
