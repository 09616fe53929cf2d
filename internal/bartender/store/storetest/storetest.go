// Package storetest is the behaviour every store.Store driver must share.
// Driver packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/bartender/internal/bartender/domain"
	"github.com/aussiebroadwan/bartender/internal/bartender/store"
	"github.com/aussiebroadwan/bartender/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty, migrated store. Run closes it.
type Factory func(t *testing.T) store.Store

func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"CreateAndGet", testCreateAndGet},
		{"NotFound", testNotFound},
		{"DuplicateUsername", testDuplicateUsername},
		{"DuplicateEmail", testDuplicateEmail},
		{"ConcurrentDuplicate", testConcurrentDuplicate},
		{"Delete", testDelete},
		{"Ping", testPing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

// NewIdentity builds a distinct identity for tests; name seeds username and
// email.
func NewIdentity(name string) domain.Identity {
	return domain.Identity{
		ID:           idx.New().String(),
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "$2a$04$abcdefghijklmnopqrstuuJ9g7fS1u0X1eQ4Lr7Jb6nF0w5p3p2G",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

func requireSameIdentity(t *testing.T, want, got domain.Identity) {
	t.Helper()
	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Username, got.Username)
	require.Equal(t, want.Email, got.Email)
	require.Equal(t, want.PasswordHash, got.PasswordHash)
	require.WithinDuration(t, want.CreatedAt, got.CreatedAt, time.Millisecond)
}

func testCreateAndGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := NewIdentity("alice")

	require.NoError(t, s.Identities().CreateIdentity(ctx, alice))

	got, err := s.Identities().GetIdentityByID(ctx, alice.ID)
	require.NoError(t, err)
	requireSameIdentity(t, alice, got)

	got, err = s.Identities().GetIdentityByUsername(ctx, "alice")
	require.NoError(t, err)
	requireSameIdentity(t, alice, got)
}

func testNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.Identities().GetIdentityByID(ctx, idx.New().String())
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Identities().GetIdentityByUsername(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Lookups are exact.
	require.NoError(t, s.Identities().CreateIdentity(ctx, NewIdentity("carol")))
	_, err = s.Identities().GetIdentityByUsername(ctx, "Carol")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testDuplicateUsername(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Identities().CreateIdentity(ctx, NewIdentity("bob")))

	dup := NewIdentity("bob")
	dup.Email = "other@example.com"
	err := s.Identities().CreateIdentity(ctx, dup)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
	require.Contains(t, err.Error(), "username")

	// The loser must leave nothing behind.
	_, err = s.Identities().GetIdentityByID(ctx, dup.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testDuplicateEmail(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Identities().CreateIdentity(ctx, NewIdentity("dave")))

	dup := NewIdentity("dave2")
	dup.Email = "dave@example.com"
	err := s.Identities().CreateIdentity(ctx, dup)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
	require.Contains(t, err.Error(), "email")

	_, err = s.Identities().GetIdentityByUsername(ctx, "dave2")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testConcurrentDuplicate(t *testing.T, s store.Store) {
	ctx := context.Background()
	const racers = 8

	var (
		wg                 sync.WaitGroup
		mu                 sync.Mutex
		created, conflicts int
		others             []error
	)
	for n := range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			i := NewIdentity("erin")
			i.Email = fmt.Sprintf("erin%d@example.com", n)

			err := s.Identities().CreateIdentity(ctx, i)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, store.ErrAlreadyExists):
				conflicts++
			default:
				others = append(others, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, others)
	require.Equal(t, 1, created)
	require.Equal(t, racers-1, conflicts)
}

func testDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	frank := NewIdentity("frank")
	require.NoError(t, s.Identities().CreateIdentity(ctx, frank))

	require.NoError(t, s.Identities().DeleteIdentity(ctx, frank.ID))

	_, err := s.Identities().GetIdentityByID(ctx, frank.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Identities().GetIdentityByUsername(ctx, "frank")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, s.Identities().DeleteIdentity(ctx, frank.ID), store.ErrNotFound)

	// Username and email are free again.
	require.NoError(t, s.Identities().CreateIdentity(ctx, NewIdentity("frank")))
}

func testPing(t *testing.T, s store.Store) {
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.ApplyMigrations(), "migrations are idempotent")
}
