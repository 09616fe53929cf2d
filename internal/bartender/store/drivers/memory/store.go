// Package memory is an in-process CredentialStore for tests and throwaway
// local runs. Data is lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aussiebroadwan/bartender/internal/bartender/domain"
	"github.com/aussiebroadwan/bartender/internal/bartender/store"
)

type Store struct {
	mu         sync.RWMutex
	byID       map[string]domain.Identity
	byUsername map[string]string
	byEmail    map[string]string
}

var _ store.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		byID:       make(map[string]domain.Identity),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

func (s *Store) Identities() store.Identities   { return s }
func (s *Store) ApplyMigrations() error         { return nil }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close() error                   { return nil }

func (s *Store) CreateIdentity(ctx context.Context, i domain.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[i.ID]; ok {
		return fmt.Errorf("%w: id", store.ErrAlreadyExists)
	}
	if _, ok := s.byUsername[i.Username]; ok {
		return fmt.Errorf("%w: username", store.ErrAlreadyExists)
	}
	if _, ok := s.byEmail[i.Email]; ok {
		return fmt.Errorf("%w: email", store.ErrAlreadyExists)
	}

	s.byID[i.ID] = i
	s.byUsername[i.Username] = i.ID
	s.byEmail[i.Email] = i.ID
	return nil
}

func (s *Store) GetIdentityByID(ctx context.Context, id string) (domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return domain.Identity{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return domain.Identity{}, store.ErrNotFound
	}
	return i, nil
}

func (s *Store) GetIdentityByUsername(ctx context.Context, username string) (domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return domain.Identity{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return domain.Identity{}, store.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *Store) DeleteIdentity(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byUsername, i.Username)
	delete(s.byEmail, i.Email)
	return nil
}
