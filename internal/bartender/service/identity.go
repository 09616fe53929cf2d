package service

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/bartender/internal/bartender/domain"
	"github.com/aussiebroadwan/bartender/internal/bartender/store"
)

type IdentityService struct {
	Store store.Store
}

// GetIdentity fetches an identity by id.
func (s *IdentityService) GetIdentity(ctx context.Context, id string) (domain.Identity, error) {
	identity, err := s.Store.Identities().GetIdentityByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Identity{}, ErrUserNotFound
		}
		return domain.Identity{}, internal(err)
	}
	return identity, nil
}
