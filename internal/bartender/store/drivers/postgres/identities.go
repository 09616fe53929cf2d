package postgres

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/bartender/internal/bartender/domain"
	"github.com/aussiebroadwan/bartender/internal/bartender/store"
)

const (
	insertIdentity = `
INSERT INTO identities (id, username, email, password_hash, created_at)
VALUES ($1, $2, $3, $4, $5)`

	selectIdentity = `
SELECT id, username, email, password_hash, created_at
FROM identities`

	deleteIdentity = `DELETE FROM identities WHERE id = $1`
)

type identitiesRepo struct {
	db *sql.DB
}

func (r *identitiesRepo) CreateIdentity(ctx context.Context, i domain.Identity) error {
	_, err := r.db.ExecContext(ctx, insertIdentity,
		i.ID, i.Username, i.Email, i.PasswordHash, i.CreatedAt.UTC(),
	)
	return mapConflict(err)
}

func (r *identitiesRepo) GetIdentityByID(ctx context.Context, id string) (domain.Identity, error) {
	return r.scanOne(ctx, selectIdentity+` WHERE id = $1`, id)
}

func (r *identitiesRepo) GetIdentityByUsername(ctx context.Context, username string) (domain.Identity, error) {
	return r.scanOne(ctx, selectIdentity+` WHERE username = $1`, username)
}

func (r *identitiesRepo) DeleteIdentity(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteIdentity, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *identitiesRepo) scanOne(ctx context.Context, query string, arg any) (domain.Identity, error) {
	var i domain.Identity
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&i.ID, &i.Username, &i.Email, &i.PasswordHash, &i.CreatedAt,
	)
	if err != nil {
		return domain.Identity{}, mapNotFound(err)
	}
	i.CreatedAt = i.CreatedAt.UTC()
	return i, nil
}
