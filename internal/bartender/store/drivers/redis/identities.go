package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/bartender/internal/bartender/domain"
	"github.com/aussiebroadwan/bartender/internal/bartender/store"
	"github.com/redis/go-redis/v9"
)

// Returns the name of the colliding field, or "" after writing all three keys.
const createIdentityScript = `
if redis.call('EXISTS', KEYS[1]) == 1 then return 'id' end
if redis.call('EXISTS', KEYS[2]) == 1 then return 'username' end
if redis.call('EXISTS', KEYS[3]) == 1 then return 'email' end
redis.call('HSET', KEYS[1],
  'id', ARGV[1], 'username', ARGV[2], 'email', ARGV[3],
  'password_hash', ARGV[4], 'created_at', ARGV[5])
redis.call('SET', KEYS[2], ARGV[1])
redis.call('SET', KEYS[3], ARGV[1])
return ''
`

// KEYS[1] is the identity hash; ARGV holds the username and email key
// prefixes since the index keys are only known once the hash is read.
const deleteIdentityScript = `
local u = redis.call('HGET', KEYS[1], 'username')
if not u then return 0 end
local e = redis.call('HGET', KEYS[1], 'email')
redis.call('DEL', KEYS[1], ARGV[1] .. u, ARGV[2] .. e)
return 1
`

var (
	createIdentityLua = redis.NewScript(createIdentityScript)
	deleteIdentityLua = redis.NewScript(deleteIdentityScript)
)

type identitiesRepo struct {
	client *redis.Client
	prefix string
}

func (r *identitiesRepo) identityKey(id string) string { return r.prefix + "identity:" + id }
func (r *identitiesRepo) usernamePrefix() string       { return r.prefix + "username:" }
func (r *identitiesRepo) emailPrefix() string          { return r.prefix + "email:" }

func (r *identitiesRepo) CreateIdentity(ctx context.Context, i domain.Identity) error {
	keys := []string{
		r.identityKey(i.ID),
		r.usernamePrefix() + i.Username,
		r.emailPrefix() + i.Email,
	}

	field, err := createIdentityLua.Run(ctx, r.client, keys,
		i.ID, i.Username, i.Email, i.PasswordHash,
		i.CreatedAt.UTC().Format(time.RFC3339Nano),
	).Text()
	if err != nil {
		return fmt.Errorf("redis create identity: %w", err)
	}
	if field != "" {
		return fmt.Errorf("%w: %s", store.ErrAlreadyExists, field)
	}
	return nil
}

func (r *identitiesRepo) GetIdentityByID(ctx context.Context, id string) (domain.Identity, error) {
	fields, err := r.client.HGetAll(ctx, r.identityKey(id)).Result()
	if err != nil {
		return domain.Identity{}, fmt.Errorf("redis get identity: %w", err)
	}
	if len(fields) == 0 {
		return domain.Identity{}, store.ErrNotFound
	}
	return decodeIdentity(fields)
}

func (r *identitiesRepo) GetIdentityByUsername(ctx context.Context, username string) (domain.Identity, error) {
	id, err := r.client.Get(ctx, r.usernamePrefix()+username).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Identity{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("redis get username: %w", err)
	}
	return r.GetIdentityByID(ctx, id)
}

func (r *identitiesRepo) DeleteIdentity(ctx context.Context, id string) error {
	n, err := deleteIdentityLua.Run(ctx, r.client,
		[]string{r.identityKey(id)},
		r.usernamePrefix(), r.emailPrefix(),
	).Int()
	if err != nil {
		return fmt.Errorf("redis delete identity: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func decodeIdentity(fields map[string]string) (domain.Identity, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return domain.Identity{}, fmt.Errorf("redis identity %s: bad created_at: %w", fields["id"], err)
	}
	return domain.Identity{
		ID:           fields["id"],
		Username:     fields["username"],
		Email:        fields["email"],
		PasswordHash: fields["password_hash"],
		CreatedAt:    createdAt.UTC(),
	}, nil
}
