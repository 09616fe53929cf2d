package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/bartender/internal/bartender/store"
	bredis "github.com/aussiebroadwan/bartender/internal/bartender/store/drivers/redis"
	"github.com/aussiebroadwan/bartender/internal/bartender/store/storetest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*bredis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return bredis.NewStoreWithClient(client, "test:"), mr
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, _ := newStore(t)
		return s
	})
}

func TestKeyLayout(t *testing.T) {
	s, mr := newStore(t)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	alice := storetest.NewIdentity("alice")
	require.NoError(t, s.Identities().CreateIdentity(ctx, alice))

	require.Equal(t, alice.ID, mr.HGet("test:identity:"+alice.ID, "id"))
	got, err := mr.Get("test:username:alice")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got)
	got, err = mr.Get("test:email:alice@example.com")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got)

	require.NoError(t, s.Identities().DeleteIdentity(ctx, alice.ID))
	require.False(t, mr.Exists("test:identity:"+alice.ID))
	require.False(t, mr.Exists("test:username:alice"))
	require.False(t, mr.Exists("test:email:alice@example.com"))
}

func TestNewStoreURL(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := bredis.NewStore(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Ping(context.Background()))

	_, err = bredis.NewStore(context.Background(), "not a url")
	require.Error(t, err)
}

func TestPingFailsWhenDown(t *testing.T) {
	s, mr := newStore(t)
	t.Cleanup(func() { _ = s.Close() })

	mr.Close()
	require.Error(t, s.Ping(context.Background()))
}
