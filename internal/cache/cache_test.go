package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ciment_back_end/internal/models"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestStores_GetSetDelete(t *testing.T) {
	redisStore, _ := newRedisStore(t)
	stores := map[string]Store{
		"redis":  redisStore,
		"memory": NewMemoryStore(),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Get(ctx, "absent")
			assert.ErrorIs(t, err, ErrMiss)

			require.NoError(t, s.Set(ctx, "k", "v", time.Minute))
			v, err := s.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v", v)

			ok, err := s.Exists(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)

			require.NoError(t, s.Delete(ctx, "k"))
			ok, _ = s.Exists(ctx, "k")
			assert.False(t, ok)
		})
	}
}

func TestStores_Incr(t *testing.T) {
	redisStore, _ := newRedisStore(t)
	stores := map[string]Store{
		"redis":  redisStore,
		"memory": NewMemoryStore(),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for want := int64(1); want <= 3; want++ {
				n, err := s.Incr(ctx, "compteur", time.Minute)
				require.NoError(t, err)
				assert.Equal(t, want, n)
			}
			ttl, err := s.TTL(ctx, "compteur")
			require.NoError(t, err)
			assert.Greater(t, ttl, time.Duration(0))
			assert.LessOrEqual(t, ttl, time.Minute)
		})
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))
	_, err := s.Incr(ctx, "n", time.Minute)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	n, err := s.Incr(ctx, "n", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCategoryCache(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	calls := 0
	load := func(context.Context) ([]models.Category, error) {
		calls++
		return []models.Category{{ID: 1, Name: "Ciment", Slug: "ciment"}}, nil
	}
	c := NewCategoryCache(store, load, nil)

	cats, err := c.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.True(t, mr.Exists(CategoriesKey))

	cats, err = c.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ciment", cats[0].Name)
	assert.Equal(t, 1, calls)

	c.Invalidate(ctx)
	_, err = c.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCategoryCache_LoadError(t *testing.T) {
	boom := errors.New("base indisponible")
	c := NewCategoryCache(NewMemoryStore(), func(context.Context) ([]models.Category, error) {
		return nil, boom
	}, nil)

	_, err := c.Categories(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRevokeToken(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, RevokeToken(ctx, s, "jti-1", time.Now().Add(time.Hour)))
	require.NoError(t, RevokeToken(ctx, s, "jti-2", time.Now().Add(-time.Hour)))

	revoked, err := IsTokenRevoked(ctx, s, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = IsTokenRevoked(ctx, s, "jti-2")
	assert.False(t, revoked)
	revoked, _ = IsTokenRevoked(ctx, s, "")
	assert.False(t, revoked)
}
