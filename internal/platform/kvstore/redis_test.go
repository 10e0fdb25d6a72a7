package kvstore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "pc:"), mr
}

func TestRedisStore_GetMissing(t *testing.T) {
	s, _ := newRedisStore(t)
	_, err := s.Get(context.Background(), "absent")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRedisStore_PutUsesPrefix(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)

	require.NoError(t, s.Put(ctx, "registeredUsers", []byte(`[]`)))

	raw, err := mr.Get("pc:registeredUsers")
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)

	data, err := s.Get(ctx, "registeredUsers")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	assert.False(t, mr.Exists("registeredUsers"))
}

func TestRedisStore_UpdateJSON(t *testing.T) {
	ctx := context.Background()
	s, _ := newRedisStore(t)

	for i := 0; i < 3; i++ {
		err := UpdateJSON(ctx, s, "counter", func(c *counter) error {
			c.N++
			return nil
		})
		require.NoError(t, err)
	}

	var c counter
	require.NoError(t, GetJSON(ctx, s, "counter", &c))
	assert.Equal(t, 3, c.N)
}

func TestRedisStore_UpdateFnError(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)

	boom := errors.New("boom")
	err := s.Update(ctx, "k", func(current []byte, exists bool) ([]byte, error) {
		assert.False(t, exists)
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("pc:k"))
}

func TestRedisStore_Ping(t *testing.T) {
	s, mr := newRedisStore(t)
	require.NoError(t, s.Ping(context.Background()))

	mr.Close()
	assert.Error(t, s.Ping(context.Background()))
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient("not-a-url")
	assert.Error(t, err)
}
