package middleware

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires redis on localhost:6379; skipped otherwise.
func TestRedisStorage(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping integration test")
	}

	prefix := "football-test-" + strconv.FormatInt(time.Now().UnixNano(), 10) + ":"
	store := NewRedisStorage(client, prefix)
	defer store.Close()

	val, err := store.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, store.Set("a", []byte("1"), time.Minute))
	require.NoError(t, store.Set("b", []byte("2"), time.Minute))

	val, err = store.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), val)

	require.NoError(t, store.Delete("a"))
	val, err = store.Get("a")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, store.Reset())
	val, err = store.Get("b")
	require.NoError(t, err)
	assert.Nil(t, val)
}
