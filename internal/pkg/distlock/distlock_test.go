package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestAcquireRelease(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	lock := New(client, "test:lock", time.Minute)
	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("test:lock"))

	require.NoError(t, lock.Release(ctx))
	assert.False(t, mr.Exists("test:lock"))
}

func TestAcquireContended(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	first := New(client, "test:lock", time.Minute)
	second := New(client, "test:lock", time.Minute)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "a held lock must not be acquired twice")

	require.NoError(t, first.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReleaseOnlyOwnToken(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	lock := New(client, "test:lock", time.Minute)
	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// Simulate TTL expiry and takeover by another replica.
	require.NoError(t, mr.Set("test:lock", "someone-else"))
	require.NoError(t, lock.Release(ctx))

	got, err := mr.Get("test:lock")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got, "releasing must not clobber a newer holder")
}

func TestReleaseWithoutAcquireIsNoop(t *testing.T) {
	client, _ := newTestClient(t)
	lock := New(client, "test:lock", time.Minute)
	assert.NoError(t, lock.Release(context.Background()))
}
