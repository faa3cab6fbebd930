package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/cache"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/featureflags"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func countingMatchRepo(matched map[[2]uint]bool, calls *int) *matchRepoStub {
	repo := noopMatchRepo()
	repo.existsBetweenFn = func(_ context.Context, a, b uint) (bool, error) {
		*calls++
		lo, hi := models.OrderedPair(a, b)
		return matched[[2]uint{lo, hi}], nil
	}
	return repo
}

func TestChatGateSelfAndZero(t *testing.T) {
	calls := 0
	gate := NewChatGate(countingMatchRepo(nil, &calls), nil, 0, nil)
	ctx := context.Background()

	ok, err := gate.CanChat(ctx, 3, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = gate.CanChat(ctx, 0, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, calls)
}

func TestChatGateCachesPositiveOnly(t *testing.T) {
	mr, rdb := newGateRedis(t)
	calls := 0
	repo := countingMatchRepo(map[[2]uint]bool{{1, 2}: true}, &calls)
	gate := NewChatGate(repo, rdb, time.Minute, nil)
	ctx := context.Background()

	ok, err := gate.CanChat(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists(cache.ChatGateKey(1, 2)))
	assert.Equal(t, time.Minute, mr.TTL(cache.ChatGateKey(1, 2)))

	// Served from cache in either order.
	ok, err = gate.CanChat(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, calls)

	ok, err = gate.CanChat(ctx, 1, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists(cache.ChatGateKey(1, 3)))

	ok, err = gate.CanChat(ctx, 3, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, calls)
}

func TestChatGateFallsBackWhenCacheIsDown(t *testing.T) {
	mr, rdb := newGateRedis(t)
	mr.Close()

	calls := 0
	gate := NewChatGate(countingMatchRepo(map[[2]uint]bool{{1, 2}: true}, &calls), rdb, time.Minute, nil)

	ok, err := gate.CanChat(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, calls)
}

func TestChatGateCacheFlagOff(t *testing.T) {
	mr, rdb := newGateRedis(t)
	calls := 0
	flags := featureflags.NewManager("chat_gate_cache=off")
	gate := NewChatGate(countingMatchRepo(map[[2]uint]bool{{1, 2}: true}, &calls), rdb, time.Minute, flags)

	for i := 0; i < 2; i++ {
		ok, err := gate.CanChat(context.Background(), 1, 2)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 2, calls)
	assert.False(t, mr.Exists(cache.ChatGateKey(1, 2)))
}

func TestChatGateStorageError(t *testing.T) {
	repo := noopMatchRepo()
	repo.existsBetweenFn = func(context.Context, uint, uint) (bool, error) {
		return false, models.NewUnavailableError(errors.New("conn refused"))
	}
	gate := NewChatGate(repo, nil, 0, nil)

	_, err := gate.CanChat(context.Background(), 1, 2)
	assert.True(t, models.IsCode(err, models.CodeUnavailable))
}
