package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatGateKey_Symmetric(t *testing.T) {
	assert.Equal(t, "chatgate:3:9", ChatGateKey(3, 9))
	assert.Equal(t, ChatGateKey(3, 9), ChatGateKey(9, 3))
}

func TestInitRedis(t *testing.T) {
	t.Cleanup(func() { client = nil })

	mr := miniredis.RunT(t)

	InitRedis("redis://" + mr.Addr() + "/0")
	require.NotNil(t, GetClient())

	ctx := context.Background()
	require.NoError(t, GetClient().Set(ctx, ChatGateKey(1, 2), "1", 0).Err())
	InvalidateChatGate(ctx, 2, 1)
	assert.False(t, mr.Exists(ChatGateKey(1, 2)))
}

func TestInitRedis_Unreachable(t *testing.T) {
	t.Cleanup(func() { client = nil })

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	InitRedis(addr)
	assert.Nil(t, GetClient())

	// No client configured: invalidation is a no-op.
	InvalidateChatGate(context.Background(), 1, 2)
}

func TestInitRedis_InvalidURL(t *testing.T) {
	t.Cleanup(func() { client = nil })

	InitRedis("redis://localhost:notaport")
	assert.Nil(t, GetClient())
}
