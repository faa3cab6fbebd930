package cache

import (
	"context"
	"fmt"
	"time"
)

const chatGateKeyFormat = "chatgate:%d:%d"

// DefaultChatGateTTL applies when no TTL is configured.
const DefaultChatGateTTL = 5 * time.Minute

// ChatGateKey is the cache key for a user pair. Order of arguments does not matter.
func ChatGateKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf(chatGateKeyFormat, a, b)
}

// Invalidate removes key from the shared client, if one is configured.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateChatGate drops the cached answer for a user pair.
func InvalidateChatGate(ctx context.Context, a, b uint) {
	Invalidate(ctx, ChatGateKey(a, b))
}
