package service

import (
	"context"
	"errors"
	"time"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/cache"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/featureflags"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/middleware"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/observability"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/repository"

	"github.com/redis/go-redis/v9"
)

// ChatGate answers whether two users may exchange messages.
type ChatGate struct {
	matchRepo repository.MatchRepository
	rdb       *redis.Client
	ttl       time.Duration
	flags     featureflags.Checker
	tracing   *observability.TraceLayer
}

// NewChatGate returns a ChatGate. rdb may be nil, in which case every check hits the database.
func NewChatGate(matchRepo repository.MatchRepository, rdb *redis.Client, ttl time.Duration, flags featureflags.Checker) *ChatGate {
	if ttl <= 0 {
		ttl = cache.DefaultChatGateTTL
	}
	return &ChatGate{
		matchRepo: matchRepo,
		rdb:       rdb,
		ttl:       ttl,
		flags:     flags,
		tracing:   observability.NewTraceLayer(observability.Tracer, "redis"),
	}
}

// CanChat reports whether a match exists between a and b. Only positive
// answers are cached; a match is never removed, so they cannot go stale.
func (g *ChatGate) CanChat(ctx context.Context, a, b uint) (bool, error) {
	if a == b || a == 0 || b == 0 {
		return false, nil
	}

	key := cache.ChatGateKey(a, b)
	useCache := g.cacheEnabled(a, b)
	if useCache {
		readCtx, span := g.tracing.TraceRedisOperation(ctx, "GET")
		val, err := g.rdb.Get(readCtx, key).Result()
		span.End()
		switch {
		case err == nil && val == "1":
			observability.RecordChatGate("cache", true)
			return true, nil
		case err != nil && !errors.Is(err, redis.Nil):
			middleware.Logger.WarnContext(ctx, "chat gate cache read failed", "key", key, "error", err)
		}
	}

	allowed, err := g.matchRepo.ExistsBetween(ctx, a, b)
	if err != nil {
		return false, err
	}
	observability.RecordChatGate("db", allowed)

	if allowed && useCache {
		writeCtx, span := g.tracing.TraceRedisOperation(ctx, "SET")
		err := g.rdb.Set(writeCtx, key, "1", g.ttl).Err()
		span.End()
		if err != nil {
			middleware.Logger.WarnContext(ctx, "chat gate cache write failed", "key", key, "error", err)
		}
	}
	return allowed, nil
}

func (g *ChatGate) cacheEnabled(a, b uint) bool {
	if g.rdb == nil {
		return false
	}
	if g.flags == nil {
		return true
	}
	lo := a
	if b < a {
		lo = b
	}
	return g.flags.Enabled(featureflags.ChatGateCache, lo)
}
