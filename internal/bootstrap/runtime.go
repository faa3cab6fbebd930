// Package bootstrap wires the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/cache"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/config"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/database"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/middleware"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/models"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/repository"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// devUsernames are provisioned when DEV_BOOTSTRAP_USERS is on. Identity is
// owned by another service, so local development needs a few known accounts.
var devUsernames = []string{"alice_dev", "bob_dev", "carol_dev"}

const devTokenTTL = 24 * time.Hour

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData runs the seeder once when the users table is empty.
	SeedDemoData bool
}

// InitRuntime connects to DB and Redis and optionally provisions development data.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Nil when Redis is unreachable; callers degrade.
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	middleware.InitMiddleware(cfg)
	ctx := context.Background()

	if err := ensureDevUsers(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development users: %w", err)
	}

	if opts.SeedDemoData {
		if err := seedIfEmpty(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

func ensureDevUsers(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapUsers {
		return nil
	}

	users := repository.NewUserRepository(db)
	for _, username := range devUsernames {
		u, err := users.GetByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", username, err)
		}
		if u == nil {
			u = &models.User{
				Username: username,
				Name:     displayNameFor(username),
				Email:    username + "@referrals.local",
			}
			if err := users.Create(ctx, u); err != nil {
				return fmt.Errorf("create %s: %w", username, err)
			}
		}

		token, err := middleware.IssueUserToken(u.ID, devTokenTTL)
		if err != nil {
			return fmt.Errorf("issue token for %s: %w", username, err)
		}
		middleware.Logger.InfoContext(ctx, "development user ready",
			slog.String("username", username),
			slog.Any("user_id", u.ID),
			slog.String("token", token),
		)
	}
	return nil
}

func displayNameFor(username string) string {
	name := strings.TrimSuffix(username, "_dev")
	if name == "" {
		return models.DefaultDisplayName
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func seedIfEmpty(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	// Dev users alone do not count as existing data.
	if count > int64(len(devUsernames)) {
		middleware.Logger.InfoContext(ctx, "skipping demo seed, users already present", slog.Int64("users", count))
		return nil
	}

	_, err := seed.NewSeeder(db, seed.DefaultOptions()).Seed(ctx)
	return err
}
