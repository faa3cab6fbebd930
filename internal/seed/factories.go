// Package seed provides helpers to create demo data for development and
// testing. Everything goes through the services so seeded rows honour the
// same rules as API traffic.
package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Factory builds users with realistic-looking profiles.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	opts  Options
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a Factory bound to db. A zero opts.RandomSeed picks a random seed.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	return &Factory{db: db, faker: gofakeit.New(opts.RandomSeed), opts: opts, nextID: 1000}
}

// BuildUser returns an unsaved user. Overrides run after the fake fields are filled.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	first := f.faker.FirstName()
	user := &models.User{
		Username: fmt.Sprintf("%s%d", strings.ToLower(first), f.faker.Number(1000, 99999)),
		Name:     first + " " + f.faker.LastName(),
		Email:    f.faker.Email(),
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser persists a generated user.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		return user, nil
	}

	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Answer returns a plausible free-text answer.
func (f *Factory) Answer() string {
	return f.faker.Sentence(f.faker.Number(4, 12))
}

// Chance reports true with probability p.
func (f *Factory) Chance(p float64) bool {
	return f.faker.Float64Range(0, 1) < p
}

// Pick returns a random index in [0, n).
func (f *Factory) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.Number(0, n-1)
}
