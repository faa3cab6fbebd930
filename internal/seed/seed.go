package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/cache"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/middleware"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/models"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/notifications"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/repository"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/service"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers int
	// ReferralRatio is the share of users (after the first) that join through
	// another seeded user's code.
	ReferralRatio float64
	// QuestionsPerUser caps how many catalog questions each user asks.
	QuestionsPerUser int
	NumRequests      int
	// AcceptRatio and DeclineRatio split resolved requests; the rest stay pending.
	AcceptRatio  float64
	DeclineRatio float64
	RandomSeed   int64
	DryRun       bool
}

// DefaultOptions is what cmd/seed runs without flags.
func DefaultOptions() Options {
	return Options{
		NumUsers:         40,
		ReferralRatio:    0.6,
		QuestionsPerUser: 2,
		NumRequests:      80,
		AcceptRatio:      0.4,
		DeclineRatio:     0.2,
	}
}

// Summary counts what a seeding run produced.
type Summary struct {
	Users     int
	Referrals int
	Questions int
	Requests  int
	Matches   int
	Declined  int
}

// Seeder populates a database through the engine's services.
type Seeder struct {
	db        *gorm.DB
	factory   *Factory
	opts      Options
	referrals *service.ReferralService
	questions *service.QuestionService
	matches   *service.MatchService
}

// NewSeeder creates a Seeder. Notifications are dropped.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	userRepo := repository.NewUserRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	return &Seeder{
		db:      db,
		factory: NewFactory(db, opts),
		opts:    opts,
		referrals: service.NewReferralService(
			repository.NewReferralRepository(db), userRepo, notifications.NopDispatcher{}, service.ReferralPolicy{}),
		questions: service.NewQuestionService(questionRepo),
		matches: service.NewMatchService(
			repository.NewMatchRequestRepository(db), repository.NewMatchRepository(db),
			questionRepo, userRepo, notifications.NopDispatcher{}, nil),
	}
}

// ClearAll removes every engine row and drops cached chat-gate entries for
// the deleted matches.
func (s *Seeder) ClearAll(ctx context.Context) error {
	middleware.Logger.InfoContext(ctx, "clearing existing data")

	var matches []models.Match
	if err := s.db.WithContext(ctx).Find(&matches).Error; err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	for _, m := range matches {
		cache.InvalidateChatGate(ctx, m.User1ID, m.User2ID)
	}

	if s.db.Dialector.Name() == "postgres" {
		return s.db.WithContext(ctx).Exec(
			`TRUNCATE TABLE match_responses, matches, match_requests, questions, users RESTART IDENTITY CASCADE`).Error
	}
	for _, table := range []string{"match_responses", "matches", "match_requests", "questions", "users"} {
		if err := s.db.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// Seed creates users, a referral forest, screening questions and match requests.
func (s *Seeder) Seed(ctx context.Context) (*Summary, error) {
	if s.opts.DryRun {
		return nil, fmt.Errorf("dry run is only supported by the factory")
	}

	catalog, err := DefaultQuestions()
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		u, err := s.factory.CreateUser(ctx)
		if err != nil {
			return summary, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
		summary.Users++

		// Referrers are always earlier users, so the graph stays a forest.
		if i > 0 && s.factory.Chance(s.opts.ReferralRatio) {
			referrer := users[s.factory.Pick(i)]
			code, err := s.referrals.IssueCode(ctx, referrer.ID)
			if err != nil {
				return summary, fmt.Errorf("issue code for %d: %w", referrer.ID, err)
			}
			if _, err := s.referrals.RedeemCode(ctx, u.ID, code); err != nil {
				return summary, fmt.Errorf("redeem code for %d: %w", u.ID, err)
			}
			summary.Referrals++
		}

		n, err := s.seedQuestions(ctx, u.ID, catalog)
		summary.Questions += n
		if err != nil {
			return summary, err
		}
	}

	if err := s.seedRequests(ctx, users, summary); err != nil {
		return summary, err
	}

	middleware.Logger.InfoContext(ctx, "database seeding completed",
		slog.Int("users", summary.Users),
		slog.Int("referrals", summary.Referrals),
		slog.Int("questions", summary.Questions),
		slog.Int("requests", summary.Requests),
		slog.Int("matches", summary.Matches),
		slog.Int("declined", summary.Declined),
	)
	return summary, nil
}

func (s *Seeder) seedQuestions(ctx context.Context, ownerID uint, catalog []service.QuestionInput) (int, error) {
	if s.opts.QuestionsPerUser <= 0 {
		return 0, nil
	}
	count := 1 + s.factory.Pick(s.opts.QuestionsPerUser)
	start := s.factory.Pick(len(catalog))
	for i := 0; i < count; i++ {
		in := catalog[(start+i)%len(catalog)]
		if _, err := s.questions.Create(ctx, ownerID, in); err != nil {
			return i, fmt.Errorf("create question for %d: %w", ownerID, err)
		}
	}
	return count, nil
}

func (s *Seeder) seedRequests(ctx context.Context, users []*models.User, summary *Summary) error {
	if len(users) < 2 {
		return nil
	}
	for i := 0; i < s.opts.NumRequests; i++ {
		sender := users[s.factory.Pick(len(users))]
		recipient := users[s.factory.Pick(len(users))]
		if sender.ID == recipient.ID {
			continue
		}

		req, err := s.matches.CreateRequest(ctx, sender.ID, recipient.ID)
		if models.IsCode(err, models.CodeConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("create request %d->%d: %w", sender.ID, recipient.ID, err)
		}
		summary.Requests++

		switch {
		case s.factory.Chance(s.opts.AcceptRatio):
			questions, err := s.matches.ListRecipientQuestions(ctx, req.ID, recipient.ID)
			if err != nil {
				return err
			}
			responses := make([]models.ResponseInput, 0, len(questions))
			for _, q := range questions {
				responses = append(responses, models.ResponseInput{QuestionID: q.ID, Answer: s.factory.Answer()})
			}
			if _, err := s.matches.Accept(ctx, req.ID, recipient.ID, responses); err != nil {
				return fmt.Errorf("accept request %d: %w", req.ID, err)
			}
			summary.Matches++
		case s.factory.Chance(s.opts.DeclineRatio):
			if _, err := s.matches.Decline(ctx, req.ID, recipient.ID); err != nil {
				return fmt.Errorf("decline request %d: %w", req.ID, err)
			}
			summary.Declined++
		}
	}
	return nil
}
