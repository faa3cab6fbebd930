// Command main runs the database seeder.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/bootstrap"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/config"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	numRequests := flag.Int("requests", defaults.NumRequests, "Number of match requests to attempt")
	referralRatio := flag.Float64("referral-ratio", defaults.ReferralRatio, "Share of users joining through a referral code")
	questions := flag.Int("questions", defaults.QuestionsPerUser, "Maximum screening questions per user")
	randomSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	opts := defaults
	opts.NumUsers = *numUsers
	opts.NumRequests = *numRequests
	opts.ReferralRatio = *referralRatio
	opts.QuestionsPerUser = *questions
	opts.RandomSeed = *randomSeed

	ctx := context.Background()
	s := seed.NewSeeder(db, opts)
	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	summary, err := s.Seed(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d users, %d referrals, %d questions, %d requests (%d matched, %d declined)",
		summary.Users, summary.Referrals, summary.Questions, summary.Requests, summary.Matches, summary.Declined)
}
