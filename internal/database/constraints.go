package database

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// PendingPairIndex is the partial unique index that allows one PENDING
// request per (sender, recipient).
const PendingPairIndex = "idx_match_requests_pending_pair"

// MatchPairIndex is the unique index on the canonical (user1, user2) pair.
const MatchPairIndex = "idx_matches_pair"

// constraintStatements are dialect-neutral: both Postgres and SQLite accept
// partial indexes with IF NOT EXISTS.
var constraintStatements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + PendingPairIndex + `
	ON match_requests (sender_id, recipient_id) WHERE status = 'PENDING'`,
	`CREATE INDEX IF NOT EXISTS idx_match_requests_recipient_pending
	ON match_requests (recipient_id, created_at) WHERE status = 'PENDING'`,
}

// EngineIndex names an index the referral and match invariants depend on.
type EngineIndex struct {
	Table string
	Name  string
	Guard string
}

// EngineIndexes lists the indexes that enforce uniqueness the services rely on.
var EngineIndexes = []EngineIndex{
	{Table: "users", Name: "idx_users_referral_code", Guard: "one holder per referral code"},
	{Table: "match_requests", Name: PendingPairIndex, Guard: "one pending request per ordered pair"},
	{Table: "match_requests", Name: "idx_match_requests_recipient_pending", Guard: "incoming request listing"},
	{Table: "match_responses", Name: "idx_match_responses_request_question", Guard: "one answer per question"},
	{Table: "matches", Name: "idx_matches_match_request_id", Guard: "one match per request"},
	{Table: "matches", Name: MatchPairIndex, Guard: "one match per user pair"},
}

// IndexStatus reports whether one engine index exists.
type IndexStatus struct {
	EngineIndex
	Present bool
}

// EnsureConstraints creates the indexes GORM tags cannot express.
func EnsureConstraints(ctx context.Context, db *gorm.DB) error {
	for _, stmt := range constraintStatements {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure constraints: %w", err)
		}
	}
	return nil
}

// InspectConstraints reports the presence of every engine index.
func InspectConstraints(ctx context.Context, db *gorm.DB) []IndexStatus {
	migrator := db.WithContext(ctx).Migrator()
	out := make([]IndexStatus, 0, len(EngineIndexes))
	for _, idx := range EngineIndexes {
		out = append(out, IndexStatus{
			EngineIndex: idx,
			Present:     migrator.HasIndex(idx.Table, idx.Name),
		})
	}
	return out
}

// VerifyConstraints fails when any engine index is missing.
func VerifyConstraints(ctx context.Context, db *gorm.DB) error {
	var missing []string
	for _, st := range InspectConstraints(ctx, db) {
		if !st.Present {
			missing = append(missing, st.Table+"."+st.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing engine indexes: %s", strings.Join(missing, ", "))
	}
	return nil
}
