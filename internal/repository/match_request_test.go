package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/models"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPending(t *testing.T, repo MatchRequestRepository, sender, recipient uint) *models.MatchRequest {
	t.Helper()
	req := &models.MatchRequest{SenderID: sender, RecipientID: recipient}
	require.NoError(t, repo.CreatePending(context.Background(), req))
	return req
}

func requestStatus(t *testing.T, db *gorm.DB, id uint) models.MatchRequestStatus {
	t.Helper()
	var req models.MatchRequest
	require.NoError(t, db.First(&req, id).Error)
	return req.Status
}

func TestMatchRequestRepository_CreatePending(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewMatchRequestRepository(db)
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")

	req := newPending(t, repo, a.ID, b.ID)
	assert.Equal(t, models.MatchRequestPending, req.Status)

	err := repo.CreatePending(ctx, &models.MatchRequest{SenderID: a.ID, RecipientID: b.ID})
	assert.True(t, models.IsCode(err, models.CodeConflict))

	pending, err := repo.HasPendingBetween(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, pending)

	incoming, err := repo.ListIncoming(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	require.NotNil(t, incoming[0].Sender)
	assert.Equal(t, a.Username, incoming[0].Sender.Username)

	sent, err := repo.ListSent(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, b.ID, sent[0].Recipient.ID)

	// Once resolved, a new request for the same pair is allowed.
	require.NoError(t, repo.Decline(ctx, req.ID))
	pending, err = repo.HasPendingBetween(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, pending)
	newPending(t, repo, a.ID, b.ID)
}

func TestMatchRequestRepository_CommitMatch(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewMatchRequestRepository(db)
	matches := NewMatchRepository(db)
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")
	q1 := testutil.CreateQuestion(t, db, b.ID, "Favourite book?")
	q2 := testutil.CreateQuestion(t, db, b.ID, "Coffee or tea?")

	req := newPending(t, repo, a.ID, b.ID)

	m, err := repo.CommitMatch(ctx, req.ID, a.ID, b.ID, []models.ResponseInput{
		{QuestionID: q1.ID, Answer: "Dune"},
		{QuestionID: q2.ID, Answer: "Tea"},
	})
	require.NoError(t, err)
	assert.Equal(t, req.ID, m.MatchRequestID)
	assert.True(t, m.Includes(a.ID) && m.Includes(b.ID))
	assert.Less(t, m.User1ID, m.User2ID)

	assert.Equal(t, models.MatchRequestAccepted, requestStatus(t, db, req.ID))

	responses, err := repo.ListResponses(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, responses, 2)
	assert.Equal(t, "Dune", responses[0].Answer)

	ok, err := matches.ExistsBetween(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.CommitMatch(ctx, req.ID, a.ID, b.ID, nil)
	assert.True(t, models.IsCode(err, models.CodeAlreadyResolved))

	_, err = repo.CommitMatch(ctx, 9999, a.ID, b.ID, nil)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	assert.True(t, models.IsCode(repo.Decline(ctx, req.ID), models.CodeAlreadyResolved))
	assert.True(t, models.IsCode(repo.Decline(ctx, 9999), models.CodeNotFound))
}

func TestMatchRequestRepository_HasPendingBetween(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewMatchRequestRepository(db)
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")
	c := testutil.CreateUser(t, db, "carol")

	// Runs against the partial pending indexes with no rows at all.
	pending, err := repo.HasPendingBetween(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, pending)

	req := newPending(t, repo, a.ID, b.ID)
	for _, pair := range [][2]uint{{a.ID, b.ID}, {b.ID, a.ID}} {
		pending, err = repo.HasPendingBetween(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, pending)
	}

	pending, err = repo.HasPendingBetween(ctx, a.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, pending)

	pending, err = repo.HasPendingBetween(ctx, a.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, pending)

	require.NoError(t, repo.Decline(ctx, req.ID))
	pending, err = repo.HasPendingBetween(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, pending)

	// A declined row next to a live one in the other direction.
	newPending(t, repo, b.ID, a.ID)
	pending, err = repo.HasPendingBetween(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, pending)
}

func TestMatchRequestRepository_CommitMatch_RollsBackOnDuplicatePair(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewMatchRequestRepository(db)
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bob")
	q := testutil.CreateQuestion(t, db, a.ID, "Why?")

	first := newPending(t, repo, a.ID, b.ID)
	_, err := repo.CommitMatch(ctx, first.ID, a.ID, b.ID, nil)
	require.NoError(t, err)

	// Reverse-direction request slipped in: the pair is already matched.
	second := newPending(t, repo, b.ID, a.ID)
	_, err = repo.CommitMatch(ctx, second.ID, b.ID, a.ID, []models.ResponseInput{{QuestionID: q.ID, Answer: "Because"}})
	assert.True(t, models.IsCode(err, models.CodeConflict))

	// The stranded request is closed rather than left PENDING.
	assert.Equal(t, models.MatchRequestDeclined, requestStatus(t, db, second.ID))
	responses, err := repo.ListResponses(ctx, second.ID)
	require.NoError(t, err)
	assert.Empty(t, responses)

	incoming, err := repo.ListIncoming(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, incoming)

	var count int64
	require.NoError(t, db.Model(&models.Match{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = repo.CommitMatch(ctx, second.ID, b.ID, a.ID, nil)
	assert.True(t, models.IsCode(err, models.CodeAlreadyResolved))
}

func TestMatchRequestRepository_ConcurrentResolutionHasOneWinner(t *testing.T) {
	for name, open := range testutil.ConcurrencyBackends() {
		t.Run(name, func(t *testing.T) {
			db := open(t)
			repo := NewMatchRequestRepository(db)
			ctx := context.Background()

			a := testutil.CreateUser(t, db, "alice")
			b := testutil.CreateUser(t, db, "bob")

			t.Run("accept vs accept", func(t *testing.T) {
				req := newPending(t, repo, a.ID, b.ID)

				var wg sync.WaitGroup
				results := make(chan error, 2)
				for i := 0; i < 2; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						_, err := repo.CommitMatch(ctx, req.ID, a.ID, b.ID, nil)
						results <- err
					}()
				}
				wg.Wait()
				close(results)

				var wins, resolved int
				for err := range results {
					switch {
					case err == nil:
						wins++
					case models.IsCode(err, models.CodeAlreadyResolved):
						resolved++
					default:
						t.Fatalf("unexpected error: %v", err)
					}
				}
				assert.Equal(t, 1, wins)
				assert.Equal(t, 1, resolved)

				var count int64
				require.NoError(t, db.Model(&models.Match{}).Count(&count).Error)
				assert.Equal(t, int64(1), count)
			})

			t.Run("accept vs decline", func(t *testing.T) {
				c := testutil.CreateUser(t, db, "carol")
				req := newPending(t, repo, c.ID, b.ID)

				var wg sync.WaitGroup
				var acceptErr, declineErr error
				wg.Add(2)
				go func() {
					defer wg.Done()
					_, acceptErr = repo.CommitMatch(ctx, req.ID, c.ID, b.ID, nil)
				}()
				go func() {
					defer wg.Done()
					declineErr = repo.Decline(ctx, req.ID)
				}()
				wg.Wait()

				assert.True(t, (acceptErr == nil) != (declineErr == nil), "exactly one transition must win")
				status := requestStatus(t, db, req.ID)
				if acceptErr == nil {
					assert.Equal(t, models.MatchRequestAccepted, status)
					assert.True(t, models.IsCode(declineErr, models.CodeAlreadyResolved))
				} else {
					assert.Equal(t, models.MatchRequestDeclined, status)
					assert.True(t, models.IsCode(acceptErr, models.CodeAlreadyResolved))
				}
			})
		})
	}
}
