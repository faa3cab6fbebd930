package service

import (
	"context"
	"sync"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/models"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/repository"
)

type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}

type referralRepoStub struct {
	assignCodeIfEmptyFn func(context.Context, uint, string) (bool, error)
	replaceCodeFn       func(context.Context, uint, string) error
	findByCodeFn        func(context.Context, string) (*models.User, error)
	recordReferralFn    func(context.Context, uint, uint, repository.RotationPolicy) (*repository.ReferralOutcome, error)
	getReferrerFn       func(context.Context, uint) (*models.User, error)
	listReferredByFn    func(context.Context, uint) ([]models.User, error)
}

func (s *referralRepoStub) AssignCodeIfEmpty(ctx context.Context, userID uint, code string) (bool, error) {
	return s.assignCodeIfEmptyFn(ctx, userID, code)
}
func (s *referralRepoStub) ReplaceCode(ctx context.Context, userID uint, code string) error {
	return s.replaceCodeFn(ctx, userID, code)
}
func (s *referralRepoStub) FindByCode(ctx context.Context, code string) (*models.User, error) {
	return s.findByCodeFn(ctx, code)
}
func (s *referralRepoStub) RecordReferral(ctx context.Context, referrerID, referredID uint, policy repository.RotationPolicy) (*repository.ReferralOutcome, error) {
	return s.recordReferralFn(ctx, referrerID, referredID, policy)
}
func (s *referralRepoStub) GetReferrer(ctx context.Context, userID uint) (*models.User, error) {
	return s.getReferrerFn(ctx, userID)
}
func (s *referralRepoStub) ListReferredBy(ctx context.Context, userID uint) ([]models.User, error) {
	return s.listReferredByFn(ctx, userID)
}

type matchRequestRepoStub struct {
	createPendingFn     func(context.Context, *models.MatchRequest) error
	getByIDFn           func(context.Context, uint) (*models.MatchRequest, error)
	hasPendingBetweenFn func(context.Context, uint, uint) (bool, error)
	listIncomingFn      func(context.Context, uint) ([]models.MatchRequest, error)
	listSentFn          func(context.Context, uint) ([]models.MatchRequest, error)
	commitMatchFn       func(context.Context, uint, uint, uint, []models.ResponseInput) (*models.Match, error)
	declineFn           func(context.Context, uint) error
	listResponsesFn     func(context.Context, uint) ([]models.MatchResponse, error)
}

func (s *matchRequestRepoStub) CreatePending(ctx context.Context, req *models.MatchRequest) error {
	return s.createPendingFn(ctx, req)
}
func (s *matchRequestRepoStub) GetByID(ctx context.Context, id uint) (*models.MatchRequest, error) {
	return s.getByIDFn(ctx, id)
}
func (s *matchRequestRepoStub) HasPendingBetween(ctx context.Context, a, b uint) (bool, error) {
	return s.hasPendingBetweenFn(ctx, a, b)
}
func (s *matchRequestRepoStub) ListIncoming(ctx context.Context, recipientID uint) ([]models.MatchRequest, error) {
	return s.listIncomingFn(ctx, recipientID)
}
func (s *matchRequestRepoStub) ListSent(ctx context.Context, senderID uint) ([]models.MatchRequest, error) {
	return s.listSentFn(ctx, senderID)
}
func (s *matchRequestRepoStub) CommitMatch(ctx context.Context, requestID, senderID, recipientID uint, responses []models.ResponseInput) (*models.Match, error) {
	return s.commitMatchFn(ctx, requestID, senderID, recipientID, responses)
}
func (s *matchRequestRepoStub) Decline(ctx context.Context, requestID uint) error {
	return s.declineFn(ctx, requestID)
}
func (s *matchRequestRepoStub) ListResponses(ctx context.Context, requestID uint) ([]models.MatchResponse, error) {
	return s.listResponsesFn(ctx, requestID)
}

type matchRepoStub struct {
	existsBetweenFn func(context.Context, uint, uint) (bool, error)
	listForUserFn   func(context.Context, uint) ([]models.Match, error)
}

func (s *matchRepoStub) ExistsBetween(ctx context.Context, a, b uint) (bool, error) {
	return s.existsBetweenFn(ctx, a, b)
}
func (s *matchRepoStub) ListForUser(ctx context.Context, userID uint) ([]models.Match, error) {
	return s.listForUserFn(ctx, userID)
}

type questionRepoStub struct {
	createFn            func(context.Context, *models.Question) error
	getByIDFn           func(context.Context, uint) (*models.Question, error)
	updateFn            func(context.Context, *models.Question) error
	retireFn            func(context.Context, uint) error
	listActiveByOwnerFn func(context.Context, uint) ([]models.Question, error)
}

func (s *questionRepoStub) Create(ctx context.Context, q *models.Question) error {
	return s.createFn(ctx, q)
}
func (s *questionRepoStub) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	return s.getByIDFn(ctx, id)
}
func (s *questionRepoStub) Update(ctx context.Context, q *models.Question) error {
	return s.updateFn(ctx, q)
}
func (s *questionRepoStub) Retire(ctx context.Context, id uint) error {
	return s.retireFn(ctx, id)
}
func (s *questionRepoStub) ListActiveByOwner(ctx context.Context, ownerID uint) ([]models.Question, error) {
	return s.listActiveByOwnerFn(ctx, ownerID)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Name: "member"}, nil
		},
		getByUsernameFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:        func(context.Context, *models.User) error { return nil },
	}
}

func noopReferralRepo() *referralRepoStub {
	return &referralRepoStub{
		assignCodeIfEmptyFn: func(context.Context, uint, string) (bool, error) { return true, nil },
		replaceCodeFn:       func(context.Context, uint, string) error { return nil },
		findByCodeFn: func(_ context.Context, code string) (*models.User, error) {
			return nil, models.NewNotFoundError("ReferralCode", code)
		},
		recordReferralFn: func(_ context.Context, referrerID, _ uint, _ repository.RotationPolicy) (*repository.ReferralOutcome, error) {
			return &repository.ReferralOutcome{Referrer: models.User{ID: referrerID, ReferralCount: 1}}, nil
		},
		getReferrerFn:    func(context.Context, uint) (*models.User, error) { return nil, nil },
		listReferredByFn: func(context.Context, uint) ([]models.User, error) { return nil, nil },
	}
}

func noopMatchRequestRepo() *matchRequestRepoStub {
	return &matchRequestRepoStub{
		createPendingFn: func(_ context.Context, req *models.MatchRequest) error {
			req.ID = 1
			req.Status = models.MatchRequestPending
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.MatchRequest, error) {
			return &models.MatchRequest{ID: id, SenderID: 1, RecipientID: 2, Status: models.MatchRequestPending}, nil
		},
		hasPendingBetweenFn: func(context.Context, uint, uint) (bool, error) { return false, nil },
		listIncomingFn:      func(context.Context, uint) ([]models.MatchRequest, error) { return nil, nil },
		listSentFn:          func(context.Context, uint) ([]models.MatchRequest, error) { return nil, nil },
		commitMatchFn: func(_ context.Context, requestID, senderID, recipientID uint, _ []models.ResponseInput) (*models.Match, error) {
			m := models.NewMatch(requestID, senderID, recipientID)
			m.ID = 1
			return m, nil
		},
		declineFn:       func(context.Context, uint) error { return nil },
		listResponsesFn: func(context.Context, uint) ([]models.MatchResponse, error) { return nil, nil },
	}
}

func noopMatchRepo() *matchRepoStub {
	return &matchRepoStub{
		existsBetweenFn: func(context.Context, uint, uint) (bool, error) { return false, nil },
		listForUserFn:   func(context.Context, uint) ([]models.Match, error) { return nil, nil },
	}
}

func noopQuestionRepo() *questionRepoStub {
	return &questionRepoStub{
		createFn: func(_ context.Context, q *models.Question) error {
			q.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Question, error) {
			return &models.Question{ID: id, OwnerID: 2, IsActive: true}, nil
		},
		updateFn:            func(context.Context, *models.Question) error { return nil },
		retireFn:            func(context.Context, uint) error { return nil },
		listActiveByOwnerFn: func(context.Context, uint) ([]models.Question, error) { return nil, nil },
	}
}

type sentEvent struct {
	RecipientID uint
	Type        string
	Message     string
	Payload     map[string]interface{}
}

// recordingDispatcher captures notifications synchronously.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []sentEvent
}

func (d *recordingDispatcher) Notify(_ context.Context, recipientID uint, eventType, message string, payload map[string]interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, sentEvent{RecipientID: recipientID, Type: eventType, Message: message, Payload: payload})
}

func (d *recordingDispatcher) Events() []sentEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]sentEvent(nil), d.events...)
}

type staticFlags map[string]bool

func (f staticFlags) Enabled(name string, _ uint) bool {
	return f[name]
}

// sequenceGenerator yields codes in order, then derives unique ones.
func sequenceGenerator(codes ...string) repository.CodeGenerator {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		i++
		if i <= len(codes) {
			return codes[i-1], nil
		}
		return GenerateReferralCode()
	}
}

func strPtr(s string) *string { return &s }
