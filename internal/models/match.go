package models

import "time"

// MatchRequestStatus represents the lifecycle state of a match request.
type MatchRequestStatus string

const (
	// MatchRequestPending is the only non-terminal state.
	MatchRequestPending  MatchRequestStatus = "PENDING"
	MatchRequestAccepted MatchRequestStatus = "ACCEPTED"
	MatchRequestDeclined MatchRequestStatus = "DECLINED"
)

// Terminal reports whether no further transition is allowed from s.
func (s MatchRequestStatus) Terminal() bool {
	return s == MatchRequestAccepted || s == MatchRequestDeclined
}

// MatchRequest is a one-directional proposal from sender to recipient.
// At most one PENDING row per (sender, recipient) is enforced by a partial
// unique index created alongside the schema.
type MatchRequest struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	SenderID    uint               `gorm:"not null;index:idx_match_requests_sender" json:"sender_id"`
	RecipientID uint               `gorm:"not null;index:idx_match_requests_recipient" json:"recipient_id"`
	Status      MatchRequestStatus `gorm:"type:varchar(16);not null;default:'PENDING'" json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`

	Sender    *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Recipient *User `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
}

// TableName specifies the table name for GORM
func (MatchRequest) TableName() string {
	return "match_requests"
}

// MatchResponse is a recipient's answer to one question, written only by the
// accept transaction.
type MatchResponse struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	MatchRequestID uint      `gorm:"not null;uniqueIndex:idx_match_responses_request_question" json:"match_request_id"`
	QuestionID     uint      `gorm:"not null;uniqueIndex:idx_match_responses_request_question" json:"question_id"`
	Answer         string    `gorm:"type:text;not null" json:"answer"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (MatchResponse) TableName() string {
	return "match_responses"
}

// ResponseInput is a (question, answer) pair supplied on accept.
type ResponseInput struct {
	QuestionID uint   `json:"question_id"`
	Answer     string `json:"answer"`
}

// Match is the durable artifact of a mutual acceptance. The pair is stored
// with User1ID < User2ID so the unique index covers the unordered pair.
type Match struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	MatchRequestID uint      `gorm:"not null;uniqueIndex" json:"match_request_id"`
	User1ID        uint      `gorm:"not null;uniqueIndex:idx_matches_pair" json:"user1_id"`
	User2ID        uint      `gorm:"not null;uniqueIndex:idx_matches_pair;index:idx_matches_user2" json:"user2_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Match) TableName() string {
	return "matches"
}

// OrderedPair returns a and b with the smaller id first.
func OrderedPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// NewMatch builds a Match for the unordered pair {a, b}.
func NewMatch(requestID, a, b uint) *Match {
	u1, u2 := OrderedPair(a, b)
	return &Match{MatchRequestID: requestID, User1ID: u1, User2ID: u2}
}

// Includes reports whether userID is one side of the match.
func (m *Match) Includes(userID uint) bool {
	return m.User1ID == userID || m.User2ID == userID
}

// Other returns the counterpart of userID in the match.
func (m *Match) Other(userID uint) uint {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}
