package models

import "time"

// ResponseType is the answer format of a screening question.
type ResponseType string

const (
	ResponseTypeFreeText    ResponseType = "free_text"
	ResponseTypeTimedChoice ResponseType = "timed_choice"
	ResponseTypeOther       ResponseType = "other"
)

const (
	// DefaultTimerSeconds is applied when a question is created without a timer.
	DefaultTimerSeconds = 10
	MinTimerSeconds     = 3
	MaxTimerSeconds     = 120
)

// Valid reports whether t is a known response type.
func (t ResponseType) Valid() bool {
	switch t {
	case ResponseTypeFreeText, ResponseTypeTimedChoice, ResponseTypeOther:
		return true
	}
	return false
}

// Question is a screening prompt owned by a would-be recipient.
// Retired questions keep IsActive=false and are never deleted.
type Question struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	OwnerID      uint         `gorm:"not null;index:idx_questions_owner_active" json:"owner_id"`
	Prompt       string       `gorm:"type:text;not null" json:"prompt"`
	ResponseType ResponseType `gorm:"type:varchar(20);not null;default:'free_text'" json:"response_type"`
	TimerSeconds int          `gorm:"not null;default:10" json:"timer_seconds"`
	IsActive     bool         `gorm:"not null;default:true;index:idx_questions_owner_active" json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Question) TableName() string {
	return "questions"
}
