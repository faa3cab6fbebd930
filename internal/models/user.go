// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// DefaultDisplayName is shown in place of an owner's profile name when it is empty.
const DefaultDisplayName = "A member"

// User is the identity anchor. Rows are provisioned by the identity layer;
// this service only writes the referral columns. Email and the referral
// columns never leave the process through JSON; owners read their code
// through the referral endpoints.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Name          string    `gorm:"size:120" json:"name"`
	Email         string    `gorm:"size:255" json:"-"`
	ReferralCode  *string   `gorm:"uniqueIndex:idx_users_referral_code;size:16" json:"-"`
	ReferralCount int       `gorm:"not null;default:0" json:"-"`
	ReferredByID  *uint     `gorm:"index:idx_users_referred_by" json:"referred_by_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	ReferredBy *User `gorm:"foreignKey:ReferredByID" json:"-"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// DisplayName returns the profile name, falling back to a generic label.
func (u *User) DisplayName() string {
	if u == nil || u.Name == "" {
		return DefaultDisplayName
	}
	return u.Name
}

// UserSummary is the public projection of a user used in listings and events.
type UserSummary struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary returns the public projection of u.
func (u User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.DisplayName(),
		CreatedAt: u.CreatedAt,
	}
}
