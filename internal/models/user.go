package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User describes an account holder. The ID doubles as the authentication
// identity, and ActiveFamilyID is the single family context the user's
// session currently operates within.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	DisplayName string `gorm:"not null" json:"display_name"`
	AvatarURL   string `json:"avatar_url"`

	ActiveFamilyID *string `gorm:"type:uuid;index" json:"active_family_id"`
	ActiveFamily   *Family `gorm:"foreignKey:ActiveFamilyID" json:"active_family,omitempty"`

	EmailVerifiedAt *time.Time `json:"email_verified_at"`

	Memberships []FamilyMember `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
	Sessions    []Session      `gorm:"foreignKey:UserID" json:"-"`

	LastLoginAt *time.Time `json:"last_login_at"`
	LastLoginIP string     `json:"-"`

	FailedAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil    *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsEmailVerified reports whether the account's email has been confirmed.
func (u *User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}
