package models

import "time"

// Invite statuses. Accepted and revoked are terminal.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusRevoked  = "revoked"
)

// FamilyInvite is a short-lived, single-use code granting family membership
// upon redemption. The code is only unique among pending invites of the same
// family; it may recur across families or after the invite leaves pending.
type FamilyInvite struct {
	BaseModel

	FamilyID string  `gorm:"type:uuid;not null;index:idx_invite_family_code" json:"family_id"`
	Code     string  `gorm:"not null;index:idx_invite_family_code" json:"code"`
	Email    *string `json:"email,omitempty"`

	Status    string    `gorm:"not null;default:pending;index" json:"status"`
	InvitedBy string    `gorm:"type:uuid;not null" json:"invited_by"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`

	Family *Family `gorm:"foreignKey:FamilyID" json:"family,omitempty"`
}

// Redeemable reports whether the invite can still be exchanged for membership.
func (i *FamilyInvite) Redeemable(now time.Time) bool {
	return i.Status == InviteStatusPending && now.Before(i.ExpiresAt)
}
