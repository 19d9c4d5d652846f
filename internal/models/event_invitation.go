package models

// EventInvitation marks a family member as personally invited to an event.
// Distinct from FamilyInvite: it never grants membership, it only nudges.
type EventInvitation struct {
	BaseModel

	EventID       string `gorm:"type:uuid;not null;uniqueIndex:idx_event_invitee" json:"event_id"`
	InvitedUserID string `gorm:"type:uuid;not null;uniqueIndex:idx_event_invitee" json:"invited_user_id"`
	InvitedBy     string `gorm:"type:uuid;not null" json:"invited_by"`
	Status        string `gorm:"not null;default:pending" json:"status"`

	Event       *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
	InvitedUser *User  `gorm:"foreignKey:InvitedUserID" json:"invited_user,omitempty"`
}
