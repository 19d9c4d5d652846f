package models

// RSVP statuses.
const (
	RSVPGoing        = "going"
	RSVPMaybe        = "maybe"
	RSVPNotResponded = "not_responded"
)

// EventRSVP records a member's answer for an event. The (event_id, user_id)
// pair is unique and writes are upserts, so repeated answers overwrite.
type EventRSVP struct {
	BaseModel

	EventID string `gorm:"type:uuid;not null;uniqueIndex:idx_event_user" json:"event_id"`
	UserID  string `gorm:"type:uuid;not null;uniqueIndex:idx_event_user" json:"user_id"`
	Status  string `gorm:"not null;default:not_responded" json:"status"`

	Event *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
	User  *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
