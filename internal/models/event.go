package models

import "time"

// Event is a family calendar entry.
type Event struct {
	BaseModel

	FamilyID    string     `gorm:"type:uuid;not null;index" json:"family_id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    time.Time  `gorm:"not null;index" json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	CreatedBy   string     `gorm:"type:uuid;not null" json:"created_by"`

	Family *Family `gorm:"foreignKey:FamilyID" json:"family,omitempty"`
}
