package models

// EventUpdate is a short note posted on an event's timeline.
type EventUpdate struct {
	BaseModel

	EventID  string `gorm:"type:uuid;not null;index" json:"event_id"`
	AuthorID string `gorm:"type:uuid;not null" json:"author_id"`
	Content  string `gorm:"not null" json:"content"`

	Event  *Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Author *User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}
