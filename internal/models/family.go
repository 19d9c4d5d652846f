package models

// Family is the group every post, event, and invite hangs off.
type Family struct {
	BaseModel

	Name string `gorm:"not null" json:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`

	Members []FamilyMember `gorm:"foreignKey:FamilyID" json:"members,omitempty"`
}
