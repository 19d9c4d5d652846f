package models

import "gorm.io/datatypes"

// Post is a family feed entry. Comments and likes live in JSON columns,
// mirroring how small families use the feed: a handful of reactions per
// post, always loaded together with it.
type Post struct {
	BaseModel

	FamilyID string `gorm:"type:uuid;not null;index" json:"family_id"`
	AuthorID string `gorm:"type:uuid;not null" json:"author_id"`
	Content  string `gorm:"not null" json:"content"`

	// Comments holds an array of Comment objects.
	Comments datatypes.JSON `json:"comments"`
	// Likes holds an array of user ids.
	Likes datatypes.JSON `json:"likes"`

	Family *Family `gorm:"foreignKey:FamilyID" json:"family,omitempty"`
	Author *User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// Comment is the element type stored in Post.Comments.
type Comment struct {
	ID        string `json:"id"`
	AuthorID  string `json:"author_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}
