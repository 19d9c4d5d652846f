package models

// Membership roles and statuses.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"

	MemberStatusActive  = "active"
	MemberStatusRemoved = "removed"
)

// FamilyMember links a user to a family. The (family_id, user_id) pair is
// unique; removal is status based so redemption upserts stay idempotent.
type FamilyMember struct {
	BaseModel

	FamilyID string `gorm:"type:uuid;not null;uniqueIndex:idx_family_user" json:"family_id"`
	UserID   string `gorm:"type:uuid;not null;uniqueIndex:idx_family_user" json:"user_id"`

	Role   string `gorm:"not null;default:member" json:"role"`
	Status string `gorm:"not null;default:active" json:"status"`

	Family *Family `gorm:"foreignKey:FamilyID" json:"family,omitempty"`
	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
