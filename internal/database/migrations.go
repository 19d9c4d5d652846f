package database

import (
	"gorm.io/gorm"

	"github.com/hearthsocial/hearth/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Family{},
		&models.FamilyMember{},
		&models.FamilyInvite{},
		&models.Post{},
		&models.Event{},
		&models.EventRSVP{},
		&models.EventUpdate{},
		&models.EventInvitation{},
		&models.Session{},
		&models.AuditLog{},
		&models.EmailVerification{},
	)
}
