package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hearthsocial/hearth/internal/database"
	"github.com/hearthsocial/hearth/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1",
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		Email:       email,
		Password:    "hashed-password",
		DisplayName: "Test User",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestFamily(t *testing.T, db *gorm.DB, adminID string) *models.Family {
	t.Helper()

	family := &models.Family{Name: "The Testers", Slug: "the-testers-" + uuid.NewString()[:8]}
	require.NoError(t, db.Create(family).Error)

	member := &models.FamilyMember{
		FamilyID: family.ID,
		UserID:   adminID,
		Role:     models.RoleAdmin,
		Status:   models.MemberStatusActive,
	}
	require.NoError(t, db.Create(member).Error)

	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", adminID).
		Update("active_family_id", family.ID).Error)

	return family
}

func addTestMember(t *testing.T, db *gorm.DB, familyID, userID, role string) {
	t.Helper()

	member := &models.FamilyMember{
		FamilyID: familyID,
		UserID:   userID,
		Role:     role,
		Status:   models.MemberStatusActive,
	}
	require.NoError(t, db.Create(member).Error)
}

func newTestFamilyService(t *testing.T, db *gorm.DB) *FamilyService {
	t.Helper()

	audit, err := NewAuditService(db)
	require.NoError(t, err)
	families, err := NewFamilyService(db, audit)
	require.NoError(t, err)
	return families
}
