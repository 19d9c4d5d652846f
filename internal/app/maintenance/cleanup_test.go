package maintenance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hearthsocial/hearth/internal/auth"
	"github.com/hearthsocial/hearth/internal/database"
	"github.com/hearthsocial/hearth/internal/models"
	"github.com/hearthsocial/hearth/internal/services"
)

func newMaintenanceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1",
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	_, err := NewScheduler(nil, nil, nil, nil, Options{Schedule: "not a schedule"})
	require.Error(t, err)
}

func TestSchedulerRunNowPurgesExpiredRows(t *testing.T) {
	db := newMaintenanceTestDB(t)

	jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)
	sessions, err := auth.NewSessionService(db, jwtService, auth.SessionConfig{})
	require.NoError(t, err)
	users, err := services.NewUserService(db, nil)
	require.NoError(t, err)

	expired := models.Session{
		UserID:       "user-1",
		RefreshToken: "hash-1",
		ExpiresAt:    time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(&expired).Error)

	scheduler, err := NewScheduler(sessions, users, nil, nil, Options{})
	require.NoError(t, err)

	scheduler.RunNow()

	var count int64
	require.NoError(t, db.Model(&models.Session{}).Count(&count).Error)
	require.Zero(t, count)
}
