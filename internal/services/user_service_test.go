package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hearthsocial/hearth/internal/models"
	"github.com/hearthsocial/hearth/pkg/crypto"
	apperrors "github.com/hearthsocial/hearth/pkg/errors"
)

func TestUserRegisterAndVerify(t *testing.T) {
	db := newTestDB(t)
	users, err := NewUserService(db, nil)
	require.NoError(t, err)

	user, token, err := users.Register(context.Background(), RegisterUserInput{
		Email:    "New@Example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)
	require.Equal(t, "new@example.com", user.Email)
	require.Equal(t, "New", user.DisplayName)
	require.NotEmpty(t, token)
	require.False(t, user.IsEmailVerified())
	require.NotEqual(t, "secret-password", user.Password)

	verified, err := users.VerifyEmail(context.Background(), token)
	require.NoError(t, err)
	require.True(t, verified.IsEmailVerified())

	// A consumed token cannot be replayed.
	_, err = users.VerifyEmail(context.Background(), token)
	require.ErrorIs(t, err, ErrVerificationInvalid)
}

func TestUserRegisterDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	users, err := NewUserService(db, nil)
	require.NoError(t, err)

	_, _, err = users.Register(context.Background(), RegisterUserInput{
		Email:    "dup@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)

	_, _, err = users.Register(context.Background(), RegisterUserInput{
		Email:    "DUP@example.com",
		Password: "other-password",
	})
	require.ErrorIs(t, err, ErrEmailInUse)
}

func TestUserRegisterRejectsShortPassword(t *testing.T) {
	db := newTestDB(t)
	users, err := NewUserService(db, nil)
	require.NoError(t, err)

	_, _, err = users.Register(context.Background(), RegisterUserInput{
		Email:    "short@example.com",
		Password: "short",
	})
	require.Error(t, err)
}

func TestUserVerifyEmailExpiredToken(t *testing.T) {
	db := newTestDB(t)

	current := time.Now()
	users, err := NewUserService(db, nil, WithUserClock(func() time.Time { return current }))
	require.NoError(t, err)

	_, token, err := users.Register(context.Background(), RegisterUserInput{
		Email:    "slow@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)

	current = current.Add(49 * time.Hour)
	_, err = users.VerifyEmail(context.Background(), token)
	require.ErrorIs(t, err, ErrVerificationInvalid)
}

func TestUserAuthenticate(t *testing.T) {
	db := newTestDB(t)
	users, err := NewUserService(db, nil)
	require.NoError(t, err)

	_, _, err = users.Register(context.Background(), RegisterUserInput{
		Email:    "login@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)

	user, err := users.Authenticate(context.Background(), AuthenticateInput{
		Email:    "login@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)
	require.Equal(t, "login@example.com", user.Email)

	_, err = users.Authenticate(context.Background(), AuthenticateInput{
		Email:    "login@example.com",
		Password: "wrong-password",
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = users.Authenticate(context.Background(), AuthenticateInput{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestUserAuthenticateLockout(t *testing.T) {
	db := newTestDB(t)
	users, err := NewUserService(db, nil, WithLockoutPolicy(3, 10*time.Minute))
	require.NoError(t, err)

	_, _, err = users.Register(context.Background(), RegisterUserInput{
		Email:    "locked@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = users.Authenticate(context.Background(), AuthenticateInput{
			Email:    "locked@example.com",
			Password: "wrong",
		})
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}

	// Even the right password is rejected during the lockout window.
	_, err = users.Authenticate(context.Background(), AuthenticateInput{
		Email:    "locked@example.com",
		Password: "secret-password",
	})
	require.ErrorIs(t, err, ErrAccountLocked)
}

func TestUserSetActiveFamily(t *testing.T) {
	db := newTestDB(t)
	admin := createTestUser(t, db, "admin@example.com")
	stranger := createTestUser(t, db, "stranger@example.com")
	family := createTestFamily(t, db, admin.ID)

	users, err := NewUserService(db, nil)
	require.NoError(t, err)

	require.NoError(t, users.SetActiveFamily(context.Background(), admin.ID, family.ID))

	err = users.SetActiveFamily(context.Background(), stranger.ID, family.ID)
	require.ErrorIs(t, err, ErrNotFamilyMember)
}

func TestUserUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "profile@example.com")

	users, err := NewUserService(db, nil)
	require.NoError(t, err)

	name := "Renamed"
	avatar := "https://cdn.example.com/a.png"
	updated, err := users.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{
		DisplayName: &name,
		AvatarURL:   &avatar,
	})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.DisplayName)
	require.Equal(t, avatar, updated.AvatarURL)
}

func TestUserCleanupExpiredVerifications(t *testing.T) {
	db := newTestDB(t)

	current := time.Now()
	users, err := NewUserService(db, nil, WithUserClock(func() time.Time { return current }))
	require.NoError(t, err)

	_, _, err = users.Register(context.Background(), RegisterUserInput{
		Email:    "cleanup@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)

	current = current.Add(72 * time.Hour)
	n, err := users.CleanupExpiredVerifications(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	var count int64
	require.NoError(t, db.Model(&models.EmailVerification{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := crypto.HashPassword("secret-password")
	require.NoError(t, err)
	require.True(t, crypto.VerifyPassword(hash, "secret-password"))
	require.False(t, crypto.VerifyPassword(hash, "other"))
}
