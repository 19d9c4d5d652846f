package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hearthsocial/hearth/internal/models"
	"github.com/hearthsocial/hearth/pkg/crypto"
	apperrors "github.com/hearthsocial/hearth/pkg/errors"
)

const (
	defaultVerificationExpiry = 48 * time.Hour
	verificationTokenBytes    = 32
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrEmailInUse signals a registration attempt with a taken address.
	ErrEmailInUse = apperrors.New("EMAIL_IN_USE", "An account already exists for this email address", http.StatusConflict)
	// ErrAccountLocked indicates too many failed login attempts.
	ErrAccountLocked = apperrors.New("ACCOUNT_LOCKED", "Account temporarily locked, try again later", http.StatusUnauthorized)
	// ErrVerificationInvalid covers unknown, expired, and consumed verification tokens.
	ErrVerificationInvalid = apperrors.New("VERIFICATION_INVALID", "Verification token is invalid or expired", http.StatusBadRequest)
	// ErrNotFamilyMember signals the user holds no active membership in the family.
	ErrNotFamilyMember = apperrors.New("NOT_FAMILY_MEMBER", "User is not a member of this family", http.StatusForbidden)
)

// RegisterUserInput captures a new local registration.
type RegisterUserInput struct {
	Email       string
	Password    string
	DisplayName string
}

// UpdateProfileInput describes mutable profile fields.
type UpdateProfileInput struct {
	DisplayName *string
	AvatarURL   *string
}

// AuthenticateInput carries login credentials plus client metadata.
type AuthenticateInput struct {
	Email     string
	Password  string
	IPAddress string
}

// UserOption customises UserService behaviour.
type UserOption func(*UserService)

// WithLockoutPolicy overrides the failed-attempt threshold and lockout duration.
func WithLockoutPolicy(threshold int, duration time.Duration) UserOption {
	return func(s *UserService) {
		if threshold > 0 {
			s.lockoutThreshold = threshold
		}
		if duration > 0 {
			s.lockoutDuration = duration
		}
	}
}

// WithUserClock injects a custom clock primarily for testing.
func WithUserClock(clock func() time.Time) UserOption {
	return func(s *UserService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// UserService manages account lifecycle: registration, verification, login, profile.
type UserService struct {
	db               *gorm.DB
	audit            *AuditService
	lockoutThreshold int
	lockoutDuration  time.Duration
	now              func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, audit *AuditService, opts ...UserOption) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}

	service := &UserService{
		db:               db,
		audit:            audit,
		lockoutThreshold: 5,
		lockoutDuration:  15 * time.Minute,
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Register creates an account and issues an email verification token.
// The raw token is returned so the caller can deliver it out of band.
func (s *UserService) Register(ctx context.Context, input RegisterUserInput) (*models.User, string, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, "", apperrors.NewBadRequest("email is required")
	}
	if len(input.Password) < 8 {
		return nil, "", apperrors.NewBadRequest("password must be at least 8 characters")
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, "", fmt.Errorf("user service: hash password: %w", err)
	}

	user := models.User{
		Email:       email,
		Password:    hashed,
		DisplayName: displayName,
	}

	rawToken, err := crypto.GenerateToken(verificationTokenBytes)
	if err != nil {
		return nil, "", fmt.Errorf("user service: generate verification token: %w", err)
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrEmailInUse
			}
			return fmt.Errorf("user service: create user: %w", err)
		}

		verification := models.EmailVerification{
			UserID:    user.ID,
			TokenHash: crypto.HashToken(rawToken),
			ExpiresAt: now.Add(defaultVerificationExpiry),
		}
		if err := tx.Create(&verification).Error; err != nil {
			return fmt.Errorf("user service: create verification: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:   &user.ID,
		Action:   "user.register",
		Resource: user.ID,
		Result:   "success",
	})

	return &user, rawToken, nil
}

// VerifyEmail consumes a verification token and marks the account confirmed.
func (s *UserService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	ctx = ensureContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrVerificationInvalid
	}

	var verification models.EmailVerification
	err := s.db.WithContext(ctx).
		Where("token_hash = ?", crypto.HashToken(token)).
		First(&verification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVerificationInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load verification: %w", err)
	}

	now := s.now()
	if verification.VerifiedAt != nil || now.After(verification.ExpiresAt) {
		return nil, ErrVerificationInvalid
	}

	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&verification).Update("verified_at", now).Error; err != nil {
			return fmt.Errorf("user service: mark verification: %w", err)
		}
		if err := tx.First(&user, "id = ?", verification.UserID).Error; err != nil {
			return fmt.Errorf("user service: load user: %w", err)
		}
		if err := tx.Model(&user).Update("email_verified_at", now).Error; err != nil {
			return fmt.Errorf("user service: mark user verified: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	user.EmailVerifiedAt = &now
	return &user, nil
}

// Authenticate validates credentials, applying the lockout policy on failures.
func (s *UserService) Authenticate(ctx context.Context, input AuthenticateInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	now := s.now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if !crypto.VerifyPassword(user.Password, input.Password) {
		updates := map[string]any{"failed_attempts": user.FailedAttempts + 1}
		if user.FailedAttempts+1 >= s.lockoutThreshold {
			lockedUntil := now.Add(s.lockoutDuration)
			updates["locked_until"] = lockedUntil
			updates["failed_attempts"] = 0
		}
		_ = s.db.WithContext(ctx).Model(user).Updates(updates).Error
		return nil, apperrors.ErrInvalidCredentials
	}

	updates := map[string]any{
		"failed_attempts": 0,
		"locked_until":    nil,
		"last_login_at":   now,
		"last_login_ip":   strings.TrimSpace(input.IPAddress),
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("user service: record login: %w", err)
	}

	return user, nil
}

// FindByEmail returns the user with the given address, or nil when absent.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx = ensureContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user service: find by email: %w", err)
	}
	return &user, nil
}

// GetByID loads a user by identifier.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}

// UpdateProfile mutates display name and avatar.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.DisplayName != nil {
		if name := strings.TrimSpace(*input.DisplayName); name != "" {
			updates["display_name"] = name
		}
	}
	if input.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*input.AvatarURL)
	}

	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("user service: update profile: %w", err)
	}

	return s.GetByID(ctx, userID)
}

// SetActiveFamily switches the caller's active family pointer. The target
// family must hold an active membership for the user.
func (s *UserService) SetActiveFamily(ctx context.Context, userID, familyID string) error {
	ctx = ensureContext(ctx)

	var membership models.FamilyMember
	err := s.db.WithContext(ctx).
		Where("family_id = ? AND user_id = ? AND status = ?", familyID, userID, models.MemberStatusActive).
		First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFamilyMember
	}
	if err != nil {
		return fmt.Errorf("user service: load membership: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("active_family_id", familyID).Error; err != nil {
		return fmt.Errorf("user service: set active family: %w", err)
	}

	return nil
}

// CleanupExpiredVerifications deletes verification rows past expiry.
func (s *UserService) CleanupExpiredVerifications(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("expires_at < ? AND verified_at IS NULL", s.now()).
		Delete(&models.EmailVerification{})
	if result.Error != nil {
		return 0, fmt.Errorf("user service: cleanup verifications: %w", result.Error)
	}
	return result.RowsAffected, nil
}
