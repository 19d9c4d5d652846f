package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hearthsocial/hearth/internal/models"
	"github.com/hearthsocial/hearth/pkg/crypto"
)

const (
	// DefaultRefreshTokenTTL is the fallback refresh token lifetime.
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
	// DefaultRefreshTokenLength is the refresh token entropy in bytes.
	DefaultRefreshTokenLength = 48
)

var (
	// ErrSessionNotFound indicates the refresh token does not match a live session.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrSessionExpired indicates the session has lapsed or been revoked.
	ErrSessionExpired = errors.New("session: expired or revoked")
)

// SessionConfig tunes refresh token issuance.
type SessionConfig struct {
	RefreshTokenTTL    time.Duration
	RefreshTokenLength int
	Clock              func() time.Time
}

// SessionMetadata captures client details recorded on each session.
type SessionMetadata struct {
	IPAddress string
	UserAgent string
}

// TokenPair bundles the tokens returned to a client after authentication.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SessionService persists refresh-token sessions and mints token pairs.
type SessionService struct {
	db         *gorm.DB
	jwt        *JWTService
	refreshTTL time.Duration
	refreshLen int
	now        func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(db *gorm.DB, jwtService *JWTService, cfg SessionConfig) (*SessionService, error) {
	if db == nil {
		return nil, errors.New("session service: db is required")
	}
	if jwtService == nil {
		return nil, errors.New("session service: jwt service is required")
	}

	ttl := cfg.RefreshTokenTTL
	if ttl <= 0 {
		ttl = DefaultRefreshTokenTTL
	}
	length := cfg.RefreshTokenLength
	if length <= 0 {
		length = DefaultRefreshTokenLength
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	return &SessionService{
		db:         db,
		jwt:        jwtService,
		refreshTTL: ttl,
		refreshLen: length,
		now:        now,
	}, nil
}

// CreateSession opens a new session for the user and returns its token pair.
func (s *SessionService) CreateSession(ctx context.Context, userID string, meta SessionMetadata) (TokenPair, *models.Session, error) {
	if userID == "" {
		return TokenPair{}, nil, errors.New("session service: user id is required")
	}

	refreshToken, err := crypto.GenerateToken(s.refreshLen)
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: generate refresh token: %w", err)
	}

	now := s.now()
	session := models.Session{
		UserID:       userID,
		RefreshToken: crypto.HashToken(refreshToken),
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		ExpiresAt:    now.Add(s.refreshTTL),
		LastUsedAt:   now,
	}

	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: create session: %w", err)
	}

	accessToken, err := s.jwt.GenerateAccessToken(AccessTokenInput{UserID: userID, SessionID: session.ID})
	if err != nil {
		return TokenPair{}, nil, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, &session, nil
}

// RefreshSession rotates the refresh token and issues a fresh access token.
func (s *SessionService) RefreshSession(ctx context.Context, refreshToken string) (TokenPair, *models.Session, error) {
	if refreshToken == "" {
		return TokenPair{}, nil, ErrSessionNotFound
	}

	var session models.Session
	err := s.db.WithContext(ctx).
		Where("refresh_token = ?", crypto.HashToken(refreshToken)).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return TokenPair{}, nil, ErrSessionNotFound
	}
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: load session: %w", err)
	}

	now := s.now()
	if session.RevokedAt != nil || !now.Before(session.ExpiresAt) {
		return TokenPair{}, nil, ErrSessionExpired
	}

	newToken, err := crypto.GenerateToken(s.refreshLen)
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: generate refresh token: %w", err)
	}

	updates := map[string]any{
		"refresh_token": crypto.HashToken(newToken),
		"expires_at":    now.Add(s.refreshTTL),
		"last_used_at":  now,
	}
	if err := s.db.WithContext(ctx).Model(&session).Updates(updates).Error; err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: rotate session: %w", err)
	}

	accessToken, err := s.jwt.GenerateAccessToken(AccessTokenInput{UserID: session.UserID, SessionID: session.ID})
	if err != nil {
		return TokenPair{}, nil, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: newToken}, &session, nil
}

// RevokeSession marks a single session as revoked.
func (s *SessionService) RevokeSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionNotFound
	}

	now := s.now()
	result := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", now)
	if result.Error != nil {
		return fmt.Errorf("session service: revoke session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// RevokeUserSessions revokes every live session belonging to the user.
func (s *SessionService) RevokeUserSessions(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("session service: user id is required")
	}

	now := s.now()
	return s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", now).Error
}

// CleanupExpired deletes sessions past their expiry plus revoked leftovers.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	now := s.now()
	result := s.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at IS NOT NULL", now).
		Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("session service: cleanup: %w", result.Error)
	}
	return result.RowsAffected, nil
}
