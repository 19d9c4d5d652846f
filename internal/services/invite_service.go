package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hearthsocial/hearth/internal/models"
	apperrors "github.com/hearthsocial/hearth/pkg/errors"
	"github.com/hearthsocial/hearth/pkg/metrics"
)

const (
	defaultInviteCodeLength  = 6
	defaultInviteMaxAttempts = 10
	defaultInviteExpiry      = 14 * 24 * time.Hour

	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	// ErrInviteInvalidOrExpired covers unknown, expired, revoked, and already
	// accepted invites during redemption.
	ErrInviteInvalidOrExpired = apperrors.New("INVITE_INVALID", "Invalid or expired invite code", http.StatusBadRequest)
	// ErrInviteNotFoundOrProcessed signals a revoke target that does not exist
	// or is no longer pending.
	ErrInviteNotFoundOrProcessed = apperrors.New("INVITE_NOT_FOUND", "Invite not found or already processed", http.StatusNotFound)
	// ErrCodeGenerationExhausted indicates repeated code collisions.
	ErrCodeGenerationExhausted = apperrors.New("INVITE_CODE_EXHAUSTED", "Could not generate a unique invite code", http.StatusInternalServerError)
)

// IssuedInvite is the result of a successful invite issuance.
type IssuedInvite struct {
	Invite *models.FamilyInvite
	Code   string
	URL    string
}

// InviteOption customises InviteService behaviour.
type InviteOption func(*InviteService)

// WithInviteBaseURL sets the public origin used to build signup links.
func WithInviteBaseURL(base string) InviteOption {
	return func(s *InviteService) {
		s.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// WithInviteExpiry overrides the invite validity window.
func WithInviteExpiry(ttl time.Duration) InviteOption {
	return func(s *InviteService) {
		if ttl > 0 {
			s.expiry = ttl
		}
	}
}

// WithInviteCodeLength overrides the generated code length.
func WithInviteCodeLength(length int) InviteOption {
	return func(s *InviteService) {
		if length > 0 {
			s.codeLength = length
		}
	}
}

// WithInviteMaxAttempts overrides the collision retry budget.
func WithInviteMaxAttempts(attempts int) InviteOption {
	return func(s *InviteService) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
	}
}

// WithInviteClock injects a custom clock primarily for testing.
func WithInviteClock(clock func() time.Time) InviteOption {
	return func(s *InviteService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithInviteRand injects the random index source used for code generation.
func WithInviteRand(intn func(n int) int) InviteOption {
	return func(s *InviteService) {
		if intn != nil {
			s.intn = intn
		}
	}
}

// InviteService issues, lists, revokes, and redeems family invites.
type InviteService struct {
	db          *gorm.DB
	family      *FamilyService
	audit       *AuditService
	baseURL     string
	expiry      time.Duration
	codeLength  int
	maxAttempts int
	now         func() time.Time
	intn        func(n int) int
}

// NewInviteService constructs an InviteService.
func NewInviteService(db *gorm.DB, family *FamilyService, audit *AuditService, opts ...InviteOption) (*InviteService, error) {
	if db == nil {
		return nil, errors.New("invite service: db is required")
	}
	if family == nil {
		return nil, errors.New("invite service: family service is required")
	}

	service := &InviteService{
		db:          db,
		family:      family,
		audit:       audit,
		expiry:      defaultInviteExpiry,
		codeLength:  defaultInviteCodeLength,
		maxAttempts: defaultInviteMaxAttempts,
		now:         time.Now,
		intn:        cryptoIntn,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Issue creates a pending invite for the family. Only active admins may
// issue. The generated code uses uppercase letters and digits, retried a
// bounded number of times when it collides with an existing pending invite
// in the same family. The code is only returned once the row is persisted.
func (s *InviteService) Issue(ctx context.Context, familyID, issuerID string, email *string) (*IssuedInvite, error) {
	ctx = ensureContext(ctx)

	if err := s.family.RequireAdmin(ctx, familyID, issuerID); err != nil {
		metrics.InvitesIssueFailures.Inc()
		return nil, err
	}

	code, err := s.generateCode(ctx, familyID)
	if err != nil {
		metrics.InvitesIssueFailures.Inc()
		return nil, err
	}

	invite := models.FamilyInvite{
		FamilyID:  familyID,
		Code:      code,
		Status:    models.InviteStatusPending,
		InvitedBy: issuerID,
		ExpiresAt: s.now().Add(s.expiry),
	}
	if email != nil {
		if trimmed := strings.ToLower(strings.TrimSpace(*email)); trimmed != "" {
			invite.Email = &trimmed
		}
	}

	if err := s.db.WithContext(ctx).Create(&invite).Error; err != nil {
		metrics.InvitesIssueFailures.Inc()
		return nil, fmt.Errorf("invite service: persist invite: %w", err)
	}

	metrics.InvitesIssued.Inc()
	recordAudit(s.audit, ctx, AuditEntry{
		UserID:   &issuerID,
		Action:   "invite.issue",
		Resource: invite.ID,
		Result:   "success",
		Metadata: map[string]any{"family_id": familyID},
	})

	return &IssuedInvite{
		Invite: &invite,
		Code:   invite.Code,
		URL:    s.signupURL(invite.Code),
	}, nil
}

// ListPending returns the family's pending invites, newest first.
func (s *InviteService) ListPending(ctx context.Context, familyID string) ([]models.FamilyInvite, error) {
	ctx = ensureContext(ctx)

	var invites []models.FamilyInvite
	err := s.db.WithContext(ctx).
		Where("family_id = ? AND status = ?", familyID, models.InviteStatusPending).
		Order("created_at DESC").
		Find(&invites).Error
	if err != nil {
		return nil, fmt.Errorf("invite service: list invites: %w", err)
	}
	return invites, nil
}

// Revoke marks a pending invite revoked. Only active admins may revoke.
// A target that is missing, belongs to another family, or is no longer
// pending yields ErrInviteNotFoundOrProcessed; a revoked invite stays
// revoked on repeat calls.
func (s *InviteService) Revoke(ctx context.Context, familyID, callerID, inviteID string) error {
	ctx = ensureContext(ctx)

	if err := s.family.RequireAdmin(ctx, familyID, callerID); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Model(&models.FamilyInvite{}).
		Where("id = ? AND family_id = ? AND status = ?", inviteID, familyID, models.InviteStatusPending).
		Update("status", models.InviteStatusRevoked)
	if result.Error != nil {
		return fmt.Errorf("invite service: revoke invite: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInviteNotFoundOrProcessed
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:   &callerID,
		Action:   "invite.revoke",
		Resource: inviteID,
		Result:   "success",
		Metadata: map[string]any{"family_id": familyID},
	})

	return nil
}

// RedeemByID accepts a known invite for the user: membership upsert, invite
// marked accepted, and the user's active family switched, atomically. A user
// who already belongs to the family still succeeds and keeps their role.
func (s *InviteService) RedeemByID(ctx context.Context, inviteID, userID string) (*models.FamilyInvite, error) {
	ctx = ensureContext(ctx)

	var invite models.FamilyInvite
	err := s.db.WithContext(ctx).First(&invite, "id = ?", inviteID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.InviteRedemptions.WithLabelValues("id", "invalid").Inc()
		return nil, ErrInviteInvalidOrExpired
	}
	if err != nil {
		return nil, fmt.Errorf("invite service: load invite: %w", err)
	}
	if !invite.Redeemable(s.now()) {
		metrics.InviteRedemptions.WithLabelValues("id", "invalid").Inc()
		return nil, ErrInviteInvalidOrExpired
	}

	if err := s.redeem(ctx, &invite, userID); err != nil {
		metrics.InviteRedemptions.WithLabelValues("id", "error").Inc()
		return nil, err
	}

	metrics.InviteRedemptions.WithLabelValues("id", "success").Inc()
	s.auditRedemption(ctx, &invite, userID)
	return &invite, nil
}

// RedeemByCode accepts an invite by its code in a single atomic operation.
// When several families carry the same pending code, the most recently
// created invite wins. The pending-to-accepted transition is a conditional
// update so two concurrent redemptions cannot both claim the invite.
func (s *InviteService) RedeemByCode(ctx context.Context, code, userID string) (*models.FamilyInvite, error) {
	ctx = ensureContext(ctx)

	// Malformed codes are rejected up front; only codes of the configured
	// length ever exist in the store.
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != s.codeLength {
		metrics.InviteRedemptions.WithLabelValues("code", "invalid").Inc()
		return nil, ErrInviteInvalidOrExpired
	}

	now := s.now()
	var invite models.FamilyInvite
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("code = ? AND status = ? AND expires_at > ?", code, models.InviteStatusPending, now).
			Order("created_at DESC").
			First(&invite).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInviteInvalidOrExpired
		}
		if err != nil {
			return fmt.Errorf("invite service: find invite: %w", err)
		}

		if err := s.applyRedemption(tx, &invite, userID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInviteInvalidOrExpired) {
			metrics.InviteRedemptions.WithLabelValues("code", "invalid").Inc()
		} else {
			metrics.InviteRedemptions.WithLabelValues("code", "error").Inc()
		}
		return nil, err
	}

	metrics.InviteRedemptions.WithLabelValues("code", "success").Inc()
	s.auditRedemption(ctx, &invite, userID)
	return &invite, nil
}

// redeem runs the redemption steps for an already validated invite.
func (s *InviteService) redeem(ctx context.Context, invite *models.FamilyInvite, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.applyRedemption(tx, invite, userID)
	})
}

// applyRedemption performs the membership upsert, the conditional invite
// state transition, and the active family switch inside the caller's
// transaction. The invite struct is updated in place on success.
func (s *InviteService) applyRedemption(tx *gorm.DB, invite *models.FamilyInvite, userID string) error {
	member := models.FamilyMember{
		FamilyID: invite.FamilyID,
		UserID:   userID,
		Role:     models.RoleMember,
		Status:   models.MemberStatusActive,
	}
	// Existing memberships are reactivated but keep their role.
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "family_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":     models.MemberStatusActive,
			"updated_at": s.now(),
		}),
	}).Create(&member).Error; err != nil {
		return fmt.Errorf("invite service: upsert membership: %w", err)
	}

	result := tx.Model(&models.FamilyInvite{}).
		Where("id = ? AND status = ?", invite.ID, models.InviteStatusPending).
		Update("status", models.InviteStatusAccepted)
	if result.Error != nil {
		return fmt.Errorf("invite service: accept invite: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInviteInvalidOrExpired
	}
	invite.Status = models.InviteStatusAccepted

	if err := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Update("active_family_id", invite.FamilyID).Error; err != nil {
		return fmt.Errorf("invite service: set active family: %w", err)
	}
	return nil
}

// CleanupExpired deletes pending invites whose expiry has long passed.
func (s *InviteService) CleanupExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	ctx = ensureContext(ctx)

	cutoff := s.now().Add(-olderThan)
	result := s.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", models.InviteStatusPending, cutoff).
		Delete(&models.FamilyInvite{})
	if result.Error != nil {
		return 0, fmt.Errorf("invite service: cleanup invites: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// generateCode produces a fresh code, retrying on collision with pending
// invites in the same family. The check is advisory; codes are not globally
// unique and redemption tolerates cross-family duplicates.
func (s *InviteService) generateCode(ctx context.Context, familyID string) (string, error) {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		code := s.randomCode()

		var count int64
		err := s.db.WithContext(ctx).
			Model(&models.FamilyInvite{}).
			Where("family_id = ? AND code = ? AND status = ?", familyID, code, models.InviteStatusPending).
			Count(&count).Error
		if err != nil {
			return "", fmt.Errorf("invite service: check code: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", ErrCodeGenerationExhausted
}

func (s *InviteService) randomCode() string {
	buf := make([]byte, s.codeLength)
	for i := range buf {
		buf[i] = inviteCodeAlphabet[s.intn(len(inviteCodeAlphabet))]
	}
	return string(buf)
}

func (s *InviteService) signupURL(code string) string {
	base := s.baseURL
	if base == "" {
		base = "http://localhost:3000"
	}
	return base + "/signup?code=" + url.QueryEscape(code)
}

func (s *InviteService) auditRedemption(ctx context.Context, invite *models.FamilyInvite, userID string) {
	recordAudit(s.audit, ctx, AuditEntry{
		UserID:   &userID,
		Action:   "invite.redeem",
		Resource: invite.ID,
		Result:   "success",
		Metadata: map[string]any{"family_id": invite.FamilyID},
	})
}

// cryptoIntn draws a uniform index from crypto/rand.
func cryptoIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// rand.Reader failures are not recoverable at this level.
		panic(fmt.Sprintf("invite code rand: %v", err))
	}
	return int(v.Int64())
}
