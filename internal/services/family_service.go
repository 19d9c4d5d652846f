package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"gorm.io/gorm"

	"github.com/hearthsocial/hearth/internal/models"
	apperrors "github.com/hearthsocial/hearth/pkg/errors"
)

var (
	// ErrFamilyNotFound indicates the requested family does not exist.
	ErrFamilyNotFound = apperrors.New("FAMILY_NOT_FOUND", "Family not found", http.StatusNotFound)
	// ErrFamilySlugTaken signals a family with the same name already exists.
	ErrFamilySlugTaken = apperrors.New("FAMILY_EXISTS", "A family with this name already exists", http.StatusBadRequest)
	// ErrNoActiveFamily indicates the caller has not selected a family context.
	ErrNoActiveFamily = apperrors.New("NO_ACTIVE_FAMILY", "No active family found", http.StatusBadRequest)
)

// FamilyMemberView joins membership and profile data for listing.
type FamilyMemberView struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url"`
	Role        string `json:"role"`
}

// UpdateMemberInput describes mutable membership fields.
type UpdateMemberInput struct {
	Role   *string
	Status *string
}

// FamilyService handles family lifecycle and membership management.
type FamilyService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewFamilyService constructs a FamilyService instance.
func NewFamilyService(db *gorm.DB, audit *AuditService) (*FamilyService, error) {
	if db == nil {
		return nil, errors.New("family service: db is required")
	}
	return &FamilyService{db: db, audit: audit}, nil
}

// Create registers a new family with the creator as admin and switches the
// creator's active family pointer, all in one transaction.
func (s *FamilyService) Create(ctx context.Context, creatorID, name string) (*models.Family, error) {
	ctx = ensureContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewBadRequest("family name is required")
	}

	family := &models.Family{
		Name: name,
		Slug: slugify(name),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(family).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrFamilySlugTaken
			}
			return fmt.Errorf("family service: create family: %w", err)
		}

		member := models.FamilyMember{
			FamilyID: family.ID,
			UserID:   creatorID,
			Role:     models.RoleAdmin,
			Status:   models.MemberStatusActive,
		}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("family service: create membership: %w", err)
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", creatorID).
			Update("active_family_id", family.ID).Error; err != nil {
			return fmt.Errorf("family service: set active family: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:   &creatorID,
		Action:   "family.create",
		Resource: family.ID,
		Result:   "success",
		Metadata: map[string]any{"name": family.Name, "slug": family.Slug},
	})

	return family, nil
}

// GetByID loads a family by identifier.
func (s *FamilyService) GetByID(ctx context.Context, id string) (*models.Family, error) {
	ctx = ensureContext(ctx)

	var family models.Family
	err := s.db.WithContext(ctx).First(&family, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFamilyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("family service: load family: %w", err)
	}
	return &family, nil
}

// ActiveRole returns the caller's role in the family, or empty when the
// caller holds no active membership.
func (s *FamilyService) ActiveRole(ctx context.Context, familyID, userID string) (string, error) {
	ctx = ensureContext(ctx)

	if familyID == "" || userID == "" {
		return "", nil
	}

	var member models.FamilyMember
	err := s.db.WithContext(ctx).
		Where("family_id = ? AND user_id = ? AND status = ?", familyID, userID, models.MemberStatusActive).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("family service: load membership: %w", err)
	}
	return member.Role, nil
}

// RequireAdmin verifies the user is an active admin of the family.
func (s *FamilyService) RequireAdmin(ctx context.Context, familyID, userID string) error {
	role, err := s.ActiveRole(ctx, familyID, userID)
	if err != nil {
		return err
	}
	if role != models.RoleAdmin {
		return apperrors.ErrForbidden
	}
	return nil
}

// ListMembers returns active members with their profile data.
func (s *FamilyService) ListMembers(ctx context.Context, familyID string, excludeUserID string) ([]FamilyMemberView, error) {
	ctx = ensureContext(ctx)

	var memberships []models.FamilyMember
	query := s.db.WithContext(ctx).
		Preload("User").
		Where("family_id = ? AND status = ?", familyID, models.MemberStatusActive).
		Order("created_at ASC")
	if excludeUserID != "" {
		query = query.Where("user_id <> ?", excludeUserID)
	}
	if err := query.Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("family service: list members: %w", err)
	}

	views := make([]FamilyMemberView, 0, len(memberships))
	for _, m := range memberships {
		view := FamilyMemberView{
			UserID: m.UserID,
			Role:   m.Role,
		}
		if m.User != nil {
			view.DisplayName = m.User.DisplayName
			view.Email = m.User.Email
			view.AvatarURL = m.User.AvatarURL
		}
		views = append(views, view)
	}
	return views, nil
}

// ActiveMemberIDs reports which of the given user ids hold active membership.
func (s *FamilyService) ActiveMemberIDs(ctx context.Context, familyID string, userIDs []string) ([]string, error) {
	ctx = ensureContext(ctx)

	if len(userIDs) == 0 {
		return nil, nil
	}

	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.FamilyMember{}).
		Where("family_id = ? AND status = ? AND user_id IN ?", familyID, models.MemberStatusActive, userIDs).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("family service: filter members: %w", err)
	}
	return ids, nil
}

// UpdateMember changes a member's role or status. Admin only; callers cannot
// modify their own membership.
func (s *FamilyService) UpdateMember(ctx context.Context, familyID, callerID, targetUserID string, input UpdateMemberInput) error {
	ctx = ensureContext(ctx)

	if err := s.RequireAdmin(ctx, familyID, callerID); err != nil {
		return err
	}
	if callerID == targetUserID {
		return apperrors.NewBadRequest("cannot modify your own membership")
	}

	updates := map[string]any{}
	if input.Role != nil {
		role := strings.TrimSpace(*input.Role)
		if role != models.RoleAdmin && role != models.RoleMember {
			return apperrors.NewBadRequest("role must be admin or member")
		}
		updates["role"] = role
	}
	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		if status != models.MemberStatusActive && status != models.MemberStatusRemoved {
			return apperrors.NewBadRequest("status must be active or removed")
		}
		updates["status"] = status
	}
	if len(updates) == 0 {
		return nil
	}

	result := s.db.WithContext(ctx).
		Model(&models.FamilyMember{}).
		Where("family_id = ? AND user_id = ?", familyID, targetUserID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("family service: update member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFamilyMember
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:   &callerID,
		Action:   "family.member.update",
		Resource: targetUserID,
		Result:   "success",
		Metadata: map[string]any{"family_id": familyID},
	})

	return nil
}

// slugify lowercases the name and collapses runs of non-alphanumerics into
// single dashes.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
