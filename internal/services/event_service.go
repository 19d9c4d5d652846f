package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hearthsocial/hearth/internal/models"
	apperrors "github.com/hearthsocial/hearth/pkg/errors"
	"github.com/hearthsocial/hearth/pkg/logger"
	"github.com/hearthsocial/hearth/pkg/mail"
)

// ErrEventNotFound indicates the event does not exist in the caller's family.
var ErrEventNotFound = apperrors.New("EVENT_NOT_FOUND", "Event not found", http.StatusNotFound)

// CreateEventInput captures a new calendar entry.
type CreateEventInput struct {
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      *time.Time
}

// EventService manages events, RSVPs, updates, and event invitations.
type EventService struct {
	db     *gorm.DB
	family *FamilyService
	audit  *AuditService
	mailer mail.Mailer
}

// NewEventService constructs an EventService. The mailer is optional; when
// absent, invitation emails are skipped.
func NewEventService(db *gorm.DB, family *FamilyService, audit *AuditService, mailer mail.Mailer) (*EventService, error) {
	if db == nil {
		return nil, errors.New("event service: db is required")
	}
	if family == nil {
		return nil, errors.New("event service: family service is required")
	}
	return &EventService{db: db, family: family, audit: audit, mailer: mailer}, nil
}

// Create adds an event to the family calendar.
func (s *EventService) Create(ctx context.Context, familyID, creatorID string, input CreateEventInput) (*models.Event, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("event title is required")
	}
	if input.StartsAt.IsZero() {
		return nil, apperrors.NewBadRequest("event start time is required")
	}
	if input.EndsAt != nil && input.EndsAt.Before(input.StartsAt) {
		return nil, apperrors.NewBadRequest("event end time must not precede start time")
	}

	event := models.Event{
		FamilyID:    familyID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		CreatedBy:   creatorID,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, fmt.Errorf("event service: create event: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:   &creatorID,
		Action:   "event.create",
		Resource: event.ID,
		Result:   "success",
		Metadata: map[string]any{"family_id": familyID},
	})

	return &event, nil
}

// List returns the family's events in start-time order.
func (s *EventService) List(ctx context.Context, familyID string) ([]models.Event, error) {
	ctx = ensureContext(ctx)

	var events []models.Event
	err := s.db.WithContext(ctx).
		Where("family_id = ?", familyID).
		Order("starts_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("event service: list events: %w", err)
	}
	return events, nil
}

// GetByID loads an event scoped to the family.
func (s *EventService) GetByID(ctx context.Context, familyID, eventID string) (*models.Event, error) {
	ctx = ensureContext(ctx)
	return loadFamilyEvent(s.db.WithContext(ctx), familyID, eventID)
}

// RSVP records or overwrites the user's answer for the event.
func (s *EventService) RSVP(ctx context.Context, familyID, eventID, userID, status string) error {
	ctx = ensureContext(ctx)

	switch status {
	case models.RSVPGoing, models.RSVPMaybe, models.RSVPNotResponded:
	default:
		return apperrors.NewBadRequest("rsvp status must be going, maybe, or not_responded")
	}

	if _, err := loadFamilyEvent(s.db.WithContext(ctx), familyID, eventID); err != nil {
		return err
	}

	rsvp := models.EventRSVP{
		EventID: eventID,
		UserID:  userID,
		Status:  status,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&rsvp).Error
	if err != nil {
		return fmt.Errorf("event service: save rsvp: %w", err)
	}
	return nil
}

// ListRSVPs returns the event's answers with user profiles attached.
func (s *EventService) ListRSVPs(ctx context.Context, familyID, eventID string) ([]models.EventRSVP, error) {
	ctx = ensureContext(ctx)

	if _, err := loadFamilyEvent(s.db.WithContext(ctx), familyID, eventID); err != nil {
		return nil, err
	}

	var rsvps []models.EventRSVP
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("event_id = ?", eventID).
		Find(&rsvps).Error
	if err != nil {
		return nil, fmt.Errorf("event service: list rsvps: %w", err)
	}
	return rsvps, nil
}

// CreateUpdate posts a note on the event's timeline.
func (s *EventService) CreateUpdate(ctx context.Context, familyID, eventID, authorID, content string) (*models.EventUpdate, error) {
	ctx = ensureContext(ctx)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewBadRequest("update content is required")
	}

	if _, err := loadFamilyEvent(s.db.WithContext(ctx), familyID, eventID); err != nil {
		return nil, err
	}

	update := models.EventUpdate{
		EventID:  eventID,
		AuthorID: authorID,
		Content:  content,
	}
	if err := s.db.WithContext(ctx).Create(&update).Error; err != nil {
		return nil, fmt.Errorf("event service: create update: %w", err)
	}
	return &update, nil
}

// ListUpdates returns the event's timeline, newest first.
func (s *EventService) ListUpdates(ctx context.Context, familyID, eventID string) ([]models.EventUpdate, error) {
	ctx = ensureContext(ctx)

	if _, err := loadFamilyEvent(s.db.WithContext(ctx), familyID, eventID); err != nil {
		return nil, err
	}

	var updates []models.EventUpdate
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&updates).Error
	if err != nil {
		return nil, fmt.Errorf("event service: list updates: %w", err)
	}
	return updates, nil
}

// InviteMembers marks family members as personally invited to the event.
// Non-members in the list are skipped; repeat invitations are no-ops.
// Notification emails are best effort.
func (s *EventService) InviteMembers(ctx context.Context, familyID, eventID, inviterID string, userIDs []string) ([]string, error) {
	ctx = ensureContext(ctx)

	event, err := loadFamilyEvent(s.db.WithContext(ctx), familyID, eventID)
	if err != nil {
		return nil, err
	}

	members, err := s.family.ActiveMemberIDs(ctx, familyID, userIDs)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	invitations := make([]models.EventInvitation, 0, len(members))
	for _, id := range members {
		invitations = append(invitations, models.EventInvitation{
			EventID:       eventID,
			InvitedUserID: id,
			InvitedBy:     inviterID,
			Status:        "pending",
		})
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "invited_user_id"}},
		DoNothing: true,
	}).Create(&invitations).Error
	if err != nil {
		return nil, fmt.Errorf("event service: create invitations: %w", err)
	}

	s.notifyInvitees(ctx, event, members)

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:   &inviterID,
		Action:   "event.invite",
		Resource: eventID,
		Result:   "success",
		Metadata: map[string]any{"family_id": familyID, "invited": len(members)},
	})

	return members, nil
}

func (s *EventService) notifyInvitees(ctx context.Context, event *models.Event, userIDs []string) {
	if s.mailer == nil {
		return
	}

	var emails []string
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id IN ?", userIDs).
		Pluck("email", &emails).Error
	if err != nil {
		logger.WithModule("events").Warn("load invitee emails failed", zap.Error(err))
		return
	}

	msg := mail.Message{
		To:      emails,
		Subject: "You're invited: " + event.Title,
		Body:    "You have been invited to " + event.Title + " on " + event.StartsAt.Format("Jan 2, 2006 at 3:04 PM") + ".",
	}
	if err := s.mailer.Send(ctx, msg); err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
		logger.WithModule("events").Warn("event invitation email failed", zap.Error(err))
	}
}

func loadFamilyEvent(tx *gorm.DB, familyID, eventID string) (*models.Event, error) {
	var event models.Event
	err := tx.Where("id = ? AND family_id = ?", eventID, familyID).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("event service: load event: %w", err)
	}
	return &event, nil
}
