package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hearthsocial/hearth/internal/services"
	"github.com/hearthsocial/hearth/pkg/response"
)

// EventHandler serves the family calendar.
type EventHandler struct {
	events *services.EventService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

type createEventRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Location    string     `json:"location" validate:"max=500"`
	StartsAt    time.Time  `json:"starts_at" validate:"required"`
	EndsAt      *time.Time `json:"ends_at"`
}

// Create adds an event to the calendar.
func (h *EventHandler) Create(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	req, err := bindAndValidate[createEventRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	event, err := h.events.Create(c.Request.Context(), fc.FamilyID, fc.User.ID, services.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, event)
}

// List returns the family's events in start-time order.
func (h *EventHandler) List(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	events, err := h.events.List(c.Request.Context(), fc.FamilyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, events)
}

// Get returns a single event.
func (h *EventHandler) Get(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	event, err := h.events.GetByID(c.Request.Context(), fc.FamilyID, c.Param("eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, event)
}

type rsvpRequest struct {
	Status string `json:"status" validate:"required,oneof=going maybe not_responded"`
}

// RSVP records the caller's answer for an event.
func (h *EventHandler) RSVP(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	req, err := bindAndValidate[rsvpRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.events.RSVP(c.Request.Context(), fc.FamilyID, c.Param("eventId"), fc.User.ID, req.Status); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"ok": true})
}

// ListRSVPs returns an event's answers.
func (h *EventHandler) ListRSVPs(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	rsvps, err := h.events.ListRSVPs(c.Request.Context(), fc.FamilyID, c.Param("eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, rsvps)
}

type eventUpdateRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// CreateUpdate posts a note on the event timeline.
func (h *EventHandler) CreateUpdate(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	req, err := bindAndValidate[eventUpdateRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	update, err := h.events.CreateUpdate(c.Request.Context(), fc.FamilyID, c.Param("eventId"), fc.User.ID, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, update)
}

// ListUpdates returns an event's timeline.
func (h *EventHandler) ListUpdates(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	updates, err := h.events.ListUpdates(c.Request.Context(), fc.FamilyID, c.Param("eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, updates)
}

type inviteMembersRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1,dive,required"`
}

// InviteMembers marks family members as personally invited to the event.
func (h *EventHandler) InviteMembers(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	req, err := bindAndValidate[inviteMembersRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	invited, err := h.events.InviteMembers(c.Request.Context(), fc.FamilyID, c.Param("eventId"), fc.User.ID, req.UserIDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"invited": invited})
}
