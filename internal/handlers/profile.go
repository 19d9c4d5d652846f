package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hearthsocial/hearth/internal/middleware"
	"github.com/hearthsocial/hearth/internal/services"
	apperrors "github.com/hearthsocial/hearth/pkg/errors"
	"github.com/hearthsocial/hearth/pkg/response"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	users *services.UserService
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(users *services.UserService) *ProfileHandler {
	return &ProfileHandler{users: users}
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,min=1,max=100"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,max=1000"`
}

// Update mutates display name and avatar.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	req, err := bindAndValidate[updateProfileRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, services.UpdateProfileInput{
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"id":           user.ID,
		"display_name": user.DisplayName,
		"avatar_url":   user.AvatarURL,
	})
}

type setActiveFamilyRequest struct {
	FamilyID string `json:"family_id" validate:"required"`
}

// SetActiveFamily switches the caller's active family.
func (h *ProfileHandler) SetActiveFamily(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	req, err := bindAndValidate[setActiveFamilyRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.users.SetActiveFamily(c.Request.Context(), userID, req.FamilyID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"ok": true})
}
