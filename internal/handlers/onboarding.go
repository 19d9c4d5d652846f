package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hearthsocial/hearth/internal/middleware"
	"github.com/hearthsocial/hearth/internal/models"
	"github.com/hearthsocial/hearth/internal/services"
	apperrors "github.com/hearthsocial/hearth/pkg/errors"
	"github.com/hearthsocial/hearth/pkg/response"
)

// OnboardingHandler serves the post-signup flows: create a family or join
// one through an invite. These run before the caller has an active family,
// so they sit behind auth but not the family middleware.
type OnboardingHandler struct {
	users    *services.UserService
	families *services.FamilyService
	invites  *services.InviteService
}

// NewOnboardingHandler constructs an OnboardingHandler.
func NewOnboardingHandler(users *services.UserService, families *services.FamilyService, invites *services.InviteService) *OnboardingHandler {
	return &OnboardingHandler{users: users, families: families, invites: invites}
}

// verifiedUser loads the caller and enforces email verification.
func (h *OnboardingHandler) verifiedUser(c *gin.Context) (*models.User, bool) {
	userID := middleware.UserID(c)
	if userID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return nil, false
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if !user.IsEmailVerified() {
		response.Error(c, apperrors.ErrEmailNotVerified)
		return nil, false
	}
	return user, true
}

type createFamilyRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// CreateFamily creates a family with the caller as admin.
func (h *OnboardingHandler) CreateFamily(c *gin.Context) {
	user, ok := h.verifiedUser(c)
	if !ok {
		return
	}

	req, err := bindAndValidate[createFamilyRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	family, err := h.families.Create(c.Request.Context(), user.ID, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"family_id": family.ID,
		"name":      family.Name,
		"slug":      family.Slug,
	})
}

type acceptInviteRequest struct {
	Code     string `json:"code" validate:"omitempty,min=6,max=8"`
	InviteID string `json:"invite_id" validate:"omitempty,uuid"`
}

// AcceptInvite joins the caller to a family through an invite, identified by
// exactly one of code or invite_id.
func (h *OnboardingHandler) AcceptInvite(c *gin.Context) {
	user, ok := h.verifiedUser(c)
	if !ok {
		return
	}

	req, err := bindAndValidate[acceptInviteRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	code := strings.TrimSpace(req.Code)
	inviteID := strings.TrimSpace(req.InviteID)
	if (code == "") == (inviteID == "") {
		response.Error(c, apperrors.NewBadRequest("provide exactly one of code or invite_id"))
		return
	}

	var invite *models.FamilyInvite
	if code != "" {
		invite, err = h.invites.RedeemByCode(c.Request.Context(), code, user.ID)
	} else {
		invite, err = h.invites.RedeemByID(c.Request.Context(), inviteID, user.ID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"family_id": invite.FamilyID})
}
