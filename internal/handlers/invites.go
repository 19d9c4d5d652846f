package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hearthsocial/hearth/internal/services"
	"github.com/hearthsocial/hearth/pkg/response"
)

// InviteHandler serves family invite issuance, listing, and revocation.
type InviteHandler struct {
	invites *services.InviteService
}

// NewInviteHandler constructs an InviteHandler.
func NewInviteHandler(invites *services.InviteService) *InviteHandler {
	return &InviteHandler{invites: invites}
}

type createInviteRequest struct {
	Email *string `json:"email" validate:"omitempty,email"`
}

// Create issues a pending invite for the caller's active family.
func (h *InviteHandler) Create(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	req, err := bindAndValidate[createInviteRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	issued, err := h.invites.Issue(c.Request.Context(), fc.FamilyID, fc.User.ID, req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"code": issued.Code,
		"url":  issued.URL,
	})
}

// List returns the active family's pending invites.
func (h *InviteHandler) List(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	invites, err := h.invites.ListPending(c.Request.Context(), fc.FamilyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]gin.H, 0, len(invites))
	for _, invite := range invites {
		items = append(items, gin.H{
			"id":         invite.ID,
			"code":       invite.Code,
			"email":      invite.Email,
			"status":     invite.Status,
			"expires_at": invite.ExpiresAt,
			"created_at": invite.CreatedAt,
		})
	}
	response.Success(c, http.StatusOK, items)
}

type revokeInviteRequest struct {
	InviteID string `json:"invite_id" validate:"required"`
}

// Revoke marks a pending invite revoked.
func (h *InviteHandler) Revoke(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	req, err := bindAndValidate[revokeInviteRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.invites.Revoke(c.Request.Context(), fc.FamilyID, fc.User.ID, req.InviteID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"ok": true})
}
