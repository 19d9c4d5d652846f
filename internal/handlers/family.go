package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hearthsocial/hearth/internal/services"
	"github.com/hearthsocial/hearth/pkg/response"
)

// FamilyHandler serves membership endpoints for the active family.
type FamilyHandler struct {
	families *services.FamilyService
}

// NewFamilyHandler constructs a FamilyHandler.
func NewFamilyHandler(families *services.FamilyService) *FamilyHandler {
	return &FamilyHandler{families: families}
}

// Get returns the active family.
func (h *FamilyHandler) Get(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	family, err := h.families.GetByID(c.Request.Context(), fc.FamilyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"id":   family.ID,
		"name": family.Name,
		"slug": family.Slug,
		"role": fc.Role,
	})
}

// ListMembers returns the family's active members. The exclude_self query
// flag drops the caller from the result.
func (h *FamilyHandler) ListMembers(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	excludeSelf, _ := strconv.ParseBool(c.Query("exclude_self"))
	exclude := ""
	if excludeSelf {
		exclude = fc.User.ID
	}

	members, err := h.families.ListMembers(c.Request.Context(), fc.FamilyID, exclude)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, members)
}

type updateMemberRequest struct {
	Role   *string `json:"role" validate:"omitempty,oneof=admin member"`
	Status *string `json:"status" validate:"omitempty,oneof=active removed"`
}

// UpdateMember changes a member's role or status.
func (h *FamilyHandler) UpdateMember(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}

	req, err := bindAndValidate[updateMemberRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	targetID := c.Param("userId")
	err = h.families.UpdateMember(c.Request.Context(), fc.FamilyID, fc.User.ID, targetID, services.UpdateMemberInput{
		Role:   req.Role,
		Status: req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"ok": true})
}
