package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hearthsocial/hearth/internal/services"
	apperrors "github.com/hearthsocial/hearth/pkg/errors"
	"github.com/hearthsocial/hearth/pkg/response"
)

// AuditHandler exposes the audit trail to family admins.
type AuditHandler struct {
	audit *services.AuditService
}

// NewAuditHandler constructs an AuditHandler.
func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List returns paginated audit logs. Admin only.
func (h *AuditHandler) List(c *gin.Context) {
	fc, ok := familyScope(c)
	if !ok {
		return
	}
	if !fc.IsAdmin() {
		response.Error(c, apperrors.ErrForbidden)
		return
	}

	page, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.Query("per_page"))

	logs, total, err := h.audit.List(c.Request.Context(), services.AuditListOptions{
		Page:     page,
		PageSize: perPage,
		Filters: services.AuditFilters{
			UserID: c.Query("user_id"),
			Action: c.Query("action"),
			Result: c.Query("result"),
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}
	totalPages := int(total) / perPage
	if int(total)%perPage != 0 {
		totalPages++
	}

	response.SuccessWithMeta(c, http.StatusOK, logs, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      int(total),
		TotalPages: totalPages,
	})
}
