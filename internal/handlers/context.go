package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/hearthsocial/hearth/internal/middleware"
	apperrors "github.com/hearthsocial/hearth/pkg/errors"
	"github.com/hearthsocial/hearth/pkg/response"
)

// familyScope fetches the resolved family context, rendering an error when
// the middleware chain did not provide one.
func familyScope(c *gin.Context) (*middleware.FamilyContext, bool) {
	fc := middleware.Family(c)
	if fc == nil || fc.User == nil {
		response.Error(c, apperrors.ErrUnauthorized)
		return nil, false
	}
	return fc, true
}
