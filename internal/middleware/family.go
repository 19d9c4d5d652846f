package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/hearthsocial/hearth/internal/models"
	"github.com/hearthsocial/hearth/internal/services"
	apperrors "github.com/hearthsocial/hearth/pkg/errors"
	"github.com/hearthsocial/hearth/pkg/response"
)

// CtxFamilyKey holds the resolved FamilyContext on the request.
const CtxFamilyKey = "family.context"

// FamilyContext bundles everything family-scoped handlers need about the
// caller, resolved once per request instead of ad hoc per handler.
type FamilyContext struct {
	User     *models.User
	FamilyID string
	Role     string
}

// IsAdmin reports whether the caller administers the active family.
func (fc *FamilyContext) IsAdmin() bool {
	return fc != nil && fc.Role == models.RoleAdmin
}

// RequireFamily loads the authenticated user, enforces email verification,
// and resolves the active family plus the caller's role in it. Requests
// without an active family are rejected.
func RequireFamily(users *services.UserService, families *services.FamilyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if !user.IsEmailVerified() {
			response.Error(c, apperrors.ErrEmailNotVerified)
			c.Abort()
			return
		}
		if user.ActiveFamilyID == nil || *user.ActiveFamilyID == "" {
			response.Error(c, services.ErrNoActiveFamily)
			c.Abort()
			return
		}

		role, err := families.ActiveRole(c.Request.Context(), *user.ActiveFamilyID, userID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if role == "" {
			// Stale pointer: the membership was removed after selection.
			response.Error(c, services.ErrNoActiveFamily)
			c.Abort()
			return
		}

		c.Set(CtxFamilyKey, &FamilyContext{
			User:     user,
			FamilyID: *user.ActiveFamilyID,
			Role:     role,
		})
		c.Next()
	}
}

// Family returns the FamilyContext stored by RequireFamily.
func Family(c *gin.Context) *FamilyContext {
	value, ok := c.Get(CtxFamilyKey)
	if !ok {
		return nil
	}
	fc, _ := value.(*FamilyContext)
	return fc
}
