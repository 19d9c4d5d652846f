package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hearthsocial/hearth/internal/auth"
	apperrors "github.com/hearthsocial/hearth/pkg/errors"
	"github.com/hearthsocial/hearth/pkg/response"
)

// Context keys set by the auth middleware.
const (
	CtxUserIDKey    = "auth.user_id"
	CtxSessionIDKey = "auth.session_id"
)

// RequireAuth validates the Bearer token and stores the caller identity on
// the request context.
func RequireAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateAccessToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, apperrors.ErrUnauthorized.WithInternal(err))
			c.Abort()
			return
		}

		c.Set(CtxUserIDKey, claims.UserID)
		if claims.SessionID != "" {
			c.Set(CtxSessionIDKey, claims.SessionID)
		}
		c.Next()
	}
}

// UserID returns the authenticated user id stored by RequireAuth.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

// SessionID returns the session id stored by RequireAuth.
func SessionID(c *gin.Context) string {
	return c.GetString(CtxSessionIDKey)
}
