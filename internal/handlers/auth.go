package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hearthsocial/hearth/internal/auth"
	"github.com/hearthsocial/hearth/internal/middleware"
	"github.com/hearthsocial/hearth/internal/services"
	apperrors "github.com/hearthsocial/hearth/pkg/errors"
	"github.com/hearthsocial/hearth/pkg/metrics"
	"github.com/hearthsocial/hearth/pkg/response"
)

// AuthHandler serves registration, login, and session endpoints.
type AuthHandler struct {
	users    *services.UserService
	sessions *auth.SessionService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *services.UserService, sessions *auth.SessionService) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions}
}

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

// Register creates an account and returns the new profile. The verification
// token travels out of band; it is never exposed in the API response.
func (h *AuthHandler) Register(c *gin.Context) {
	req, err := bindAndValidate[registerRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	user, _, err := h.users.Register(c.Request.Context(), services.RegisterUserInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"id":           user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login validates credentials and opens a session.
func (h *AuthHandler) Login(c *gin.Context) {
	req, err := bindAndValidate[loginRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), services.AuthenticateInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, err)
		return
	}

	pair, _, err := h.sessions.CreateSession(c.Request.Context(), user.ID, auth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	response.Success(c, http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user": gin.H{
			"id":               user.ID,
			"email":            user.Email,
			"display_name":     user.DisplayName,
			"email_verified":   user.IsEmailVerified(),
			"active_family_id": user.ActiveFamilyID,
		},
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh rotates the refresh token and mints a new access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	req, err := bindAndValidate[refreshRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	pair, _, err := h.sessions.RefreshSession(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) || errors.Is(err, auth.ErrSessionExpired) {
			response.Error(c, apperrors.ErrUnauthorized)
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// Logout revokes the caller's session.
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	if sessionID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	if err := h.sessions.RevokeSession(c.Request.Context(), sessionID); err != nil &&
		!errors.Is(err, auth.ErrSessionNotFound) {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"ok": true})
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// VerifyEmail consumes a verification token.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	req, err := bindAndValidate[verifyEmailRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.users.VerifyEmail(c.Request.Context(), req.Token)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"id":             user.ID,
		"email":          user.Email,
		"email_verified": true,
	})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"id":               user.ID,
		"email":            user.Email,
		"display_name":     user.DisplayName,
		"avatar_url":       user.AvatarURL,
		"email_verified":   user.IsEmailVerified(),
		"active_family_id": user.ActiveFamilyID,
	})
}
