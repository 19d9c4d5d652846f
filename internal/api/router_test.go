package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hearthsocial/hearth/internal/auth"
	"github.com/hearthsocial/hearth/internal/database"
	"github.com/hearthsocial/hearth/internal/models"
	"github.com/hearthsocial/hearth/internal/services"
)

type testEnv struct {
	db     *gorm.DB
	jwt    *auth.JWTService
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Config{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1",
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Issuer: "hearth"})
	require.NoError(t, err)
	sessionService, err := auth.NewSessionService(db, jwtService, auth.SessionConfig{})
	require.NoError(t, err)

	auditService, err := services.NewAuditService(db)
	require.NoError(t, err)
	userService, err := services.NewUserService(db, auditService)
	require.NoError(t, err)
	familyService, err := services.NewFamilyService(db, auditService)
	require.NoError(t, err)
	inviteService, err := services.NewInviteService(db, familyService, auditService,
		services.WithInviteBaseURL("https://hearth.example"))
	require.NoError(t, err)
	postService, err := services.NewPostService(db, auditService)
	require.NoError(t, err)
	eventService, err := services.NewEventService(db, familyService, auditService, nil)
	require.NoError(t, err)

	router := NewRouter(Dependencies{
		DB:       db,
		JWT:      jwtService,
		Sessions: sessionService,
		Users:    userService,
		Families: familyService,
		Invites:  inviteService,
		Posts:    postService,
		Events:   eventService,
		Audit:    auditService,
	})

	return &testEnv{db: db, jwt: jwtService, router: router}
}

// seedUser inserts a verified account and returns its bearer token.
func (e *testEnv) seedUser(t *testing.T, email string) (*models.User, string) {
	t.Helper()

	now := time.Now()
	user := &models.User{
		Email:           email,
		Password:        "hashed",
		DisplayName:     strings.SplitN(email, "@", 2)[0],
		EmailVerifiedAt: &now,
	}
	require.NoError(t, e.db.Create(user).Error)

	token, err := e.jwt.GenerateAccessToken(auth.AccessTokenInput{UserID: user.ID})
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(encoded))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, w.Body.String())
	return envelope.Data
}

func TestInviteFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	_, adminToken := env.seedUser(t, "admin@example.com")
	_, joinerToken := env.seedUser(t, "joiner@example.com")

	// Admin creates a family through onboarding.
	w := env.do(t, http.MethodPost, "/api/onboarding/family", adminToken, gin.H{"name": "The Flow Family"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	familyID := decodeData(t, w)["family_id"].(string)
	require.NotEmpty(t, familyID)

	// Admin issues an invite.
	w = env.do(t, http.MethodPost, "/api/invites", adminToken, gin.H{})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decodeData(t, w)
	code := data["code"].(string)
	require.Len(t, code, 6)
	require.Contains(t, data["url"].(string), "https://hearth.example/signup?code="+code)

	// Joiner redeems by code through onboarding.
	w = env.do(t, http.MethodPost, "/api/onboarding/accept-invite", joinerToken, gin.H{"code": code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, familyID, decodeData(t, w)["family_id"])

	// Joiner now sees the family members.
	w = env.do(t, http.MethodGet, "/api/family/members", joinerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// A second redemption of the same code fails.
	_, lateToken := env.seedUser(t, "late@example.com")
	w = env.do(t, http.MethodPost, "/api/onboarding/accept-invite", lateToken, gin.H{"code": code})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestInviteIssueForbiddenForMember(t *testing.T) {
	env := newTestEnv(t)

	_, adminToken := env.seedUser(t, "admin@example.com")
	_, memberToken := env.seedUser(t, "member@example.com")

	w := env.do(t, http.MethodPost, "/api/onboarding/family", adminToken, gin.H{"name": "Locked Down"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/invites", adminToken, gin.H{})
	require.Equal(t, http.StatusCreated, w.Code)
	code := decodeData(t, w)["code"].(string)

	w = env.do(t, http.MethodPost, "/api/onboarding/accept-invite", memberToken, gin.H{"code": code})
	require.Equal(t, http.StatusOK, w.Code)

	// Plain members cannot issue invites.
	w = env.do(t, http.MethodPost, "/api/invites", memberToken, gin.H{})
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
}

func TestInviteRevokeOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	_, adminToken := env.seedUser(t, "admin@example.com")
	_, joinerToken := env.seedUser(t, "joiner@example.com")

	w := env.do(t, http.MethodPost, "/api/onboarding/family", adminToken, gin.H{"name": "Revokers"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/invites", adminToken, gin.H{})
	require.Equal(t, http.StatusCreated, w.Code)
	code := decodeData(t, w)["code"].(string)

	w = env.do(t, http.MethodGet, "/api/invites", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listEnvelope struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listEnvelope))
	require.Len(t, listEnvelope.Data, 1)
	inviteID := listEnvelope.Data[0]["id"].(string)

	w = env.do(t, http.MethodPost, "/api/invites/revoke", adminToken, gin.H{"invite_id": inviteID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Revoked codes cannot be redeemed.
	w = env.do(t, http.MethodPost, "/api/onboarding/accept-invite", joinerToken, gin.H{"code": code})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Revoking again reports not found.
	w = env.do(t, http.MethodPost, "/api/invites/revoke", adminToken, gin.H{"invite_id": inviteID})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAcceptInviteRequiresExactlyOneIdentifier(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "user@example.com")

	w := env.do(t, http.MethodPost, "/api/onboarding/accept-invite", token, gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/onboarding/accept-invite", token, gin.H{"code": "ABC123", "invite_id": "some-id"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAcceptInviteRejectsMalformedCode(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "user@example.com")

	for _, code := range []string{"ABC", "ABCDEF123"} {
		w := env.do(t, http.MethodPost, "/api/onboarding/accept-invite", token, gin.H{"code": code})
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	}
}

func TestFamilyScopedRoutesRequireActiveFamily(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "orphan@example.com")

	w := env.do(t, http.MethodGet, "/api/posts", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestUnverifiedEmailBlocked(t *testing.T) {
	env := newTestEnv(t)

	user := &models.User{Email: "raw@example.com", Password: "hashed", DisplayName: "raw"}
	require.NoError(t, env.db.Create(user).Error)
	token, err := env.jwt.GenerateAccessToken(auth.AccessTokenInput{UserID: user.ID})
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, "/api/onboarding/family", token, gin.H{"name": "Nope"})
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "NOT_FOUND")
}
