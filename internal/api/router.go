package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/hearthsocial/hearth/internal/auth"
	"github.com/hearthsocial/hearth/internal/handlers"
	"github.com/hearthsocial/hearth/internal/middleware"
	"github.com/hearthsocial/hearth/internal/services"
)

// Dependencies bundles everything the router needs.
type Dependencies struct {
	DB       *gorm.DB
	JWT      *auth.JWTService
	Sessions *auth.SessionService
	Users    *services.UserService
	Families *services.FamilyService
	Invites  *services.InviteService
	Posts    *services.PostService
	Events   *services.EventService
	Audit    *services.AuditService

	AllowedOrigins []string
	RateLimit      int
	RateWindow     time.Duration
}

// NewRouter wires middleware and routes into a gin engine.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.SecurityHeaders(),
		middleware.CORS(middleware.CORSConfig{AllowedOrigins: deps.AllowedOrigins}),
	)
	router.NoRoute(middleware.NotFoundHandler())

	limiter := middleware.NewRateLimiter(deps.RateLimit, deps.RateWindow)

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Sessions)
	inviteHandler := handlers.NewInviteHandler(deps.Invites)
	onboardingHandler := handlers.NewOnboardingHandler(deps.Users, deps.Families, deps.Invites)
	familyHandler := handlers.NewFamilyHandler(deps.Families)
	postHandler := handlers.NewPostHandler(deps.Posts)
	eventHandler := handlers.NewEventHandler(deps.Events)
	profileHandler := handlers.NewProfileHandler(deps.Users)
	auditHandler := handlers.NewAuditHandler(deps.Audit)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	router.GET("/health/live", healthHandler.Live)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(limiter.Middleware())

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/verify-email", authHandler.VerifyEmail)

		authed := authGroup.Group("")
		authed.Use(middleware.RequireAuth(deps.JWT))
		authed.POST("/logout", authHandler.Logout)
		authed.GET("/me", authHandler.Me)
	}

	// Onboarding needs auth and a verified email, but no active family yet.
	onboarding := api.Group("/onboarding")
	onboarding.Use(middleware.RequireAuth(deps.JWT))
	{
		onboarding.POST("/family", onboardingHandler.CreateFamily)
		onboarding.POST("/accept-invite", onboardingHandler.AcceptInvite)
	}

	profile := api.Group("/profile")
	profile.Use(middleware.RequireAuth(deps.JWT))
	{
		profile.PATCH("", profileHandler.Update)
		profile.POST("/active-family", profileHandler.SetActiveFamily)
	}

	// Everything below runs in the resolved family context.
	scoped := api.Group("")
	scoped.Use(middleware.RequireAuth(deps.JWT), middleware.RequireFamily(deps.Users, deps.Families))
	{
		scoped.GET("/family", familyHandler.Get)
		scoped.GET("/family/members", familyHandler.ListMembers)
		scoped.PATCH("/family/members/:userId", familyHandler.UpdateMember)

		scoped.POST("/invites", inviteHandler.Create)
		scoped.GET("/invites", inviteHandler.List)
		scoped.POST("/invites/revoke", inviteHandler.Revoke)

		scoped.POST("/posts", postHandler.Create)
		scoped.GET("/posts", postHandler.List)
		scoped.POST("/posts/:postId/comments", postHandler.AddComment)
		scoped.GET("/posts/:postId/comments", postHandler.ListComments)
		scoped.POST("/posts/:postId/likes", postHandler.Like)
		scoped.DELETE("/posts/:postId/likes", postHandler.Unlike)

		scoped.POST("/events", eventHandler.Create)
		scoped.GET("/events", eventHandler.List)
		scoped.GET("/events/:eventId", eventHandler.Get)
		scoped.POST("/events/:eventId/rsvp", eventHandler.RSVP)
		scoped.GET("/events/:eventId/rsvps", eventHandler.ListRSVPs)
		scoped.POST("/events/:eventId/updates", eventHandler.CreateUpdate)
		scoped.GET("/events/:eventId/updates", eventHandler.ListUpdates)
		scoped.POST("/events/:eventId/invitations", eventHandler.InviteMembers)

		scoped.GET("/audit", auditHandler.List)
	}

	return router
}
