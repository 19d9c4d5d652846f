package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hearthsocial/hearth/internal/api"
	"github.com/hearthsocial/hearth/internal/app"
	"github.com/hearthsocial/hearth/internal/app/maintenance"
	"github.com/hearthsocial/hearth/internal/auth"
	"github.com/hearthsocial/hearth/internal/database"
	"github.com/hearthsocial/hearth/internal/services"
	"github.com/hearthsocial/hearth/pkg/logger"
	"github.com/hearthsocial/hearth/pkg/mail"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "hearth:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Logging.Level); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.WithModule("server")

	db, err := database.Open(cfg.Database.ToDatabase())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := database.AutoMigrateAndSeed(db); err != nil {
		return err
	}

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:         cfg.Auth.JWTSecret,
		Issuer:         cfg.Auth.JWTIssuer,
		AccessTokenTTL: cfg.Auth.AccessTokenTTL,
	})
	if err != nil {
		return err
	}
	sessionService, err := auth.NewSessionService(db, jwtService, auth.SessionConfig{
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	})
	if err != nil {
		return err
	}

	auditService, err := services.NewAuditService(db)
	if err != nil {
		return err
	}
	userService, err := services.NewUserService(db, auditService,
		services.WithLockoutPolicy(cfg.Auth.LockoutThreshold, cfg.Auth.LockoutDuration))
	if err != nil {
		return err
	}
	familyService, err := services.NewFamilyService(db, auditService)
	if err != nil {
		return err
	}
	inviteService, err := services.NewInviteService(db, familyService, auditService,
		services.WithInviteBaseURL(cfg.Server.BaseURL),
		services.WithInviteExpiry(cfg.Invites.TTL),
		services.WithInviteCodeLength(cfg.Invites.CodeLength),
		services.WithInviteMaxAttempts(cfg.Invites.MaxAttempts))
	if err != nil {
		return err
	}
	postService, err := services.NewPostService(db, auditService)
	if err != nil {
		return err
	}
	mailer, err := mail.NewSMTPMailer(cfg.SMTP.ToMail())
	if err != nil {
		return err
	}
	eventService, err := services.NewEventService(db, familyService, auditService, mailer)
	if err != nil {
		return err
	}

	scheduler, err := maintenance.NewScheduler(sessionService, userService, inviteService, auditService, maintenance.Options{
		Schedule:           cfg.Maintenance.Schedule,
		AuditRetentionDays: cfg.Maintenance.AuditRetentionDays,
		InviteGracePeriod:  cfg.Maintenance.InviteGracePeriod,
	})
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.Dependencies{
		DB:             db,
		JWT:            jwtService,
		Sessions:       sessionService,
		Users:          userService,
		Families:       familyService,
		Invites:        inviteService,
		Posts:          postService,
		Events:         eventService,
		Audit:          auditService,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		RateWindow:     cfg.Server.RateWindow,
	})

	server := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
