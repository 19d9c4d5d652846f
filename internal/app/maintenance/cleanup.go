package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hearthsocial/hearth/internal/auth"
	"github.com/hearthsocial/hearth/internal/services"
	"github.com/hearthsocial/hearth/pkg/logger"
)

// Options tunes the background cleanup jobs.
type Options struct {
	Schedule           string
	AuditRetentionDays int
	InviteGracePeriod  time.Duration
	JobTimeout         time.Duration
}

// Scheduler runs periodic hygiene jobs: expired sessions, stale email
// verifications, audit retention, and long-expired pending invites.
type Scheduler struct {
	cron     *cron.Cron
	sessions *auth.SessionService
	users    *services.UserService
	invites  *services.InviteService
	audit    *services.AuditService
	opts     Options
}

// NewScheduler constructs a Scheduler. Nil services skip their jobs.
func NewScheduler(sessions *auth.SessionService, users *services.UserService, invites *services.InviteService, audit *services.AuditService, opts Options) (*Scheduler, error) {
	if opts.Schedule == "" {
		opts.Schedule = "@hourly"
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 5 * time.Minute
	}
	if opts.InviteGracePeriod <= 0 {
		opts.InviteGracePeriod = 30 * 24 * time.Hour
	}

	s := &Scheduler{
		cron:     cron.New(),
		sessions: sessions,
		users:    users,
		invites:  invites,
		audit:    audit,
		opts:     opts,
	}

	if _, err := s.cron.AddFunc(opts.Schedule, s.runAll); err != nil {
		return nil, errors.New("maintenance: invalid schedule " + opts.Schedule)
	}
	return s, nil
}

// Start launches the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunNow executes every job once, outside the schedule.
func (s *Scheduler) RunNow() {
	s.runAll()
}

func (s *Scheduler) runAll() {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.JobTimeout)
	defer cancel()

	log := logger.WithModule("maintenance")

	if s.sessions != nil {
		if n, err := s.sessions.CleanupExpired(ctx); err != nil {
			log.Warn("session cleanup failed", zap.Error(err))
		} else if n > 0 {
			log.Info("sessions purged", zap.Int64("count", n))
		}
	}

	if s.users != nil {
		if n, err := s.users.CleanupExpiredVerifications(ctx); err != nil {
			log.Warn("verification cleanup failed", zap.Error(err))
		} else if n > 0 {
			log.Info("verifications purged", zap.Int64("count", n))
		}
	}

	if s.invites != nil {
		// Expired pending invites are already unredeemable; deletion is hygiene.
		if n, err := s.invites.CleanupExpired(ctx, s.opts.InviteGracePeriod); err != nil {
			log.Warn("invite cleanup failed", zap.Error(err))
		} else if n > 0 {
			log.Info("stale invites purged", zap.Int64("count", n))
		}
	}

	if s.audit != nil && s.opts.AuditRetentionDays > 0 {
		if n, err := s.audit.CleanupOlderThan(ctx, s.opts.AuditRetentionDays); err != nil {
			log.Warn("audit cleanup failed", zap.Error(err))
		} else if n > 0 {
			log.Info("audit logs purged", zap.Int64("count", n))
		}
	}
}
