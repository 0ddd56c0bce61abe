package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"zapbot/api/internal/auth"
)

type Scheduler struct {
	cron *cron.Cron
	auth *auth.Service
	log  zerolog.Logger
}

func NewScheduler(authService *auth.Service, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron: c,
		auth: authService,
		log:  log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 */1 * * *", s.cleanupTokens); err != nil { // hourly
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for a running cleanup to finish, up to a short grace period.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) cleanupTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.auth.CleanupExpiredTokens(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("token cleanup failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("expired tokens removed")
	}
}
