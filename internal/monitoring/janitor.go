package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/yellownote-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// purgeTimeout bounds a single cleanup run.
const purgeTimeout = 30 * time.Second

// SessionJanitor periodically deletes expired sessions on a cron schedule.
type SessionJanitor struct {
	sessions services.SessionServiceProvider
	cron     *cron.Cron
}

// NewSessionJanitor creates a janitor that runs on the given standard cron
// expression (descriptors such as "@every 1h" are accepted).
func NewSessionJanitor(sessions services.SessionServiceProvider, schedule string) (*SessionJanitor, error) {
	j := &SessionJanitor{
		sessions: sessions,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
	if _, err := j.cron.AddFunc(schedule, j.Purge); err != nil {
		return nil, fmt.Errorf("invalid session cleanup schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start begins running scheduled purges in the background.
func (j *SessionJanitor) Start() {
	log.Info().Msg("Starting session janitor...")
	j.cron.Start()
}

// Stop halts the schedule and waits for a running purge to finish.
func (j *SessionJanitor) Stop() {
	<-j.cron.Stop().Done()
	log.Info().Msg("Stopped session janitor.")
}

// Purge deletes expired sessions once.
func (j *SessionJanitor) Purge() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	purged, err := j.sessions.PurgeExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("SessionJanitor: Failed to purge expired sessions")
		return
	}
	if purged > 0 {
		log.Info().Int64("purged", purged).Msg("SessionJanitor: Removed expired sessions")
	}
}
