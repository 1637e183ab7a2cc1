package bot

import (
	"context"
	"time"

	"gitlab.com/yelinaung/sushi-bot/internal/logger"
)

// SessionSweepInterval is how often idle calculators are dropped.
const SessionSweepInterval = 10 * time.Minute

// startSessionSweeper periodically removes expired calculator sessions so
// abandoned meals do not pile up in memory.
func (b *Bot) startSessionSweeper(ctx context.Context) {
	ticker := time.NewTicker(SessionSweepInterval)
	defer ticker.Stop()

	logger.Log.Info().Dur("ttl", b.cfg.SessionTTL).Msg("Session sweeper started")

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Session sweeper stopped")
			return
		case <-ticker.C:
			b.sweepSessions()
		}
	}
}

// sweepSessions drops expired sessions once.
func (b *Bot) sweepSessions() int {
	removed := b.sessions.Sweep()
	if removed > 0 {
		logger.Log.Debug().
			Int("removed", removed).
			Int("remaining", b.sessions.Len()).
			Msg("Swept expired calculator sessions")
	}
	return removed
}
