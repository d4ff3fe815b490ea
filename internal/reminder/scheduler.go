package reminder

import (
	"context"
	"time"

	"github.com/flarebyte/shiftlog/internal/log"
)

// DefaultInterval is how often the reminder fires.
const DefaultInterval = time.Hour

// Scheduler fires the reminder tag on a fixed interval. Delivery is best
// effort: a failed fire is logged and the next tick tries again as usual.
type Scheduler struct {
	issuer   *Issuer
	interval time.Duration
}

// NewScheduler returns a Scheduler for issuer.
func NewScheduler(issuer *Issuer, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{issuer: issuer, interval: interval}
}

// Fire handles one trigger. Tags other than the issuer's are ignored.
func (s *Scheduler) Fire(ctx context.Context, tag string) error {
	if tag != s.issuer.Tag() {
		log.GetLogger().WithField("tag", tag).Debug("ignoring unknown trigger")
		return nil
	}
	_, err := s.issuer.Issue(ctx)
	return err
}

// Run fires every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Fire(ctx, s.issuer.Tag()); err != nil {
				log.GetLogger().WithError(err).Warn("reminder delivery failed")
			}
		}
	}
}
