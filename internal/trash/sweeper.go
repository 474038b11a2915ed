package trash

import (
	"context"
	"log/slog"
	"time"
)

// Purger permanently removes notes whose trash retention has elapsed.
type Purger interface {
	AutoPurge() (int, error)
}

// Sweeper runs a Purger once on start, to catch up on time that passed while
// the process was down, and then on every tick until its context ends.
type Sweeper struct {
	purger   Purger
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a sweeper. A non-positive interval defaults to one hour.
func NewSweeper(p Purger, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{purger: p, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("trash sweeper started", slog.String("interval", s.interval.String()))
	s.sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("trash sweeper stopped")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	n, err := s.purger.AutoPurge()
	if err != nil {
		s.logger.Error("trash sweep failed", slog.String("error", err.Error()))
		return
	}
	if n > 0 {
		s.logger.Info("trash sweep purged notes", slog.Int("count", n))
	} else {
		s.logger.Debug("trash sweep: nothing to purge")
	}
}
