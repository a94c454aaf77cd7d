package service

import (
	"context"
	"time"

	"github.com/merchkit/countdown/internal/app/repository"
	"github.com/merchkit/countdown/internal/infra/metrics"
	"go.uber.org/zap"
)

// ExpirySweeper periodically clears the active flag on timers whose window
// closed more than a retention period ago. Ended timers are already invisible
// to the storefront query; sweeping them keeps the active index small. The
// flag flip is indistinguishable from a merchant toggling the timer off.
type ExpirySweeper struct {
	logger    *zap.Logger
	repo      repository.TimerRepository
	retention time.Duration
	interval  time.Duration
	stopChan  chan struct{}
}

// NewExpirySweeper creates a sweeper that deactivates timers ended more than
// retention ago, checking once per interval.
func NewExpirySweeper(logger *zap.Logger, repo repository.TimerRepository, retention, interval time.Duration) *ExpirySweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &ExpirySweeper{
		logger:    logger,
		repo:      repo,
		retention: retention,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the periodic sweep.
func (s *ExpirySweeper) Start() {
	go s.run()
}

// Stop stops the periodic sweep.
func (s *ExpirySweeper) Stop() {
	close(s.stopChan)
}

func (s *ExpirySweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			s.logger.Info("expiry sweeper stopped")
			return
		}
	}
}

func (s *ExpirySweeper) sweep() {
	ctx := context.Background()
	cutoff := time.Now().UTC().Add(-s.retention)

	affected, err := s.repo.DeactivateEndedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to deactivate ended timers", zap.Error(err))
		return
	}

	if affected > 0 {
		metrics.SweptTimers.Add(float64(affected))
		s.logger.Info("deactivated ended timers",
			zap.Int64("count", affected),
			zap.Time("ended_before", cutoff),
		)
	}
}
