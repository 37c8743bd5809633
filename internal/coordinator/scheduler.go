package coordinator

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/vzahanych/weather-state/internal/weather"
	"go.uber.org/zap"
)

// Scheduler periodically refreshes both holders.
type Scheduler struct {
	scheduler   *gocron.Scheduler
	coordinator *Coordinator
	last        func() (weather.Coordinate, bool)
	interval    time.Duration
	logger      *zap.Logger
}

// NewScheduler refreshes through co every interval. Ticks are skipped while
// last reports no coordinate, so an idle server does not publish errors.
func NewScheduler(co *Coordinator, last func() (weather.Coordinate, bool), interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler:   gocron.NewScheduler(time.UTC),
		coordinator: co,
		last:        last,
		interval:    interval,
		logger:      logger.With(zap.String("component", "scheduler")),
	}
}

// Start schedules the refresh job. A non-positive interval disables it.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("Periodic refresh disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().WaitForSchedule().Do(s.tick)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("Periodic refresh scheduled", zap.Duration("interval", s.interval))
	return nil
}

func (s *Scheduler) tick() {
	c, ok := s.last()
	if !ok {
		s.logger.Debug("No coordinate yet, skipping refresh")
		return
	}

	s.logger.Debug("Refreshing weather", zap.String("coordinate", c.Key()))
	if err := s.coordinator.RefreshAll(context.Background()).Err(); err != nil {
		s.logger.Warn("Periodic refresh failed", zap.Error(err))
	}
}

func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
