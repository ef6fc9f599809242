package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Warmer is the part of dashboard.Service the scheduler drives.
type Warmer interface {
	Warm(ctx context.Context, siteIDs []string, span time.Duration) error
}

// Scheduler periodically refetches the configured sites so dashboard requests
// hit a warm timeseries cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	warmer    Warmer
	sites     []string
	span      time.Duration
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler.
func New(sites []string, span, interval time.Duration, warmer Warmer) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		warmer:    warmer,
		sites:     sites,
		span:      span,
		interval:  interval,
		timeout:   time.Minute,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.sites) == 0 {
		slog.Info("scheduler: no warm sites configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	if err := s.warmer.Warm(ctx, s.sites, s.span); err != nil {
		slog.Warn("scheduler: cache warm failed", "sites", s.sites, "err", err)
		return
	}
	slog.Info("scheduler: cache warmed", "sites", s.sites, "elapsed", time.Since(started))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
