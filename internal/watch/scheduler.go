package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps gocron for the interval polling fallback. Some network
// filesystems never deliver inotify events; a periodic trigger covers them.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("Starting poll scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping poll scheduler")
	return s.scheduler.Shutdown()
}

// SchedulePoll runs task every interval. Returns the job ID for later management.
func (s *Scheduler) SchedulePoll(interval time.Duration, task func()) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("poll interval must be positive, got %s", interval)
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName("manuscript-poll"),
	)
	if err != nil {
		return "", fmt.Errorf("create poll job: %w", err)
	}
	return job.ID().String(), nil
}
