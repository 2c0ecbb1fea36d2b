package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Refresher is the job the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler periodically refreshes the readings snapshot.
type Scheduler struct {
	scheduler *gocron.Scheduler
	target    Refresher
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler.
func New(interval, timeout time.Duration, target Refresher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		target:    target,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the polling job and starts the underlying scheduler.
// The first refresh runs immediately.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	_, err := s.scheduler.Every(interval).Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	timeout := s.timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.target.Refresh(ctx); err != nil {
		log.Printf("scheduler: refresh failed: %v", err)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
