// Package scheduler runs the odds fetch on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/safe-legs/internal/service"
)

const fetchJobTimeout = 10 * time.Minute

// Scheduler manages scheduled odds fetch jobs
type Scheduler struct {
	cron      *cron.Cron
	fetchSvc  *service.FetchService
	log       *logrus.Logger
	mu        sync.RWMutex
	isRunning bool
	jobIDs    []cron.EntryID
}

// NewScheduler creates a scheduler evaluating cron expressions in the given
// location.
func NewScheduler(fetchSvc *service.FetchService, location *time.Location, log *logrus.Logger) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(location)),
		fetchSvc: fetchSvc,
		log:      log,
		jobIDs:   make([]cron.EntryID, 0),
	}
}

// ScheduleFetch registers an odds fetch job for each cron expression.
func (s *Scheduler) ScheduleFetch(cronExpressions []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	for _, expr := range cronExpressions {
		entryID, err := s.cron.AddFunc(expr, s.runFetch)
		if err != nil {
			return fmt.Errorf("failed to add fetch job %q: %w", expr, err)
		}
		s.jobIDs = append(s.jobIDs, entryID)
		s.log.WithField("schedule", expr).Info("Scheduled odds fetch job")
	}

	return nil
}

func (s *Scheduler) runFetch() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchJobTimeout)
	defer cancel()

	s.log.Info("Starting scheduled odds fetch")
	count, err := s.fetchSvc.FetchUpcoming(ctx)
	if err != nil {
		s.log.WithError(err).Error("Scheduled odds fetch failed")
		return
	}
	s.log.WithField("candidates", count).Info("Scheduled odds fetch completed")
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.log.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.log.Info("Scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the time of the next scheduled job run
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}

	return nextRun
}
