// Package scheduler re-evaluates boards on a fixed cadence and pushes the
// refreshed results to stream subscribers.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/service"
	"github.com/yourusername/prop-edge/internal/stream"
)

// Scheduler manages periodic board refresh jobs
type Scheduler struct {
	cron      *cron.Cron
	evaluator *service.Evaluator
	hub       *stream.Hub
	logger    *logrus.Logger

	mu        sync.Mutex
	isRunning bool
	jobIDs    []cron.EntryID
}

// NewScheduler creates a new scheduler. The hub may be nil when no stream
// consumers exist.
func NewScheduler(evaluator *service.Evaluator, hub *stream.Hub, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		evaluator: evaluator,
		hub:       hub,
		logger:    logger,
		jobIDs:    make([]cron.EntryID, 0),
	}
}

// ScheduleBoardRefresh schedules a recurring refresh of one (sport, scope)
// board. The job timeout stays just under the interval so cycles never
// overlap themselves.
func (s *Scheduler) ScheduleBoardRefresh(sport, scope string, intervalSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if intervalSeconds < 10 {
		intervalSeconds = 10
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(intervalSeconds-1)*time.Second)
		defer cancel()

		results, err := s.evaluator.Refresh(ctx, sport, scope)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"sport": sport,
				"scope": scope,
			}).Error("Scheduled board refresh failed")
			return
		}

		s.logger.WithFields(logrus.Fields{
			"sport":   sport,
			"scope":   scope,
			"markets": len(results),
		}).Info("Scheduled board refresh complete")

		if s.hub != nil {
			s.hub.Broadcast(stream.BoardUpdate{Sport: sport, Scope: scope, Results: results})
		}
	}

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", intervalSeconds), jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add refresh job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{
		"sport":    sport,
		"scope":    scope,
		"interval": intervalSeconds,
	}).Info("Scheduled board refresh")

	return nil
}

// Start begins executing scheduled jobs
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop halts job execution and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
}
