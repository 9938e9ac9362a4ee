package collector

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/xdrpull/xdrpull/internal/pkg/logger"
)

// Scheduler triggers retrieval runs on a cron schedule. Runs never overlap;
// if a run is still in flight when the schedule fires, the tick is skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
	log    *logger.Logger

	runMutex  sync.Mutex
	isRunning bool
}

// NewScheduler creates a Scheduler for the given standard cron schedule.
func NewScheduler(runner *Runner, schedule string, log *logger.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cron schedule: %w", err)
	}

	s := &Scheduler{
		cron:   cron.New(),
		runner: runner,
		log:    log,
	}

	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) tick() {
	s.runMutex.Lock()
	if s.isRunning {
		s.runMutex.Unlock()
		s.log.Warn("Previous run still in flight, skipping scheduled run")
		return
	}
	s.isRunning = true
	s.runMutex.Unlock()

	defer func() {
		s.runMutex.Lock()
		s.isRunning = false
		s.runMutex.Unlock()
	}()

	if _, err := s.runner.Run(context.Background()); err != nil {
		s.log.ErrorWithErr(err, "Scheduled run failed")
	}
}

// Start begins firing scheduled runs.
func (s *Scheduler) Start() {
	s.log.Info("Scheduler started")
	s.cron.Start()
}

// Stop stops the schedule and returns a context that completes when any
// in-flight run callback has finished.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("Scheduler stopping")
	return s.cron.Stop()
}
