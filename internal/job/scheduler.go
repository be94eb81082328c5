// Package job runs periodic housekeeping.
package job

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dtroode/securemail-server/internal/logger"
)

// Job is a unit of periodic work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs jobs on cron specs. A run is skipped while the previous one is still going.
type Scheduler struct {
	cron    *cron.Cron
	entries map[string]cron.EntryID
	logger  *logger.Logger
	ctx     context.Context
}

func NewScheduler(logger *logger.Logger) *Scheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Scheduler{
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]cron.EntryID),
		logger:  logger,
		ctx:     context.Background(),
	}
}

func (s *Scheduler) Add(job Job, spec string) error {
	id, err := s.cron.AddFunc(spec, s.wrap(job, spec))
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", job.Name(), err)
	}
	s.entries[job.Name()] = id

	s.logger.Info("Scheduler: job scheduled",
		"job", job.Name(),
		"spec", spec)
	return nil
}

// Start runs the scheduler in the background. Jobs receive ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) wrap(job Job, spec string) func() {
	var running atomic.Bool
	return func() {
		if !running.CompareAndSwap(false, true) {
			s.logger.Info("Scheduler: job skipped, still running",
				"job", job.Name(),
				"spec", spec)
			return
		}
		defer running.Store(false)

		start := time.Now()
		err := job.Run(s.ctx)
		elapsed := time.Since(start)
		if err != nil {
			s.logger.Error("Scheduler: job failed",
				"job", job.Name(),
				"duration", elapsed,
				"error", err.Error())
			return
		}
		s.logger.Debug("Scheduler: job finished",
			"job", job.Name(),
			"duration", elapsed)
	}
}
