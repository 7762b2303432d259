// Package scheduler runs a task once at startup and then on a cron schedule.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// Scheduler wraps robfig/cron. Overlapping ticks are skipped, not queued.
type Scheduler struct {
	cron *cron.Cron
	spec string
	name string
	task Task
	log  *zap.Logger
}

func New(spec, name string, task Task, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("scheduler")
	cl := cronLogger{s: logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		spec: spec,
		name: name,
		task: task,
		log:  logger,
	}
}

// Start registers the job, starts the cron loop and runs the task once
// immediately without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.spec, func() { s.runOnce(ctx) })
	if err != nil {
		return fmt.Errorf("cron.AddFunc(%q): %w", s.spec, err)
	}

	s.cron.Start()
	s.log.Info("cron started", zap.String("spec", s.spec), zap.String("task", s.name))

	// through the cron chain so it is skipped if a tick is already running
	go s.cron.Entry(id).WrappedJob.Run()
	return nil
}

// Stop halts scheduling and waits for a running task to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("cron stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.task(ctx); err != nil {
		s.log.Error("task failed", zap.String("task", s.name), zap.Error(err))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
