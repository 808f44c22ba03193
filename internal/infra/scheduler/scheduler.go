// internal/infra/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"econ_release_notifier/internal/app"
	"econ_release_notifier/internal/apperr"
)

// runTimeout bounds one scheduled run end to end, fetch through persist.
const runTimeout = 5 * time.Minute

// Observer receives every run's report and outcome, e.g. for metrics.
type Observer interface {
	ObserveRun(report *app.RunReport, err error)
}

// RunScheduler triggers notification runs on a cron spec. Specs are
// interpreted in UTC so they line up with the run window arithmetic. A tick
// that fires while the previous run is still going is skipped, never stacked.
type RunScheduler struct {
	cronEngine *cron.Cron
	runService app.RunService
	logger     *logrus.Logger
	observer   Observer
	cronSpec   string
}

func NewRunScheduler(
	runService app.RunService,
	logger *logrus.Logger,
	observer Observer,
	cronSpec string,
) *RunScheduler {
	return &RunScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
		),
		runService: runService,
		logger:     logger,
		observer:   observer,
		cronSpec:   cronSpec,
	}
}

// Start registers the run job and starts the cron engine. A run that fails
// is logged and observed but never stops the daemon; the next tick retries
// the whole cycle.
func (s *RunScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.cronSpec, s.runOnce)
	if err != nil {
		return apperr.UsageWrap(err,
			fmt.Sprintf("invalid cron spec %q", s.cronSpec),
			`use a five-field cron expression, e.g. "*/15 * * * *"`)
	}
	s.cronEngine.Start()
	s.logger.WithField("cron", s.cronSpec).Info("scheduler started")
	return nil
}

func (s *RunScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	report, err := s.runService.Run(ctx)
	if s.observer != nil {
		s.observer.ObserveRun(report, err)
	}
	if err != nil {
		s.logger.WithError(err).Error("scheduled run failed")
	}
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (s *RunScheduler) Stop() {
	s.logger.Info("stopping scheduler")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
