// internal/scheduler/cron.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"counsel-workers/internal/common/logger"
)

const DefaultSchedule = "@every 15m"

// cronLogger routes robfig/cron's own messages into the service logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) fields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, l.fields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := l.fields(keysAndValues)
	fields["error"] = err
	l.log.Error(msg, fields)
}

// Scheduler runs the SLA sweep on a cron schedule. Overlapping runs are
// skipped rather than queued.
type Scheduler struct {
	cron    *cron.Cron
	sweeper *Sweeper
	timeout time.Duration
	logger  logger.Logger
}

func New(sweeper *Sweeper, log logger.Logger) *Scheduler {
	cl := cronLogger{log: log.WithFields(map[string]interface{}{"component": "cron"})}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		sweeper: sweeper,
		timeout: time.Minute,
		logger:  log,
	}
}

// Start registers the sweep and starts the cron loop. An empty schedule uses
// DefaultSchedule.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if _, err := s.sweeper.Sweep(ctx); err != nil {
			s.logger.Error("sla sweep failed", map[string]interface{}{"error": err})
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	s.logger.Info("sla sweeper scheduled", map[string]interface{}{"schedule": schedule})
	return nil
}

// Stop halts the loop and waits for a running sweep, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("sla sweep still running at shutdown", nil)
	}
}
