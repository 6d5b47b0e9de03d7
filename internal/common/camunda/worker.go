// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"counsel-workers/internal/common/config"
	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/common/metrics"
)

// HandlerFunc matches the Handle method every task worker exposes.
type HandlerFunc func(client worker.JobClient, job entities.Job)

// Recorder receives one observation per handled job.
type Recorder interface {
	RecordJob(ctx context.Context, taskType, status string, duration time.Duration)
}

// JobTracer is implemented by recorders that also open a span per job.
type JobTracer interface {
	StartJob(ctx context.Context, taskType string, jobKey, processInstanceKey int64) (context.Context, trace.Span)
}

type Worker struct {
	taskType  string
	jobWorker worker.JobWorker
	logger    logger.Logger
}

// StartWorker opens a job worker for taskType. It returns nil when the
// worker is disabled in configuration.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler HandlerFunc, rec Recorder, log logger.Logger) *Worker {
	log = log.WithFields(map[string]interface{}{"taskType": taskType})
	if !wcfg.Enabled {
		log.Info("worker disabled", nil)
		return nil
	}

	maxJobs := wcfg.MaxJobsActive
	if maxJobs <= 0 {
		maxJobs = 5
	}
	step := client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(Instrument(taskType, handler, rec, log))).
		MaxJobsActive(maxJobs)
	if wcfg.Timeout > 0 {
		step = step.Timeout(time.Duration(wcfg.Timeout) * time.Millisecond)
	}

	w := &Worker{taskType: taskType, jobWorker: step.Open(), logger: log}
	log.Info("worker started", map[string]interface{}{
		"maxJobsActive": maxJobs,
		"timeoutMs":     wcfg.Timeout,
	})
	return w
}

// Instrument times each job, records it and converts a handler panic into
// a logged failure so the job worker keeps polling.
func Instrument(taskType string, handler HandlerFunc, rec Recorder, log logger.Logger) HandlerFunc {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		status := "handled"
		ctx := context.Background()
		span := trace.SpanFromContext(ctx)
		if t, ok := rec.(JobTracer); ok {
			ctx, span = t.StartJob(ctx, taskType, job.Key, job.ProcessInstanceKey)
		}
		defer func() {
			if r := recover(); r != nil {
				status = "panic"
				metrics.WorkerJobsFailed.WithLabelValues(taskType, "PANIC").Inc()
				span.SetStatus(codes.Error, fmt.Sprint(r))
				log.Error("handler panicked", map[string]interface{}{
					"jobKey":  job.Key,
					"panic":   fmt.Sprint(r),
					"traceId": span.SpanContext().TraceID().String(),
				})
			}
			elapsed := time.Since(start)
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
			span.SetAttributes(attribute.String("job.status", status))
			span.End()
			if rec != nil {
				rec.RecordJob(ctx, taskType, status, elapsed)
			}
		}()
		handler(client, job)
	}
}

func (w *Worker) Close() {
	if w == nil {
		return
	}
	w.logger.Info("stopping worker", nil)
	w.jobWorker.Close()
	w.jobWorker.AwaitClose()
}
