// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task_type"},
	)

	LeadClassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_classifications_total",
			Help: "Lead scoring outcomes by status label",
		},
		[]string{"status"},
	)

	ProgramRankings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "program_rankings_total",
			Help: "Number of ranking runs performed",
		},
	)

	CatalogSource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_loads_total",
			Help: "Catalog loads by source (cache, elasticsearch, postgres)",
		},
		[]string{"source"},
	)

	CasesOverdue = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cases_overdue_total",
			Help: "NEW cases found past their first-contact SLA",
		},
	)
)
