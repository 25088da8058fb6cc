// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineJobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_jobs_processed_total",
			Help: "Total number of postings processed by the pipeline",
		},
		[]string{"status"},
	)

	PipelineStageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_failures_total",
			Help: "Total number of best-effort stage failures",
		},
		[]string{"stage"},
	)

	SourceResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_results_total",
			Help: "Postings returned per source",
		},
		[]string{"source", "tier"},
	)

	SourceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_failures_total",
			Help: "Failed source calls, including timeouts and blocks",
		},
		[]string{"source", "tier"},
	)

	AICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_calls_total",
			Help: "External AI calls attempted",
		},
		[]string{"op"},
	)

	AIFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_fallbacks_total",
			Help: "AI operations answered by a fallback value",
		},
		[]string{"op", "reason"},
	)

	SchedulerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_runs_total",
			Help: "Scheduler invocations by outcome",
		},
		[]string{"outcome"},
	)

	SchedulerUsersProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_users_processed_total",
			Help: "Users processed across all scheduler runs",
		},
	)
)
