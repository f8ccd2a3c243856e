package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики пайплайна Scheduler → Dispatcher → Worker.
var (
	// RunsCreated — количество runs, созданных планировщиком.
	RunsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chronos_scheduler_runs_created_total",
		Help: "Runs materialized by the scheduler",
	})

	// InvalidSchedules — срабатывания с некорректным cron/таймзоной.
	// Рост счётчика — операционный алерт: такие jobs пропускаются,
	// но курсор не двигается.
	InvalidSchedules = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chronos_scheduler_invalid_schedules_total",
		Help: "Due cursors skipped because the schedule failed to evaluate",
	})

	// ClaimConflicts — курсоры, проигранные конкурентному экземпляру.
	ClaimConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chronos_scheduler_claim_conflicts_total",
		Help: "Cursor advances lost to a concurrent scheduler instance",
	})

	// TasksPublished — задачи, опубликованные Dispatcher'ом.
	TasksPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chronos_dispatcher_tasks_published_total",
		Help: "Execution tasks published to the work queue",
	})

	// PublishFailures — неудачные публикации. Run остаётся claimed,
	// дальнейшая судьба — у sweep'а.
	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chronos_dispatcher_publish_failures_total",
		Help: "Execution task publish failures",
	})

	// Attempts — попытки выполнения по статусу.
	Attempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronos_worker_attempts_total",
		Help: "Execution attempts recorded by workers",
	}, []string{"status"})

	// ActionLatency — длительность действий.
	ActionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chronos_worker_action_latency_seconds",
		Help:    "Wall-clock latency of job actions",
		Buckets: prometheus.DefBuckets,
	})
)
