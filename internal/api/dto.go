package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Chronos/internal/domain"
	"github.com/shaiso/Chronos/internal/schedule"
)

// Значения по умолчанию для новых jobs.
const (
	defaultRetryMax    = 3
	defaultTimeoutMs   = 15000
	defaultConcurrency = 1
)

// Project DTOs

// CreateProjectRequest — запрос на создание проекта.
type CreateProjectRequest struct {
	Name string `json:"name"`
}

// ProjectResponse — ответ с проектом.
type ProjectResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectFromDomain конвертирует domain.Project в ProjectResponse.
func ProjectFromDomain(p domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
	}
}

// Job DTOs

// CreateJobRequest — запрос на создание job.
type CreateJobRequest struct {
	Name         string            `json:"name"`
	Kind         string            `json:"kind"`
	CronExpr     string            `json:"cron_expr"`
	Timezone     string            `json:"timezone,omitempty"`
	TargetURL    string            `json:"target_url,omitempty"`
	Method       string            `json:"method,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	BodyTemplate map[string]any    `json:"body_template,omitempty"`
	RetryMax     *int              `json:"retry_max,omitempty"`
	TimeoutMs    *int              `json:"timeout_ms,omitempty"`
	Concurrency  *int              `json:"concurrency,omitempty"`
}

// Validate проверяет запрос и возвращает первую ошибку валидации.
func (r *CreateJobRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !domain.ActionKind(r.Kind).Valid() {
		return fmt.Errorf("unknown kind %q", r.Kind)
	}
	if r.CronExpr == "" {
		return fmt.Errorf("cron_expr is required")
	}
	tz := r.Timezone
	if tz == "" {
		tz = "UTC"
	}
	if err := schedule.Validate(r.CronExpr, tz); err != nil {
		return err
	}
	if domain.ActionKind(r.Kind) == domain.ActionKindHTTP && r.TargetURL == "" {
		return fmt.Errorf("target_url is required for http jobs")
	}
	if r.RetryMax != nil && *r.RetryMax < 0 {
		return fmt.Errorf("retry_max must be non-negative")
	}
	if r.TimeoutMs != nil && *r.TimeoutMs <= 0 {
		return fmt.Errorf("timeout_ms must be positive")
	}
	if r.Concurrency != nil && *r.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	return nil
}

// ToDomain собирает domain.Job из запроса с заполнением defaults.
func (r *CreateJobRequest) ToDomain(projectID uuid.UUID) *domain.Job {
	timezone := r.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	job := &domain.Job{
		ID:           uuid.New(),
		ProjectID:    projectID,
		Name:         r.Name,
		Kind:         domain.ActionKind(r.Kind),
		CronExpr:     r.CronExpr,
		Timezone:     timezone,
		TargetURL:    r.TargetURL,
		Method:       r.Method,
		Headers:      r.Headers,
		BodyTemplate: r.BodyTemplate,
		RetryMax:     defaultRetryMax,
		TimeoutMs:    defaultTimeoutMs,
		Concurrency:  defaultConcurrency,
		CreatedAt:    time.Now(),
	}

	if r.RetryMax != nil {
		job.RetryMax = *r.RetryMax
	}
	if r.TimeoutMs != nil {
		job.TimeoutMs = *r.TimeoutMs
	}
	if r.Concurrency != nil {
		job.Concurrency = *r.Concurrency
	}

	return job
}

// UpdateJobTuningRequest — запрос на изменение настроек retry/timeout.
type UpdateJobTuningRequest struct {
	RetryMax    *int `json:"retry_max,omitempty"`
	TimeoutMs   *int `json:"timeout_ms,omitempty"`
	Concurrency *int `json:"concurrency,omitempty"`
}

// JobResponse — ответ с job.
type JobResponse struct {
	ID           uuid.UUID         `json:"id"`
	ProjectID    uuid.UUID         `json:"project_id"`
	Name         string            `json:"name"`
	Kind         string            `json:"kind"`
	CronExpr     string            `json:"cron_expr"`
	Timezone     string            `json:"timezone"`
	TargetURL    string            `json:"target_url,omitempty"`
	Method       string            `json:"method,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	BodyTemplate map[string]any    `json:"body_template,omitempty"`
	RetryMax     int               `json:"retry_max"`
	TimeoutMs    int               `json:"timeout_ms"`
	Concurrency  int               `json:"concurrency"`
	Paused       bool              `json:"paused"`
	NextAt       *time.Time        `json:"next_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// JobFromDomain конвертирует domain.Job в JobResponse.
// nextAt — позиция курсора job (nil, если курсор не загружался).
func JobFromDomain(j *domain.Job, nextAt *time.Time) JobResponse {
	return JobResponse{
		ID:           j.ID,
		ProjectID:    j.ProjectID,
		Name:         j.Name,
		Kind:         string(j.Kind),
		CronExpr:     j.CronExpr,
		Timezone:     j.Timezone,
		TargetURL:    j.TargetURL,
		Method:       j.Method,
		Headers:      j.Headers,
		BodyTemplate: j.BodyTemplate,
		RetryMax:     j.RetryMax,
		TimeoutMs:    j.TimeoutMs,
		Concurrency:  j.Concurrency,
		Paused:       j.Paused,
		NextAt:       nextAt,
		CreatedAt:    j.CreatedAt,
	}
}

// Run DTOs

// RunResponse — ответ с run.
type RunResponse struct {
	ID               uuid.UUID `json:"id"`
	JobID            uuid.UUID `json:"job_id"`
	ProjectID        uuid.UUID `json:"project_id"`
	TriggerAt        time.Time `json:"trigger_at"`
	Status           string    `json:"status"`
	DispatchAttempts int       `json:"dispatch_attempts"`
	DurationMs       *int64    `json:"duration_ms,omitempty"`
	FirstError       string    `json:"first_error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	return RunResponse{
		ID:               r.ID,
		JobID:            r.JobID,
		ProjectID:        r.ProjectID,
		TriggerAt:        r.TriggerAt,
		Status:           string(r.Status),
		DispatchAttempts: r.DispatchAttempts,
		DurationMs:       r.DurationMs,
		FirstError:       r.FirstError,
		CreatedAt:        r.CreatedAt,
	}
}

// Attempt DTOs

// AttemptResponse — ответ с попыткой выполнения.
type AttemptResponse struct {
	ID              uuid.UUID `json:"id"`
	RunID           uuid.UUID `json:"run_id"`
	AttemptNo       int       `json:"attempt_no"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	Status          string    `json:"status"`
	HTTPStatus      *int      `json:"http_status,omitempty"`
	LatencyMs       int64     `json:"latency_ms"`
	ResponseExcerpt string    `json:"response_excerpt,omitempty"`
}

// AttemptFromDomain конвертирует domain.Attempt в AttemptResponse.
func AttemptFromDomain(a domain.Attempt) AttemptResponse {
	return AttemptResponse{
		ID:              a.ID,
		RunID:           a.RunID,
		AttemptNo:       a.AttemptNo,
		StartedAt:       a.StartedAt,
		FinishedAt:      a.FinishedAt,
		Status:          string(a.Status),
		HTTPStatus:      a.HTTPStatus,
		LatencyMs:       a.LatencyMs,
		ResponseExcerpt: a.ResponseExcerpt,
	}
}
