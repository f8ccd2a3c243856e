package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Chronos/internal/repo"
	"github.com/shaiso/Chronos/internal/schedule"
)

// ListJobs возвращает список jobs с фильтрацией.
// GET /api/v1/jobs?project_id=...&limit=...&offset=...
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := repo.JobFilter{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}

	if projectIDStr := r.URL.Query().Get("project_id"); projectIDStr != "" {
		projectID, err := uuid.Parse(projectIDStr)
		if err != nil {
			BadRequest(w, "invalid project_id")
			return
		}
		filter.ProjectID = &projectID
	}

	jobs, err := h.jobRepo.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]JobResponse, len(jobs))
	for i := range jobs {
		result[i] = JobFromDomain(&jobs[i], nil)
	}

	List(w, result, len(result))
}

// CreateJob создаёт новый job вместе с fire-курсором.
// POST /api/v1/projects/{id}/jobs
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid project id")
		return
	}

	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		BadRequest(w, err.Error())
		return
	}

	// Проверяем, что проект существует
	if _, err := h.projectRepo.GetByID(r.Context(), projectID); err != nil {
		HandleRepoError(w, h.logger, err, "project not found")
		return
	}

	job := req.ToDomain(projectID)

	// Первое срабатывание — строго после момента создания
	nextAt, err := schedule.NextFire(job.CronExpr, job.Timezone, time.Now())
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	if err := h.jobRepo.CreateWithCursor(r.Context(), job, nextAt); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, JobFromDomain(job, &nextAt))
}

// GetJob возвращает job по ID вместе с позицией курсора.
// GET /api/v1/jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid job id")
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "job not found") {
		return
	}

	var nextAt *time.Time
	if cursor, err := h.cursorRepo.GetByJob(r.Context(), id); err == nil {
		nextAt = &cursor.NextAt
	} else if !errors.Is(err, repo.ErrNotFound) {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, JobFromDomain(job, nextAt))
}

// PauseJob приостанавливает job.
// POST /api/v1/jobs/{id}/pause
//
// Курсор остаётся на месте: после resume job сработает один раз
// по накопившейся позиции и вернётся к обычному расписанию.
func (h *Handler) PauseJob(w http.ResponseWriter, r *http.Request) {
	h.setJobPaused(w, r, true)
}

// ResumeJob возобновляет job.
// POST /api/v1/jobs/{id}/resume
func (h *Handler) ResumeJob(w http.ResponseWriter, r *http.Request) {
	h.setJobPaused(w, r, false)
}

func (h *Handler) setJobPaused(w http.ResponseWriter, r *http.Request, paused bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid job id")
		return
	}

	if err := h.jobRepo.SetPaused(r.Context(), id, paused); err != nil {
		HandleRepoError(w, h.logger, err, "job not found")
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "job not found") {
		return
	}

	Success(w, JobFromDomain(job, nil))
}

// UpdateJobTuning изменяет настройки retry/timeout/concurrency.
// PUT /api/v1/jobs/{id}/tuning
func (h *Handler) UpdateJobTuning(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid job id")
		return
	}

	var req UpdateJobTuningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "job not found") {
		return
	}

	if req.RetryMax != nil {
		if *req.RetryMax < 0 {
			BadRequest(w, "retry_max must be non-negative")
			return
		}
		job.RetryMax = *req.RetryMax
	}
	if req.TimeoutMs != nil {
		if *req.TimeoutMs <= 0 {
			BadRequest(w, "timeout_ms must be positive")
			return
		}
		job.TimeoutMs = *req.TimeoutMs
	}
	if req.Concurrency != nil {
		if *req.Concurrency <= 0 {
			BadRequest(w, "concurrency must be positive")
			return
		}
		job.Concurrency = *req.Concurrency
	}

	if err := h.jobRepo.UpdateTuning(r.Context(), id, job.RetryMax, job.TimeoutMs, job.Concurrency); err != nil {
		HandleRepoError(w, h.logger, err, "job not found")
		return
	}

	Success(w, JobFromDomain(job, nil))
}

// DeleteJob удаляет job вместе с курсором, runs и attempts (каскадом).
// DELETE /api/v1/jobs/{id}
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid job id")
		return
	}

	if err := h.jobRepo.Delete(r.Context(), id); err != nil {
		HandleRepoError(w, h.logger, err, "job not found")
		return
	}

	NoContent(w)
}
