package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shaiso/Chronos/internal/domain"
	"github.com/shaiso/Chronos/internal/repo"
)

// ListRuns возвращает список runs с фильтрацией.
// GET /api/v1/runs?job_id=...&project_id=...&status=...&limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := repo.RunFilter{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}

	if jobIDStr := r.URL.Query().Get("job_id"); jobIDStr != "" {
		jobID, err := uuid.Parse(jobIDStr)
		if err != nil {
			BadRequest(w, "invalid job_id")
			return
		}
		filter.JobID = &jobID
	}

	if projectIDStr := r.URL.Query().Get("project_id"); projectIDStr != "" {
		projectID, err := uuid.Parse(projectIDStr)
		if err != nil {
			BadRequest(w, "invalid project_id")
			return
		}
		filter.ProjectID = &projectID
	}

	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := domain.RunStatus(statusStr)
		switch status {
		case domain.RunStatusRunning, domain.RunStatusSuccess, domain.RunStatusFailed:
			filter.Status = status
		default:
			BadRequest(w, "invalid status")
			return
		}
	}

	runs, err := h.runRepo.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i := range runs {
		result[i] = RunFromDomain(runs[i])
	}

	List(w, result, len(result))
}

// GetRun возвращает run по ID.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.runRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	Success(w, RunFromDomain(*run))
}

// ListRunAttempts возвращает попытки выполнения run в порядке номеров.
// GET /api/v1/runs/{id}/attempts
func (h *Handler) ListRunAttempts(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	// Проверяем, что run существует
	if _, err := h.runRepo.GetByID(r.Context(), id); err != nil {
		HandleRepoError(w, h.logger, err, "run not found")
		return
	}

	attempts, err := h.attemptRepo.ListByRun(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]AttemptResponse, len(attempts))
	for i := range attempts {
		result[i] = AttemptFromDomain(attempts[i])
	}

	List(w, result, len(result))
}
