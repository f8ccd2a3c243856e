package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// ProjectResponse — проект из API.
type ProjectResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// JobResponse — job из API.
type JobResponse struct {
	ID           string            `json:"id"`
	ProjectID    string            `json:"project_id"`
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
	NextAt       string            `json:"next_at,omitempty"`
	CreatedAt    string            `json:"created_at"`
}

// RunResponse — run из API.
type RunResponse struct {
	ID               string `json:"id"`
	JobID            string `json:"job_id"`
	ProjectID        string `json:"project_id"`
	TriggerAt        string `json:"trigger_at"`
	Status           string `json:"status"`
	DispatchAttempts int    `json:"dispatch_attempts"`
	DurationMs       *int64 `json:"duration_ms,omitempty"`
	FirstError       string `json:"first_error,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// AttemptResponse — попытка выполнения из API.
type AttemptResponse struct {
	ID              string `json:"id"`
	RunID           string `json:"run_id"`
	AttemptNo       int    `json:"attempt_no"`
	StartedAt       string `json:"started_at"`
	FinishedAt      string `json:"finished_at"`
	Status          string `json:"status"`
	HTTPStatus      *int   `json:"http_status,omitempty"`
	LatencyMs       int64  `json:"latency_ms"`
	ResponseExcerpt string `json:"response_excerpt,omitempty"`
}

// --- Request types ---

// CreateJobRequest — создание job.
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

// UpdateJobTuningRequest — изменение настроек job.
type UpdateJobTuningRequest struct {
	RetryMax    *int `json:"retry_max,omitempty"`
	TimeoutMs   *int `json:"timeout_ms,omitempty"`
	Concurrency *int `json:"concurrency,omitempty"`
}

// ListJobsOpts — параметры фильтрации jobs.
type ListJobsOpts struct {
	ProjectID string
	Limit     int
}

// ListRunsOpts — параметры фильтрации runs.
type ListRunsOpts struct {
	JobID     string
	ProjectID string
	Status    string
	Limit     int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Chronos API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Projects ---

// ListProjects возвращает все проекты.
func (c *Client) ListProjects() ([]ProjectResponse, error) {
	var projects []ProjectResponse
	err := c.list("/api/v1/projects", nil, &projects)
	return projects, err
}

// CreateProject создаёт новый проект.
func (c *Client) CreateProject(name string) (*ProjectResponse, error) {
	body := map[string]string{"name": name}
	var project ProjectResponse
	err := c.post("/api/v1/projects", body, &project)
	return &project, err
}

// GetProject возвращает проект по ID.
func (c *Client) GetProject(id string) (*ProjectResponse, error) {
	var project ProjectResponse
	err := c.get("/api/v1/projects/"+id, &project)
	return &project, err
}

// --- Jobs ---

// ListJobs возвращает список jobs с фильтрацией.
func (c *Client) ListJobs(opts ListJobsOpts) ([]JobResponse, error) {
	params := url.Values{}
	if opts.ProjectID != "" {
		params.Set("project_id", opts.ProjectID)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var jobs []JobResponse
	err := c.list("/api/v1/jobs", params, &jobs)
	return jobs, err
}

// CreateJob создаёт job в проекте.
func (c *Client) CreateJob(projectID string, req CreateJobRequest) (*JobResponse, error) {
	var job JobResponse
	err := c.post("/api/v1/projects/"+projectID+"/jobs", req, &job)
	return &job, err
}

// GetJob возвращает job по ID.
func (c *Client) GetJob(id string) (*JobResponse, error) {
	var job JobResponse
	err := c.get("/api/v1/jobs/"+id, &job)
	return &job, err
}

// PauseJob приостанавливает job.
func (c *Client) PauseJob(id string) (*JobResponse, error) {
	var job JobResponse
	err := c.post("/api/v1/jobs/"+id+"/pause", nil, &job)
	return &job, err
}

// ResumeJob возобновляет job.
func (c *Client) ResumeJob(id string) (*JobResponse, error) {
	var job JobResponse
	err := c.post("/api/v1/jobs/"+id+"/resume", nil, &job)
	return &job, err
}

// UpdateJobTuning изменяет настройки retry/timeout/concurrency.
func (c *Client) UpdateJobTuning(id string, req UpdateJobTuningRequest) (*JobResponse, error) {
	var job JobResponse
	err := c.put("/api/v1/jobs/"+id+"/tuning", req, &job)
	return &job, err
}

// DeleteJob удаляет job.
func (c *Client) DeleteJob(id string) error {
	return c.delete("/api/v1/jobs/" + id)
}

// --- Runs ---

// ListRuns возвращает список runs с фильтрацией.
func (c *Client) ListRuns(opts ListRunsOpts) ([]RunResponse, error) {
	params := url.Values{}
	if opts.JobID != "" {
		params.Set("job_id", opts.JobID)
	}
	if opts.ProjectID != "" {
		params.Set("project_id", opts.ProjectID)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var runs []RunResponse
	err := c.list("/api/v1/runs", params, &runs)
	return runs, err
}

// GetRun возвращает run по ID.
func (c *Client) GetRun(id string) (*RunResponse, error) {
	var run RunResponse
	err := c.get("/api/v1/runs/"+id, &run)
	return &run, err
}

// ListAttempts возвращает попытки выполнения run.
func (c *Client) ListAttempts(runID string) ([]AttemptResponse, error) {
	var attempts []AttemptResponse
	err := c.list("/api/v1/runs/"+runID+"/attempts", nil, &attempts)
	return attempts, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
