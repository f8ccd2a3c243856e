package dispatcher

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Chronos/internal/domain"
)

func TestBuildTaskSnapshot(t *testing.T) {
	job := &domain.Job{
		ID:        uuid.New(),
		ProjectID: uuid.New(),
		Name:      "report",
		Kind:      domain.ActionKindHTTP,
		TargetURL: "https://example.com/hook",
		Method:    "POST",
		Headers:   map[string]string{"X-Token": "secret"},
		BodyTemplate: map[string]any{
			"report": "daily",
		},
		RetryMax:  3,
		TimeoutMs: 30000,
	}
	run := &domain.Run{
		ID:    uuid.New(),
		JobID: job.ID,
	}

	task := BuildTask(job, run, 15*time.Second)

	if task.RunID != run.ID {
		t.Errorf("RunID = %s, want %s", task.RunID, run.ID)
	}
	if task.JobID != job.ID {
		t.Errorf("JobID = %s, want %s", task.JobID, job.ID)
	}
	if task.ProjectID != job.ProjectID {
		t.Errorf("ProjectID = %s, want %s", task.ProjectID, job.ProjectID)
	}
	if task.Kind != "http" {
		t.Errorf("Kind = %q, want %q", task.Kind, "http")
	}
	if task.Target != job.TargetURL {
		t.Errorf("Target = %q, want %q", task.Target, job.TargetURL)
	}
	if task.Method != "POST" {
		t.Errorf("Method = %q, want %q", task.Method, "POST")
	}
	if task.Headers["X-Token"] != "secret" {
		t.Errorf("Headers = %v, want X-Token=secret", task.Headers)
	}
	if task.TimeoutMs != 30000 {
		t.Errorf("TimeoutMs = %d, want 30000", task.TimeoutMs)
	}
	if task.RetryMax != 3 {
		t.Errorf("RetryMax = %d, want 3", task.RetryMax)
	}
	if task.BackoffBaseMs != 1000 {
		t.Errorf("BackoffBaseMs = %d, want 1000", task.BackoffBaseMs)
	}
}

func TestBuildTaskDefaultTimeout(t *testing.T) {
	job := &domain.Job{
		ID:   uuid.New(),
		Kind: domain.ActionKindHTTP,
	}
	run := &domain.Run{ID: uuid.New(), JobID: job.ID}

	task := BuildTask(job, run, 15*time.Second)

	if task.TimeoutMs != 15000 {
		t.Errorf("TimeoutMs = %d, want default 15000", task.TimeoutMs)
	}
}
