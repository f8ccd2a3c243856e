package api

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestCreateJobRequest_Validate(t *testing.T) {
	base := func() CreateJobRequest {
		return CreateJobRequest{
			Name:      "nightly-report",
			Kind:      "http",
			CronExpr:  "0 3 * * *",
			Timezone:  "Europe/Berlin",
			TargetURL: "https://example.com/hook",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*CreateJobRequest)
		wantErr string
	}{
		{"valid", func(r *CreateJobRequest) {}, ""},
		{"empty timezone defaults to UTC", func(r *CreateJobRequest) { r.Timezone = "" }, ""},
		{"missing name", func(r *CreateJobRequest) { r.Name = "" }, "name"},
		{"unknown kind", func(r *CreateJobRequest) { r.Kind = "carrier-pigeon" }, "kind"},
		{"missing cron", func(r *CreateJobRequest) { r.CronExpr = "" }, "cron_expr"},
		{"bad cron", func(r *CreateJobRequest) { r.CronExpr = "not a cron" }, "schedule"},
		{"bad timezone", func(r *CreateJobRequest) { r.Timezone = "Mars/Olympus" }, "schedule"},
		{"http without target", func(r *CreateJobRequest) { r.TargetURL = "" }, "target_url"},
		{"negative retry_max", func(r *CreateJobRequest) { v := -1; r.RetryMax = &v }, "retry_max"},
		{"zero timeout", func(r *CreateJobRequest) { v := 0; r.TimeoutMs = &v }, "timeout_ms"},
		{"zero concurrency", func(r *CreateJobRequest) { v := 0; r.Concurrency = &v }, "concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateJobRequest_ToDomainDefaults(t *testing.T) {
	req := CreateJobRequest{
		Name:      "cleanup",
		Kind:      "http",
		CronExpr:  "*/5 * * * *",
		TargetURL: "https://example.com/cleanup",
	}
	projectID := uuid.New()

	job := req.ToDomain(projectID)

	if job.ProjectID != projectID {
		t.Errorf("project id = %s, want %s", job.ProjectID, projectID)
	}
	if job.Timezone != "UTC" {
		t.Errorf("timezone = %q, want UTC", job.Timezone)
	}
	if job.RetryMax != defaultRetryMax {
		t.Errorf("retry_max = %d, want %d", job.RetryMax, defaultRetryMax)
	}
	if job.TimeoutMs != defaultTimeoutMs {
		t.Errorf("timeout_ms = %d, want %d", job.TimeoutMs, defaultTimeoutMs)
	}
	if job.Concurrency != defaultConcurrency {
		t.Errorf("concurrency = %d, want %d", job.Concurrency, defaultConcurrency)
	}
	if job.Paused {
		t.Error("new job should not be paused")
	}
}

func TestCreateJobRequest_ToDomainOverrides(t *testing.T) {
	retryMax, timeoutMs, concurrency := 7, 60000, 4
	req := CreateJobRequest{
		Name:        "heavy",
		Kind:        "http",
		CronExpr:    "0 * * * *",
		Timezone:    "Asia/Tokyo",
		TargetURL:   "https://example.com/heavy",
		RetryMax:    &retryMax,
		TimeoutMs:   &timeoutMs,
		Concurrency: &concurrency,
	}

	job := req.ToDomain(uuid.New())

	if job.RetryMax != 7 || job.TimeoutMs != 60000 || job.Concurrency != 4 {
		t.Errorf("overrides not applied: %+v", job)
	}
	if job.Timezone != "Asia/Tokyo" {
		t.Errorf("timezone = %q, want Asia/Tokyo", job.Timezone)
	}
}
