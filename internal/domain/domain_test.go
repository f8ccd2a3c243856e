package domain

import (
	"testing"
	"time"
)

func TestRunStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status RunStatus
		want   bool
	}{
		{RunStatusRunning, false},
		{RunStatusSuccess, true},
		{RunStatusFailed, true},
		{RunStatus("bogus"), false},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.want {
			t.Errorf("IsTerminal(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestActionKindValid(t *testing.T) {
	for _, kind := range []ActionKind{ActionKindHTTP, ActionKindQueue, ActionKindInternal} {
		if !kind.Valid() {
			t.Errorf("%q should be valid", kind)
		}
	}
	if ActionKind("carrier-pigeon").Valid() {
		t.Error("unknown kind should not be valid")
	}
}

func TestFireCursorDue(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		nextAt time.Time
		want   bool
	}{
		{"past", now.Add(-time.Minute), true},
		{"exactly now", now, true},
		{"future", now.Add(time.Minute), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := FireCursor{NextAt: tt.nextAt}
			if got := c.Due(now); got != tt.want {
				t.Errorf("Due = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJobTimeout(t *testing.T) {
	fallback := 15 * time.Second

	j := Job{TimeoutMs: 30000}
	if got := j.Timeout(fallback); got != 30*time.Second {
		t.Errorf("Timeout = %s, want 30s", got)
	}

	j = Job{}
	if got := j.Timeout(fallback); got != fallback {
		t.Errorf("Timeout = %s, want fallback %s", got, fallback)
	}
}

func TestJobSchedulable(t *testing.T) {
	j := Job{CronExpr: "0 * * * *"}
	if !j.Schedulable() {
		t.Error("active job with cron should be schedulable")
	}

	j.Paused = true
	if j.Schedulable() {
		t.Error("paused job should not be schedulable")
	}

	j = Job{}
	if j.Schedulable() {
		t.Error("job without cron should not be schedulable")
	}
}

func TestRunClaimed(t *testing.T) {
	r := Run{}
	if r.Claimed() {
		t.Error("fresh run should not be claimed")
	}
	r.DispatchAttempts = 1
	if !r.Claimed() {
		t.Error("run with dispatch attempt should be claimed")
	}
}

func TestAttemptDuration(t *testing.T) {
	start := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	a := Attempt{StartedAt: start, FinishedAt: start.Add(340 * time.Millisecond)}
	if got := a.Duration(); got != 340*time.Millisecond {
		t.Errorf("Duration = %s, want 340ms", got)
	}
}
