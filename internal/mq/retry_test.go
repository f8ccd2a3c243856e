package mq

import (
	"testing"
	"time"
)

func TestRetryDelay_Exponential(t *testing.T) {
	tests := []struct {
		attempt int
		baseMs  int
		want    time.Duration
	}{
		{1, 1000, time.Second},
		{2, 1000, 2 * time.Second},
		{3, 1000, 4 * time.Second},
		{4, 500, 4 * time.Second},
		{1, 250, 250 * time.Millisecond},
	}

	for _, tt := range tests {
		got := RetryDelay(tt.attempt, tt.baseMs)
		if got != tt.want {
			t.Errorf("RetryDelay(%d, %d) = %s, want %s", tt.attempt, tt.baseMs, got, tt.want)
		}
	}
}

func TestRetryDelay_Capped(t *testing.T) {
	// Большой номер попытки не должен переполнять задержку.
	got := RetryDelay(30, 1000)
	if got != maxBackoff {
		t.Errorf("expected cap at %s, got %s", maxBackoff, got)
	}
}

func TestRetryDelay_DefaultBase(t *testing.T) {
	// Нулевая база — используется DefaultBackoffBase.
	got := RetryDelay(1, 0)
	if got != DefaultBackoffBase {
		t.Errorf("expected %s, got %s", DefaultBackoffBase, got)
	}
}
