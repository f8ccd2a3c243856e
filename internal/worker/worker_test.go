package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Chronos/internal/mq"
)

// --- HTTPAction Tests ---

func TestHTTPAction_GET_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{"result": "ok"})
	}))
	defer server.Close()

	action := NewHTTPAction()
	task := &mq.ExecuteTaskPayload{
		RunID:  uuid.New(),
		Kind:   "http",
		Target: server.URL,
	}

	result, err := action.Execute(context.Background(), task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected execution error: %s", result.Error)
	}
	if result.HTTPStatus == nil || *result.HTTPStatus != http.StatusOK {
		t.Errorf("expected status 200, got %v", result.HTTPStatus)
	}
	if !strings.Contains(result.Excerpt, `"result":"ok"`) {
		t.Errorf("excerpt should contain response body, got %q", result.Excerpt)
	}
}

func TestHTTPAction_POST_WithBody(t *testing.T) {
	var receivedBody map[string]any
	var receivedContentType string
	var receivedAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		receivedContentType = r.Header.Get("Content-Type")
		receivedAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&receivedBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	action := NewHTTPAction()
	task := &mq.ExecuteTaskPayload{
		RunID:  uuid.New(),
		Kind:   "http",
		Target: server.URL,
		Method: "POST",
		Body:   map[string]any{"name": "test"},
		Headers: map[string]string{
			"Authorization": "Bearer token123",
		},
	}

	result, err := action.Execute(context.Background(), task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected execution error: %s", result.Error)
	}

	if receivedBody["name"] != "test" {
		t.Errorf("server should receive body, got %v", receivedBody)
	}
	if receivedContentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", receivedContentType)
	}
	if receivedAuth != "Bearer token123" {
		t.Errorf("expected Authorization header, got %s", receivedAuth)
	}
	if result.HTTPStatus == nil || *result.HTTPStatus != http.StatusCreated {
		t.Errorf("expected status 201, got %v", result.HTTPStatus)
	}
}

func TestHTTPAction_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	action := NewHTTPAction()
	task := &mq.ExecuteTaskPayload{
		RunID:  uuid.New(),
		Kind:   "http",
		Target: server.URL,
	}

	result, err := action.Execute(context.Background(), task)
	if err != nil {
		t.Fatalf("non-2xx is a logical error, not a transport one: %v", err)
	}
	if result.Error == "" {
		t.Fatal("expected execution error for HTTP 500")
	}
	if !strings.Contains(result.Error, "500") {
		t.Errorf("error should mention status code, got %q", result.Error)
	}
	if result.HTTPStatus == nil || *result.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %v", result.HTTPStatus)
	}
	if result.Excerpt != "boom" {
		t.Errorf("excerpt should keep the body, got %q", result.Excerpt)
	}
}

func TestHTTPAction_Redirect3xxIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer server.Close()

	action := NewHTTPAction()
	task := &mq.ExecuteTaskPayload{RunID: uuid.New(), Kind: "http", Target: server.URL}

	result, err := action.Execute(context.Background(), task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error == "" {
		t.Fatal("only 2xx counts as success")
	}
}

func TestHTTPAction_NetworkError(t *testing.T) {
	action := NewHTTPAction()
	task := &mq.ExecuteTaskPayload{
		RunID:  uuid.New(),
		Kind:   "http",
		Target: "http://127.0.0.1:1", // закрытый порт
	}

	_, err := action.Execute(context.Background(), task)
	if !errors.Is(err, ErrHTTPRequest) {
		t.Fatalf("expected ErrHTTPRequest, got %v", err)
	}
}

func TestHTTPAction_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	action := NewHTTPAction()
	task := &mq.ExecuteTaskPayload{RunID: uuid.New(), Kind: "http", Target: server.URL}

	_, err := action.Execute(ctx, task)
	if !errors.Is(err, ErrHTTPRequest) {
		t.Fatalf("expected ErrHTTPRequest on deadline, got %v", err)
	}
}

func TestHTTPAction_MissingTarget(t *testing.T) {
	action := NewHTTPAction()
	task := &mq.ExecuteTaskPayload{RunID: uuid.New(), Kind: "http"}

	_, err := action.Execute(context.Background(), task)
	if !errors.Is(err, ErrHTTPRequest) {
		t.Fatalf("expected ErrHTTPRequest, got %v", err)
	}
}

func TestHTTPAction_ExcerptTruncated(t *testing.T) {
	big := strings.Repeat("x", excerptLimit*3)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(big))
	}))
	defer server.Close()

	action := NewHTTPAction()
	task := &mq.ExecuteTaskPayload{RunID: uuid.New(), Kind: "http", Target: server.URL}

	result, err := action.Execute(context.Background(), task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Excerpt) != excerptLimit {
		t.Errorf("excerpt length = %d, want %d", len(result.Excerpt), excerptLimit)
	}
}

// --- Registry Tests ---

func TestRegistry_DefaultActions(t *testing.T) {
	registry := NewRegistry()

	if _, err := registry.Get("http"); err != nil {
		t.Errorf("http action should be registered: %v", err)
	}
	for _, kind := range []string{"queue", "internal"} {
		action, err := registry.Get(kind)
		if err != nil {
			t.Fatalf("%s action should be registered: %v", kind, err)
		}
		_, execErr := action.Execute(context.Background(), &mq.ExecuteTaskPayload{Kind: kind})
		if !errors.Is(execErr, ErrActionNotImplemented) {
			t.Errorf("%s: expected ErrActionNotImplemented, got %v", kind, execErr)
		}
	}
}

func TestRegistry_UnknownKind(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("teleport")
	if !errors.Is(err, ErrUnknownActionKind) {
		t.Fatalf("expected ErrUnknownActionKind, got %v", err)
	}
}

// --- executeAttempt Tests ---

type stubAction struct {
	result *Result
	err    error
	delay  time.Duration
}

func (s *stubAction) Execute(ctx context.Context, _ *mq.ExecuteTaskPayload) (*Result, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.result, s.err
}

func newTestWorker(kind string, action Action) *Worker {
	registry := &Registry{actions: make(map[string]Action)}
	registry.Register(kind, action)
	return New(Config{Registry: registry})
}

func TestExecuteAttempt_Success(t *testing.T) {
	status := http.StatusOK
	w := newTestWorker("http", &stubAction{
		result: &Result{HTTPStatus: &status, Excerpt: "ok"},
	})

	task := &mq.ExecuteTaskPayload{RunID: uuid.New(), Kind: "http", TimeoutMs: 1000}

	attempt, execErr := w.executeAttempt(context.Background(), task)
	if execErr != nil {
		t.Fatalf("unexpected error: %v", execErr)
	}
	if attempt.Status != "success" {
		t.Errorf("status = %s, want success", attempt.Status)
	}
	if attempt.HTTPStatus == nil || *attempt.HTTPStatus != http.StatusOK {
		t.Errorf("http status = %v, want 200", attempt.HTTPStatus)
	}
	if attempt.RunID != task.RunID {
		t.Errorf("run id = %s, want %s", attempt.RunID, task.RunID)
	}
	if attempt.FinishedAt.Before(attempt.StartedAt) {
		t.Error("finished_at should not precede started_at")
	}
}

func TestExecuteAttempt_LogicalFailure(t *testing.T) {
	status := http.StatusBadGateway
	w := newTestWorker("http", &stubAction{
		result: &Result{HTTPStatus: &status, Error: "HTTP 502"},
	})

	task := &mq.ExecuteTaskPayload{RunID: uuid.New(), Kind: "http", TimeoutMs: 1000}

	attempt, execErr := w.executeAttempt(context.Background(), task)
	if execErr == nil {
		t.Fatal("expected failure reason")
	}
	if attempt.Status != "failed" {
		t.Errorf("status = %s, want failed", attempt.Status)
	}
	if execErr.Error() != "HTTP 502" {
		t.Errorf("error = %q, want HTTP 502", execErr)
	}
}

func TestExecuteAttempt_Timeout(t *testing.T) {
	w := newTestWorker("http", &stubAction{delay: time.Second})

	task := &mq.ExecuteTaskPayload{RunID: uuid.New(), Kind: "http", TimeoutMs: 20}

	attempt, execErr := w.executeAttempt(context.Background(), task)
	if !errors.Is(execErr, ErrActionTimeout) {
		t.Fatalf("expected ErrActionTimeout, got %v", execErr)
	}
	if attempt.Status != "failed" {
		t.Errorf("status = %s, want failed", attempt.Status)
	}
	// Латентность меряется и для таймаута
	if attempt.LatencyMs < 20 {
		t.Errorf("latency = %dms, want at least the timeout", attempt.LatencyMs)
	}
}

func TestExecuteAttempt_UnknownKind(t *testing.T) {
	w := New(Config{})

	task := &mq.ExecuteTaskPayload{RunID: uuid.New(), Kind: "teleport", TimeoutMs: 1000}

	attempt, execErr := w.executeAttempt(context.Background(), task)
	if !errors.Is(execErr, ErrUnknownActionKind) {
		t.Fatalf("expected ErrUnknownActionKind, got %v", execErr)
	}
	if attempt.Status != "failed" {
		t.Errorf("status = %s, want failed", attempt.Status)
	}
}

func TestExecuteAttempt_InterruptedByStop(t *testing.T) {
	// Остановка воркера посреди действия — не исход попытки:
	// processTask не должен записывать её как failed Attempt.
	w := newTestWorker("http", &stubAction{delay: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	task := &mq.ExecuteTaskPayload{RunID: uuid.New(), Kind: "http", TimeoutMs: 5000}

	_, execErr := w.executeAttempt(ctx, task)
	if execErr == nil {
		t.Fatal("expected interruption error")
	}
	if !interruptedByStop(ctx, execErr) {
		t.Errorf("cancellation should classify as stop interruption, got %v", execErr)
	}
}

func TestInterruptedByStop(t *testing.T) {
	failure := errors.New("HTTP 500")

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	if !interruptedByStop(canceled, failure) {
		t.Error("canceled parent with failed attempt should be an interruption")
	}
	if interruptedByStop(canceled, nil) {
		t.Error("completed attempt is not an interruption")
	}
	if interruptedByStop(context.Background(), failure) {
		t.Error("live context means the action itself failed")
	}

	expired, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()
	if interruptedByStop(expired, failure) {
		t.Error("deadline expiry is a timeout, not a stop interruption")
	}
}

func TestIsConfigError(t *testing.T) {
	w := New(Config{})

	for _, kind := range []string{"teleport", "queue", "internal"} {
		task := &mq.ExecuteTaskPayload{RunID: uuid.New(), Kind: kind, TimeoutMs: 1000}
		_, execErr := w.executeAttempt(context.Background(), task)
		if !isConfigError(execErr) {
			t.Errorf("%s: expected config error, got %v", kind, execErr)
		}
	}
	if isConfigError(ErrActionTimeout) {
		t.Error("timeout is not a config error")
	}
	if isConfigError(nil) {
		t.Error("nil is not a config error")
	}
}
