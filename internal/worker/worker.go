package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Chronos/internal/mq"
	"github.com/shaiso/Chronos/internal/repo"
)

// Значения по умолчанию.
const (
	defaultPrefetch = 10
	defaultTimeout  = 15 * time.Second
)

// Worker выполняет действия runs.
//
// Worker — stateless компонент системы, который:
//   - Потребляет задачи из очереди tasks.execute
//   - Выполняет действие под таймаутом job (http и будущие типы)
//   - Записывает каждую попытку как append-only Attempt
//   - Финализирует run идемпотентно
//   - При неудаче кладёт задачу в retry-очередь с backoff
//
// Workers масштабируются горизонтально — несколько экземпляров
// могут потреблять из одной очереди.
type Worker struct {
	runRepo     *repo.RunRepo
	attemptRepo *repo.AttemptRepo

	publisher *mq.Publisher
	conn      *mq.Connection

	registry *Registry
	consumer *mq.Consumer

	fallbackTimeout time.Duration

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	RunRepo     *repo.RunRepo
	AttemptRepo *repo.AttemptRepo

	Publisher *mq.Publisher
	Conn      *mq.Connection

	// Registry — реестр action'ов (опционально; если nil — NewRegistry()).
	Registry *Registry

	// FallbackTimeout — таймаут действия для задач без своего (default: 15s).
	FallbackTimeout time.Duration

	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}

	fallbackTimeout := cfg.FallbackTimeout
	if fallbackTimeout <= 0 {
		fallbackTimeout = defaultTimeout
	}

	return &Worker{
		runRepo:         cfg.RunRepo,
		attemptRepo:     cfg.AttemptRepo,
		publisher:       cfg.Publisher,
		conn:            cfg.Conn,
		registry:        registry,
		fallbackTimeout: fallbackTimeout,
		logger:          logger,
	}
}

// Start запускает Worker: consumer очереди tasks.execute.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker")

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueTasksExecute),
		Handler:  w.handleExecuteTask,
		Prefetch: defaultPrefetch,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("task consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	if w.consumer != nil {
		w.consumer.Stop()
	}

	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}
