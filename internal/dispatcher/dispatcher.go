package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/shaiso/Chronos/internal/domain"
	"github.com/shaiso/Chronos/internal/mq"
	"github.com/shaiso/Chronos/internal/repo"
	"github.com/shaiso/Chronos/internal/telemetry"
)

// Значения по умолчанию.
const (
	defaultBatchSize    = 50
	defaultInterval     = 5 * time.Second
	defaultPublishLimit = 10
	defaultSweepAfter   = 10 * time.Minute
	defaultPrefetch     = 10
)

// Dispatcher превращает свежесозданные runs в задачи на выполнение.
//
// Claim выражен атомарным инкрементом dispatch_attempts в store: run
// с dispatch_attempts >= 1 никогда не выбирается повторно, даже если
// публикация в очередь не удалась. Очередь — durable-авторитет retry,
// Dispatcher сам повторы не планирует; потерянные публикации добирает
// sweep (runs, забранные давно и без единой попытки).
type Dispatcher struct {
	runRepo   *repo.RunRepo
	jobRepo   *repo.JobRepo
	publisher *mq.Publisher
	conn      *mq.Connection

	logger         *slog.Logger
	batchSize      int
	interval       time.Duration
	sweepAfter     time.Duration
	defaultTimeout time.Duration

	consumer   *mq.Consumer
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Dispatcher.
type Config struct {
	RunRepo   *repo.RunRepo
	JobRepo   *repo.JobRepo
	Publisher *mq.Publisher

	// Conn — опционален: подписка на run.created для немедленной
	// реакции. Без него работает только polling.
	Conn *mq.Connection

	Logger *slog.Logger

	// BatchSize — максимум runs за один claim (default: 50).
	BatchSize int

	// Interval — пауза между poll-циклами (default: 5s).
	Interval time.Duration

	// SweepAfter — возраст, после которого claimed run без попыток
	// считается потерянной публикацией (default: 10m).
	SweepAfter time.Duration

	// DefaultTimeout — таймаут действия для jobs без своего (default: 15s).
	DefaultTimeout time.Duration
}

// New создаёт новый Dispatcher.
func New(cfg Config) *Dispatcher {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	sweepAfter := cfg.SweepAfter
	if sweepAfter <= 0 {
		sweepAfter = defaultSweepAfter
	}
	defaultTimeout := cfg.DefaultTimeout
	if defaultTimeout <= 0 {
		defaultTimeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		runRepo:        cfg.RunRepo,
		jobRepo:        cfg.JobRepo,
		publisher:      cfg.Publisher,
		conn:           cfg.Conn,
		logger:         logger,
		batchSize:      batchSize,
		interval:       interval,
		sweepAfter:     sweepAfter,
		defaultTimeout: defaultTimeout,
	}
}

// Start запускает Dispatcher: polling-цикл и (при наличии соединения)
// consumer для run.created.
func (d *Dispatcher) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancelFunc = cancel

	d.logger.Info("starting dispatcher",
		"batch_size", d.batchSize,
		"interval", d.interval,
	)

	if d.conn != nil {
		d.consumer = mq.NewConsumer(d.conn, d.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueRunsCreated),
			Handler:  d.handleRunCreated,
			Prefetch: defaultPrefetch,
		})

		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			if err := d.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				d.logger.Error("run.created consumer error", "error", err)
			}
		}()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.pollLoop(ctx)
	}()

	return nil
}

// Stop останавливает Dispatcher, дождавшись завершения текущего цикла.
func (d *Dispatcher) Stop() {
	d.logger.Info("stopping dispatcher...")
	if d.cancelFunc != nil {
		d.cancelFunc()
	}
	if d.consumer != nil {
		d.consumer.Stop()
	}
	d.wg.Wait()
	d.logger.Info("dispatcher stopped")
}

// handleRunCreated — nudge от Scheduler'а: немедленный claim-цикл.
// Сам claim идемпотентен, поэтому потерянный или дублированный nudge
// безопасен — polling остаётся источником истины.
func (d *Dispatcher) handleRunCreated(ctx context.Context, delivery *mq.Delivery) error {
	if _, err := mq.ParsePayload[mq.RunCreatedPayload](&delivery.Message); err != nil {
		d.logger.Error("failed to parse run.created payload", "error", err)
		return nil // битое уведомление бессмысленно redeliver'ить
	}
	if err := d.Tick(ctx); err != nil {
		d.logger.Error("dispatch tick failed", "error", err)
	}
	return nil
}

// pollLoop — цикл polling.
func (d *Dispatcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	sweepTicker := time.NewTicker(d.sweepAfter)
	defer sweepTicker.Stop()

	// Первый цикл сразу при старте
	if err := d.Tick(ctx); err != nil {
		d.logger.Error("dispatch tick failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Tick(ctx); err != nil {
				d.logger.Error("dispatch tick failed", "error", err)
			}
		case <-sweepTicker.C:
			if err := d.Sweep(ctx); err != nil {
				d.logger.Error("dispatch sweep failed", "error", err)
			}
		}
	}
}

// Tick выполняет один цикл: атомарный claim свежих runs и публикация
// задачи на каждый. Публикации идут параллельно с ограничением.
func (d *Dispatcher) Tick(ctx context.Context) error {
	claimed, err := d.runRepo.ClaimForDispatch(ctx, d.batchSize)
	if err != nil {
		return fmt.Errorf("claim runs: %w", err)
	}
	if len(claimed) == 0 {
		return nil
	}

	d.logger.Debug("claimed runs for dispatch", "count", len(claimed))

	sem := semaphore.NewWeighted(defaultPublishLimit)
	var wg sync.WaitGroup

	for i := range claimed {
		run := claimed[i]

		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			d.publishRun(ctx, &run)
		}()
	}

	wg.Wait()
	return nil
}

// Sweep повторно публикует runs, забранные давно, но так и не получившие
// ни одной попытки — признак потерянной публикации. dispatch_attempts
// не трогается: claim уже состоялся.
func (d *Dispatcher) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-d.sweepAfter)
	stale, err := d.runRepo.ListStale(ctx, cutoff, d.batchSize)
	if err != nil {
		return fmt.Errorf("list stale runs: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	d.logger.Warn("re-publishing stale claimed runs", "count", len(stale))

	for i := range stale {
		d.publishRun(ctx, &stale[i])
	}
	return nil
}

// publishRun публикует задачу на выполнение одного run.
//
// Ошибка публикации — операционная: run остаётся claimed, счётчик метрики
// растёт, повторную доставку обеспечивает sweep. Откатывать claim нельзя —
// это открыло бы окно для двойной публикации.
func (d *Dispatcher) publishRun(ctx context.Context, run *domain.Run) {
	logger := telemetry.WithRunID(d.logger, run.ID.String())

	job, err := d.jobRepo.GetByID(ctx, run.JobID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Warn("job deleted before dispatch, skipping", "job_id", run.JobID)
			return
		}
		logger.Error("failed to load job for dispatch", "job_id", run.JobID, "error", err)
		return
	}

	task := BuildTask(job, run, d.defaultTimeout)

	if err := d.publisher.PublishExecuteTask(ctx, task); err != nil {
		telemetry.PublishFailures.Inc()
		logger.Error("failed to publish execution task",
			"job_id", job.ID,
			"error", err,
		)
		return
	}

	telemetry.TasksPublished.Inc()
	logger.Info("enqueued run",
		"job_id", job.ID,
		"job_name", job.Name,
		"trigger_at", run.TriggerAt,
	)
}
