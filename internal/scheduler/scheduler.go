package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Chronos/internal/domain"
	"github.com/shaiso/Chronos/internal/mq"
	"github.com/shaiso/Chronos/internal/repo"
	"github.com/shaiso/Chronos/internal/schedule"
	"github.com/shaiso/Chronos/internal/telemetry"
)

// Значения по умолчанию.
const (
	defaultBatchSize = 50
	defaultInterval  = 10 * time.Second
)

// Scheduler превращает due fire cursors в runs.
//
// Экземпляры масштабируются горизонтально без лидера: выборка курсоров
// через FOR UPDATE SKIP LOCKED даёт каждому экземпляру непересекающееся
// подмножество, условный advance поверх блокировки гарантирует не больше
// одного продвижения (и одного run) на срабатывание.
type Scheduler struct {
	pool       *pgxpool.Pool
	jobRepo    *repo.JobRepo
	cursorRepo *repo.CursorRepo
	runRepo    *repo.RunRepo
	publisher  *mq.Publisher
	logger     *slog.Logger
	batchSize  int
	interval   time.Duration
}

// Config — конфигурация Scheduler.
type Config struct {
	Pool       *pgxpool.Pool
	JobRepo    *repo.JobRepo
	CursorRepo *repo.CursorRepo
	RunRepo    *repo.RunRepo

	// Publisher — опционален: nudge Dispatcher'у о новых runs.
	// Без него Dispatcher подхватывает runs обычным polling'ом.
	Publisher *mq.Publisher

	Logger *slog.Logger

	// BatchSize — максимум курсоров за один batch (default: 50).
	BatchSize int

	// Interval — пауза между tick'ами (default: 10s).
	Interval time.Duration
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		pool:       cfg.Pool,
		jobRepo:    cfg.JobRepo,
		cursorRepo: cfg.CursorRepo,
		runRepo:    cfg.RunRepo,
		publisher:  cfg.Publisher,
		logger:     logger,
		batchSize:  batchSize,
		interval:   interval,
	}
}

// Run запускает цикл планировщика до отмены ctx.
// Остановка происходит между tick'ами: начатая batch-транзакция
// завершается до выхода.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Первый tick сразу при старте — подхватываем просроченные курсоры
	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick выполняет batch-циклы, пока есть продвигаемые due курсоры.
func (s *Scheduler) Tick(ctx context.Context) {
	if err := drainBatches(ctx, s.cycle); err != nil {
		// Store недоступен — batch откатился целиком, повтор
		// на следующем tick'е
		s.logger.Error("scheduler batch failed", "error", err)
	}
}

// drainBatches повторяет cycleFn, пока батчи продвигают курсоры.
//
// Решение о продолжении принимается по числу реально продвинутых
// курсоров, а не забранных строк: due строка, пропущенная без мутации
// (битое расписание, исчезнувший job), снова попадёт в выборку
// следующего batch'а и по числу забранных никогда не дала бы циклу
// завершиться.
//
// Начатый batch доводится до commit'а даже при остановке: отмена ctx
// проверяется между батчами, сам batch выполняется на отвязанном
// контексте.
func drainBatches(ctx context.Context, cycleFn func(context.Context) (int, error)) error {
	batchCtx := context.WithoutCancel(ctx)
	for {
		advanced, err := cycleFn(batchCtx)
		if err != nil {
			return err
		}
		if advanced == 0 || ctx.Err() != nil {
			return nil
		}
	}
}

// cycle обрабатывает один batch внутри одной транзакции.
// Возвращает количество продвинутых курсоров.
func (s *Scheduler) cycle(ctx context.Context) (int, error) {
	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback(ctx)

	cursors, err := s.cursorRepo.ClaimDueTx(ctx, tx, now, s.batchSize)
	if err != nil {
		return 0, err
	}
	if len(cursors) == 0 {
		return 0, tx.Commit(ctx)
	}

	s.logger.Debug("claimed due cursors", "count", len(cursors))

	var created []uuid.UUID
	for i := range cursors {
		runID, ok, err := s.processCursor(ctx, tx, &cursors[i], now)
		if err != nil {
			// Ошибка store-уровня: транзакция испорчена, откатываем
			// весь batch — ничего не коммитится частично
			return 0, err
		}
		if ok {
			created = append(created, runID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}

	// Nudge после commit'а: ошибка публикации не фатальна, Dispatcher
	// доберёт runs через polling
	for _, id := range created {
		if s.publisher == nil {
			break
		}
		if err := s.publisher.PublishRunCreated(ctx, id); err != nil {
			s.logger.Warn("failed to publish run.created", "run_id", id, "error", err)
		}
	}

	s.logger.Info("scheduler batch committed",
		"due", len(cursors),
		"runs_created", len(created),
	)

	return len(created), nil
}

// processCursor обрабатывает один due курсор внутри batch-транзакции.
//
// Возвращает ID созданного run. Ошибки вычисления расписания изолированы
// per-row (строка пропускается без мутаций); ненулевой err означает
// проблему store-уровня и откат всего batch'а.
func (s *Scheduler) processCursor(ctx context.Context, tx pgx.Tx, cursor *domain.FireCursor, now time.Time) (uuid.UUID, bool, error) {
	logger := telemetry.WithJobID(s.logger, cursor.JobID.String())

	job, err := s.jobRepo.GetByIDTx(ctx, tx, cursor.JobID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Warn("job missing for due cursor, skipping")
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("load job: %w", err)
	}

	if !job.Schedulable() {
		// Выборка уже отфильтровала паузу, но pause мог закоммититься
		// между claim'ом и этим чтением. Курсор остаётся на месте: после
		// resume просроченный слот сработает один раз, дальше курсор
		// двигается как обычно
		logger.Debug("skip paused job",
			"job_name", job.Name,
			"due_at", cursor.NextAt,
		)
		return uuid.Nil, false, nil
	}

	next, err := schedule.NextFire(job.CronExpr, job.Timezone, now)
	if err != nil {
		// Битое расписание не должно ни заклинить batch, ни молча
		// стрелять вечно: строка пропускается без advance, счётчик
		// метрики — операционный алерт
		telemetry.InvalidSchedules.Inc()
		logger.Error("schedule failed to evaluate, skipping",
			"job_name", job.Name,
			"cron", job.CronExpr,
			"tz", job.Timezone,
			"error", err,
		)
		return uuid.Nil, false, nil
	}

	if err := s.cursorRepo.AdvanceTx(ctx, tx, job.ID, cursor.NextAt, next); err != nil {
		if errors.Is(err, repo.ErrClaimConflict) {
			// Срабатывание выиграл конкурентный экземпляр
			telemetry.ClaimConflicts.Inc()
			logger.Debug("cursor already advanced by concurrent instance")
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}

	run := &domain.Run{
		ID:        uuid.New(),
		JobID:     job.ID,
		ProjectID: job.ProjectID,
		// Срок, которому соответствует run — исходный next_at курсора,
		// не момент обработки и не новое значение
		TriggerAt: cursor.NextAt,
		Status:    domain.RunStatusRunning,
		CreatedAt: now,
	}
	if err := s.runRepo.CreateTx(ctx, tx, run); err != nil {
		return uuid.Nil, false, fmt.Errorf("create run: %w", err)
	}

	telemetry.RunsCreated.Inc()
	logger.Info("created run",
		"run_id", run.ID,
		"job_name", job.Name,
		"trigger_at", run.TriggerAt,
		"next_at", next,
	)

	return run.ID, true, nil
}
