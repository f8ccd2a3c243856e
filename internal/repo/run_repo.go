package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Chronos/internal/domain"
)

// RunRepo — репозиторий для работы с runs.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// CreateTx создаёт run в рамках batch-транзакции Scheduler'а.
// Уникальный индекс (job_id, trigger_at) — последний рубеж против
// дубликата run на одно срабатывание; конфликт отдаётся как ErrAlreadyExists.
func (r *RunRepo) CreateTx(ctx context.Context, tx pgx.Tx, run *domain.Run) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO runs (id, job_id, project_id, trigger_at, status,
		                  dispatch_attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		run.ID,
		run.JobID,
		run.ProjectID,
		run.TriggerAt,
		run.Status,
		run.DispatchAttempts,
		run.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID возвращает run по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	run, err := scanRunColumns(r.pool.QueryRow(ctx, runSelect+` WHERE id = $1`, id).Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// List возвращает список runs с фильтрацией.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	rows, err := r.pool.Query(ctx, runSelect+`
		WHERE ($1::uuid IS NULL OR job_id = $1)
		  AND ($2::uuid IS NULL OR project_id = $2)
		  AND ($3::text IS NULL OR status = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`,
		nullUUID(filter.JobID),
		nullUUID(filter.ProjectID),
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	return collectRuns(rows)
}

// ClaimForDispatch атомарно забирает до limit свежесозданных runs.
//
// Claim — это сам инкремент dispatch_attempts: предикат dispatch_attempts = 0
// и UPDATE выполняются одним statement'ом, поэтому конкурентные Dispatcher'ы
// получают непересекающиеся наборы. SKIP LOCKED во внутреннем SELECT
// исключает ожидание на строках, которые уже забирает другая транзакция.
//
// Подзапрос по jobs — admission-контроль лимита одновременности: run не
// выбирается, пока у его job уже concurrency диспетчеризованных
// незавершённых runs. Отложенные runs остаются выбираемыми и уходят
// в очередь по мере освобождения слотов.
func (r *RunRepo) ClaimForDispatch(ctx context.Context, limit int) ([]domain.Run, error) {
	rows, err := r.pool.Query(ctx, `
		WITH claimed AS (
			UPDATE runs
			SET dispatch_attempts = dispatch_attempts + 1
			WHERE id IN (
				SELECT r.id
				FROM runs r
				JOIN jobs j ON j.id = r.job_id
				WHERE r.status = 'running'
				  AND r.dispatch_attempts = 0
				  AND (
					SELECT COUNT(*) FROM runs active
					WHERE active.job_id = r.job_id
					  AND active.status = 'running'
					  AND active.dispatch_attempts > 0
				  ) < j.concurrency
				ORDER BY r.trigger_at ASC
				FOR UPDATE OF r SKIP LOCKED
				LIMIT $1
			)
			RETURNING id, job_id, project_id, trigger_at, status,
			          dispatch_attempts, duration_ms, first_error, created_at
		)
		SELECT * FROM claimed ORDER BY trigger_at ASC
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("claim runs for dispatch: %w", err)
	}
	defer rows.Close()
	return collectRuns(rows)
}

// Finalize ставит терминальный статус run. Идемпотентно: повторное
// применение того же статуса безопасно, first_error сохраняет самую
// раннюю ошибку.
func (r *RunRepo) Finalize(ctx context.Context, id uuid.UUID, status domain.RunStatus, durationMs int64, firstError string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE runs
		SET status = $2,
		    duration_ms = $3,
		    first_error = COALESCE(NULLIF(first_error, ''), $4)
		WHERE id = $1
	`, id, status, durationMs, firstError)
	if err != nil {
		return fmt.Errorf("finalize run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordFirstError сохраняет сообщение самой ранней ошибки run,
// не меняя статус. Используется Worker'ом, когда попытка провалилась,
// но доставки ещё остались: run продолжает выполняться, а первая
// ошибка уже зафиксирована.
func (r *RunRepo) RecordFirstError(ctx context.Context, id uuid.UUID, msg string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE runs
		SET first_error = COALESCE(NULLIF(first_error, ''), $2)
		WHERE id = $1
	`, id, msg)
	if err != nil {
		return fmt.Errorf("record run first error: %w", err)
	}
	return nil
}

// ListStale возвращает runs, которые были забраны Dispatcher'ом, но по
// которым за отведённое время не появилось ни одной попытки — признак
// того, что публикация в очередь не удалась. Используется sweep'ом.
func (r *RunRepo) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]domain.Run, error) {
	rows, err := r.pool.Query(ctx, runSelect+`
		WHERE status = 'running'
		  AND dispatch_attempts > 0
		  AND created_at < $1
		  AND NOT EXISTS (SELECT 1 FROM attempts a WHERE a.run_id = runs.id)
		ORDER BY created_at ASC
		LIMIT $2
	`, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale runs: %w", err)
	}
	defer rows.Close()
	return collectRuns(rows)
}

// --- Helpers ---

// RunFilter — параметры фильтрации runs.
type RunFilter struct {
	JobID     *uuid.UUID
	ProjectID *uuid.UUID
	Status    domain.RunStatus
	Limit     int
	Offset    int
}

const runSelect = `
	SELECT id, job_id, project_id, trigger_at, status,
	       dispatch_attempts, duration_ms, first_error, created_at
	FROM runs
`

func collectRuns(rows pgx.Rows) ([]domain.Run, error) {
	var runs []domain.Run
	for rows.Next() {
		run, err := scanRunColumns(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// scanRunColumns сканирует колонки run в доменную структуру.
func scanRunColumns(scan func(dest ...any) error) (*domain.Run, error) {
	var run domain.Run
	var firstError *string

	err := scan(
		&run.ID,
		&run.JobID,
		&run.ProjectID,
		&run.TriggerAt,
		&run.Status,
		&run.DispatchAttempts,
		&run.DurationMs,
		&firstError,
		&run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if firstError != nil {
		run.FirstError = *firstError
	}
	return &run, nil
}
