package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Chronos/internal/domain"
)

// JobRepo — репозиторий для работы с jobs.
//
// Пайплайн читает jobs и проверяет paused; мутации (создание, пауза,
// настройка retry/timeout, удаление) принадлежат management API.
type JobRepo struct {
	pool *pgxpool.Pool
}

// NewJobRepo создаёт новый JobRepo.
func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

// CreateWithCursor создаёт job вместе с его fire cursor в одной транзакции.
// nextAt — первое срабатывание, вычисленное из cron-выражения job.
func (r *JobRepo) CreateWithCursor(ctx context.Context, job *domain.Job, nextAt time.Time) error {
	headersJSON, err := json.Marshal(job.Headers)
	if err != nil {
		return fmt.Errorf("marshal headers: %w", err)
	}
	bodyJSON, err := json.Marshal(job.BodyTemplate)
	if err != nil {
		return fmt.Errorf("marshal body template: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO jobs (id, project_id, name, kind, cron_expr, timezone,
		                  target_url, method, headers, body_template,
		                  retry_max, timeout_ms, concurrency, paused, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		job.ID,
		job.ProjectID,
		job.Name,
		job.Kind,
		job.CronExpr,
		job.Timezone,
		nullString(job.TargetURL),
		nullString(job.Method),
		headersJSON,
		bodyJSON,
		job.RetryMax,
		job.TimeoutMs,
		job.Concurrency,
		job.Paused,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO fire_cursors (job_id, next_at, version) VALUES ($1, $2, 0)`,
		job.ID, nextAt,
	)
	if err != nil {
		return fmt.Errorf("insert fire cursor: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByID возвращает job по ID.
func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	return r.scanJob(r.pool.QueryRow(ctx, `
		SELECT id, project_id, name, kind, cron_expr, timezone, target_url,
		       method, headers, body_template, retry_max, timeout_ms,
		       concurrency, paused, created_at
		FROM jobs
		WHERE id = $1
	`, id))
}

// GetByIDTx возвращает job в рамках открытой транзакции.
// Используется Scheduler'ом внутри batch-транзакции.
func (r *JobRepo) GetByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Job, error) {
	return r.scanJob(tx.QueryRow(ctx, `
		SELECT id, project_id, name, kind, cron_expr, timezone, target_url,
		       method, headers, body_template, retry_max, timeout_ms,
		       concurrency, paused, created_at
		FROM jobs
		WHERE id = $1
	`, id))
}

// List возвращает список jobs с фильтрацией.
func (r *JobRepo) List(ctx context.Context, filter JobFilter) ([]domain.Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, name, kind, cron_expr, timezone, target_url,
		       method, headers, body_template, retry_max, timeout_ms,
		       concurrency, paused, created_at
		FROM jobs
		WHERE ($1::uuid IS NULL OR project_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, nullUUID(filter.ProjectID), filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := r.scanJobFromRows(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// SetPaused приостанавливает или возобновляет job.
func (r *JobRepo) SetPaused(ctx context.Context, id uuid.UUID, paused bool) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE jobs SET paused = $2 WHERE id = $1`, id, paused,
	)
	if err != nil {
		return fmt.Errorf("set paused: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTuning обновляет настройки retry/timeout/concurrency.
// Расписание и действие job после создания не редактируются.
func (r *JobRepo) UpdateTuning(ctx context.Context, id uuid.UUID, retryMax, timeoutMs, concurrency int) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE jobs SET retry_max = $2, timeout_ms = $3, concurrency = $4 WHERE id = $1
	`, id, retryMax, timeoutMs, concurrency)
	if err != nil {
		return fmt.Errorf("update tuning: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет job. Cursor, runs и attempts удаляются каскадом.
func (r *JobRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

// JobFilter — параметры фильтрации jobs.
type JobFilter struct {
	ProjectID *uuid.UUID
	Limit     int
	Offset    int
}

func (r *JobRepo) scanJob(row pgx.Row) (*domain.Job, error) {
	job, err := scanJobColumns(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return job, err
}

func (r *JobRepo) scanJobFromRows(rows pgx.Rows) (*domain.Job, error) {
	return scanJobColumns(rows.Scan)
}

// scanJobColumns сканирует колонки job в доменную структуру.
func scanJobColumns(scan func(dest ...any) error) (*domain.Job, error) {
	var j domain.Job
	var targetURL, method *string
	var headersJSON, bodyJSON []byte

	err := scan(
		&j.ID,
		&j.ProjectID,
		&j.Name,
		&j.Kind,
		&j.CronExpr,
		&j.Timezone,
		&targetURL,
		&method,
		&headersJSON,
		&bodyJSON,
		&j.RetryMax,
		&j.TimeoutMs,
		&j.Concurrency,
		&j.Paused,
		&j.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}

	if targetURL != nil {
		j.TargetURL = *targetURL
	}
	if method != nil {
		j.Method = *method
	}
	if headersJSON != nil {
		if err := json.Unmarshal(headersJSON, &j.Headers); err != nil {
			return nil, fmt.Errorf("unmarshal headers: %w", err)
		}
	}
	if bodyJSON != nil {
		if err := json.Unmarshal(bodyJSON, &j.BodyTemplate); err != nil {
			return nil, fmt.Errorf("unmarshal body template: %w", err)
		}
	}

	return &j, nil
}
