package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Chronos/internal/domain"
)

// AttemptRepo — репозиторий для работы с attempts.
// Attempts append-only: никаких update/delete.
type AttemptRepo struct {
	pool *pgxpool.Pool
}

// NewAttemptRepo создаёт новый AttemptRepo.
func NewAttemptRepo(pool *pgxpool.Pool) *AttemptRepo {
	return &AttemptRepo{pool: pool}
}

// Create записывает попытку. Номер присваивается в момент записи
// (MAX(attempt_no)+1 в пределах run), поэтому попытки строго упорядочены
// даже при конкурентных доставках; присвоенный номер кладётся обратно
// в a.AttemptNo.
func (r *AttemptRepo) Create(ctx context.Context, a *domain.Attempt) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO attempts (id, run_id, attempt_no, started_at, finished_at,
		                      status, http_status, latency_ms, response_excerpt)
		VALUES ($1, $2,
		        (SELECT COALESCE(MAX(attempt_no), 0) + 1 FROM attempts WHERE run_id = $2),
		        $3, $4, $5, $6, $7, $8)
		RETURNING attempt_no
	`,
		a.ID,
		a.RunID,
		a.StartedAt,
		a.FinishedAt,
		a.Status,
		a.HTTPStatus,
		a.LatencyMs,
		nullString(a.ResponseExcerpt),
	).Scan(&a.AttemptNo)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// ListByRun возвращает попытки run в порядке номеров.
func (r *AttemptRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.Attempt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, run_id, attempt_no, started_at, finished_at,
		       status, http_status, latency_ms, response_excerpt
		FROM attempts
		WHERE run_id = $1
		ORDER BY attempt_no ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.Attempt
	for rows.Next() {
		var a domain.Attempt
		var excerpt *string
		err := rows.Scan(
			&a.ID,
			&a.RunID,
			&a.AttemptNo,
			&a.StartedAt,
			&a.FinishedAt,
			&a.Status,
			&a.HTTPStatus,
			&a.LatencyMs,
			&excerpt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if excerpt != nil {
			a.ResponseExcerpt = *excerpt
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// CountByRun возвращает количество попыток run.
// Worker использует его для определения номера следующей доставки.
func (r *AttemptRepo) CountByRun(ctx context.Context, runID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempts WHERE run_id = $1`, runID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return count, nil
}
