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

// CursorRepo — репозиторий для работы с fire cursors.
//
// Claim и advance — атомарные примитивы, на которых держится гарантия
// "один run на (job, trigger_at)" при нескольких экземплярах Scheduler'а.
// Оба работают внутри batch-транзакции, открытой вызывающей стороной.
type CursorRepo struct {
	pool *pgxpool.Pool
}

// NewCursorRepo создаёт новый CursorRepo.
func NewCursorRepo(pool *pgxpool.Pool) *CursorRepo {
	return &CursorRepo{pool: pool}
}

// ClaimDueTx выбирает до limit курсоров с наступившим сроком, блокируя
// строки через FOR UPDATE SKIP LOCKED: уже заблокированные конкурентной
// транзакцией строки пропускаются, поэтому параллельные Scheduler'ы
// получают непересекающиеся подмножества без взаимного ожидания.
//
// Курсоры приостановленных и лишённых расписания jobs не выбираются:
// просроченный курсор на паузе остаётся due неограниченно долго и иначе
// занимал бы место в каждом batch'е, вытесняя рабочие jobs.
func (r *CursorRepo) ClaimDueTx(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]domain.FireCursor, error) {
	rows, err := tx.Query(ctx, `
		SELECT c.job_id, c.next_at, c.version
		FROM fire_cursors c
		JOIN jobs j ON j.id = c.job_id
		WHERE c.next_at <= $1 AND NOT j.paused AND j.cron_expr <> ''
		ORDER BY c.next_at ASC
		FOR UPDATE OF c SKIP LOCKED
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("claim due cursors: %w", err)
	}
	defer rows.Close()

	var cursors []domain.FireCursor
	for rows.Next() {
		var c domain.FireCursor
		if err := rows.Scan(&c.JobID, &c.NextAt, &c.Version); err != nil {
			return nil, fmt.Errorf("scan cursor: %w", err)
		}
		cursors = append(cursors, c)
	}
	return cursors, rows.Err()
}

// AdvanceTx двигает курсор на следующее срабатывание.
//
// Обновление условное: строка должна всё ещё содержать прочитанный next_at.
// Поверх пессимистичной блокировки это даёт optimistic re-check — даже при
// ослабленной семантике блокировки продвинуть курсор за одно срабатывание
// может ровно один экземпляр. Version растёт на единицу.
// Возвращает ErrClaimConflict, если строка уже изменена.
func (r *CursorRepo) AdvanceTx(ctx context.Context, tx pgx.Tx, jobID uuid.UUID, seenNextAt, newNextAt time.Time) error {
	result, err := tx.Exec(ctx, `
		UPDATE fire_cursors
		SET next_at = $3, version = version + 1
		WHERE job_id = $1 AND next_at = $2
	`, jobID, seenNextAt, newNextAt)
	if err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrClaimConflict
	}
	return nil
}

// GetByJob возвращает курсор job.
func (r *CursorRepo) GetByJob(ctx context.Context, jobID uuid.UUID) (*domain.FireCursor, error) {
	var c domain.FireCursor
	err := r.pool.QueryRow(ctx,
		`SELECT job_id, next_at, version FROM fire_cursors WHERE job_id = $1`, jobID,
	).Scan(&c.JobID, &c.NextAt, &c.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan cursor: %w", err)
	}
	return &c, nil
}
