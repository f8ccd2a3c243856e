package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — одно материализованное срабатывание job.
//
// Создаётся Scheduler'ом в статусе running при наступлении срока, ровно один
// на пару (job, trigger_at). Dispatcher помечает run через DispatchAttempts
// и публикует задачу в очередь, Worker ставит терминальный статус.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// JobID — job-владелец.
	JobID uuid.UUID `json:"job_id"`

	// ProjectID — проект-владелец (копия из job для выборок по tenant'у).
	ProjectID uuid.UUID `json:"project_id"`

	// TriggerAt — срок срабатывания, которому соответствует run:
	// значение next_at курсора до продвижения, не момент фактической
	// обработки.
	TriggerAt time.Time `json:"trigger_at"`

	// Status — текущий статус run.
	Status RunStatus `json:"status"`

	// DispatchAttempts — сколько раз Dispatcher ставил run в очередь.
	// Это claim-маркер (run с DispatchAttempts >= 1 больше не выбирается),
	// а не счётчик retry — номера попыток живут в Attempt.
	DispatchAttempts int `json:"dispatch_attempts"`

	// DurationMs — длительность до терминального статуса.
	DurationMs *int64 `json:"duration_ms,omitempty"`

	// FirstError — краткое описание первой ошибки выполнения.
	// Сохраняется даже если последующий retry прошёл успешно.
	FirstError string `json:"first_error,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// IsFinished возвращает true, если run завершён.
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// Claimed возвращает true, если Dispatcher уже забрал run.
func (r *Run) Claimed() bool {
	return r.DispatchAttempts > 0
}
