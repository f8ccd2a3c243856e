package domain

import (
	"time"

	"github.com/google/uuid"
)

// Attempt — одна попытка выполнения действия run.
//
// Append-only запись, создаётся Worker'ом на каждую доставку задачи из
// очереди. AttemptNo присваивается при записи в БД и строго возрастает
// в пределах run — полная история retry видна по списку attempts.
type Attempt struct {
	// ID — уникальный идентификатор attempt.
	ID uuid.UUID `json:"id"`

	// RunID — run-владелец.
	RunID uuid.UUID `json:"run_id"`

	// AttemptNo — номер попытки, начиная с 1.
	AttemptNo int `json:"attempt_no"`

	// StartedAt — начало выполнения действия.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — окончание выполнения.
	FinishedAt time.Time `json:"finished_at"`

	// Status — итог попытки.
	Status AttemptStatus `json:"status"`

	// HTTPStatus — транспортный статус-код ответа.
	// Nil при сетевой ошибке или таймауте.
	HTTPStatus *int `json:"http_status,omitempty"`

	// LatencyMs — длительность вызова. При сетевой ошибке — время
	// до отказа соединения.
	LatencyMs int64 `json:"latency_ms"`

	// ResponseExcerpt — усечённый фрагмент тела ответа.
	ResponseExcerpt string `json:"response_excerpt,omitempty"`
}

// Duration возвращает длительность попытки.
func (a *Attempt) Duration() time.Duration {
	return a.FinishedAt.Sub(a.StartedAt)
}
