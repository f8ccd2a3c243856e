package domain

import (
	"time"

	"github.com/google/uuid"
)

// FireCursor — указатель на следующее срабатывание job.
//
// На один job приходится ровно один cursor. Создаётся вместе с job,
// двигается только Scheduler'ом: claim строки через FOR UPDATE SKIP LOCKED,
// затем условный advance (совпадение next_at + инкремент version).
// Version растёт строго на единицу за один advance — это защита от двойного
// продвижения, если семантика блокировки окажется слабее ожидаемой.
type FireCursor struct {
	// JobID — job-владелец.
	JobID uuid.UUID `json:"job_id"`

	// NextAt — UTC-время следующего запланированного срабатывания.
	// В прошлом оно бывает только в окне между наступлением срока
	// и продвижением курсора.
	NextAt time.Time `json:"next_at"`

	// Version — монотонный счётчик продвижений.
	Version int64 `json:"version"`
}

// Due проверяет, наступил ли срок срабатывания.
func (c *FireCursor) Due(now time.Time) bool {
	return !c.NextAt.After(now)
}
