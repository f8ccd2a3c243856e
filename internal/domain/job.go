package domain

import (
	"time"

	"github.com/google/uuid"
)

// Job — определение повторяющейся задачи.
//
// Job принадлежит проекту (tenant) и описывает что и по какому расписанию
// выполнять. Для пайплайна Scheduler → Dispatcher → Worker job практически
// неизменяем: ядро читает его и проверяет paused, менять определение может
// только management API (paused, настройки retry/timeout).
type Job struct {
	// ID — уникальный идентификатор job.
	ID uuid.UUID `json:"id"`

	// ProjectID — проект-владелец.
	ProjectID uuid.UUID `json:"project_id"`

	// Name — человекочитаемое имя job.
	Name string `json:"name"`

	// Kind — тип действия: http, queue, internal.
	Kind ActionKind `json:"kind"`

	// CronExpr — cron-выражение (минуты часы дни месяцы дни_недели).
	// Интерпретируется в часовом поясе Timezone.
	CronExpr string `json:"cron_expr"`

	// Timezone — IANA-таймзона расписания, например "Europe/Berlin".
	Timezone string `json:"timezone"`

	// TargetURL — целевой адрес для kind=http.
	TargetURL string `json:"target_url,omitempty"`

	// Method — HTTP-метод. По умолчанию GET.
	Method string `json:"method,omitempty"`

	// Headers — заголовки запроса.
	Headers map[string]string `json:"headers,omitempty"`

	// BodyTemplate — тело запроса (сериализуется в JSON).
	BodyTemplate map[string]any `json:"body_template,omitempty"`

	// RetryMax — максимум повторных доставок задачи очередью
	// (не считая первой).
	RetryMax int `json:"retry_max"`

	// TimeoutMs — таймаут одного выполнения действия в миллисекундах.
	TimeoutMs int `json:"timeout_ms"`

	// Concurrency — предел одновременно выполняющихся runs этого job.
	Concurrency int `json:"concurrency"`

	// Paused — приостановленный job пропускается планировщиком.
	Paused bool `json:"paused"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// Timeout возвращает таймаут выполнения как Duration.
// Для нулевого TimeoutMs возвращает fallback.
func (j *Job) Timeout(fallback time.Duration) time.Duration {
	if j.TimeoutMs <= 0 {
		return fallback
	}
	return time.Duration(j.TimeoutMs) * time.Millisecond
}

// Schedulable возвращает true, если job можно запускать по расписанию.
func (j *Job) Schedulable() bool {
	return !j.Paused && j.CronExpr != ""
}

// Project — проект (tenant), владеющий jobs.
type Project struct {
	// ID — уникальный идентификатор проекта.
	ID uuid.UUID `json:"id"`

	// Name — имя проекта.
	Name string `json:"name"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}
