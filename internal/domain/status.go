package domain

// RunStatus — статус выполнения run.
//
// Жизненный цикл:
//
//	running → success
//	        ↘ failed
//
// Run создаётся сразу в статусе running (момент наступления расписания),
// терминальный статус ставит Worker по результату попытки.
type RunStatus string

const (
	// RunStatusRunning — run создан Scheduler'ом, выполнение ещё не завершено.
	RunStatusRunning RunStatus = "running"

	// RunStatusSuccess — действие выполнено успешно.
	RunStatusSuccess RunStatus = "success"

	// RunStatusFailed — действие завершилось ошибкой (после всех retry).
	RunStatusFailed RunStatus = "failed"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSuccess, RunStatusFailed:
		return true
	default:
		return false
	}
}

// AttemptStatus — статус одной попытки выполнения.
type AttemptStatus string

const (
	// AttemptStatusSuccess — транспортный вызов завершился успешным статусом.
	AttemptStatusSuccess AttemptStatus = "success"

	// AttemptStatusFailed — таймаут, сетевая ошибка или неуспешный статус.
	AttemptStatusFailed AttemptStatus = "failed"
)

// ActionKind — тип действия job.
//
// Сейчас реализован только http. queue и internal — объявленные варианты
// для будущих типов действий: реестр действий в worker'е позволяет добавить
// новый kind без изменения логики диспетчеризации.
type ActionKind string

const (
	// ActionKindHTTP — HTTP-запрос к целевому адресу.
	ActionKindHTTP ActionKind = "http"

	// ActionKindQueue — публикация сообщения в очередь (зарезервировано).
	ActionKindQueue ActionKind = "queue"

	// ActionKindInternal — внутреннее действие платформы (зарезервировано).
	ActionKindInternal ActionKind = "internal"
)

// Valid возвращает true для известного типа действия.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionKindHTTP, ActionKindQueue, ActionKindInternal:
		return true
	default:
		return false
	}
}
