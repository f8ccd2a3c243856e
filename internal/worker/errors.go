package worker

import "errors"

// Ошибки воркера.
var (
	// ErrRunNotFound — run не найден в БД.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunFinished — run уже в терминальном статусе.
	ErrRunFinished = errors.New("run already finished")

	// ErrUnknownActionKind — нет action'а для данного типа действия.
	ErrUnknownActionKind = errors.New("unknown action kind")

	// ErrActionNotImplemented — тип действия объявлен, но исполнитель
	// для него ещё не реализован.
	ErrActionNotImplemented = errors.New("action kind not implemented")

	// ErrActionTimeout — действие превысило таймаут job.
	ErrActionTimeout = errors.New("action timeout")

	// ErrHTTPRequest — HTTP-запрос завершился ошибкой транспорта.
	ErrHTTPRequest = errors.New("http request failed")
)
