package worker

import (
	"context"
	"fmt"

	"github.com/shaiso/Chronos/internal/mq"
)

// Action — интерфейс выполнения одного типа действия.
//
// Реализации: HTTPAction. Для queue и internal зарегистрированы
// заглушки — добавление нового типа не требует изменений в пайплайне
// диспетчеризации, достаточно Register.
//
// ctx приходит с таймаутом, установленным из политики задачи.
type Action interface {
	Execute(ctx context.Context, task *mq.ExecuteTaskPayload) (*Result, error)
}

// Result — результат выполнения действия.
type Result struct {
	// HTTPStatus — код ответа для http-действий, nil для остальных
	// и для попыток, не дошедших до ответа.
	HTTPStatus *int

	// Excerpt — фрагмент тела ответа для диагностики.
	Excerpt string

	// Error — логическая ошибка выполнения (например, неуспешный
	// HTTP-статус). Транспортные ошибки возвращаются через error
	// в Execute().
	Error string
}

// Registry — реестр action'ов по типу действия.
type Registry struct {
	actions map[string]Action
}

// NewRegistry создаёт реестр с action'ами по умолчанию.
func NewRegistry() *Registry {
	r := &Registry{actions: make(map[string]Action)}
	r.Register("http", NewHTTPAction())
	r.Register("queue", notImplementedAction{kind: "queue"})
	r.Register("internal", notImplementedAction{kind: "internal"})
	return r
}

// Register добавляет action для типа действия.
func (r *Registry) Register(kind string, action Action) {
	r.actions[kind] = action
}

// notImplementedAction — заглушка для объявленных, но не реализованных
// типов действий. Run завершается ошибкой без повторных доставок:
// redelivery не изменит конфигурацию.
type notImplementedAction struct {
	kind string
}

func (a notImplementedAction) Execute(ctx context.Context, task *mq.ExecuteTaskPayload) (*Result, error) {
	return nil, fmt.Errorf("%w: %s", ErrActionNotImplemented, a.kind)
}

// Get возвращает action для типа действия.
func (r *Registry) Get(kind string) (Action, error) {
	action, ok := r.actions[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActionKind, kind)
	}
	return action, nil
}
