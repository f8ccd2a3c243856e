package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeRuns  Exchange = "chronos.runs"
	ExchangeTasks Exchange = "chronos.tasks"
	ExchangeDLQ   Exchange = "chronos.dlq"
)

// Queues — имена очередей.
const (
	// QueueRunsCreated — уведомления о новых runs (nudge для Dispatcher'а,
	// polling остаётся fallback'ом).
	QueueRunsCreated Queue = "runs.created"

	// QueueTasksExecute — задачи на выполнение. Потребитель: Worker.
	QueueTasksExecute Queue = "tasks.execute"

	// QueueTasksRetry — задержанные повторы. Сообщения лежат здесь свой
	// per-message TTL (экспоненциальный backoff) и по истечении
	// dead-letter'ятся обратно в tasks.execute. Потребителей нет —
	// расписанием retry владеет брокер.
	QueueTasksRetry Queue = "tasks.retry"

	// QueueDLQTasks — задачи с исчерпанными попытками.
	QueueDLQTasks Queue = "dlq.tasks"
)

// Routing keys.
const (
	RoutingKeyCreated  RoutingKey = "created"
	RoutingKeyExecute  RoutingKey = "execute"
	RoutingKeyDLQTasks RoutingKey = "tasks"
)

// SetupTopology объявляет exchanges, queues и bindings.
// Идемпотентно: повторное объявление с теми же аргументами безопасно.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeRuns, "direct"},
		{ExchangeTasks, "direct"},
		{ExchangeDLQ, "direct"},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	// tasks.execute: отвергнутые сообщения уходят в DLQ.
	executeArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQTasks),
	}

	// tasks.retry: по истечении TTL сообщение возвращается в tasks.execute.
	//
	// RabbitMQ проверяет per-message TTL только у головы очереди:
	// сообщение с большим backoff'ом задерживает стоящие за ним
	// с меньшим — вплоть до своего TTL. При капе backoff'а в 5 минут
	// retry может приехать позже расчётного, но не теряется. Если
	// понадобится точная задержка — очередь на каждую ступень backoff'а
	// или delayed-message exchange.
	retryArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeTasks),
		"x-dead-letter-routing-key": string(RoutingKeyExecute),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		{QueueRunsCreated, nil},
		{QueueTasksExecute, executeArgs},
		{QueueTasksRetry, retryArgs},
		{QueueDLQTasks, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueRunsCreated, RoutingKeyCreated, ExchangeRuns},
		{QueueTasksExecute, RoutingKeyExecute, ExchangeTasks},
		{QueueDLQTasks, RoutingKeyDLQTasks, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}
