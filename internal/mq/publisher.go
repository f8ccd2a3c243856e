package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeRunCreated  MessageType = "run.created"
	MessageTypeTaskExecute MessageType = "task.execute"
)

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// RunCreatedPayload — payload уведомления о новом run.
type RunCreatedPayload struct {
	RunID uuid.UUID `json:"run_id"`
}

// ExecuteTaskPayload — задача на выполнение действия run.
//
// Снимок параметров действия делается Dispatcher'ом в момент публикации:
// Worker выполняет то, что лежало в job на момент диспетчеризации.
// RetryMax и BackoffBaseMs — политика retry, приложенная к задаче;
// расписанием повторов владеет очередь, не Dispatcher.
type ExecuteTaskPayload struct {
	RunID         uuid.UUID         `json:"run_id"`
	JobID         uuid.UUID         `json:"job_id"`
	ProjectID     uuid.UUID         `json:"project_id"`
	Kind          string            `json:"kind"`
	Target        string            `json:"target,omitempty"`
	Method        string            `json:"method,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
	Body          map[string]any    `json:"body,omitempty"`
	TimeoutMs     int               `json:"timeout_ms"`
	RetryMax      int               `json:"retry_max"`
	BackoffBaseMs int               `json:"backoff_base_ms"`
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	return p.publish(ctx, string(exchange), string(routingKey), msg, 0)
}

// PublishRunCreated публикует уведомление о новом run.
// Потребитель: Dispatcher (nudge для немедленного poll-цикла).
func (p *Publisher) PublishRunCreated(ctx context.Context, runID uuid.UUID) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeRunCreated,
		Payload:   RunCreatedPayload{RunID: runID},
		Timestamp: time.Now(),
	}
	return p.Publish(ctx, ExchangeRuns, RoutingKeyCreated, msg)
}

// PublishExecuteTask публикует задачу на выполнение. Потребитель: Worker.
func (p *Publisher) PublishExecuteTask(ctx context.Context, task ExecuteTaskPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeTaskExecute,
		Payload:   task,
		Timestamp: time.Now(),
	}
	return p.Publish(ctx, ExchangeTasks, RoutingKeyExecute, msg)
}

// PublishExecuteRetry кладёт задачу в retry-очередь с задержкой delay.
// Публикация идёт через default exchange напрямую в tasks.retry;
// по истечении per-message TTL брокер dead-letter'ит сообщение обратно
// в tasks.execute — так очередь, а не Worker, владеет расписанием retry.
func (p *Publisher) PublishExecuteRetry(ctx context.Context, task ExecuteTaskPayload, delay time.Duration) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeTaskExecute,
		Payload:   task,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, "", string(QueueTasksRetry), msg, delay)
}

// publish — общий путь публикации; expiration > 0 задаёт per-message TTL.
func (p *Publisher) publish(ctx context.Context, exchange, routingKey string, msg *Message, expiration time.Duration) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
		MessageId:    msg.ID,
		Timestamp:    msg.Timestamp,
		Body:         body,
	}
	if expiration > 0 {
		pub.Expiration = strconv.FormatInt(expiration.Milliseconds(), 10)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx, exchange, routingKey, false, false, pub)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}
