// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений
//   - consumer.go   — потребление сообщений
//   - retry.go      — вычисление backoff-задержек
//
// Типы сообщений:
//   - run.created   — Scheduler создал run (nudge для Dispatcher'а)
//   - task.execute  — задача на выполнение действия (для Worker'а)
//
// Exchanges:
//   - chronos.runs  — события runs
//   - chronos.tasks — задачи на выполнение
//   - chronos.dlq   — dead letter queue
//
// Retry: очередь — единственный владелец расписания повторов. Повтор
// публикуется в tasks.retry с per-message TTL (экспоненциальный backoff),
// по истечении TTL брокер возвращает сообщение в tasks.execute.
package mq
