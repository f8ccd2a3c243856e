// Package worker выполняет действия runs.
//
// # Обзор
//
// Worker — stateless компонент системы Chronos, который исполняет
// задачи, опубликованные Dispatcher'ом. Worker отвечает за:
//
//   - Потребление задач из очереди tasks.execute
//   - Выполнение действия под таймаутом job (http, будущие типы)
//   - Запись каждой попытки как append-only Attempt
//   - Идемпотентную финализацию run
//   - Планирование retry через retry-очередь брокера
//
// Workers масштабируются горизонтально — несколько экземпляров
// потребляют из одной очереди tasks.execute.
//
// # Ключевые компоненты
//
// ## Worker
//
// Основная структура, управляющая жизненным циклом.
// Создаётся через New(cfg Config) и запускается методом Start(ctx).
//
//	w := worker.New(worker.Config{
//	    RunRepo:     runRepo,
//	    AttemptRepo: attemptRepo,
//	    Publisher:   publisher,
//	    Conn:        mqConn,
//	    Logger:      logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// ## Action
//
// Интерфейс для выполнения конкретного типа действия:
//
//	type Action interface {
//	    Execute(ctx context.Context, task *mq.ExecuteTaskPayload) (*Result, error)
//	}
//
// Реализации:
//   - HTTPAction — HTTP-запрос по снимку параметров задачи (method,
//     target, headers, body); успех — любой 2xx
//
// ## Registry
//
// Реестр action'ов по типу действия. NewRegistry() создаёт реестр
// с предустановленным http.
//
// # Обработка задачи
//
//  1. Загрузка run из БД
//  2. Run уже финализирован → ack без выполнения (redelivery безопасна)
//  3. Выполнение action под таймаутом из политики задачи
//  4. Запись Attempt (номер присваивает store)
//  5. Успех → Finalize(success)
//  6. Неудача, доставки остались → задача в retry-очередь с backoff
//  7. Неудача, попытки исчерпаны → Finalize(failed) с первой ошибкой
//
// # Retry
//
// Расписанием retry владеет брокер, не процесс: неудавшаяся задача
// публикуется в tasks.retry с per-message TTL (exponential backoff),
// по истечении которого RabbitMQ возвращает её в tasks.execute.
// Повтор переживает рестарт и перезапуск worker'ов.
//
// # Ошибки
//
// Пакет различает два уровня ошибок:
//   - Транспортные (error от Execute) — сеть упала, таймаут, DNS
//   - Логические (Result.Error) — неуспешный HTTP-статус
//
// Для подсчёта попыток оба уровня равнозначны: любая неудача
// записывается как failed Attempt и считается против RetryMax.
package worker
