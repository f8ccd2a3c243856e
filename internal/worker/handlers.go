package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Chronos/internal/domain"
	"github.com/shaiso/Chronos/internal/mq"
	"github.com/shaiso/Chronos/internal/repo"
	"github.com/shaiso/Chronos/internal/telemetry"
)

// handleExecuteTask обрабатывает задачу из очереди tasks.execute.
func (w *Worker) handleExecuteTask(ctx context.Context, delivery *mq.Delivery) error {
	task, err := mq.ParsePayload[mq.ExecuteTaskPayload](&delivery.Message)
	if err != nil {
		// Битый payload не станет лучше от redelivery
		w.logger.Error("failed to parse task payload", "error", err)
		return nil
	}

	logger := telemetry.WithRunID(w.logger, task.RunID.String())
	logger.Debug("received execution task", "job_id", task.JobID, "kind", task.Kind)

	if err := w.processTask(ctx, &task); err != nil {
		// Ожидаемые ситуации — ack без повторной доставки
		if errors.Is(err, ErrRunNotFound) || errors.Is(err, ErrRunFinished) {
			logger.Debug("task skipped", "reason", err)
			return nil
		}
		logger.Error("failed to process task", "job_id", task.JobID, "error", err)
		return err
	}

	return nil
}

// processTask выполняет действие run и обрабатывает результат.
//
// Одна обработка задачи — ровно одна Attempt. Retry не выполняется
// на месте: при неудаче задача уходит в retry-очередь и вернётся
// отдельной доставкой после backoff.
func (w *Worker) processTask(ctx context.Context, task *mq.ExecuteTaskPayload) error {
	// 1. Загружаем run
	run, err := w.runRepo.GetByID(ctx, task.RunID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, task.RunID)
		}
		return fmt.Errorf("get run: %w", err)
	}

	// 2. Повторная доставка после финализации — no-op
	if run.IsFinished() {
		return ErrRunFinished
	}

	// Crash-recovery: исход уже записан в Attempts, но финализация
	// не дошла — дописываем терминальный статус без повторного выполнения.
	if recovered, err := w.recoverFinished(ctx, run, task); err != nil || recovered {
		return err
	}

	// 3. Выполняем действие
	attempt, execErr := w.executeAttempt(ctx, task)

	// Срыв остановкой воркера — не исход попытки: Attempt не пишем,
	// задача уходит на redelivery и выполняется целиком в другом месте
	if interruptedByStop(ctx, execErr) {
		return fmt.Errorf("worker stopping: %w", ctx.Err())
	}

	// 4. Записываем попытку; номер присваивает store
	if err := w.attemptRepo.Create(ctx, attempt); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}

	telemetry.Attempts.WithLabelValues(string(attempt.Status)).Inc()
	telemetry.ActionLatency.Observe(float64(attempt.LatencyMs) / 1000)

	logger := telemetry.WithRunID(w.logger, run.ID.String())

	// 5. Успех — идемпотентная финализация
	if attempt.Status == domain.AttemptStatusSuccess {
		if err := w.finalizeRun(ctx, run.ID, domain.RunStatusSuccess, attempt.LatencyMs, ""); err != nil {
			return fmt.Errorf("finalize run: %w", err)
		}
		logger.Info("run succeeded",
			"job_id", task.JobID,
			"attempt", attempt.AttemptNo,
			"latency_ms", attempt.LatencyMs,
		)
		return nil
	}

	errMsg := execErr.Error()

	// 6. Доставки остались — backoff через retry-очередь.
	// Неизвестный или нереализованный kind — ошибка конфигурации,
	// повтор не поможет.
	if attempt.AttemptNo <= task.RetryMax && !isConfigError(execErr) {
		if err := w.runRepo.RecordFirstError(ctx, run.ID, errMsg); err != nil {
			return fmt.Errorf("record first error: %w", err)
		}

		delay := mq.RetryDelay(attempt.AttemptNo, task.BackoffBaseMs)
		if err := w.publisher.PublishExecuteRetry(ctx, *task, delay); err != nil {
			return fmt.Errorf("publish retry: %w", err)
		}

		logger.Warn("attempt failed, retry scheduled",
			"job_id", task.JobID,
			"attempt", attempt.AttemptNo,
			"retry_max", task.RetryMax,
			"delay", delay,
			"error", errMsg,
		)
		return nil
	}

	// 7. Попытки исчерпаны
	if err := w.finalizeRun(ctx, run.ID, domain.RunStatusFailed, attempt.LatencyMs, errMsg); err != nil {
		return fmt.Errorf("finalize run: %w", err)
	}

	logger.Warn("run failed",
		"job_id", task.JobID,
		"attempt", attempt.AttemptNo,
		"error", errMsg,
	)
	return nil
}

// isConfigError сообщает, вызвана ли неудача конфигурацией job,
// а не выполнением действия.
func isConfigError(err error) bool {
	return errors.Is(err, ErrUnknownActionKind) || errors.Is(err, ErrActionNotImplemented)
}

// interruptedByStop сообщает, что попытка сорвана отменой родительского
// контекста (остановка воркера), а не поведением действия. Таймаут
// действия сюда не попадает: у него свой дочерний контекст с deadline.
func interruptedByStop(ctx context.Context, execErr error) bool {
	return execErr != nil && errors.Is(ctx.Err(), context.Canceled)
}

// executeAttempt выполняет одну попытку действия под таймаутом задачи
// и возвращает готовую к записи Attempt. Латентность меряется и для
// неуспеха: время до таймаута или до ошибки соединения.
// Вторым значением возвращается причина неудачи (nil при успехе).
func (w *Worker) executeAttempt(ctx context.Context, task *mq.ExecuteTaskPayload) (*domain.Attempt, error) {
	attempt := &domain.Attempt{
		ID:        uuid.New(),
		RunID:     task.RunID,
		StartedAt: time.Now(),
	}

	result, execErr := w.runAction(ctx, task)

	attempt.FinishedAt = time.Now()
	attempt.LatencyMs = attempt.FinishedAt.Sub(attempt.StartedAt).Milliseconds()

	if result != nil {
		attempt.HTTPStatus = result.HTTPStatus
		attempt.ResponseExcerpt = result.Excerpt
	}

	switch {
	case execErr != nil:
		attempt.Status = domain.AttemptStatusFailed
		return attempt, execErr
	case result != nil && result.Error != "":
		attempt.Status = domain.AttemptStatusFailed
		return attempt, errors.New(result.Error)
	default:
		attempt.Status = domain.AttemptStatusSuccess
		return attempt, nil
	}
}

// runAction вызывает action под таймаутом из политики задачи.
func (w *Worker) runAction(ctx context.Context, task *mq.ExecuteTaskPayload) (*Result, error) {
	action, err := w.registry.Get(task.Kind)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(task.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = w.fallbackTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := action.Execute(execCtx, task)
	if err != nil && errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		return result, fmt.Errorf("%w after %s", ErrActionTimeout, timeout)
	}
	return result, err
}

// finalizeRun записывает терминальный статус run с одним повтором:
// транзиентный сбой store на финализации не должен приводить
// к повторному выполнению действия.
func (w *Worker) finalizeRun(ctx context.Context, id uuid.UUID, status domain.RunStatus, latencyMs int64, firstError string) error {
	err := w.runRepo.Finalize(ctx, id, status, latencyMs, firstError)
	if err == nil {
		return nil
	}
	w.logger.Warn("finalize failed, retrying once", "run_id", id, "error", err)
	return w.runRepo.Finalize(ctx, id, status, latencyMs, firstError)
}

// recoverFinished проверяет, определился ли исход run по уже записанным
// попыткам без финализации (crash между записью Attempt и Finalize):
// последняя попытка успешна, либо попытки исчерпаны.
func (w *Worker) recoverFinished(ctx context.Context, run *domain.Run, task *mq.ExecuteTaskPayload) (bool, error) {
	attempts, err := w.attemptRepo.ListByRun(ctx, run.ID)
	if err != nil {
		return false, fmt.Errorf("list attempts: %w", err)
	}
	if len(attempts) == 0 {
		return false, nil
	}

	last := attempts[len(attempts)-1]

	status := domain.RunStatusSuccess
	firstError := ""
	if last.Status != domain.AttemptStatusSuccess {
		if last.AttemptNo <= task.RetryMax {
			return false, nil
		}
		status = domain.RunStatusFailed
		firstError = "attempt failed"
		if last.HTTPStatus != nil {
			firstError = fmt.Sprintf("HTTP %d", *last.HTTPStatus)
		}
	}

	if err := w.finalizeRun(ctx, run.ID, status, last.LatencyMs, firstError); err != nil {
		return false, fmt.Errorf("finalize recovered run: %w", err)
	}

	w.logger.Info("recovered unfinalized run", "run_id", run.ID, "status", status)
	return true, nil
}
