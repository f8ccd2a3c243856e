package dispatcher

import (
	"time"

	"github.com/shaiso/Chronos/internal/domain"
	"github.com/shaiso/Chronos/internal/mq"
)

// BuildTask собирает задачу на выполнение из job и run.
//
// Это снимок: Worker исполняет параметры действия на момент
// диспетчеризации, последующие правки job на задачу не влияют.
func BuildTask(job *domain.Job, run *domain.Run, defaultTimeout time.Duration) mq.ExecuteTaskPayload {
	timeoutMs := job.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = int(defaultTimeout.Milliseconds())
	}

	return mq.ExecuteTaskPayload{
		RunID:         run.ID,
		JobID:         job.ID,
		ProjectID:     job.ProjectID,
		Kind:          string(job.Kind),
		Target:        job.TargetURL,
		Method:        job.Method,
		Headers:       job.Headers,
		Body:          job.BodyTemplate,
		TimeoutMs:     timeoutMs,
		RetryMax:      job.RetryMax,
		BackoffBaseMs: int(mq.DefaultBackoffBase.Milliseconds()),
	}
}
