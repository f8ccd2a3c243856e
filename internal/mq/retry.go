package mq

import "time"

// Пределы backoff.
const (
	// DefaultBackoffBase — базовая задержка retry по умолчанию.
	DefaultBackoffBase = time.Second

	// maxBackoff — потолок задержки между доставками.
	maxBackoff = 5 * time.Minute
)

// RetryDelay вычисляет задержку перед повторной доставкой задачи.
//
// attempt — номер уже выполненной попытки (1, 2, ...), baseMs — базовая
// задержка из политики задачи. Экспонента: base * 2^(attempt-1),
// с потолком maxBackoff.
func RetryDelay(attempt, baseMs int) time.Duration {
	base := time.Duration(baseMs) * time.Millisecond
	if base <= 0 {
		base = DefaultBackoffBase
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}

	if delay > maxBackoff {
		delay = maxBackoff
	}
	return delay
}
