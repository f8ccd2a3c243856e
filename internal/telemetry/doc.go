// Package telemetry — логирование (slog) и метрики (prometheus).
package telemetry
