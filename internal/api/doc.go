// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go         — Handler с DI (репозитории, logger)
//   - routes.go          — регистрация маршрутов
//   - middleware.go      — middleware (logging, recovery)
//   - response.go        — унифицированные JSON-ответы и обработка ошибок
//   - dto.go             — Data Transfer Objects (request/response)
//   - project_handler.go — обработчики для /projects
//   - job_handler.go     — обработчики для /jobs
//   - run_handler.go     — обработчики для /runs и /attempts
//
// API предоставляет REST endpoints для управления projects и jobs,
// а также read-only доступ к истории runs и attempts.
package api
