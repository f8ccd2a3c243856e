// Package repo реализует доступ к scheduling store (Postgres, pgx).
//
// Структура:
//   - db.go            — пул подключений
//   - migrate.go       — применение embedded SQL-миграций
//   - project_repo.go  — projects (tenants)
//   - job_repo.go      — определения jobs (пайплайну — read-only)
//   - cursor_repo.go   — fire cursors: claim (FOR UPDATE SKIP LOCKED)
//     и условный advance с инкрементом version
//   - run_repo.go      — runs: создание, атомарный claim для dispatch,
//     идемпотентный finalize
//   - attempt_repo.go  — attempts: append-only с нумерацией при записи
//
// Store — единственное место взаимного исключения между экземплярами:
// вся межпроцессная координация выражена строчными блокировками и
// условными update'ами, in-memory блокировок между экземплярами нет.
package repo
