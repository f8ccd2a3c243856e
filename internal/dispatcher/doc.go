// Package dispatcher — второй этап пайплайна: перенос свежесозданных
// runs из базы в очередь выполнения.
//
// Dispatcher забирает runs атомарным инкрементом dispatch_attempts
// (FOR UPDATE SKIP LOCKED внутри одного UPDATE), собирает снимок
// параметров действия из job и публикует задачу в tasks.execute.
// Забранный run не выбирается повторно даже при неудачной публикации;
// такие runs добирает периодический sweep.
//
// Экземпляры dispatcher горизонтально масштабируются без координации:
// claim в store гарантирует, что каждый run получит ровно одну задачу.
package dispatcher
