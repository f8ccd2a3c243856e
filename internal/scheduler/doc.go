// Package scheduler реализует первый этап пайплайна: превращение
// due fire cursors в runs.
//
// Один tick выполняет batch-циклы, пока батчи продвигают курсоры.
// Каждый batch —
// одна транзакция: claim курсоров (FOR UPDATE SKIP LOCKED), для каждой
// строки — проверка job, вычисление следующего срабатывания, условный
// advance курсора (совпадение next_at + version+1) и вставка run
// с trigger_at = исходный срок.
//
// Гарантия: блокировка в выборке плюс условный advance дают не больше
// одного продвижения курсора на срабатывание, а значит ровно один run
// на пару (job, trigger_at). Лидер не нужен — экземпляры Scheduler'а
// масштабируются конкурентно против общего store.
package scheduler
