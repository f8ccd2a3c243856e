// Package schedule вычисляет моменты срабатывания cron-расписаний.
//
// Единственный контракт — NextFire(cron, tz, from) → UTC-момент.
// Выражение интерпретируется в wall-clock указанной IANA-таймзоны
// (DST-корректно), результат хранится и сравнивается в UTC.
package schedule
