package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidSchedule — некорректное cron-выражение или таймзона,
// либо у расписания нет будущих срабатываний.
var ErrInvalidSchedule = errors.New("invalid schedule")

// cronParser — парсер 5-польных cron-выражений (минуты часы дни месяцы дни_недели).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextFire вычисляет следующий момент срабатывания cron-выражения.
//
// Выражение интерпретируется в wall-clock таймзоны tz: job "0 9 * * *"
// с tz=Europe/Berlin срабатывает в 9:00 локального времени и до, и после
// перехода на летнее время (08:00 UTC зимой, 07:00 UTC летом).
// Результат возвращается в UTC.
//
// Чистая функция: без I/O и побочных эффектов, используется и при создании
// job, и в шаге advance планировщика.
func NextFire(cronExpr, tz string, from time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timezone %q: %v", ErrInvalidSchedule, tz, err)
	}

	spec, err := cronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cron %q: %v", ErrInvalidSchedule, cronExpr, err)
	}

	next := spec.Next(from.In(loc))
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("%w: cron %q has no future occurrence", ErrInvalidSchedule, cronExpr)
	}

	return next.UTC(), nil
}

// Validate проверяет cron-выражение и таймзону.
// Используется management API при создании job.
func Validate(cronExpr, tz string) error {
	_, err := NextFire(cronExpr, tz, time.Now())
	return err
}
