package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestNextFire_DSTTransition(t *testing.T) {
	// "0 9 * * *" в Europe/Berlin должен срабатывать в 9:00 локального
	// времени и зимой (CET, UTC+1), и летом (CEST, UTC+2).

	// Зима: 2025-01-15 → следующее срабатывание 2025-01-15 08:00 UTC
	from := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	next, err := NextFire("0 9 * * *", "Europe/Berlin", from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("winter: expected %s, got %s", want, next)
	}

	// Лето: 2025-07-15 → следующее срабатывание 2025-07-15 07:00 UTC
	from = time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	next, err = NextFire("0 9 * * *", "Europe/Berlin", from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = time.Date(2025, 7, 15, 7, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("summer: expected %s, got %s", want, next)
	}
}

func TestNextFire_AcrossDSTBoundary(t *testing.T) {
	// Переход на летнее время в Европе: 2025-03-30 02:00 → 03:00.
	// Срабатывания вокруг границы: 29.03 08:00 UTC, 30.03 07:00 UTC.
	from := time.Date(2025, 3, 29, 9, 0, 0, 0, time.UTC)

	first, err := NextFire("0 9 * * *", "Europe/Berlin", from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := NextFire("0 9 * * *", "Europe/Berlin", first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := time.Date(2025, 3, 30, 7, 0, 0, 0, time.UTC); !first.Equal(want) {
		t.Errorf("first fire: expected %s, got %s", want, first)
	}
	if want := time.Date(2025, 3, 31, 7, 0, 0, 0, time.UTC); !second.Equal(want) {
		t.Errorf("second fire: expected %s, got %s", want, second)
	}
}

func TestNextFire_StrictlyIncreasing(t *testing.T) {
	// Повторные вызовы с предыдущим результатом как from дают строго
	// возрастающую последовательность.
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	prev := from
	for i := 0; i < 10; i++ {
		next, err := NextFire("*/5 * * * *", "America/New_York", prev)
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
		if !next.After(prev) {
			t.Fatalf("iteration %d: %s is not after %s", i, next, prev)
		}
		if next.Location() != time.UTC {
			t.Fatalf("iteration %d: result not in UTC", i)
		}
		prev = next
	}
}

func TestNextFire_EveryMinute(t *testing.T) {
	from := time.Date(2025, 6, 1, 12, 30, 15, 0, time.UTC)
	next, err := NextFire("* * * * *", "Europe/Berlin", from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 6, 1, 12, 31, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %s, got %s", want, next)
	}
}

func TestNextFire_InvalidCron(t *testing.T) {
	_, err := NextFire("not a cron", "UTC", time.Now())
	if !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("expected ErrInvalidSchedule, got %v", err)
	}
}

func TestNextFire_InvalidTimezone(t *testing.T) {
	_, err := NextFire("* * * * *", "Mars/Olympus_Mons", time.Now())
	if !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("expected ErrInvalidSchedule, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("0 9 * * 1-5", "Europe/Berlin"); err != nil {
		t.Errorf("valid schedule rejected: %v", err)
	}
	if err := Validate("61 * * * *", "UTC"); err == nil {
		t.Error("expected error for minute out of range")
	}
}
