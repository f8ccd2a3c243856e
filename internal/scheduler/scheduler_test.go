package scheduler

import (
	"context"
	"errors"
	"testing"
)

// fakeCycle имитирует последовательность batch-циклов: каждый вызов
// возвращает очередное число продвинутых курсоров.
func fakeCycle(results []int, calls *int) func(context.Context) (int, error) {
	return func(context.Context) (int, error) {
		*calls++
		return results[*calls-1], nil
	}
}

func TestDrainBatches_StopsWhenNothingAdvanced(t *testing.T) {
	// Due курсор, пропущенный без мутации (битое расписание,
	// исчезнувший job), продвигает ноль строк — drain обязан
	// завершиться после первого же такого batch'а, а не крутиться,
	// пока строка остаётся due.
	calls := 0
	err := drainBatches(context.Background(), fakeCycle([]int{0}, &calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("cycle calls = %d, want 1", calls)
	}
}

func TestDrainBatches_DrainsWhileAdvancing(t *testing.T) {
	calls := 0
	err := drainBatches(context.Background(), fakeCycle([]int{50, 50, 3, 0}, &calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 4 {
		t.Errorf("cycle calls = %d, want 4", calls)
	}
}

func TestDrainBatches_StopsBetweenBatchesOnCancel(t *testing.T) {
	// Остановка не прерывает начатый batch: текущий cycle получает
	// отвязанный контекст и завершается, но новый не начинается.
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := drainBatches(ctx, func(batchCtx context.Context) (int, error) {
		calls++
		cancel()
		if batchCtx.Err() != nil {
			t.Error("batch context should survive cancellation")
		}
		return 10, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("cycle calls = %d, want 1", calls)
	}
}

func TestDrainBatches_StopsOnError(t *testing.T) {
	storeErr := errors.New("connection refused")
	calls := 0
	err := drainBatches(context.Background(), func(context.Context) (int, error) {
		calls++
		if calls == 2 {
			return 0, storeErr
		}
		return 10, nil
	})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("cycle calls = %d, want 2", calls)
	}
}
