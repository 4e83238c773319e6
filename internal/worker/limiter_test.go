package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dkovalov/papermine/internal/model"
)

func testLimiterConfig(concurrency int) model.LimiterConfig {
	return model.LimiterConfig{Concurrency: concurrency}
}

func TestNewLimiterRejectsBadConfig(t *testing.T) {
	if _, err := NewLimiter(model.LimiterConfig{Concurrency: 0}); err == nil {
		t.Error("expected error for zero concurrency")
	}
	if _, err := NewLimiter(model.LimiterConfig{Concurrency: 2, MinDelay: 10 * time.Millisecond, MaxDelay: 5 * time.Millisecond}); err == nil {
		t.Error("expected error for inverted delay range")
	}
}

func TestLimiterCapsConcurrency(t *testing.T) {
	limiter, err := NewLimiter(testLimiterConfig(3))
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}

	var inFlight, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			n := atomic.AddInt64(&inFlight, 1)
			for {
				old := atomic.LoadInt64(&peak)
				if n <= old || atomic.CompareAndSwapInt64(&peak, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			limiter.Release()
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&peak); got > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", got)
	}
}

func TestAcquireHonorsCancellation(t *testing.T) {
	limiter, err := NewLimiter(testLimiterConfig(1))
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}

	// Occupy the only slot.
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	defer limiter.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Acquire(ctx); err == nil {
		limiter.Release()
		t.Error("Acquire should fail once the context is cancelled")
	}
}

func TestSchedulerProcessesAllUnits(t *testing.T) {
	sched := NewScheduler(3, zap.NewNop())

	var mu sync.Mutex
	seen := make(map[string]bool)
	units := []string{"a", "b", "c", "d", "e", "f", "g"}

	failures := sched.Run(context.Background(), units, func(ctx context.Context, unit string) error {
		mu.Lock()
		seen[unit] = true
		mu.Unlock()
		return nil
	})

	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if len(seen) != len(units) {
		t.Errorf("processed %d units, want %d", len(seen), len(units))
	}
}

func TestSchedulerCollectsFailuresWithoutStopping(t *testing.T) {
	sched := NewScheduler(2, zap.NewNop())

	var processed int64
	failures := sched.Run(context.Background(), []string{"a", "bad", "c", "bad2"}, func(ctx context.Context, unit string) error {
		atomic.AddInt64(&processed, 1)
		if unit == "bad" || unit == "bad2" {
			return context.DeadlineExceeded
		}
		return nil
	})

	if got := atomic.LoadInt64(&processed); got != 4 {
		t.Errorf("processed = %d, want 4 (failures must not stop the run)", got)
	}
	if len(failures) != 2 {
		t.Errorf("failures = %d, want 2", len(failures))
	}
}

func TestSchedulerZeroBatchSizeRunsEverything(t *testing.T) {
	sched := NewScheduler(0, zap.NewNop())

	var processed int64
	failures := sched.Run(context.Background(), []string{"a", "b", "c"}, func(ctx context.Context, unit string) error {
		atomic.AddInt64(&processed, 1)
		return nil
	})

	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if got := atomic.LoadInt64(&processed); got != 3 {
		t.Errorf("processed = %d, want 3", got)
	}
}
