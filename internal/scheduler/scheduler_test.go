package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nexifit/nexifit/internal/clock"
)

func TestScheduleOnce_PastTimeRejected(t *testing.T) {
	s := New(clock.Real{})

	_, err := s.ScheduleOnce(time.Now().Add(-time.Minute), func(context.Context) {})
	if err != ErrPastTime {
		t.Errorf("Expected ErrPastTime, got %v", err)
	}
}

func TestScheduleOnce_WithinToleranceAccepted(t *testing.T) {
	s := New(clock.Real{})

	// Slightly in the past but inside the skew tolerance.
	id, err := s.ScheduleOnce(time.Now().Add(-time.Second), func(context.Context) {})
	if err != nil {
		t.Fatalf("Expected acceptance within tolerance, got %v", err)
	}
	if id == "" {
		t.Error("Expected non-empty job ID")
	}
}

func TestScheduleOnce_Fires(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(clock.Real{})
	s.Start(ctx)

	fired := make(chan struct{})
	_, err := s.ScheduleOnce(time.Now().Add(20*time.Millisecond), func(context.Context) {
		close(fired)
	})
	if err != nil {
		t.Fatalf("ScheduleOnce failed: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("Job did not fire in time")
	}
	if s.Pending() != 0 {
		t.Errorf("Expected 0 pending after firing, got %d", s.Pending())
	}
}

func TestScheduleOnce_EqualTimesFireInRegistrationOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(clock.Real{})
	s.Start(ctx)

	runAt := time.Now().Add(50 * time.Millisecond)
	var mu sync.Mutex
	var order []int
	done := make(chan struct{})

	for i := 1; i <= 5; i++ {
		i := i
		if _, err := s.ScheduleOnce(runAt, func(context.Context) {
			mu.Lock()
			order = append(order, i)
			if len(order) == 5 {
				close(done)
			}
			mu.Unlock()
		}); err != nil {
			t.Fatalf("ScheduleOnce %d failed: %v", i, err)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Jobs did not all fire in time")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, got := range order {
		if got != i+1 {
			t.Fatalf("Expected registration order 1..5, got %v", order)
		}
	}
}

func TestCancel_PreventsFiring(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(clock.Real{})
	s.Start(ctx)

	fired := make(chan struct{}, 1)
	id, err := s.ScheduleOnce(time.Now().Add(50*time.Millisecond), func(context.Context) {
		fired <- struct{}{}
	})
	if err != nil {
		t.Fatalf("ScheduleOnce failed: %v", err)
	}

	s.Cancel(id)
	// Canceling again must be a no-op.
	s.Cancel(id)
	s.Cancel("unknown-id")

	select {
	case <-fired:
		t.Error("Canceled job fired anyway")
	case <-time.After(200 * time.Millisecond):
	}
	if s.Pending() != 0 {
		t.Errorf("Expected 0 pending after cancel, got %d", s.Pending())
	}
}

func TestFire_PanicDoesNotKillScheduler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(clock.Real{})
	s.Start(ctx)

	if _, err := s.ScheduleOnce(time.Now().Add(10*time.Millisecond), func(context.Context) {
		panic("boom")
	}); err != nil {
		t.Fatalf("ScheduleOnce failed: %v", err)
	}

	fired := make(chan struct{})
	if _, err := s.ScheduleOnce(time.Now().Add(50*time.Millisecond), func(context.Context) {
		close(fired)
	}); err != nil {
		t.Fatalf("ScheduleOnce failed: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("Scheduler stopped firing after a panicking job")
	}
}

func TestSchedulePeriodic_BadSpecRejected(t *testing.T) {
	s := New(clock.Real{})

	if _, err := s.SchedulePeriodic("not a cron spec", func(context.Context) {}); err == nil {
		t.Error("Expected error for invalid cron spec")
	}
}

func TestSchedulePeriodic_CancelRemovesEntry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(clock.Real{})
	s.Start(ctx)

	id, err := s.SchedulePeriodic("* * * * *", func(context.Context) {})
	if err != nil {
		t.Fatalf("SchedulePeriodic failed: %v", err)
	}
	s.Cancel(id)
	s.Cancel(id)
}
