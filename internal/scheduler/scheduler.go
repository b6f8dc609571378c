// Package scheduler provides deferred and periodic job execution.
//
// One-shot jobs live in an in-process min-heap drained by a single
// timer goroutine; periodic jobs are cron entries. Jobs are not durable
// across restarts.
package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexifit/nexifit/internal/clock"
	"github.com/robfig/cron/v3"
)

// ErrPastTime is returned when a one-shot job is scheduled further in
// the past than the accepted tolerance.
var ErrPastTime = errors.New("run time is in the past")

// pastTolerance absorbs clock skew between callers and the scheduler.
const pastTolerance = 2 * time.Second

// Func is a job callback. The context is the scheduler's run context
// and is canceled on shutdown.
type Func func(ctx context.Context)

type job struct {
	id    string
	runAt time.Time
	seq   uint64
	fn    Func
}

// jobHeap orders jobs by run time, then by registration order.
type jobHeap []*job

func (h jobHeap) Len() int { return len(h) }
func (h jobHeap) Less(i, j int) bool {
	if h[i].runAt.Equal(h[j].runAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].runAt.Before(h[j].runAt)
}
func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x any) { *h = append(*h, x.(*job)) }
func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Scheduler runs one-shot and periodic jobs.
type Scheduler struct {
	clk clock.Clock

	mu      sync.Mutex
	pending jobHeap
	byID    map[string]*job
	nextSeq uint64
	wake    chan struct{}

	cron    *cron.Cron
	cronIDs map[string]cron.EntryID

	runCtx  context.Context
	started bool
}

// New creates a scheduler using the given clock.
func New(clk clock.Clock) *Scheduler {
	return &Scheduler{
		clk:     clk,
		byID:    make(map[string]*job),
		wake:    make(chan struct{}, 1),
		cron:    cron.New(),
		cronIDs: make(map[string]cron.EntryID),
	}
}

// Start launches the timer loop and the cron runner. It returns
// immediately; the scheduler stops when ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.runCtx = ctx
	s.mu.Unlock()

	s.cron.Start()
	go s.loop(ctx)
	go func() {
		<-ctx.Done()
		s.cron.Stop()
	}()
	slog.Info("scheduler started")
}

// ScheduleOnce registers fn to run once at runAt and returns a job ID.
func (s *Scheduler) ScheduleOnce(runAt time.Time, fn Func) (string, error) {
	if runAt.Before(s.clk.Now().Add(-pastTolerance)) {
		return "", ErrPastTime
	}

	s.mu.Lock()
	j := &job{
		id:    uuid.NewString(),
		runAt: runAt,
		seq:   s.nextSeq,
		fn:    fn,
	}
	s.nextSeq++
	heap.Push(&s.pending, j)
	s.byID[j.id] = j
	s.mu.Unlock()

	s.poke()
	return j.id, nil
}

// SchedulePeriodic registers fn under a cron spec. Firing errors are
// confined to the single run; the entry keeps re-arming.
func (s *Scheduler) SchedulePeriodic(spec string, fn Func) (string, error) {
	id := uuid.NewString()
	entryID, err := s.cron.AddFunc(spec, func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("periodic job panicked", "job_id", id, "panic", r)
			}
		}()
		ctx := s.runContext()
		if ctx.Err() != nil {
			return
		}
		fn(ctx)
	})
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.cronIDs[id] = entryID
	s.mu.Unlock()
	return id, nil
}

// Cancel withdraws a job. It is a no-op for unknown or already-fired
// jobs.
func (s *Scheduler) Cancel(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.cronIDs[jobID]; ok {
		s.cron.Remove(entryID)
		delete(s.cronIDs, jobID)
		return
	}
	// One-shot jobs stay in the heap; the loop skips anything no
	// longer present in byID.
	delete(s.byID, jobID)
}

// Pending returns the number of one-shot jobs not yet fired.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Scheduler) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx != nil {
		return s.runCtx
	}
	return context.Background()
}

func (s *Scheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		due, wait := s.collectDue()
		if len(due) > 0 {
			// One goroutine per batch keeps registration order for
			// jobs sharing a run time without blocking the loop.
			go func(batch []*job) {
				for _, j := range batch {
					s.fire(ctx, j)
				}
			}(due)
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			slog.Info("scheduler shutting down", "reason", ctx.Err())
			return
		case <-s.wake:
		case <-timer.C:
		}
	}
}

// collectDue pops every due job, in run-time-then-registration order,
// and returns how long to sleep until the next one.
func (s *Scheduler) collectDue() ([]*job, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()
	var due []*job
	for s.pending.Len() > 0 {
		next := s.pending[0]
		if _, live := s.byID[next.id]; !live {
			heap.Pop(&s.pending) // canceled
			continue
		}
		if next.runAt.After(now) {
			return due, next.runAt.Sub(now)
		}
		heap.Pop(&s.pending)
		delete(s.byID, next.id) // at-most-once
		due = append(due, next)
	}
	return due, time.Hour
}

func (s *Scheduler) fire(ctx context.Context, j *job) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduled job panicked", "job_id", j.id, "panic", r)
		}
	}()
	j.fn(ctx)
}
