// Package streak computes consecutive-workout-day counters.
package streak

import (
	"context"
	"fmt"
	"time"

	"github.com/nexifit/nexifit/internal/clock"
	"github.com/nexifit/nexifit/internal/domain"
)

// Store is the persistence surface the engine needs.
type Store interface {
	GetStreak(ctx context.Context, addr string) (*domain.StreakRecord, error)
	PutStreak(ctx context.Context, rec *domain.StreakRecord) error
}

// Engine owns all streak record mutations.
type Engine struct {
	store Store
	clk   clock.Clock
}

// NewEngine creates a streak engine.
func NewEngine(store Store, clk clock.Clock) *Engine {
	return &Engine{store: store, clk: clk}
}

// Update records a workout completion for addr and returns the
// resulting streak state. Calling it again on the same calendar day is
// idempotent. Comparisons use calendar dates; time of day is
// irrelevant.
func (e *Engine) Update(ctx context.Context, addr string) (domain.StreakResult, error) {
	now := e.clk.Now()
	today := dateOf(now)

	rec, err := e.store.GetStreak(ctx, addr)
	if err != nil {
		return domain.StreakResult{}, fmt.Errorf("get streak: %w", err)
	}

	if rec == nil {
		rec = &domain.StreakRecord{
			Addr:            addr,
			Current:         1,
			Longest:         1,
			LastWorkoutDate: &today,
		}
		if err := e.store.PutStreak(ctx, rec); err != nil {
			return domain.StreakResult{}, fmt.Errorf("put streak: %w", err)
		}
		return domain.StreakResult{Current: 1, IsRecord: true}, nil
	}

	if rec.LastWorkoutDate != nil {
		gap := daysBetween(dateOf(*rec.LastWorkoutDate), today)
		switch {
		case gap == 0:
			// Already counted today.
			return domain.StreakResult{Current: rec.Current}, nil
		case gap == 1:
			rec.Current++
		default:
			rec.Current = 1
			rec.LastWorkoutDate = &today
			isRecord := rec.Current > rec.Longest
			if isRecord {
				rec.Longest = rec.Current
			}
			if err := e.store.PutStreak(ctx, rec); err != nil {
				return domain.StreakResult{}, fmt.Errorf("put streak: %w", err)
			}
			return domain.StreakResult{Current: rec.Current, IsRecord: isRecord, Broke: true}, nil
		}
	} else {
		rec.Current = 1
	}

	rec.LastWorkoutDate = &today
	isRecord := rec.Current > rec.Longest
	if isRecord {
		rec.Longest = rec.Current
	}
	if err := e.store.PutStreak(ctx, rec); err != nil {
		return domain.StreakResult{}, fmt.Errorf("put streak: %w", err)
	}
	return domain.StreakResult{Current: rec.Current, IsRecord: isRecord}, nil
}

// Current returns addr's current streak without mutating anything.
func (e *Engine) Current(ctx context.Context, addr string) (int, error) {
	rec, err := e.store.GetStreak(ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("get streak: %w", err)
	}
	if rec == nil {
		return 0, nil
	}
	return rec.Current, nil
}

// dateOf truncates t to midnight in its own location.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b. The dates are rebuilt
// in UTC first so DST transitions (23- or 25-hour local days) cannot
// skew the division.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua) / (24 * time.Hour))
}
