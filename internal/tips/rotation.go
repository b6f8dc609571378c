// Package tips selects and delivers daily wellness tips.
package tips

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/nexifit/nexifit/internal/clock"
	"github.com/nexifit/nexifit/internal/domain"
)

// exclusionWindow is how long a delivered tip stays out of rotation
// for that user.
const exclusionWindow = 15 * 24 * time.Hour

// Store is the persistence surface the rotation needs.
type Store interface {
	ActiveTips(ctx context.Context) ([]domain.Tip, error)
	RecentTipIDs(ctx context.Context, addr string, since time.Time) ([]int64, error)
	AppendTipHistory(ctx context.Context, addr string, tipID int64, sentAt time.Time) error
	TipPreference(ctx context.Context, addr string) (*domain.TipPreference, error)
	AuthorizedAddrs(ctx context.Context) ([]string, error)
}

// Sender delivers an outbound message.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// Rotation picks non-repeating tips per user from the shared pool.
type Rotation struct {
	store  Store
	sender Sender
	clk    clock.Clock
	pick   func(n int) int
}

// NewRotation creates a tip rotation engine.
func NewRotation(store Store, sender Sender, clk clock.Clock) *Rotation {
	return &Rotation{
		store:  store,
		sender: sender,
		clk:    clk,
		pick:   rand.IntN,
	}
}

// Next selects a tip for addr that was not sent within the exclusion
// window and records it in the history before returning. When every
// active tip was seen recently the exclusion is ignored for this call.
// Returns nil when the active pool is empty.
func (r *Rotation) Next(ctx context.Context, addr string) (*domain.Tip, error) {
	pool, err := r.store.ActiveTips(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tip pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, nil
	}

	since := r.clk.Now().Add(-exclusionWindow)
	recentIDs, err := r.store.RecentTipIDs(ctx, addr, since)
	if err != nil {
		return nil, fmt.Errorf("load recent tips: %w", err)
	}

	recent := make(map[int64]bool, len(recentIDs))
	for _, id := range recentIDs {
		recent[id] = true
	}

	candidates := pool[:0:0]
	for _, tip := range pool {
		if !recent[tip.ID] {
			candidates = append(candidates, tip)
		}
	}
	if len(candidates) == 0 {
		// Pool exhausted within the window; reset for this call.
		candidates = pool
	}

	tip := candidates[r.pick(len(candidates))]
	if err := r.store.AppendTipHistory(ctx, addr, tip.ID, r.clk.Now()); err != nil {
		return nil, fmt.Errorf("record tip history: %w", err)
	}
	return &tip, nil
}

// Broadcast sends one tip to every opted-in authorized user. Per-user
// failures are logged and skipped so one bad address cannot stall the
// daily run.
func (r *Rotation) Broadcast(ctx context.Context) {
	addrs, err := r.store.AuthorizedAddrs(ctx)
	if err != nil {
		slog.Error("tip broadcast failed to list users", "error", err)
		return
	}

	sent := 0
	for _, addr := range addrs {
		pref, err := r.store.TipPreference(ctx, addr)
		if err != nil {
			slog.Warn("tip broadcast failed to read preference", "user", addr, "error", err)
			continue
		}
		if pref != nil && !pref.ReceiveTips {
			continue
		}

		tip, err := r.Next(ctx, addr)
		if err != nil {
			slog.Warn("tip broadcast failed to pick tip", "user", addr, "error", err)
			continue
		}
		if tip == nil {
			slog.Info("tip broadcast skipped, tip pool is empty")
			return
		}

		body := fmt.Sprintf("💭 Daily wellness tip:\n\n%s\n\nReply 'stop tips' anytime to opt out.", tip.Text)
		if err := r.sender.Send(ctx, addr, body); err != nil {
			slog.Warn("tip broadcast delivery failed", "user", addr, "error", err)
			continue
		}
		sent++
	}
	slog.Info("tip broadcast completed", "recipients", sent)
}
