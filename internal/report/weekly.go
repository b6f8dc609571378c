// Package report generates weekly progress summaries.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nexifit/nexifit/internal/clock"
	"github.com/nexifit/nexifit/internal/domain"
)

// Store is the persistence surface the generator needs.
type Store interface {
	AuthorizedAddrs(ctx context.Context) ([]string, error)
	WeeklySummary(ctx context.Context, addr string, since time.Time) (*domain.WeeklySummary, error)
}

// StreakSource reads the current streak for a user.
type StreakSource interface {
	Current(ctx context.Context, addr string) (int, error)
}

// Sender delivers an outbound message.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// Generator builds and delivers weekly reports.
type Generator struct {
	store   Store
	streaks StreakSource
	sender  Sender
	clk     clock.Clock
}

// NewGenerator creates a weekly report generator.
func NewGenerator(store Store, streaks StreakSource, sender Sender, clk clock.Clock) *Generator {
	return &Generator{store: store, streaks: streaks, sender: sender, clk: clk}
}

// RunAll sends a report to every authorized user. Per-user failures
// are logged and skipped.
func (g *Generator) RunAll(ctx context.Context) {
	addrs, err := g.store.AuthorizedAddrs(ctx)
	if err != nil {
		slog.Error("weekly report failed to list users", "error", err)
		return
	}

	for _, addr := range addrs {
		body, err := g.Build(ctx, addr)
		if err != nil {
			slog.Warn("weekly report build failed", "user", addr, "error", err)
			continue
		}
		if err := g.sender.Send(ctx, addr, body); err != nil {
			slog.Warn("weekly report delivery failed", "user", addr, "error", err)
		}
	}
	slog.Info("weekly report run completed", "users", len(addrs))
}

// Build assembles the report text for one user.
func (g *Generator) Build(ctx context.Context, addr string) (string, error) {
	since := g.clk.Now().Add(-7 * 24 * time.Hour)
	summary, err := g.store.WeeklySummary(ctx, addr, since)
	if err != nil {
		return "", fmt.Errorf("weekly aggregate: %w", err)
	}

	if summary == nil {
		return "📊 Weekly check-in: no workouts logged this week.\n" +
			"Every journey starts with a single session — ask me for today's plan and let's get moving! 💪", nil
	}

	var praise string
	switch {
	case summary.Workouts >= 5:
		praise = "🔥 Outstanding week! You're building a serious habit."
	case summary.Workouts >= 3:
		praise = "💪 Solid week! Consistency is paying off."
	default:
		praise = "👍 Good start! Let's aim for one more session next week."
	}

	body := fmt.Sprintf(
		"📊 Your weekly report:\n\n"+
			"- Workouts: %d\n"+
			"- Total time: %d minutes\n"+
			"- Calories burned: ~%d\n"+
			"- Average progress: %.1f%%\n"+
			"- Goal: %s\n\n%s",
		summary.Workouts, summary.Minutes, summary.Calories,
		summary.AvgProgress, summary.LastGoal, praise,
	)

	if current, err := g.streaks.Current(ctx, addr); err == nil && current > 0 {
		body += fmt.Sprintf("\n⚡ Current streak: %d day(s). Keep it alive!", current)
	}
	return body, nil
}
