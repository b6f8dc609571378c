// Package bot implements the conversational core: onboarding,
// conversation orchestration, reminders, and the admin surface.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nexifit/nexifit/internal/clock"
	"github.com/nexifit/nexifit/internal/domain"
	"github.com/nexifit/nexifit/internal/scheduler"
	"github.com/nexifit/nexifit/internal/session"
	"github.com/nexifit/nexifit/internal/store"
)

// Sender delivers an outbound message.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// Completer is the text-generation backend.
type Completer interface {
	Complete(ctx context.Context, msgs []domain.Message) (string, error)
}

// Scheduler registers deferred work.
type Scheduler interface {
	ScheduleOnce(runAt time.Time, fn scheduler.Func) (string, error)
}

// Streaks reads and updates workout streaks.
type Streaks interface {
	Update(ctx context.Context, addr string) (domain.StreakResult, error)
	Current(ctx context.Context, addr string) (int, error)
}

// ReportBuilder assembles a weekly report for one user.
type ReportBuilder interface {
	Build(ctx context.Context, addr string) (string, error)
}

// Config holds bot behavior settings.
type Config struct {
	AdminContact      string
	ConsoleBypass     bool
	GenerationWorkers int64
}

// Bot routes inbound messages through onboarding or the conversation
// orchestrator and owns all outbound replies.
type Bot struct {
	cfg      Config
	repo     store.Repository
	sessions *session.Store
	sender   Sender
	llm      Completer
	sched    Scheduler
	streaks  Streaks
	reports  ReportBuilder
	clk      clock.Clock
	sem      *semaphore.Weighted

	mu  sync.Mutex
	ctx context.Context
}

// New creates a bot.
func New(cfg Config, repo store.Repository, sessions *session.Store, sender Sender,
	llm Completer, sched Scheduler, streaks Streaks, reports ReportBuilder, clk clock.Clock) *Bot {
	workers := cfg.GenerationWorkers
	if workers <= 0 {
		workers = 8
	}
	return &Bot{
		cfg:      cfg,
		repo:     repo,
		sessions: sessions,
		sender:   sender,
		llm:      llm,
		sched:    sched,
		streaks:  streaks,
		reports:  reports,
		clk:      clk,
		sem:      semaphore.NewWeighted(workers),
	}
}

// Start attaches the run context used by background generation work.
// Pending generations stop when ctx is canceled.
func (b *Bot) Start(ctx context.Context) {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()
}

func (b *Bot) runCtx() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx != nil {
		return b.ctx
	}
	return context.Background()
}

const (
	msgGreeting = "💪 Hey there! I'm *NexiFit*, your personal fitness companion.\n\n" +
		"I'll help you design smart workouts, balanced meals, and keep you on track — all right here in your chat!"

	msgIntro = "Before we begin, could you please tell me your details in this format?\n\n" +
		"👉 *Name , Age , Gender*\n\nExample: Kishore , 25 , Male"

	msgGoalNudge = "It's been a week! Would you like to update your fitness goal or weight?"

	msgApology = "😔 Sorry, something went wrong on my side. Please try again in a moment."
)

// HandleInbound processes one inbound message. Every path produces a
// textual reply; errors returned here mean even the fallback reply
// could not be delivered.
func (b *Bot) HandleInbound(ctx context.Context, from, body string) error {
	msg := strings.TrimSpace(body)
	slog.Info("inbound message", "user", from, "length", len(msg))

	if strings.HasPrefix(strings.ToUpper(msg), "ADMIN") {
		if reply, handled := b.handleAdmin(ctx, from, msg); handled {
			b.audit(ctx, from, "admin_command", true)
			return b.send(ctx, from, reply)
		}
	}

	authorized := b.cfg.ConsoleBypass && strings.HasPrefix(from, "ws:")
	if !authorized {
		ok, err := b.repo.IsAuthorized(ctx, from)
		if err != nil {
			slog.Error("authorization check failed", "user", from, "error", err)
			return b.send(ctx, from, msgApology)
		}
		authorized = ok
	}
	if !authorized {
		b.audit(ctx, from, "unauthorized_access", false)
		denial := fmt.Sprintf("⛔ *Access Denied*\n\nYour number is not authorized to use NexiFit.\n\n"+
			"Please contact the admin to get access:\n📧 %s", b.cfg.AdminContact)
		return b.send(ctx, from, denial)
	}
	b.audit(ctx, from, "authorized_access", true)

	now := b.clk.Now()
	var t turn
	created := b.sessions.With(from, now, func(s *domain.Session, created bool) {
		if created {
			return
		}
		switch s.Step {
		case domain.StepBasic:
			t = b.stepBasic(s, msg)
		case domain.StepRestrictions:
			t = b.stepRestrictions(s, msg)
		case domain.StepPersonalize:
			t = b.stepPersonalize(s, msg)
		case domain.StepDone:
			t.converse = true
		}
	})

	if created {
		if err := b.send(ctx, from, msgGreeting); err != nil {
			return err
		}
		// The intro follows the greeting after a short beat so the two
		// messages arrive in order on the user's device.
		_, err := b.sched.ScheduleOnce(now.Add(2*time.Second), func(jobCtx context.Context) {
			if err := b.sender.Send(jobCtx, from, msgIntro); err != nil {
				slog.Warn("intro delivery failed", "user", from, "error", err)
			}
		})
		if err != nil {
			slog.Warn("intro scheduling failed", "user", from, "error", err)
		}
		slog.Info("new session greeted", "user", from)
		return nil
	}

	for _, reply := range t.replies {
		if err := b.send(ctx, from, reply); err != nil {
			return err
		}
	}
	if t.generate {
		b.enqueueGeneration(from, true)
	}
	if t.converse {
		return b.converse(ctx, from, msg)
	}
	return nil
}

// turn collects what an onboarding step decided while the session lock
// was held.
type turn struct {
	replies  []string
	generate bool
	converse bool
}

// GoalCheckSweep nudges users whose goal has not been revisited for a
// week and resets their timer. Registered as a daily periodic job.
func (b *Bot) GoalCheckSweep(ctx context.Context) {
	now := b.clk.Now()
	var due []string
	b.sessions.Range(func(s *domain.Session) {
		if s.Step == domain.StepDone && now.Sub(s.LastGoalCheck) >= 7*24*time.Hour {
			s.LastGoalCheck = now
			due = append(due, s.Addr)
		}
	})

	for _, addr := range due {
		if err := b.sender.Send(ctx, addr, msgGoalNudge); err != nil {
			slog.Warn("goal nudge delivery failed", "user", addr, "error", err)
		}
	}
	if len(due) > 0 {
		slog.Info("goal check sweep completed", "nudged", len(due))
	}
}

func (b *Bot) send(ctx context.Context, to, body string) error {
	if err := b.sender.Send(ctx, to, body); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

func (b *Bot) sendApology(ctx context.Context, to string) {
	if err := b.sender.Send(ctx, to, msgApology); err != nil {
		slog.Error("apology delivery failed", "user", to, "error", err)
	}
}

func (b *Bot) audit(ctx context.Context, addr, action string, success bool) {
	if err := b.repo.LogAuthAttempt(ctx, addr, action, success); err != nil {
		slog.Warn("audit log write failed", "user", addr, "action", action, "error", err)
	}
}
