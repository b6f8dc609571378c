package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/nexifit/nexifit/internal/domain"
)

// intentRule matches an inbound message against one intent. Rules run
// in declaration order; the first hit consumes the message.
type intentRule struct {
	name  string
	match func(lower string) bool
}

var intentRules = []intentRule{
	{"tip_opt_out", func(m string) bool {
		return strings.Contains(m, "stop tips") || strings.Contains(m, "unsubscribe tips") ||
			strings.Contains(m, "no more tips")
	}},
	{"tip_opt_in", func(m string) bool {
		return strings.Contains(m, "start tips") || strings.Contains(m, "subscribe tips") ||
			strings.Contains(m, "send me tips")
	}},
	{"streak_query", func(m string) bool {
		return strings.Contains(m, "streak")
	}},
	{"reminder", func(m string) bool {
		return strings.Contains(m, "remind")
	}},
	{"weekly_plan", func(m string) bool {
		return strings.Contains(m, "weekly plan") || strings.Contains(m, "week plan") ||
			strings.Contains(m, "plan for the week")
	}},
	{"today_plan", func(m string) bool {
		return strings.Contains(m, "today's workout") || strings.Contains(m, "todays workout") ||
			strings.Contains(m, "workout for today") || strings.Contains(m, "plan for today")
	}},
}

var fitnessKeywords = []string{
	"workout", "diet", "gym", "exercise", "yoga", "health", "fitness",
	"calories", "nutrition", "training", "protein", "meal", "stretch",
	"cardio", "muscle", "weight", "run", "sleep",
}

var interrogatives = []string{"what", "how", "why", "when", "where", "which", "can", "should", "is", "are", "do", "does"}

// classify returns the name of the first matching intent rule, or ""
// for freeform input.
func classify(msg string) string {
	lower := strings.ToLower(msg)
	for _, r := range intentRules {
		if r.match(lower) {
			return r.name
		}
	}
	return ""
}

// inDomain reports whether a freeform message is worth sending to the
// generation backend: it mentions a fitness topic, or is short or
// question-shaped enough to plausibly be a follow-up.
func inDomain(msg string) bool {
	lower := strings.ToLower(msg)
	for _, kw := range fitnessKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	words := strings.Fields(lower)
	if len(words) <= 5 {
		return true
	}
	for _, w := range words {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) })
		for _, q := range interrogatives {
			if w == q {
				return true
			}
		}
	}
	return false
}

// converse handles one message in a completed session. Runs outside
// the session lock; anything that touches session state re-acquires it.
func (b *Bot) converse(ctx context.Context, from, msg string) error {
	intent := classify(msg)
	slog.Info("message classified", "user", from, "intent", intent)

	switch intent {
	case "tip_opt_out":
		if err := b.repo.SetTipPreference(ctx, from, false); err != nil {
			slog.Error("tip opt-out failed", "user", from, "error", err)
			b.sendApology(ctx, from)
			return nil
		}
		return b.send(ctx, from, "✅ Done! You won't receive daily tips anymore. Say 'start tips' whenever you want them back.")

	case "tip_opt_in":
		if err := b.repo.SetTipPreference(ctx, from, true); err != nil {
			slog.Error("tip opt-in failed", "user", from, "error", err)
			b.sendApology(ctx, from)
			return nil
		}
		return b.send(ctx, from, "🌱 You're back on the daily tips list! Expect your first one tomorrow morning.")

	case "streak_query":
		current, err := b.streaks.Current(ctx, from)
		if err != nil {
			slog.Error("streak lookup failed", "user", from, "error", err)
			b.sendApology(ctx, from)
			return nil
		}
		if current == 0 {
			return b.send(ctx, from, "No active streak yet — log a workout today and start one! 🔥")
		}
		return b.send(ctx, from, fmt.Sprintf("🔥 Your current streak is *%d day(s)*. Keep it going!", current))

	case "reminder":
		return b.handleReminder(ctx, from, msg)

	case "weekly_plan":
		b.appendUser(from, "Create a structured weekly workout plan for me based on my profile.")
		if err := b.send(ctx, from, "📅 On it! Drafting your weekly plan..."); err != nil {
			return err
		}
		b.enqueueGeneration(from, true)
		return nil

	case "today_plan":
		b.appendUser(from, "Give me today's workout plan based on my profile.")
		if err := b.send(ctx, from, "🏋️ Coming right up! Preparing today's workout..."); err != nil {
			return err
		}
		b.enqueueGeneration(from, true)
		return nil
	}

	if !inDomain(msg) {
		return b.send(ctx, from, "🤖 I'm focused on fitness, workouts, and nutrition. "+
			"Ask me anything in that zone and I'll help!")
	}

	b.appendUser(from, msg)
	b.enqueueGeneration(from, false)
	return nil
}

func (b *Bot) appendUser(addr, text string) {
	if !b.sessions.WithExisting(addr, func(s *domain.Session) {
		s.Append(domain.RoleUser, text)
	}) {
		slog.Warn("append to missing session", "user", addr)
	}
}

// handleReminder parses and schedules a natural-language reminder.
func (b *Bot) handleReminder(ctx context.Context, from, msg string) error {
	fireAt, task, err := parseReminder(msg, b.clk.Now())
	if err != nil {
		if errors.Is(err, errBadReminderFormat) {
			return b.send(ctx, from, "⏰ I couldn't read that reminder. Try:\n"+
				"• _remind me to drink water in 30 minutes_\n"+
				"• _remind me to stretch at 18:00_")
		}
		slog.Error("reminder parse failed", "user", from, "error", err)
		b.sendApology(ctx, from)
		return nil
	}

	_, err = b.sched.ScheduleOnce(fireAt, func(jobCtx context.Context) {
		body := fmt.Sprintf("⏰ *Reminder*: %s", task)
		if err := b.sender.Send(jobCtx, from, body); err != nil {
			slog.Warn("reminder delivery failed", "user", from, "error", err)
		}
	})
	if err != nil {
		slog.Error("reminder scheduling failed", "user", from, "error", err)
		b.sendApology(ctx, from)
		return nil
	}

	b.sessions.WithExisting(from, func(s *domain.Session) {
		s.PendingReminders = append(s.PendingReminders, domain.Reminder{Task: task, FireAt: fireAt})
	})
	return b.send(ctx, from, fmt.Sprintf("✅ Reminder set! I'll ping you to *%s* at %s.",
		task, fireAt.Format("15:04")))
}
