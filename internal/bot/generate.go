package bot

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nexifit/nexifit/internal/domain"
	"github.com/nexifit/nexifit/internal/shared"
)

const systemPersona = "You are NexiFit, a friendly WhatsApp fitness coach. " +
	"Give practical, encouraging workout and nutrition guidance. Keep answers " +
	"concise and chat-friendly. When you produce a workout plan, include a line " +
	"of the form 'Estimated Time: ~N minutes'."

var estimatedTimeRe = regexp.MustCompile(`(?i)estimated time:\s*~?(\d+)\s*minutes?`)

const reminderPromptSuffix = "\n\n💡 Would you like to set any reminders for your workout? " +
	"Just say something like _remind me to work out in 2 hours_."

// enqueueGeneration kicks off one asynchronous generation pass for the
// user. The inbound handler returns immediately; the pass runs under
// the bot's run context, bounded by the worker semaphore.
func (b *Bot) enqueueGeneration(addr string, initialPlan bool) {
	ctx := b.runCtx()
	go func() {
		if err := b.sem.Acquire(ctx, 1); err != nil {
			slog.Warn("generation slot unavailable", "user", addr, "error", err)
			return
		}
		defer b.sem.Release(1)
		b.generate(ctx, addr, initialPlan)
	}()
}

// generate runs the full pipeline: snapshot session, call the backend,
// derive workout metrics, persist, and deliver. Any failure degrades
// to a single apology.
func (b *Bot) generate(ctx context.Context, addr string, initialPlan bool) {
	var history []domain.Message
	var profile domain.Profile
	ok := b.sessions.WithExisting(addr, func(s *domain.Session) {
		profile = s.Profile
		history = make([]domain.Message, 0, len(s.History)+2)
		history = append(history,
			domain.Message{Role: domain.RoleSystem, Text: systemPersona},
			domain.Message{Role: domain.RoleSystem, Text: profileContext(profile, initialPlan)},
		)
		history = append(history, s.History...)
	})
	if !ok {
		slog.Warn("generation for missing session", "user", addr)
		return
	}

	reply, err := b.llm.Complete(ctx, history)
	if err != nil {
		slog.Error("generation failed", "user", addr, "error", err)
		b.sendApology(ctx, addr)
		return
	}

	lastUser := lastUserText(history)
	if initialPlan {
		reply = b.finishInitialPlan(ctx, addr, profile, reply)
	}
	if initialPlan || mentionsPlanWords(lastUser) {
		if extra := bonusTips(profile); extra != "" {
			reply += extra
		}
	}

	b.sessions.WithExisting(addr, func(s *domain.Session) {
		s.Append(domain.RoleAssistant, reply)
	})

	for i, part := range splitMessage(reply) {
		if err := b.sender.Send(ctx, addr, part); err != nil {
			slog.Error("plan delivery failed", "user", addr, "part", i+1, "error", err)
			b.sendApology(ctx, addr)
			return
		}
	}
	slog.Info("generation delivered", "user", addr, "initial_plan", initialPlan, "length", len(reply))
}

// finishInitialPlan derives metrics from a fresh plan, persists the
// workout, updates the streak, and schedules the delayed motivational
// message. Persistence failures are logged but never block delivery of
// the plan itself.
func (b *Bot) finishInitialPlan(ctx context.Context, addr string, profile domain.Profile, reply string) string {
	minutes, found := extractMinutes(reply)
	if !found {
		if !mentionsReminders(reply) {
			reply += reminderPromptSuffix
		}
		return reply
	}

	calories := estimateCalories(minutes, profile.Goal, profile.Weight)
	progress := math.Min(math.Round(float64(minutes)/10*10)/10, 100)

	entry := &domain.WorkoutLog{
		Addr:            addr,
		Minutes:         minutes,
		Calories:        calories,
		ProgressPercent: progress,
		Goal:            profile.Goal,
		CompletedAt:     b.clk.Now(),
	}
	if err := b.appendWorkoutWithRetry(ctx, entry); err != nil {
		slog.Error("workout log write failed", "user", addr, "error", err)
	}

	res, err := b.streaks.Update(ctx, addr)
	if err != nil {
		slog.Error("streak update failed", "user", addr, "error", err)
	} else {
		b.sessions.WithExisting(addr, func(s *domain.Session) {
			s.LatestStreak = &res
		})
	}

	b.scheduleMotivation(addr, minutes, calories, progress, res)

	if !mentionsReminders(reply) {
		reply += reminderPromptSuffix
	}
	return reply
}

// appendWorkoutWithRetry retries transient sqlite contention with
// short exponential backoff.
func (b *Bot) appendWorkoutWithRetry(ctx context.Context, entry *domain.WorkoutLog) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(50 * time.Millisecond << (attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err = b.repo.AppendWorkoutLog(ctx, entry)
		if err == nil || !shared.IsSQLiteConflictError(err) {
			return err
		}
	}
	return err
}

// scheduleMotivation fires a progress recap when the workout should be
// finished.
func (b *Bot) scheduleMotivation(addr string, minutes, calories int, progress float64, streak domain.StreakResult) {
	fireAt := b.clk.Now().Add(time.Duration(minutes) * time.Minute)
	_, err := b.sched.ScheduleOnce(fireAt, func(jobCtx context.Context) {
		var sb strings.Builder
		fmt.Fprintf(&sb, "🎉 *Workout complete!* Amazing job!\n\n"+
			"🔥 ~%d calories burned\n📈 %.1f%% toward your goal", calories, progress)
		if streak.Current > 0 {
			fmt.Fprintf(&sb, "\n⚡ Streak: %d day(s)", streak.Current)
		}
		if streak.IsRecord {
			sb.WriteString("\n🏆 New personal record — your longest streak yet!")
		}
		if streak.Broke {
			sb.WriteString("\n💪 Back on track after a break. That's what counts!")
		}
		if err := b.sender.Send(jobCtx, addr, sb.String()); err != nil {
			slog.Warn("motivation delivery failed", "user", addr, "error", err)
		}
	})
	if err != nil {
		slog.Warn("motivation scheduling failed", "user", addr, "error", err)
	}
}

// profileContext renders the onboarding profile into a system message
// for the backend.
func profileContext(p domain.Profile, initialPlan bool) string {
	var sb strings.Builder
	sb.WriteString("User profile:\n")
	fmt.Fprintf(&sb, "Name: %s\nAge: %s\nGender: %s\n", orUnknown(p.Name), orUnknown(p.Age), orUnknown(p.Gender))
	fmt.Fprintf(&sb, "Weight: %s kg\nHeight: %s cm\nGoal: %s\nInjuries: %s\n",
		orUnknown(p.Weight), orUnknown(p.Height), orUnknown(p.Goal), orUnknown(p.Injury))
	fmt.Fprintf(&sb, "Restrictions: %s\n", orUnknown(p.DailyRestrictions))
	if initialPlan {
		sb.WriteString("Produce a complete workout plan now, including an 'Estimated Time: ~N minutes' line.")
	} else {
		sb.WriteString("Answer the user's follow-up in the context of this profile.")
	}
	return sb.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// extractMinutes pulls the estimated duration out of a generated plan.
func extractMinutes(reply string) (int, bool) {
	m := estimatedTimeRe.FindStringSubmatch(reply)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// estimateCalories applies the MET formula: minutes · MET · 3.5 ·
// weight / 200. Unparseable weight falls back to 70 kg.
func estimateCalories(minutes int, goal, weight string) int {
	met := 5.0
	g := strings.ToLower(goal)
	switch {
	case strings.Contains(g, "muscle"):
		met = 8
	case strings.Contains(g, "weight") || strings.Contains(g, "fat"):
		met = 6
	case strings.Contains(g, "cardio"):
		met = 7
	}
	kg, err := strconv.ParseFloat(strings.TrimSpace(weight), 64)
	if err != nil || kg <= 0 {
		kg = 70
	}
	return int(float64(minutes) * met * 3.5 * kg / 200)
}

func mentionsReminders(reply string) bool {
	return strings.Contains(strings.ToLower(reply), "reminder")
}

func mentionsPlanWords(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "today") || strings.Contains(lower, "plan") ||
		strings.Contains(lower, "workout")
}

func lastUserText(history []domain.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == domain.RoleUser {
			return history[i].Text
		}
	}
	return ""
}
