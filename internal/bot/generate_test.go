package bot

import (
	"errors"
	"strings"
	"testing"

	"github.com/nexifit/nexifit/internal/domain"
)

var errBackend = errors.New("backend unavailable")

func TestExtractMinutes(t *testing.T) {
	tests := []struct {
		reply string
		want  int
		found bool
	}{
		{"Warmup first. Estimated Time: ~45 minutes", 45, true},
		{"estimated time: 30 minutes", 30, true},
		{"Estimated Time: ~1 minute", 1, true},
		{"No duration here", 0, false},
		{"Estimated Time: ~0 minutes", 0, false},
	}

	for _, tt := range tests {
		got, found := extractMinutes(tt.reply)
		if got != tt.want || found != tt.found {
			t.Errorf("extractMinutes(%q) = (%d, %t), want (%d, %t)",
				tt.reply, got, found, tt.want, tt.found)
		}
	}
}

func TestEstimateCalories(t *testing.T) {
	tests := []struct {
		goal   string
		weight string
		want   int
	}{
		{"muscle gain", "80", 30 * 8 * 35 * 80 / 2000}, // MET 8
		{"weight loss", "80", 30 * 6 * 35 * 80 / 2000}, // MET 6
		{"fat burn", "80", 30 * 6 * 35 * 80 / 2000},    // MET 6
		{"cardio endurance", "80", 30 * 7 * 35 * 80 / 2000},
		{"general", "80", 30 * 5 * 35 * 80 / 2000}, // default MET 5
		{"general", "not a number", 30 * 5 * 35 * 70 / 2000},
	}

	for _, tt := range tests {
		if got := estimateCalories(30, tt.goal, tt.weight); got != tt.want {
			t.Errorf("estimateCalories(30, %q, %q) = %d, want %d", tt.goal, tt.weight, got, tt.want)
		}
	}
}

func TestBonusTips_PriorityAndCap(t *testing.T) {
	p := domain.Profile{
		Gender:            "Female",
		DailyRestrictions: "diabetic",
		Injury:            "knee pain",
		Goal:              "muscle gain",
	}

	extra := bonusTips(p)
	if !strings.Contains(extra, "bone density") {
		t.Errorf("Expected gender tip first, got %q", extra)
	}
	if !strings.Contains(extra, "blood sugar") {
		t.Errorf("Expected condition tip second, got %q", extra)
	}
	// Capped at two; injury and goal tips must be dropped.
	if strings.Contains(extra, "knee") || strings.Contains(extra, "protein") {
		t.Errorf("Expected cap at 2 tips, got %q", extra)
	}
}

func TestBonusTips_EmptyProfile(t *testing.T) {
	if got := bonusTips(domain.Profile{Injury: "None"}); !strings.Contains(got, "Track your workouts") {
		// Only the default goal tip applies.
		t.Errorf("Expected default goal tip, got %q", got)
	}
}

func TestGenerate_InitialPlanPipeline(t *testing.T) {
	fx := newBotFixture(t)
	fx.repo.authorized["+500"] = true
	fx.llm.reply = "Day 1: squats and rows.\n\nEstimated Time: ~40 minutes"

	driveOnboarding(t, fx, "+500", "hi", "Lena, 29, Female", "none", "60, 165, muscle gain, none")

	var delivered string
	waitFor(t, func() bool {
		for _, m := range fx.sender.messages("+500") {
			if strings.Contains(m, "Day 1") {
				delivered = m
				return true
			}
		}
		return false
	})

	// Reminder prompt appended when the plan never mentions reminders.
	if !strings.Contains(delivered, "set any reminders") {
		t.Errorf("Expected reminder prompt suffix, got %q", delivered)
	}
	// Bonus tips for an initial plan.
	if !strings.Contains(delivered, "Bonus tips") {
		t.Errorf("Expected bonus tips, got %q", delivered)
	}

	fx.repo.mu.Lock()
	defer fx.repo.mu.Unlock()
	if len(fx.repo.workouts) != 1 {
		t.Fatalf("Expected 1 workout log, got %d", len(fx.repo.workouts))
	}
	w := fx.repo.workouts[0]
	if w.Minutes != 40 {
		t.Errorf("Expected 40 minutes logged, got %d", w.Minutes)
	}
	// 40 · 8 · 3.5 · 60 / 200 = 336
	if w.Calories != 336 {
		t.Errorf("Expected 336 calories, got %d", w.Calories)
	}
	if w.ProgressPercent != 4.0 {
		t.Errorf("Expected 4.0%% progress, got %v", w.ProgressPercent)
	}

	// Intro job plus the delayed motivational message.
	if fx.sched.count() < 2 {
		t.Errorf("Expected motivational message scheduled, got %d jobs", fx.sched.count())
	}
}

func TestGenerate_NoMinutesNoWorkoutLog(t *testing.T) {
	fx := newBotFixture(t)
	fx.repo.authorized["+501"] = true
	fx.llm.reply = "Here is some advice without a duration."

	driveOnboarding(t, fx, "+501", "hi", "Max, 31, Male", "none", "No")

	waitFor(t, func() bool {
		for _, m := range fx.sender.messages("+501") {
			if strings.Contains(m, "advice without a duration") {
				return true
			}
		}
		return false
	})

	fx.repo.mu.Lock()
	defer fx.repo.mu.Unlock()
	if len(fx.repo.workouts) != 0 {
		t.Errorf("Expected no workout log without a duration, got %d", len(fx.repo.workouts))
	}
}

func TestGenerate_BackendFailureSendsApology(t *testing.T) {
	fx := newBotFixture(t)
	fx.repo.authorized["+502"] = true
	fx.llm.reply = ""
	fx.llm.err = errBackend

	driveOnboarding(t, fx, "+502", "hi", "Eva, 26, Female", "none", "No")

	waitFor(t, func() bool {
		return strings.Contains(fx.sender.last("+502"), "something went wrong")
	})
}
