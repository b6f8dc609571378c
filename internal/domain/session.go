// Package domain holds the core types shared across the bot.
package domain

import (
	"time"
)

// OnboardingStep identifies where a session is in the intake dialog.
// Steps only move forward; StepDone is terminal.
type OnboardingStep int

const (
	StepBasic OnboardingStep = iota
	StepRestrictions
	StepPersonalize
	StepDone
)

// String returns a human-readable step name for logging.
func (s OnboardingStep) String() string {
	switch s {
	case StepBasic:
		return "basic"
	case StepRestrictions:
		return "restrictions"
	case StepPersonalize:
		return "personalize"
	case StepDone:
		return "done"
	}
	return "unknown"
}

// Role tags a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged entry in the conversation history.
type Message struct {
	Role Role
	Text string
}

// Profile holds the user-supplied onboarding details. Fields stay empty
// until the user provides them; missing comma-separated fields are
// accepted as empty on purpose.
type Profile struct {
	Name              string
	Age               string
	Gender            string
	Weight            string
	Height            string
	Goal              string
	Injury            string
	DailyRestrictions string
}

// Reminder is a pending scheduled reminder attached to a session.
type Reminder struct {
	Task   string
	FireAt time.Time
}

// StreakResult is the ephemeral outcome of the latest streak update.
type StreakResult struct {
	Current  int
	IsRecord bool
	Broke    bool
}

// Session holds per-user conversation state for the process lifetime.
// All access goes through the session store, which serializes writers
// per user.
type Session struct {
	Addr             string
	Step             OnboardingStep
	Profile          Profile
	History          []Message
	PendingReminders []Reminder
	LastGoalCheck    time.Time
	LatestStreak     *StreakResult
}

// Advance moves the session to the given step. Backward transitions are
// ignored so a finished session can never re-enter onboarding.
func (s *Session) Advance(next OnboardingStep) {
	if next > s.Step {
		s.Step = next
	}
}

// Append adds a message to the conversation history.
func (s *Session) Append(role Role, text string) {
	s.History = append(s.History, Message{Role: role, Text: text})
}
