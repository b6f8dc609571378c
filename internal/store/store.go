// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/nexifit/nexifit/internal/domain"
)

// Repository defines the persistence surface the bot core requires.
type Repository interface {
	// IsAuthorized reports whether addr may use the bot. Deactivated
	// and expired users are not authorized.
	IsAuthorized(ctx context.Context, addr string) (bool, error)

	// IsAdmin reports whether addr is an admin.
	IsAdmin(ctx context.Context, addr string) (bool, error)

	// LogAuthAttempt appends an audit row for an authentication event.
	LogAuthAttempt(ctx context.Context, addr, action string, success bool) error

	// AddUser authorizes a new user. expiryDays <= 0 means no expiry.
	AddUser(ctx context.Context, addr, name string, expiryDays int) error

	// RemoveUser deactivates a user. Returns false if addr is unknown.
	RemoveUser(ctx context.Context, addr string) (bool, error)

	// ReactivateUser re-enables a deactivated user.
	ReactivateUser(ctx context.Context, addr string) (bool, error)

	// GetUser retrieves a user record, or nil if not found.
	GetUser(ctx context.Context, addr string) (*domain.User, error)

	// ListUsers returns all users, most recently added first.
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// AuthorizedAddrs returns the addresses of all active users.
	AuthorizedAddrs(ctx context.Context) ([]string, error)

	// CleanExpiredUsers deactivates users whose expiry date has passed.
	CleanExpiredUsers(ctx context.Context) (int64, error)

	// GetStreak retrieves a user's streak record, or nil if none exists.
	GetStreak(ctx context.Context, addr string) (*domain.StreakRecord, error)

	// PutStreak creates or replaces a user's streak record.
	PutStreak(ctx context.Context, rec *domain.StreakRecord) error

	// AppendWorkoutLog records one completed workout.
	AppendWorkoutLog(ctx context.Context, entry *domain.WorkoutLog) error

	// WeeklySummary aggregates workouts since the given time. Returns
	// nil when the user has no rows in the window.
	WeeklySummary(ctx context.Context, addr string, since time.Time) (*domain.WeeklySummary, error)

	// ActiveTips returns all active tips.
	ActiveTips(ctx context.Context) ([]domain.Tip, error)

	// RecentTipIDs returns IDs of tips sent to addr since the given time.
	RecentTipIDs(ctx context.Context, addr string, since time.Time) ([]int64, error)

	// AppendTipHistory records that a tip was sent to addr.
	AppendTipHistory(ctx context.Context, addr string, tipID int64, sentAt time.Time) error

	// AddTip inserts a new active tip and returns its ID.
	AddTip(ctx context.Context, text, category string) (int64, error)

	// DeactivateTip retires a tip. Returns false if the ID is unknown.
	DeactivateTip(ctx context.Context, id int64) (bool, error)

	// TipPreference returns the daily-tip preference for addr, or nil
	// if the user never set one.
	TipPreference(ctx context.Context, addr string) (*domain.TipPreference, error)

	// SetTipPreference creates or updates the daily-tip opt-in for addr.
	SetTipPreference(ctx context.Context, addr string, receive bool) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
