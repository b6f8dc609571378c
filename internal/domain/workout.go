package domain

import "time"

// WorkoutLog is an append-only record of one completed workout. It is
// the source of truth for weekly aggregation and streak updates.
type WorkoutLog struct {
	Addr            string
	Minutes         int
	Calories        int
	ProgressPercent float64
	Goal            string
	CompletedAt     time.Time
}

// WeeklySummary aggregates a user's workout logs over the report
// window. A user with no rows in the window gets a nil summary, not a
// zeroed one.
type WeeklySummary struct {
	Workouts    int
	Minutes     int
	Calories    int
	AvgProgress float64
	LastGoal    string
}
