package domain

import "time"

// StreakRecord tracks consecutive workout days for a user. Created on
// the first logged workout, mutated only by the streak engine, never
// deleted. Longest >= Current holds after every update.
type StreakRecord struct {
	Addr            string
	Current         int
	Longest         int
	LastWorkoutDate *time.Time
}
