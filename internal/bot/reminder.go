package bot

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var errBadReminderFormat = errors.New("unrecognized reminder format")

var (
	relativeReminderRe = regexp.MustCompile(`(?i)remind me to (.+?) in (\d+)\s*(second|seconds|minute|minutes|hour|hours)\b`)
	absoluteReminderRe = regexp.MustCompile(`(?i)remind me to (.+?) at (\d{1,2}):(\d{2})\b`)
)

// parseReminder extracts a task and fire time from a natural-language
// reminder request. Relative form wins over absolute when both could
// match. An absolute time already in the past rolls to the same time
// tomorrow.
func parseReminder(msg string, now time.Time) (time.Time, string, error) {
	if m := relativeReminderRe.FindStringSubmatch(msg); m != nil {
		amount, err := strconv.Atoi(m[2])
		if err != nil || amount <= 0 {
			return time.Time{}, "", errBadReminderFormat
		}
		var unit time.Duration
		switch strings.ToLower(strings.TrimSuffix(m[3], "s")) {
		case "second":
			unit = time.Second
		case "minute":
			unit = time.Minute
		case "hour":
			unit = time.Hour
		}
		return now.Add(time.Duration(amount) * unit), strings.TrimSpace(m[1]), nil
	}

	if m := absoluteReminderRe.FindStringSubmatch(msg); m != nil {
		hour, err1 := strconv.Atoi(m[2])
		minute, err2 := strconv.Atoi(m[3])
		if err1 != nil || err2 != nil || hour > 23 || minute > 59 {
			return time.Time{}, "", errBadReminderFormat
		}
		fireAt := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if !fireAt.After(now) {
			// AddDate keeps the wall-clock time across DST transitions.
			fireAt = fireAt.AddDate(0, 0, 1)
		}
		return fireAt, strings.TrimSpace(m[1]), nil
	}

	return time.Time{}, "", errBadReminderFormat
}
