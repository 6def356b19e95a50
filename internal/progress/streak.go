package progress

import (
	"time"

	"github.com/vocalis-app/vocalis/internal/store"
)

// Streak counts consecutive calendar days with at least one recorded
// attempt, ending today or yesterday. An active day yesterday but not today
// still counts (the learner has until midnight to keep it alive); a gap of
// two or more days resets the streak to zero.
//
// Days are compared in the local zone of now. Records from any level,
// including Time-Attack and legacy unthemed entries, keep a streak alive.
func Streak(records []store.ProgressRecord, now time.Time) int {
	if len(records) == 0 {
		return 0
	}

	active := make(map[time.Time]bool, len(records))
	for _, rec := range records {
		active[dayOf(rec.Date.In(now.Location()))] = true
	}

	day := dayOf(now)
	if !active[day] {
		// One-day grace: a streak ending yesterday is still alive.
		day = day.AddDate(0, 0, -1)
		if !active[day] {
			return 0
		}
	}

	streak := 0
	for active[day] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
