package board

import (
	"time"
)

// SliceKey identifies one hourly plan slice as the upstream path
// segments expect it: date as YYMMDD, hour as zero-padded HH.
type SliceKey struct {
	Date string
	Hour string
}

// PlanSlices enumerates the hourly slice keys covering [start, end].
// Both bounds are truncated to the top of their hour; iteration is
// inclusive on both ends, so equal truncated bounds yield exactly one
// key. Keys may cross a calendar date mid-sequence. The caller must
// ensure start is not after end.
func PlanSlices(start, end time.Time) []SliceKey {
	current := truncateHour(start)
	last := truncateHour(end)

	var keys []SliceKey
	for !current.After(last) {
		keys = append(keys, SliceKey{
			Date: current.Format("060102"),
			Hour: current.Format("15"),
		})
		current = current.Add(time.Hour)
	}
	return keys
}

func truncateHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}
