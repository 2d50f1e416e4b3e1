// Package scheduling matches candidate availability against employer calendars:
// slot generation, conflict detection, greedy bulk scheduling and resolution suggestions.
package scheduling

import "time"

// Overlaps reports whether the half-open intervals [aStart, aEnd) and [bStart, bEnd) intersect.
// It checks the three ways a new interval a can collide with an existing b: a starts inside b,
// a ends inside b, or a contains b. Intervals that only share an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	startsInside := !aStart.Before(bStart) && aStart.Before(bEnd)
	endsInside := aEnd.After(bStart) && !aEnd.After(bEnd)
	contains := !aStart.After(bStart) && !aEnd.Before(bEnd)
	return startsInside || endsInside || contains
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
