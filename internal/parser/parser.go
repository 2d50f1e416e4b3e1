// Package parser turns the textual schedule formats used by the engine into times:
// 5-field cron expressions for background sweeps and "HH:MM" clock values for availability windows.
package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ParseCron parses a standard 5-field cron expression such as "*/5 * * * *".
func ParseCron(expr string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(strings.TrimSpace(expr))
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return schedule, nil
}

// CalculateNextRun finds the next run time of expr strictly after from.
// An invalid expression falls back to one hour after from.
func CalculateNextRun(expr string, from time.Time) time.Time {
	schedule, err := ParseCron(expr)
	if err != nil {
		return from.Add(time.Hour)
	}
	return schedule.Next(from)
}

// ParseClock parses a 24h "HH:MM" value and returns the minutes elapsed since midnight.
// "24:00" is accepted as the end of the day.
func ParseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", value)
	}
	if !digitsOnly(parts[0]) {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	if !digitsOnly(parts[1]) {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	if hour == 24 && minute == 0 {
		return 24 * 60, nil
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", value)
	}
	return hour*60 + minute, nil
}

// FormatClock is the inverse of ParseClock.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// AtClock returns the wall-clock time on day's calendar date in loc. 24:00 is midnight of the
// following day. Wall-clock arithmetic keeps 09:00 at 09:00 on daylight saving transition days.
func AtClock(day time.Time, minutes int, loc *time.Location) time.Time {
	y, m, d := day.Date()
	if minutes >= 24*60 {
		return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	}
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, loc)
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
