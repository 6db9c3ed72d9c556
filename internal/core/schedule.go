package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// On returns the instant of t on the calendar day of date, in date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, t.Second, 0, date.Location())
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: want HH:MM or HH:MM:SS", s)
	}
	limits := []int{23, 59, 59}
	vals := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > limits[i] {
			return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
		}
		vals[i] = n
	}
	return TimeOfDay{Hour: vals[0], Minute: vals[1], Second: vals[2]}, nil
}

// ParseWeekday accepts English weekday names or their three-letter
// abbreviations, case-insensitively.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid weekday %q", s)
}

// NextWeekday returns the first calendar date on or after today that falls on
// weekday, at midnight in today's location.
func NextWeekday(today time.Time, weekday time.Weekday) time.Time {
	y, m, d := today.Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	offset := (int(weekday) - int(date.Weekday()) + 7) % 7
	return date.AddDate(0, 0, offset)
}

// NextStart returns when the signup window next opens: at on the next
// weekday on or after now. If now is already inside today's window, now is
// returned.
func NextStart(now time.Time, weekday time.Weekday, at TimeOfDay) time.Time {
	if now.Weekday() == weekday {
		start := at.On(now)
		if !now.Before(start) {
			return now
		}
		return start
	}
	return at.On(NextWeekday(now, weekday))
}
