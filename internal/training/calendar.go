package training

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

var localTimestampLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	DateLayout,
}

// Window is an inclusive range of calendar days. Times are wall-clock values
// of the athlete's zone carried in UTC, the same way they are stored.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Oldest() string {
	return w.Start.Format(DateLayout)
}

func (w Window) Newest() string {
	return w.End.Format(DateLayout)
}

// EndOfLastDay is the last instant of the window, 23:59:59 on End.
func (w Window) EndOfLastDay() time.Time {
	return w.End.Add(24*time.Hour - time.Nanosecond)
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.Oldest(), w.Newest())
}

// Today is the calendar day of now in loc, as a floating date.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CurrentWeek is Monday..Sunday of the week containing today.
func CurrentWeek(today time.Time) Window {
	monday := today.AddDate(0, 0, -daysSinceMonday(today))
	return Window{Start: monday, End: monday.AddDate(0, 0, 6)}
}

// NextWeek is the Monday..Sunday following the current week.
func NextWeek(today time.Time) Window {
	current := CurrentWeek(today)
	monday := current.Start.AddDate(0, 0, 7)
	return Window{Start: monday, End: monday.AddDate(0, 0, 6)}
}

// TrailingDays is today-days..today.
func TrailingDays(today time.Time, days int) Window {
	return Window{Start: today.AddDate(0, 0, -days), End: today}
}

func daysSinceMonday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ParseLocalTimestamp reads a provider local timestamp as a floating wall-clock time.
func ParseLocalTimestamp(s string) (time.Time, error) {
	for _, layout := range localTimestampLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		// keep the wall clock, drop any offset
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized local timestamp: %q", s)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, LocalDate(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
