package timex

import "time"

// Clock supplies the current local date and time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// DayLayout is the layout of a calendar-day stamp.
const DayLayout = "2006-01-02"

// Day returns the calendar day of t in loc as a YYYY-MM-DD stamp. A nil loc
// means time.Local.
func Day(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayLayout)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return Day(a, loc) == Day(b, loc)
}
