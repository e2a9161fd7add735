package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/dmitrijs2005/dmoclinic/internal/store"
)

// HourLayout is the HH:mm format of working hours.
const HourLayout = "15:04"

// Weekdays lists the days in display order, Monday first.
var Weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Hours is the opening interval of one day.
type Hours struct {
	Start string
	End   string
}

// Validate checks the HH:mm format and that Start is before End.
func (h Hours) Validate() error {
	start, err := time.Parse(HourLayout, h.Start)
	if err != nil {
		return fmt.Errorf("%w: start %q is not HH:mm", common.ErrInvalidInput, h.Start)
	}
	end, err := time.Parse(HourLayout, h.End)
	if err != nil {
		return fmt.Errorf("%w: end %q is not HH:mm", common.ErrInvalidInput, h.End)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start %s is not before end %s", common.ErrInvalidInput, h.Start, h.End)
	}
	return nil
}

// DayHours pairs a weekday with its hours.
type DayHours struct {
	Day   time.Weekday
	Hours Hours
}

// WorkingHoursFields encodes the schedule as the workingHours document.
func WorkingHoursFields(hours map[time.Weekday]Hours) map[string]any {
	f := make(map[string]any, len(hours))
	for day, h := range hours {
		f[day.String()] = map[string]any{"start": h.Start, "end": h.End}
	}
	return f
}

// WorkingHoursFromFields decodes the workingHours document in Monday to
// Sunday order. Unknown keys are ignored.
func WorkingHoursFromFields(f map[string]any) []DayHours {
	var out []DayHours
	for _, day := range Weekdays {
		m := store.Map(f, day.String())
		if m == nil {
			continue
		}
		out = append(out, DayHours{Day: day, Hours: Hours{
			Start: store.String(m, "start"),
			End:   store.String(m, "end"),
		}})
	}
	return out
}

// ParseWeekday accepts English day names, case-insensitively, or their
// three-letter abbreviations.
func ParseWeekday(s string) (time.Weekday, error) {
	for _, d := range Weekdays {
		name := d.String()
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", common.ErrInvalidInput, s)
}
