package schedule

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDays is the delivery window used when a customer does not pick
// specific weekdays.
var DefaultDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

var weekdayByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Dates returns every delivery date for a subscription starting at start and
// running totalWeeks weeks, walking the window day by day and keeping the
// dates whose weekday is in dayNames. Day names are full English weekday
// names, case-insensitive. An empty dayNames falls back to DefaultDays.
// The window covers exactly totalWeeks*7 calendar days beginning at start,
// so a one-week schedule never yields the same weekday twice.
func Dates(start time.Time, totalWeeks int, dayNames []string) ([]time.Time, error) {
	if totalWeeks <= 0 {
		return nil, fmt.Errorf("total weeks must be positive, got %d", totalWeeks)
	}
	if len(dayNames) == 0 {
		dayNames = DefaultDays
	}

	wanted := make(map[time.Weekday]bool, len(dayNames))
	for _, name := range dayNames {
		wd, ok := weekdayByName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown delivery day %q", name)
		}
		wanted[wd] = true
	}

	start = truncateToDate(start)
	end := start.AddDate(0, 0, totalWeeks*7)

	var dates []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if wanted[d.Weekday()] {
			dates = append(dates, d)
		}
	}
	return dates, nil
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
