package appointment

import (
	"fmt"
	"time"
)

// Countdown statuses.
const (
	StatusCompleted = "Completed"
	StatusUpcoming  = "Upcoming"
	StatusSoon      = "Soon"
	StatusImminent  = "Imminent"
)

// Remaining describes how far away an appointment is.
type Remaining struct {
	Status  string `json:"status"`
	Display string `json:"remaining"`
}

// Countdown buckets the time from now until scheduled. An appointment at
// or before now is Completed.
func Countdown(scheduled, now time.Time) Remaining {
	d := scheduled.Sub(now)
	if d <= 0 {
		return Remaining{Status: StatusCompleted, Display: "Passed"}
	}

	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	switch {
	case days >= 1:
		return Remaining{Status: StatusUpcoming, Display: fmt.Sprintf("%d days, %d hours", days, hours)}
	case hours >= 1:
		return Remaining{Status: StatusSoon, Display: fmt.Sprintf("%d hours, %d minutes", hours, minutes)}
	}
	return Remaining{Status: StatusImminent, Display: fmt.Sprintf("%d minutes", minutes)}
}

// wallClock reinterprets a stored timestamp, which carries no zone, as
// local time.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local)
}
