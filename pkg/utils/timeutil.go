package utils

import (
	"time"
)

// DisplayLocation is the time zone used for chart labels and the
// "last updated" stamp. Defaults to the host's local zone.
var DisplayLocation = time.Local

// SetDisplayLocation switches the display zone to the named IANA location.
// An empty name keeps the current zone.
func SetDisplayLocation(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	DisplayLocation = loc
	return nil
}

// FromMillis converts epoch milliseconds to a time in the display zone.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).In(DisplayLocation)
}

// FormatChartDate formats a chart point date as M/D/YYYY.
func FormatChartDate(t time.Time) string {
	return t.In(DisplayLocation).Format("1/2/2006")
}

// FormatChartTime formats a chart point time as a 12-hour clock with
// two-digit hour and minute, e.g. "09:05 PM".
func FormatChartTime(t time.Time) string {
	return t.In(DisplayLocation).Format("03:04 PM")
}

// FormatClock formats a wall clock time with seconds, e.g. "9:05:07 PM".
func FormatClock(t time.Time) string {
	return t.In(DisplayLocation).Format("3:04:05 PM")
}
