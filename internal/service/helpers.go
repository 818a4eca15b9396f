package service

import (
	"time"
)

// scheduledAtLayouts are accepted for admin and seed input, most specific first.
var scheduledAtLayouts = []string{time.RFC3339, "2006-01-02T15:04"}

// ParseScheduledAt reads an RFC3339 timestamp. Values without an offset are
// taken in loc.
func ParseScheduledAt(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	var err error
	for _, layout := range scheduledAtLayouts {
		var t time.Time
		t, err = time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

// dayBounds returns the start of the calendar day containing t in loc and
// the start of the next one.
func dayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
