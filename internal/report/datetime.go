package report

import (
	"strings"
	"time"

	"urbfisc/internal/occurrence"
)

// timestampLayouts are tried in order when the creation time is stored as
// text. Fractional seconds are accepted by the layouts that have seconds.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
}

// dateTime is the printed form of the creation instant.
type dateTime struct {
	date    string
	clock   string
	instant time.Time // zero when the value could not be parsed
}

// splitTimestamp formats ts for the DATA and HORA cells. Text without a zone
// is read as wall-clock time in loc and printed unchanged. Text that is not a
// recognizable date is printed verbatim in the date cell.
func splitTimestamp(ts occurrence.Timestamp, loc *time.Location) dateTime {
	t := ts.Time
	if t.IsZero() {
		raw := strings.TrimSpace(ts.Raw)
		if raw == "" {
			return dateTime{}
		}
		parsed, ok := parseTimestamp(raw, loc)
		if !ok {
			return dateTime{date: raw}
		}
		t = parsed
	}
	if loc != nil {
		t = t.In(loc)
	}
	return dateTime{
		date:    t.Format("02/01/2006"),
		clock:   t.Format("15:04"),
		instant: t,
	}
}

func parseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
