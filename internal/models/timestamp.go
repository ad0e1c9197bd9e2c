package models

import (
	"strings"
	"time"
)

const TimestampLayout = "2006-01-02 15:04"

var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp is best-effort: anything it cannot read becomes the zero time.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}
