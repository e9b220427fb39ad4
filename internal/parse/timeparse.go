package parse

import (
	"time"
)

// Timestamp layouts seen on the wire. Most attributes are ISO 8601
// without a zone; plan and change departure times use a compact
// numeric form instead.
var isoLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseTime parses an upstream timestamp attribute. Values are either
// ISO 8601 or a fixed-width numeric string (YYMMDDHHMM or YYYYMMDDHHMM).
// Unknown or empty values yield nil rather than an error: a missing time
// degrades the record, it does not abort the payload.
func ParseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	switch len(value) {
	case 10:
		if t, err := time.Parse("0601021504", value); err == nil {
			return &t
		}
	case 12:
		if t, err := time.Parse("200601021504", value); err == nil {
			return &t
		}
	}
	return nil
}
