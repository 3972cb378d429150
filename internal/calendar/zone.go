package calendar

import (
	"fmt"
	"strings"
	"time"
)

// DefaultZone is the zone the upstream forecast and holiday data are published in.
const DefaultZone = "Asia/Tokyo"

var jst = time.FixedZone("JST", 9*60*60)

// LoadZone resolves an IANA zone name. Asia/Tokyo falls back to a fixed
// +09:00 zone when the tz database is unavailable.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc, nil
	}
	if name == DefaultZone {
		return jst, nil
	}
	return nil, fmt.Errorf("loading time zone %q: %w", name, err)
}

// naive timestamps carry no offset and are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an ISO-8601 timestamp and converts it into loc.
// Offsets and the "Z" suffix are honored before conversion.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing timestamp %q: unsupported format", s)
}
