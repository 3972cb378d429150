package holiday

import (
	"strings"

	"github.com/matheuskafuri/kyou/internal/calendar"
)

// Index maps calendar dates to holiday display names.
type Index map[calendar.Date]string

// Entry is a single holiday.
type Entry struct {
	Date calendar.Date
	Name string
}

// Status describes today's holiday situation.
type Status struct {
	IsHoliday bool
	TodayName string
	Next      *Entry // nil when no future holiday is known
}

// Parse builds an Index from the raw date→name document. Keys that are not
// ISO dates and empty names are dropped; the second return value lists the
// rejected keys.
func Parse(raw map[string]string) (Index, []string) {
	idx := make(Index, len(raw))
	var rejected []string
	for key, name := range raw {
		name = strings.TrimSpace(name)
		d, err := calendar.ParseDate(strings.TrimSpace(key))
		if err != nil || name == "" {
			rejected = append(rejected, key)
			continue
		}
		idx[d] = name
	}
	return idx, rejected
}

// Name returns the holiday name for d.
func (idx Index) Name(d calendar.Date) (string, bool) {
	name, ok := idx[d]
	return name, ok
}

// Next returns the earliest holiday strictly after today.
func (idx Index) Next(today calendar.Date) (Entry, bool) {
	var (
		best  calendar.Date
		found bool
	)
	for d := range idx {
		if !d.After(today) {
			continue
		}
		if !found || d.Before(best) {
			best = d
			found = true
		}
	}
	if !found {
		return Entry{}, false
	}
	return Entry{Date: best, Name: idx[best]}, true
}

func (idx Index) Status(today calendar.Date) Status {
	var s Status
	s.TodayName, s.IsHoliday = idx.Name(today)
	if next, ok := idx.Next(today); ok {
		s.Next = &next
	}
	return s
}
