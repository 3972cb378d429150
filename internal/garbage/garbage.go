package garbage

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheuskafuri/kyou/internal/calendar"
)

// NoInformation is shown for weekdays missing from the schedule.
const NoInformation = "No information"

// Schedule maps weekdays to the collection taking place that day.
type Schedule map[time.Weekday]string

// Day is the collection for one calendar day.
type Day struct {
	Date       calendar.Date
	Weekday    time.Weekday
	Collection string
}

// ParseSchedule converts a weekday-name keyed map ("monday", "Tue", ...)
// into a Schedule. Two names for the same weekday are rejected.
func ParseSchedule(raw map[string]string) (Schedule, error) {
	s := make(Schedule, len(raw))
	seen := make(map[time.Weekday]string, len(raw))
	for name, collection := range raw {
		wd, err := parseWeekday(name)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[wd]; ok {
			a, b := prev, name
			if b < a {
				a, b = b, a
			}
			return nil, fmt.Errorf("weekday %s is listed twice (%q and %q)", wd, a, b)
		}
		seen[wd] = name
		s[wd] = strings.TrimSpace(collection)
	}
	return s, nil
}

func (s Schedule) For(d calendar.Date) Day {
	wd := d.Weekday()
	collection, ok := s[wd]
	if !ok || collection == "" {
		collection = NoInformation
	}
	return Day{Date: d, Weekday: wd, Collection: collection}
}

// TodayAndTomorrow returns the collections for today and the following day.
func (s Schedule) TodayAndTomorrow(today calendar.Date) (Day, Day) {
	return s.For(today), s.For(today.AddDays(1))
}

func parseWeekday(name string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		full := strings.ToLower(wd.String())
		if key == full || key == full[:3] {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}
