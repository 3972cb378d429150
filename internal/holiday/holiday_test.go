package holiday

import (
	"math/rand"
	"testing"
	"time"

	"github.com/matheuskafuri/kyou/internal/calendar"
)

func sampleIndex(t *testing.T) Index {
	t.Helper()
	idx, rejected := Parse(map[string]string{
		"2026-01-01": "New Year's Day",
		"2026-09-23": "Autumnal Equinox Day",
		"2026-10-12": "Sports Day",
		"2026-11-03": "Culture Day",
		"2026-11-23": "Labor Thanksgiving Day",
	})
	if len(rejected) != 0 {
		t.Fatalf("unexpected rejected keys: %v", rejected)
	}
	return idx
}

func TestNextReturnsEarliestFutureHoliday(t *testing.T) {
	idx := sampleIndex(t)
	today := calendar.Date{Year: 2026, Month: time.October, Day: 18}

	next, ok := idx.Next(today)
	if !ok {
		t.Fatal("expected a next holiday")
	}
	if next.Date != (calendar.Date{Year: 2026, Month: time.November, Day: 3}) {
		t.Errorf("Next = %v, want 2026-11-03", next.Date)
	}
	if next.Name != "Culture Day" {
		t.Errorf("Next name = %q, want %q", next.Name, "Culture Day")
	}
}

func TestNextIsStrictlyAfterToday(t *testing.T) {
	idx := sampleIndex(t)
	today := calendar.Date{Year: 2026, Month: time.November, Day: 3}

	next, ok := idx.Next(today)
	if !ok {
		t.Fatal("expected a next holiday")
	}
	if next.Date.String() != "2026-11-23" {
		t.Errorf("Next on a holiday = %v, want 2026-11-23", next.Date)
	}
}

func TestNextOnlyPastHolidays(t *testing.T) {
	idx := sampleIndex(t)
	if _, ok := idx.Next(calendar.Date{Year: 2027, Month: time.January, Day: 1}); ok {
		t.Error("expected no next holiday when all are in the past")
	}
	if _, ok := (Index{}).Next(calendar.Date{Year: 2026, Month: time.January, Day: 1}); ok {
		t.Error("expected no next holiday for an empty index")
	}
}

func TestNextMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	base := calendar.Date{Year: 2026, Month: time.January, Day: 1}
	for round := 0; round < 200; round++ {
		idx := Index{}
		n := r.Intn(12)
		for i := 0; i < n; i++ {
			idx[base.AddDays(r.Intn(365))] = "h"
		}
		today := base.AddDays(r.Intn(365))

		got, ok := idx.Next(today)

		var want calendar.Date
		wantOK := false
		for d := range idx {
			if d.After(today) && (!wantOK || d.Before(want)) {
				want, wantOK = d, true
			}
		}
		if ok != wantOK {
			t.Fatalf("round %d: Next ok = %v, want %v", round, ok, wantOK)
		}
		if ok && (got.Date != want || !got.Date.After(today)) {
			t.Fatalf("round %d: Next = %v, want %v (today %v)", round, got.Date, want, today)
		}
	}
}

func TestStatus(t *testing.T) {
	idx := sampleIndex(t)

	s := idx.Status(calendar.Date{Year: 2026, Month: time.October, Day: 12})
	if !s.IsHoliday || s.TodayName != "Sports Day" {
		t.Errorf("Status on Sports Day = %+v", s)
	}
	if s.Next == nil || s.Next.Name != "Culture Day" {
		t.Errorf("Status.Next = %+v, want Culture Day", s.Next)
	}

	s = idx.Status(calendar.Date{Year: 2026, Month: time.December, Day: 1})
	if s.IsHoliday || s.TodayName != "" {
		t.Errorf("expected non-holiday, got %+v", s)
	}
	if s.Next != nil {
		t.Errorf("expected no next holiday, got %+v", s.Next)
	}
}

func TestParseRejectsInvalidEntries(t *testing.T) {
	idx, rejected := Parse(map[string]string{
		"2026-05-05": "Children's Day",
		"not-a-date": "Mystery",
		"2026-05-06": "   ",
	})
	if len(idx) != 1 {
		t.Errorf("expected 1 valid entry, got %d", len(idx))
	}
	if len(rejected) != 2 {
		t.Errorf("expected 2 rejected keys, got %v", rejected)
	}
}
