package forecast

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matheuskafuri/kyou/internal/calendar"
)

// ErrUnexpectedSchema is returned when the forecast document does not carry
// the three positional time series. Whatever could be extracted is still
// returned alongside it.
var ErrUnexpectedSchema = errors.New("unexpected forecast schema")

const (
	seriesWeather = iota
	seriesPops
	seriesTemps
	minSeries
)

// Options selects the area blocks to read. The forecast code addresses the
// coarse forecast region (weather text and precipitation), the temperature
// code a point-observation station.
type Options struct {
	ForecastCode    string
	TemperatureCode string
	Location        *time.Location
}

// Summary is today's normalized weather view.
type Summary struct {
	Weather     string    // empty when unavailable
	WeatherTime time.Time // zero when Weather is the first-entry fallback
	Pops        []Pop
	MinTemp     *float64
	MaxTemp     *float64
	TempDate    calendar.Date // zero when no temperature was found
	Overview    string
	ReportTime  time.Time
}

// Pop is a precipitation probability for one announced time.
type Pop struct {
	Time    time.Time
	Label   string // HH:MM in the regional zone
	Percent string
}

// Sample is one value aligned against its timestamp.
type Sample struct {
	Index int
	Time  time.Time
	Value Value
}

// FindArea returns the first block whose area code equals code.
func FindArea(areas []AreaBlock, code string) (*AreaBlock, bool) {
	for i := range areas {
		if areas[i].Area.Code == code {
			return &areas[i], true
		}
	}
	return nil, false
}

// AlignToday returns every value whose timestamp, converted into loc, falls
// on day. Values beyond the timestamp array and positions with unparsable
// timestamps are ignored. Order is preserved.
func AlignToday(timeDefines, values []Value, day calendar.Date, loc *time.Location) []Sample {
	var out []Sample
	for i, ts := range timeDefines {
		if i >= len(values) {
			break
		}
		if !ts.Present {
			continue
		}
		t, err := calendar.ParseTimestamp(ts.Text, loc)
		if err != nil {
			continue
		}
		if calendar.DateOf(t) != day {
			continue
		}
		out = append(out, Sample{Index: i, Time: t, Value: values[i]})
	}
	return out
}

// Extract builds today's summary from the forecast reports and the overview
// document. Missing pieces degrade field by field; overview may be nil.
func Extract(reports []Report, overview *Overview, today calendar.Date, opts Options) (Summary, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	var s Summary
	if overview != nil {
		s.Overview = normalizeText(overview.Text.Text)
	}

	if len(reports) == 0 {
		return s, fmt.Errorf("%w: empty forecast document", ErrUnexpectedSchema)
	}
	report := reports[0]

	if report.ReportDatetime.Present {
		if t, err := calendar.ParseTimestamp(report.ReportDatetime.Text, loc); err == nil {
			s.ReportTime = t
		}
	}

	series := report.TimeSeries
	if len(series) > seriesWeather {
		extractWeather(&s, series[seriesWeather], today, opts.ForecastCode, loc)
	}
	if len(series) > seriesPops {
		extractPops(&s, series[seriesPops], today, opts.ForecastCode, loc)
	}
	if len(series) > seriesTemps {
		extractTemps(&s, series[seriesTemps], today, opts.TemperatureCode, loc)
	}

	if len(series) < minSeries {
		return s, fmt.Errorf("%w: want %d time series, got %d", ErrUnexpectedSchema, minSeries, len(series))
	}
	return s, nil
}

func extractWeather(s *Summary, ts TimeSeries, today calendar.Date, code string, loc *time.Location) {
	area, ok := FindArea(ts.Areas, code)
	if !ok {
		return
	}
	if samples := AlignToday(ts.TimeDefines, area.Weathers, today, loc); len(samples) > 0 {
		s.Weather = normalizeText(samples[0].Value.Text)
		s.WeatherTime = samples[0].Time
		return
	}
	if len(area.Weathers) > 0 {
		s.Weather = normalizeText(area.Weathers[0].Text)
	}
}

func extractPops(s *Summary, ts TimeSeries, today calendar.Date, code string, loc *time.Location) {
	area, ok := FindArea(ts.Areas, code)
	if !ok {
		return
	}
	for _, sample := range AlignToday(ts.TimeDefines, area.Pops, today, loc) {
		// A bare numeric 0 counts as empty; the string "0" is a real 0%.
		n, ok := sample.Value.Number()
		if !ok || (sample.Value.Numeric && n == 0) {
			continue
		}
		s.Pops = append(s.Pops, Pop{
			Time:    sample.Time,
			Label:   sample.Time.Format("15:04"),
			Percent: strings.TrimSpace(sample.Value.Text),
		})
	}
}

func extractTemps(s *Summary, ts TimeSeries, today calendar.Date, code string, loc *time.Location) {
	area, ok := FindArea(ts.Areas, code)
	if !ok {
		return
	}

	var r tempRange
	for _, sample := range AlignToday(ts.TimeDefines, area.Temps, today, loc) {
		if v, ok := sample.Value.Number(); ok {
			r.add(v)
		}
	}
	if r.ok {
		s.MinTemp, s.MaxTemp = ptr(r.min), ptr(r.max)
		s.TempDate = today
		return
	}

	// Upstream sometimes publishes only a min/max pair for the next
	// relevant day, with timestamps that never match today.
	if len(area.Temps) == 0 {
		return
	}
	if v, ok := area.Temps[0].Number(); ok {
		s.MinTemp = ptr(v)
	}
	if len(area.Temps) > 1 {
		if v, ok := area.Temps[1].Number(); ok {
			s.MaxTemp = ptr(v)
		}
	}
	if len(ts.TimeDefines) > 0 && ts.TimeDefines[0].Present {
		if t, err := calendar.ParseTimestamp(ts.TimeDefines[0].Text, loc); err == nil {
			s.TempDate = calendar.DateOf(t)
		}
	}
}

// tempRange accumulates a running min/max.
type tempRange struct {
	min, max float64
	ok       bool
}

func (r *tempRange) add(v float64) {
	if !r.ok {
		r.min, r.max, r.ok = v, v, true
		return
	}
	r.min = min(r.min, v)
	r.max = max(r.max, v)
}

func ptr(v float64) *float64 { return &v }

func normalizeText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u3000", " "))
}
