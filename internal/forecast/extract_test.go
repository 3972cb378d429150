package forecast

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/matheuskafuri/kyou/internal/calendar"
)

const sampleForecast = `[
  {
    "publishingOffice": "Yokohama Local Meteorological Office",
    "reportDatetime": "2026-10-18T11:00:00+09:00",
    "timeSeries": [
      {
        "timeDefines": ["2026-10-18T11:00:00+09:00", "2026-10-19T00:00:00+09:00", "2026-10-20T00:00:00+09:00"],
        "areas": [
          {"area": {"name": "West", "code": "140020"}, "weathers": ["sunny", "cloudy", "rain"]},
          {"area": {"name": "East", "code": "140010"}, "weatherCodes": ["101", "200", "300"], "weathers": ["cloudy　then sunny", "rain", "sunny"]}
        ]
      },
      {
        "timeDefines": ["2026-10-18T12:00:00+09:00", "2026-10-18T18:00:00+09:00", "2026-10-19T00:00:00+09:00", "2026-10-19T06:00:00+09:00"],
        "areas": [
          {"area": {"name": "East", "code": "140010"}, "pops": ["20", "", "10", "0"]}
        ]
      },
      {
        "timeDefines": ["2026-10-18T09:00:00+09:00", "2026-10-18T00:00:00+09:00", "2026-10-19T00:00:00+09:00", "2026-10-19T09:00:00+09:00"],
        "areas": [
          {"area": {"name": "Yokohama", "code": "46106"}, "temps": ["21", "16.5", "15", "22"]}
        ]
      }
    ]
  },
  {"publishingOffice": "weekly", "timeSeries": []}
]`

var today = calendar.Date{Year: 2026, Month: time.October, Day: 18}

func tokyo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := calendar.LoadZone(calendar.DefaultZone)
	if err != nil {
		t.Fatalf("LoadZone: %v", err)
	}
	return loc
}

func decode(t *testing.T, doc string) []Report {
	t.Helper()
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return Decode(raw)
}

func opts(t *testing.T) Options {
	return Options{ForecastCode: "140010", TemperatureCode: "46106", Location: tokyo(t)}
}

func values(ss ...string) []Value {
	out := make([]Value, len(ss))
	for i, s := range ss {
		out[i] = V(s)
	}
	return out
}

func TestExtractSample(t *testing.T) {
	s, err := Extract(decode(t, sampleForecast), &Overview{Text: V("  A high pressure system covers the region.\nClear skies.  ")}, today, opts(t))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if s.Weather != "cloudy then sunny" {
		t.Errorf("Weather = %q, want %q", s.Weather, "cloudy then sunny")
	}
	if s.WeatherTime.Hour() != 11 {
		t.Errorf("WeatherTime = %v, want 11:00", s.WeatherTime)
	}

	if len(s.Pops) != 1 {
		t.Fatalf("expected 1 pop for today, got %d: %+v", len(s.Pops), s.Pops)
	}
	if s.Pops[0].Label != "12:00" || s.Pops[0].Percent != "20" {
		t.Errorf("Pops[0] = %+v", s.Pops[0])
	}

	if s.MinTemp == nil || *s.MinTemp != 16.5 {
		t.Errorf("MinTemp = %v, want 16.5", s.MinTemp)
	}
	if s.MaxTemp == nil || *s.MaxTemp != 21 {
		t.Errorf("MaxTemp = %v, want 21", s.MaxTemp)
	}
	if s.TempDate != today {
		t.Errorf("TempDate = %v, want %v", s.TempDate, today)
	}

	if s.Overview != "A high pressure system covers the region.\nClear skies." {
		t.Errorf("Overview = %q", s.Overview)
	}
	if s.ReportTime.IsZero() || s.ReportTime.Hour() != 11 {
		t.Errorf("ReportTime = %v", s.ReportTime)
	}
}

func TestFindAreaMissingCode(t *testing.T) {
	areas := []AreaBlock{
		{Area: Area{Code: "140020"}},
		{Area: Area{Code: "140010"}},
	}
	if _, ok := FindArea(areas, "999999"); ok {
		t.Error("expected not found for absent code")
	}
	got, ok := FindArea(areas, "140010")
	if !ok || got != &areas[1] {
		t.Errorf("FindArea returned %v, %v", got, ok)
	}
	if _, ok := FindArea(nil, "140010"); ok {
		t.Error("expected not found for empty areas")
	}
}

func TestAlignTodayConvertsZoneFirst(t *testing.T) {
	loc := tokyo(t)
	stamps := values(
		"2026-10-17T14:00:00Z", // 23:00 JST on the 17th
		"2026-10-17T15:00:00Z", // 00:00 JST on the 18th
		"2026-10-18T06:00:00+09:00",
		"2026-10-18T14:59:00Z", // 23:59 JST on the 18th
		"2026-10-18T15:00:00Z", // 00:00 JST on the 19th
	)
	vals := values("a", "b", "c", "d", "e")

	got := AlignToday(stamps, vals, today, loc)
	want := []string{"b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("AlignToday returned %d samples, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Value.Text != w {
			t.Errorf("sample %d = %q, want %q", i, got[i].Value.Text, w)
		}
		if calendar.DateOf(got[i].Time) != today {
			t.Errorf("sample %d time %v is not on %v", i, got[i].Time, today)
		}
	}
}

func TestAlignTodayShorterValues(t *testing.T) {
	stamps := values("2026-10-18T06:00:00+09:00", "2026-10-18T12:00:00+09:00", "2026-10-18T18:00:00+09:00")
	got := AlignToday(stamps, values("10"), today, tokyo(t))
	if len(got) != 1 || got[0].Index != 0 {
		t.Errorf("expected only position 0, got %+v", got)
	}
}

func TestAlignTodayMatchesBruteForce(t *testing.T) {
	loc := tokyo(t)
	r := rand.New(rand.NewSource(7))
	base := time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC)
	for round := 0; round < 100; round++ {
		n := r.Intn(10)
		stamps := make([]Value, n)
		vals := make([]Value, n)
		var want []int
		for i := 0; i < n; i++ {
			ts := base.Add(time.Duration(r.Intn(72)) * time.Hour)
			stamps[i] = V(ts.Format(time.RFC3339))
			vals[i] = V(ts.Format(time.RFC3339))
			if calendar.In(ts, loc) == today {
				want = append(want, i)
			}
		}
		got := AlignToday(stamps, vals, today, loc)
		if len(got) != len(want) {
			t.Fatalf("round %d: got %d samples, want %d", round, len(got), len(want))
		}
		for i := range want {
			if got[i].Index != want[i] {
				t.Fatalf("round %d: sample %d index = %d, want %d", round, i, got[i].Index, want[i])
			}
		}
	}
}

func TestPopsSkipEmptyValues(t *testing.T) {
	doc := `[{"timeSeries": [
	  {"timeDefines": [], "areas": []},
	  {"timeDefines": ["2026-10-18T00:00:00+09:00", "2026-10-18T06:00:00+09:00", "2026-10-18T12:00:00+09:00", "2026-10-18T18:00:00+09:00"],
	   "areas": [{"area": {"code": "140010"}, "pops": ["", "30", null, "0"]}]},
	  {"timeDefines": [], "areas": []}
	]}]`
	s, err := Extract(decode(t, doc), nil, today, opts(t))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(s.Pops) != 2 {
		t.Fatalf("expected 2 pops, got %d: %+v", len(s.Pops), s.Pops)
	}
	if s.Pops[0].Percent != "30" || s.Pops[0].Label != "06:00" {
		t.Errorf("Pops[0] = %+v", s.Pops[0])
	}
	if s.Pops[1].Percent != "0" || s.Pops[1].Label != "18:00" {
		t.Errorf("Pops[1] = %+v", s.Pops[1])
	}
}

func TestPopsSkipNumericZero(t *testing.T) {
	tests := []struct {
		name      string
		pops      string
		wantLabel []string
		wantPct   []string
	}{
		{"number zero skipped", `[0, "40"]`, []string{"12:00"}, []string{"40"}},
		{"string zero kept", `["0", 40]`, []string{"06:00", "12:00"}, []string{"0", "40"}},
		{"float zero skipped", `[0.0, "n/a"]`, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `[{"timeSeries": [
			  {"timeDefines": [], "areas": []},
			  {"timeDefines": ["2026-10-18T06:00:00+09:00", "2026-10-18T12:00:00+09:00"],
			   "areas": [{"area": {"code": "140010"}, "pops": ` + tt.pops + `}]},
			  {"timeDefines": [], "areas": []}
			]}]`
			s, _ := Extract(decode(t, doc), nil, today, opts(t))
			if len(s.Pops) != len(tt.wantPct) {
				t.Fatalf("got %d pops, want %d: %+v", len(s.Pops), len(tt.wantPct), s.Pops)
			}
			for i, p := range s.Pops {
				if p.Label != tt.wantLabel[i] || p.Percent != tt.wantPct[i] {
					t.Errorf("Pops[%d] = %+v, want %s %s%%", i, p, tt.wantLabel[i], tt.wantPct[i])
				}
			}
		})
	}
}

func TestTemperatureFallback(t *testing.T) {
	doc := `[{"timeSeries": [
	  {"timeDefines": [], "areas": []},
	  {"timeDefines": [], "areas": []},
	  {"timeDefines": ["2026-10-19T00:00:00+09:00", "2026-10-19T09:00:00+09:00"],
	   "areas": [{"area": {"code": "46106"}, "temps": ["14", "23.5"]}]}
	]}]`
	s, err := Extract(decode(t, doc), nil, today, opts(t))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if s.MinTemp == nil || *s.MinTemp != 14 {
		t.Errorf("MinTemp = %v, want 14", s.MinTemp)
	}
	if s.MaxTemp == nil || *s.MaxTemp != 23.5 {
		t.Errorf("MaxTemp = %v, want 23.5", s.MaxTemp)
	}
	want := calendar.Date{Year: 2026, Month: time.October, Day: 19}
	if s.TempDate != want {
		t.Errorf("TempDate = %v, want %v", s.TempDate, want)
	}
}

func TestTemperatureFallbackSingleSample(t *testing.T) {
	doc := `[{"timeSeries": [
	  {"timeDefines": [], "areas": []},
	  {"timeDefines": [], "areas": []},
	  {"timeDefines": ["2026-10-19T00:00:00+09:00"], "areas": [{"area": {"code": "46106"}, "temps": ["14"]}]}
	]}]`
	s, _ := Extract(decode(t, doc), nil, today, opts(t))
	if s.MinTemp == nil || *s.MinTemp != 14 {
		t.Errorf("MinTemp = %v, want 14", s.MinTemp)
	}
	if s.MaxTemp != nil {
		t.Errorf("MaxTemp = %v, want unset", *s.MaxTemp)
	}
}

func TestTemperatureMinMaxOrderIndependent(t *testing.T) {
	temps := []string{"12", "19.5", "8", "15", "21", "8", "17"}
	r := rand.New(rand.NewSource(3))
	for round := 0; round < 20; round++ {
		perm := r.Perm(len(temps))
		var acc tempRange
		for _, i := range perm {
			v, _ := V(temps[i]).Number()
			acc.add(v)
		}
		if acc.min != 8 || acc.max != 21 {
			t.Fatalf("round %d: got (%v, %v), want (8, 21)", round, acc.min, acc.max)
		}
	}
}

func TestWeatherFallsBackToFirstEntry(t *testing.T) {
	doc := `[{"timeSeries": [
	  {"timeDefines": ["2026-10-20T00:00:00+09:00", "2026-10-21T00:00:00+09:00"],
	   "areas": [{"area": {"code": "140010"}, "weathers": ["rain　later cloudy", "sunny"]}]},
	  {"timeDefines": [], "areas": []},
	  {"timeDefines": [], "areas": []}
	]}]`
	s, _ := Extract(decode(t, doc), nil, today, opts(t))
	if s.Weather != "rain later cloudy" {
		t.Errorf("Weather = %q, want first entry", s.Weather)
	}
	if !s.WeatherTime.IsZero() {
		t.Errorf("WeatherTime = %v, want zero for fallback", s.WeatherTime)
	}
}

func TestExtractGuardsSeriesCount(t *testing.T) {
	doc := `[{"reportDatetime": "2026-10-18T05:00:00+09:00", "timeSeries": [
	  {"timeDefines": ["2026-10-18T05:00:00+09:00"], "areas": [{"area": {"code": "140010"}, "weathers": ["sunny"]}]}
	]}]`
	s, err := Extract(decode(t, doc), &Overview{Text: V("calm")}, today, opts(t))
	if !errors.Is(err, ErrUnexpectedSchema) {
		t.Fatalf("expected ErrUnexpectedSchema, got %v", err)
	}
	if s.Weather != "sunny" {
		t.Errorf("partial Weather = %q, want sunny", s.Weather)
	}
	if s.Overview != "calm" {
		t.Errorf("partial Overview = %q, want calm", s.Overview)
	}

	if _, err := Extract(nil, nil, today, opts(t)); !errors.Is(err, ErrUnexpectedSchema) {
		t.Errorf("expected ErrUnexpectedSchema for empty document, got %v", err)
	}
}

func TestExtractDegradesFieldByField(t *testing.T) {
	// areas of the first series is an object, pops are a string, the
	// temperature block still decodes.
	doc := `[{"reportDatetime": 12, "timeSeries": [
	  {"timeDefines": ["2026-10-18T05:00:00+09:00"], "areas": {"code": "140010"}},
	  {"timeDefines": "nope", "areas": [{"area": {"code": "140010"}, "pops": "20"}]},
	  {"timeDefines": ["2026-10-18T00:00:00+09:00", "2026-10-18T09:00:00+09:00"],
	   "areas": ["garbage", {"area": {"code": 46106}, "temps": [11, "19"]}]}
	]}]`
	s, err := Extract(decode(t, doc), nil, today, opts(t))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if s.Weather != "" || len(s.Pops) != 0 || s.Overview != "" {
		t.Errorf("expected absent weather/pops/overview, got %+v", s)
	}
	if !s.ReportTime.IsZero() {
		t.Errorf("ReportTime = %v, want zero", s.ReportTime)
	}
	if s.MinTemp == nil || *s.MinTemp != 11 || s.MaxTemp == nil || *s.MaxTemp != 19 {
		t.Errorf("temperatures = %v/%v, want 11/19", s.MinTemp, s.MaxTemp)
	}
}

func TestValueDecoding(t *testing.T) {
	var vs List[Value]
	if err := json.Unmarshal([]byte(`["a", 1.5, null, true, {"x":1}, ""]`), &vs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []Value{V("a"), {Text: "1.5", Present: true, Numeric: true}, {}, {}, {}, V("")}
	if len(vs) != len(want) {
		t.Fatalf("got %d values, want %d", len(vs), len(want))
	}
	for i := range want {
		if vs[i] != want[i] {
			t.Errorf("value %d = %+v, want %+v", i, vs[i], want[i])
		}
	}

	b, err := json.Marshal(vs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `["a",1.5,null,null,null,""]` {
		t.Errorf("marshal = %s", b)
	}
}
