package forecast

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Report is one element of the forecast document. The first report carries
// the short-range forecast; its time series are positional:
// 0 = weather text, 1 = precipitation probability, 2 = temperature.
type Report struct {
	PublishingOffice Value            `json:"publishingOffice"`
	ReportDatetime   Value            `json:"reportDatetime"`
	TimeSeries       List[TimeSeries] `json:"timeSeries"`
}

// TimeSeries pairs a list of announced times with the area blocks whose
// value arrays are labelled by them.
type TimeSeries struct {
	TimeDefines List[Value]     `json:"timeDefines"`
	Areas       List[AreaBlock] `json:"areas"`
}

// AreaBlock is the slice of a time series scoped to one area.
type AreaBlock struct {
	Area         Area        `json:"area"`
	WeatherCodes List[Value] `json:"weatherCodes,omitempty"`
	Weathers     List[Value] `json:"weathers,omitempty"`
	Winds        List[Value] `json:"winds,omitempty"`
	Pops         List[Value] `json:"pops,omitempty"`
	Temps        List[Value] `json:"temps,omitempty"`
}

type Area struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (a *Area) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name Value `json:"name"`
		Code Value `json:"code"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		*a = Area{}
		return nil
	}
	*a = Area{Name: raw.Name.Text, Code: raw.Code.Text}
	return nil
}

// Overview is the free-text forecast summary document.
type Overview struct {
	PublishingOffice Value `json:"publishingOffice"`
	ReportDatetime   Value `json:"reportDatetime"`
	TargetArea       Value `json:"targetArea"`
	HeadlineText     Value `json:"headlineText"`
	Text             Value `json:"text"`
}

// Value is a single slot of an upstream array. Strings and numbers are kept
// as text; null and any other JSON kind decode as absent. Numeric records
// that the slot was a JSON number rather than a string.
type Value struct {
	Text    string
	Present bool
	Numeric bool
}

// V is a convenience constructor for a present value.
func V(s string) Value { return Value{Text: s, Present: true} }

func (v *Value) UnmarshalJSON(b []byte) error {
	*v = Value{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch {
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*v = V(s)
		}
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(b, &n); err == nil {
			*v = Value{Text: n.String(), Present: true, Numeric: true}
		}
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Present {
		return []byte("null"), nil
	}
	if v.Numeric {
		return []byte(v.Text), nil
	}
	return json.Marshal(v.Text)
}

// Number parses the value as a decimal. Absent, empty and non-numeric
// values report false.
func (v Value) Number() (float64, bool) {
	if !v.Present {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// List decodes a JSON array leniently: a non-array decodes as empty and an
// element that fails to decode becomes its zero value, so positions line up
// with the timestamp array.
type List[T any] []T

func (l *List[T]) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		*l = nil
		return nil
	}
	out := make(List[T], len(raw))
	for i, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err == nil {
			out[i] = v
		}
	}
	*l = out
	return nil
}

// Decode converts the raw elements of the forecast document into reports.
func Decode(doc []json.RawMessage) []Report {
	reports := make([]Report, len(doc))
	for i, raw := range doc {
		var r Report
		if err := json.Unmarshal(raw, &r); err == nil {
			reports[i] = r
		}
	}
	return reports
}
