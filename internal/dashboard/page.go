package dashboard

import (
	"time"

	"github.com/matheuskafuri/kyou/internal/calendar"
	"github.com/matheuskafuri/kyou/internal/feed"
	"github.com/matheuskafuri/kyou/internal/forecast"
	"github.com/matheuskafuri/kyou/internal/garbage"
	"github.com/matheuskafuri/kyou/internal/holiday"
)

// Page is one render cycle of the dashboard. Each network section carries
// either its data or its own error.
type Page struct {
	RenderedAt time.Time
	Today      calendar.Date
	Holiday    HolidaySection
	Weather    WeatherSection
	Garbage    GarbageSection
	News       NewsSection
}

type HolidaySection struct {
	Status holiday.Status
	Err    error
}

type WeatherSection struct {
	Area    string
	Summary forecast.Summary
	// Warning is set when the forecast document did not have the expected
	// shape; Summary then holds whatever could be extracted.
	Warning error
	Err     error
}

type GarbageSection struct {
	District    string
	Today       garbage.Day
	Tomorrow    garbage.Day
	CalendarURL string
}

type NewsSection struct {
	Items []feed.Item
	Err   error
}

// Link returns the link of the i-th news item.
func (p *Page) Link(i int) (string, bool) {
	if p == nil || i < 0 || i >= len(p.News.Items) {
		return "", false
	}
	link := p.News.Items[i].Link
	return link, link != ""
}
