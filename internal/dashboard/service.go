package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/matheuskafuri/kyou/internal/cache"
	"github.com/matheuskafuri/kyou/internal/calendar"
	"github.com/matheuskafuri/kyou/internal/config"
	"github.com/matheuskafuri/kyou/internal/feed"
	"github.com/matheuskafuri/kyou/internal/forecast"
	"github.com/matheuskafuri/kyou/internal/garbage"
	"github.com/matheuskafuri/kyou/internal/holiday"
	"github.com/matheuskafuri/kyou/internal/logging"
	"github.com/matheuskafuri/kyou/internal/upstream"
)

// Service assembles dashboard pages from the upstream sources.
type Service struct {
	cfg      *config.Config
	memo     *cache.Memo
	client   *upstream.Client
	news     *feed.Fetcher
	schedule garbage.Schedule
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

func New(cfg *config.Config, memo *cache.Memo, client *upstream.Client, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	loc, err := calendar.LoadZone(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	schedule, err := garbage.ParseSchedule(cfg.Garbage.Schedule)
	if err != nil {
		return nil, fmt.Errorf("garbage schedule: %w", err)
	}
	return &Service{
		cfg:      cfg,
		memo:     memo,
		client:   client,
		news:     feed.NewFetcher(client, cfg.GetNewsLimit()),
		schedule: schedule,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Memo exposes the memo so callers can expire it or read its counters.
func (s *Service) Memo() *cache.Memo { return s.memo }

// Build fetches every section concurrently and returns the page. It never
// fails as a whole: section errors are recorded on the page.
func (s *Service) Build(ctx context.Context) *Page {
	start := time.Now()
	now := s.now()
	today := calendar.In(now, s.loc)
	page := &Page{RenderedAt: now.In(s.loc), Today: today}

	var (
		wg          sync.WaitGroup
		holidays    holiday.Index
		holidayErr  error
		doc         []json.RawMessage
		forecastErr error
		overview    forecast.Overview
		overviewErr error
		items       []feed.Item
		newsErr     error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		holidays, holidayErr = s.holidays(ctx)
	}()
	go func() {
		defer wg.Done()
		doc, forecastErr = cache.Remember(ctx, s.memo, cache.KeyForecast, s.cfg.ForecastTTL(),
			func(ctx context.Context) ([]json.RawMessage, error) {
				var doc []json.RawMessage
				err := s.client.GetJSON(ctx, "forecast", s.cfg.Sources.Forecast.URL, &doc)
				return doc, err
			})
	}()
	go func() {
		defer wg.Done()
		overview, overviewErr = cache.Remember(ctx, s.memo, cache.KeyOverview, s.cfg.OverviewTTL(),
			func(ctx context.Context) (forecast.Overview, error) {
				var ov forecast.Overview
				err := s.client.GetJSON(ctx, "overview", s.cfg.Sources.Overview.URL, &ov)
				return ov, err
			})
	}()
	go func() {
		defer wg.Done()
		items, newsErr = cache.Remember(ctx, s.memo, cache.KeyNews, s.cfg.NewsTTL(),
			func(ctx context.Context) ([]feed.Item, error) {
				return s.news.Fetch(ctx, s.cfg.Sources.News.URL)
			})
	}()
	wg.Wait()

	if holidayErr != nil {
		page.Holiday.Err = holidayErr
	} else {
		page.Holiday.Status = holidays.Status(today)
	}

	page.Weather = s.weather(doc, forecastErr, overview, overviewErr, today)

	todayDay, tomorrow := s.schedule.TodayAndTomorrow(today)
	page.Garbage = GarbageSection{
		District:    s.cfg.Garbage.District,
		Today:       todayDay,
		Tomorrow:    tomorrow,
		CalendarURL: s.cfg.Garbage.CalendarURL,
	}

	page.News = NewsSection{Items: items, Err: newsErr}

	s.logger.Info("dashboard built",
		"today", today.String(),
		"holiday_err", holidayErr != nil,
		"weather_err", page.Weather.Err != nil,
		"news_items", len(items),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return page
}

func (s *Service) holidays(ctx context.Context) (holiday.Index, error) {
	raw, err := cache.Remember(ctx, s.memo, cache.KeyHolidays, s.cfg.HolidaysTTL(),
		func(ctx context.Context) (map[string]string, error) {
			var raw map[string]string
			err := s.client.GetJSON(ctx, "holidays", s.cfg.Sources.Holidays.URL, &raw)
			return raw, err
		})
	if err != nil {
		return nil, err
	}
	idx, rejected := holiday.Parse(raw)
	if len(rejected) > 0 {
		s.logger.Debug("dropped holiday entries", "keys", rejected)
	}
	return idx, nil
}

func (s *Service) weather(doc []json.RawMessage, docErr error, ov forecast.Overview, ovErr error, today calendar.Date) WeatherSection {
	sec := WeatherSection{Area: s.cfg.Area.Name}
	if err := errors.Join(docErr, ovErr); err != nil {
		sec.Err = err
		return sec
	}

	summary, err := forecast.Extract(forecast.Decode(doc), &ov, today, forecast.Options{
		ForecastCode:    s.cfg.Area.ForecastCode,
		TemperatureCode: s.cfg.Area.TemperatureCode,
		Location:        s.loc,
	})
	sec.Summary = summary
	if err != nil {
		s.logger.Warn("forecast document has an unexpected shape", "error", err)
		sec.Warning = err
	}
	return sec
}
