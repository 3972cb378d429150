package cache

import (
	"context"
	"time"
)

// Keys identify the memoized fetch operations.
const (
	KeyHolidays = "holidays"
	KeyForecast = "forecast"
	KeyOverview = "overview"
	KeyNews     = "news"
)

// Entry is a memoized payload and the time it was fetched.
type Entry struct {
	Key       string    `json:"key"`
	Body      []byte    `json:"body"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Backend persists entries between runs.
type Backend interface {
	Load(ctx context.Context, key string) (Entry, bool, error)
	Save(ctx context.Context, e Entry, ttl time.Duration) error
}
