package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

var (
	// ErrStatus marks a non-2xx response.
	ErrStatus = errors.New("unexpected status code")
	// ErrMalformed marks a body that could not be decoded.
	ErrMalformed = errors.New("malformed response")
	// ErrCircuitOpen is returned while a source is failing fast.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// FetchError is the single error type surfaced for a failed upstream call:
// transport failure, non-success status or malformed top-level document.
type FetchError struct {
	Source string
	URL    string
	Status int // 0 when no response was received
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: %s (HTTP %d)", e.Source, e.Err, e.Status)
	}
	return fmt.Sprintf("fetching %s: %s", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Options struct {
	Timeout   time.Duration
	RateLimit float64 // requests per second across all sources; 0 disables limiting
	Burst     int
	UserAgent string
	Logger    *slog.Logger
}

// Client performs GET requests against the dashboard's upstream sources.
// It never retries; each source has a circuit breaker so a dead host fails
// fast instead of stalling every refresh.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "kyou"
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 4
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return &Client{
		http:      &http.Client{Timeout: opts.Timeout},
		limiter:   limiter,
		userAgent: opts.UserAgent,
		logger:    opts.Logger,
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (c *Client) breaker(source string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok := c.breakers[source]; ok {
		return cb
	}
	logger := c.logger
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        source,
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "source", name, "from", from.String(), "to", to.String())
		},
	})
	c.breakers[source] = cb
	return cb
}

// Get downloads url and returns the body of a 2xx response.
func (c *Client) Get(ctx context.Context, source, url string) ([]byte, error) {
	fail := func(status int, err error) error {
		return &FetchError{Source: source, URL: url, Status: status, Err: err}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fail(0, fmt.Errorf("rate limit wait canceled: %w", err))
	}

	start := time.Now()
	result, err := c.breaker(source).Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fail(0, err)
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fail(0, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fail(resp.StatusCode, ErrStatus)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, fail(resp.StatusCode, fmt.Errorf("reading body: %w", err))
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fail(0, fmt.Errorf("%w: %v", ErrCircuitOpen, err))
		}
		c.logger.Warn("upstream fetch failed", "source", source, "url", url, "error", err)
		return nil, err
	}

	body := result.([]byte)
	c.logger.Debug("upstream fetch", "source", source, "bytes", len(body), "duration_ms", time.Since(start).Milliseconds())
	return body, nil
}

// GetJSON downloads url and decodes the body into v. A body that does not
// decode is reported as a FetchError wrapping ErrMalformed.
func (c *Client) GetJSON(ctx context.Context, source, url string, v any) error {
	body, err := c.Get(ctx, source, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &FetchError{Source: source, URL: url, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	return nil
}
