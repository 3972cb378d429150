package config

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

var validate = validator.New()

const envPrefix = "KYOU_"

// Endpoint is an upstream document and how long a fetched copy stays fresh.
type Endpoint struct {
	URL string `yaml:"url" validate:"required,url"`
	TTL string `yaml:"ttl"`
}

type Sources struct {
	Holidays Endpoint `yaml:"holidays"`
	Forecast Endpoint `yaml:"forecast"`
	Overview Endpoint `yaml:"overview"`
	News     Endpoint `yaml:"news"`
}

// Area selects the blocks read from the forecast document.
type Area struct {
	Name            string `yaml:"name"`
	ForecastCode    string `yaml:"forecast_code" validate:"required,numeric"`
	TemperatureCode string `yaml:"temperature_code" validate:"required,numeric"`
}

type Garbage struct {
	District    string            `yaml:"district"`
	CalendarURL string            `yaml:"calendar_url" validate:"omitempty,url"`
	Schedule    map[string]string `yaml:"schedule"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

type Config struct {
	Timezone      string  `yaml:"timezone" validate:"required"`
	Timeout       string  `yaml:"timeout"`
	RateLimit     float64 `yaml:"rate_limit" validate:"gte=0"`
	NewsLimit     int     `yaml:"news_limit" validate:"gte=0,lte=50"`
	WatchInterval string  `yaml:"watch_interval"`
	LogLevel      string  `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	CacheBackend  string  `yaml:"cache_backend" validate:"oneof=sqlite redis memory"`
	Redis         Redis   `yaml:"redis"`
	Area          Area    `yaml:"area"`
	Sources       Sources `yaml:"sources"`
	Garbage       Garbage `yaml:"garbage"`
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func (c *Config) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

func (c *Config) WatchDuration() time.Duration {
	return parseDuration(c.WatchInterval, 10*time.Minute)
}

func (c *Config) HolidaysTTL() time.Duration { return parseDuration(c.Sources.Holidays.TTL, 12*time.Hour) }
func (c *Config) ForecastTTL() time.Duration { return parseDuration(c.Sources.Forecast.TTL, 30*time.Minute) }
func (c *Config) OverviewTTL() time.Duration { return parseDuration(c.Sources.Overview.TTL, 30*time.Minute) }
func (c *Config) NewsTTL() time.Duration     { return parseDuration(c.Sources.News.TTL, 10*time.Minute) }

// GetNewsLimit returns the headline count, defaulting to 5.
func (c *Config) GetNewsLimit() int {
	if c.NewsLimit <= 0 {
		return 5
	}
	return c.NewsLimit
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "kyou", "config.yaml")
}

func CachePath() string {
	return filepath.Join(xdg.CacheHome, "kyou", "kyou.db")
}

func LogPath() string {
	return filepath.Join(xdg.StateHome, "kyou", "kyou.log")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config file at path (the XDG default when empty) on top of
// the embedded defaults, then applies .env and KYOU_* overrides.
func Load(path string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Non-fatal: the embedded defaults still apply.
		if err := writeDefaults(path); err != nil {
			slog.Debug("writing default config", "path", path, "err", err)
		}
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := overlay(cfg, data); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlay decodes a user file on top of cfg. Maps are merged key by key by
// the decoder, so a user schedule replaces the default one as a whole.
func overlay(cfg *Config, data []byte) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	var user struct {
		Garbage struct {
			Schedule map[string]string `yaml:"schedule"`
		} `yaml:"garbage"`
	}
	if err := yaml.Unmarshal(data, &user); err != nil {
		return err
	}
	if user.Garbage.Schedule != nil {
		cfg.Garbage.Schedule = user.Garbage.Schedule
	}
	return nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

// applyEnv overrides fields from KYOU_* variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"TIMEZONE":         &cfg.Timezone,
		"TIMEOUT":          &cfg.Timeout,
		"WATCH_INTERVAL":   &cfg.WatchInterval,
		"LOG_LEVEL":        &cfg.LogLevel,
		"CACHE_BACKEND":    &cfg.CacheBackend,
		"REDIS_ADDR":       &cfg.Redis.Addr,
		"REDIS_PASSWORD":   &cfg.Redis.Password,
		"FORECAST_CODE":    &cfg.Area.ForecastCode,
		"TEMPERATURE_CODE": &cfg.Area.TemperatureCode,
		"HOLIDAYS_URL":     &cfg.Sources.Holidays.URL,
		"FORECAST_URL":     &cfg.Sources.Forecast.URL,
		"OVERVIEW_URL":     &cfg.Sources.Overview.URL,
		"NEWS_URL":         &cfg.Sources.News.URL,
	}
	for name, field := range strs {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*field = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup(envPrefix + "NEWS_LIMIT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sNEWS_LIMIT: %w", envPrefix, err)
		}
		cfg.NewsLimit = n
	}
	if v, ok := lookup(envPrefix + "RATE_LIMIT"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sRATE_LIMIT: %w", envPrefix, err)
		}
		cfg.RateLimit = f
	}
	return nil
}

// Validate checks field constraints and that every URL is http or https.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.CacheBackend == "redis" && cfg.Redis.Addr == "" {
		return fmt.Errorf("invalid config: redis.addr is required for the redis cache backend")
	}

	urls := []struct{ name, raw string }{
		{"sources.holidays", cfg.Sources.Holidays.URL},
		{"sources.forecast", cfg.Sources.Forecast.URL},
		{"sources.overview", cfg.Sources.Overview.URL},
		{"sources.news", cfg.Sources.News.URL},
		{"garbage.calendar_url", cfg.Garbage.CalendarURL},
	}
	for _, u := range urls {
		if u.raw == "" {
			continue
		}
		if err := checkScheme(u.raw); err != nil {
			return fmt.Errorf("%s: %w", u.name, err)
		}
	}
	return nil
}

func checkScheme(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	return nil
}
