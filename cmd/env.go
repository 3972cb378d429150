package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/matheuskafuri/kyou/internal/cache"
	"github.com/matheuskafuri/kyou/internal/config"
	"github.com/matheuskafuri/kyou/internal/dashboard"
	"github.com/matheuskafuri/kyou/internal/logging"
	"github.com/matheuskafuri/kyou/internal/upstream"
)

// appEnv is everything a dashboard command needs, wired from config.
type appEnv struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *cache.Store // nil unless the sqlite backend is selected
	service *dashboard.Service
	closers []io.Closer
}

// newAppEnv loads config and wires logging, the memo backend, the upstream
// client and the dashboard service. Logs go to logOut.
func newAppEnv(logOut io.Writer) (*appEnv, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	rt := &appEnv{cfg: cfg}
	rt.logger = logging.New(logOut, logging.Level(cfg.LogLevel))

	backend, err := rt.openBackend()
	if err != nil {
		return nil, err
	}

	memo := cache.NewMemo(backend, rt.logger)
	if flagRefresh {
		memo.Expire()
	}

	client := upstream.New(upstream.Options{
		Timeout:   cfg.TimeoutDuration(),
		RateLimit: cfg.RateLimit,
		UserAgent: "kyou/" + version,
		Logger:    rt.logger,
	})

	svc, err := dashboard.New(cfg, memo, client, rt.logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.service = svc
	return rt, nil
}

func (rt *appEnv) openBackend() (cache.Backend, error) {
	switch rt.cfg.CacheBackend {
	case "redis":
		r, err := cache.NewRedisStore(rt.cfg.Redis.Addr, rt.cfg.Redis.Password, rt.cfg.Redis.DB, rt.logger)
		if err != nil {
			return nil, fmt.Errorf("opening cache: %w", err)
		}
		rt.closers = append(rt.closers, r)
		return r, nil
	case "memory":
		return nil, nil
	default:
		db, err := cache.Open(config.CachePath())
		if err != nil {
			return nil, fmt.Errorf("opening cache: %w", err)
		}
		rt.store = db
		rt.closers = append(rt.closers, db)
		return db, nil
	}
}

// markRefreshed records the build time in the sqlite meta table.
func (rt *appEnv) markRefreshed(*dashboard.Page) {
	if rt.store == nil {
		return
	}
	if err := rt.store.SetLastRefresh(); err != nil {
		rt.logger.Warn("recording last refresh failed", "error", err)
	}
}

func (rt *appEnv) Close() error {
	var errs []error
	for _, c := range rt.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
