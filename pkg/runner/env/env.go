// Package env wires the settings of a chronos process into a ready Session.
package env

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"tableflip.dev/chronos/pkg/app"
	"tableflip.dev/chronos/pkg/breaker"
	"tableflip.dev/chronos/pkg/logging"
	"tableflip.dev/chronos/pkg/metrics"
	"tableflip.dev/chronos/pkg/remote"
	"tableflip.dev/chronos/pkg/remote/charmkv"
	"tableflip.dev/chronos/pkg/remote/httpdoc"
	"tableflip.dev/chronos/pkg/remote/sqldoc"
	"tableflip.dev/chronos/pkg/scheduler"
	"tableflip.dev/chronos/pkg/store"
)

// Env is everything a command needs.
type Env struct {
	Settings  *store.Settings
	Logger    *zap.SugaredLogger
	Vault     *store.Vault
	Remote    remote.Store
	Breaker   *breaker.Breaker
	Service   *app.Service
	Session   *app.Session
	Scheduler *scheduler.Scheduler

	closers []func()
}

// Options tweak Load.
type Options struct {
	// Settings skips reading the config when set.
	Settings *store.Settings
	// Console receives human-facing logs; nil means stderr.
	Console io.Writer
	// Verbose forces debug logging.
	Verbose bool
}

// Load resolves the settings and opens the cache and remote store they name.
func Load(o Options) (*Env, error) {
	settings := o.Settings
	if settings == nil {
		var err error
		if settings, err = store.LoadConfig(); err != nil {
			return nil, err
		}
	}

	level := settings.Log.Level
	if o.Verbose {
		level = "debug"
	}
	logger, sync := logging.New(logging.Config{
		Level:      level,
		File:       settings.Log.File,
		MaxSizeMB:  settings.Log.MaxSizeMB,
		MaxBackups: settings.Log.MaxBackups,
		MaxAgeDays: settings.Log.MaxAgeDays,
		Console:    o.Console,
	})
	e := &Env{Settings: settings, Logger: logger}
	e.closers = append(e.closers, sync)

	vault, err := store.Open(settings, logger)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.Vault = vault

	rem, closeRemote, err := OpenRemote(settings.Remote, logger)
	if err != nil {
		e.Close()
		return nil, err
	}
	if closeRemote != nil {
		e.closers = append(e.closers, closeRemote)
	}
	e.Remote = rem

	e.Breaker = breaker.New()
	e.Breaker.OnChange(metrics.BreakerChanged)
	e.Breaker.OnChange(func(tripped bool) {
		if tripped {
			logger.Warnw("remote store disabled for this session", "reason", e.Breaker.Reason())
		}
	})

	e.Service = app.New(vault, rem, e.Breaker, logger)
	e.Session = app.NewSession(e.Service, vault)
	e.Scheduler = scheduler.New(e.Service, scheduler.Config{
		Debounce:  settings.Debounce,
		SavedHold: settings.SavedHold,
		ErrorHold: settings.ErrorHold,
		Logger:    logger,
	})
	e.Session.OnSignOut(e.Scheduler.Reset)

	// Closers run in reverse, so the scheduler closes before the remote.
	e.closers = append(e.closers, e.Scheduler.Close)
	return e, nil
}

// OpenRemote returns the remote store rs names, or nil for a local-only
// setup. The returned func, when not nil, releases the store.
func OpenRemote(rs store.RemoteSettings, logger *zap.SugaredLogger) (remote.Store, func(), error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	switch rs.Kind {
	case "", store.RemoteNone:
		return nil, nil, nil
	case store.RemoteMemory:
		return remote.NewMemory(), nil, nil
	case store.RemoteCharm:
		return charmkv.New(rs.CharmDB, charmkv.OpenCharm, logger), nil, nil
	case store.RemoteSQLite:
		if rs.DSN == "" {
			return nil, nil, errors.New("env: remote.dsn is required for the sqlite remote")
		}
		s, err := sqldoc.Open(rs.DSN, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case store.RemoteHTTP:
		s, err := httpdoc.New(rs.URL, httpdoc.WithToken(rs.Token), httpdoc.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	default:
		return nil, nil, fmt.Errorf("env: unknown remote kind %q", rs.Kind)
	}
}

// UserID returns the signed-in user, or "" when signed out.
func (e *Env) UserID() string {
	return e.Session.UserID()
}

// Flush pushes every staged write and waits for it to finish.
func (e *Env) Flush(ctx context.Context) error {
	return e.Scheduler.Flush(ctx)
}

// Close releases everything Load opened.
func (e *Env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}

// Output renders machine-readable results.
type Output interface {
	Structured() bool
	Write(w io.Writer, v interface{}) error
}
