package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elkriver/inventory-cli/internal/cache"
	"github.com/elkriver/inventory-cli/internal/estimator"
	"github.com/elkriver/inventory-cli/internal/store"
	"github.com/elkriver/inventory-cli/pkg/armslist"
)

// appEnv bundles the long-lived dependencies shared by commands.
type appEnv struct {
	Store     store.Store
	Cache     *cache.Cache
	Estimator *estimator.Estimator
}

func (e *appEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("failed to close store", zap.Error(err))
		}
	}
}

// initEnv wires the store, cache, marketplace client, and estimator
// from configuration.
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	var listingsCache *cache.Cache
	if cfg.Cache.Enabled {
		listingsCache, err = cache.New(cfg.Cache.Dir, time.Duration(cfg.Cache.TTLHours * float64(time.Hour)))
		if err != nil {
			st.Close()
			return nil, eris.Wrap(err, "init cache")
		}
	}

	client := armslist.NewClient(
		armslist.WithBaseURL(cfg.Market.BaseURL),
		armslist.WithTimeout(time.Duration(cfg.Market.TimeoutSecs)*time.Second),
		armslist.WithMaxRetries(cfg.Market.MaxRetries),
	)

	est := estimator.New(client, listingsCache, estimator.Options{
		Workers:        cfg.Estimator.Workers,
		RateLimitDelay: time.Duration(cfg.Estimator.RateLimitDelaySecs * float64(time.Second)),
	})

	return &appEnv{Store: st, Cache: listingsCache, Estimator: est}, nil
}

func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "open postgres store")
		}
		return st, nil
	case "sqlite", "":
		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, eris.Wrap(err, "open sqlite store")
		}
		return st, nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
