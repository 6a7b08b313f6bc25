package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cityequip/cityequip/internal/resilience"
	"github.com/cityequip/cityequip/internal/store"
)

// initStore connects to the configured backend, retrying transient failures,
// and applies its migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var open func(ctx context.Context) (store.Store, error)
	switch cfg.Store.Driver {
	case "sqlite":
		open = func(context.Context) (store.Store, error) {
			return store.NewSQLite(cfg.Store.DatabaseURL)
		}
	case "postgres":
		open = func(ctx context.Context) (store.Store, error) {
			return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.PoolConfig())
		}
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Store.ConnectAttempts
	retry.OnRetry = resilience.RetryLogger("connect store")
	st, err := resilience.DoVal(ctx, retry, open)
	if err != nil {
		return nil, eris.Wrap(err, "connect store")
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	zap.L().Debug("store ready", zap.String("driver", cfg.Store.Driver))
	return st, nil
}
