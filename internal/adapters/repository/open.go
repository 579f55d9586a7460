package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/skillmatch/internal/adapters/repository/postgres"
	"github.com/okian/skillmatch/internal/adapters/repository/sqlite"
	"github.com/okian/skillmatch/internal/config"
	"github.com/okian/skillmatch/pkg/logger"
)

// Open connects to the store selected by driver.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (Store, error) {
	o := openOptions{log: logger.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if dsn == "" {
		return nil, fmt.Errorf("%w for driver %q", ErrMissingDSN, driver)
	}

	switch driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, dsn,
			sqlite.WithLogger(o.log.Named("sqlite")),
			sqlite.WithClock(o.now),
			sqlite.WithMaxOpenConns(o.maxOpenConns))
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, dsn,
			postgres.WithLogger(o.log.Named("postgres")),
			postgres.WithClock(o.now))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// OpenConfig opens the store described by cfg.
func OpenConfig(ctx context.Context, cfg *config.Config, opts ...Option) (Store, error) {
	dsn := cfg.SQLiteDSN
	if cfg.StoreDriver == config.DriverPostgres {
		dsn = cfg.PostgresDSN
	}
	return Open(ctx, cfg.StoreDriver, dsn, opts...)
}
