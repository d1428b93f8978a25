package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/eventlog"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
	redisstore "github.com/cory-johannsen/skirmish/internal/storage/redis"
)

func mustBind(key string, f *pflag.Flag) {
	if err := v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("binding flag %q: %v", f.Name, err))
	}
}

// app holds the wired dependencies of one command invocation.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	library *condition.Library
	roller  *dice.Roller
	closers []func()
}

func newApp() (*app, error) {
	cfg, err := config.LoadFromViper(v)
	if err != nil {
		return nil, err
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	start := time.Now()
	if cfg.Rules.ConditionsDir == "" {
		a.library, err = condition.DefaultLibrary()
	} else {
		a.library, err = condition.LoadDirectory(cfg.Rules.ConditionsDir)
	}
	if err != nil {
		a.close()
		return nil, fmt.Errorf("loading conditions: %w", err)
	}
	logger.Debug("condition library loaded",
		zap.Int("conditions", a.library.Len()),
		zap.String("dir", cfg.Rules.ConditionsDir),
		zap.Duration("elapsed", time.Since(start)),
	)

	src := dice.NewCryptoSource()
	if cfg.Rules.Seed != 0 {
		src = dice.NewSeededSource(cfg.Rules.Seed)
	}
	a.roller = dice.NewLoggedRoller(src, logger)
	return a, nil
}

// sink opens the configured event sink. The log sink is always included.
func (a *app) sink(ctx context.Context) (eventlog.Sink, error) {
	logSink := eventlog.NewLogSink(a.logger.Named("events"))
	switch a.cfg.Sink.Kind {
	case config.SinkPostgres:
		pool, err := postgres.NewPool(ctx, a.cfg.Database, a.logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		return eventlog.Fanout{logSink, postgres.NewEventRepository(pool.DB())}, nil
	case config.SinkRedis:
		client, err := redisstore.NewClient(ctx, redisstore.ClientOptions{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		stream, err := redisstore.NewEventStream(&redisstore.StreamConfig{
			Client:    client,
			KeyPrefix: a.cfg.Redis.KeyPrefix,
			TTL:       a.cfg.Redis.TTL,
		})
		if err != nil {
			return nil, err
		}
		return eventlog.Fanout{logSink, stream}, nil
	}
	return logSink, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
