package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/redmonkez12/trailpass/internal/config"
	"github.com/redmonkez12/trailpass/internal/database"
	"github.com/redmonkez12/trailpass/internal/logging"
	"github.com/redmonkez12/trailpass/internal/ratelimit"
	"github.com/redmonkez12/trailpass/internal/storage"
	"github.com/redmonkez12/trailpass/internal/storage/redisstore"
	"github.com/redmonkez12/trailpass/internal/storage/sqlstore"
)

// infra holds the backing store and limiter selected by configuration.
type infra struct {
	store   storage.Store
	limiter ratelimit.Limiter
	// redis is set when something other than the store holds the client
	redis *redis.Client
}

func (i *infra) Close(logger *logging.Logger) {
	if err := i.store.Close(); err != nil {
		logger.Error("failed to close store", "error", err.Error())
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			logger.Error("failed to close redis client", "error", err.Error())
		}
	}
}

func openInfra(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*infra, error) {
	var client *redis.Client
	if cfg.UsesRedis() {
		var err error
		client, err = initRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
	}

	store, err := openStore(ctx, cfg, client, logger)
	if err != nil {
		if client != nil {
			_ = client.Close()
		}
		return nil, err
	}

	out := &infra{store: store}
	if client != nil && cfg.Store.Driver != "redis" {
		out.redis = client
	}

	if cfg.RateLimit.Enabled {
		switch cfg.RateLimit.Backend {
		case "redis":
			out.limiter = ratelimit.NewRedisLimiter(client, cfg.Redis.KeyPrefix, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		default:
			out.limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		}
	}

	return out, nil
}

// openStore returns the store for cfg.Store.Driver. SQL stores are migrated
// before use.
func openStore(ctx context.Context, cfg *config.Config, client *redis.Client, logger *logging.Logger) (storage.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		logger.Warn("using in-memory store, data is lost on restart")
		return storage.NewMemoryStore(), nil
	case "redis":
		return redisstore.New(client, cfg.Redis.KeyPrefix), nil
	}

	driver, dsn, ok := sqlTarget(cfg)
	if !ok {
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}

	db, err := database.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	applied, err := database.Migrate(ctx, db, driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("database ready", "driver", string(driver), "migrations_applied", applied)

	return sqlstore.New(db), nil
}

func sqlTarget(cfg *config.Config) (database.Driver, string, bool) {
	switch cfg.Store.Driver {
	case "postgres":
		return database.DriverPostgres, cfg.Database.ConnectionString(), true
	case "sqlite":
		return database.DriverSQLite, cfg.Store.SQLitePath, true
	default:
		return "", "", false
	}
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password.Reveal(),
		DB:       cfg.DB,
	})

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
