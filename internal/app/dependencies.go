package app

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-mealbox/internal/store"
)

// ReadinessChecker probes the core dependencies for the health endpoints.
type ReadinessChecker struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
}

// PingDB implements health.Checker.
func (c ReadinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.DB == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.DB.Ping(ctx)
}

// PingRedis implements health.Checker.
func (c ReadinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.Redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Redis.Ping(ctx).Err()
}

// RunMigrations applies pending schema migrations at startup.
func RunMigrations(databaseURL string) error {
	return store.Migrate(databaseURL)
}
