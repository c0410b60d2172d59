package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/foxseedlab/kissandost/internal/config"
	"github.com/foxseedlab/kissandost/internal/kvstore"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
)

const storeInitTimeout = 15 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (kvstore.Store, error) {
		cfg := do.MustInvoke[*config.Config](i)
		ctx, cancel := context.WithTimeout(context.Background(), storeInitTimeout)
		defer cancel()

		switch cfg.StoreBackend {
		case config.StoreBackendPostgres:
			return openPostgres(ctx, cfg.DatabaseURL)
		case config.StoreBackendRedis:
			return openRedis(ctx, cfg)
		default:
			return kvstore.NewMemory(), nil
		}
	})
}

func openPostgres(ctx context.Context, url string) (kvstore.Store, error) {
	p, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := RunMigration(ctx, p); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to run migration: %w", err)
	}
	return NewPostgresStore(p), nil
}

func openRedis(ctx context.Context, cfg *config.Config) (kvstore.Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedisStore(client), nil
}
