package app

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"messaging-service/internal/config"
	"messaging-service/internal/db"
	"messaging-service/internal/logger"
	"messaging-service/internal/redis"
)

type Infra struct {
	DB    *db.DB
	Redis *redis.Client
}

// setupInfra connects to Postgres and Redis and runs the schema
// migration. Everything is constructed here, at startup, and injected
// downward; no component reaches for a connection lazily.
func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	sqlDB, err := sql.Open("postgres", cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := db.RunMigration(ctx, sqlDB); err != nil {
		return nil, err
	}

	logger.Info("database ready", nil)

	redisClient, err := redis.New(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, err
	}

	logger.Info("redis ready", nil)

	return &Infra{
		DB:    &db.DB{DB: sqlDB},
		Redis: redisClient,
	}, nil
}
