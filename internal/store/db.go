// Package store persists products in PostgreSQL through gorm on top of a
// pgx connection pool.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/JonMunkholm/inventory/internal/config"
)

// DB bundles the gorm handle with the pool underneath it.
type DB struct {
	Gorm *gorm.DB
	pool *pgxpool.Pool
}

// Open connects to cfg.URL, applies the pool limits and verifies the
// connection with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn: stdlib.OpenDBFromPool(pool),
	}), GormConfig(cfg.SlowQueryThreshold))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	slog.Info("connected to database", "name", databaseName(cfg.URL))
	return &DB{Gorm: gdb, pool: pool}, nil
}

// GormConfig returns the gorm settings used by the service. Driver errors
// are translated so unique violations surface as gorm.ErrDuplicatedKey,
// and gorm's own logging is routed through slog.
func GormConfig(slowThreshold time.Duration) *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger: logger.New(
			slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
			logger.Config{
				SlowThreshold:             slowThreshold,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}
}

// Migrate creates or updates the products table.
func (db *DB) Migrate(ctx context.Context) error {
	if err := db.Gorm.WithContext(ctx).AutoMigrate(&productRow{}); err != nil {
		return fmt.Errorf("migrate products: %w", err)
	}
	return nil
}

// Close releases the database handle and the pool.
func (db *DB) Close() {
	if sqlDB, err := db.Gorm.DB(); err == nil {
		_ = sqlDB.Close()
	}
	db.pool.Close()
}

func databaseName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}
