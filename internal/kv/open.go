package kv

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/ariefcatur/go-threshing-market/internal/config"
	"github.com/ariefcatur/go-threshing-market/internal/postgres"
	"github.com/ariefcatur/go-threshing-market/internal/redisx"
)

// Open builds the store named by cfg.StoreDriver. The returned func releases its connections.
func Open(ctx context.Context, cfg config.Config) (Store, func(), error) {
	switch cfg.StoreDriver {
	case "", "memory":
		return NewMemoryStore(), func() {}, nil

	case "redis":
		rdb, err := redisx.New(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("redis connect: %w", err)
		}
		return NewRedisStore(rdb), func() { _ = rdb.Close() }, nil

	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return &PostgresStore{DB: pool}, pool.Close, nil

	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("mysql open: %w", err)
		}
		db.SetMaxOpenConns(8)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("mysql ping: %w", err)
		}
		s := NewMySQLStore(db)
		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return s, func() { _ = db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
