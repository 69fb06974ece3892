package kv

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps each key as one row of kv_store (see postgres.Migrate).
type PostgresStore struct{ DB *pgxpool.Pool }

func (p *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var b []byte
	err := p.DB.QueryRow(ctx, `SELECT value FROM kv_store WHERE key=$1`, key).Scan(&b)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("get", key, err)
	}
	return b, true, nil
}

func (p *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.DB.Exec(ctx, `
		INSERT INTO kv_store(key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, string(value))
	if err != nil {
		return unavailable("set", key, err)
	}
	return nil
}
