package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS kv_store (
	` + "`key`" + ` VARCHAR(255) NOT NULL PRIMARY KEY,
	value JSON NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`

type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (m *MySQLStore) Migrate(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, mysqlSchema); err != nil {
		return fmt.Errorf("create kv_store: %w", err)
	}
	return nil
}

func (m *MySQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var b []byte
	err := m.db.QueryRowContext(ctx, "SELECT value FROM kv_store WHERE `key` = ?", key).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("get", key, err)
	}
	return b, true, nil
}

// Set sends the document as a string: MySQL rejects JSON built from a binary-charset value.
func (m *MySQLStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := m.db.ExecContext(ctx, "INSERT INTO kv_store (`key`, value) VALUES (?, ?) "+
		"ON DUPLICATE KEY UPDATE value = VALUES(value)", key, string(value))
	if err != nil {
		return unavailable("set", key, err)
	}
	return nil
}
