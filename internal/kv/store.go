// Package kv is the persistent key-value store the marketplace keeps its shared
// state in. Values are JSON documents stored whole under string keys; there are no
// transactions and no atomicity across keys.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnavailable wraps every backend failure. Callers treat it as "store down" and
// decide for themselves whether to retry or degrade.
var ErrUnavailable = errors.New("store unavailable")

type Store interface {
	// Get returns the raw value for key. A missing key is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
}

func unavailable(op, key string, err error) error {
	return fmt.Errorf("%w: %s %q: %v", ErrUnavailable, op, key, err)
}

// GetJSON decodes the value under key into out. It reports false when the key is absent.
// A value that does not decode is reported as ErrUnavailable: the store holds nothing usable.
func GetJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	b, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, unavailable("decode", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.Set(ctx, key, b)
}
