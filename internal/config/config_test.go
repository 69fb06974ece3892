package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "STORE_DRIVER", "KAFKA_BROKERS", "CART_NOTIFY_ON_ADD",
		"LISTING_RECIPIENTS", "NOTIFY_POLL_INTERVAL", "NOTIFY_MAX_KEEP", "NOTIFY_MAX_AGE"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.True(t, cfg.CartNotifyOnAdd)
	assert.Equal(t, []string{"Retailer Joe"}, cfg.ListingRecipients)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 500, cfg.NotifyMaxKeep)
	assert.Equal(t, 720*time.Hour, cfg.NotifyMaxAge)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("CART_NOTIFY_ON_ADD", "false")
	t.Setenv("NOTIFY_POLL_INTERVAL", "250ms")
	t.Setenv("NOTIFY_MAX_KEEP", "10")

	cfg := Load()

	assert.Equal(t, "redis", cfg.StoreDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.False(t, cfg.CartNotifyOnAdd)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 10, cfg.NotifyMaxKeep)
}

func TestLoad_InvalidValuesKeepDefaults(t *testing.T) {
	t.Setenv("CART_NOTIFY_ON_ADD", "maybe")
	t.Setenv("NOTIFY_POLL_INTERVAL", "soon")
	t.Setenv("NOTIFY_MAX_KEEP", "lots")

	cfg := Load()

	assert.True(t, cfg.CartNotifyOnAdd)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 500, cfg.NotifyMaxKeep)
}

func TestLoad_ZeroPollIntervalKeepsDefault(t *testing.T) {
	t.Setenv("NOTIFY_POLL_INTERVAL", "0s")
	t.Setenv("NOTIFY_MAX_AGE", "0s")

	cfg := Load()

	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Zero(t, cfg.NotifyMaxAge)
}
