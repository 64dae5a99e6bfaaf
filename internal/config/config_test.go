package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TransactionDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Transaction.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Transaction.RetryBackoff)
	assert.Equal(t, "read_committed", cfg.Transaction.Isolation)
	assert.Equal(t, cfg.Database.WriterDSN, cfg.Database.ReaderDSN)
}

func TestNew_TransactionOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("TX_MAX_ATTEMPTS", "5")
	t.Setenv("TX_RETRY_BACKOFF", "250ms")
	t.Setenv("TX_ISOLATION", " Serializable ")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Transaction.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Transaction.RetryBackoff)
	assert.Equal(t, "serializable", cfg.Transaction.Isolation)
}

func TestNew_RejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":    {"AUTH_JWT_SECRET": ""},
		"bad isolation":     {"AUTH_JWT_SECRET": "s", "TX_ISOLATION": "read_uncommitted"},
		"sqlite driver":     {"AUTH_JWT_SECRET": "s", "DB_DRIVER": "sqlite"},
		"bad cache driver":  {"AUTH_JWT_SECRET": "s", "CACHE_DRIVER": "memcached"},
		"bad messaging bus": {"AUTH_JWT_SECRET": "s", "MESSAGING_DRIVER": "nats"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := New()
			require.Error(t, err)
		})
	}
}

func TestNew_NonPositiveAttemptsFallsBackToSingleAttempt(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("TX_MAX_ATTEMPTS", "0")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Transaction.MaxAttempts)
}

func TestGetEnvAsStringSlice(t *testing.T) {
	t.Setenv("LIST", " a, ,b ,")
	assert.Equal(t, []string{"a", "b"}, getEnvAsStringSlice("LIST", nil))

	t.Setenv("LIST", " , ")
	assert.Equal(t, []string{"x"}, getEnvAsStringSlice("LIST", []string{"x"}))
}

func TestEnvParsers(t *testing.T) {
	t.Setenv("FLAG_ON", " on ")
	t.Setenv("FLAG_BAD", "maybe")
	assert.True(t, getEnvAsBool("FLAG_ON", false))
	assert.True(t, getEnvAsBool("FLAG_BAD", true))
	assert.False(t, getEnvAsBool("FLAG_UNSET", false))

	t.Setenv("WAIT_SECONDS", "30")
	t.Setenv("WAIT_GO", "1m30s")
	t.Setenv("WAIT_BAD", "soon")
	assert.Equal(t, 30*time.Second, getEnvAsDuration("WAIT_SECONDS", time.Second))
	assert.Equal(t, 90*time.Second, getEnvAsDuration("WAIT_GO", time.Second))
	assert.Equal(t, time.Second, getEnvAsDuration("WAIT_BAD", time.Second))

	t.Setenv("PORT_BLANK", "  ")
	assert.Equal(t, 8080, getEnvAsInt("PORT_BLANK", 8080))
}
