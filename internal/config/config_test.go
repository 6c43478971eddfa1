package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setSQLiteEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "finance.db")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoad_SQLiteDefaults(t *testing.T) {
	setSQLiteEnv(t)
	t.Setenv("BCRYPT_COST", "")
	t.Setenv("MAX_USERS", "")
	t.Setenv("PUBLIC_PATH_PREFIXES", "")
	t.Setenv("APP_ENV", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "finance.db", cfg.DBPath)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 5, cfg.MaxUsers)
	assert.Equal(t, "dev", cfg.Env)
	assert.False(t, cfg.Secure())
	assert.Equal(t, DefaultPublicPrefixes, cfg.PublicPrefixes)
}

func TestLoad_MissingSecretIsFatal(t *testing.T) {
	setSQLiteEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_MySQLReportsEveryMissingVar(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	require.Error(t, err)
	for _, key := range []string{"JWT_SECRET", "DB_USER", "DB_HOST", "DB_PORT", "DB_NAME"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	setSQLiteEnv(t)
	t.Setenv("BCRYPT_COST", "abc")
	t.Setenv("MAX_USERS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BCRYPT_COST")
	assert.Contains(t, err.Error(), "MAX_USERS")
}

func TestLoad_Overrides(t *testing.T) {
	setSQLiteEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("MAX_USERS", "2")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("PUBLIC_PATH_PREFIXES", " /api/auth/login , /healthz ,")
	t.Setenv("USER_CACHE_TTL", "5s")
	t.Setenv("AUTH_LEGACY_USERNAME", "owner")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Secure())
	assert.Equal(t, 2, cfg.MaxUsers)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"/api/auth/login", "/healthz"}, cfg.PublicPrefixes)
	assert.Equal(t, 5*time.Second, cfg.UserCacheTTL)
	assert.Equal(t, "owner", cfg.LegacyUsername)
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	rl := LoadRateLimitConfig()
	assert.Equal(t, 1, rl.Capacity)
	assert.Equal(t, 10*time.Second, rl.TTL)
	assert.Equal(t, "ip_route", rl.KeyStrategy)
}
