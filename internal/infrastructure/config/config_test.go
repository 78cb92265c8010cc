package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"PHARM_APP_NAME":                os.Getenv("PHARM_APP_NAME"),
		"PHARM_APP_ENV":                 os.Getenv("PHARM_APP_ENV"),
		"PHARM_APP_PORT":                os.Getenv("PHARM_APP_PORT"),
		"PHARM_DATABASE_HOST":           os.Getenv("PHARM_DATABASE_HOST"),
		"PHARM_DATABASE_PORT":           os.Getenv("PHARM_DATABASE_PORT"),
		"PHARM_DATABASE_USER":           os.Getenv("PHARM_DATABASE_USER"),
		"PHARM_DATABASE_PASSWORD":       os.Getenv("PHARM_DATABASE_PASSWORD"),
		"PHARM_DATABASE_DBNAME":         os.Getenv("PHARM_DATABASE_DBNAME"),
		"PHARM_DATABASE_SSLMODE":        os.Getenv("PHARM_DATABASE_SSLMODE"),
		"PHARM_DATABASE_MAX_OPEN_CONNS": os.Getenv("PHARM_DATABASE_MAX_OPEN_CONNS"),
		"PHARM_DATABASE_MAX_IDLE_CONNS": os.Getenv("PHARM_DATABASE_MAX_IDLE_CONNS"),
		"PHARM_BUS_CONSUMER_GROUP":      os.Getenv("PHARM_BUS_CONSUMER_GROUP"),
		"PHARM_BUS_BATCH_SIZE":          os.Getenv("PHARM_BUS_BATCH_SIZE"),
		"PHARM_SYNC_MAIN_STORE_URL":     os.Getenv("PHARM_SYNC_MAIN_STORE_URL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "pharmacy-sync-service", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "pharmacy", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, "pharmacy-sync", cfg.Bus.ConsumerGroup)
		assert.Equal(t, 10, cfg.Bus.BatchSize)
	})

	t.Run("loads values from environment variables with PHARM prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("PHARM_APP_NAME", "test-app")
		os.Setenv("PHARM_APP_PORT", "9000")
		os.Setenv("PHARM_DATABASE_HOST", "testdb.local")
		os.Setenv("PHARM_DATABASE_PORT", "5433")
		os.Setenv("PHARM_DATABASE_USER", "testuser")
		os.Setenv("PHARM_DATABASE_PASSWORD", "testpass")
		os.Setenv("PHARM_BUS_CONSUMER_GROUP", "pharmacy-sync-test")
		os.Setenv("PHARM_SYNC_MAIN_STORE_URL", "http://hospital.internal:9090")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "pharmacy-sync-test", cfg.Bus.ConsumerGroup)
		assert.Equal(t, "http://hospital.internal:9090", cfg.Sync.MainStoreURL)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("PHARM_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("PHARM_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv()
		os.Setenv("PHARM_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		// 0 is treated as "not set", so default (25) is used
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv()
		os.Setenv("PHARM_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"PHARM_APP_ENV":           os.Getenv("PHARM_APP_ENV"),
		"PHARM_DATABASE_PASSWORD": os.Getenv("PHARM_DATABASE_PASSWORD"),
		"PHARM_DATABASE_SSLMODE":  os.Getenv("PHARM_DATABASE_SSLMODE"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("PHARM_APP_ENV", "production")
		os.Setenv("PHARM_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("PHARM_APP_ENV", "production")
		os.Setenv("PHARM_DATABASE_PASSWORD", "secure-password")
		os.Setenv("PHARM_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		os.Setenv("PHARM_APP_ENV", "production")
		os.Setenv("PHARM_DATABASE_PASSWORD", "secure-password")
		os.Setenv("PHARM_DATABASE_SSLMODE", "require")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "redis.local", Port: 6380}
	assert.Equal(t, "redis.local:6380", cfg.Addr())
}
