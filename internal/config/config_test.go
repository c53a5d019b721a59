package config

import (
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SQLiteDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", ":memory:")
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ":memory:", cfg.Database.SQLitePath)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "1h", cfg.JWT.AccessExpiration)
	assert.True(t, cfg.Regularization.StandardWorkHours.Equal(decimal.NewFromInt(8)))
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x?sslmode=disable")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("STANDARD_WORK_HOURS", "7.5")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/x?sslmode=disable", cfg.DatabaseURL())
	assert.True(t, cfg.Regularization.StandardWorkHours.Equal(decimal.RequireFromString("7.5")))
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql", "JWT_SECRET_KEY": "s"}},
		{"missing secret", map[string]string{"DB_DRIVER": "sqlite"}},
		{"postgres without credentials", map[string]string{"DB_DRIVER": "postgres", "JWT_SECRET_KEY": "s"}},
		{"zero standard hours", map[string]string{"DB_DRIVER": "sqlite", "JWT_SECRET_KEY": "s", "STANDARD_WORK_HOURS": "0"}},
		{"bad standard hours", map[string]string{"DB_DRIVER": "sqlite", "JWT_SECRET_KEY": "s", "STANDARD_WORK_HOURS": "eight"}},
		{"bad port", map[string]string{"DB_DRIVER": "sqlite", "JWT_SECRET_KEY": "s", "APP_PORT": "http"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"JWT_SECRET_KEY", "DB_PASSWORD", "DATABASE_URL", "STANDARD_WORK_HOURS", "APP_PORT"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
