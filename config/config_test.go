package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/brackets?sslmode=disable")
	t.Setenv("JWT_SECRET_KEY", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, SnapshotBackendFS, cfg.SnapshotBackend)
	assert.Equal(t, time.Minute, cfg.SchedulerInterval)
	assert.False(t, cfg.IsProduction())

	bracket := cfg.Bracket()
	assert.Equal(t, 16, bracket.Capacity)
	assert.Equal(t, []string{"1/8", "1/4", "1/2", "1"}, bracket.StageLabels)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("APP_ENV", "production")
	t.Setenv("BRACKET_CAPACITY", "32")
	t.Setenv("BRACKET_STAGE_LABELS", "1/16,1/8,1/4,1/2,1")
	t.Setenv("SNAPSHOT_BACKEND", "r2")
	t.Setenv("R2_ACCOUNT_ID", "acc")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "brackets")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 32, cfg.Bracket().Capacity)
	assert.Equal(t, "brackets", cfg.R2.BucketName)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing database url", map[string]string{"DATABASE_URL": ""}, "DATABASE_URL"},
		{"missing jwt secret", map[string]string{"JWT_SECRET_KEY": ""}, "JWT_SECRET_KEY"},
		{"port out of range", map[string]string{"SERVER_PORT": "70000"}, "SERVER_PORT"},
		{"unknown backend", map[string]string{"SNAPSHOT_BACKEND": "ftp"}, "SNAPSHOT_BACKEND"},
		{"r2 without credentials", map[string]string{"SNAPSHOT_BACKEND": "r2", "R2_ACCOUNT_ID": "acc"}, "R2_ACCESS_KEY_ID"},
		{"capacity not a power of two", map[string]string{"BRACKET_CAPACITY": "12"}, "bracket"},
		{"too few labels", map[string]string{"BRACKET_CAPACITY": "32"}, "stage labels"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
