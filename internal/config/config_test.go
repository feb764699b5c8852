package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_HOST", "localhost")
	t.Setenv("DATABASE_DBNAME", "judge")
	t.Setenv("DATABASE_USER", "judge")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_DefaultsFromEnv(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "single", cfg.Redis.Mode)
	assert.Equal(t, 60*time.Second, cfg.Ranking.CacheTTL)
	assert.Equal(t, 30, cfg.RateLimit.ViolationReports)
	assert.Equal(t, 120, cfg.RateLimit.PublicReads)
	assert.Equal(t, 15*time.Second, cfg.Ranking.DuplicateWindow)
	assert.Equal(t, 4, cfg.Ranking.RecalcWorkers)
	assert.Equal(t, "host=localhost port=5432 user=judge password= dbname=judge sslmode=disable", cfg.Database.PostgresConnectionString())
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RANKING_CACHE_TTL", "2m")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("server:\n  port: \"9090\"\nranking:\n  cache_ttl: 30s\n  recalc_workers: 8\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Ranking.CacheTTL, "Переменная окружения важнее файла")
	assert.Equal(t, 8, cfg.Ranking.RecalcWorkers)
}

func TestLoad_MissingFileIsNotFatal(t *testing.T) {
	setRequiredEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.NoError(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		unset string
		set   map[string]string
	}{
		{name: "нет хоста БД", unset: "DATABASE_HOST"},
		{name: "нет секрета JWT", unset: "JWT_SECRET"},
		{name: "неизвестный режим redis", set: map[string]string{"REDIS_MODE": "ring"}},
		{name: "нулевое число воркеров", set: map[string]string{"RANKING_RECALC_WORKERS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			if tt.unset != "" {
				t.Setenv(tt.unset, "")
			}
			for k, v := range tt.set {
				t.Setenv(k, v)
			}

			_, err := Load("")

			assert.Error(t, err)
		})
	}
}
