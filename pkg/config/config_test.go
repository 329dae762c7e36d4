package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, StorageFile, cfg.Storage.Driver)
	assert.Equal(t, GroupByGrade, cfg.Reports.GroupBy)
	assert.True(t, cfg.Auth.SingleSession)
	require.Len(t, cfg.Auth.Users, 3)
	assert.Equal(t, "admin", cfg.Auth.Users[0].Username)
	assert.Equal(t, "admin", cfg.Auth.Users[0].Role)
	assert.Equal(t, "Ibu Siti", cfg.Auth.Users[1].Name)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("REPORT_GROUP_BY", "class")
	t.Setenv("REPORT_CACHE_TTL", "90s")
	t.Setenv("AUTH_USERS", "bendahara:rahasia:admin:Bu Bendahara")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:8081, https://tabungan.sch.id")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, GroupByClass, cfg.Reports.GroupBy)
	assert.Equal(t, 90*time.Second, cfg.Reports.CacheTTL)
	require.Len(t, cfg.Auth.Users, 1)
	assert.Equal(t, "Bu Bendahara", cfg.Auth.Users[0].Name)
	assert.Equal(t, []string{"http://localhost:8081", "https://tabungan.sch.id"}, cfg.CORS.AllowedOrigins)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "firestore")
	_, err := Load()
	require.Error(t, err)
}

func TestParseUserSeedsInvalid(t *testing.T) {
	_, err := parseUserSeeds("admin:secret")
	require.Error(t, err)
}
