package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var envKeys = []string{
	"PORT", "APP_ENV", "LOG_LEVEL", "DATABASE_URL", "REDIS_URL", "JWT_SECRET", "JWT_EXPIRE_MINUTES",
	"ADMIN_USERNAME", "ADMIN_PASSWORD_HASH", "ALLOW_ORIGINS", "CHECK_RANK_LIMIT", "CHECK_RANK_WINDOW",
	"CACHE_SWEEP_INTERVAL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func passwordHash(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/football?sslmode=disable")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD_HASH", passwordHash(t))
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	cfg, errs := Load("")
	require.Empty(t, errs)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultEnv, cfg.Env)
	assert.Equal(t, DefaultCheckRankLimit, cfg.CheckRankLimit)
	assert.Equal(t, time.Second, cfg.CheckRankWindow)
	assert.Equal(t, time.Hour, cfg.JWTExpiry())
	assert.InDelta(t, 0.15, cfg.Weights.SharedTeamSeason, 1e-9)
	assert.Zero(t, cfg.Weights.SharedLeague)
	assert.False(t, cfg.IsProduction())
}

func TestLoadMissingRequired(t *testing.T) {
	clearEnv(t)

	_, errs := Load("")
	for _, want := range []error{ErrMissingDatabaseURL, ErrMissingJWTSecret, ErrMissingAdminUsername, ErrInvalidPasswordHash} {
		found := false
		for _, err := range errs {
			if errors.Is(err, want) {
				found = true
			}
		}
		assert.True(t, found, "expected %v", want)
	}
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("PORT", "9090")

	path := writeFile(t, `
port: 7000
env: production
check_rank_limit: 10
check_rank_window: 2s
ranking:
  weights:
    shared_league: 0.15
    shared_league_with_team: 0.025
    shared_position: 0.2
`)

	cfg, errs := Load(path)
	require.Empty(t, errs)
	assert.Equal(t, 9090, cfg.Port, "env wins over file")
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 10, cfg.CheckRankLimit)
	assert.Equal(t, 2*time.Second, cfg.CheckRankWindow)
	assert.InDelta(t, 0.15, cfg.Weights.SharedLeague, 1e-9)
	assert.InDelta(t, 0.025, cfg.Weights.SharedLeagueWithTeam, 1e-9)
	assert.InDelta(t, 0.2, cfg.Weights.SharedPosition, 1e-9)
	assert.InDelta(t, 0.07, cfg.Weights.SameNationality, 1e-9, "unset weights keep defaults")
}

func TestLoadInvalidValues(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("PORT", "not-a-port")
	t.Setenv("CHECK_RANK_WINDOW", "soon")

	_, errs := Load("")
	assert.Len(t, errs, 2)
}

func TestLoadNegativeWeight(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	path := writeFile(t, "ranking:\n  weights:\n    both_captains: -1\n")

	_, errs := Load(path)
	require.Len(t, errs, 1)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, errs := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Len(t, errs, 1)
}

func TestLoadWeights(t *testing.T) {
	w, err := LoadWeights("")
	require.NoError(t, err)
	assert.InDelta(t, 0.10, w.SharedPosition, 1e-9)

	path := writeFile(t, "ranking:\n  weights:\n    birth_year_window: 4\n")
	w, err = LoadWeights(path)
	require.NoError(t, err)
	assert.Equal(t, 4, w.BirthYearWindow)
}
