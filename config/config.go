// Package config loads server settings from an optional YAML file and the
// environment. Environment variables win over file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"football-backend/rankings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port     int    `koanf:"port"`
	Env      string `koanf:"env"`
	LogLevel string `koanf:"log_level"`

	DatabaseURL string `koanf:"database_url"`
	// RedisURL is optional. When set, rate limit counters are shared through redis.
	RedisURL string `koanf:"redis_url"`

	JWTSecret         string `koanf:"jwt_secret"`
	JWTExpireMinutes  int    `koanf:"jwt_expire_minutes"`
	AdminUsername     string `koanf:"admin_username"`
	AdminPasswordHash string `koanf:"admin_password_hash"`

	AllowOrigins       string        `koanf:"allow_origins"`
	CheckRankLimit     int           `koanf:"check_rank_limit"`
	CheckRankWindow    time.Duration `koanf:"check_rank_window"`
	CacheSweepInterval time.Duration `koanf:"cache_sweep_interval"`

	Weights rankings.Weights
}

var (
	ErrMissingDatabaseURL   = errors.New("DATABASE_URL is required")
	ErrMissingJWTSecret     = errors.New("JWT_SECRET is required")
	ErrMissingAdminUsername = errors.New("ADMIN_USERNAME is required")
	ErrInvalidPasswordHash  = errors.New("ADMIN_PASSWORD_HASH must be a bcrypt hash")
	ErrInvalidPort          = errors.New("PORT must be between 1 and 65535")
	ErrInvalidRateLimit     = errors.New("CHECK_RANK_LIMIT and CHECK_RANK_WINDOW must be positive")
	ErrInvalidSweepInterval = errors.New("CACHE_SWEEP_INTERVAL must be positive")
	ErrInvalidJWTExpiry     = errors.New("JWT_EXPIRE_MINUTES must be positive")
)

const (
	DefaultPort               = 8080
	DefaultEnv                = "development"
	DefaultLogLevel           = "info"
	DefaultJWTExpireMinutes   = 60
	DefaultAllowOrigins       = "*"
	DefaultCheckRankLimit     = 5
	DefaultCheckRankWindow    = time.Second
	DefaultCacheSweepInterval = 10 * time.Minute
)

// Load reads configPath (if not empty) and then the environment. It returns
// the config together with every problem found, so callers can report them
// all at once.
func Load(configPath string) (*Config, []error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("load config file %s: %w", configPath, err)}
		}
	}

	var errs []error
	intVal := func(env, key string, def int) int {
		v, err := envInt(env, k, key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	durationVal := func(env, key string, def time.Duration) time.Duration {
		v, err := envDuration(env, k, key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	weights, err := weightsFrom(k)
	if err != nil {
		errs = append(errs, err)
	}

	cfg := &Config{
		Port:               intVal("PORT", "port", DefaultPort),
		Env:                envString("APP_ENV", k, "env", DefaultEnv),
		LogLevel:           envString("LOG_LEVEL", k, "log_level", DefaultLogLevel),
		DatabaseURL:        envString("DATABASE_URL", k, "database_url", ""),
		RedisURL:           envString("REDIS_URL", k, "redis_url", ""),
		JWTSecret:          envString("JWT_SECRET", k, "jwt_secret", ""),
		JWTExpireMinutes:   intVal("JWT_EXPIRE_MINUTES", "jwt_expire_minutes", DefaultJWTExpireMinutes),
		AdminUsername:      envString("ADMIN_USERNAME", k, "admin_username", ""),
		AdminPasswordHash:  envString("ADMIN_PASSWORD_HASH", k, "admin_password_hash", ""),
		AllowOrigins:       envString("ALLOW_ORIGINS", k, "allow_origins", DefaultAllowOrigins),
		CheckRankLimit:     intVal("CHECK_RANK_LIMIT", "check_rank_limit", DefaultCheckRankLimit),
		CheckRankWindow:    durationVal("CHECK_RANK_WINDOW", "check_rank_window", DefaultCheckRankWindow),
		CacheSweepInterval: durationVal("CACHE_SWEEP_INTERVAL", "cache_sweep_interval", DefaultCacheSweepInterval),
		Weights:            weights,
	}

	return cfg, append(errs, cfg.Validate()...)
}

// LoadWeights reads only the ranking.weights section of configPath. An empty
// path returns the defaults.
func LoadWeights(configPath string) (rankings.Weights, error) {
	k := koanf.New(".")
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return rankings.Weights{}, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}
	w, err := weightsFrom(k)
	if err != nil {
		return rankings.Weights{}, err
	}
	return w, w.Validate()
}

func weightsFrom(k *koanf.Koanf) (rankings.Weights, error) {
	w := rankings.DefaultWeights()
	if !k.Exists("ranking.weights") {
		return w, nil
	}
	if err := k.Unmarshal("ranking.weights", &w); err != nil {
		return rankings.DefaultWeights(), fmt.Errorf("decode ranking.weights: %w", err)
	}
	return w, nil
}

func (c *Config) Validate() []error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	if c.AdminUsername == "" {
		errs = append(errs, ErrMissingAdminUsername)
	}
	if _, err := bcrypt.Cost([]byte(c.AdminPasswordHash)); err != nil {
		errs = append(errs, ErrInvalidPasswordHash)
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ErrInvalidPort)
	}
	if c.JWTExpireMinutes <= 0 {
		errs = append(errs, ErrInvalidJWTExpiry)
	}
	if c.CheckRankLimit <= 0 || c.CheckRankWindow <= 0 {
		errs = append(errs, ErrInvalidRateLimit)
	}
	if c.CacheSweepInterval <= 0 {
		errs = append(errs, ErrInvalidSweepInterval)
	}
	if err := c.Weights.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpireMinutes) * time.Minute
}

func envString(env string, k *koanf.Koanf, key, def string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	if v := k.String(key); v != "" {
		return v
	}
	return def
}

func envInt(env string, k *koanf.Koanf, key string, def int) (int, error) {
	if v := os.Getenv(env); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return def, fmt.Errorf("%s must be an integer, got %q", env, v)
		}
		return n, nil
	}
	if k.Exists(key) {
		return k.Int(key), nil
	}
	return def, nil
}

func envDuration(env string, k *koanf.Koanf, key string, def time.Duration) (time.Duration, error) {
	if v := os.Getenv(env); v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return def, fmt.Errorf("%s must be a duration like 1s or 5m, got %q", env, v)
		}
		return d, nil
	}
	if k.Exists(key) {
		return k.Duration(key), nil
	}
	return def, nil
}
