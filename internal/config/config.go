// Package config loads server settings from the environment.
//
// DOTENV LAYERING:
// Before reading variables, Load merges dotenv files from dir in this order:
//
//	.env.<APP_ENV>.local   machine-specific secrets, never committed
//	.env.local
//	.env.<APP_ENV>         per-environment settings
//	.env                   shared defaults
//
// godotenv.Load never overrides a variable that is already set, so the
// first file to define a key wins and the real environment beats them all.
// Missing files are ignored.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devSessionSecret = "dev-session-secret-change-me"

type SessionStore string

const (
	StoreSQLite SessionStore = "sqlite"
	StoreRedis  SessionStore = "redis"
)

type Config struct {
	Env    string
	Port   int
	DBPath string

	SessionSecret string
	SessionTTL    time.Duration
	SessionStore  SessionStore
	Redis         Redis

	FrontendOrigin      string
	LoginRatePerMinute  int
	TrustProxy          bool // take the client IP from X-Forwarded-For; set only behind a proxy
	MaintenanceInterval time.Duration
	LogLevel            slog.Level
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads dotenv files from the working directory and then the
// environment.
func Load() (Config, error) {
	return LoadFrom(".")
}

// LoadFrom is Load with the dotenv files looked up in dir.
func LoadFrom(dir string) (Config, error) {
	env := envString("APP_ENV", "development")
	for _, name := range []string{".env." + env + ".local", ".env.local", ".env." + env, ".env"} {
		// A missing file is fine; a malformed one is not.
		if err := godotenv.Load(filepath.Join(dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: loading %s: %w", name, err)
		}
	}
	// APP_ENV may itself come from .env.
	env = envString("APP_ENV", env)

	p := &parser{}
	cfg := Config{
		Env:                 env,
		Port:                p.int("PORT", 8080),
		DBPath:              envString("DB_PATH", "data/social.db"),
		SessionSecret:       envString("SESSION_SECRET", ""),
		SessionTTL:          p.duration("SESSION_TTL", 24*time.Hour),
		SessionStore:        SessionStore(strings.ToLower(envString("SESSION_STORE", string(StoreSQLite)))),
		FrontendOrigin:      envString("FRONTEND_ORIGIN", "http://localhost:5173"),
		LoginRatePerMinute:  p.int("LOGIN_RATE_PER_MINUTE", 10),
		TrustProxy:          p.bool("TRUST_PROXY", false),
		MaintenanceInterval: p.duration("MAINTENANCE_INTERVAL", time.Hour),
		LogLevel:            p.level("LOG_LEVEL", slog.LevelInfo),
		Redis: Redis{
			Addr:     envString("REDIS_ADDR", "localhost:6379"),
			Password: envString("REDIS_PASSWORD", ""),
			DB:       p.int("REDIS_DB", 0),
		},
	}

	if cfg.SessionSecret == "" && !cfg.IsProduction() {
		cfg.SessionSecret = devSessionSecret
	}
	if len(cfg.SessionSecret) < 16 {
		p.fail("SESSION_SECRET must be set and at least 16 characters")
	}
	if cfg.SessionStore != StoreSQLite && cfg.SessionStore != StoreRedis {
		p.fail(fmt.Sprintf("SESSION_STORE must be %q or %q, got %q", StoreSQLite, StoreRedis, cfg.SessionStore))
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		p.fail(fmt.Sprintf("PORT out of range: %d", cfg.Port))
	}
	if cfg.SessionTTL <= 0 {
		p.fail("SESSION_TTL must be positive")
	}
	if cfg.MaintenanceInterval <= 0 {
		p.fail("MAINTENANCE_INTERVAL must be positive")
	}

	if err := errors.Join(p.errs...); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parser collects every bad value so one startup reports them all.
type parser struct {
	errs []error
}

func (p *parser) fail(msg string) {
	p.errs = append(p.errs, errors.New(msg))
}

func (p *parser) int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(fmt.Sprintf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (p *parser) bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(fmt.Sprintf("%s: invalid boolean %q", key, v))
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(fmt.Sprintf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

func (p *parser) level(key string, def slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		p.fail(fmt.Sprintf("%s: invalid level %q", key, v))
		return def
	}
	return l
}
