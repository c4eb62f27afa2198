package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone database for minimal containers

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// Runtime-editable settings (messaging, e-commerce credentials) live in the
// settings table instead.
type Config struct {
	Port      string
	Env       string
	JWTSecret string
	JWTTTL    time.Duration
	Timezone  string

	DB       DatabaseConfig
	Redis    RedisConfig
	Upstream UpstreamConfig
	Worker   WorkerConfig

	MigrationsPath string
	CORSHosts      []string
	AdminPassword  string
	TicketTitle    string

	location *time.Location
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the lib/pq connection URL.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port, d.Name, d.SSLMode)
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// UpstreamConfig contains settings shared by the outbound HTTP clients.
type UpstreamConfig struct {
	YampiBaseURL string
	Timeout      time.Duration
}

// WorkerConfig contains timing configuration for the order sync.
type WorkerConfig struct {
	SyncTick    time.Duration
	SyncLockTTL time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.Timezone = getEnv("TIMEZONE", "America/Sao_Paulo")
	cfg.MigrationsPath = getEnv("MIGRATIONS_PATH", "file://migrations")
	cfg.CORSHosts = splitList(getEnv("CORS_HOSTS", "localhost:3000,127.0.0.1:3000"))
	cfg.AdminPassword = getEnv("ADMIN_PASSWORD", "")
	cfg.TicketTitle = getEnv("TICKET_TITLE", "Seu ingresso")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	cfg.Upstream.YampiBaseURL = getEnv("YAMPI_BASE_URL", "https://api.dooki.com.br/v2")

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", "8h"); err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	if cfg.Upstream.Timeout, err = parseDurationEnv("HTTP_CLIENT_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid HTTP_CLIENT_TIMEOUT: %w", err)
	}
	if cfg.Worker.SyncTick, err = parseDurationEnv("SYNC_WORKER_TICK", "1m"); err != nil {
		return nil, fmt.Errorf("invalid SYNC_WORKER_TICK: %w", err)
	}
	if cfg.Worker.SyncLockTTL, err = parseDurationEnv("SYNC_LOCK_TTL", "10m"); err != nil {
		return nil, fmt.Errorf("invalid SYNC_LOCK_TTL: %w", err)
	}

	if cfg.location, err = time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	return cfg, nil
}

// Location returns the time zone used for day boundaries. Falls back to UTC
// for configs not produced by Load.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
