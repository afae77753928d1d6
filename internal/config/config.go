package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	SLA          SLAConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values. An empty DSN selects the
// in-memory store.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level          string
	File           string
	FileMaxSizeMB  int
	FileMaxBackups int
	FileMaxAgeDays int
	FileCompress   bool
}

// AuthConfig defines token verification parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// NotificationConfig holds ticket event fan-out settings.
type NotificationConfig struct {
	EmailFrom    string
	WebhookURL   string
	RedisChannel string
}

// SLAConfig controls the background reconciler and the transition policy.
type SLAConfig struct {
	ReconcileEnabled         bool
	ReconcileIntervalSeconds int
	ReconcileLockTTLSeconds  int
	TransitionPolicy         string
	ReportLimit              int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-sla"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:          getEnv("LOG_LEVEL", "info"),
			File:           os.Getenv("LOG_FILE"),
			FileMaxSizeMB:  getEnvAsInt("LOG_FILE_MAX_SIZE_MB", 100),
			FileMaxBackups: getEnvAsInt("LOG_FILE_MAX_BACKUPS", 5),
			FileMaxAgeDays: getEnvAsInt("LOG_FILE_MAX_AGE_DAYS", 28),
			FileCompress:   getEnvAsBool("LOG_FILE_COMPRESS", true),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Notification: NotificationConfig{
			EmailFrom:    getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL:   getEnv("NOTIFY_WEBHOOK_URL", ""),
			RedisChannel: getEnv("NOTIFY_REDIS_CHANNEL", "helpdesk:ticket-events"),
		},
		SLA: SLAConfig{
			ReconcileEnabled:         getEnvAsBool("SLA_RECONCILE_ENABLED", true),
			ReconcileIntervalSeconds: getEnvAsInt("SLA_RECONCILE_INTERVAL_SECONDS", 60),
			ReconcileLockTTLSeconds:  getEnvAsInt("SLA_RECONCILE_LOCK_TTL_SECONDS", 55),
			TransitionPolicy:         strings.ToLower(getEnv("TICKET_TRANSITION_POLICY", "permissive")),
			ReportLimit:              getEnvAsInt("SLA_REPORT_LIMIT", 50),
		},
	}

	if cfg.SLA.ReconcileIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid SLA_RECONCILE_INTERVAL_SECONDS: %d", cfg.SLA.ReconcileIntervalSeconds)
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of minted tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// ReconcileInterval returns the sweep period.
func (s SLAConfig) ReconcileInterval() time.Duration {
	return time.Duration(s.ReconcileIntervalSeconds) * time.Second
}

// ReconcileLockTTL returns how long one replica holds the sweep lock.
func (s SLAConfig) ReconcileLockTTL() time.Duration {
	if s.ReconcileLockTTLSeconds <= 0 {
		return s.ReconcileInterval()
	}
	return time.Duration(s.ReconcileLockTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
