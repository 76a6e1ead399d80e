package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"countdown/backend/internal/timekeeper"
)

// TickIntervals are the periods of the engine tick loops.
type TickIntervals struct {
	Timers    time.Duration `yaml:"timers"`
	Pomodoro  time.Duration `yaml:"pomodoro"`
	Embed     time.Duration `yaml:"embed"`
	Events    time.Duration `yaml:"events"`
	Stopwatch time.Duration `yaml:"stopwatch"`
}

type Config struct {
	Port              string                    `yaml:"port"`
	DBDriver          string                    `yaml:"db_driver"`
	DBPath            string                    `yaml:"db_path"`
	MigrationsDir     string                    `yaml:"migrations_dir"`
	JWTSecret         string                    `yaml:"-"`
	OwnerPassphrase   string                    `yaml:"-"`
	TokenTTL          time.Duration             `yaml:"token_ttl"`
	CORSOrigins       []string                  `yaml:"cors_origins"`
	TrustedProxies    []string                  `yaml:"trusted_proxies"`
	ShareBaseURL      string                    `yaml:"share_base_url"`
	NATSURL           string                    `yaml:"nats_url"`
	NATSSubjectPrefix string                    `yaml:"nats_subject_prefix"`
	LogLevel          string                    `yaml:"log_level"`
	SnapshotInterval  time.Duration             `yaml:"snapshot_interval"`
	EmbedIdleTTL      time.Duration             `yaml:"embed_idle_ttl"`
	RateLimitRPS      float64                   `yaml:"rate_limit_rps"`
	RateLimitBurst    int                       `yaml:"rate_limit_burst"`
	TickIntervals     TickIntervals             `yaml:"tick_intervals"`
	Pomodoro          timekeeper.PomodoroConfig `yaml:"pomodoro"`
}

func Default() Config {
	return Config{
		Port:              "8080",
		DBDriver:          "sqlite3",
		DBPath:            "./data/countdown.db",
		MigrationsDir:     "./migrations",
		JWTSecret:         "change-this-secret",
		TokenTTL:          72 * time.Hour,
		CORSOrigins:       []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		ShareBaseURL:      "http://localhost:5173",
		NATSSubjectPrefix: "countdown",
		LogLevel:          "info",
		SnapshotInterval:  time.Minute,
		EmbedIdleTTL:      time.Hour,
		RateLimitRPS:      20,
		RateLimitBurst:    40,
		TickIntervals: TickIntervals{
			Timers:    250 * time.Millisecond,
			Pomodoro:  250 * time.Millisecond,
			Embed:     250 * time.Millisecond,
			Events:    time.Second,
			Stopwatch: 16 * time.Millisecond,
		},
		Pomodoro: timekeeper.DefaultPomodoroConfig(),
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE and the environment, in increasing precedence. A .env file in
// the working directory is loaded first without overriding set variables.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.MigrationsDir = getEnv("MIGRATIONS_DIR", cfg.MigrationsDir)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.OwnerPassphrase = getEnv("OWNER_PASSPHRASE", cfg.OwnerPassphrase)
	cfg.TokenTTL = time.Duration(getEnvInt("TOKEN_TTL_HOURS", int(cfg.TokenTTL/time.Hour))) * time.Hour
	cfg.CORSOrigins = getEnvList("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.TrustedProxies = getEnvList("TRUSTED_PROXIES", cfg.TrustedProxies)
	cfg.ShareBaseURL = getEnv("SHARE_BASE_URL", cfg.ShareBaseURL)
	cfg.NATSURL = getEnv("NATS_URL", cfg.NATSURL)
	cfg.NATSSubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", cfg.NATSSubjectPrefix)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.SnapshotInterval = time.Duration(getEnvInt("SNAPSHOT_INTERVAL_SECONDS", int(cfg.SnapshotInterval/time.Second))) * time.Second
	cfg.EmbedIdleTTL = time.Duration(getEnvInt("EMBED_IDLE_TTL_MINUTES", int(cfg.EmbedIdleTTL/time.Minute))) * time.Minute
	cfg.RateLimitRPS = getEnvFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS)
	cfg.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", cfg.RateLimitBurst)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite3 or sqlite, got %q", c.DBDriver)
	}
	if c.SnapshotInterval <= 0 {
		return fmt.Errorf("snapshot interval must be positive")
	}
	if c.EmbedIdleTTL <= 0 {
		return fmt.Errorf("embed idle ttl must be positive")
	}
	if !c.Pomodoro.Valid() {
		return fmt.Errorf("pomodoro durations and sessions must be positive")
	}
	return nil
}

// SlogLevel parses LogLevel, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
