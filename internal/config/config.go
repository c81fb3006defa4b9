// Package config loads house-market server configuration from the environment.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/evcraddock/house-market/internal/db"
)

// Config holds server configuration.
type Config struct {
	DBPath  string
	Port    int
	BaseURL string // e.g. http://localhost:8080
	DevMode bool

	JWTSecret string
	JWTTTL    time.Duration

	CORSOrigins []string

	// TrustProxy honors X-Forwarded-For and X-Real-IP when identifying
	// callers. Only set it behind a proxy that overwrites those headers.
	TrustProxy bool

	// ImmediateInterval is the re-check period for alerts with
	// frequency "immediate".
	ImmediateInterval time.Duration

	SMTP      SMTPConfig
	AMQP      AMQPConfig
	Geocode   GeocodeConfig
	Redis     RedisConfig
	Upload    UploadConfig
	FluentBit FluentConfig
}

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// AMQPConfig holds the push-notification broker settings.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// GeocodeConfig holds geocoding API settings.
type GeocodeConfig struct {
	APIKey string
	URL    string
}

// RedisConfig holds the geocode cache settings.
type RedisConfig struct {
	Addr     string
	Password string
}

// UploadConfig holds image asset-host settings.
type UploadConfig struct {
	Cloud  string
	Preset string
	URL    string
}

// FluentConfig holds optional Fluent Bit log forwarding settings.
type FluentConfig struct {
	Host string
	Port int
}

// Enabled reports whether log forwarding is configured.
func (c FluentConfig) Enabled() bool { return c.Host != "" }

// Load reads an optional .env file and then the HM_* environment variables.
// A missing .env file is not an error.
func Load(envPath ...string) (Config, error) {
	if err := godotenv.Load(envPath...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (Config, error) {
	dbPath := os.Getenv("HM_DB_PATH")
	if dbPath == "" {
		var err error
		dbPath, err = db.DefaultPath()
		if err != nil {
			return Config{}, err
		}
	}

	cfg := Config{
		DBPath:            dbPath,
		Port:              envInt("HM_PORT", 8080),
		BaseURL:           envOrDefault("HM_BASE_URL", "http://localhost:8080"),
		DevMode:           os.Getenv("HM_DEV_MODE") == "true",
		JWTSecret:         os.Getenv("HM_JWT_SECRET"),
		JWTTTL:            envDuration("HM_JWT_TTL", 24*time.Hour),
		CORSOrigins:       splitList(envOrDefault("HM_CORS_ORIGINS", "*")),
		TrustProxy:        os.Getenv("HM_TRUST_PROXY") == "true",
		ImmediateInterval: envDuration("HM_ALERT_IMMEDIATE_INTERVAL", 5*time.Minute),
		SMTP: SMTPConfig{
			Host: os.Getenv("HM_SMTP_HOST"),
			Port: envOrDefault("HM_SMTP_PORT", "587"),
			User: os.Getenv("HM_SMTP_USER"),
			Pass: os.Getenv("HM_SMTP_PASS"),
			From: os.Getenv("HM_SMTP_FROM"),
		},
		AMQP: AMQPConfig{
			URL:      os.Getenv("HM_AMQP_URL"),
			Exchange: envOrDefault("HM_AMQP_EXCHANGE", "hm.alerts"),
		},
		Geocode: GeocodeConfig{
			APIKey: os.Getenv("HM_GEOCODE_API_KEY"),
			URL:    os.Getenv("HM_GEOCODE_URL"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("HM_REDIS_ADDR"),
			Password: os.Getenv("HM_REDIS_PASSWORD"),
		},
		Upload: UploadConfig{
			Cloud:  os.Getenv("HM_UPLOAD_CLOUD"),
			Preset: os.Getenv("HM_UPLOAD_PRESET"),
			URL:    os.Getenv("HM_UPLOAD_URL"),
		},
		FluentBit: FluentConfig{
			Host: os.Getenv("HM_FLUENT_HOST"),
			Port: envInt("HM_FLUENT_PORT", 24224),
		},
	}

	if cfg.JWTSecret == "" {
		if !cfg.DevMode {
			return Config{}, fmt.Errorf("HM_JWT_SECRET is required outside dev mode")
		}
		// Tokens issued in dev mode do not survive a restart.
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return Config{}, fmt.Errorf("generating jwt secret: %w", err)
		}
		cfg.JWTSecret = hex.EncodeToString(b)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("ignoring invalid integer", "key", key, "value", v)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("ignoring invalid duration", "key", key, "value", v)
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
