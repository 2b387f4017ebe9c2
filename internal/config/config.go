package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/walletd/walletd/internal/promotion"
)

const (
	defaultAppName         = "walletd"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultCurrencies      = "USD,EUR,GBP,MDL,BTC,EC"
	defaultBonusAmount     = "0"
	defaultKafkaTopic      = "walletd.notifications"
	defaultTransferRate    = 30
	devJWTSecret           = "dev-only-secret"
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	JWTSecret      string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	Currencies     []string
	BonusDefault   decimal.Decimal
	BonusOverrides map[string]decimal.Decimal

	KafkaBrokers []string
	KafkaTopic   string

	// TransferRatePerMinute caps transfers per user per minute; zero disables it.
	TransferRatePerMinute int
}

// Load reads configuration values from the environment and populates a Config
// instance. A .env file in the working directory is applied first when present;
// real environment variables win over it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		AppName:               getEnv("APP_NAME", defaultAppName),
		AppEnv:                strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:                  getEnv("PORT", defaultPort),
		LogLevel:              strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisURL:              os.Getenv("REDIS_URL"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		ShutdownPeriod:        defaultShutdownDelay,
		IdempotencyTTL:        defaultIdempotencyTTL,
		Currencies:            splitList(getEnv("CURRENCIES", defaultCurrencies)),
		KafkaBrokers:          splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:            getEnv("KAFKA_TOPIC", defaultKafkaTopic),
		TransferRatePerMinute: defaultTransferRate,
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("TRANSFER_RATE_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid TRANSFER_RATE_PER_MINUTE: %q", v)
		}
		cfg.TransferRatePerMinute = n
	}

	cfg.BonusDefault, err = decimal.NewFromString(getEnv("BONUS_DEFAULT_AMOUNT", defaultBonusAmount))
	if err != nil {
		return Config{}, fmt.Errorf("invalid BONUS_DEFAULT_AMOUNT: %w", err)
	}
	if cfg.BonusDefault.IsNegative() {
		return Config{}, fmt.Errorf("BONUS_DEFAULT_AMOUNT must not be negative")
	}
	if cfg.BonusOverrides, err = promotion.ParseOverrides(os.Getenv("BONUS_AMOUNTS")); err != nil {
		return Config{}, fmt.Errorf("invalid BONUS_AMOUNTS: %w", err)
	}

	if len(cfg.Currencies) == 0 {
		return Config{}, fmt.Errorf("CURRENCIES must list at least one currency")
	}

	if cfg.IsDev() {
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = devJWTSecret
		}
		return cfg, nil
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the service runs in a local development environment,
// where Postgres and Redis are optional.
func (c Config) IsDev() bool {
	switch c.AppEnv {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

func durationEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
