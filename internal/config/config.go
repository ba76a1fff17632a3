package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the exchange.
type Config struct {
	Port     int
	LogLevel string

	JWTSecret string
	TokenTTL  time.Duration

	RateURL          string
	RatePollInterval time.Duration

	JournalPath string
	BackupPath  string

	SeedUSD     float64
	SeedLBP     float64
	TreasuryUSD float64
	TreasuryLBP float64

	RateLimitRPS   float64
	RateLimitBurst int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
// An empty JOURNAL_PATH runs the ledger purely in memory.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	jwtSecret := getStr("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	tokenTTL, err := getDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if tokenTTL <= 0 {
		return nil, fmt.Errorf("invalid TOKEN_TTL: must be positive")
	}

	rateURL := getStr("RATE_URL", "https://lirarate.org/api/latest")

	ratePollInterval, err := getDuration("RATE_POLL_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_POLL_INTERVAL: %w", err)
	}
	if ratePollInterval <= 0 {
		return nil, fmt.Errorf("invalid RATE_POLL_INTERVAL: must be positive")
	}

	seedUSD, err := getFloat("SEED_USD", 1000)
	if err != nil {
		return nil, fmt.Errorf("invalid SEED_USD: %w", err)
	}
	seedLBP, err := getFloat("SEED_LBP", 1_500_000)
	if err != nil {
		return nil, fmt.Errorf("invalid SEED_LBP: %w", err)
	}
	treasuryUSD, err := getFloat("TREASURY_USD", 100_000_000)
	if err != nil {
		return nil, fmt.Errorf("invalid TREASURY_USD: %w", err)
	}
	treasuryLBP, err := getFloat("TREASURY_LBP", 150_000_000_000)
	if err != nil {
		return nil, fmt.Errorf("invalid TREASURY_LBP: %w", err)
	}
	if seedUSD < 0 || seedLBP < 0 || treasuryUSD < 0 || treasuryLBP < 0 {
		return nil, fmt.Errorf("seed and treasury balances must not be negative")
	}

	rateLimitRPS, err := getFloat("RATE_LIMIT_RPS", 50)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	if rateLimitRPS <= 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: must be positive")
	}
	rateLimitBurst, err := getInt("RATE_LIMIT_BURST", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}
	if rateLimitBurst < 1 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: must be at least 1")
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:             port,
		LogLevel:         logLevel,
		JWTSecret:        jwtSecret,
		TokenTTL:         tokenTTL,
		RateURL:          rateURL,
		RatePollInterval: ratePollInterval,
		JournalPath:      getStr("JOURNAL_PATH", ""),
		BackupPath:       getStr("BACKUP_PATH", "cambio-backup.db"),
		SeedUSD:          seedUSD,
		SeedLBP:          seedLBP,
		TreasuryUSD:      treasuryUSD,
		TreasuryLBP:      treasuryLBP,
		RateLimitRPS:     rateLimitRPS,
		RateLimitBurst:   rateLimitBurst,
		ReadTimeout:      readTimeout,
		WriteTimeout:     writeTimeout,
		IdleTimeout:      idleTimeout,
		ShutdownTimeout:  shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
