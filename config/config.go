package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP server configuration
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Auth configuration
	JWTSecret string
	JWTTTL    time.Duration

	// Ledger policy
	MinWithdrawal decimal.Decimal

	// ROI accrual worker configuration
	ROIAccrualEnabled      bool
	ROIAccrualInitialDelay time.Duration
	ROIAccrualInterval     time.Duration

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated), empty disables publishing

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// SetForTesting overrides the global configuration
func SetForTesting(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// NewTestConfig returns a configuration suitable for tests
func NewTestConfig() *Config {
	return &Config{
		HTTPAddr:               ":0",
		ShutdownTimeout:        5 * time.Second,
		JWTSecret:              "test-secret",
		JWTTTL:                 time.Hour,
		MinWithdrawal:          decimal.RequireFromString("0.001"),
		ROIAccrualEnabled:      false,
		ROIAccrualInitialDelay: 2 * time.Second,
		ROIAccrualInterval:     time.Hour,
		LogLevel:               "debug",
		Environment:            "test",
	}
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// A missing .env file is fine, real deployments use the environment
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to load .env file")
	}

	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		HTTPAddr:        getEnvWithDefault("HTTP_ADDR", ":3000"),
		ShutdownTimeout: 10 * time.Second,

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    24 * time.Hour,

		MinWithdrawal: decimal.RequireFromString("0.001"),

		ROIAccrualEnabled:      getEnvWithDefault("ROI_ACCRUAL_ENABLED", "true") == "true",
		ROIAccrualInitialDelay: 2 * time.Second,
		ROIAccrualInterval:     time.Hour,

		NATSServers: os.Getenv("NATS_SERVERS"),

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
	}

	var err error
	if config.JWTTTL, err = getDurationEnv("JWT_TTL", config.JWTTTL); err != nil {
		return nil, err
	}
	if config.ShutdownTimeout, err = getDurationEnv("SHUTDOWN_TIMEOUT", config.ShutdownTimeout); err != nil {
		return nil, err
	}
	if config.ROIAccrualInitialDelay, err = getDurationEnv("ROI_ACCRUAL_INITIAL_DELAY", config.ROIAccrualInitialDelay); err != nil {
		return nil, err
	}
	if config.ROIAccrualInterval, err = getDurationEnv("ROI_ACCRUAL_INTERVAL", config.ROIAccrualInterval); err != nil {
		return nil, err
	}

	if minWithdrawal := os.Getenv("MIN_WITHDRAWAL"); minWithdrawal != "" {
		parsed, err := decimal.NewFromString(minWithdrawal)
		if err != nil {
			return nil, fmt.Errorf("invalid MIN_WITHDRAWAL %q: %w", minWithdrawal, err)
		}
		config.MinWithdrawal = parsed
	}

	if config.ROIAccrualInterval <= 0 {
		return nil, fmt.Errorf("ROI_ACCRUAL_INTERVAL must be positive")
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv parses a duration such as "90s" or "1h", or a plain number of seconds
func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
