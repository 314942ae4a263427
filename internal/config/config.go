package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Env  string
	Port string

	// Database
	DB DatabaseConfig

	// Auth
	JWTSecret  string
	CronAPIKey string

	// Scheduler
	SchedulerInterval    time.Duration
	SchedulerConcurrency int

	// Reports and caching
	BudgetLookbackYears int
	BalanceCacheTTL     time.Duration
}

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite"
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

// DSN returns the connection string for the configured driver.
func (c DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// MigrationURL returns the postgres connection URL golang-migrate expects.
func (c DatabaseConfig) MigrationURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DB: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "splitexpense"),
			Password:   getEnv("DB_PASSWORD", "splitexpense"),
			Name:       getEnv("DB_NAME", "splitexpense"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("DB_SQLITE_PATH", "splitexpense.db"),
		},

		JWTSecret:  getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		CronAPIKey: getEnv("CRON_API_KEY", ""),

		SchedulerInterval:    getDuration("SCHEDULER_INTERVAL", time.Hour),
		SchedulerConcurrency: getInt("SCHEDULER_CONCURRENCY", 4),

		BudgetLookbackYears: getInt("BUDGET_LOOKBACK_YEARS", 2),
		BalanceCacheTTL:     getDuration("BALANCE_CACHE_TTL", 30*time.Second),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	if c.DB.Driver != "postgres" && c.DB.Driver != "sqlite" {
		return fmt.Errorf("unsupported DB_DRIVER %q (use postgres or sqlite)", c.DB.Driver)
	}
	if c.SchedulerConcurrency < 1 {
		return fmt.Errorf("SCHEDULER_CONCURRENCY must be at least 1, got %d", c.SchedulerConcurrency)
	}
	if c.BudgetLookbackYears < 1 {
		return fmt.Errorf("BUDGET_LOOKBACK_YEARS must be at least 1, got %d", c.BudgetLookbackYears)
	}
	return nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}
