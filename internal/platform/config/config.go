package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	MonthlyModeFull     = "full"
	MonthlyModeProrated = "prorated"
)

type Config struct {
	Addr                    string
	DatabaseURL             string
	JWTSecret               string
	DataEncryptionKey       string
	Environment             string
	LogLevel                string
	RunMigrations           bool
	RunSeed                 bool
	MigrationsDir           string
	CompanyName             string
	MaxBodyBytes            int64
	RateLimitPerMinute      int
	GSTRate                 decimal.Decimal
	InvoicePrefix           string
	InvoiceDueDays          int
	InvoiceBasisCurrency    string
	InvoiceStorageDir       string
	MonthlyAggregation      string
	EnforceSubcontractLeave bool
	OverdueSweepInterval    time.Duration
	MetricsEnabled          bool
}

// Load reads a .env file when present, then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("dotenv load failed", "err", err)
	}
	return Config{
		Addr:                    getEnv("APP_ADDR", ":8080"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		DataEncryptionKey:       getEnv("DATA_ENCRYPTION_KEY", ""),
		Environment:             getEnv("APP_ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		RunMigrations:           getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:                 getEnvBool("RUN_SEED", true),
		MigrationsDir:           getEnv("MIGRATIONS_DIR", "migrations"),
		CompanyName:             getEnv("COMPANY_NAME", "Staffing Co"),
		MaxBodyBytes:            int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:      getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		GSTRate:                 getEnvDecimal("GST_RATE", decimal.NewFromInt(18)),
		InvoicePrefix:           getEnv("INVOICE_PREFIX", "INV"),
		InvoiceDueDays:          getEnvInt("INVOICE_DUE_DAYS", 30),
		InvoiceBasisCurrency:    strings.ToUpper(getEnv("INVOICE_BASIS_CURRENCY", "INR")),
		InvoiceStorageDir:       getEnv("INVOICE_STORAGE_DIR", "storage/invoices"),
		MonthlyAggregation:      strings.ToLower(getEnv("MONTHLY_AGGREGATION", MonthlyModeFull)),
		EnforceSubcontractLeave: getEnvBool("ENFORCE_SUBCONTRACT_LEAVE", true),
		OverdueSweepInterval:    getEnvDuration("OVERDUE_SWEEP_INTERVAL", 6*time.Hour),
		MetricsEnabled:          getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.GSTRate.IsNegative() || c.GSTRate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("GST_RATE must be between 0 and 100")
	}
	if c.InvoiceDueDays < 0 {
		return fmt.Errorf("INVOICE_DUE_DAYS must not be negative")
	}
	if c.InvoiceBasisCurrency != "INR" && c.InvoiceBasisCurrency != "USD" {
		return fmt.Errorf("INVOICE_BASIS_CURRENCY must be INR or USD")
	}
	if c.MonthlyAggregation != MonthlyModeFull && c.MonthlyAggregation != MonthlyModeProrated {
		return fmt.Errorf("MONTHLY_AGGREGATION must be %q or %q", MonthlyModeFull, MonthlyModeProrated)
	}
	return nil
}
