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
	"github.com/shopspring/decimal"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	App       AppConfig
	Redis     RedisConfig
	Telemetry TelemetryConfig
	Worker    WorkerConfig
	Payroll   PayrollConfig
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory"; memory keeps everything in process
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Name           string
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// RedisConfig is optional. An empty Addr disables the punch lock and the
// settings cache.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

type TelemetryConfig struct {
	OTLPEndpoint string
	Insecure     bool
}

type WorkerConfig struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration

	NotificationBatchSize     int
	NotificationFlushInterval time.Duration
	NotificationWorkers       int
}

type PayrollConfig struct {
	// DeductionPercent applies to employees enrolled in PF/ESI; zero disables deductions
	DeductionPercent decimal.Decimal
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{}
	var errs []error
	intEnv := func(key, fallback string) int {
		v, err := strconv.Atoi(getEnv(key, fallback))
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
		return v
	}
	durationEnv := func(key, fallback string) time.Duration {
		v, err := time.ParseDuration(getEnv(key, fallback))
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
		return v
	}
	boolEnv := func(key, fallback string) bool {
		v, err := strconv.ParseBool(getEnv(key, fallback))
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
		return v
	}

	// Database configuration
	config.Database = DatabaseConfig{
		Driver:   getEnv("DB_DRIVER", "postgres"),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     intEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "payroll"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(intEnv("DB_MAX_CONNS", "25")),
		MinConns: int32(intEnv("DB_MIN_CONNS", "5")),
	}

	// Application configuration
	config.App = AppConfig{
		Name:           getEnv("APP_NAME", "payroll-engine"),
		Port:           intEnv("APP_PORT", "8080"),
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: durationEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Redis configuration
	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Username: getEnv("REDIS_USERNAME", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       intEnv("REDIS_DB", "0"),
		Prefix:   getEnv("REDIS_PREFIX", "payroll:"),
	}

	config.Telemetry = TelemetryConfig{
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Insecure:     boolEnv("OTEL_EXPORTER_OTLP_INSECURE", "true"),
	}

	config.Worker = WorkerConfig{
		Workers:                   intEnv("WORKER_COUNT", "4"),
		QueueSize:                 intEnv("WORKER_QUEUE_SIZE", "256"),
		TaskTimeout:               durationEnv("WORKER_TASK_TIMEOUT", "30s"),
		NotificationBatchSize:     intEnv("NOTIFICATION_BATCH_SIZE", "100"),
		NotificationFlushInterval: durationEnv("NOTIFICATION_FLUSH_INTERVAL", "5s"),
		NotificationWorkers:       intEnv("NOTIFICATION_WORKERS", "2"),
	}

	deduction, err := decimal.NewFromString(getEnv("PAYROLL_DEDUCTION_PERCENT", "0"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid PAYROLL_DEDUCTION_PERCENT: %w", err))
	}
	config.Payroll = PayrollConfig{DeductionPercent: deduction}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	slog.Debug("configuration loaded", "env", config.App.Env, "db_driver", config.Database.Driver)
	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Payroll.DeductionPercent.IsNegative() || c.Payroll.DeductionPercent.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("PAYROLL_DEDUCTION_PERCENT must be between 0 and 100")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL onto slog.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env, fallback string) []string {
	value := getEnv(env, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
