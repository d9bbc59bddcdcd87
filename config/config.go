package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Payment    PaymentConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Cloudinary CloudinaryConfig
	RateLimit  RateLimitConfig
	Security   SecurityConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	FrontendURL  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (s ServerConfig) IsProduction() bool { return s.Env == "production" }

type DatabaseConfig struct {
	Driver          string // mysql | postgres | sqlite
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type PaymentConfig struct {
	Mode              string // test | live
	Provider          string
	SecretKey         string
	WebhookSecret     string
	WebhookTolerance  time.Duration
	APIBaseURL        string
	AllowedCurrencies []string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

type RateLimitConfig struct {
	Store         string // memory | redis
	GeneralLimit  int
	GeneralWindow time.Duration
	AuthLimit     int
	AuthWindow    time.Duration
	StrictLimit   int
	StrictWindow  time.Duration
}

// SecurityConfig holds the failed-login lockout policy.
type SecurityConfig struct {
	AttemptStore  string // memory | redis
	LockThreshold int
	LockWindow    time.Duration
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration from the environment, falling back to development
// defaults, and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "4000"),
			Env:          getEnv("SERVER_ENV", "development"),
			FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:5173"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			DSN:             getEnv("DATABASE_URL", "data/dev.sqlite"),
			MaxIdleConns:    10,
			MaxOpenConns:    50,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  os.Getenv("JWT_SECRET"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 30 * 24 * time.Hour,
			Issuer:        getEnv("JWT_ISSUER", "odenehouk"),
		},
		Payment: PaymentConfig{
			Mode:              getEnv("STRIPE_MODE", "test"),
			Provider:          "stripe",
			SecretKey:         os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret:     os.Getenv("STRIPE_WEBHOOK_SECRET"),
			WebhookTolerance:  5 * time.Minute,
			APIBaseURL:        getEnv("STRIPE_API_BASE", "https://api.stripe.com"),
			AllowedCurrencies: splitCSV(getEnv("ALLOWED_CURRENCIES", "USD")),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Kafka: KafkaConfig{
			Brokers:      splitCSV(os.Getenv("KAFKA_BROKERS")),
			Topic:        getEnv("KAFKA_TOPIC", "storefront.orders"),
			PollInterval: 2 * time.Second,
			BatchSize:    50,
			MaxAttempts:  10,
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
		RateLimit: RateLimitConfig{
			Store:         getEnv("RATE_LIMIT_STORE", "memory"),
			GeneralLimit:  200,
			GeneralWindow: 15 * time.Minute,
			AuthLimit:     20,
			AuthWindow:    15 * time.Minute,
			StrictLimit:   5,
			StrictWindow:  time.Minute,
		},
		Security: SecurityConfig{
			AttemptStore:  getEnv("ATTEMPT_STORE", "memory"),
			LockThreshold: 6,
			LockWindow:    15 * time.Minute,
			AdminEmail:    os.Getenv("ADMIN_EMAIL"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		},
	}

	var err error
	if cfg.Redis.DB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	if cfg.Database.MaxOpenConns, err = getEnvInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	if cfg.Payment.WebhookTolerance, err = getEnvDuration("STRIPE_WEBHOOK_TOLERANCE", cfg.Payment.WebhookTolerance); err != nil {
		return nil, fmt.Errorf("invalid STRIPE_WEBHOOK_TOLERANCE: %w", err)
	}
	if cfg.Kafka.PollInterval, err = getEnvDuration("OUTBOX_POLL_INTERVAL", cfg.Kafka.PollInterval); err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_POLL_INTERVAL: %w", err)
	}
	if cfg.Kafka.MaxAttempts, err = getEnvInt("OUTBOX_MAX_ATTEMPTS", cfg.Kafka.MaxAttempts); err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_MAX_ATTEMPTS: %w", err)
	}
	if cfg.Security.LockThreshold, err = getEnvInt("LOGIN_LOCK_THRESHOLD", cfg.Security.LockThreshold); err != nil {
		return nil, fmt.Errorf("invalid LOGIN_LOCK_THRESHOLD: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on settings the server cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.AccessSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}
	switch c.Payment.Mode {
	case "test":
	case "live":
		if c.Payment.SecretKey == "" || c.Payment.WebhookSecret == "" {
			errs = append(errs, errors.New("STRIPE live mode requires STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STRIPE_MODE %q", c.Payment.Mode))
	}
	for _, store := range []string{c.RateLimit.Store, c.Security.AttemptStore} {
		if store == "redis" && !c.Redis.Enabled() {
			errs = append(errs, errors.New("redis-backed stores require REDIS_ADDR"))
			break
		}
	}
	if c.Security.LockThreshold <= 0 {
		errs = append(errs, errors.New("LOGIN_LOCK_THRESHOLD must be > 0"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
