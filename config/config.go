// config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Events   EventsConfig
	JWT      JWTConfig
	Checkout CheckoutConfig
	logger   *zap.Logger
}

type ServerConfig struct {
	Port string
	Env  string
}

type StorageConfig struct {
	Backend       string // memory | postgres
	DatabaseURL   string
	RunMigrations bool
	StatusBackend string // memory | redis
	SeedDemoData  bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type EventsConfig struct {
	Backend      string // log | redis | kafka
	KafkaBrokers []string
	KafkaTopic   string
	RedisChannel string
}

type JWTConfig struct {
	Secret           string
	Issuer           string
	TTL              time.Duration
	DemoLoginEnabled bool
}

type CheckoutConfig struct {
	PaymentLinkBaseURL string
	DepositERC20       string
	DepositTRC20       string
	KycRedirectURL     string
	PollInterval       time.Duration
	PollBudget         time.Duration
}

func Load(logger *zap.Logger) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("HTTP_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Storage: StorageConfig{
			Backend:       strings.ToLower(getEnv("STORAGE_BACKEND", "memory")),
			DatabaseURL:   getEnv("DATABASE_URL", ""),
			RunMigrations: getEnvBool("RUN_MIGRATIONS", true),
			StatusBackend: strings.ToLower(getEnv("STATUS_BACKEND", "memory")),
			SeedDemoData:  getEnvBool("SEED_DEMO_DATA", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASS", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Events: EventsConfig{
			Backend:      strings.ToLower(getEnv("EVENTS_BACKEND", "log")),
			KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			KafkaTopic:   getEnv("KAFKA_TOPIC", "payment-links"),
			RedisChannel: getEnv("REDIS_EVENTS_CHANNEL", "payment-links:events"),
		},
		JWT: JWTConfig{
			Secret:           getEnv("JWT_SECRET", ""),
			Issuer:           getEnv("JWT_ISSUER", "paylink-service"),
			TTL:              getEnvDuration("JWT_TTL", 24*time.Hour),
			DemoLoginEnabled: getEnvBool("DEMO_LOGIN_ENABLED", false),
		},
		Checkout: CheckoutConfig{
			PaymentLinkBaseURL: strings.TrimRight(getEnv("PAYMENT_LINK_BASE_URL", "http://localhost:3000"), "/"),
			DepositERC20:       getEnv("DEPOSIT_ADDRESS_ERC20", "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"),
			DepositTRC20:       getEnv("DEPOSIT_ADDRESS_TRC20", "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"),
			KycRedirectURL:     getEnv("KYC_REDIRECT_URL", "https://kyc-provider.example.com/verify"),
			PollInterval:       getEnvDuration("POLL_INTERVAL", 5*time.Second),
			PollBudget:         getEnvDuration("POLL_BUDGET", 10*time.Minute),
		},
		logger: logger,
	}

	if cfg.JWT.Secret == "" && cfg.IsDevelopment() {
		logger.Warn("JWT_SECRET not set, using insecure development secret")
		cfg.JWT.Secret = "dev-secret-change-me"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// Validate rejects unknown backends and missing secrets.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}

	switch c.Storage.StatusBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown STATUS_BACKEND %q", c.Storage.StatusBackend)
	}

	switch c.Events.Backend {
	case "log", "redis":
	case "kafka":
		if len(c.Events.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when EVENTS_BACKEND=kafka")
		}
	default:
		return fmt.Errorf("unknown EVENTS_BACKEND %q", c.Events.Backend)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Checkout.PollInterval <= 0 || c.Checkout.PollBudget < c.Checkout.PollInterval {
		return fmt.Errorf("POLL_BUDGET must be at least POLL_INTERVAL")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
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
