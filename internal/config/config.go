package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server     ServerConfig
	App        AppConfig
	Redis      RedisConfig
	Database   DatabaseConfig
	ExchangeDB ExchangeDBConfig
	Ledger     LedgerConfig
	Notifier   NotifierConfig
	Exchange   ExchangeConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"labtrade-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	AdminKey    string `envconfig:"ADMIN_KEY" default:""`
	APIKeys     string `envconfig:"API_KEYS" default:""` // comma-separated
}

// RedisConfig holds Redis connection settings (session tokens, redis ledger).
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// DatabaseConfig holds MySQL connection settings (shared item catalog).
type DatabaseConfig struct {
	Enabled  bool   `envconfig:"DB_ENABLED" default:"false"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	Name     string `envconfig:"DB_NAME" default:"labtrade"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASS" default:""`
}

// ExchangeDBConfig holds exchange store settings.
type ExchangeDBConfig struct {
	Type string `envconfig:"EXCHANGE_DB_TYPE" default:"sqlite"` // sqlite or postgres
	Path string `envconfig:"EXCHANGE_DB_PATH" default:"./data/exchanges.db"`
	// PostgreSQL settings
	Host     string `envconfig:"EXCHANGE_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"EXCHANGE_DB_PORT" default:"5432"`
	Name     string `envconfig:"EXCHANGE_DB_NAME" default:"labtrade"`
	User     string `envconfig:"EXCHANGE_DB_USER" default:"postgres"`
	Password string `envconfig:"EXCHANGE_DB_PASS" default:""`
	SSLMode  string `envconfig:"EXCHANGE_DB_SSLMODE" default:"disable"`
}

// LedgerConfig holds stock ledger settings.
type LedgerConfig struct {
	Type string `envconfig:"LEDGER_TYPE" default:"memory"` // memory or redis
}

// NotifierConfig holds notification sink settings.
type NotifierConfig struct {
	KafkaEnabled bool   `envconfig:"KAFKA_ENABLED" default:"false"`
	KafkaBrokers string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"` // comma-separated
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"labtrade.exchange.events"`
}

// ExchangeConfig holds negotiation lifecycle settings.
type ExchangeConfig struct {
	ResponseTTL   time.Duration `envconfig:"EXCHANGE_RESPONSE_TTL" default:"168h"`
	SweepInterval time.Duration `envconfig:"EXCHANGE_SWEEP_INTERVAL" default:"10m"`
}

// PostgresDSN returns the PostgreSQL connection string.
func (e *ExchangeDBConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		e.User, e.Password, e.Host, e.Port, e.Name, e.SSLMode)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Address returns the Redis address in host:port format.
func (r *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// DSN returns the MySQL data source name.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// APIKeyList returns the configured API keys as a slice.
func (a *AppConfig) APIKeyList() []string {
	if a.APIKeys == "" {
		return nil
	}
	keys := strings.Split(a.APIKeys, ",")
	for i := range keys {
		keys[i] = strings.TrimSpace(keys[i])
	}
	return keys
}

// BrokerList returns the configured Kafka brokers as a slice.
func (n *NotifierConfig) BrokerList() []string {
	brokers := strings.Split(n.KafkaBrokers, ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}
	return brokers
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
