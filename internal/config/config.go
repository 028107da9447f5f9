package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/distributed-ecommerce-saga/fulfillment-service/internal/messaging"
	"github.com/spf13/cast"
)

const (
	CatalogSourceSeed     = "seed"
	CatalogSourcePostgres = "postgres"
)

type LoggerConfig struct {
	Mode       string // development | production
	FileEnable bool
	Filename   string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name,
	)
}

type Config struct {
	Port               string
	Logger             LoggerConfig
	CatalogSource      string
	Database           DatabaseConfig
	MessagingEnabled   bool
	RabbitMQ           messaging.RabbitMQConfig
	PaymentFailureRate float64
	RestockOnCancel    bool
	ReserveTimeout     time.Duration

	parseErrs []error
}

// Load reads the configuration from the environment. Malformed values fall
// back to the zero value and are reported by Validate.
func Load() *Config {
	env := &envReader{}
	cfg := &Config{
		Port: getEnvOrDefault("PORT", "8080"),
		Logger: LoggerConfig{
			Mode:       getEnvOrDefault("LOG_MODE", "development"),
			FileEnable: env.boolValue("LOG_FILE_ENABLE", "false"),
			Filename:   getEnvOrDefault("LOG_FILE", "fulfillment-service.log"),
		},
		CatalogSource: getEnvOrDefault("CATALOG_SOURCE", CatalogSourceSeed),
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     env.intValue("DB_PORT", "5432"),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
			Name:     getEnvOrDefault("DB_NAME", "catalog_db"),
		},
		MessagingEnabled: env.boolValue("MESSAGING_ENABLED", "false"),
		RabbitMQ: messaging.RabbitMQConfig{
			Host:              getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:              env.intValue("RABBITMQ_PORT", "5672"),
			Username:          getEnvOrDefault("RABBITMQ_USERNAME", "guest"),
			Password:          getEnvOrDefault("RABBITMQ_PASSWORD", "guest"),
			VHost:             getEnvOrDefault("RABBITMQ_VHOST", "/"),
			Exchange:          getEnvOrDefault("RABBITMQ_EXCHANGE", "fulfillment.events"),
			RetryCount:        env.intValue("RABBITMQ_RETRY_COUNT", "3"),
			RetryDelay:        env.durationValue("RABBITMQ_RETRY_DELAY", "5s"),
			ConnectionTimeout: env.durationValue("RABBITMQ_CONNECTION_TIMEOUT", "30s"),
		},
		PaymentFailureRate: env.floatValue("PAYMENT_FAILURE_RATE", "0"),
		RestockOnCancel:    env.boolValue("RESTOCK_ON_CANCEL", "true"),
		ReserveTimeout:     env.durationValue("RESERVE_TIMEOUT", "2s"),
	}
	cfg.parseErrs = env.errs
	return cfg
}

func (c *Config) Validate() error {
	if len(c.parseErrs) > 0 {
		return errors.Join(c.parseErrs...)
	}
	switch c.CatalogSource {
	case CatalogSourceSeed, CatalogSourcePostgres:
	default:
		return fmt.Errorf("unknown CATALOG_SOURCE %q", c.CatalogSource)
	}
	if c.PaymentFailureRate < 0 || c.PaymentFailureRate > 1 {
		return fmt.Errorf("PAYMENT_FAILURE_RATE must be within [0, 1], got %v", c.PaymentFailureRate)
	}
	if c.ReserveTimeout < 0 {
		return fmt.Errorf("RESERVE_TIMEOUT must not be negative, got %s", c.ReserveTimeout)
	}
	if c.MessagingEnabled && c.RabbitMQ.RetryCount <= 0 {
		return fmt.Errorf("RABBITMQ_RETRY_COUNT must be positive when messaging is enabled")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

type envReader struct {
	errs []error
}

func (r *envReader) fail(key string, err error) {
	r.errs = append(r.errs, fmt.Errorf("invalid %s: %w", key, err))
}

func (r *envReader) boolValue(key, defaultValue string) bool {
	v, err := cast.ToBoolE(getEnvOrDefault(key, defaultValue))
	if err != nil {
		r.fail(key, err)
	}
	return v
}

func (r *envReader) intValue(key, defaultValue string) int {
	v, err := cast.ToIntE(getEnvOrDefault(key, defaultValue))
	if err != nil {
		r.fail(key, err)
	}
	return v
}

func (r *envReader) floatValue(key, defaultValue string) float64 {
	v, err := cast.ToFloat64E(getEnvOrDefault(key, defaultValue))
	if err != nil {
		r.fail(key, err)
	}
	return v
}

func (r *envReader) durationValue(key, defaultValue string) time.Duration {
	v, err := cast.ToDurationE(getEnvOrDefault(key, defaultValue))
	if err != nil {
		r.fail(key, err)
	}
	return v
}
