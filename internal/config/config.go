package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all process-wide configuration. It is built once at startup
// and passed by pointer into each component; nothing mutates it afterwards.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Square   SquareConfig   `mapstructure:"square"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Submit   SubmitConfig   `mapstructure:"submit"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Log      LogConfig      `mapstructure:"log"`
	Vapi     VapiConfig     `mapstructure:"vapi"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// SquareConfig holds commerce backend settings
type SquareConfig struct {
	AccessToken string        `mapstructure:"access_token"`
	LocationID  string        `mapstructure:"location_id"`
	Environment string        `mapstructure:"environment"`
	BaseURL     string        `mapstructure:"base_url"`
	APIVersion  string        `mapstructure:"api_version"`
	OrderState  string        `mapstructure:"order_state"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// CatalogConfig holds catalog cache and resolution settings
type CatalogConfig struct {
	TTL                time.Duration `mapstructure:"ttl"`
	MaxItemQuantity    int           `mapstructure:"max_item_quantity"`
	ResolveConcurrency int           `mapstructure:"resolve_concurrency"`
}

// SubmitConfig holds order submission settings
type SubmitConfig struct {
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// RabbitMQConfig holds RabbitMQ connection configuration
type RabbitMQConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// VapiConfig holds orchestration platform settings
type VapiConfig struct {
	WebhookSecret string `mapstructure:"webhook_secret"`
}

const (
	SandboxBaseURL    = "https://connect.squareupsandbox.com"
	ProductionBaseURL = "https://connect.squareup.com"
)

// Endpoint is the Square API root: base_url when set, otherwise the root for
// the configured environment.
func (s SquareConfig) Endpoint() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	if strings.EqualFold(s.Environment, "production") {
		return ProductionBaseURL
	}
	return SandboxBaseURL
}

// legacy env names used by existing deployments
var envAliases = map[string]string{
	"square.access_token": "SQUARE_ACCESS_TOKEN",
	"square.location_id":  "SQUARE_LOCATION_ID",
	"square.environment":  "SQUARE_ENVIRONMENT",
	"vapi.webhook_secret": "VAPI_WEBHOOK_SECRET",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.request_timeout", 8*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("square.access_token", "")
	v.SetDefault("square.location_id", "")
	v.SetDefault("square.environment", "sandbox")
	v.SetDefault("square.base_url", "")
	v.SetDefault("square.api_version", "2024-10-17")
	v.SetDefault("square.order_state", "DRAFT")
	v.SetDefault("square.timeout", 3*time.Second)

	v.SetDefault("catalog.ttl", 5*time.Minute)
	v.SetDefault("catalog.max_item_quantity", 50)
	v.SetDefault("catalog.resolve_concurrency", 4)

	v.SetDefault("submit.retry_backoff", 250*time.Millisecond)

	v.SetDefault("rabbitmq.enabled", false)
	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.user", "guest")
	v.SetDefault("rabbitmq.password", "guest")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("vapi.webhook_secret", "")
}

// LoadDotEnv copies a .env file in the working directory into the process
// environment. Variables already set win.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// LoadWith reads configuration from an optional YAML file and the process
// environment, in increasing precedence, into v. Flags bound to v win over
// both when set. A missing file is not an error.
func LoadWith(v *viper.Viper, filename string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("MANO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, "MANO_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			v.SetConfigFile(filename)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings every order-taking mode needs.
func (c *Config) Validate() error {
	if c.Square.AccessToken == "" {
		return fmt.Errorf("square.access_token is required (SQUARE_ACCESS_TOKEN)")
	}
	if c.Square.LocationID == "" {
		return fmt.Errorf("square.location_id is required (SQUARE_LOCATION_ID)")
	}
	// an OPEN order goes straight to fulfillment
	switch c.Square.OrderState {
	case "DRAFT", "PROPOSED":
	default:
		return fmt.Errorf("square.order_state must be DRAFT or PROPOSED, got %q", c.Square.OrderState)
	}
	switch strings.ToLower(c.Square.Environment) {
	case "sandbox", "production":
	default:
		return fmt.Errorf("square.environment must be sandbox or production, got %q", c.Square.Environment)
	}
	if c.Catalog.TTL <= 0 {
		return fmt.Errorf("catalog.ttl must be positive")
	}
	if c.Catalog.MaxItemQuantity < 1 {
		return fmt.Errorf("catalog.max_item_quantity must be at least 1")
	}
	if c.Server.RequestTimeout <= 0 || c.Square.Timeout <= 0 {
		return fmt.Errorf("server.request_timeout and square.timeout must be positive")
	}
	if c.Square.Timeout >= c.Server.RequestTimeout {
		return fmt.Errorf("square.timeout (%s) must be shorter than server.request_timeout (%s)",
			c.Square.Timeout, c.Server.RequestTimeout)
	}
	return nil
}

// RabbitMQURL returns an AMQP connection URL
func (c *Config) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}
