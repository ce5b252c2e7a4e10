package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Provider exposes read-only configuration to modules and services.
type Provider interface {
	GetAddr() string
	GetLogFormat() string
	GetLogLevel() string
	GetAllowedOrigins() []string
	GetSendBufferSize() int
	GetWriteTimeout() time.Duration
	GetReadLimit() int64
	GetNotifyUndeliverable() bool
	GetShutdownTimeout() time.Duration
	GetTracingEnabled() bool
	GetTracingServiceName() string
	GetTracingZipkinURL() string
}

// Config holds all configuration for the application.
type Config struct {
	Addr      string `envconfig:"RELAY_ADDR" default:":8080" validate:"required"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"debug" validate:"oneof=debug info warn warning error"`

	// AllowedOrigins feeds the CORS middleware and the WebSocket origin check.
	AllowedOrigins []string `envconfig:"RELAY_ALLOWED_ORIGINS" default:"*" validate:"min=1,dive,required"`

	SendBufferSize  int           `envconfig:"RELAY_SEND_BUFFER" default:"256" validate:"min=1"`
	WriteTimeout    time.Duration `envconfig:"RELAY_WRITE_TIMEOUT" default:"10s" validate:"gt=0"`
	ReadLimit       int64         `envconfig:"RELAY_READ_LIMIT" default:"32768" validate:"min=512"`
	ShutdownTimeout time.Duration `envconfig:"RELAY_SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`

	// NotifyUndeliverable switches directed messages to unknown recipients
	// from a silent drop to a messageUndelivered push back to the sender.
	NotifyUndeliverable bool `envconfig:"RELAY_NOTIFY_UNDELIVERABLE" default:"false"`

	TracingEnabled     bool   `envconfig:"PUBSUB_TRACING_ENABLED" default:"false"`
	TracingServiceName string `envconfig:"PUBSUB_TRACING_SERVICE_NAME" default:"relay-service"`
	TracingZipkinURL   string `envconfig:"PUBSUB_TRACING_ZIPKIN_URL" default:"http://localhost:9411/api/v2/spans" validate:"omitempty,url"`
}

var _ Provider = (*Config)(nil)

// Load reads configuration from the environment without touching .env files.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// New loads configuration from environment variables, reading a .env file first if present.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg, err := Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	return cfg
}

func (c *Config) GetAddr() string                   { return c.Addr }
func (c *Config) GetLogFormat() string              { return c.LogFormat }
func (c *Config) GetLogLevel() string               { return c.LogLevel }
func (c *Config) GetAllowedOrigins() []string       { return c.AllowedOrigins }
func (c *Config) GetSendBufferSize() int            { return c.SendBufferSize }
func (c *Config) GetWriteTimeout() time.Duration    { return c.WriteTimeout }
func (c *Config) GetReadLimit() int64               { return c.ReadLimit }
func (c *Config) GetNotifyUndeliverable() bool      { return c.NotifyUndeliverable }
func (c *Config) GetShutdownTimeout() time.Duration { return c.ShutdownTimeout }
func (c *Config) GetTracingEnabled() bool           { return c.TracingEnabled }
func (c *Config) GetTracingServiceName() string     { return c.TracingServiceName }
func (c *Config) GetTracingZipkinURL() string       { return c.TracingZipkinURL }
