package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	SeedCourses bool `env:"SEED_COURSES" envDefault:"false"`

	Database Database `envPrefix:"DATABASE_"`
	Stripe   Stripe   `envPrefix:"STRIPE_"`
	Payment  Payment
	Auth     Auth
	Notify   Notify `envPrefix:"NOTIFY_"`
	SMTP     SMTP   `envPrefix:"SMTP_"`
	Redis    Redis  `envPrefix:"REDIS_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type Database struct {
	Driver          string        `env:"DRIVER" envDefault:"mysql"` // mysql, postgres, sqlite
	URL             string        `env:"URL"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"50"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"1h"`
}

type Stripe struct {
	SecretKey         string        `env:"SECRET_KEY"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	MaxNetworkRetries int64         `env:"MAX_NETWORK_RETRIES" envDefault:"2"`
	Timeout           time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type Payment struct {
	Currency    string `env:"PAYMENT_CURRENCY" envDefault:"usd"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type Notify struct {
	Queue        string        `env:"QUEUE" envDefault:"memory"` // memory, redis
	QueueSize    int           `env:"QUEUE_SIZE" envDefault:"256"`
	Workers      int           `env:"WORKERS" envDefault:"2"`
	MaxAttempts  int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	RetryBackoff time.Duration `env:"RETRY_BACKOFF" envDefault:"2s"`
}

type SMTP struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	Sender   string `env:"SENDER"`
}

type Redis struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// Load parses the process environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Stripe.SecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Payment.Currency == "" {
		return fmt.Errorf("PAYMENT_CURRENCY must not be empty")
	}
	switch c.Notify.Queue {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported NOTIFY_QUEUE %q", c.Notify.Queue)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported LOG_FORMAT %q", c.Log.Format)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment.Name == "production"
}
