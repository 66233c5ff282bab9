package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/signup-flow/pkg/notification"
)

// ServerConfig holds the signup backend configuration
type ServerConfig struct {
	Host      string        `env:"SIGNUP_HOST" env-default:"localhost"`
	Port      uint16        `env:"SIGNUP_PORT" env-default:"4000"`
	JwtSecret string        `env:"SIGNUP_JWT_SECRET" env-default:"dev-signup-secret"`
	CodeTTL   time.Duration `env:"SIGNUP_CODE_TTL" env-default:"10m"`
	TokenTTL  time.Duration `env:"SIGNUP_TOKEN_TTL" env-default:"1h"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// FlowConfig holds the flow-side (client) configuration
type FlowConfig struct {
	BaseURL string        `env:"SIGNUP_BASE_URL" env-default:"http://localhost:4000"`
	Timeout time.Duration `env:"SIGNUP_HTTP_TIMEOUT" env-default:"10s"`
}

// SMTPConfig holds the email delivery configuration. An empty host means
// no email channel: the backend reports emailConfigured=false and the
// flow skips the verification and invite steps.
type SMTPConfig struct {
	Host     string `env:"SIGNUP_SMTP_HOST" env-default:""`
	Port     int    `env:"SIGNUP_SMTP_PORT" env-default:"587"`
	TLS      bool   `env:"SIGNUP_SMTP_TLS" env-default:"true"`
	Username string `env:"SIGNUP_SMTP_USERNAME" env-default:""`
	Password string `env:"SIGNUP_SMTP_PASSWORD" env-default:""`
	From     string `env:"SIGNUP_SMTP_FROM" env-default:"noreply@example.com"`
}

// ToSMTPConfig converts to the notification package's config
func (c SMTPConfig) ToSMTPConfig() notification.SMTPConfig {
	return notification.SMTPConfig{
		Host:     c.Host,
		Port:     c.Port,
		TLS:      c.TLS,
		Username: c.Username,
		Password: c.Password,
		From:     c.From,
	}
}

// Config is the full environment configuration
type Config struct {
	Server ServerConfig
	Flow   FlowConfig
	SMTP   SMTPConfig
}

// Load reads the configuration from the environment
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment config: %w", err)
	}
	return cfg, nil
}
