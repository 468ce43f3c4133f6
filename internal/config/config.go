package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	App     AppConfig
	Log     LogConfig
	DB      DBConfig
	Redis   RedisConfig
	HTTP    HTTPConfig
	GRPC    GRPCConfig
	Auth    AuthConfig
	Payment PaymentConfig
	Access  AccessConfig
}

type AppConfig struct {
	ENV string `env:"APP_ENV" envDefault:"development"`
	// OpTimeout bounds every inbound request, store calls included.
	OpTimeout time.Duration `env:"APP_OP_TIMEOUT" envDefault:"5s"`
}

type LogConfig struct {
	Level     string `env:"LOG_LEVEL" envDefault:"info"`
	Format    string `env:"LOG_FORMAT" envDefault:"text"`
	Component string `env:"LOG_COMPONENT" envDefault:"http_server"`
	Source    bool   `env:"LOG_SOURCE"`
}

type DBConfig struct {
	DSN      string `env:"MYSQL_DSN"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"3306"`
	User     string `env:"DB_USER" envDefault:"root"`
	Password string `env:"DB_PASSWORD" envDefault:"root"`
	Name     string `env:"DB_NAME" envDefault:"matrimony"`
	Debug    bool   `env:"DB_DEBUG"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type HTTPConfig struct {
	Host           string   `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port           string   `env:"PORT" envDefault:"5000"`
	AllowedOrigins []string `env:"HTTP_CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

type GRPCConfig struct {
	Host string `env:"GRPC_HOST" envDefault:"127.0.0.1"`
	Port string `env:"GRPC_PORT" envDefault:"50051"`
}

// AuthConfig describes how bearer identity assertions are verified.
// Exactly one of HMACSecret or PublicKeyPEM must be set.
type AuthConfig struct {
	Issuer       string `env:"AUTH_ISSUER"`
	Audience     string `env:"AUTH_AUDIENCE"`
	HMACSecret   string `env:"AUTH_JWT_SECRET"`
	PublicKeyPEM string `env:"AUTH_JWT_PUBLIC_KEY"`
}

type PaymentConfig struct {
	SecretKey string `env:"PAYMENT_GATEWAY_KEY"`
	Currency  string `env:"PAYMENT_CURRENCY" envDefault:"usd"`
	// VerifyIntents requires a contact request's transaction id to resolve
	// to a succeeded payment intent before the request is stored.
	VerifyIntents bool `env:"PAYMENT_VERIFY_INTENTS" envDefault:"true"`
}

// AccessConfig lists the roles allowed for each privileged operation.
type AccessConfig struct {
	UserAdminRoles    []string `env:"ACCESS_USER_ADMIN_ROLES" envSeparator:"," envDefault:"admin"`
	UserListRoles     []string `env:"ACCESS_USER_LIST_ROLES" envSeparator:"," envDefault:"admin"`
	ContactAdminRoles []string `env:"ACCESS_CONTACT_ADMIN_ROLES" envSeparator:"," envDefault:"admin"`
}

// New loads the configuration from the environment.
func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.DB.DSN = strings.TrimSpace(cfg.DB.DSN)
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}
	cfg.Payment.Currency = strings.ToLower(strings.TrimSpace(cfg.Payment.Currency))

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.App.ENV, "development")
}
