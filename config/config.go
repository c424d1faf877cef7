package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	PasswordSchemePlaintext = "plaintext"
	PasswordSchemeBcrypt    = "bcrypt"
)

type Config struct {
	ServerPort  int    `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	PingMessage string `envconfig:"PING_MESSAGE" default:"ping"`
	Database    DatabaseConfig
	Auth        AuthConfig
}

type DatabaseConfig struct {
	Driver     string `envconfig:"DB_DRIVER" default:"postgres"`
	Host       string `envconfig:"DB_HOST" default:"localhost"`
	Port       int    `envconfig:"DB_PORT" default:"5432"`
	User       string `envconfig:"DB_USER" default:"transport"`
	Password   string `envconfig:"DB_PASSWORD" default:"password"`
	DBName     string `envconfig:"DB_NAME" default:"transport_db"`
	UseSSL     bool   `envconfig:"DB_USE_SSL" default:"false"`
	SQLitePath string `envconfig:"DB_SQLITE_PATH" default:"transport.db"`
}

type AuthConfig struct {
	// JWTSecret enables token issuance on login when set.
	JWTSecret string        `envconfig:"JWT_SECRET"`
	TokenTTL  time.Duration `envconfig:"JWT_TTL" default:"24h"`

	// Enforce guards the user administration routes with an admin token.
	Enforce bool `envconfig:"AUTH_ENFORCE" default:"false"`

	PasswordScheme string `envconfig:"PASSWORD_SCHEME" default:"plaintext"`
}

func LoadConfig() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	c.Auth.PasswordScheme = strings.ToLower(strings.TrimSpace(c.Auth.PasswordScheme))
	switch c.Auth.PasswordScheme {
	case PasswordSchemePlaintext, PasswordSchemeBcrypt:
	default:
		return fmt.Errorf("unsupported PASSWORD_SCHEME %q", c.Auth.PasswordScheme)
	}

	c.Auth.JWTSecret = strings.TrimSpace(c.Auth.JWTSecret)
	if c.Auth.Enforce && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_ENFORCE is set")
	}
	return nil
}
