package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"

	httpapi "github.com/aussiebroadwan/bartender/internal/bartender/http"
	"github.com/aussiebroadwan/bartender/pkg/jwtx"
)

// Store drivers selectable with STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

type Config struct {
	Env                 string        `env:"ENV"                   envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL"             envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT"            envDefault:"json"`
	Port                int           `env:"PORT"                  envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`

	Auth AuthConfig `envPrefix:"AUTH_"`

	StoreDriver  string `env:"STORE_DRIVER"  envDefault:"sqlite"`
	DatabaseFile string `env:"DATABASE_FILE" envDefault:"bartender.db"`
	DatabaseURL  string `env:"DATABASE_URL"`
	RedisURL     string `env:"REDIS_URL"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	RateLimits httpapi.RateLimits `envPrefix:"RATELIMIT_"`
}

type AuthConfig struct {
	Issuer    string `env:"ISSUER"    envDefault:"bartender"`
	Algorithm string `env:"ALGORITHM" envDefault:"HS256"`

	// Secret wins over SecretFile. The file is created on first start.
	Secret     string `env:"SECRET"`
	SecretFile string `env:"SECRET_FILE" envDefault:"secret"`
	PepperFile string `env:"PEPPER_FILE" envDefault:"pepper"`

	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL"`
	BcryptCost      int           `env:"BCRYPT_COST" envDefault:"12"`
}

// LoadConfig reads the environment over the built-in defaults and validates
// the result.
func LoadConfig() (Config, error) {
	cfg := Config{
		Auth: AuthConfig{
			AccessTokenTTL:  jwtx.DefaultAccessTokenTTL,
			RefreshTokenTTL: jwtx.DefaultRefreshTokenTTL,
		},
		RateLimits: httpapi.DefaultRateLimits(),
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	switch c.StoreDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("DATABASE_FILE is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.Auth.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("AUTH_ALGORITHM %q: %w", c.Auth.Algorithm, jwtx.ErrUnsupportedAlg))
	}

	if c.Auth.Secret != "" && len(c.Auth.Secret) < jwtx.MinSecretSize {
		errs = append(errs, fmt.Errorf("AUTH_SECRET: %w", jwtx.ErrWeakSecret))
	}
	if c.Auth.Secret == "" && c.Auth.SecretFile == "" {
		errs = append(errs, errors.New("one of AUTH_SECRET or AUTH_SECRET_FILE is required"))
	}

	if c.Auth.AccessTokenTTL < time.Second {
		errs = append(errs, fmt.Errorf("AUTH_ACCESS_TOKEN_TTL %s must be at least 1s", c.Auth.AccessTokenTTL))
	}
	if c.Auth.RefreshTokenTTL < c.Auth.AccessTokenTTL {
		errs = append(errs, fmt.Errorf("AUTH_REFRESH_TOKEN_TTL %s is shorter than AUTH_ACCESS_TOKEN_TTL %s",
			c.Auth.RefreshTokenTTL, c.Auth.AccessTokenTTL))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("AUTH_BCRYPT_COST %d outside [%d, %d]",
			c.Auth.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}

	return errors.Join(errs...)
}
