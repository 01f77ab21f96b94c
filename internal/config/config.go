// Package config loads service settings from GATEHOUSE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the runtime configuration of the api binary.
type Config struct {
	HTTPAddr string `env:"GATEHOUSE_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr string `env:"GATEHOUSE_GRPC_ADDR" envDefault:":9090"`
	// PostgresDSN selects the Postgres store. Empty runs on the in-memory store.
	PostgresDSN string `env:"GATEHOUSE_PG_DSN"`
	Version     string `env:"GATEHOUSE_VERSION" envDefault:"dev"`
	Commit      string `env:"GATEHOUSE_COMMIT" envDefault:"none"`

	Token    TokenConfig
	Password PasswordConfig
	Login    LoginConfig
	Master   BootstrapConfig
}

// TokenConfig configures the token codec.
type TokenConfig struct {
	Secret        string        `env:"GATEHOUSE_TOKEN_SECRET"`
	PrivateKeyPEM string        `env:"GATEHOUSE_TOKEN_PRIVATE_KEY"`
	PublicKeyPEM  string        `env:"GATEHOUSE_TOKEN_PUBLIC_KEY"`
	KeyID         string        `env:"GATEHOUSE_TOKEN_KEY_ID"`
	Issuer        string        `env:"GATEHOUSE_TOKEN_ISSUER"   envDefault:"gatehouse"`
	Audience      string        `env:"GATEHOUSE_TOKEN_AUDIENCE" envDefault:"gatehouse"`
	TTL           time.Duration `env:"GATEHOUSE_TOKEN_TTL"      envDefault:"15m"`
	Version       int           `env:"GATEHOUSE_TOKEN_VERSION"  envDefault:"1"`
}

// UsesRSA reports whether RS256 keys are configured.
func (t TokenConfig) UsesRSA() bool {
	return strings.TrimSpace(t.PrivateKeyPEM) != "" || strings.TrimSpace(t.PublicKeyPEM) != ""
}

// PasswordConfig selects the hash written for new passwords.
type PasswordConfig struct {
	Algorithm  string `env:"GATEHOUSE_PASSWORD_HASH" envDefault:"bcrypt"`
	BcryptCost int    `env:"GATEHOUSE_BCRYPT_COST"   envDefault:"12"`
}

// LoginConfig bounds token endpoint traffic per client address.
type LoginConfig struct {
	RatePerSecond float64 `env:"GATEHOUSE_LOGIN_RATE"  envDefault:"5"`
	Burst         int     `env:"GATEHOUSE_LOGIN_BURST" envDefault:"10"`
	MaxBodyBytes  int64   `env:"GATEHOUSE_MAX_BODY_BYTES" envDefault:"1048576"`
}

// BootstrapConfig creates the first master user at startup when set.
type BootstrapConfig struct {
	Username string `env:"GATEHOUSE_BOOTSTRAP_USERNAME"`
	Email    string `env:"GATEHOUSE_BOOTSTRAP_EMAIL"`
	Password string `env:"GATEHOUSE_BOOTSTRAP_PASSWORD"`
}

// Enabled reports whether a bootstrap master is requested.
func (b BootstrapConfig) Enabled() bool { return strings.TrimSpace(b.Username) != "" }

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("GATEHOUSE_HTTP_ADDR is required"))
	}
	if c.Token.UsesRSA() {
		if strings.TrimSpace(c.Token.PrivateKeyPEM) == "" || strings.TrimSpace(c.Token.PublicKeyPEM) == "" {
			errs = append(errs, errors.New("GATEHOUSE_TOKEN_PRIVATE_KEY and GATEHOUSE_TOKEN_PUBLIC_KEY must be set together"))
		}
	} else if len(c.Token.Secret) < 32 {
		errs = append(errs, errors.New("GATEHOUSE_TOKEN_SECRET must be at least 32 bytes"))
	}
	if c.Token.TTL < time.Second || c.Token.TTL%time.Second != 0 {
		errs = append(errs, errors.New("GATEHOUSE_TOKEN_TTL must be a whole number of seconds, at least 1s"))
	}
	if c.Token.Version < 1 {
		errs = append(errs, errors.New("GATEHOUSE_TOKEN_VERSION must be at least 1"))
	}
	if c.Login.RatePerSecond <= 0 || c.Login.Burst <= 0 {
		errs = append(errs, errors.New("GATEHOUSE_LOGIN_RATE and GATEHOUSE_LOGIN_BURST must be positive"))
	}
	if c.Login.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("GATEHOUSE_MAX_BODY_BYTES must be positive"))
	}
	if c.Master.Enabled() && (strings.TrimSpace(c.Master.Email) == "" || c.Master.Password == "") {
		errs = append(errs, errors.New("GATEHOUSE_BOOTSTRAP_EMAIL and GATEHOUSE_BOOTSTRAP_PASSWORD are required with GATEHOUSE_BOOTSTRAP_USERNAME"))
	}
	return errors.Join(errs...)
}
