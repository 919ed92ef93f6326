// Package config loads the service configuration from configs/config.yml and
// the environment. Environment variables use the ACCOUNTS_ prefix with dots
// replaced by underscores (db.path -> ACCOUNTS_DB_PATH).
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	envPrefix = "ACCOUNTS"
)

type Config struct {
	Port     string         `mapstructure:"port"`
	Env      string         `mapstructure:"env"`
	Debug    bool           `mapstructure:"debug"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Accounts AccountsConfig `mapstructure:"accounts"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Events   EventsConfig   `mapstructure:"events"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json; defaults by env
}

type DBConfig struct {
	Path         string `mapstructure:"path"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type AccountsConfig struct {
	MaxOffset int `mapstructure:"max_offset"`
}

type AuthConfig struct {
	SigningKey      string        `mapstructure:"signing_key"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	BcryptCost      int           `mapstructure:"bcrypt_cost"`
	VerifyListToken bool          `mapstructure:"verify_list_token"`
}

// EventsConfig enables the redis event stream when RedisAddr is set.
type EventsConfig struct {
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Stream        string `mapstructure:"stream"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "5000")
	v.SetDefault("env", EnvDevelopment)
	v.SetDefault("debug", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "users.db")
	v.SetDefault("db.max_open_conns", 1)
	v.SetDefault("accounts.max_offset", 10000)
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("auth.bcrypt_cost", bcrypt.DefaultCost)
	v.SetDefault("auth.verify_list_token", false)
	v.SetDefault("events.redis_addr", "")
	v.SetDefault("events.redis_password", "")
	v.SetDefault("events.redis_db", 0)
	v.SetDefault("events.stream", "account.events")
}

// legacy environment names kept for deployments of the previous service
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"db.path":          {"ACCOUNTS_DB_PATH", "DATABASE_PATH"},
		"auth.signing_key": {"ACCOUNTS_AUTH_SIGNING_KEY", "SECRET_KEY"},
		"debug":            {"ACCOUNTS_DEBUG", "APP_DEBUG", "FLASK_DEBUG"},
		"log.format":       {"ACCOUNTS_LOG_FORMAT"},
	}
	for key, names := range bindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}

// Load reads configuration. An empty file looks for configs/config.yml and
// ./config.yml; a missing file is not an error and defaults apply.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyEnvProfile()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnvProfile() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Log.Format == "" {
		c.Log.Format = "console"
		if c.Env == EnvProduction {
			c.Log.Format = "json"
		}
	}
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("port must be set"))
	}
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		errs = append(errs, fmt.Errorf("env must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env))
	}
	if strings.TrimSpace(c.DB.Path) == "" {
		errs = append(errs, errors.New("db.path must be set"))
	}
	if c.Accounts.MaxOffset <= 0 {
		errs = append(errs, fmt.Errorf("accounts.max_offset must be positive, got %d", c.Accounts.MaxOffset))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost must be within [%d, %d], got %d", bcrypt.MinCost, bcrypt.MaxCost, c.Auth.BcryptCost))
	}
	return errors.Join(errs...)
}

// EnsureSigningKey fills an empty signing key with a random per-process key.
// It reports whether a key was generated; tokens then do not survive restarts.
func (c *Config) EnsureSigningKey() (bool, error) {
	if c.Auth.SigningKey != "" {
		return false, nil
	}
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return false, fmt.Errorf("generate signing key: %w", err)
	}
	c.Auth.SigningKey = hex.EncodeToString(buf)
	return true, nil
}
