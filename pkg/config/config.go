// Package config loads gridctl and service settings from a YAML file and
// GRID_ prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	grid "github.com/goliatone/go-grid"
	"github.com/goliatone/go-grid/pkg/activity"
	"github.com/goliatone/go-grid/pkg/storage"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GRID_LOGGING_LEVEL.
const EnvPrefix = "GRID"

// Config is the root of the settings tree.
type Config struct {
	Logging  Logging         `mapstructure:"logging" yaml:"logging"`
	Storage  Storage         `mapstructure:"storage" yaml:"storage"`
	Session  Session         `mapstructure:"session" yaml:"session"`
	Activity activity.Config `mapstructure:"activity" yaml:"activity"`
	Metrics  Metrics         `mapstructure:"metrics" yaml:"metrics"`
	// Types are registered in order; the first matching handler wins.
	Types []TypeHandler `mapstructure:"types" yaml:"types" validate:"dive"`
	// Defaults is the global layer of the parameter cascade.
	Defaults grid.Parameters `mapstructure:"defaults" yaml:"defaults"`
}

type Logging struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json console"`
}

type Storage struct {
	Driver   string              `mapstructure:"driver" yaml:"driver" validate:"oneof=memory postgres"`
	DSN      string              `mapstructure:"dsn" yaml:"dsn" validate:"required_if=Driver postgres"`
	Pool     storage.PoolOptions `mapstructure:"pool" yaml:"pool"`
	Migrate  bool                `mapstructure:"migrate" yaml:"migrate"`
	Fixtures string              `mapstructure:"fixtures" yaml:"fixtures"`
}

type Session struct {
	Backend string `mapstructure:"backend" yaml:"backend" validate:"oneof=memory redis badger"`
	// ID namespaces the session keys, typically the end user's session ID.
	ID     string      `mapstructure:"id" yaml:"id"`
	Redis  RedisConfig `mapstructure:"redis" yaml:"redis"`
	Badger struct {
		Dir string `mapstructure:"dir" yaml:"dir"`
	} `mapstructure:"badger" yaml:"badger"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db" validate:"gte=0"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// TypeHandler declares a grid type matched by block type patterns or by a
// rule over block_type and rewriting_class.
type TypeHandler struct {
	Code     string   `mapstructure:"code" yaml:"code" validate:"required"`
	Patterns []string `mapstructure:"patterns" yaml:"patterns" validate:"required_without=Rule"`
	Rule     string   `mapstructure:"rule" yaml:"rule"`
	Engine   string   `mapstructure:"engine" yaml:"engine" validate:"omitempty,oneof=expr cel"`
}

type Metrics struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Config {
	return Config{
		Logging: Logging{Level: "info", Format: "console"},
		Storage: Storage{Driver: "memory"},
		Session: Session{
			Backend: "memory",
			Redis:   RedisConfig{Addr: "localhost:6379", TTL: 24 * time.Hour},
		},
		Activity: activity.Config{Enabled: true, Channel: activity.DefaultChannel},
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.migrate", false)
	v.SetDefault("storage.fixtures", "")
	v.SetDefault("storage.pool.max_open_conns", 0)
	v.SetDefault("storage.pool.max_idle_conns", 0)
	v.SetDefault("storage.pool.conn_max_lifetime", time.Duration(0))
	v.SetDefault("session.backend", d.Session.Backend)
	v.SetDefault("session.id", "")
	v.SetDefault("session.redis.addr", d.Session.Redis.Addr)
	v.SetDefault("session.redis.password", "")
	v.SetDefault("session.redis.db", 0)
	v.SetDefault("session.redis.ttl", d.Session.Redis.TTL)
	v.SetDefault("session.badger.dir", "")
	v.SetDefault("activity.enabled", d.Activity.Enabled)
	v.SetDefault("activity.channel", d.Activity.Channel)
	v.SetDefault("metrics.enabled", false)
}

// New returns a viper instance wired for GRID_ environment overrides.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path, when set, applies environment overrides and validates
// the result.
func Load(path string) (Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return Decode(v)
}

// Decode unmarshals and validates the settings held by v.
func Decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
