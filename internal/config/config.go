// Package config loads runtime settings from defaults, an optional TOML
// file, a .env file, the environment and command-line flags, in that order
// of increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
	DriverAzTables = "aztables"
	DriverRedis    = "redis"
)

const (
	DefaultConfigFile    = "todoboard.toml"
	DefaultEnvFile       = ".env"
	DefaultCollection    = "todos"
	DefaultSQLitePath    = "todos.db"
	DefaultMongoDatabase = "todo_board"
	DefaultStoreTimeout  = 10 * time.Second
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)

var (
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrMissingValue  = errors.New("missing required setting")
	ErrInvalidValue  = errors.New("invalid setting")
)

// Config keeps runtime settings for every command.
type Config struct {
	Store    StoreConfig    `toml:"store"`
	Log      LogConfig      `toml:"log"`
	Telegram TelegramConfig `toml:"telegram"`
	Digest   DigestConfig   `toml:"digest"`
	Tracing  TracingConfig  `toml:"tracing"`
}

type StoreConfig struct {
	Driver                string        `toml:"driver"`
	Collection            string        `toml:"collection"`
	SQLitePath            string        `toml:"sqlite_path"`
	MongoURI              string        `toml:"mongo_uri"`
	MongoDatabase         string        `toml:"mongo_database"`
	AzureConnectionString string        `toml:"azure_connection_string"`
	RedisURL              string        `toml:"redis_url"`
	Timeout               time.Duration `toml:"timeout"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// File receives log output when set. The terminal board always logs to
	// a file so the screen stays clean.
	File string `toml:"file"`
}

type TelegramConfig struct {
	Token string `toml:"token"`
}

// DigestConfig schedules the deadline digest sent to bot chats. Interval
// and DailyAt may both be set; zero values disable the schedule.
type DigestConfig struct {
	Interval time.Duration `toml:"interval"`
	DailyAt  string        `toml:"daily_at"`
}

type TracingConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Driver:        DriverSQLite,
			Collection:    DefaultCollection,
			SQLitePath:    DefaultSQLitePath,
			MongoDatabase: DefaultMongoDatabase,
			Timeout:       DefaultStoreTimeout,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Validate checks settings every command needs.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			errs = append(errs, fmt.Errorf("%w: store.sqlite_path", ErrMissingValue))
		}
	case DriverMongo:
		if strings.TrimSpace(c.Store.MongoURI) == "" {
			errs = append(errs, fmt.Errorf("%w: store.mongo_uri", ErrMissingValue))
		}
	case DriverAzTables:
		if strings.TrimSpace(c.Store.AzureConnectionString) == "" {
			errs = append(errs, fmt.Errorf("%w: store.azure_connection_string", ErrMissingValue))
		}
	case DriverRedis:
		if strings.TrimSpace(c.Store.RedisURL) == "" {
			errs = append(errs, fmt.Errorf("%w: store.redis_url", ErrMissingValue))
		}
	default:
		errs = append(errs, fmt.Errorf("%w %q", ErrUnknownDriver, c.Store.Driver))
	}

	if strings.TrimSpace(c.Store.Collection) == "" {
		errs = append(errs, fmt.Errorf("%w: store.collection", ErrMissingValue))
	}
	if c.Store.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%w: store.timeout must not be negative", ErrInvalidValue))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: log.level: %w", ErrInvalidValue, err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("%w: log.format %q (want text or json)", ErrInvalidValue, c.Log.Format))
	}
	if c.Digest.Interval < 0 {
		errs = append(errs, fmt.Errorf("%w: digest.interval must not be negative", ErrInvalidValue))
	}
	if c.Digest.DailyAt != "" {
		if _, err := time.Parse("15:04", c.Digest.DailyAt); err != nil {
			errs = append(errs, fmt.Errorf("%w: digest.daily_at %q (want HH:MM)", ErrInvalidValue, c.Digest.DailyAt))
		}
	}
	return errors.Join(errs...)
}

// ValidateBot checks the extra settings of the Telegram surface.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return fmt.Errorf("%w: telegram.token", ErrMissingValue)
	}
	return nil
}

// Fields describes the effective settings without secrets.
func (c *Config) Fields() logrus.Fields {
	fields := logrus.Fields{
		"driver":     c.Store.Driver,
		"collection": c.Store.Collection,
		"timeout":    c.Store.Timeout.String(),
		"tracing":    c.Tracing.Enabled,
	}
	switch c.Store.Driver {
	case DriverSQLite:
		fields["sqlite_path"] = c.Store.SQLitePath
	case DriverMongo:
		fields["mongo_database"] = c.Store.MongoDatabase
	}
	if c.Digest.Interval > 0 {
		fields["digest_interval"] = c.Digest.Interval.String()
	}
	if c.Digest.DailyAt != "" {
		fields["digest_daily_at"] = c.Digest.DailyAt
	}
	return fields
}
