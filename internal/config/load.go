package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables. TELEGRAM_TOKEN, STORAGE_CONNECTION_STRING and
// REDIS_CONNECTION_STRING are accepted as fallbacks.
const (
	EnvConfigFile            = "TODOBOARD_CONFIG"
	EnvStoreDriver           = "TODOBOARD_STORE_DRIVER"
	EnvStoreCollection       = "TODOBOARD_STORE_COLLECTION"
	EnvSQLitePath            = "TODOBOARD_SQLITE_PATH"
	EnvMongoURI              = "TODOBOARD_MONGO_URI"
	EnvMongoDatabase         = "TODOBOARD_MONGO_DATABASE"
	EnvAzureConnectionString = "TODOBOARD_AZURE_CONNECTION_STRING"
	EnvRedisURL              = "TODOBOARD_REDIS_URL"
	EnvStoreTimeout          = "TODOBOARD_STORE_TIMEOUT"
	EnvLogLevel              = "TODOBOARD_LOG_LEVEL"
	EnvLogFormat             = "TODOBOARD_LOG_FORMAT"
	EnvLogFile               = "TODOBOARD_LOG_FILE"
	EnvTelegramToken         = "TODOBOARD_TELEGRAM_TOKEN"
	EnvDigestInterval        = "TODOBOARD_DIGEST_INTERVAL"
	EnvDigestDailyAt         = "TODOBOARD_DIGEST_DAILY_AT"
	EnvTracing               = "TODOBOARD_TRACING"
)

// Load builds the configuration:
//  1. defaults
//  2. TOML file (--config, $TODOBOARD_CONFIG, or todoboard.toml when present)
//  3. .env file, which never overrides variables already set
//  4. environment
//  5. flags that were set explicitly
//
// The .env file is read before the TOML file is located so it may name
// the file through TODOBOARD_CONFIG. A nil flags value skips step 5.
func Load(flags *Flags, changed func(name string) bool) (*Config, error) {
	cfg := Default()

	envFile := DefaultEnvFile
	explicitEnv := false
	if flags != nil && flags.EnvFile != "" {
		envFile = flags.EnvFile
		explicitEnv = changed != nil && changed(FlagEnvFile)
	}
	if err := loadDotEnv(envFile, explicitEnv); err != nil {
		return nil, err
	}

	path, explicit := configFilePath(flags)
	if path != "" {
		if err := loadConfigFile(&cfg, path, explicit); err != nil {
			return nil, err
		}
	}

	if err := loadFromEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if flags != nil && changed != nil {
		flags.apply(&cfg, changed)
	}

	return &cfg, nil
}

func configFilePath(flags *Flags) (string, bool) {
	if flags != nil && flags.ConfigFile != "" {
		return flags.ConfigFile, true
	}
	if v := strings.TrimSpace(os.Getenv(EnvConfigFile)); v != "" {
		return v, true
	}
	return DefaultConfigFile, false
}

func loadConfigFile(cfg *Config, path string, explicit bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("loading config file %s: %w", path, err)
	}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("loading config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("loading config file %s: %w: unknown key %s", path, ErrInvalidValue, undecoded[0])
	}
	return nil
}

func loadDotEnv(path string, explicit bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

func loadFromEnv(cfg *Config) error {
	setString(&cfg.Store.Driver, EnvStoreDriver)
	setString(&cfg.Store.Collection, EnvStoreCollection)
	setString(&cfg.Store.SQLitePath, EnvSQLitePath)
	setString(&cfg.Store.MongoURI, EnvMongoURI)
	setString(&cfg.Store.MongoDatabase, EnvMongoDatabase)
	setString(&cfg.Store.AzureConnectionString, "STORAGE_CONNECTION_STRING", EnvAzureConnectionString)
	setString(&cfg.Store.RedisURL, "REDIS_CONNECTION_STRING", EnvRedisURL)
	setString(&cfg.Log.Level, EnvLogLevel)
	setString(&cfg.Log.Format, EnvLogFormat)
	setString(&cfg.Log.File, EnvLogFile)
	setString(&cfg.Telegram.Token, "TELEGRAM_TOKEN", EnvTelegramToken)
	setString(&cfg.Digest.DailyAt, EnvDigestDailyAt)

	if err := setDuration(&cfg.Store.Timeout, EnvStoreTimeout); err != nil {
		return err
	}
	if err := setDuration(&cfg.Digest.Interval, EnvDigestInterval); err != nil {
		return err
	}
	if v, ok := lookup(EnvTracing); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTracing, err)
		}
		cfg.Tracing.Enabled = enabled
	}
	return nil
}

// setString assigns the last non-empty variable of names.
func setString(dst *string, names ...string) {
	for _, name := range names {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
}

func setDuration(dst *time.Duration, name string) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
