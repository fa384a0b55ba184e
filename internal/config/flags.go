package config

import (
	"time"

	"github.com/spf13/cobra"
)

// Flag names.
const (
	FlagConfig        = "config"
	FlagEnvFile       = "env-file"
	FlagDriver        = "driver"
	FlagCollection    = "collection"
	FlagSQLitePath    = "sqlite-path"
	FlagMongoURI      = "mongo-uri"
	FlagRedisURL      = "redis-url"
	FlagStoreTimeout  = "store-timeout"
	FlagLogLevel      = "log-level"
	FlagLogFormat     = "log-format"
	FlagLogFile       = "log-file"
	FlagTelegramToken = "telegram-token"
	FlagTracing       = "tracing"
)

// Flags holds command-line overrides. Only flags the user actually set
// take part in Load.
type Flags struct {
	ConfigFile    string
	EnvFile       string
	Driver        string
	Collection    string
	SQLitePath    string
	MongoURI      string
	RedisURL      string
	StoreTimeout  time.Duration
	LogLevel      string
	LogFormat     string
	LogFile       string
	TelegramToken string
	Tracing       bool
}

// BindFlags registers the persistent flags of cmd.
func BindFlags(cmd *cobra.Command) *Flags {
	f := &Flags{}
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.ConfigFile, FlagConfig, "", "TOML config file (default todoboard.toml when present)")
	pf.StringVar(&f.EnvFile, FlagEnvFile, DefaultEnvFile, "dotenv file loaded into the environment")
	pf.StringVar(&f.Driver, FlagDriver, "", "store driver: memory, sqlite, mongo, aztables or redis")
	pf.StringVar(&f.Collection, FlagCollection, "", "table or collection name")
	pf.StringVar(&f.SQLitePath, FlagSQLitePath, "", "SQLite database file")
	pf.StringVar(&f.MongoURI, FlagMongoURI, "", "MongoDB connection URI")
	pf.StringVar(&f.RedisURL, FlagRedisURL, "", "Redis URL or host,password=...,ssl=true")
	pf.DurationVar(&f.StoreTimeout, FlagStoreTimeout, 0, "timeout for opening the store")
	pf.StringVar(&f.LogLevel, FlagLogLevel, "", "log level")
	pf.StringVar(&f.LogFormat, FlagLogFormat, "", "log format: text or json")
	pf.StringVar(&f.LogFile, FlagLogFile, "", "write logs to this file")
	pf.StringVar(&f.TelegramToken, FlagTelegramToken, "", "Telegram bot token")
	pf.BoolVar(&f.Tracing, FlagTracing, false, "record OpenTelemetry spans for store calls")
	return f
}

func (f *Flags) apply(cfg *Config, changed func(string) bool) {
	str := func(name string, dst *string, v string) {
		if changed(name) {
			*dst = v
		}
	}
	str(FlagDriver, &cfg.Store.Driver, f.Driver)
	str(FlagCollection, &cfg.Store.Collection, f.Collection)
	str(FlagSQLitePath, &cfg.Store.SQLitePath, f.SQLitePath)
	str(FlagMongoURI, &cfg.Store.MongoURI, f.MongoURI)
	str(FlagRedisURL, &cfg.Store.RedisURL, f.RedisURL)
	str(FlagLogLevel, &cfg.Log.Level, f.LogLevel)
	str(FlagLogFormat, &cfg.Log.Format, f.LogFormat)
	str(FlagLogFile, &cfg.Log.File, f.LogFile)
	str(FlagTelegramToken, &cfg.Telegram.Token, f.TelegramToken)
	if changed(FlagStoreTimeout) {
		cfg.Store.Timeout = f.StoreTimeout
	}
	if changed(FlagTracing) {
		cfg.Tracing.Enabled = f.Tracing
	}
}
