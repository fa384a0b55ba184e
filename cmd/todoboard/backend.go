package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"todo-board/internal/config"
	"todo-board/internal/repository"
	"todo-board/internal/repository/mongostore"
	"todo-board/internal/repository/redisstore"
	"todo-board/internal/repository/sqlstore"
	"todo-board/internal/repository/tablestore"
)

// openBackend connects the configured store. Network drivers must finish
// connecting within cfg.Timeout.
func openBackend(ctx context.Context, cfg config.StoreConfig, traced bool, log *logrus.Logger) (repository.Backend, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	var (
		backend repository.Backend
		err     error
	)
	switch cfg.Driver {
	case config.DriverMemory:
		backend = repository.NewMemoryBackend()
	case config.DriverSQLite:
		var s *sqlstore.Store
		if s, err = sqlstore.Open(cfg.SQLitePath, cfg.Collection, log); err == nil {
			backend = s
		}
	case config.DriverMongo:
		var s *mongostore.Store
		if s, err = mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.Collection); err == nil {
			backend = s
		}
	case config.DriverAzTables:
		var s *tablestore.Store
		if s, err = tablestore.Open(ctx, cfg.AzureConnectionString, cfg.Collection); err == nil {
			backend = s
		}
	case config.DriverRedis:
		var s *redisstore.Store
		if s, err = redisstore.Open(ctx, cfg.RedisURL, cfg.Collection); err == nil {
			backend = s
		}
	default:
		return nil, fmt.Errorf("%w %q", config.ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	log.WithField("driver", cfg.Driver).Info("store connected")
	if traced {
		backend = repository.Traced(backend, cfg.Driver)
	}
	return backend, nil
}
