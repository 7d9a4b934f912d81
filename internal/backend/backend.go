// Package backend opens the ledger store and the optional event publisher
// selected by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"

	"saldo/internal/amqp"
	"saldo/internal/config"
	"saldo/internal/log"
	"saldo/internal/services"
	"saldo/internal/storage"
	"saldo/internal/storage/memory"
	"saldo/internal/storage/postgres"
	"saldo/internal/storage/sqlite"
)

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = config.BackendMemory
	SQLiteBackend   BackendType = config.BackendSQLite
	PostgresBackend BackendType = config.BackendPostgres
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	}
	return false
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string
	PostgresDSN  string

	// AMQP is optional; an empty URL disables event publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	bt := BackendType(appConfig.DataBackend)
	if !bt.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type:         bt,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		PostgresDSN:  appConfig.PostgresDSN,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// Result is an opened store plus the publisher services should use. Events
// is nil when AMQP is disabled or unreachable.
type Result struct {
	Store  storage.Store
	Events services.EventPublisher
	AMQP   *amqp.Client
}

// Close releases the publisher and the store.
func (r *Result) Close() error {
	var errs []error
	if r.AMQP != nil {
		errs = append(errs, r.AMQP.Close())
	}
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	return errors.Join(errs...)
}

// Factory opens backends.
type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Default()
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Open opens the store for cfg. A broker that cannot be reached is logged
// and the backend runs without events.
func (f *Factory) Open(ctx context.Context, cfg Config) (*Result, error) {
	store, err := f.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res := &Result{Store: store}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			res.AMQP = client
			res.Events = client
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}
	return res, nil
}

func (f *Factory) openStore(ctx context.Context, cfg Config) (storage.Store, error) {
	switch cfg.Type {
	case MemoryBackend:
		f.logger.InfoContext(ctx, "Initialized memory backend")
		return memory.New(), nil
	case SQLiteBackend:
		if cfg.SQLiteDBPath == "" {
			return nil, errors.New("SQLite database path is required for sqlite backend")
		}
		store, err := sqlite.Open(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return store, nil
	case PostgresBackend:
		if cfg.PostgresDSN == "" {
			return nil, errors.New("Postgres DSN is required for postgres backend")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized Postgres backend")
		return store, nil
	}
	return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
}
