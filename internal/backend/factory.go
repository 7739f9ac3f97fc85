package backend

import (
	"context"
	"fmt"
	"log/slog"

	"expensify/internal/storage"
	"expensify/internal/storage/memory"
	"expensify/internal/storage/mongostore"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// Open implements Factory.Open. The returned store has been pinged.
func (f *DefaultFactory) Open(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *Result
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.openSQLite(config)
	case MemoryBackend:
		res = f.openMemory()
	case MongoBackend:
		res, err = f.openMongo(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := res.Store.Ping(ctx); err != nil {
		_ = res.Cleanup()
		return nil, fmt.Errorf("ping %s backend: %w", config.Type, err)
	}
	return res, nil
}

func (f *DefaultFactory) openSQLite(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &Result{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) openMemory() *Result {
	store := memory.New()
	f.logger.Warn("Initialized memory backend, data is lost on restart")
	return &Result{Store: store, Cleanup: store.Close}
}

func (f *DefaultFactory) openMongo(ctx context.Context, config Config) (*Result, error) {
	store, err := mongostore.New(ctx, config.MongoURI, config.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB store: %w", err)
	}

	f.logger.Info("Initialized MongoDB backend", "database", config.MongoDatabase)
	return &Result{Store: store, Cleanup: store.Close}, nil
}
