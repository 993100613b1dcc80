package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Supported storage drivers.
const (
	MemoryStorage = "memory"
	RedisStorage  = "redis"
	BoltStorage   = "bolt"
	SQLiteStorage = "sqlite"
)

var ErrUnsupportedStorage = errors.New("unsupported storage driver")

// NewBookStorage builds the storage selected by the configuration. The redis
// client is shared with the events queue so it is provided by the caller and
// may be nil for the other drivers. The returned closer releases the driver
// resources owned by the storage itself.
func NewBookStorage(logger *zap.Logger, config *Config, redisClient *redis.Client) (BookStorage, func() error, error) {
	noop := func() error { return nil }
	switch config.Storage.Driver {
	case MemoryStorage, "":
		return NewMemoryBookStorage(), noop, nil
	case RedisStorage:
		if redisClient == nil {
			return nil, noop, errors.New("redis storage requires a redis client")
		}
		return NewRedisBookStorage(logger, redisClient), noop, nil
	case BoltStorage:
		client, err := GetBoltDBClient(&config.BoltDB)
		if err != nil {
			return nil, noop, err
		}
		bs := NewBoltBookStorage(logger, &config.BoltDB, client)
		return bs, bs.Close, nil
	case SQLiteStorage:
		db, err := GetSQLiteClient(&config.SQLite)
		if err != nil {
			return nil, noop, err
		}
		ss := NewSQLiteBookStorage(logger, db)
		return ss, ss.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: %q", ErrUnsupportedStorage, config.Storage.Driver)
	}
}

// SeedBookStorage resets the storage then loads the given books into it,
// so every process starts from the same catalog whatever the driver.
func SeedBookStorage(ctx context.Context, storage BookStorage, books []Book) error {
	if err := storage.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to reset storage: %w", err)
	}
	for _, book := range books {
		if err := storage.Put(ctx, book); err != nil {
			return fmt.Errorf("failed to seed book %d: %w", book.ID, err)
		}
	}
	return nil
}
