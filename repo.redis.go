package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HBooks       string = "catalog:books"
	ZBooksOrder  string = "catalog:books:order"
	KBooksLastID string = "catalog:books:seq"
)

var _ BookStorage = (*redisBookStorage)(nil)

// bumpLastID moves the id counter forward to ARGV[1] if it is behind.
var bumpLastID = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local candidate = tonumber(ARGV[1])
if candidate > current then
	redis.call("SET", KEYS[1], ARGV[1])
	return candidate
end
return current
`)

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
}

// NewRedisBookStorage provides an instance of redis-based book storage.
func NewRedisBookStorage(logger *zap.Logger, client *redis.Client) *redisBookStorage {
	return &redisBookStorage{
		logger: logger,
		client: client,
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// List retrieves all books following the order of their ids.
func (rs *redisBookStorage) List(ctx context.Context) ([]Book, error) {
	ids, err := rs.client.ZRange(ctx, ZBooksOrder, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	books := []Book{}
	if len(ids) == 0 {
		return books, nil
	}
	values, err := rs.client.HMGet(ctx, HBooks, ids...).Result()
	if err != nil {
		return nil, err
	}
	for i, value := range values {
		bookJSONString, ok := value.(string)
		if !ok {
			// removed between both calls.
			rs.logger.Debug("redis: book vanished during listing", zap.String("book.id", ids[i]))
			continue
		}
		var book Book
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}

// Create reserves the next id then stores the book and its ordering entry atomically.
func (rs *redisBookStorage) Create(ctx context.Context, title, author, image string) (Book, error) {
	id, err := rs.client.Incr(ctx, KBooksLastID).Result()
	if err != nil {
		return Book{}, err
	}
	book := Book{ID: id, Title: title, Author: author, Image: image, Available: true}
	return book, rs.save(ctx, book)
}

// Put inserts or replaces a book under its own id.
func (rs *redisBookStorage) Put(ctx context.Context, book Book) error {
	if err := rs.save(ctx, book); err != nil {
		return err
	}
	return bumpLastID.Run(ctx, rs.client, []string{KBooksLastID}, book.ID).Err()
}

func (rs *redisBookStorage) save(ctx context.Context, book Book) error {
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return err
	}
	field := strconv.FormatInt(book.ID, 10)
	_, err = rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, HBooks, field, bookBytes)
		pipe.ZAdd(ctx, ZBooksOrder, redis.Z{Score: float64(book.ID), Member: field})
		return nil
	})
	return err
}

// Delete removes a book record based on its ID.
func (rs *redisBookStorage) Delete(ctx context.Context, id int64) (bool, error) {
	var removed *redis.IntCmd
	field := strconv.FormatInt(id, 10)
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.HDel(ctx, HBooks, field)
		pipe.ZRem(ctx, ZBooksOrder, field)
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed.Val() > 0, nil
}

// DeleteAll drops every catalog key including the id counter.
func (rs *redisBookStorage) DeleteAll(ctx context.Context) error {
	return rs.client.Del(ctx, HBooks, ZBooksOrder, KBooksLastID).Err()
}
