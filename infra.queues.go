package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// popBlockTimeout bounds each blocking pop so a cancelled context is noticed.
const popBlockTimeout = time.Second

// Predefinied Queue IDs.
const (
	CreateQueue = "catalog.created"
	DeleteQueue = "catalog.deleted"
)

// Supported events drivers.
const (
	NoEvents    = "none"
	RedisEvents = "redis"
	AMQPEvents  = "amqp"
)

var (
	_ Queuer    = (*redisQueue)(nil)
	_ Publisher = (*noopPublisher)(nil)
)

// Publisher announces catalog changes on the queue identified by qid.
type Publisher interface {
	Push(ctx context.Context, qid string, book Book) error
}

// Queuer describes a queue which can be consumed back.
type Queuer interface {
	Publisher
	Pop(ctx context.Context, qids ...string) (string, Book, error)
	Purge(ctx context.Context, qids ...string) error
}

// redisQueue represents a queue which implements the Queuer interface.
type redisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *redisQueue {
	return &redisQueue{client: client}
}

// Push enqueues a book onto the queue identified by qid.
func (q *redisQueue) Push(ctx context.Context, qid string, book Book) error {
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, qid, bookBytes).Err()
}

// Pop returns the first dequeued book from the list of queue ids. It blocks
// until an event arrives or the context is done.
func (q *redisQueue) Pop(ctx context.Context, qids ...string) (string, Book, error) {
	var book Book
	var qid string
	var infos []string
	var err error
	for {
		if err = ctx.Err(); err != nil {
			return qid, book, err
		}
		infos, err = q.client.BLPop(ctx, popBlockTimeout, qids...).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return qid, book, err
		}
		break
	}

	if err = json.Unmarshal([]byte(infos[1]), &book); err != nil {
		return qid, book, err
	}
	qid = infos[0]
	return qid, book, nil
}

// Purge drops every pending event of the given queue ids.
func (q *redisQueue) Purge(ctx context.Context, qids ...string) error {
	if len(qids) == 0 {
		return nil
	}
	return q.client.Del(ctx, qids...).Err()
}

// noopPublisher drops every event. Used when no events driver is configured.
type noopPublisher struct{}

func (noopPublisher) Push(context.Context, string, Book) error { return nil }
