package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// popRetryDelay is the pause after a failed queue pop call.
const popRetryDelay = time.Second

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// mirrorConsumer replays catalog events onto a secondary storage.
type mirrorConsumer struct {
	logger *zap.Logger
	queue  Queuer
	repo   BookStorage
	wait   time.Duration
}

func NewMirrorConsumer(logger *zap.Logger, q Queuer, repo BookStorage) Consumer {
	return &mirrorConsumer{logger, q, repo, popRetryDelay}
}

// ResetMirror restores the mirror to the seed books. Events still pending
// on the queue ids belong to a previous catalog and are dropped first.
func ResetMirror(ctx context.Context, q Queuer, mirror BookStorage, books []Book, qids ...string) error {
	if err := q.Purge(ctx, qids...); err != nil {
		return fmt.Errorf("failed to purge queues %v: %w", qids, err)
	}
	return SeedBookStorage(ctx, mirror, books)
}

func (mc *mirrorConsumer) Consume(ctx context.Context, qids ...string) error {
	for {
		qid, book, err := mc.queue.Pop(ctx, qids...)
		if err != nil && ctx.Err() != nil {
			mc.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}

		if err != nil {
			mc.logger.Error("consumer: error on queue pop call", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(mc.wait):
			}
			continue
		}

		switch qid {
		case CreateQueue:
			if err = mc.repo.Put(ctx, book); err != nil {
				mc.logger.Error("consumer: failed to create", zap.Any("book", book), zap.Error(err))
			}
		case DeleteQueue:
			if _, err = mc.repo.Delete(ctx, book.ID); err != nil {
				mc.logger.Error("consumer: failed to delete", zap.Int64("book.id", book.ID), zap.Error(err))
			}
		default:
			mc.logger.Warn("consumer: received book on unknow queue id", zap.String("qid", qid), zap.Any("book", book))
		}
	}
}
