package main

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	List(ctx context.Context, query string) ([]Book, error)
	Create(ctx context.Context, nb NewBook) (Book, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type BookService struct {
	logger    *zap.Logger
	config    *Config
	storage   BookStorage
	publisher Publisher
}

func NewBookService(logger *zap.Logger, config *Config, storage BookStorage, publisher Publisher) BookServiceProvider {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &BookService{
		logger:    logger,
		config:    config,
		storage:   storage,
		publisher: publisher,
	}
}

// List returns the catalog, keeping only books whose title or author
// contains the query, ignoring case. An empty query keeps everything.
func (bs *BookService) List(ctx context.Context, query string) ([]Book, error) {
	books, err := bs.storage.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterBooks(books, query), nil
}

func (bs *BookService) Create(ctx context.Context, nb NewBook) (Book, error) {
	book, err := bs.storage.Create(ctx, nb.Title, nb.Author, nb.Image)
	if err != nil {
		return book, err
	}
	if err := bs.publisher.Push(ctx, CreateQueue, book); err != nil {
		bs.logger.Error("service: failed to push book to queue", zap.String("qid", CreateQueue), zap.Error(err))
	}
	return book, nil
}

func (bs *BookService) Delete(ctx context.Context, id int64) (bool, error) {
	found, err := bs.storage.Delete(ctx, id)
	if err != nil || !found {
		return found, err
	}
	if err := bs.publisher.Push(ctx, DeleteQueue, Book{ID: id}); err != nil {
		bs.logger.Error("service: failed to push to queue", zap.String("qid", DeleteQueue), zap.Error(err))
	}
	return true, nil
}

// FilterBooks keeps the books matching the query on title or author.
func FilterBooks(books []Book, query string) []Book {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return books
	}
	matches := []Book{}
	for _, book := range books {
		if strings.Contains(strings.ToLower(book.Title), query) ||
			strings.Contains(strings.ToLower(book.Author), query) {
			matches = append(matches, book)
		}
	}
	return matches
}
