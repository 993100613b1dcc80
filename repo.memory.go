package main

import (
	"context"
	"sync"
)

var _ BookStorage = (*memoryBookStorage)(nil)

// memoryBookStorage keeps the catalog in a slice ordered by insertion.
// Ids come from a counter which only moves forward, so a deleted id
// is never handed out again.
type memoryBookStorage struct {
	mu     sync.RWMutex
	books  []Book
	lastID int64
}

// NewMemoryBookStorage provides an empty in-memory book storage.
func NewMemoryBookStorage() *memoryBookStorage {
	return &memoryBookStorage{books: []Book{}}
}

// List returns a copy of all records in insertion order.
func (ms *memoryBookStorage) List(_ context.Context) ([]Book, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	books := make([]Book, len(ms.books))
	copy(books, ms.books)
	return books, nil
}

// Create appends a new available book with the next id.
func (ms *memoryBookStorage) Create(_ context.Context, title, author, image string) (Book, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.lastID++
	book := Book{
		ID:        ms.lastID,
		Title:     title,
		Author:    author,
		Image:     image,
		Available: true,
	}
	ms.books = append(ms.books, book)
	return book, nil
}

// Put replaces the record with the same id or appends it.
func (ms *memoryBookStorage) Put(_ context.Context, book Book) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if book.ID > ms.lastID {
		ms.lastID = book.ID
	}
	for i := range ms.books {
		if ms.books[i].ID == book.ID {
			ms.books[i] = book
			return nil
		}
	}
	ms.books = append(ms.books, book)
	return nil
}

// Delete removes the record with the given id and reports if it was present.
func (ms *memoryBookStorage) Delete(_ context.Context, id int64) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for i := range ms.books {
		if ms.books[i].ID == id {
			ms.books = append(ms.books[:i], ms.books[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// DeleteAll empties the catalog and resets the id counter.
func (ms *memoryBookStorage) DeleteAll(_ context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.books = []Book{}
	ms.lastID = 0
	return nil
}
