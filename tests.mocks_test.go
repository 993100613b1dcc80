package main

import (
	"context"
	"sync"
	"time"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	ListFunc      func(ctx context.Context) ([]Book, error)
	CreateFunc    func(ctx context.Context, title, author, image string) (Book, error)
	PutFunc       func(ctx context.Context, book Book) error
	DeleteFunc    func(ctx context.Context, id int64) (bool, error)
	DeleteAllFunc func(ctx context.Context) error
}

// List mocks the behavior of retrieving all books by the repository.
func (m *MockBookStorage) List(ctx context.Context) ([]Book, error) {
	return m.ListFunc(ctx)
}

// Create mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Create(ctx context.Context, title, author, image string) (Book, error) {
	return m.CreateFunc(ctx, title, author, image)
}

// Put mocks the behavior of storing a book under its own id.
func (m *MockBookStorage) Put(ctx context.Context, book Book) error {
	return m.PutFunc(ctx, book)
}

// Delete mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Delete(ctx context.Context, id int64) (bool, error) {
	return m.DeleteFunc(ctx, id)
}

// DeleteAll mocks the behavior of emptying the repository.
func (m *MockBookStorage) DeleteAll(ctx context.Context) error {
	return m.DeleteAllFunc(ctx)
}

// MockQueue records pushed events and replays the popped ones.
type MockQueue struct {
	mu      sync.Mutex
	pushed   []string
	books    []Book
	purged   []string
	PushErr  error
	PurgeErr error
	PopFunc  func(ctx context.Context, qids ...string) (string, Book, error)
}

// Push records the queue id and the book.
func (mq *MockQueue) Push(_ context.Context, qid string, book Book) error {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	mq.pushed = append(mq.pushed, qid)
	mq.books = append(mq.books, book)
	return mq.PushErr
}

// Pop delegates to the configured function.
func (mq *MockQueue) Pop(ctx context.Context, qids ...string) (string, Book, error) {
	return mq.PopFunc(ctx, qids...)
}

// Purge records the purged queue ids.
func (mq *MockQueue) Purge(_ context.Context, qids ...string) error {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	mq.purged = append(mq.purged, qids...)
	return mq.PurgeErr
}

// Pushed returns the queue ids pushed so far.
func (mq *MockQueue) Pushed() []string {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	return append([]string(nil), mq.pushed...)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// NewTicker lets the mock act as the logger clock.
func (mck *MockClocker) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}

// MockUIDHandler implements a fake UIDGenerator.
type MockUIDHandler struct {
	MockedUID string
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}
