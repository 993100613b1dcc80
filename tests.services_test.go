package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBookService(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes after successful mutations only", func(t *testing.T) {
		queue := &MockQueue{}
		bs := NewBookService(zap.NewNop(), &Config{}, newSeededMemoryStorage(t), queue)

		book, err := bs.Create(ctx, NewBook{Title: "Dune", Author: "Frank Herbert", Image: "/images/dune.jpg"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), book.ID)

		found, err := bs.Delete(ctx, 1)
		require.NoError(t, err)
		assert.True(t, found)

		found, err = bs.Delete(ctx, 99)
		require.NoError(t, err)
		assert.False(t, found)

		assert.Equal(t, []string{CreateQueue, DeleteQueue}, queue.Pushed())
		assert.Equal(t, book, queue.books[0])
		assert.Equal(t, int64(1), queue.books[1].ID)
	})

	t.Run("publish failure does not fail the call", func(t *testing.T) {
		queue := &MockQueue{PushErr: errors.New("queue down")}
		bs := NewBookService(zap.NewNop(), &Config{}, newSeededMemoryStorage(t), queue)
		_, err := bs.Create(ctx, NewBook{Title: "Dune", Author: "Frank Herbert", Image: "/images/dune.jpg"})
		assert.NoError(t, err)
		found, err := bs.Delete(ctx, 2)
		assert.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("storage failure skips publishing", func(t *testing.T) {
		queue := &MockQueue{}
		mockRepo := &MockBookStorage{
			CreateFunc: func(ctx context.Context, title, author, image string) (Book, error) {
				return Book{}, errors.New("storage failure")
			},
			DeleteFunc: func(ctx context.Context, id int64) (bool, error) {
				return false, errors.New("storage failure")
			},
		}
		bs := NewBookService(zap.NewNop(), &Config{}, mockRepo, queue)
		_, err := bs.Create(ctx, NewBook{Title: "Dune", Author: "Frank Herbert", Image: "/images/dune.jpg"})
		assert.Error(t, err)
		_, err = bs.Delete(ctx, 1)
		assert.Error(t, err)
		assert.Empty(t, queue.Pushed())
	})

	t.Run("nil publisher is allowed", func(t *testing.T) {
		bs := NewBookService(zap.NewNop(), &Config{}, newSeededMemoryStorage(t), nil)
		_, err := bs.Create(ctx, NewBook{Title: "Dune", Author: "Frank Herbert", Image: "/images/dune.jpg"})
		assert.NoError(t, err)
	})

	t.Run("list applies the query", func(t *testing.T) {
		bs := NewBookService(zap.NewNop(), &Config{}, newSeededMemoryStorage(t), nil)
		books, err := bs.List(ctx, "  BOOK 2 ")
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, int64(2), books[0].ID)
	})
}

func TestFilterBooks(t *testing.T) {
	books := append(SeedBooks(), Book{ID: 3, Title: "Dune", Author: "Frank Herbert", Image: "/d.jpg", Available: true})

	testCases := []struct {
		query string
		ids   []int64
	}{
		{"", []int64{1, 2, 3}},
		{"   ", []int64{1, 2, 3}},
		{"dune", []int64{3}},
		{"HERBERT", []int64{3}},
		{"book", []int64{1, 2}},
		{"author 1", []int64{1}},
		{"/d.jpg", []int64{}},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			got := FilterBooks(books, tc.query)
			ids := []int64{}
			for _, b := range got {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tc.ids, ids)
			assert.NotNil(t, got)
		})
	}
}
