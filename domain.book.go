package main

import "context"

// Book represents a catalog entry.
type Book struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Image     string `json:"image"`
	Available bool   `json:"available"`
}

// NewBook is the payload of a book creation request.
type NewBook struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Image  string `json:"image"`
}

// BookStorage defines possible operations on the catalog.
type BookStorage interface {
	List(ctx context.Context) ([]Book, error)
	Create(ctx context.Context, title, author, image string) (Book, error)
	Put(ctx context.Context, book Book) error
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteAll(ctx context.Context) error
}

// SeedBooks returns the records every catalog starts with.
func SeedBooks() []Book {
	return []Book{
		{ID: 1, Title: "Book 1", Author: "Author 1", Image: "/images/book1.jpg", Available: true},
		{ID: 2, Title: "Book 2", Author: "Author 2", Image: "/images/book2.jpg", Available: true},
	}
}
