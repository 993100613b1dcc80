package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var _ BookStorage = (*sqliteBookStorage)(nil)

type sqliteBookStorage struct {
	logger *zap.Logger
	db     *sql.DB
}

// GetSQLiteClient opens (or creates) the SQLite database and applies the schema.
func GetSQLiteClient(config *SQLiteConfig) (*sql.DB, error) {
	if dir := filepath.Dir(config.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d", config.FilePath, config.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time keeps id assignment and deletes serialized.
	db.SetMaxOpenConns(1)

	if err := applySQLiteSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func applySQLiteSchema(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS books (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		image TEXT NOT NULL,
		available BOOLEAN NOT NULL DEFAULT 1
	);`)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// NewSQLiteBookStorage provides an instance of sqlite-based book storage.
func NewSQLiteBookStorage(logger *zap.Logger, db *sql.DB) *sqliteBookStorage {
	return &sqliteBookStorage{logger: logger, db: db}
}

// Close releases the underlying database handle.
func (ss *sqliteBookStorage) Close() error {
	return ss.db.Close()
}

// List returns all books ordered by id.
func (ss *sqliteBookStorage) List(ctx context.Context) ([]Book, error) {
	rows, err := ss.db.QueryContext(ctx, `SELECT id,title,author,image,available FROM books ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []Book{}
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Image, &b.Available); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// Create inserts a new available book. AUTOINCREMENT never reuses the id of a deleted row.
func (ss *sqliteBookStorage) Create(ctx context.Context, title, author, image string) (Book, error) {
	res, err := ss.db.ExecContext(ctx, `INSERT INTO books(title,author,image,available) VALUES(?,?,?,1)`, title, author, image)
	if err != nil {
		return Book{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Book{}, err
	}
	return Book{ID: id, Title: title, Author: author, Image: image, Available: true}, nil
}

// Put inserts or replaces a book under its own id.
func (ss *sqliteBookStorage) Put(ctx context.Context, book Book) error {
	_, err := ss.db.ExecContext(ctx, `INSERT INTO books(id,title,author,image,available) VALUES(?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET title=excluded.title, author=excluded.author,
		image=excluded.image, available=excluded.available`,
		book.ID, book.Title, book.Author, book.Image, book.Available)
	return err
}

// Delete removes a book record based on its ID.
func (ss *sqliteBookStorage) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := ss.db.ExecContext(ctx, `DELETE FROM books WHERE id=?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteAll empties the table and resets its AUTOINCREMENT counter.
func (ss *sqliteBookStorage) DeleteAll(ctx context.Context) error {
	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name='books'`); err != nil {
		return err
	}
	return tx.Commit()
}
