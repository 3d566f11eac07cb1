// Package storage implements the book collection business rules on top of a
// jsondb.Store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/maruel/bookshelf/internal/jsondb"
	"github.com/maruel/bookshelf/internal/models"
)

var (
	// ErrBookNotFound is returned when no book has the requested id.
	ErrBookNotFound = errors.New("book not found")
	// ErrInvalidBook is returned when the input fails validation. Nothing is
	// persisted in that case.
	ErrInvalidBook = errors.New("invalid book")
)

// SeedBooks returns the records written when the data file doesn't exist yet.
//
// A new slice is returned on each call.
func SeedBooks() []*models.Book {
	return []*models.Book{
		{ID: 1, Title: "The Pragmatic Programmer", Author: "Andrew Hunt and David Thomas", Available: true},
		{ID: 2, Title: "The Go Programming Language", Author: "Alan Donovan and Brian Kernighan", Available: true},
	}
}

// BookPatch lists the fields to overwrite in Update. Nil fields are left as is.
type BookPatch struct {
	Title     *string
	Author    *string
	Available *bool
}

// IsEmpty returns true when no field is supplied.
func (p *BookPatch) IsEmpty() bool {
	return p.Title == nil && p.Author == nil && p.Available == nil
}

// BookService implements the operations on the book collection.
//
// It holds no state besides the store: every call re-reads the file.
type BookService struct {
	store *jsondb.Store[*models.Book]
}

// NewBookService creates a service backed by the JSON file at path, seeded
// with SeedBooks when missing.
func NewBookService(path string) (*BookService, error) {
	store, err := jsondb.NewStore(filepath.Clean(path), SeedBooks())
	if err != nil {
		return nil, err
	}
	return &BookService{store: store}, nil
}

// Store returns the underlying store.
func (s *BookService) Store() *jsondb.Store[*models.Book] {
	return s.store
}

// Close waits for pending writes and releases the store.
func (s *BookService) Close() error {
	return s.store.Close()
}

// List returns every book in insertion order.
func (s *BookService) List(_ context.Context) ([]*models.Book, error) {
	return s.store.Load()
}

// ListAvailable returns the books that can be borrowed, in insertion order.
func (s *BookService) ListAvailable(ctx context.Context) ([]*models.Book, error) {
	books, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Book, 0, len(books))
	for _, b := range books {
		if b.Available {
			out = append(out, b)
		}
	}
	return out, nil
}

// Create appends a new book and returns it with its assigned id.
func (s *BookService) Create(ctx context.Context, title, author string, available bool) (*models.Book, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidBook)
	}
	if author == "" {
		return nil, fmt.Errorf("%w: author is required", ErrInvalidBook)
	}
	var created *models.Book
	err := s.store.Modify(func(books []*models.Book, nextID int) ([]*models.Book, error) {
		created = &models.Book{ID: nextID, Title: title, Author: author, Available: available}
		return append(books, created), nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Created book", "id", created.ID)
	return created.Clone(), nil
}

// Update overwrites the supplied fields of the book with the given id.
func (s *BookService) Update(ctx context.Context, id int, patch *BookPatch) (*models.Book, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	if patch == nil || patch.IsEmpty() {
		return nil, fmt.Errorf("%w: no field to update", ErrInvalidBook)
	}
	if patch.Title != nil && *patch.Title == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidBook)
	}
	if patch.Author != nil && *patch.Author == "" {
		return nil, fmt.Errorf("%w: author cannot be empty", ErrInvalidBook)
	}
	var updated *models.Book
	err := s.store.Modify(func(books []*models.Book, _ int) ([]*models.Book, error) {
		i := indexOf(books, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %d", ErrBookNotFound, id)
		}
		b := books[i]
		if patch.Title != nil {
			b.Title = *patch.Title
		}
		if patch.Author != nil {
			b.Author = *patch.Author
		}
		if patch.Available != nil {
			b.Available = *patch.Available
		}
		updated = b
		return books, nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Updated book", "id", id)
	return updated.Clone(), nil
}

// Delete removes the book with the given id and returns it.
func (s *BookService) Delete(ctx context.Context, id int) (*models.Book, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var deleted *models.Book
	err := s.store.Modify(func(books []*models.Book, _ int) ([]*models.Book, error) {
		i := indexOf(books, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %d", ErrBookNotFound, id)
		}
		deleted = books[i]
		return append(books[:i], books[i+1:]...), nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Deleted book", "id", id)
	return deleted.Clone(), nil
}

func checkID(id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: id must be a positive integer, got %d", ErrInvalidBook, id)
	}
	return nil
}

func indexOf(books []*models.Book, id int) int {
	for i, b := range books {
		if b.ID == id {
			return i
		}
	}
	return -1
}
