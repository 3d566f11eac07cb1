// Package models defines the records persisted by the service.
package models

import (
	"errors"
	"fmt"
)

var (
	errIDRequired     = errors.New("id must be positive")
	errTitleRequired  = errors.New("title is required")
	errAuthorRequired = errors.New("author is required")
)

// Book is a single entry of the collection.
//
// Field order matters: it is the order used on disk and on the wire.
type Book struct {
	ID        int    `json:"id" jsonschema:"description=Unique positive identifier assigned on creation"`
	Title     string `json:"title" jsonschema:"description=Book title"`
	Author    string `json:"author" jsonschema:"description=Book author"`
	Available bool   `json:"available" jsonschema:"description=Whether the book can be borrowed"`
}

// Clone returns a copy of the Book.
func (b *Book) Clone() *Book {
	c := *b
	return &c
}

// GetID returns the Book's ID.
func (b *Book) GetID() int {
	return b.ID
}

// Validate checks that the Book is valid.
func (b *Book) Validate() error {
	if b.ID <= 0 {
		return fmt.Errorf("%w, got %d", errIDRequired, b.ID)
	}
	if b.Title == "" {
		return errTitleRequired
	}
	if b.Author == "" {
		return errAuthorRequired
	}
	return nil
}
