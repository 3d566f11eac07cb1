// Package handlers implements the API endpoints on top of the storage services.
package handlers

import (
	"context"

	"github.com/maruel/bookshelf/internal/server/dto"
	"github.com/maruel/bookshelf/internal/storage"
)

// BookHandler handles the /books endpoints.
type BookHandler struct {
	svc *storage.BookService
}

// NewBookHandler creates a new book handler.
func NewBookHandler(svc *storage.BookService) *BookHandler {
	return &BookHandler{svc: svc}
}

// ListBooks returns every book.
func (h *BookHandler) ListBooks(ctx context.Context, _ *dto.ListBooksRequest) (*dto.ListBooksResponse, error) {
	books, err := h.svc.List(ctx)
	if err != nil {
		return nil, toAPIError(ctx, err)
	}
	resp := booksToResponse(books)
	return &resp, nil
}

// ListAvailableBooks returns the books that can be borrowed.
func (h *BookHandler) ListAvailableBooks(ctx context.Context, _ *dto.ListAvailableBooksRequest) (*dto.ListBooksResponse, error) {
	books, err := h.svc.ListAvailable(ctx)
	if err != nil {
		return nil, toAPIError(ctx, err)
	}
	resp := booksToResponse(books)
	return &resp, nil
}

// CreateBook adds a book.
func (h *BookHandler) CreateBook(ctx context.Context, req *dto.CreateBookRequest) (*dto.CreateBookResponse, error) {
	b, err := h.svc.Create(ctx, req.Title, req.Author, req.IsAvailable())
	if err != nil {
		return nil, toAPIError(ctx, err)
	}
	return &dto.CreateBookResponse{Book: bookToResponse(b)}, nil
}

// UpdateBook overwrites the supplied fields of a book.
func (h *BookHandler) UpdateBook(ctx context.Context, req *dto.UpdateBookRequest) (*dto.UpdateBookResponse, error) {
	b, err := h.svc.Update(ctx, req.ID, updateRequestToPatch(req))
	if err != nil {
		return nil, toAPIError(ctx, err)
	}
	resp := bookToResponse(b)
	return &resp, nil
}

// DeleteBook removes a book.
func (h *BookHandler) DeleteBook(ctx context.Context, req *dto.DeleteBookRequest) (*dto.DeleteBookResponse, error) {
	b, err := h.svc.Delete(ctx, req.ID)
	if err != nil {
		return nil, toAPIError(ctx, err)
	}
	return &dto.DeleteBookResponse{Message: "Deleted", Book: bookToResponse(b)}, nil
}
