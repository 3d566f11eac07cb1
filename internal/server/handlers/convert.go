package handlers

import (
	"github.com/maruel/bookshelf/internal/models"
	"github.com/maruel/bookshelf/internal/server/dto"
	"github.com/maruel/bookshelf/internal/storage"
)

func bookToResponse(b *models.Book) dto.Book {
	return dto.Book{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		Available: b.Available,
	}
}

// booksToResponse never returns nil so an empty list encodes as [].
func booksToResponse(books []*models.Book) dto.ListBooksResponse {
	out := make(dto.ListBooksResponse, len(books))
	for i, b := range books {
		out[i] = bookToResponse(b)
	}
	return out
}

func updateRequestToPatch(req *dto.UpdateBookRequest) *storage.BookPatch {
	p := &storage.BookPatch{}
	if req.Title != "" {
		p.Title = &req.Title
	}
	if req.Author != "" {
		p.Author = &req.Author
	}
	if v, ok := req.AvailableValue(); ok {
		p.Available = &v
	}
	return p
}
