package dto

import "net/http"

// --- Books ---

// Book is a book record as returned by the API.
type Book struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Available bool   `json:"available"`
}

// ListBooksResponse is a response containing books in insertion order.
//
// It is encoded as a bare JSON array.
type ListBooksResponse []Book

// CreateBookResponse is the book created by a create request.
type CreateBookResponse struct {
	Book
}

// HTTPStatus makes Wrap answer 201 Created.
func (r *CreateBookResponse) HTTPStatus() int {
	return http.StatusCreated
}

// UpdateBookResponse is the book after an update.
type UpdateBookResponse = Book

// DeleteBookResponse is a response from deleting a book.
type DeleteBookResponse struct {
	Message string `json:"message"`
	Book    Book   `json:"book"`
}

// --- Index ---

// Endpoint describes a route of the API.
type Endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// IndexResponse describes the service and its routes.
type IndexResponse struct {
	Name      string     `json:"name"`
	Version   string     `json:"version"`
	Endpoints []Endpoint `json:"endpoints"`
}
