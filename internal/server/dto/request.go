package dto

import (
	"bytes"
	"encoding/json"
)

// Validatable is implemented by every request type. Wrap calls Validate after
// binding the body and path parameters, before calling the handler.
type Validatable interface {
	Validate() error
}

// --- Common ---

// EmptyRequest is the request of endpoints taking no input.
type EmptyRequest struct{}

// Validate is a no-op for EmptyRequest.
func (r *EmptyRequest) Validate() error {
	return nil
}

// --- Books ---

// ListBooksRequest is a request to list all books.
type ListBooksRequest = EmptyRequest

// ListAvailableBooksRequest is a request to list books that can be borrowed.
type ListAvailableBooksRequest = EmptyRequest

// CreateBookRequest is a request to add a book.
type CreateBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	// Available is kept raw: only a JSON boolean is honored, anything else
	// means true.
	Available json.RawMessage `json:"available,omitempty"`
}

// Validate validates the create book request fields.
func (r *CreateBookRequest) Validate() error {
	if r.Title == "" {
		return MissingField("title")
	}
	if r.Author == "" {
		return MissingField("author")
	}
	return nil
}

// IsAvailable returns the requested availability, true unless a JSON boolean
// says otherwise.
func (r *CreateBookRequest) IsAvailable() bool {
	var b bool
	if isNull(r.Available) || json.Unmarshal(r.Available, &b) != nil {
		return true
	}
	return b
}

// UpdateBookRequest is a request to modify some fields of a book.
//
// Empty strings are treated as absent. Available is present when the key is in
// the body, even with a null value.
type UpdateBookRequest struct {
	ID        int             `path:"id" json:"-"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Available json.RawMessage `json:"available,omitempty"`
}

// Validate validates the update book request fields.
func (r *UpdateBookRequest) Validate() error {
	if err := validateID(r.ID); err != nil {
		return err
	}
	if r.Title == "" && r.Author == "" && len(r.Available) == 0 {
		return BadRequest("At least one of title, author or available is required")
	}
	return nil
}

// AvailableValue returns the coerced availability and whether it was supplied.
//
// false, null, 0 and "" are false; any other value is true.
func (r *UpdateBookRequest) AvailableValue() (value, ok bool) {
	if len(r.Available) == 0 {
		return false, false
	}
	var v any
	if err := json.Unmarshal(r.Available, &v); err != nil {
		return false, true
	}
	switch t := v.(type) {
	case nil:
		return false, true
	case bool:
		return t, true
	case float64:
		return t != 0, true
	case string:
		return t != "", true
	default:
		return true, true
	}
}

// DeleteBookRequest is a request to remove a book.
type DeleteBookRequest struct {
	ID int `path:"id" json:"-"`
}

// Validate validates the delete book request fields.
func (r *DeleteBookRequest) Validate() error {
	return validateID(r.ID)
}

// validateID checks an id bound from the path. Unparsable values are bound as
// 0 so they fail here too.
func validateID(id int) error {
	if id <= 0 {
		return InvalidFormat("id", "id must be a positive integer")
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
