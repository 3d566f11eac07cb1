package handlers

import (
	"context"

	"github.com/maruel/bookshelf/internal/server/dto"
)

// IndexHandler describes the API at its root.
type IndexHandler struct {
	name    string
	version string
}

// NewIndexHandler creates a new index handler.
func NewIndexHandler(name, version string) *IndexHandler {
	return &IndexHandler{name: name, version: version}
}

// Endpoints lists the routes served by the API.
var Endpoints = []dto.Endpoint{
	{Method: "GET", Path: "/", Description: "This document"},
	{Method: "GET", Path: "/books", Description: "List all books"},
	{Method: "GET", Path: "/books/available", Description: "List available books"},
	{Method: "POST", Path: "/books", Description: "Create a book from {title, author, available?}"},
	{Method: "PUT", Path: "/books/{id}", Description: "Update some fields of a book"},
	{Method: "DELETE", Path: "/books/{id}", Description: "Delete a book"},
}

// Index returns the service name, version and routes.
func (h *IndexHandler) Index(_ context.Context, _ *dto.EmptyRequest) (*dto.IndexResponse, error) {
	return &dto.IndexResponse{
		Name:      h.name,
		Version:   h.version,
		Endpoints: Endpoints,
	}, nil
}
