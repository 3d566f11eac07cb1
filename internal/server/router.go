// Package server implements the HTTP server and routing logic.
package server

import (
	"net/http"

	"github.com/maruel/bookshelf/internal/server/handlers"
	"github.com/maruel/bookshelf/internal/server/ipgeo"
	"github.com/maruel/bookshelf/internal/server/ratelimit"
	"github.com/maruel/bookshelf/internal/storage"
)

// Config holds the server settings shared by the handlers.
//
// A nil *Config serves with no body size limit and no rate limiting.
type Config struct {
	Name    string
	Version string
	// MaxRequestBodyBytes limits request bodies. 0 means unlimited.
	MaxRequestBodyBytes int64
	// RateLimits is optional.
	RateLimits *ratelimit.Config
	// IPGeo is optional.
	IPGeo *ipgeo.Checker
}

func (c *Config) rateLimits() *ratelimit.Config {
	if c == nil {
		return nil
	}
	return c.RateLimits
}

func (c *Config) maxRequestBodyBytes() int64 {
	if c == nil {
		return 0
	}
	return c.MaxRequestBodyBytes
}

// NewRouter creates and configures the HTTP router.
//
// Every route not listed answers a 404 JSON error.
func NewRouter(svc *storage.BookService, cfg *Config) http.Handler {
	name, version := "bookshelf", "dev"
	var geo *ipgeo.Checker
	if cfg != nil {
		if cfg.Name != "" {
			name = cfg.Name
		}
		if cfg.Version != "" {
			version = cfg.Version
		}
		geo = cfg.IPGeo
	}
	bh := handlers.NewBookHandler(svc)
	ih := handlers.NewIndexHandler(name, version)

	mux := &http.ServeMux{}
	mux.Handle("GET /{$}", Wrap(ih.Index, cfg))
	mux.Handle("GET /books", Wrap(bh.ListBooks, cfg))
	mux.Handle("GET /books/available", Wrap(bh.ListAvailableBooks, cfg))
	mux.Handle("POST /books", Wrap(bh.CreateBook, cfg))
	mux.Handle("PUT /books/{id}", Wrap(bh.UpdateBook, cfg))
	mux.Handle("DELETE /books/{id}", Wrap(bh.DeleteBook, cfg))
	mux.HandleFunc("/", notFound)
	return withRequestMetadata(mux, geo)
}
