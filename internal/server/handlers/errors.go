// Maps service errors to API errors.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/maruel/bookshelf/internal/jsondb"
	"github.com/maruel/bookshelf/internal/server/dto"
	"github.com/maruel/bookshelf/internal/storage"
)

// toAPIError converts an error from the storage layer into a dto.APIError.
//
// Server side failures are logged with their cause, which is not sent to the
// client.
func toAPIError(ctx context.Context, err error) error {
	var apiErr *dto.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, storage.ErrBookNotFound):
		return dto.NotFound("book")
	case errors.Is(err, storage.ErrInvalidBook):
		msg := strings.TrimPrefix(err.Error(), storage.ErrInvalidBook.Error()+": ")
		return dto.BadRequest(msg)
	case errors.Is(err, jsondb.ErrCorrupt):
		slog.ErrorContext(ctx, "Data file is corrupt", "err", err)
		return dto.StorageCorrupt()
	case errors.Is(err, jsondb.ErrUnavailable), errors.Is(err, jsondb.ErrClosed):
		slog.ErrorContext(ctx, "Storage failure", "err", err)
		return dto.StorageError()
	default:
		slog.ErrorContext(ctx, "Unexpected error", "err", err)
		return dto.Internal("internal error")
	}
}
