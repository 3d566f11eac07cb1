package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/maruel/bookshelf/internal/jsondb"
	"github.com/maruel/bookshelf/internal/server/dto"
	"github.com/maruel/bookshelf/internal/storage"
)

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{"api error", dto.MissingField("title"), http.StatusBadRequest, dto.ErrorCodeMissingField},
		{"not found", fmt.Errorf("%w: 3", storage.ErrBookNotFound), http.StatusNotFound, dto.ErrorCodeNotFound},
		{"invalid", fmt.Errorf("%w: title is required", storage.ErrInvalidBook), http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"corrupt", fmt.Errorf("%w: /data/books.json: bad", jsondb.ErrCorrupt), http.StatusInternalServerError, dto.ErrorCodeStorageCorrupt},
		{"unavailable", fmt.Errorf("%w: disk full", jsondb.ErrUnavailable), http.StatusInternalServerError, dto.ErrorCodeStorageError},
		{"closed", jsondb.ErrClosed, http.StatusInternalServerError, dto.ErrorCodeStorageError},
		{"other", errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := toAPIError(t.Context(), tt.err)
			var apiErr *dto.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("toAPIError() = %T, want *dto.APIError", err)
			}
			if apiErr.StatusCode() != tt.status || apiErr.Code() != tt.code {
				t.Errorf("toAPIError() = %d %s, want %d %s", apiErr.StatusCode(), apiErr.Code(), tt.status, tt.code)
			}
			if strings.Contains(apiErr.Error(), "/data/books.json") {
				t.Errorf("message leaks the path: %q", apiErr.Error())
			}
		})
	}
	if got := toAPIError(t.Context(), fmt.Errorf("%w: title is required", storage.ErrInvalidBook)).Error(); got != "title is required" {
		t.Errorf("message = %q, want %q", got, "title is required")
	}
}
