package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/maruel/bookshelf/internal/server/dto"
)

func TestPopulatePathParams(t *testing.T) {
	type params struct {
		Name  string `path:"name"`
		ID    int    `path:"id"`
		Other int
	}
	tests := []struct {
		id, name string
		want     params
	}{
		{"42", "x", params{Name: "x", ID: 42}},
		{"-7", "", params{ID: -7}},
		{"abc", "y", params{Name: "y"}},
		{"1e3", "", params{}},
		{"", "", params{}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			r.SetPathValue("id", tt.id)
			r.SetPathValue("name", tt.name)
			var got params
			populatePathParams(r, &got)
			if got != tt.want {
				t.Errorf("populatePathParams() = %+v, want %+v", got, tt.want)
			}
		})
	}
	// Non pointers and non structs are ignored.
	r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	populatePathParams(r, params{})
	n := 3
	populatePathParams(r, &n)
}

func TestWriteJSONResponse(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		w := httptest.NewRecorder()
		writeJSONResponse(t.Context(), w, &dto.Book{ID: 1, Title: "T", Author: "A"}, nil)
		if w.Code != http.StatusOK {
			t.Errorf("Code = %d", w.Code)
		}
		want := `{"id":1,"title":"T","author":"A","available":false}`
		if got := strings.TrimSpace(w.Body.String()); got != want {
			t.Errorf("body = %s, want %s", got, want)
		}
	})
	t.Run("created", func(t *testing.T) {
		w := httptest.NewRecorder()
		writeJSONResponse(t.Context(), w, &dto.CreateBookResponse{Book: dto.Book{ID: 3}}, nil)
		if w.Code != http.StatusCreated {
			t.Errorf("Code = %d, want 201", w.Code)
		}
	})
	t.Run("api error", func(t *testing.T) {
		w := httptest.NewRecorder()
		writeJSONResponse[dto.Book](t.Context(), w, nil, dto.NotFound("book"))
		if w.Code != http.StatusNotFound {
			t.Errorf("Code = %d", w.Code)
		}
		var resp dto.ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Error.Code != dto.ErrorCodeNotFound || resp.Error.Message != "book not found" {
			t.Errorf("resp = %+v", resp)
		}
	})
	t.Run("other error", func(t *testing.T) {
		w := httptest.NewRecorder()
		writeJSONResponse[dto.Book](t.Context(), w, nil, errors.New("secret detail"))
		if w.Code != http.StatusInternalServerError {
			t.Errorf("Code = %d", w.Code)
		}
		if strings.Contains(w.Body.String(), "secret detail") {
			t.Errorf("body leaks the error: %s", w.Body.String())
		}
		if !strings.Contains(w.Body.String(), string(dto.ErrorCodeInternal)) {
			t.Errorf("body = %s", w.Body.String())
		}
	})
}

func TestWrap(t *testing.T) {
	calls := 0
	h := Wrap(func(_ context.Context, req *dto.UpdateBookRequest) (*dto.Book, error) {
		calls++
		return &dto.Book{ID: req.ID, Title: req.Title}, nil
	}, &Config{MaxRequestBodyBytes: 1024})

	mux := http.NewServeMux()
	mux.Handle("PUT /books/{id}", h)

	t.Run("binds path and body", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/books/5", strings.NewReader(`{"title":"T","id":9}`)))
		if w.Code != http.StatusOK {
			t.Fatalf("Code = %d: %s", w.Code, w.Body.String())
		}
		var b dto.Book
		if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
			t.Fatal(err)
		}
		if b.ID != 5 || b.Title != "T" {
			t.Errorf("book = %+v", b)
		}
	})
	t.Run("validation error skips the handler", func(t *testing.T) {
		before := calls
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/books/x", strings.NewReader(`{"title":"T"}`)))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Code = %d", w.Code)
		}
		if calls != before {
			t.Error("handler called")
		}
	})
}
