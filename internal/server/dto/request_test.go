package dto

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestCreateBookRequest(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  ErrorCode
		available bool
	}{
		{"defaults available", `{"title":"X","author":"Y"}`, "", true},
		{"available false", `{"title":"X","author":"Y","available":false}`, "", false},
		{"available true", `{"title":"X","author":"Y","available":true}`, "", true},
		{"available null", `{"title":"X","author":"Y","available":null}`, "", true},
		{"available string", `{"title":"X","author":"Y","available":"no"}`, "", true},
		{"available zero", `{"title":"X","author":"Y","available":0}`, "", true},
		{"unknown field ignored", `{"title":"X","author":"Y","isbn":"123"}`, "", true},
		{"missing title", `{"author":"Y"}`, ErrorCodeMissingField, true},
		{"empty title", `{"title":"","author":"Y"}`, ErrorCodeMissingField, true},
		{"missing author", `{"title":"X"}`, ErrorCodeMissingField, true},
		{"empty body", `{}`, ErrorCodeMissingField, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateBookRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatal(err)
			}
			err := req.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				if got := req.IsAvailable(); got != tt.available {
					t.Errorf("IsAvailable() = %v, want %v", got, tt.available)
				}
				return
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Code() != tt.wantCode {
				t.Errorf("Validate() = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestUpdateBookRequest(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		tests := []struct {
			name     string
			id       int
			body     string
			wantCode ErrorCode
		}{
			{"title", 1, `{"title":"X"}`, ""},
			{"available null counts", 1, `{"available":null}`, ""},
			{"empty body", 1, `{}`, ErrorCodeValidationFailed},
			{"empty strings", 1, `{"title":"","author":""}`, ErrorCodeValidationFailed},
			{"zero id", 0, `{"title":"X"}`, ErrorCodeInvalidFormat},
			{"id checked first", -1, `{}`, ErrorCodeInvalidFormat},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := UpdateBookRequest{ID: tt.id}
				if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
					t.Fatal(err)
				}
				err := req.Validate()
				if tt.wantCode == "" {
					if err != nil {
						t.Errorf("Validate() = %v", err)
					}
					return
				}
				var apiErr *APIError
				if !errors.As(err, &apiErr) || apiErr.Code() != tt.wantCode {
					t.Errorf("Validate() = %v, want code %s", err, tt.wantCode)
				}
			})
		}
	})

	t.Run("AvailableValue", func(t *testing.T) {
		tests := []struct {
			body      string
			wantValue bool
			wantOK    bool
		}{
			{`{}`, false, false},
			{`{"available":true}`, true, true},
			{`{"available":false}`, false, true},
			{`{"available":null}`, false, true},
			{`{"available":0}`, false, true},
			{`{"available":2}`, true, true},
			{`{"available":""}`, false, true},
			{`{"available":"false"}`, true, true},
			{`{"available":[]}`, true, true},
			{`{"available":{}}`, true, true},
		}
		for _, tt := range tests {
			t.Run(tt.body, func(t *testing.T) {
				var req UpdateBookRequest
				if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
					t.Fatal(err)
				}
				value, ok := req.AvailableValue()
				if value != tt.wantValue || ok != tt.wantOK {
					t.Errorf("AvailableValue() = (%v, %v), want (%v, %v)", value, ok, tt.wantValue, tt.wantOK)
				}
			})
		}
	})
}

func TestDeleteBookRequest(t *testing.T) {
	if err := (&DeleteBookRequest{ID: 3}).Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	for _, id := range []int{0, -1} {
		var apiErr *APIError
		if err := (&DeleteBookRequest{ID: id}).Validate(); !errors.As(err, &apiErr) || apiErr.Code() != ErrorCodeInvalidFormat {
			t.Errorf("Validate(%d) = %v, want INVALID_FORMAT", id, err)
		}
	}
}
