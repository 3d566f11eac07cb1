// Provides the generic adapter turning typed handlers into http.Handler.

package server

import (
	"bytes"
	"context"
	"encoding"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"

	"github.com/maruel/bookshelf/internal/server/dto"
	"github.com/maruel/bookshelf/internal/server/ratelimit"
	"github.com/maruel/bookshelf/internal/server/reqctx"
)

// statusCoder is implemented by responses that don't answer 200 OK.
type statusCoder interface {
	HTTPStatus() int
}

// Wrap wraps a handler function to work as an http.Handler.
//
// The request body is decoded as JSON into *In, then fields tagged
// `path:"name"` are set from r.PathValue and Validate is called. The returned
// value is encoded as JSON; a returned error is converted by writeJSONResponse.
//
// Example:
//
//	type DeleteBookRequest struct {
//	    ID int `path:"id" json:"-"`
//	}
//
//	func (h *BookHandler) DeleteBook(ctx context.Context, req *dto.DeleteBookRequest) (*dto.DeleteBookResponse, error)
func Wrap[In any, PtrIn interface {
	*In
	dto.Validatable
}, Out any](fn func(context.Context, PtrIn) (*Out, error), cfg *Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var ok bool
		if w, ok = checkRateLimit(w, r, cfg.rateLimits().Match(r.Method)); !ok {
			return
		}

		input := new(In)
		if !readAndDecodeBody(ctx, w, r, input, cfg.maxRequestBodyBytes()) {
			return
		}
		populatePathParams(r, input)

		if err := PtrIn(input).Validate(); err != nil {
			handleValidationError(ctx, w, err)
			return
		}

		output, err := fn(ctx, PtrIn(input))
		writeJSONResponse(ctx, w, output, err)
	})
}

// checkRateLimit consumes a token of tier for the client and wraps the
// response writer to carry the rate limit headers.
// Returns the (possibly wrapped) writer and whether the request should proceed.
func checkRateLimit(w http.ResponseWriter, r *http.Request, tier *ratelimit.Tier) (http.ResponseWriter, bool) {
	if tier == nil {
		return w, true
	}
	ip := reqctx.ClientIP(r.Context())
	if ip == "" {
		ip = reqctx.GetClientIP(r)
	}
	result := tier.Limiter.Allow(ratelimit.BuildKey(ip, tier.Name))
	w = ratelimit.NewResponseWriter(w, result)
	if !result.Allowed {
		apiErr := dto.RateLimitExceeded(int(result.RetryAfter.Seconds()))
		slog.WarnContext(r.Context(), "Rate limited", "tier", tier.Name, "ip", ip)
		writeErrorResponseWithCode(w, apiErr.StatusCode(), apiErr.Code(), apiErr.Error(), apiErr.Details())
		return w, false
	}
	return w, true
}

// readAndDecodeBody reads the request body with size limit and decodes JSON
// into input. Unknown fields are ignored.
// Returns false if an error occurred and was written to the response.
func readAndDecodeBody[In any](ctx context.Context, w http.ResponseWriter, r *http.Request, input *In, maxBytes int64) bool {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	body, err := io.ReadAll(r.Body)
	if err2 := r.Body.Close(); err == nil {
		err = err2
	}
	if err != nil {
		if maxBytesErr := checkMaxBytesError(err); maxBytesErr != nil {
			apiErr := dto.PayloadTooLarge(maxBytesErr.Limit)
			writeErrorResponseWithCode(w, apiErr.StatusCode(), apiErr.Code(), apiErr.Error(), apiErr.Details())
			return false
		}
		slog.ErrorContext(ctx, "Failed to read request body", "err", err)
		writeBadRequestError(w, "Failed to read request body")
		return false
	}

	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.NewDecoder(bytes.NewReader(body)).Decode(input); err != nil {
			slog.InfoContext(ctx, "Failed to decode request body", "err", err)
			writeBadRequestError(w, "Invalid request body")
			return false
		}
	}
	return true
}

// checkMaxBytesError checks if an error is a MaxBytesError and returns it, or nil.
func checkMaxBytesError(err error) *http.MaxBytesError {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return maxBytesErr
	}
	return nil
}

// writeJSONResponse writes a JSON response or error response.
//
// Errors implementing dto.ErrorWithStatus keep their status and code; any
// other error is a 500 INTERNAL_ERROR.
func writeJSONResponse[Out any](ctx context.Context, w http.ResponseWriter, output *Out, err error) {
	if err != nil {
		statusCode := http.StatusInternalServerError
		errorCode := dto.ErrorCodeInternal
		message := "internal error"
		var details map[string]any

		var ewsErr dto.ErrorWithStatus
		if errors.As(err, &ewsErr) {
			statusCode = ewsErr.StatusCode()
			errorCode = ewsErr.Code()
			message = ewsErr.Error()
			details = ewsErr.Details()
		}

		if statusCode >= http.StatusInternalServerError {
			slog.ErrorContext(ctx, "Handler error", "err", err, "statusCode", statusCode, "code", errorCode)
		} else {
			slog.InfoContext(ctx, "Handler error", "err", err, "statusCode", statusCode, "code", errorCode)
		}
		writeErrorResponseWithCode(w, statusCode, errorCode, message, details)
		return
	}

	statusCode := http.StatusOK
	if sc, ok := any(output).(statusCoder); ok {
		statusCode = sc.HTTPStatus()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(output); err != nil {
		slog.ErrorContext(ctx, "Failed to encode response", "err", err)
	}
}

// populatePathParams extracts path parameters from the request and populates
// struct fields tagged with `path:"paramName"`.
//
// Integer fields that fail to parse are left to zero; Validate rejects them.
func populatePathParams(r *http.Request, input any) {
	val := reflect.ValueOf(input)
	if val.Kind() != reflect.Pointer {
		return
	}
	elem := val.Elem()
	if elem.Kind() != reflect.Struct {
		return
	}

	typ := elem.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		tag := field.Tag.Get("path")
		if tag == "" {
			continue
		}
		paramValue := r.PathValue(tag)
		if paramValue == "" {
			continue
		}

		fieldVal := elem.Field(i)
		switch field.Type.Kind() {
		case reflect.String:
			fieldVal.SetString(paramValue)
		case reflect.Int, reflect.Int64:
			if v, err := strconv.ParseInt(paramValue, 10, 64); err == nil && !fieldVal.OverflowInt(v) {
				fieldVal.SetInt(v)
			}
		default:
			if fieldVal.CanAddr() {
				if u, ok := fieldVal.Addr().Interface().(encoding.TextUnmarshaler); ok {
					_ = u.UnmarshalText([]byte(paramValue))
				}
			}
		}
	}
}

// handleValidationError handles a validation error from a request's Validate method.
func handleValidationError(ctx context.Context, w http.ResponseWriter, err error) {
	statusCode := http.StatusBadRequest
	errorCode := dto.ErrorCodeValidationFailed
	var details map[string]any

	var ewsErr dto.ErrorWithStatus
	if errors.As(err, &ewsErr) {
		statusCode = ewsErr.StatusCode()
		errorCode = ewsErr.Code()
		details = ewsErr.Details()
	}

	slog.InfoContext(ctx, "Validation error", "err", err, "statusCode", statusCode, "code", errorCode)
	writeErrorResponseWithCode(w, statusCode, errorCode, err.Error(), details)
}

// writeBadRequestError writes a 400 Bad Request error response.
func writeBadRequestError(w http.ResponseWriter, message string) {
	writeErrorResponseWithCode(w, http.StatusBadRequest, dto.ErrorCodeValidationFailed, message, nil)
}

// writeErrorResponseWithCode writes a detailed error response as JSON with code and details.
func writeErrorResponseWithCode(w http.ResponseWriter, statusCode int, code dto.ErrorCode, message string, details map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := dto.ErrorResponse{
		Error: dto.ErrorDetails{
			Code:    code,
			Message: message,
		},
		Details: details,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode error response", "err", err)
	}
}
