// Provides the middleware shared by every route.

package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/maruel/bookshelf/internal/server/dto"
	"github.com/maruel/bookshelf/internal/server/ipgeo"
	"github.com/maruel/bookshelf/internal/server/reqctx"
	"github.com/maruel/ksid"
)

// statusRecorder remembers the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (s *statusRecorder) WriteHeader(statusCode int) {
	if s.status == 0 {
		s.status = statusCode
	}
	s.ResponseWriter.WriteHeader(statusCode)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.size += n
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// withRequestMetadata assigns a request ID, stores the client metadata in the
// context and logs one line per request.
func withRequestMetadata(next http.Handler, geo *ipgeo.Checker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := ksid.NewID()
		ip := reqctx.GetClientIP(r)
		ctx := reqctx.WithRequestID(r.Context(), id)
		ctx = reqctx.WithClientIP(ctx, ip)
		ctx = reqctx.WithUserAgent(ctx, r.Header.Get("User-Agent"))
		cc := geo.CountryCode(ip)
		if cc != "" {
			ctx = reqctx.WithCountryCode(ctx, cc)
		}
		w.Header().Set("X-Request-ID", id.String())

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))

		slog.InfoContext(ctx, "http",
			"id", id.String(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"size", rec.size,
			"dur", time.Since(start).Round(time.Microsecond),
			"ip", ip,
			"cc", cc,
		)
	})
}

// notFound answers every route not registered in the mux.
func notFound(w http.ResponseWriter, r *http.Request) {
	apiErr := dto.NotFound("route " + r.Method + " " + r.URL.Path)
	writeErrorResponseWithCode(w, apiErr.StatusCode(), apiErr.Code(), apiErr.Error(), nil)
}
