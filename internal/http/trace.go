package http

import (
	"net/http"
	"time"

	applog "financeiro/internal/log"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// trace assigns a request id, stores a request scoped logger in the context
// and logs the completed request at a level derived from its status.
func (s *Server) trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		clientIP := extractClientIP(r)
		logger := s.logger.With(applog.FieldRequestID, requestID)
		ctx := applog.NewContext(r.Context(), logger)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := applog.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, clientIP).
			WithHTTPResponse(status, time.Since(start).Milliseconds()).
			ToSlice()

		switch {
		case status >= 500:
			logger.ErrorContext(ctx, "HTTP request completed", fields...)
		case status >= 400:
			logger.WarnContext(ctx, "HTTP request completed", fields...)
		default:
			logger.InfoContext(ctx, "HTTP request completed", fields...)
		}
	})
}
