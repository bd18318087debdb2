package log

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// maxRequestIDLength bounds caller-supplied request IDs.
const maxRequestIDLength = 64

// Middleware creates HTTP middleware that adds a logger to the request context
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// RequestIDMiddleware assigns a request ID with chi's RequestID middleware,
// echoes it in the response headers and adds it to the context logger.
// A caller-supplied ID is kept only when it is short and free of whitespace.
func RequestIDMiddleware(next http.Handler) http.Handler {
	tagged := chimiddleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := chimiddleware.GetReqID(r.Context())
		w.Header().Set(chimiddleware.RequestIDHeader, requestID)

		logger := FromContext(r.Context()).With(FieldRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
	}))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(chimiddleware.RequestIDHeader); id != "" && !validRequestID(id) {
			r = r.Clone(r.Context())
			r.Header.Del(chimiddleware.RequestIDHeader)
		}
		tagged.ServeHTTP(w, r)
	})
}

func validRequestID(id string) bool {
	return len(id) <= maxRequestIDLength && !strings.ContainsAny(id, " \t\r\n")
}

// AccessLog logs every request once it completes, at a level derived from the status code.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		if status >= 400 && status < 500 {
			level = slog.LevelWarn
		} else if status >= 500 {
			level = slog.LevelError
		}

		fields := NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery).
			WithHTTPResponse(status, time.Since(start).Milliseconds())
		FromContext(r.Context()).Log(r.Context(), level, "HTTP request completed",
			append(fields.ToSlice(), FieldBytes, ww.BytesWritten())...)
	})
}
