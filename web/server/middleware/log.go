package middleware

import (
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"
)

// Logger writes an access log entry for every request once its response is
// sent. Server errors are logged at the Warn level.
func Logger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			level := slog.LevelInfo
			if m.Code >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", m.Code),
				slog.Duration("duration", m.Duration),
				slog.Int64("bytes_sent", m.Written),
				slog.String("remote_addr", r.RemoteAddr),
			}
			if id := w.Header().Get(RequestIDHeader); id != "" {
				attrs = append(attrs, slog.String(RequestIDKey, id))
			}

			logger.LogAttrs(r.Context(), level, "request", attrs...)
		})
	}
}
