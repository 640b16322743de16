package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"dataexplorer/internal/httputil"
)

// Recovery recovers from handler panics. The problem response is only written
// when the handler has not started streaming; once SSE bytes are out the
// connection just closes.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						slog.Any("error", err),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("request_id", r.Header.Get(RequestIDHeader)),
						slog.String("stack", string(debug.Stack())),
					)
					if !rec.wrote {
						httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
					}
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
