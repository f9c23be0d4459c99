package middleware

import (
	"net/http"
	"time"

	"github.com/Stewz00/wordwave-auth/internal/logging"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs one line per request with chi's request id. It must
// run after chi's RequestID middleware.
func RequestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				args := []any{
					"request_id", chimiddleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"remote", r.RemoteAddr,
				}
				if status >= http.StatusInternalServerError {
					log.Warn(r.Context(), "request completed", args...)
					return
				}
				log.Info(r.Context(), "request completed", args...)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
