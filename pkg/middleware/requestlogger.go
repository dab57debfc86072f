package middleware

import (
	"log/slog"
	"net/http"

	"github.com/trinhly333/worksheet/pkg/logger"
)

const SessionIDHeader = "X-Session-ID"

// RequestLogger stores a logger enriched with the correlation id, session id,
// actor and trace ids in the request context. Mount it after RequestLogging
// and Tracing so those values exist.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if sid := r.Header.Get(SessionIDHeader); sid != "" && logger.SessionIDFromContext(ctx) == "" {
				ctx = logger.WithSessionID(ctx, sid)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
