package middleware

import (
	"context"
	"net/http"
	"time"
)

// MutationTimeout bounds mutating requests with the remote call deadline.
// Reads and streams keep the caller's context; a hung write should fail fast
// with a retryable error instead of holding the connection open.
func MutationTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if timeout <= 0 || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
