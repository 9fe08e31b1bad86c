package recovery

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/gts-commerce/cart-service/internal/api/respond"
)

// Middleware intercepts panics from downstream cart handlers, logs the request
// context and stack through the service logger, and answers with the standard
// JSON 500 body.
func Middleware(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error().
						Interface("panic", rec).
						Str("method", r.Method).
						Str("url", r.URL.String()).
						Str("remote", r.RemoteAddr).
						Bytes("stack", debug.Stack()).
						Msg("panic recovered")

					respond.WriteInternalError(w, "unexpected server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
