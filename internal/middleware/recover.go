package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// PanicAlert receives the recovered value so an operator can be notified.
type PanicAlert func(r *http.Request, recovered any)

// Recover turns handler panics into a generic 500 response. The recovered
// value and stack are logged and, when an alert hook is configured, reported
// through it. The response body never carries the panic value.
func Recover(l zerolog.Logger, alert PanicAlert) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				l.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("request_id", RequestIDFromContext(r.Context())).
					Bytes("stack", debug.Stack()).
					Msg("handler panic")
				if alert != nil {
					alert(r, rec)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"Internal Server Error"}`))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
