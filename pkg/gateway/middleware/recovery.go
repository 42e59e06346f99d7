package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// internalErrorMessage is returned for recovered panics.
const internalErrorMessage = "Error interno al procesar la solicitud."

// RecoveryMiddleware recovers from panics in HTTP handlers and returns a 500
// with the generic error message. The panic and its stack are logged; no
// details reach the client.
//
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "http")

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

				logger.ErrorContext(r.Context(), "panic in handler",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(internalErrorMessage))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
