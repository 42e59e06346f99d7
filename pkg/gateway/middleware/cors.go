package middleware

import "net/http"

// SetCORSHeaders writes the generate route's CORS headers. The request's
// origin is echoed whether or not it is allowed, so a browser can read the
// rejection; an absent origin gets no Access-Control-Allow-Origin.
func SetCORSHeaders(h http.Header, origin string) {
	if origin != "" {
		h.Set("Access-Control-Allow-Origin", origin)
	}
	h.Set("Vary", "Origin")
	h.Set("Access-Control-Allow-Methods", http.MethodPost)
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

// CORSMiddleware sets the CORS headers on every response for route before
// the request reaches the inner handlers, so responses written by
// RecoveryMiddleware and TimeoutMiddleware carry them too. Other paths are
// passed through untouched.
//
// Example usage:
//
//	handler = CORSMiddleware("/generate")(handler)
func CORSMiddleware(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == route {
				SetCORSHeaders(w.Header(), r.Header.Get("Origin"))
			}
			next.ServeHTTP(w, r)
		})
	}
}
