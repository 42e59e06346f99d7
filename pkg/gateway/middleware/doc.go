// Package middleware provides the HTTP middleware wrapped around the
// gateway's mux: request IDs, CORS, access logging, panic recovery, and the
// per-request timeout.
//
// The server chains them as:
//
//	handler = TimeoutMiddleware(cfg.RequestTimeout, logger)(mux)
//	handler = LoggingMiddleware(logger)(handler)
//	handler = RecoveryMiddleware(logger)(handler)
//	handler = CORSMiddleware(cfg.Route)(handler)
//	handler = RequestIDMiddleware(handler)
//
// RequestIDMiddleware is outermost so that every log line, including the
// one for a recovered panic, carries the request ID. CORSMiddleware sits
// outside recovery and the timeout so their 500 and 504 responses carry the
// CORS headers.
package middleware
