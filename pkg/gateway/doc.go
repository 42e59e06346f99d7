// Package gateway implements the single-endpoint admission pipeline that turns
// a value-promise statement into reel ideas.
//
// A request passes through origin authorization, the method check, rate-limit
// consumption, input validation, and the forbidden-character check before a
// prompt is rendered and exactly one completion call is made. Each step may
// end the request early; the resulting status codes are:
//
//	403  origin not allow-listed (plain text)
//	405  method other than POST (plain text)
//	429  rate budget exhausted (plain text, Retry-After)
//	400  invalid input or forbidden characters (JSON {"error": ...})
//	500  limiter or completion failure (plain text, details logged only)
//	200  {"reply": ...}
//
// CORS headers are attached to every response, including rejections.
//
// # Usage
//
//	gw, err := gateway.New(gateway.Options{
//	    AllowedOrigins: cfg.Gateway.AllowedOriginSet(),
//	    Limiter:        limitManager,
//	    Provider:       provider,
//	    Model:          cfg.Completion.Model,
//	})
//	mux.Handle(cfg.Server.Route, gw)
//
// Handle is the transport-independent entry point; ServeHTTP adapts net/http
// to it.
package gateway
