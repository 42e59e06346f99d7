// Package gemini implements the providers.Provider interface for the Google
// Generative Language REST API.
//
// Requests go to
//
//	POST {base_url}/v1beta/models/{model}:generateContent
//
// with the API key in the x-goog-api-key header. The key is resolved through a
// providers.KeySource on every call. The prompt is sent as a single user turn
// with the request's safety settings attached in order.
//
// The reply text is the concatenation of the first candidate's text parts.
// A blocked prompt, or a candidate that ends without text, is reported as
// *providers.ContentBlockedError.
package gemini
