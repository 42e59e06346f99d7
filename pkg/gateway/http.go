package gateway

import (
	"io"
	"net"
	"net/http"
	"strings"

	"guionesreels/ideagate/pkg/telemetry/logging"
)

// ServeHTTP adapts net/http to Handle.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.Handle(r.Context(), g.incoming(r)).Write(w)
}

// incoming builds the transport-independent request. At most MaxBodyBytes+1
// bytes are read so an oversized body is detected without buffering it.
func (g *Gateway) incoming(r *http.Request) *IncomingRequest {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, g.maxBody+1))
		if err != nil {
			g.logger.DebugContext(r.Context(), "failed to read request body", "error", err)
		}
	}

	return &IncomingRequest{
		Method:           r.Method,
		Origin:           r.Header.Get("Origin"),
		ClientIdentifier: ClientIdentifier(r, g.clientIPHeader),
		Body:             body,
		RequestID:        logging.GetRequestID(r.Context()),
	}
}

// ClientIdentifier returns the first address in header, or the host part of
// the peer address when header is empty or missing from r. The header value
// is taken as is, so it must come from a proxy that overwrites it.
func ClientIdentifier(r *http.Request, header string) string {
	if header != "" {
		if v := r.Header.Get(header); v != "" {
			first, _, _ := strings.Cut(v, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
