// Package transport performs the actual outbound HTTP calls to upstream
// vendors and returns a normalized envelope. Adapters never build HTTP
// requests themselves; everything funnels through this boundary, which also
// absorbs signing and network-policy concerns.
package transport

import (
	"context"
	"encoding/json"
)

// Request describes one outbound vendor call.
type Request struct {
	// ProviderID identifies the provider on whose behalf the call is made.
	ProviderID string

	// Endpoint is the absolute URL to call.
	Endpoint string

	// Method is the HTTP method; GET when empty.
	Method string

	// Headers are merged over the transport's defaults.
	Headers map[string]string

	// Body is the raw request body, already serialized.
	Body []byte
}

// Response is the normalized result envelope. A non-2xx upstream status
// yields Success=false with StatusCode and Error populated; Data carries
// the raw response payload either way when one was returned.
type Response struct {
	Success    bool
	Data       json.RawMessage
	Error      string
	StatusCode int
	Headers    map[string]string
}

// Transport is the outbound-call contract the gateway depends on.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}
