package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 120 * time.Second

// Option configures the HTTP transport.
type Option func(*HTTP)

// WithHTTPClient sets a custom HTTP client. The client's transport is used
// as-is, without additional instrumentation.
func WithHTTPClient(client *http.Client) Option {
	return func(t *HTTP) {
		t.client = client
	}
}

// WithTimeout sets the default per-call timeout applied when the caller's
// context has no earlier deadline.
func WithTimeout(d time.Duration) Option {
	return func(t *HTTP) {
		t.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent on every call.
func WithUserAgent(ua string) Option {
	return func(t *HTTP) {
		t.userAgent = ua
	}
}

// HTTP is the production Transport implementation.
type HTTP struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// NewHTTP creates an instrumented HTTP transport.
func NewHTTP(opts ...Option) *HTTP {
	t := &HTTP{
		timeout:   defaultTimeout,
		userAgent: "provider-gateway",
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.client == nil {
		t.client = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return t
}

// Do executes the call and normalizes the result. Network-level failures
// are returned as errors; HTTP-level failures are returned as unsuccessful
// envelopes with the upstream status code.
func (t *HTTP) Do(ctx context.Context, req *Request) (*Response, error) {
	if _, ok := ctx.Deadline(); !ok && t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.Endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request for provider %s: %w", req.ProviderID, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", t.userAgent)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		if restricted(err) {
			return nil, &RestrictedError{ProviderID: req.ProviderID, Err: err}
		}
		return nil, fmt.Errorf("call provider %s: %w", req.ProviderID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from provider %s: %w", req.ProviderID, err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Data:       json.RawMessage(data),
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		out.Success = true
		return out, nil
	}

	out.Error = upstreamErrorMessage(data, resp.StatusCode)
	return out, nil
}

// RestrictedError marks a call blocked by network policy between the
// gateway and the vendor rather than by the vendor itself.
type RestrictedError struct {
	ProviderID string
	Err        error
}

func (e *RestrictedError) Error() string {
	return fmt.Sprintf("transport restricted for provider %s: %v", e.ProviderID, e.Err)
}

func (e *RestrictedError) Unwrap() error { return e.Err }

// IsRestricted reports whether err is a transport-restriction failure.
func IsRestricted(err error) bool {
	var re *RestrictedError
	return errors.As(err, &re)
}

func restricted(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"cors", "blocked by", "proxyconnect", "forbidden by policy"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// upstreamErrorMessage digs the human-readable message out of the common
// vendor error shapes: {"error":{"message":...}}, {"error":"..."}, and
// {"message":"..."}.
func upstreamErrorMessage(data []byte, statusCode int) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil {
		if len(envelope.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
				return nested.Message
			}
			var flat string
			if err := json.Unmarshal(envelope.Error, &flat); err == nil && flat != "" {
				return flat
			}
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return fmt.Sprintf("upstream returned status %d", statusCode)
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
