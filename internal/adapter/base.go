package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pairwell/provider-gateway/internal/domain"
	"github.com/pairwell/provider-gateway/internal/ratelimit"
	"github.com/pairwell/provider-gateway/internal/transport"
)

// DefaultFallbackCostPerToken is the flat per-token estimate applied when
// a model carries no vendor pricing.
const DefaultFallbackCostPerToken = 0.00002

// HeaderFunc builds the vendor auth headers for a credential. The default
// is a bearer Authorization header; vendors with bespoke schemes (x-api-key,
// xi-api-key, Token ...) install their own.
type HeaderFunc func(apiKey string) map[string]string

// BearerHeaders is the default HeaderFunc.
func BearerHeaders(apiKey string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + apiKey}
}

// Base carries the plumbing shared by every vendor adapter: credential
// handling, rate limiting, the outbound transport, and the mapping from
// raw failures to the gateway error taxonomy. Vendor adapters embed a
// *Base and supply only vendor-shaped requests and parsers.
type Base struct {
	prov    domain.Provider
	tp      transport.Transport
	limiter *ratelimit.Limiter
	logger  *slog.Logger
	headers HeaderFunc

	fallbackCostPerToken float64

	// mu guards apiKey; ValidateAPIKey swaps the credential for the
	// duration of a probe.
	mu     sync.RWMutex
	apiKey string
}

// NewBase builds the shared adapter core from factory Config.
func NewBase(cfg Config, headers HeaderFunc) *Base {
	if headers == nil {
		headers = BearerHeaders
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fallback := cfg.FallbackCostPerToken
	if fallback <= 0 {
		fallback = DefaultFallbackCostPerToken
	}
	return &Base{
		prov:                 cfg.Provider,
		tp:                   cfg.Transport,
		limiter:              cfg.Limiter,
		logger:               logger.With("provider_id", cfg.Provider.ID, "provider", cfg.Provider.Name),
		headers:              headers,
		fallbackCostPerToken: fallback,
		apiKey:               cfg.APIKey,
	}
}

// Provider returns a copy of the provider record this adapter serves.
func (b *Base) Provider() domain.Provider { return b.prov }

// Logger returns the adapter-scoped logger.
func (b *Base) Logger() *slog.Logger { return b.logger }

// SetCredential swaps the live credential.
func (b *Base) SetCredential(key string) {
	b.mu.Lock()
	b.apiKey = key
	b.mu.Unlock()
}

func (b *Base) credential() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.apiKey
}

// URL joins a path onto the provider base URL. Query values, when given,
// are encoded and appended.
func (b *Base) URL(path string, query url.Values) string {
	base := strings.TrimRight(b.prov.BaseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Request performs one rate-limited vendor call. body, when non-nil, is
// JSON-encoded. The returned response always has Success=true; every
// failure mode comes back as an error from the gateway taxonomy.
func (b *Base) Request(ctx context.Context, method, endpoint string, body any, extra map[string]string) (*transport.Response, error) {
	if err := b.limiter.Acquire(ctx, b.prov.ID); err != nil {
		return nil, err
	}

	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	headers := b.headers(b.credential())
	if raw != nil {
		headers["Content-Type"] = "application/json"
	}
	for k, v := range extra {
		headers[k] = v
	}

	resp, err := b.tp.Do(ctx, &transport.Request{
		ProviderID: b.prov.ID,
		Endpoint:   endpoint,
		Method:     method,
		Headers:    headers,
		Body:       raw,
	})
	if err != nil {
		if transport.IsRestricted(err) {
			return nil, domain.ErrTransportRestricted(b.prov.ID, err)
		}
		return nil, domain.ErrProvider(b.prov.ID, err.Error(), 0, err)
	}
	if !resp.Success {
		return nil, b.classifyFailure(resp)
	}
	return resp, nil
}

// classifyFailure maps a non-2xx envelope onto the error taxonomy.
func (b *Base) classifyFailure(resp *transport.Response) error {
	switch resp.StatusCode {
	case 401, 403:
		return domain.ErrAuthentication(b.prov.ID)
	case 429:
		return domain.ErrRateLimit(b.prov.ID, b.prov.Config.RateLimits)
	default:
		msg := resp.Error
		if msg == "" {
			msg = fmt.Sprintf("provider returned status %d", resp.StatusCode)
		}
		return domain.ErrProvider(b.prov.ID, msg, resp.StatusCode, nil)
	}
}

// Probe issues one request and converts the outcome into a persisted-shape
// health result. It never returns an error.
func (b *Base) Probe(ctx context.Context, method, endpoint string, body any) *domain.ProviderTestResult {
	started := time.Now()
	resp, err := b.Request(ctx, method, endpoint, body, nil)
	result := &domain.ProviderTestResult{
		ProviderID:   b.prov.ID,
		Endpoint:     endpoint,
		ResponseTime: time.Since(started),
		CheckedAt:    time.Now().UTC(),
	}
	if err != nil {
		result.StatusCode = domain.AsProviderError(b.prov.ID, err).StatusCode
		result.Error = err.Error()
		return result
	}
	result.StatusCode = resp.StatusCode
	result.Healthy = true
	return result
}

// ValidateCredential swaps in a candidate key, runs the probe, and restores
// the original credential regardless of outcome.
func (b *Base) ValidateCredential(ctx context.Context, candidate string, probe func(context.Context) *domain.ProviderTestResult) bool {
	original := b.credential()
	b.SetCredential(candidate)
	defer b.SetCredential(original)

	return probe(ctx).Healthy
}

// EstimateCost prices a usage record. Vendor pricing wins when present;
// otherwise the flat fallback applies across all tokens.
func (b *Base) EstimateCost(usage domain.Usage, pricing *domain.TokenPricing, outputPricing *domain.TokenPricing) float64 {
	if pricing == nil {
		return float64(usage.TotalTokens) * b.fallbackCostPerToken
	}
	in := perToken(pricing)
	out := in
	if outputPricing != nil {
		out = perToken(outputPricing)
	}
	return float64(usage.PromptTokens)*in + float64(usage.CompletionTokens)*out
}

func perToken(p *domain.TokenPricing) float64 {
	if p.PerToken > 0 {
		return p.PerToken
	}
	return p.Per1KTokens / 1000
}

// WithTimeout returns a derived context when a positive timeout is set.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}
