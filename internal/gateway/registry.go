// Package gateway owns the live provider registry: the mapping from stored
// provider records to constructed adapters, the skipped set for providers
// without credentials, and every operator-facing operation over them.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pairwell/provider-gateway/internal/adapter"
	"github.com/pairwell/provider-gateway/internal/classify"
	"github.com/pairwell/provider-gateway/internal/domain"
	"github.com/pairwell/provider-gateway/internal/ratelimit"
	"github.com/pairwell/provider-gateway/internal/secrets"
	"github.com/pairwell/provider-gateway/internal/storage"
	"github.com/pairwell/provider-gateway/internal/syncer"
	"github.com/pairwell/provider-gateway/internal/transport"
)

// AdapterState tags the outcome of an adapter lookup.
type AdapterState int

const (
	// StateUnknown means no provider with that id is registered.
	StateUnknown AdapterState = iota

	// StateSkipped means the provider exists but has no usable
	// credential; it was never instantiated and must not reach the
	// network.
	StateSkipped

	// StateReady means a live adapter is available.
	StateReady
)

// AdapterLookup is the tagged result of Registry.Adapter. Adapter is set
// only for StateReady; Reason only for StateSkipped.
type AdapterLookup struct {
	State   AdapterState
	Adapter adapter.Adapter
	Reason  string
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithProbeTimeout bounds health probes issued by the registry.
func WithProbeTimeout(d time.Duration) Option {
	return func(r *Registry) { r.probeTimeout = d }
}

// WithFallbackCostPerToken sets the flat cost estimate handed to adapters.
func WithFallbackCostPerToken(cost float64) Option {
	return func(r *Registry) { r.fallbackCost = cost }
}

// Registry is the single owned object holding live adapters. Reads of the
// adapter cache are concurrent; structural mutation is serialized.
type Registry struct {
	store   storage.RecordStore
	vault   secrets.Store
	tp      transport.Transport
	limiter *ratelimit.Limiter
	syncer  *syncer.Syncer
	logger  *slog.Logger

	probeTimeout time.Duration
	fallbackCost float64

	mu          sync.RWMutex
	adapters    map[string]adapter.Adapter
	skipped     map[string]string
	initialized bool
}

// New constructs a Registry over the given store, credential vault, and
// outbound transport.
func New(store storage.RecordStore, vault secrets.Store, tp transport.Transport, opts ...Option) *Registry {
	r := &Registry{
		store:        store,
		vault:        vault,
		tp:           tp,
		limiter:      ratelimit.New(),
		logger:       slog.Default(),
		probeTimeout: 30 * time.Second,
		fallbackCost: adapter.DefaultFallbackCostPerToken,
		adapters:     make(map[string]adapter.Adapter),
		skipped:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.syncer = syncer.New(store, r.logger)
	return r
}

// Initialize loads stored providers and builds adapters for those with
// credentials. Providers without a credential, and providers whose adapter
// cannot be built, are recorded as skipped and never instantiated. Calling
// Initialize again is a no-op.
func (r *Registry) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return nil
	}

	providers, err := r.store.ListProviders(ctx)
	if err != nil {
		return fmt.Errorf("list providers: %w", err)
	}

	for _, prov := range providers {
		ad, reason, err := r.buildAdapter(ctx, prov)
		if err != nil {
			// One broken provider does not block the rest.
			r.skipped[prov.ID] = err.Error()
			r.logger.Error("provider initialization failed",
				"provider_id", prov.ID, "provider", prov.Name, "error", err)
			continue
		}
		if ad == nil {
			r.skipped[prov.ID] = reason
			r.logger.Warn("provider skipped", "provider_id", prov.ID, "provider", prov.Name, "reason", reason)
			continue
		}
		r.adapters[prov.ID] = ad
	}

	r.initialized = true
	r.logger.Info("provider registry initialized",
		"providers", len(providers),
		"adapters", len(r.adapters),
		"skipped", len(r.skipped),
	)
	return nil
}

// buildAdapter resolves the provider's family, configures its rate budget,
// and constructs the adapter. A nil adapter with a reason means the
// provider must be skipped. Callers hold r.mu.
func (r *Registry) buildAdapter(ctx context.Context, prov *domain.Provider) (adapter.Adapter, string, error) {
	apiKey, found, err := r.vault.Retrieve(ctx, prov.ID)
	if err != nil {
		return nil, "", fmt.Errorf("retrieve credential: %w", err)
	}
	if !found || apiKey == "" {
		return nil, "no API key configured", nil
	}

	cls := classify.Resolve(prov.Name, prov.BaseURL, prov.Family)
	if prov.BaseURL == "" {
		prov.BaseURL = cls.DefaultBaseURL
	}

	rpm := prov.Config.RateLimits.RequestsPerMinute
	if rpm <= 0 {
		rpm = cls.RequestsPerMinute
	}
	r.limiter.SetLimit(prov.ID, rpm)

	ad, err := adapter.Create(cls.AdapterFamily, adapter.Config{
		Provider:             *prov,
		APIKey:               apiKey,
		Transport:            r.tp,
		Limiter:              r.limiter,
		Logger:               r.logger,
		FallbackCostPerToken: r.fallbackCost,
	})
	if err != nil {
		return nil, "", err
	}
	return ad, "", nil
}

// Adapter performs a tagged lookup. A skipped provider is reported as such
// with its reason rather than surfacing as missing.
func (r *Registry) Adapter(providerID string) AdapterLookup {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ad, ok := r.adapters[providerID]; ok {
		return AdapterLookup{State: StateReady, Adapter: ad}
	}
	if reason, ok := r.skipped[providerID]; ok {
		return AdapterLookup{State: StateSkipped, Reason: reason}
	}
	return AdapterLookup{State: StateUnknown}
}

// SkippedProviders returns the skipped provider ids and reasons.
func (r *Registry) SkippedProviders() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.skipped))
	for id, reason := range r.skipped {
		out[id] = reason
	}
	return out
}

// AddProviderRequest carries the operator input for provider registration.
type AddProviderRequest struct {
	Name         string                 `json:"name"`
	Family       domain.Family          `json:"family"`
	BaseURL      string                 `json:"base_url"`
	APIKey       string                 `json:"api_key"`
	Capabilities *domain.Capabilities   `json:"capabilities,omitempty"`
	Config       *domain.ProviderConfig `json:"config,omitempty"`
}

// AddProvider registers a provider, stores its credential, builds its
// adapter, probes it, and runs an initial full sync when the probe is
// healthy. The record insert and credential store are one logical step:
// a credential failure rolls back the orphan provider row.
func (r *Registry) AddProvider(ctx context.Context, req AddProviderRequest) (string, error) {
	if req.Name == "" {
		return "", fmt.Errorf("provider name is required")
	}
	if req.APIKey == "" {
		return "", fmt.Errorf("provider API key is required")
	}

	cls := classify.Resolve(req.Name, req.BaseURL, req.Family)

	now := time.Now().UTC()
	prov := &domain.Provider{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Family:       req.Family,
		BaseURL:      req.BaseURL,
		Status:       domain.ProviderActive,
		Capabilities: cls.Capabilities,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if prov.Family == "" {
		prov.Family = domain.FamilyLLM
	}
	if prov.BaseURL == "" {
		prov.BaseURL = cls.DefaultBaseURL
	}
	if req.Capabilities != nil {
		prov.Capabilities = *req.Capabilities
	}
	if req.Config != nil {
		prov.Config = *req.Config
	}
	if prov.Config.RateLimits.RequestsPerMinute <= 0 {
		prov.Config.RateLimits.RequestsPerMinute = cls.RequestsPerMinute
	}

	if err := r.store.CreateProvider(ctx, prov); err != nil {
		return "", fmt.Errorf("create provider: %w", err)
	}
	if err := r.vault.Store(ctx, prov.ID, req.APIKey); err != nil {
		if delErr := r.store.DeleteProvider(ctx, prov.ID); delErr != nil {
			r.logger.Error("rollback of orphan provider failed", "provider_id", prov.ID, "error", delErr)
		}
		return "", fmt.Errorf("store credential: %w", err)
	}

	r.mu.Lock()
	ad, reason, err := r.buildAdapter(ctx, prov)
	if err == nil && ad != nil {
		r.adapters[prov.ID] = ad
	}
	r.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("build adapter: %w", err)
	}
	if ad == nil {
		// Credential was just stored, so this is unreachable in
		// practice; record the skip for consistency anyway.
		r.mu.Lock()
		r.skipped[prov.ID] = reason
		r.mu.Unlock()
		return prov.ID, nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	result := ad.TestConnection(probeCtx)
	cancel()
	if err := r.store.SaveTestResult(ctx, result); err != nil {
		r.logger.Error("persist probe result failed", "provider_id", prov.ID, "error", err)
	}

	if result.Healthy && (prov.Capabilities.Models || prov.Capabilities.Voices) {
		if _, err := r.syncer.Sync(ctx, ad, domain.SyncTypeFull); err != nil {
			r.logger.Error("initial sync failed", "provider_id", prov.ID, "error", err)
		}
	}

	r.logger.Info("provider added",
		"provider_id", prov.ID,
		"provider", prov.Name,
		"family", cls.AdapterFamily,
		"healthy", result.Healthy,
	)
	return prov.ID, nil
}

// RemoveProvider deletes the provider row (models, voices, and credentials
// cascade) and tears down its live state.
func (r *Registry) RemoveProvider(ctx context.Context, providerID string) error {
	if err := r.store.DeleteProvider(ctx, providerID); err != nil {
		return fmt.Errorf("delete provider: %w", err)
	}
	if err := r.vault.Delete(ctx, providerID); err != nil {
		r.logger.Error("delete credential failed", "provider_id", providerID, "error", err)
	}

	r.mu.Lock()
	delete(r.adapters, providerID)
	delete(r.skipped, providerID)
	r.mu.Unlock()
	r.limiter.Remove(providerID)

	r.logger.Info("provider removed", "provider_id", providerID)
	return nil
}

// UpdateProviderAPIKey rotates a provider's credential. The stored secret
// is replaced, the live adapter (if any) picks up the new key in place,
// and a previously skipped provider is built and leaves the skipped set.
func (r *Registry) UpdateProviderAPIKey(ctx context.Context, providerID, apiKey string) error {
	prov, err := r.store.GetProvider(ctx, providerID)
	if err != nil {
		return fmt.Errorf("get provider: %w", err)
	}
	if err := r.vault.Store(ctx, providerID, apiKey); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}

	r.mu.Lock()
	if ad, ok := r.adapters[providerID]; ok {
		ad.SetCredential(apiKey)
	} else {
		ad, _, err := r.buildAdapter(ctx, prov)
		if err != nil {
			r.mu.Unlock()
			return fmt.Errorf("build adapter: %w", err)
		}
		if ad != nil {
			r.adapters[providerID] = ad
			delete(r.skipped, providerID)
		}
	}
	r.mu.Unlock()

	if prov.Status != domain.ProviderActive {
		if err := r.store.UpdateProviderStatus(ctx, providerID, domain.ProviderActive); err != nil {
			return fmt.Errorf("reactivate provider: %w", err)
		}
	}

	r.logger.Info("provider credential rotated", "provider_id", providerID)
	return nil
}

// TestProvider probes one provider and always persists a result. Skipped
// and unknown providers get a synthesized failed result without any
// network activity.
func (r *Registry) TestProvider(ctx context.Context, providerID string) (*domain.ProviderTestResult, error) {
	lookup := r.Adapter(providerID)

	var result *domain.ProviderTestResult
	switch lookup.State {
	case StateReady:
		probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
		result = lookup.Adapter.TestConnection(probeCtx)
		cancel()
	case StateSkipped:
		result = r.syntheticFailure(providerID, "provider skipped: "+lookup.Reason)
	default:
		result = r.syntheticFailure(providerID, "provider not registered")
	}

	if err := r.store.SaveTestResult(ctx, result); err != nil {
		return result, fmt.Errorf("persist test result: %w", err)
	}
	return result, nil
}

// TestAllProviders probes every stored provider sequentially. One
// provider's failure never stops the rest.
func (r *Registry) TestAllProviders(ctx context.Context) ([]*domain.ProviderTestResult, error) {
	ids, err := r.providerIDs(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*domain.ProviderTestResult, 0, len(ids))
	for _, id := range ids {
		result, err := r.TestProvider(ctx, id)
		if err != nil {
			r.logger.Error("test provider failed", "provider_id", id, "error", err)
		}
		results = append(results, result)
	}
	return results, nil
}

// SyncProvider runs one discovery pass. Skipped and unknown providers get
// a failed SyncResult appended to the log without any network activity.
func (r *Registry) SyncProvider(ctx context.Context, providerID string, syncType domain.SyncType) (*domain.SyncResult, error) {
	lookup := r.Adapter(providerID)

	switch lookup.State {
	case StateReady:
		return r.syncer.Sync(ctx, lookup.Adapter, syncType)
	case StateSkipped:
		return r.failedSync(ctx, providerID, syncType, "provider skipped: "+lookup.Reason)
	default:
		return r.failedSync(ctx, providerID, syncType, "provider not registered")
	}
}

// SyncAllProviders syncs every stored provider sequentially.
func (r *Registry) SyncAllProviders(ctx context.Context, syncType domain.SyncType) ([]*domain.SyncResult, error) {
	ids, err := r.providerIDs(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*domain.SyncResult, 0, len(ids))
	for _, id := range ids {
		result, err := r.SyncProvider(ctx, id, syncType)
		if err != nil {
			r.logger.Error("sync provider failed", "provider_id", id, "error", err)
		}
		if result != nil {
			results = append(results, result)
		}
	}
	return results, nil
}

func (r *Registry) providerIDs(ctx context.Context) ([]string, error) {
	providers, err := r.store.ListProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	ids := make([]string, 0, len(providers))
	for _, p := range providers {
		ids = append(ids, p.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *Registry) syntheticFailure(providerID, reason string) *domain.ProviderTestResult {
	return &domain.ProviderTestResult{
		ProviderID: providerID,
		Endpoint:   "none",
		Healthy:    false,
		Error:      reason,
		CheckedAt:  time.Now().UTC(),
	}
}

func (r *Registry) failedSync(ctx context.Context, providerID string, syncType domain.SyncType, reason string) (*domain.SyncResult, error) {
	now := time.Now().UTC()
	result := &domain.SyncResult{
		ProviderID:  providerID,
		SyncType:    syncType,
		Status:      domain.SyncFailed,
		StartedAt:   now,
		CompletedAt: now,
		Errors:      []string{reason},
	}
	if err := r.store.AppendSyncResult(ctx, result); err != nil {
		return result, fmt.Errorf("append sync result: %w", err)
	}
	return result, nil
}
