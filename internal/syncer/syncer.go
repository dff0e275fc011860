// Package syncer orchestrates catalog discovery runs. A run health-checks
// the provider, discovers models and voices according to the provider's
// declared capabilities, persists what it finds, and appends one sync-log
// row regardless of outcome.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pairwell/provider-gateway/internal/adapter"
	"github.com/pairwell/provider-gateway/internal/domain"
	"github.com/pairwell/provider-gateway/internal/storage"
)

// Store is the persistence slice the syncer needs.
type Store interface {
	storage.ModelStore
	storage.VoiceStore
	storage.SyncLogStore
	TouchProviderSync(ctx context.Context, id string, at time.Time) error
}

// Syncer runs discovery for one adapter at a time.
type Syncer struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a Syncer.
func New(store Store, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{store: store, logger: logger, now: time.Now}
}

// Sync runs one discovery pass against the adapter. The result is always
// appended to the sync log; the provider's last-synced timestamp is bumped
// only when the run did not fail outright. Sync itself returns an error
// only when persisting the outcome fails.
func (s *Syncer) Sync(ctx context.Context, ad adapter.Adapter, syncType domain.SyncType) (*domain.SyncResult, error) {
	prov := ad.Provider()
	result := &domain.SyncResult{
		ProviderID: prov.ID,
		SyncType:   syncType,
		StartedAt:  s.now().UTC(),
		Metadata:   map[string]string{},
	}

	s.run(ctx, ad, prov, syncType, result)

	result.CompletedAt = s.now().UTC()
	result.Status = classifyOutcome(result)

	s.logger.Info("sync completed",
		"provider_id", prov.ID,
		"sync_type", string(syncType),
		"status", string(result.Status),
		"models", result.ModelsDiscovered,
		"voices", result.VoicesDiscovered,
		"errors", len(result.Errors),
	)

	if err := s.store.AppendSyncResult(ctx, result); err != nil {
		return result, fmt.Errorf("append sync result: %w", err)
	}
	if result.Status != domain.SyncFailed {
		if err := s.store.TouchProviderSync(ctx, prov.ID, result.CompletedAt); err != nil {
			return result, fmt.Errorf("touch provider sync time: %w", err)
		}
	}
	return result, nil
}

// run performs the health gate and discovery calls, accumulating counts
// and error strings into result.
func (s *Syncer) run(ctx context.Context, ad adapter.Adapter, prov domain.Provider, syncType domain.SyncType, result *domain.SyncResult) {
	health := ad.TestConnection(ctx)
	if !health.Healthy {
		result.Errors = append(result.Errors, fmt.Sprintf("Sync failed: provider health check failed: %s", health.Error))
		return
	}

	wantModels := syncType == domain.SyncTypeModels || syncType == domain.SyncTypeFull
	wantVoices := syncType == domain.SyncTypeVoices || syncType == domain.SyncTypeFull

	if wantModels && prov.Capabilities.Models {
		list, err := ad.DiscoverModels(ctx)
		if err != nil {
			result.Errors = append(result.Errors, "Model discovery failed: "+err.Error())
		} else {
			result.ModelsDiscovered = len(list.Models)
			if err := s.store.UpsertModels(ctx, list.Models); err != nil {
				result.Errors = append(result.Errors, "Model persistence failed: "+err.Error())
			}
		}
	}

	if wantVoices && prov.Capabilities.Voices {
		list, err := ad.DiscoverVoices(ctx)
		if err != nil {
			result.Errors = append(result.Errors, "Voice discovery failed: "+err.Error())
		} else {
			result.VoicesDiscovered = len(list.Voices)
			if err := s.store.UpsertVoices(ctx, list.Voices); err != nil {
				result.Errors = append(result.Errors, "Voice persistence failed: "+err.Error())
			}
		}
	}
}

// classifyOutcome maps a finished run onto the tri-state status. A run
// with errors still counts as partial when any resource came through.
func classifyOutcome(result *domain.SyncResult) domain.SyncStatus {
	switch {
	case len(result.Errors) == 0:
		return domain.SyncSuccess
	case result.ModelsDiscovered > 0 || result.VoicesDiscovered > 0:
		return domain.SyncPartial
	default:
		return domain.SyncFailed
	}
}
