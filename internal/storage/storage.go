// Package storage defines the record-store contracts for provider,
// model, voice, sync-log, and health persistence.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/pairwell/provider-gateway/internal/domain"
	"github.com/pairwell/provider-gateway/internal/secrets"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ProviderStore persists provider rows.
type ProviderStore interface {
	CreateProvider(ctx context.Context, p *domain.Provider) error
	GetProvider(ctx context.Context, id string) (*domain.Provider, error)
	ListProviders(ctx context.Context) ([]*domain.Provider, error)
	UpdateProviderStatus(ctx context.Context, id string, status domain.ProviderStatus) error
	TouchProviderSync(ctx context.Context, id string, at time.Time) error
	DeleteProvider(ctx context.Context, id string) error
}

// ModelStore persists model rows. UpsertModels is keyed by
// (provider_id, model_id); re-running discovery with unchanged vendor data
// must not create duplicates.
type ModelStore interface {
	UpsertModels(ctx context.Context, models []domain.Model) error
	GetModel(ctx context.Context, id string) (*domain.Model, error)
	ListModels(ctx context.Context, providerID string) ([]domain.Model, error)
	SetModelEnabled(ctx context.Context, providerID, modelID string, enabled bool) error
}

// VoiceStore persists voice rows with the same natural-key upsert
// semantics as ModelStore, keyed by (provider_id, voice_id).
type VoiceStore interface {
	UpsertVoices(ctx context.Context, voices []domain.Voice) error
	GetVoice(ctx context.Context, id string) (*domain.Voice, error)
	ListVoices(ctx context.Context, providerID string) ([]domain.Voice, error)
	SetVoiceEnabled(ctx context.Context, providerID, voiceID string, enabled bool) error
}

// SyncLogStore is the append-only audit log of discovery runs.
type SyncLogStore interface {
	AppendSyncResult(ctx context.Context, r *domain.SyncResult) error
	ListSyncResults(ctx context.Context, providerID string, limit int) ([]*domain.SyncResult, error)
}

// HealthStore keeps the latest probe result per (provider_id, endpoint).
type HealthStore interface {
	SaveTestResult(ctx context.Context, r *domain.ProviderTestResult) error
	ListTestResults(ctx context.Context, providerID string) ([]*domain.ProviderTestResult, error)
}

// RecordStore is the full persistence surface the gateway uses. It also
// backs the credential vault with ciphertext storage.
type RecordStore interface {
	ProviderStore
	ModelStore
	VoiceStore
	SyncLogStore
	HealthStore
	secrets.Backend

	Close() error
}
