package domain

import "time"

// SyncType identifies what a discovery run covered.
type SyncType string

const (
	SyncTypeModels SyncType = "models"
	SyncTypeVoices SyncType = "voices"
	SyncTypeFull   SyncType = "full"
)

// SyncStatus is the tri-state outcome of a discovery run.
type SyncStatus string

const (
	// SyncSuccess means every attempted discovery call succeeded.
	SyncSuccess SyncStatus = "success"

	// SyncPartial means at least one call failed but at least one
	// resource was still discovered.
	SyncPartial SyncStatus = "partial"

	// SyncFailed means nothing was discovered.
	SyncFailed SyncStatus = "failed"
)

// SyncResult is the immutable record of one discovery run. One is appended
// to the sync log for every run, regardless of outcome.
type SyncResult struct {
	ProviderID       string            `json:"provider_id"`
	SyncType         SyncType          `json:"sync_type"`
	Status           SyncStatus        `json:"status"`
	StartedAt        time.Time         `json:"started_at"`
	CompletedAt      time.Time         `json:"completed_at"`
	ModelsDiscovered int               `json:"models_discovered"`
	VoicesDiscovered int               `json:"voices_discovered"`
	Errors           []string          `json:"errors,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// ProviderTestResult is the immutable record of one health probe. The store
// keeps the latest probe per (ProviderID, Endpoint).
type ProviderTestResult struct {
	ProviderID   string        `json:"provider_id"`
	Endpoint     string        `json:"endpoint"`
	StatusCode   int           `json:"status_code,omitempty"`
	ResponseTime time.Duration `json:"response_time"`
	Healthy      bool          `json:"healthy"`
	Error        string        `json:"error,omitempty"`
	CheckedAt    time.Time     `json:"checked_at"`
}
