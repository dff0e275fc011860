// Package domain provides the capability model for the provider gateway:
// value types describing providers, the models and voices they offer, and
// the records produced by health probes and discovery syncs.
package domain

import "time"

// Family categorizes a provider by its primary service type.
type Family string

const (
	FamilyLLM        Family = "llm"
	FamilyTTS        Family = "tts"
	FamilySTT        Family = "stt"
	FamilyMultimodal Family = "multimodal"
)

// ProviderStatus is the lifecycle status of a provider connection.
type ProviderStatus string

const (
	ProviderActive   ProviderStatus = "active"
	ProviderInactive ProviderStatus = "inactive"
	ProviderErrored  ProviderStatus = "error"
)

// Capabilities declares which features a provider supports. Discovery and
// invocation paths consult these flags before attempting an operation.
type Capabilities struct {
	Models     bool `json:"models"`
	Voices     bool `json:"voices"`
	Streaming  bool `json:"streaming"`
	Realtime   bool `json:"realtime"`
	Embeddings bool `json:"embeddings"`
	Vision     bool `json:"vision"`
	Tools      bool `json:"tools"`
}

// RateLimits is a provider's self-imposed request budget.
type RateLimits struct {
	RequestsPerMinute int `json:"requests_per_minute"`
	TokensPerMinute   int `json:"tokens_per_minute"`
}

// ProviderConfig carries token and sampling defaults plus the rate budget.
type ProviderConfig struct {
	MaxTokens        int        `json:"max_tokens"`
	Temperature      float64    `json:"temperature"`
	TopP             float64    `json:"top_p"`
	FrequencyPenalty float64    `json:"frequency_penalty"`
	PresencePenalty  float64    `json:"presence_penalty"`
	StopSequences    []string   `json:"stop_sequences,omitempty"`
	RateLimits       RateLimits `json:"rate_limits"`
}

// Provider is one configured connection to a third-party AI vendor.
type Provider struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Family       Family         `json:"family"`
	BaseURL      string         `json:"base_url"`
	Status       ProviderStatus `json:"status"`
	LastSynced   *time.Time     `json:"last_synced,omitempty"`
	Capabilities Capabilities   `json:"capabilities"`
	Config       ProviderConfig `json:"config"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Modality describes what kind of data a model operates on.
type Modality string

const (
	ModalityText       Modality = "text"
	ModalityMultimodal Modality = "multimodal"
	ModalityEmbedding  Modality = "embedding"
	ModalityAudio      Modality = "audio"
	ModalityImage      Modality = "image"
)

// ModelCapabilities are per-model feature flags inferred during discovery.
type ModelCapabilities struct {
	Chat       bool `json:"chat"`
	Completion bool `json:"completion"`
	Streaming  bool `json:"streaming"`
	Vision     bool `json:"vision"`
	Tools      bool `json:"tools"`
	JSON       bool `json:"json"`
}

// TokenPricing is per-token pricing for one direction (input or output).
type TokenPricing struct {
	PerToken    float64 `json:"per_token"`
	Per1KTokens float64 `json:"per_1k_tokens"`
	Currency    string  `json:"currency"`
}

// Model is one invokable unit offered by a provider. Rows are upserted by
// (ProviderID, ModelID) during discovery and disabled, never deleted, when
// the vendor stops reporting them.
type Model struct {
	ID            string            `json:"id"`
	ProviderID    string            `json:"provider_id"`
	ModelID       string            `json:"model_id"`
	DisplayName   string            `json:"display_name"`
	Description   string            `json:"description,omitempty"`
	Modality      Modality          `json:"modality"`
	ContextLimit  int               `json:"context_limit"`
	InputPricing  *TokenPricing     `json:"input_pricing,omitempty"`
	OutputPricing *TokenPricing     `json:"output_pricing,omitempty"`
	LatencyMs     int               `json:"latency_ms,omitempty"`
	Capabilities  ModelCapabilities `json:"capabilities"`
	Realtime      bool              `json:"realtime"`
	Enabled       bool              `json:"enabled"`
}

// VoicePricing is synthesis pricing for a voice.
type VoicePricing struct {
	PerCharacter float64 `json:"per_character"`
	PerSecond    float64 `json:"per_second"`
	Currency     string  `json:"currency"`
}

// Voice is one synthesizable voice offered by a provider. Same
// upsert-by-natural-key lifecycle as Model, keyed by (ProviderID, VoiceID).
type Voice struct {
	ID          string        `json:"id"`
	ProviderID  string        `json:"provider_id"`
	VoiceID     string        `json:"voice_id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Gender      string        `json:"gender,omitempty"`
	Locale      string        `json:"locale"`
	Language    string        `json:"language"`
	Accent      string        `json:"accent,omitempty"`
	Age         string        `json:"age,omitempty"`
	Styles      []string      `json:"styles,omitempty"`
	SampleURL   string        `json:"sample_url,omitempty"`
	LatencyMs   int           `json:"latency_ms,omitempty"`
	Pricing     *VoicePricing `json:"pricing,omitempty"`
	Enabled     bool          `json:"enabled"`
}

// ModelList is the result of one model discovery call.
type ModelList struct {
	Models []Model `json:"models"`
	Total  int     `json:"total"`
}

// VoiceList is the result of one voice discovery call.
type VoiceList struct {
	Voices []Voice `json:"voices"`
	Total  int     `json:"total"`
}

// Usage is normalized token accounting from a chat completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResult is the normalized envelope returned by chat invocations.
// Cost is an estimate when the vendor does not report it directly.
type ChatResult struct {
	Content string  `json:"content"`
	Usage   Usage   `json:"usage"`
	Cost    float64 `json:"cost"`
}

// SpeechResult is the normalized envelope returned by speech synthesis.
// AudioURL is always addressable: base64 payloads are wrapped as data URLs.
type SpeechResult struct {
	AudioURL    string `json:"audio_url"`
	AudioLength int    `json:"audio_length_ms"`
}
