// Package adapter defines the per-vendor-family provider contract and the
// factory registry used to construct adapters.
//
// # Adding a New Vendor Family
//
// Implement the Adapter interface in a subpackage, expose a Register
// function that calls adapter.RegisterFactory, and wire that registration
// from internal/registration so we avoid init() side effects:
//
//	func Register() {
//	    if adapter.IsRegistered(Family) {
//	        return
//	    }
//	    adapter.RegisterFactory(adapter.Factory{
//	        Family:      Family,
//	        Description: "Example vendor adapter",
//	        Create:      New,
//	    })
//	}
package adapter

import (
	"context"
	"log/slog"
	"time"

	"github.com/pairwell/provider-gateway/internal/domain"
	"github.com/pairwell/provider-gateway/internal/ratelimit"
	"github.com/pairwell/provider-gateway/internal/transport"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions tune a chat invocation.
type ChatOptions struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// SpeechOptions tune a synthesis invocation.
type SpeechOptions struct {
	Stability       float64
	SimilarityBoost float64
}

// Adapter is the contract every vendor family implements. Vendors supply
// their own transport-layer specifics; the semantics are uniform.
type Adapter interface {
	// Provider returns a copy of the provider this adapter serves.
	Provider() domain.Provider

	// DiscoverModels enumerates the vendor's models, or returns a known
	// list for vendors without a catalog endpoint. Voice-only vendors
	// return an empty list.
	DiscoverModels(ctx context.Context) (*domain.ModelList, error)

	// DiscoverVoices is the symmetric operation for TTS-capable vendors.
	DiscoverVoices(ctx context.Context) (*domain.VoiceList, error)

	// TestConnection issues one cheap probe and reports latency and
	// health. It never returns an error; failures are carried in the
	// result.
	TestConnection(ctx context.Context) *domain.ProviderTestResult

	// ValidateAPIKey probes with the candidate key and restores the
	// original credential regardless of outcome.
	ValidateAPIKey(ctx context.Context, candidate string) bool

	// GenerateChatCompletion invokes a chat model and normalizes the
	// vendor response into one envelope.
	GenerateChatCompletion(ctx context.Context, model string, messages []Message, opts ChatOptions) (*domain.ChatResult, error)

	// GenerateSpeech synthesizes text with a voice and normalizes the
	// audio payload into an addressable reference.
	GenerateSpeech(ctx context.Context, voice, text string, opts SpeechOptions) (*domain.SpeechResult, error)

	// SetCredential swaps the live credential. Called only by the
	// registry during key rotation.
	SetCredential(key string)
}

// Config is everything a factory needs to construct an adapter.
type Config struct {
	Provider domain.Provider
	APIKey   string

	Transport transport.Transport
	Limiter   *ratelimit.Limiter
	Logger    *slog.Logger

	// FallbackCostPerToken is the configured flat estimate applied when a
	// model carries no vendor pricing.
	FallbackCostPerToken float64
}
