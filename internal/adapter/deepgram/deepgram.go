// Package deepgram implements the adapter for the Deepgram speech-to-text
// API. Deepgram authenticates with a "Token" scheme and scopes its model
// catalog under projects.
package deepgram

import (
	"context"
	"encoding/json"

	"github.com/pairwell/provider-gateway/internal/adapter"
	"github.com/pairwell/provider-gateway/internal/domain"
)

// Family is the classification identifier for this adapter.
const Family = "deepgram"

// Register wires the factory. Safe to call more than once.
func Register() {
	if adapter.IsRegistered(Family) {
		return
	}
	adapter.RegisterFactory(adapter.Factory{
		Family:      Family,
		Description: "Deepgram speech-to-text API",
		Create:      New,
	})
}

// Adapter speaks the Deepgram API.
type Adapter struct {
	*adapter.Base
}

// New constructs the adapter with Deepgram's Token auth scheme.
func New(cfg adapter.Config) (adapter.Adapter, error) {
	return &Adapter{Base: adapter.NewBase(cfg, func(apiKey string) map[string]string {
		return map[string]string{"Authorization": "Token " + apiKey}
	})}, nil
}

type wireModel struct {
	Name           string `json:"name"`
	Language       string `json:"language"`
	Version        string `json:"version"`
	ModelID        string `json:"model_id"`
	CanDoStreaming bool   `json:"can_do_streaming"`
}

type wireModelList struct {
	Models []wireModel `json:"models"`
}

// DiscoverModels fetches the transcription model catalog. STT models carry
// no context limit; streaming-capable entries are flagged realtime.
func (a *Adapter) DiscoverModels(ctx context.Context) (*domain.ModelList, error) {
	resp, err := a.Request(ctx, "GET", a.URL("/v1/models", nil), nil, nil)
	if err != nil {
		return nil, err
	}

	var list wireModelList
	if err := json.Unmarshal(resp.Data, &list); err != nil {
		return nil, domain.ErrProvider(a.Provider().ID, "decode model list: "+err.Error(), resp.StatusCode, err)
	}

	pid := a.Provider().ID
	models := make([]domain.Model, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, domain.Model{
			ID:          pid + "-" + m.ModelID,
			ProviderID:  pid,
			ModelID:     m.ModelID,
			DisplayName: m.Name,
			Description: "Deepgram " + m.Language + " model",
			Modality:    domain.ModalityAudio,
			Capabilities: domain.ModelCapabilities{
				Streaming: m.CanDoStreaming,
			},
			Realtime: m.CanDoStreaming,
			Enabled:  true,
		})
	}
	return &domain.ModelList{Models: models, Total: len(models)}, nil
}

// DiscoverVoices returns an empty list. Deepgram is transcription-only
// here; its Aura synthesis surface is not wired up.
func (a *Adapter) DiscoverVoices(ctx context.Context) (*domain.VoiceList, error) {
	return &domain.VoiceList{Voices: []domain.Voice{}}, nil
}

// TestConnection probes the projects endpoint, the cheapest authenticated
// call Deepgram offers.
func (a *Adapter) TestConnection(ctx context.Context) *domain.ProviderTestResult {
	return a.Probe(ctx, "GET", a.URL("/v1/projects", nil), nil)
}

// ValidateAPIKey probes with the candidate key and restores the original.
func (a *Adapter) ValidateAPIKey(ctx context.Context, candidate string) bool {
	return a.ValidateCredential(ctx, candidate, a.TestConnection)
}

// GenerateChatCompletion always fails; Deepgram has no text models.
func (a *Adapter) GenerateChatCompletion(ctx context.Context, model string, messages []adapter.Message, opts adapter.ChatOptions) (*domain.ChatResult, error) {
	return nil, domain.ErrProvider(a.Provider().ID, "chat completion is not supported", 0, nil)
}

// GenerateSpeech always fails; Deepgram is wired for transcription only.
func (a *Adapter) GenerateSpeech(ctx context.Context, voice, text string, _ adapter.SpeechOptions) (*domain.SpeechResult, error) {
	return nil, domain.ErrProvider(a.Provider().ID, "speech synthesis is not supported", 0, nil)
}
