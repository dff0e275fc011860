// Package hume implements the adapter for the Hume AI expression
// measurement API. Models live under /v0 and are all realtime-capable.
package hume

import (
	"context"
	"encoding/json"

	"github.com/pairwell/provider-gateway/internal/adapter"
	"github.com/pairwell/provider-gateway/internal/domain"
)

// Family is the classification identifier for this adapter.
const Family = "hume"

// Register wires the factory. Safe to call more than once.
func Register() {
	if adapter.IsRegistered(Family) {
		return
	}
	adapter.RegisterFactory(adapter.Factory{
		Family:      Family,
		Description: "Hume AI expression measurement API",
		Create:      New,
	})
}

// Adapter speaks the Hume API with its X-Hume-Api-Key auth scheme.
type Adapter struct {
	*adapter.Base
}

// New constructs the adapter.
func New(cfg adapter.Config) (adapter.Adapter, error) {
	return &Adapter{Base: adapter.NewBase(cfg, func(apiKey string) map[string]string {
		return map[string]string{"X-Hume-Api-Key": apiKey}
	})}, nil
}

type wireModel struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	InputTypes  []string `json:"input_types"`
	OutputTypes []string `json:"output_types"`
}

type wireModelList struct {
	Models []wireModel `json:"models"`
}

// DiscoverModels fetches /v0/models. Expression models carry no context
// limit and report vision support when they accept image input.
func (a *Adapter) DiscoverModels(ctx context.Context) (*domain.ModelList, error) {
	resp, err := a.Request(ctx, "GET", a.URL("/v0/models", nil), nil, nil)
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
		vision := false
		for _, t := range m.InputTypes {
			if t == "image" {
				vision = true
				break
			}
		}
		models = append(models, domain.Model{
			ID:          pid + "-" + m.ID,
			ProviderID:  pid,
			ModelID:     m.ID,
			DisplayName: m.Name,
			Description: m.Description,
			Modality:    domain.ModalityMultimodal,
			Capabilities: domain.ModelCapabilities{
				Streaming: true,
				Vision:    vision,
				JSON:      true,
			},
			Realtime: true,
			Enabled:  true,
		})
	}
	return &domain.ModelList{Models: models, Total: len(models)}, nil
}

// DiscoverVoices returns an empty list. Hume's synthesis surface is not
// wired up; expression measurement is the capability of record.
func (a *Adapter) DiscoverVoices(ctx context.Context) (*domain.VoiceList, error) {
	return &domain.VoiceList{Voices: []domain.Voice{}}, nil
}

// TestConnection probes the model catalog.
func (a *Adapter) TestConnection(ctx context.Context) *domain.ProviderTestResult {
	return a.Probe(ctx, "GET", a.URL("/v0/models", nil), nil)
}

// ValidateAPIKey probes with the candidate key and restores the original.
func (a *Adapter) ValidateAPIKey(ctx context.Context, candidate string) bool {
	return a.ValidateCredential(ctx, candidate, a.TestConnection)
}

// GenerateChatCompletion always fails; Hume has no chat models.
func (a *Adapter) GenerateChatCompletion(ctx context.Context, model string, messages []adapter.Message, opts adapter.ChatOptions) (*domain.ChatResult, error) {
	return nil, domain.ErrProvider(a.Provider().ID, "chat completion is not supported", 0, nil)
}

// GenerateSpeech always fails; Hume has no synthesis surface here.
func (a *Adapter) GenerateSpeech(ctx context.Context, voice, text string, _ adapter.SpeechOptions) (*domain.SpeechResult, error) {
	return nil, domain.ErrProvider(a.Provider().ID, "speech synthesis is not supported", 0, nil)
}
