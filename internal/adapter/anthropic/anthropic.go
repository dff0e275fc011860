// Package anthropic implements the adapter for the Anthropic Claude API.
// The vendor publishes no model catalog endpoint, so discovery returns a
// curated list of known models with hand-maintained pricing.
package anthropic

import (
	"context"
	"encoding/json"

	"github.com/pairwell/provider-gateway/internal/adapter"
	"github.com/pairwell/provider-gateway/internal/domain"
)

// Family is the classification identifier for this adapter.
const Family = "anthropic"

// APIVersion is the anthropic-version header value sent on every call.
const APIVersion = "2023-06-01"

// probeModel is the cheapest model, used for connection probes.
const probeModel = "claude-3-5-haiku-20241022"

// Register wires the factory. Safe to call more than once.
func Register() {
	if adapter.IsRegistered(Family) {
		return
	}
	adapter.RegisterFactory(adapter.Factory{
		Family:      Family,
		Description: "Anthropic Claude messages API",
		Create:      New,
	})
}

// Adapter speaks the Anthropic messages API.
type Adapter struct {
	*adapter.Base
}

// New constructs the adapter with Anthropic's x-api-key auth scheme.
func New(cfg adapter.Config) (adapter.Adapter, error) {
	return &Adapter{Base: adapter.NewBase(cfg, func(apiKey string) map[string]string {
		return map[string]string{
			"x-api-key":         apiKey,
			"anthropic-version": APIVersion,
		}
	})}, nil
}

type knownModel struct {
	modelID     string
	displayName string
	description string
	inPer1K     float64
	outPer1K    float64
	latencyMs   int
}

var knownModels = []knownModel{
	{"claude-3-5-sonnet-20241022", "Claude 3.5 Sonnet", "Most capable Claude model for complex tasks, coding, and analysis", 0.003, 0.015, 2500},
	{"claude-3-5-haiku-20241022", "Claude 3.5 Haiku", "Fastest Claude model for simple tasks and quick responses", 0.00025, 0.00125, 800},
	{"claude-3-opus-20240229", "Claude 3 Opus", "Most powerful Claude model for highly complex tasks", 0.015, 0.075, 4000},
	{"claude-3-sonnet-20240229", "Claude 3 Sonnet", "Balanced Claude model for most tasks", 0.003, 0.015, 2000},
	{"claude-3-haiku-20240307", "Claude 3 Haiku", "Fast and cost-effective Claude model", 0.00025, 0.00125, 1000},
}

// DiscoverModels returns the curated Claude model list. Every entry is
// multimodal with the full chat capability set and a 200k context window.
func (a *Adapter) DiscoverModels(ctx context.Context) (*domain.ModelList, error) {
	pid := a.Provider().ID
	models := make([]domain.Model, 0, len(knownModels))
	for _, km := range knownModels {
		models = append(models, domain.Model{
			ID:           pid + "-" + km.modelID,
			ProviderID:   pid,
			ModelID:      km.modelID,
			DisplayName:  km.displayName,
			Description:  km.description,
			Modality:     domain.ModalityMultimodal,
			ContextLimit: 200000,
			InputPricing: &domain.TokenPricing{
				PerToken:    km.inPer1K / 1000,
				Per1KTokens: km.inPer1K,
				Currency:    "USD",
			},
			OutputPricing: &domain.TokenPricing{
				PerToken:    km.outPer1K / 1000,
				Per1KTokens: km.outPer1K,
				Currency:    "USD",
			},
			LatencyMs: km.latencyMs,
			Capabilities: domain.ModelCapabilities{
				Chat:       true,
				Completion: true,
				Streaming:  true,
				Vision:     true,
				Tools:      true,
				JSON:       true,
			},
			Enabled: true,
		})
	}
	return &domain.ModelList{Models: models, Total: len(models)}, nil
}

// DiscoverVoices returns an empty list. Anthropic has no speech surface.
func (a *Adapter) DiscoverVoices(ctx context.Context) (*domain.VoiceList, error) {
	return &domain.VoiceList{Voices: []domain.Voice{}}, nil
}

type messagesRequest struct {
	Model       string            `json:"model"`
	MaxTokens   int               `json:"max_tokens"`
	Messages    []adapter.Message `json:"messages"`
	Temperature float64           `json:"temperature,omitempty"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// TestConnection sends a minimal message to the cheapest model. There is no
// unauthenticated or list-style endpoint to probe instead.
func (a *Adapter) TestConnection(ctx context.Context) *domain.ProviderTestResult {
	return a.Probe(ctx, "POST", a.URL("/v1/messages", nil), messagesRequest{
		Model:     probeModel,
		MaxTokens: 10,
		Messages:  []adapter.Message{{Role: "user", Content: "Hello"}},
	})
}

// ValidateAPIKey probes with the candidate key and restores the original.
func (a *Adapter) ValidateAPIKey(ctx context.Context, candidate string) bool {
	return a.ValidateCredential(ctx, candidate, a.TestConnection)
}

// GenerateChatCompletion invokes /v1/messages and flattens the text blocks.
func (a *Adapter) GenerateChatCompletion(ctx context.Context, model string, messages []adapter.Message, opts adapter.ChatOptions) (*domain.ChatResult, error) {
	ctx, cancel := adapter.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	resp, err := a.Request(ctx, "POST", a.URL("/v1/messages", nil), messagesRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Messages:    messages,
		Temperature: opts.Temperature,
	}, nil)
	if err != nil {
		return nil, err
	}

	var out messagesResponse
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return nil, domain.ErrProvider(a.Provider().ID, "decode messages response: "+err.Error(), resp.StatusCode, err)
	}

	var content string
	for _, block := range out.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	usage := domain.Usage{
		PromptTokens:     out.Usage.InputTokens,
		CompletionTokens: out.Usage.OutputTokens,
		TotalTokens:      out.Usage.InputTokens + out.Usage.OutputTokens,
	}
	var in, outPricing *domain.TokenPricing
	for _, km := range knownModels {
		if km.modelID == model {
			in = &domain.TokenPricing{PerToken: km.inPer1K / 1000, Per1KTokens: km.inPer1K, Currency: "USD"}
			outPricing = &domain.TokenPricing{PerToken: km.outPer1K / 1000, Per1KTokens: km.outPer1K, Currency: "USD"}
			break
		}
	}
	return &domain.ChatResult{
		Content: content,
		Usage:   usage,
		Cost:    a.EstimateCost(usage, in, outPricing),
	}, nil
}

// GenerateSpeech always fails; Anthropic has no synthesis capability.
func (a *Adapter) GenerateSpeech(ctx context.Context, voice, text string, _ adapter.SpeechOptions) (*domain.SpeechResult, error) {
	return nil, domain.ErrProvider(a.Provider().ID, "speech synthesis is not supported", 0, nil)
}
