// Package zai implements the adapter for the Z.AI GLM API. Z.AI speaks an
// OpenAI-compatible chat wire shape but publishes no catalog endpoint, so
// discovery returns the known GLM models.
package zai

import (
	"context"
	"encoding/json"

	"github.com/pairwell/provider-gateway/internal/adapter"
	"github.com/pairwell/provider-gateway/internal/domain"
)

// Family is the classification identifier for this adapter.
const Family = "zai"

// probeModel is the cheapest model, used for connection probes.
const probeModel = "GLM-4.5-Air"

// Register wires the factory. Safe to call more than once.
func Register() {
	if adapter.IsRegistered(Family) {
		return
	}
	adapter.RegisterFactory(adapter.Factory{
		Family:      Family,
		Description: "Z.AI GLM chat API",
		Create:      New,
	})
}

// Adapter speaks the Z.AI API. Auth is a standard bearer token.
type Adapter struct {
	*adapter.Base
}

// New constructs the adapter.
func New(cfg adapter.Config) (adapter.Adapter, error) {
	return &Adapter{Base: adapter.NewBase(cfg, nil)}, nil
}

type knownModel struct {
	modelID      string
	description  string
	contextLimit int
	inPer1K      float64
	outPer1K     float64
}

var knownModels = []knownModel{
	{"GLM-4.5-Air", "Fast and efficient model for generating AI suggestions", 8192, 0.0001, 0.0002},
	{"GLM-4.6", "Advanced model for generating comprehensive assessment results", 16384, 0.0002, 0.0004},
}

// DiscoverModels returns the known GLM models.
func (a *Adapter) DiscoverModels(ctx context.Context) (*domain.ModelList, error) {
	pid := a.Provider().ID
	models := make([]domain.Model, 0, len(knownModels))
	for _, km := range knownModels {
		models = append(models, domain.Model{
			ID:           pid + "-" + km.modelID,
			ProviderID:   pid,
			ModelID:      km.modelID,
			DisplayName:  km.modelID,
			Description:  km.description,
			Modality:     domain.ModalityText,
			ContextLimit: km.contextLimit,
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
			Capabilities: domain.ModelCapabilities{
				Chat:       true,
				Completion: true,
				Streaming:  true,
				JSON:       true,
			},
			Enabled: true,
		})
	}
	return &domain.ModelList{Models: models, Total: len(models)}, nil
}

// DiscoverVoices returns an empty list. Z.AI has no speech surface.
func (a *Adapter) DiscoverVoices(ctx context.Context) (*domain.VoiceList, error) {
	return &domain.VoiceList{Voices: []domain.Voice{}}, nil
}

type chatRequest struct {
	Model       string            `json:"model"`
	Messages    []adapter.Message `json:"messages"`
	Temperature float64           `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// TestConnection sends a minimal chat completion. Z.AI publishes no list
// endpoint, so a tiny completion against the cheapest model is the probe.
func (a *Adapter) TestConnection(ctx context.Context) *domain.ProviderTestResult {
	return a.Probe(ctx, "POST", a.URL("/chat/completions", nil), chatRequest{
		Model:       probeModel,
		Messages:    []adapter.Message{{Role: "user", Content: "Health check test"}},
		Temperature: 0.7,
		MaxTokens:   10,
	})
}

// ValidateAPIKey probes with the candidate key and restores the original.
func (a *Adapter) ValidateAPIKey(ctx context.Context, candidate string) bool {
	return a.ValidateCredential(ctx, candidate, a.TestConnection)
}

// GenerateChatCompletion invokes /chat/completions.
func (a *Adapter) GenerateChatCompletion(ctx context.Context, model string, messages []adapter.Message, opts adapter.ChatOptions) (*domain.ChatResult, error) {
	ctx, cancel := adapter.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	if model == "" {
		model = probeModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1500
	}
	resp, err := a.Request(ctx, "POST", a.URL("/chat/completions", nil), chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   maxTokens,
	}, nil)
	if err != nil {
		return nil, err
	}

	var out chatResponse
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return nil, domain.ErrProvider(a.Provider().ID, "decode chat response: "+err.Error(), resp.StatusCode, err)
	}
	if len(out.Choices) == 0 {
		return nil, domain.ErrProvider(a.Provider().ID, "chat response carried no choices", resp.StatusCode, nil)
	}

	usage := domain.Usage{
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
		TotalTokens:      out.Usage.TotalTokens,
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
		Content: out.Choices[0].Message.Content,
		Usage:   usage,
		Cost:    a.EstimateCost(usage, in, outPricing),
	}, nil
}

// GenerateSpeech always fails; Z.AI has no synthesis capability.
func (a *Adapter) GenerateSpeech(ctx context.Context, voice, text string, _ adapter.SpeechOptions) (*domain.SpeechResult, error) {
	return nil, domain.ErrProvider(a.Provider().ID, "speech synthesis is not supported", 0, nil)
}
