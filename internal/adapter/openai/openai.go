// Package openai implements the adapter for OpenAI and for any vendor that
// speaks the OpenAI-compatible wire shape (x.ai, Mistral, Perplexity,
// Cohere, Gemini's compatibility surface). It is also the fallback family
// when classification cannot place a provider.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/pairwell/provider-gateway/internal/adapter"
	"github.com/pairwell/provider-gateway/internal/domain"
)

// Family is the classification identifier for this adapter.
const Family = "openai"

// Register wires the factory. Safe to call more than once.
func Register() {
	if adapter.IsRegistered(Family) {
		return
	}
	adapter.RegisterFactory(adapter.Factory{
		Family:      Family,
		Description: "OpenAI and OpenAI-compatible chat and speech APIs",
		Create:      New,
	})
}

// Adapter speaks the OpenAI wire shape against any compatible base URL.
type Adapter struct {
	*adapter.Base
}

// New constructs the adapter. Auth is a standard bearer token.
func New(cfg adapter.Config) (adapter.Adapter, error) {
	return &Adapter{Base: adapter.NewBase(cfg, nil)}, nil
}

type wireModel struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

type wireModelList struct {
	Object string      `json:"object"`
	Data   []wireModel `json:"data"`
}

// excludePrefixes filters deprecated and non-chat catalog entries.
var excludePrefixes = []string{
	"text-",
	"code-",
	"cushman",
	"ada",
	"babbage",
	"curie",
	"davinci",
	"text-embedding",
}

// DiscoverModels fetches /v1/models and normalizes the surviving entries.
func (a *Adapter) DiscoverModels(ctx context.Context) (*domain.ModelList, error) {
	resp, err := a.Request(ctx, "GET", a.URL("/v1/models", nil), nil, nil)
	if err != nil {
		return nil, err
	}

	var list wireModelList
	if err := json.Unmarshal(resp.Data, &list); err != nil {
		return nil, domain.ErrProvider(a.Provider().ID, "decode model list: "+err.Error(), resp.StatusCode, err)
	}

	models := make([]domain.Model, 0, len(list.Data))
	for _, m := range list.Data {
		if excluded(m.ID) {
			continue
		}
		models = append(models, a.normalizeModel(m.ID))
	}
	return &domain.ModelList{Models: models, Total: len(models)}, nil
}

func excluded(modelID string) bool {
	for _, p := range excludePrefixes {
		if strings.HasPrefix(modelID, p) {
			return true
		}
	}
	return false
}

// DiscoverVoices returns the fixed speech voices. The OpenAI surface has no
// voice catalog endpoint.
func (a *Adapter) DiscoverVoices(ctx context.Context) (*domain.VoiceList, error) {
	pid := a.Provider().ID
	fixed := []struct {
		id, name, description, gender string
		styles                        []string
	}{
		{"alloy", "Alloy", "A balanced, natural voice", "neutral", []string{"natural", "balanced"}},
		{"echo", "Echo", "A warm, upbeat voice", "neutral", []string{"warm", "upbeat"}},
		{"fable", "Fable", "A storytelling voice with character", "neutral", []string{"storytelling", "expressive"}},
		{"onyx", "Onyx", "A deep, authoritative voice", "male", []string{"deep", "authoritative"}},
		{"nova", "Nova", "A bright, energetic voice", "female", []string{"bright", "energetic"}},
		{"shimmer", "Shimmer", "A soft, gentle voice", "female", []string{"soft", "gentle"}},
	}

	voices := make([]domain.Voice, 0, len(fixed))
	for _, v := range fixed {
		voices = append(voices, domain.Voice{
			ID:          pid + "-" + v.id,
			ProviderID:  pid,
			VoiceID:     v.id,
			Name:        v.name,
			Description: v.description,
			Gender:      v.gender,
			Locale:      "en-US",
			Language:    "en",
			Styles:      v.styles,
			Enabled:     true,
		})
	}
	return &domain.VoiceList{Voices: voices, Total: len(voices)}, nil
}

// TestConnection probes the model catalog with a single-item page.
func (a *Adapter) TestConnection(ctx context.Context) *domain.ProviderTestResult {
	return a.Probe(ctx, "GET", a.URL("/v1/models", url.Values{"limit": {"1"}}), nil)
}

// ValidateAPIKey probes with the candidate key and restores the original.
func (a *Adapter) ValidateAPIKey(ctx context.Context, candidate string) bool {
	return a.ValidateCredential(ctx, candidate, a.TestConnection)
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

// GenerateChatCompletion invokes /v1/chat/completions.
func (a *Adapter) GenerateChatCompletion(ctx context.Context, model string, messages []adapter.Message, opts adapter.ChatOptions) (*domain.ChatResult, error) {
	ctx, cancel := adapter.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	resp, err := a.Request(ctx, "POST", a.URL("/v1/chat/completions", nil), chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
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
	pricing := pricingFor(model)
	return &domain.ChatResult{
		Content: out.Choices[0].Message.Content,
		Usage:   usage,
		Cost:    a.EstimateCost(usage, pricing.input, pricing.output),
	}, nil
}

type speechRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
	Voice string `json:"voice"`
}

// GenerateSpeech invokes /v1/audio/speech and wraps the MP3 payload as a
// data URL.
func (a *Adapter) GenerateSpeech(ctx context.Context, voice, text string, _ adapter.SpeechOptions) (*domain.SpeechResult, error) {
	resp, err := a.Request(ctx, "POST", a.URL("/v1/audio/speech", nil), speechRequest{
		Model: "tts-1",
		Input: text,
		Voice: voice,
	}, nil)
	if err != nil {
		return nil, err
	}

	return &domain.SpeechResult{
		AudioURL:    "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(resp.Data),
		AudioLength: estimateSpeechMillis(text),
	}, nil
}

// estimateSpeechMillis approximates duration from text length at a typical
// speaking rate of 15 characters per second.
func estimateSpeechMillis(text string) int {
	return len(text) * 1000 / 15
}

func (a *Adapter) normalizeModel(modelID string) domain.Model {
	caps := domain.ModelCapabilities{
		Chat:       isChatModel(modelID),
		Completion: true,
		Streaming:  true,
		Vision:     isVisionModel(modelID),
		Tools:      supportsTools(modelID),
		JSON:       isChatModel(modelID),
	}
	modality := domain.ModalityText
	if caps.Vision {
		modality = domain.ModalityMultimodal
	}
	pricing := pricingFor(modelID)
	return domain.Model{
		ID:            a.Provider().ID + "-" + modelID,
		ProviderID:    a.Provider().ID,
		ModelID:       modelID,
		DisplayName:   displayName(modelID),
		Description:   modelDescription(modelID),
		Modality:      modality,
		ContextLimit:  contextLimit(modelID),
		InputPricing:  pricing.input,
		OutputPricing: pricing.output,
		LatencyMs:     estimatedLatency(modelID),
		Capabilities:  caps,
		Realtime:      strings.Contains(modelID, "realtime"),
		Enabled:       true,
	}
}

func isChatModel(modelID string) bool {
	return strings.Contains(modelID, "gpt") || strings.Contains(modelID, "o1") || strings.HasPrefix(modelID, "chatgpt")
}

func isVisionModel(modelID string) bool {
	return strings.Contains(modelID, "vision") || strings.Contains(modelID, "gpt-4") || strings.Contains(modelID, "o1")
}

func supportsTools(modelID string) bool {
	// o1 models do not accept tool definitions.
	return isChatModel(modelID) && !strings.Contains(modelID, "o1")
}

func contextLimit(modelID string) int {
	switch {
	case strings.Contains(modelID, "gpt-4-turbo"), strings.Contains(modelID, "gpt-4o"):
		return 128000
	case strings.Contains(modelID, "gpt-4"):
		return 8192
	case strings.Contains(modelID, "gpt-3.5-turbo-16k"):
		return 16384
	case strings.Contains(modelID, "gpt-3.5-turbo"):
		return 4096
	case strings.Contains(modelID, "o1"):
		return 128000
	default:
		return 4096
	}
}

var displayNames = map[string]string{
	"gpt-4o":        "GPT-4 Omni",
	"gpt-4o-mini":   "GPT-4 Omni Mini",
	"gpt-4-turbo":   "GPT-4 Turbo",
	"gpt-4":         "GPT-4",
	"gpt-3.5-turbo": "GPT-3.5 Turbo",
	"o1-preview":    "O1 Preview",
	"o1-mini":       "O1 Mini",
}

func displayName(modelID string) string {
	if name, ok := displayNames[modelID]; ok {
		return name
	}
	words := strings.Split(modelID, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

var modelDescriptions = map[string]string{
	"gpt-4o":        "Most advanced multimodal model with vision, audio, and text capabilities",
	"gpt-4o-mini":   "Faster, more affordable version of GPT-4 Omni",
	"gpt-4-turbo":   "High-performance model with large context window",
	"gpt-4":         "Flagship model for complex tasks requiring deep understanding",
	"gpt-3.5-turbo": "Fast and efficient model for most conversational tasks",
	"o1-preview":    "Reasoning model optimized for complex problem-solving",
	"o1-mini":       "Smaller reasoning model for coding and math problems",
}

func modelDescription(modelID string) string {
	if d, ok := modelDescriptions[modelID]; ok {
		return d
	}
	return fmt.Sprintf("OpenAI %s model", displayName(modelID))
}

func estimatedLatency(modelID string) int {
	switch {
	case strings.Contains(modelID, "o1"):
		return 15000
	case strings.Contains(modelID, "gpt-4o-mini"):
		return 800
	case strings.Contains(modelID, "gpt-4o"):
		return 1200
	case strings.Contains(modelID, "gpt-4"):
		return 2000
	case strings.Contains(modelID, "gpt-3.5"):
		return 600
	default:
		return 1000
	}
}

type modelPricing struct {
	input  *domain.TokenPricing
	output *domain.TokenPricing
}

// pricingTable holds USD per 1M tokens. Approximate and refreshed by hand.
var pricingTable = map[string][2]float64{
	"gpt-4o":        {5.00, 15.00},
	"gpt-4o-mini":   {0.15, 0.60},
	"gpt-4-turbo":   {10.00, 30.00},
	"gpt-4":         {30.00, 60.00},
	"gpt-3.5-turbo": {0.50, 1.50},
	"o1-preview":    {15.00, 60.00},
	"o1-mini":       {3.00, 12.00},
}

func pricingFor(modelID string) modelPricing {
	per1M, ok := pricingTable[modelID]
	if !ok {
		per1M = [2]float64{1.00, 3.00}
	}
	return modelPricing{
		input:  perMillion(per1M[0]),
		output: perMillion(per1M[1]),
	}
}

func perMillion(usd float64) *domain.TokenPricing {
	return &domain.TokenPricing{
		PerToken:    usd / 1_000_000,
		Per1KTokens: usd / 1_000,
		Currency:    "USD",
	}
}
