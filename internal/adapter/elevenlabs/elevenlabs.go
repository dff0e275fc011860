// Package elevenlabs implements the adapter for the ElevenLabs speech API.
// Voice discovery is the main event here; the vendor's catalog carries
// free-form labels that we normalize into gender, age, and locale.
package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pairwell/provider-gateway/internal/adapter"
	"github.com/pairwell/provider-gateway/internal/domain"
)

// Family is the classification identifier for this adapter.
const Family = "elevenlabs"

// Register wires the factory. Safe to call more than once.
func Register() {
	if adapter.IsRegistered(Family) {
		return
	}
	adapter.RegisterFactory(adapter.Factory{
		Family:      Family,
		Description: "ElevenLabs text-to-speech API",
		Create:      New,
	})
}

// Adapter speaks the ElevenLabs API with its xi-api-key auth scheme.
type Adapter struct {
	*adapter.Base
}

// New constructs the adapter.
func New(cfg adapter.Config) (adapter.Adapter, error) {
	return &Adapter{Base: adapter.NewBase(cfg, func(apiKey string) map[string]string {
		return map[string]string{"xi-api-key": apiKey}
	})}, nil
}

type wireModel struct {
	ModelID           string  `json:"model_id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	CanDoTextToSpeech bool    `json:"can_do_text_to_speech"`
	TokenCostFactor   float64 `json:"token_cost_factor"`
}

type wireModelList struct {
	Models []wireModel `json:"models"`
}

// modelLatencies holds typical first-byte latencies by model, in ms.
var modelLatencies = map[string]int{
	"eleven_turbo_v2":        300,
	"eleven_multilingual_v2": 800,
	"eleven_monolingual_v1":  1000,
	"eleven_english_v1":      600,
}

// DiscoverModels fetches /v1/models, keeping only TTS-capable entries.
// The top-level response is a bare array on current API versions and a
// wrapped object on older ones; both shapes are accepted.
func (a *Adapter) DiscoverModels(ctx context.Context) (*domain.ModelList, error) {
	resp, err := a.Request(ctx, "GET", a.URL("/v1/models", nil), nil, nil)
	if err != nil {
		return nil, err
	}

	var entries []wireModel
	if err := json.Unmarshal(resp.Data, &entries); err != nil {
		var wrapped wireModelList
		if err2 := json.Unmarshal(resp.Data, &wrapped); err2 != nil {
			return nil, domain.ErrProvider(a.Provider().ID, "decode model list: "+err.Error(), resp.StatusCode, err)
		}
		entries = wrapped.Models
	}

	pid := a.Provider().ID
	models := make([]domain.Model, 0, len(entries))
	for _, m := range entries {
		if !m.CanDoTextToSpeech {
			continue
		}
		latency, ok := modelLatencies[m.ModelID]
		if !ok {
			latency = 500
		}
		perChar := 0.00003 * m.TokenCostFactor
		models = append(models, domain.Model{
			ID:          pid + "-" + m.ModelID,
			ProviderID:  pid,
			ModelID:     m.ModelID,
			DisplayName: m.Name,
			Description: m.Description,
			Modality:    domain.ModalityAudio,
			// ElevenLabs limits input by characters, not tokens.
			ContextLimit: 2500,
			InputPricing: &domain.TokenPricing{
				PerToken:    perChar,
				Per1KTokens: perChar * 1000,
				Currency:    "USD",
			},
			LatencyMs: latency,
			Capabilities: domain.ModelCapabilities{
				Streaming: true,
			},
			Enabled: true,
		})
	}
	return &domain.ModelList{Models: models, Total: len(models)}, nil
}

type wireVoice struct {
	VoiceID     string            `json:"voice_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	PreviewURL  string            `json:"preview_url"`
	Category    string            `json:"category"`
	Labels      map[string]string `json:"labels"`
}

type wireVoiceList struct {
	Voices []wireVoice `json:"voices"`
}

// DiscoverVoices fetches /v1/voices and normalizes label metadata.
func (a *Adapter) DiscoverVoices(ctx context.Context) (*domain.VoiceList, error) {
	resp, err := a.Request(ctx, "GET", a.URL("/v1/voices", nil), nil, nil)
	if err != nil {
		return nil, err
	}

	var list wireVoiceList
	if err := json.Unmarshal(resp.Data, &list); err != nil {
		return nil, domain.ErrProvider(a.Provider().ID, "decode voice list: "+err.Error(), resp.StatusCode, err)
	}

	pid := a.Provider().ID
	voices := make([]domain.Voice, 0, len(list.Voices))
	for _, v := range list.Voices {
		labels := v.Labels
		if labels == nil {
			labels = map[string]string{}
		}
		description := v.Description
		if description == "" {
			description = fmt.Sprintf("ElevenLabs %s voice", v.Name)
		}
		accent := labels["accent"]
		if accent == "" {
			accent = "american"
		}
		language := labels["language"]
		if language == "" {
			language = "en"
		}
		voices = append(voices, domain.Voice{
			ID:          pid + "-" + v.VoiceID,
			ProviderID:  pid,
			VoiceID:     v.VoiceID,
			Name:        v.Name,
			Description: description,
			Gender:      inferGender(v.Name, labels),
			Locale:      localeFromLabels(labels),
			Language:    language,
			Accent:      accent,
			Age:         inferAge(labels),
			Styles:      stylesFromCategory(v.Category),
			SampleURL:   v.PreviewURL,
			LatencyMs:   2000,
			Pricing: &domain.VoicePricing{
				PerCharacter: 0.00003,
				PerSecond:    0.0024,
				Currency:     "USD",
			},
			Enabled: true,
		})
	}
	return &domain.VoiceList{Voices: voices, Total: len(voices)}, nil
}

// TestConnection probes the account endpoint.
func (a *Adapter) TestConnection(ctx context.Context) *domain.ProviderTestResult {
	return a.Probe(ctx, "GET", a.URL("/v1/user", nil), nil)
}

// ValidateAPIKey probes with the candidate key and restores the original.
func (a *Adapter) ValidateAPIKey(ctx context.Context, candidate string) bool {
	return a.ValidateCredential(ctx, candidate, a.TestConnection)
}

// GenerateChatCompletion always fails; ElevenLabs has no text models.
func (a *Adapter) GenerateChatCompletion(ctx context.Context, model string, messages []adapter.Message, opts adapter.ChatOptions) (*domain.ChatResult, error) {
	return nil, domain.ErrProvider(a.Provider().ID, "chat completion is not supported", 0, nil)
}

type speechRequest struct {
	Text          string         `json:"text"`
	ModelID       string         `json:"model_id"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// GenerateSpeech invokes /v1/text-to-speech/{voice_id} and wraps the MP3
// payload as a data URL.
func (a *Adapter) GenerateSpeech(ctx context.Context, voice, text string, opts adapter.SpeechOptions) (*domain.SpeechResult, error) {
	req := speechRequest{Text: text, ModelID: "eleven_turbo_v2"}
	if opts.Stability > 0 || opts.SimilarityBoost > 0 {
		req.VoiceSettings = &voiceSettings{
			Stability:       opts.Stability,
			SimilarityBoost: opts.SimilarityBoost,
		}
	}
	resp, err := a.Request(ctx, "POST", a.URL("/v1/text-to-speech/"+voice, nil), req, nil)
	if err != nil {
		return nil, err
	}

	return &domain.SpeechResult{
		AudioURL:    "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(resp.Data),
		AudioLength: len(text) * 1000 / 15,
	}, nil
}

var maleNames = []string{"adam", "antoni", "arnold", "bill", "brian", "callum", "charlie", "clyde", "daniel", "dave", "drew", "ethan", "fin", "george", "gideon", "harry", "james", "jeremy", "joseph", "josh", "liam", "marcus", "michael", "paul", "sam", "thomas", "will"}

var femaleNames = []string{"alice", "aria", "bella", "charlotte", "cloe", "domi", "dorothy", "elli", "emily", "emma", "freya", "glinda", "grace", "lily", "matilda", "mimi", "nicole", "rachel", "sarah", "serena", "sophia"}

func inferGender(name string, labels map[string]string) string {
	if g := strings.ToLower(labels["gender"]); g != "" {
		if strings.Contains(g, "female") {
			return "female"
		}
		if strings.Contains(g, "male") {
			return "male"
		}
	}
	lower := strings.ToLower(name)
	for _, n := range femaleNames {
		if strings.Contains(lower, n) {
			return "female"
		}
	}
	for _, n := range maleNames {
		if strings.Contains(lower, n) {
			return "male"
		}
	}
	return "neutral"
}

func inferAge(labels map[string]string) string {
	age := strings.ToLower(labels["age"])
	switch {
	case strings.Contains(age, "young"), strings.Contains(age, "child"), strings.Contains(age, "teen"):
		return "young"
	case strings.Contains(age, "old"), strings.Contains(age, "elderly"), strings.Contains(age, "senior"):
		return "elderly"
	default:
		return "adult"
	}
}

var accentLocales = map[string]string{
	"american":      "en-US",
	"british":       "en-GB",
	"australian":    "en-AU",
	"canadian":      "en-CA",
	"irish":         "en-IE",
	"scottish":      "en-GB",
	"south-african": "en-ZA",
}

var languageLocales = map[string]string{
	"en": "en-US",
	"es": "es-ES",
	"fr": "fr-FR",
	"de": "de-DE",
	"it": "it-IT",
	"pt": "pt-BR",
	"pl": "pl-PL",
	"hi": "hi-IN",
	"ar": "ar-SA",
	"zh": "zh-CN",
	"ja": "ja-JP",
	"ko": "ko-KR",
}

func localeFromLabels(labels map[string]string) string {
	if locale, ok := accentLocales[strings.ToLower(labels["accent"])]; ok {
		return locale
	}
	language := strings.ToLower(labels["language"])
	if language == "" {
		language = "en"
	}
	if locale, ok := languageLocales[language]; ok {
		return locale
	}
	return "en-US"
}

var categoryStyles = map[string][]string{
	"generated":    {"synthetic", "ai-generated"},
	"cloned":       {"cloned", "replica"},
	"premade":      {"natural", "professional"},
	"high_quality": {"premium", "high-quality"},
	"low_latency":  {"fast", "responsive"},
}

func stylesFromCategory(category string) []string {
	if styles, ok := categoryStyles[category]; ok {
		return styles
	}
	return []string{"natural"}
}
