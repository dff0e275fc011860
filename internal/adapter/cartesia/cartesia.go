// Package cartesia implements the adapter for the Cartesia speech API.
// Cartesia is voice-only; model discovery returns an empty list.
package cartesia

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/pairwell/provider-gateway/internal/adapter"
	"github.com/pairwell/provider-gateway/internal/domain"
)

// Family is the classification identifier for this adapter.
const Family = "cartesia"

// APIVersion is the Cartesia-Version header value sent on every call.
const APIVersion = "2024-06-10"

// Register wires the factory. Safe to call more than once.
func Register() {
	if adapter.IsRegistered(Family) {
		return
	}
	adapter.RegisterFactory(adapter.Factory{
		Family:      Family,
		Description: "Cartesia text-to-speech API",
		Create:      New,
	})
}

// Adapter speaks the Cartesia API.
type Adapter struct {
	*adapter.Base
}

// New constructs the adapter with Cartesia's X-API-Key auth scheme.
func New(cfg adapter.Config) (adapter.Adapter, error) {
	return &Adapter{Base: adapter.NewBase(cfg, func(apiKey string) map[string]string {
		return map[string]string{
			"X-API-Key":        apiKey,
			"Cartesia-Version": APIVersion,
		}
	})}, nil
}

// DiscoverModels returns an empty list. Cartesia offers no language models.
func (a *Adapter) DiscoverModels(ctx context.Context) (*domain.ModelList, error) {
	return &domain.ModelList{Models: []domain.Model{}}, nil
}

type wireVoice struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Gender      string   `json:"gender"`
	Language    string   `json:"language"`
	Accent      string   `json:"accent"`
	Age         string   `json:"age"`
	Style       []string `json:"style"`
	SampleURL   string   `json:"sample_url"`
}

type wireVoiceList struct {
	Voices []wireVoice `json:"voices"`
}

// DiscoverVoices fetches /v1/voices. Cartesia reports structured voice
// metadata directly, so normalization is a field mapping with defaults.
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
		gender := v.Gender
		if gender == "" {
			gender = "neutral"
		}
		locale := v.Language
		if locale == "" {
			locale = "en-US"
		}
		language := v.Language
		if language == "" {
			language = "English"
		}
		age := v.Age
		if age == "" {
			age = "adult"
		}
		voices = append(voices, domain.Voice{
			ID:          pid + "-" + v.ID,
			ProviderID:  pid,
			VoiceID:     v.ID,
			Name:        v.Name,
			Description: v.Description,
			Gender:      gender,
			Locale:      locale,
			Language:    language,
			Accent:      v.Accent,
			Age:         age,
			Styles:      v.Style,
			SampleURL:   v.SampleURL,
			Enabled:     true,
		})
	}
	return &domain.VoiceList{Voices: voices, Total: len(voices)}, nil
}

// TestConnection probes the voice catalog.
func (a *Adapter) TestConnection(ctx context.Context) *domain.ProviderTestResult {
	return a.Probe(ctx, "GET", a.URL("/v1/voices", nil), nil)
}

// ValidateAPIKey probes with the candidate key and restores the original.
func (a *Adapter) ValidateAPIKey(ctx context.Context, candidate string) bool {
	return a.ValidateCredential(ctx, candidate, a.TestConnection)
}

// GenerateChatCompletion always fails; Cartesia has no text models.
func (a *Adapter) GenerateChatCompletion(ctx context.Context, model string, messages []adapter.Message, opts adapter.ChatOptions) (*domain.ChatResult, error) {
	return nil, domain.ErrProvider(a.Provider().ID, "chat completion is not supported", 0, nil)
}

type speechRequest struct {
	ModelID    string       `json:"model_id"`
	Transcript string       `json:"transcript"`
	Voice      speechVoice  `json:"voice"`
	Output     outputFormat `json:"output_format"`
}

type speechVoice struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type outputFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

// GenerateSpeech invokes /tts/bytes and wraps the audio as a data URL.
func (a *Adapter) GenerateSpeech(ctx context.Context, voice, text string, _ adapter.SpeechOptions) (*domain.SpeechResult, error) {
	resp, err := a.Request(ctx, "POST", a.URL("/tts/bytes", nil), speechRequest{
		ModelID:    "sonic-english",
		Transcript: text,
		Voice:      speechVoice{Mode: "id", ID: voice},
		Output:     outputFormat{Container: "mp3", Encoding: "mp3", SampleRate: 44100},
	}, nil)
	if err != nil {
		return nil, err
	}

	return &domain.SpeechResult{
		AudioURL:    "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(resp.Data),
		AudioLength: len(text) * 1000 / 15,
	}, nil
}
