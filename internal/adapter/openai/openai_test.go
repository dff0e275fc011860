package openai

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pairwell/provider-gateway/internal/adapter"
	"github.com/pairwell/provider-gateway/internal/domain"
	"github.com/pairwell/provider-gateway/internal/ratelimit"
	"github.com/pairwell/provider-gateway/internal/transport"
)

type fakeTransport struct {
	body  string
	calls []*transport.Request
}

func (f *fakeTransport) Do(_ context.Context, req *transport.Request) (*transport.Response, error) {
	f.calls = append(f.calls, req)
	return &transport.Response{Success: true, StatusCode: 200, Data: json.RawMessage(f.body)}, nil
}

func newTestAdapter(t *testing.T, tp transport.Transport) *Adapter {
	t.Helper()
	a, err := New(adapter.Config{
		Provider: domain.Provider{
			ID:      "prov-1",
			Name:    "OpenAI",
			BaseURL: "https://api.openai.com",
			Config: domain.ProviderConfig{
				RateLimits: domain.RateLimits{RequestsPerMinute: 1000},
			},
		},
		APIKey:    "sk-test",
		Transport: tp,
		Limiter:   ratelimit.New(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a.(*Adapter)
}

func TestDiscoverModelsFiltersAndNormalizes(t *testing.T) {
	ft := &fakeTransport{body: `{"object":"list","data":[
		{"id":"gpt-4o","object":"model"},
		{"id":"text-embedding-3-small","object":"model"},
		{"id":"davinci-002","object":"model"},
		{"id":"o1-mini","object":"model"}
	]}`}
	a := newTestAdapter(t, ft)

	list, err := a.DiscoverModels(context.Background())
	if err != nil {
		t.Fatalf("DiscoverModels() error = %v", err)
	}
	if list.Total != 2 {
		t.Fatalf("Total = %d, want 2 after filtering deprecated families", list.Total)
	}

	byID := map[string]domain.Model{}
	for _, m := range list.Models {
		byID[m.ModelID] = m
	}

	gpt4o := byID["gpt-4o"]
	if gpt4o.DisplayName != "GPT-4 Omni" {
		t.Errorf("gpt-4o display name = %q", gpt4o.DisplayName)
	}
	if gpt4o.ContextLimit != 128000 {
		t.Errorf("gpt-4o context = %d, want 128000", gpt4o.ContextLimit)
	}
	if gpt4o.Modality != domain.ModalityMultimodal {
		t.Errorf("gpt-4o modality = %q, want multimodal", gpt4o.Modality)
	}
	if !gpt4o.Capabilities.Tools {
		t.Error("gpt-4o should support tools")
	}
	if gpt4o.InputPricing == nil || gpt4o.InputPricing.Per1KTokens != 0.005 {
		t.Errorf("gpt-4o input pricing = %+v", gpt4o.InputPricing)
	}
	if gpt4o.ID != "prov-1-gpt-4o" {
		t.Errorf("gpt-4o row id = %q", gpt4o.ID)
	}

	o1 := byID["o1-mini"]
	if o1.Capabilities.Tools {
		t.Error("o1-mini must not report tool support")
	}
	if !o1.Capabilities.Vision {
		t.Error("o1-mini should report vision")
	}
	if o1.LatencyMs != 15000 {
		t.Errorf("o1-mini latency = %d, want 15000", o1.LatencyMs)
	}
}

func TestExcluded(t *testing.T) {
	tests := []struct {
		modelID string
		want    bool
	}{
		{"gpt-4o", false},
		{"text-davinci-003", true},
		{"text-embedding-3-large", true},
		{"ada", true},
		{"babbage-002", true},
		{"curie", true},
		{"davinci", true},
		{"code-davinci-002", true},
		{"cushman-codex", true},
		{"o1-preview", false},
		{"chatgpt-4o-latest", false},
	}
	for _, tt := range tests {
		if got := excluded(tt.modelID); got != tt.want {
			t.Errorf("excluded(%q) = %v, want %v", tt.modelID, got, tt.want)
		}
	}
}

func TestContextLimit(t *testing.T) {
	tests := []struct {
		modelID string
		want    int
	}{
		{"gpt-4-turbo", 128000},
		{"gpt-4o-mini", 128000},
		{"gpt-4", 8192},
		{"gpt-3.5-turbo-16k", 16384},
		{"gpt-3.5-turbo", 4096},
		{"o1-preview", 128000},
		{"mystery-model", 4096},
	}
	for _, tt := range tests {
		if got := contextLimit(tt.modelID); got != tt.want {
			t.Errorf("contextLimit(%q) = %d, want %d", tt.modelID, got, tt.want)
		}
	}
}

func TestDisplayNameFallbackTitleCases(t *testing.T) {
	tests := []struct {
		modelID string
		want    string
	}{
		{"gpt-4o", "GPT-4 Omni"},
		{"o1-mini", "O1 Mini"},
		{"sonar-large-chat", "Sonar Large Chat"},
		{"grok-beta", "Grok Beta"},
	}
	for _, tt := range tests {
		if got := displayName(tt.modelID); got != tt.want {
			t.Errorf("displayName(%q) = %q, want %q", tt.modelID, got, tt.want)
		}
	}
}

func TestPricingForUnknownModelUsesDefault(t *testing.T) {
	p := pricingFor("sonar-large-chat")
	if p.input.PerToken != 1.00/1_000_000 {
		t.Errorf("default input per-token = %v", p.input.PerToken)
	}
	if p.output.PerToken != 3.00/1_000_000 {
		t.Errorf("default output per-token = %v", p.output.PerToken)
	}
	if p.input.Currency != "USD" {
		t.Errorf("currency = %q", p.input.Currency)
	}
}

func TestDiscoverVoicesReturnsFixedCatalog(t *testing.T) {
	a := newTestAdapter(t, &fakeTransport{body: `{}`})

	list, err := a.DiscoverVoices(context.Background())
	if err != nil {
		t.Fatalf("DiscoverVoices() error = %v", err)
	}
	if list.Total != 6 {
		t.Fatalf("Total = %d, want 6", list.Total)
	}

	var onyx domain.Voice
	for _, v := range list.Voices {
		if v.VoiceID == "onyx" {
			onyx = v
		}
	}
	if onyx.Gender != "male" {
		t.Errorf("onyx gender = %q, want male", onyx.Gender)
	}
	if onyx.Locale != "en-US" {
		t.Errorf("onyx locale = %q", onyx.Locale)
	}
	if onyx.ID != "prov-1-onyx" {
		t.Errorf("onyx row id = %q", onyx.ID)
	}
}

func TestGenerateChatCompletion(t *testing.T) {
	ft := &fakeTransport{body: `{
		"choices":[{"message":{"content":"Hello there, five words exactly."}}],
		"usage":{"prompt_tokens":12,"completion_tokens":7,"total_tokens":19}
	}`}
	a := newTestAdapter(t, ft)

	result, err := a.GenerateChatCompletion(context.Background(), "gpt-4o-mini",
		[]adapter.Message{{Role: "user", Content: "Say hello in exactly five words."}},
		adapter.ChatOptions{MaxTokens: 50})
	if err != nil {
		t.Fatalf("GenerateChatCompletion() error = %v", err)
	}
	if result.Content != "Hello there, five words exactly." {
		t.Errorf("content = %q", result.Content)
	}
	if result.Usage.TotalTokens != 19 {
		t.Errorf("total tokens = %d", result.Usage.TotalTokens)
	}
	// gpt-4o-mini per-token pricing: 0.15 in, 0.60 out per 1M.
	want := 12*0.15/1_000_000 + 7*0.60/1_000_000
	if diff := result.Cost - want; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("cost = %v, want %v", result.Cost, want)
	}

	if len(ft.calls) != 1 {
		t.Fatalf("transport calls = %d", len(ft.calls))
	}
	var sent map[string]any
	if err := json.Unmarshal(ft.calls[0].Body, &sent); err != nil {
		t.Fatalf("decode sent body: %v", err)
	}
	if sent["model"] != "gpt-4o-mini" {
		t.Errorf("sent model = %v", sent["model"])
	}
}

func TestGenerateSpeechWrapsDataURL(t *testing.T) {
	// Transport data for audio endpoints is the raw MP3 bytes.
	ft := &fakeTransport{body: "RIFFMP3"}
	a := newTestAdapter(t, ft)

	result, err := a.GenerateSpeech(context.Background(), "nova", "Hello, this is a voice test.", adapter.SpeechOptions{})
	if err != nil {
		t.Fatalf("GenerateSpeech() error = %v", err)
	}
	if got, wantPrefix := result.AudioURL, "data:audio/mpeg;base64,"; len(got) <= len(wantPrefix) || got[:len(wantPrefix)] != wantPrefix {
		t.Errorf("audio URL = %q, want data URL", got)
	}
	if result.AudioLength != estimateSpeechMillis("Hello, this is a voice test.") {
		t.Errorf("audio length = %d", result.AudioLength)
	}
}

func TestEstimateSpeechMillis(t *testing.T) {
	if got := estimateSpeechMillis("123456789012345"); got != 1000 {
		t.Errorf("estimateSpeechMillis(15 chars) = %d, want 1000", got)
	}
}
