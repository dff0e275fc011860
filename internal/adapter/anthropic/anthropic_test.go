package anthropic

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
			ID:      "prov-an",
			Name:    "Anthropic",
			BaseURL: "https://api.anthropic.com",
			Config: domain.ProviderConfig{
				RateLimits: domain.RateLimits{RequestsPerMinute: 60},
			},
		},
		APIKey:    "sk-ant",
		Transport: tp,
		Limiter:   ratelimit.New(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a.(*Adapter)
}

func TestAuthHeaders(t *testing.T) {
	ft := &fakeTransport{body: `{"content":[],"usage":{}}`}
	a := newTestAdapter(t, ft)

	a.TestConnection(context.Background())

	headers := ft.calls[0].Headers
	if headers["x-api-key"] != "sk-ant" {
		t.Errorf("x-api-key = %q", headers["x-api-key"])
	}
	if headers["anthropic-version"] != APIVersion {
		t.Errorf("anthropic-version = %q", headers["anthropic-version"])
	}
	if _, ok := headers["Authorization"]; ok {
		t.Error("unexpected Authorization header")
	}
}

func TestTestConnectionProbesCheapestModel(t *testing.T) {
	ft := &fakeTransport{body: `{"content":[],"usage":{}}`}
	a := newTestAdapter(t, ft)

	result := a.TestConnection(context.Background())
	if !result.Healthy {
		t.Errorf("result = %+v", result)
	}

	req := ft.calls[0]
	if req.Method != "POST" {
		t.Errorf("probe method = %q, want POST", req.Method)
	}
	var sent map[string]any
	if err := json.Unmarshal(req.Body, &sent); err != nil {
		t.Fatalf("decode probe body: %v", err)
	}
	if sent["model"] != probeModel {
		t.Errorf("probe model = %v, want %s", sent["model"], probeModel)
	}
	if sent["max_tokens"] != float64(10) {
		t.Errorf("probe max_tokens = %v, want 10", sent["max_tokens"])
	}
}

func TestDiscoverModelsReturnsCuratedList(t *testing.T) {
	a := newTestAdapter(t, &fakeTransport{body: `{}`})

	list, err := a.DiscoverModels(context.Background())
	if err != nil {
		t.Fatalf("DiscoverModels() error = %v", err)
	}
	if list.Total != len(knownModels) {
		t.Fatalf("Total = %d, want %d", list.Total, len(knownModels))
	}

	for _, m := range list.Models {
		if m.ContextLimit != 200000 {
			t.Errorf("%s context = %d, want 200000", m.ModelID, m.ContextLimit)
		}
		if m.Modality != domain.ModalityMultimodal {
			t.Errorf("%s modality = %q", m.ModelID, m.Modality)
		}
		if m.InputPricing == nil || m.OutputPricing == nil {
			t.Errorf("%s missing pricing", m.ModelID)
		}
		if !m.Capabilities.Chat || !m.Capabilities.Vision || !m.Capabilities.Tools {
			t.Errorf("%s capabilities = %+v", m.ModelID, m.Capabilities)
		}
	}
}

func TestGenerateChatCompletionFlattensTextBlocks(t *testing.T) {
	ft := &fakeTransport{body: `{
		"content":[
			{"type":"text","text":"Hello "},
			{"type":"tool_use","text":"ignored"},
			{"type":"text","text":"world."}
		],
		"usage":{"input_tokens":20,"output_tokens":5}
	}`}
	a := newTestAdapter(t, ft)

	result, err := a.GenerateChatCompletion(context.Background(), "claude-3-5-haiku-20241022",
		[]adapter.Message{{Role: "user", Content: "hi"}}, adapter.ChatOptions{})
	if err != nil {
		t.Fatalf("GenerateChatCompletion() error = %v", err)
	}
	if result.Content != "Hello world." {
		t.Errorf("content = %q", result.Content)
	}
	if result.Usage.TotalTokens != 25 {
		t.Errorf("total tokens = %d, want input+output", result.Usage.TotalTokens)
	}
	// Haiku pricing: 0.00025 in, 0.00125 out per 1k tokens.
	want := 20*0.00025/1000 + 5*0.00125/1000
	if diff := result.Cost - want; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("cost = %v, want %v", result.Cost, want)
	}

	var sent map[string]any
	if err := json.Unmarshal(ft.calls[0].Body, &sent); err != nil {
		t.Fatalf("decode sent body: %v", err)
	}
	if sent["max_tokens"] != float64(1024) {
		t.Errorf("default max_tokens = %v, want 1024", sent["max_tokens"])
	}
}

func TestSpeechUnsupported(t *testing.T) {
	a := newTestAdapter(t, &fakeTransport{body: `{}`})

	if _, err := a.GenerateSpeech(context.Background(), "v", "text", adapter.SpeechOptions{}); err == nil {
		t.Error("GenerateSpeech() error = nil, want unsupported")
	}
	voices, err := a.DiscoverVoices(context.Background())
	if err != nil {
		t.Fatalf("DiscoverVoices() error = %v", err)
	}
	if voices.Total != 0 || len(voices.Voices) != 0 {
		t.Errorf("voices = %+v, want empty", voices)
	}
}
