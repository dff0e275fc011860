package classify

import (
	"testing"

	"github.com/pairwell/provider-gateway/internal/domain"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		provName   string
		baseURL    string
		family     domain.Family
		wantFamily string
		wantRPM    int
	}{
		{"anthropic by name", "Anthropic", "", domain.FamilyLLM, "anthropic", 60},
		{"claude in name", "My Claude Connection", "", domain.FamilyLLM, "anthropic", 60},
		{"zai by url", "coding assistant", "https://api.z.ai/api/coding/paas/v4", domain.FamilyLLM, "zai", 60},
		{"glm in name", "GLM backend", "", domain.FamilyLLM, "zai", 60},
		{"elevenlabs", "ElevenLabs", "", domain.FamilyTTS, "elevenlabs", 20},
		{"tts family routes to elevenlabs", "some speech vendor", "", domain.FamilyTTS, "elevenlabs", 20},
		{"cartesia", "Cartesia Sonic", "", domain.FamilyTTS, "cartesia", 20},
		{"deepgram", "Deepgram", "", domain.FamilySTT, "deepgram", 30},
		{"stt family routes to deepgram", "transcriber", "", domain.FamilySTT, "deepgram", 30},
		{"hume", "Hume AI", "", domain.FamilyMultimodal, "hume", 20},
		{"grok", "Grok", "https://api.x.ai/v1", domain.FamilyLLM, "openai", 60},
		{"mistral", "Mistral Large", "", domain.FamilyLLM, "openai", 60},
		{"perplexity", "Perplexity", "", domain.FamilyLLM, "openai", 60},
		{"cohere", "Cohere", "", domain.FamilyLLM, "openai", 60},
		{"gemini", "Gemini Pro", "", domain.FamilyLLM, "openai", 60},
		{"google by url", "experimental", "https://generativelanguage.googleapis.com/v1beta", domain.FamilyLLM, "openai", 60},
		{"openai proper", "OpenAI", "https://api.openai.com", domain.FamilyLLM, "openai", 60},
		{"unknown falls back to openai", "totally-custom-vendor", "https://llm.internal.example", domain.FamilyLLM, "openai", 60},
		{"empty input falls back", "", "", "", "openai", 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.provName, tt.baseURL, tt.family)
			if got.AdapterFamily != tt.wantFamily {
				t.Errorf("Resolve() family = %v, want %v", got.AdapterFamily, tt.wantFamily)
			}
			if got.RequestsPerMinute != tt.wantRPM {
				t.Errorf("Resolve() rpm = %v, want %v", got.RequestsPerMinute, tt.wantRPM)
			}
			if got.DefaultBaseURL == "" {
				t.Error("Resolve() returned empty default base URL")
			}
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	first := Resolve("Anthropic Claude TTS", "", domain.FamilyLLM)
	for i := 0; i < 10; i++ {
		if got := Resolve("Anthropic Claude TTS", "", domain.FamilyLLM); got != first {
			t.Fatalf("Resolve() varied across calls: %+v vs %+v", got, first)
		}
	}
	// Both the anthropic and elevenlabs rules match; the earlier one wins.
	if first.AdapterFamily != "anthropic" {
		t.Errorf("Resolve() family = %v, want anthropic (first matching rule)", first.AdapterFamily)
	}
}

func TestFamiliesCoverRegisteredAdapters(t *testing.T) {
	want := map[string]bool{
		"openai": true, "anthropic": true, "elevenlabs": true,
		"cartesia": true, "deepgram": true, "hume": true, "zai": true,
	}
	got := Families()
	if len(got) != len(want) {
		t.Fatalf("Families() = %v, want %d families", got, len(want))
	}
	for _, f := range got {
		if !want[f] {
			t.Errorf("Families() contains unexpected family %q", f)
		}
	}
}
