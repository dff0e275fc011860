// Package classify resolves a provider descriptor to exactly one adapter
// family. Matching rules are data, not conditionals: the table is walked in
// order, the first rule whose patterns match wins, and an unmatched
// provider always falls through to the generic OpenAI-compatible family.
package classify

import (
	"strings"

	"github.com/pairwell/provider-gateway/internal/domain"
)

// Rule maps name/URL/type substrings to an adapter family.
type Rule struct {
	// Patterns are lowercase substrings matched against the provider's
	// name, base URL, and declared family.
	Patterns []string

	Result Classification
}

// Classification is the total, deterministic output: an adapter family key
// plus the defaults the registry applies when the provider record omits
// them.
type Classification struct {
	// AdapterFamily keys into the adapter factory registry.
	AdapterFamily string

	// DefaultBaseURL is used when the provider record has no base URL.
	DefaultBaseURL string

	// RequestsPerMinute is the default self-imposed rate budget.
	RequestsPerMinute int

	// Capabilities are the declared feature flags for this family.
	Capabilities domain.Capabilities
}

var llmCaps = domain.Capabilities{
	Models: true, Voices: true, Streaming: true, Realtime: true,
	Embeddings: true, Vision: true, Tools: true,
}

var rules = []Rule{
	{
		Patterns: []string{"z.ai", "zai", "glm"},
		Result: Classification{
			AdapterFamily:     "zai",
			DefaultBaseURL:    "https://api.z.ai/api/coding/paas/v4",
			RequestsPerMinute: 60,
			Capabilities: domain.Capabilities{
				Models: true, Streaming: true, Tools: true,
			},
		},
	},
	{
		Patterns: []string{"anthropic", "claude"},
		Result: Classification{
			AdapterFamily:     "anthropic",
			DefaultBaseURL:    "https://api.anthropic.com",
			RequestsPerMinute: 60,
			Capabilities: domain.Capabilities{
				Models: true, Streaming: true, Vision: true, Tools: true,
			},
		},
	},
	{
		Patterns: []string{"elevenlabs", "eleven_labs", "tts"},
		Result: Classification{
			AdapterFamily:     "elevenlabs",
			DefaultBaseURL:    "https://api.elevenlabs.io",
			RequestsPerMinute: 20,
			Capabilities: domain.Capabilities{
				Models: true, Voices: true, Streaming: true, Realtime: true,
			},
		},
	},
	{
		Patterns: []string{"cartesia"},
		Result: Classification{
			AdapterFamily:     "cartesia",
			DefaultBaseURL:    "https://api.cartesia.ai",
			RequestsPerMinute: 20,
			Capabilities: domain.Capabilities{
				Voices: true, Streaming: true, Realtime: true,
			},
		},
	},
	{
		Patterns: []string{"deepgram", "stt"},
		Result: Classification{
			AdapterFamily:     "deepgram",
			DefaultBaseURL:    "https://api.deepgram.com",
			RequestsPerMinute: 30,
			Capabilities: domain.Capabilities{
				Models: true, Streaming: true, Realtime: true,
			},
		},
	},
	{
		Patterns: []string{"hume"},
		Result: Classification{
			AdapterFamily:     "hume",
			DefaultBaseURL:    "https://api.hume.ai",
			RequestsPerMinute: 20,
			Capabilities: domain.Capabilities{
				Models: true, Streaming: true, Realtime: true, Vision: true,
			},
		},
	},
	// OpenAI-compatible vendors keep their own base URLs but share the
	// generic adapter.
	{
		Patterns: []string{"x.ai", "xai", "grok"},
		Result:   openAICompatible("https://api.x.ai/v1"),
	},
	{
		Patterns: []string{"mistral"},
		Result:   openAICompatible("https://api.mistral.ai/v1"),
	},
	{
		Patterns: []string{"perplexity"},
		Result:   openAICompatible("https://api.perplexity.ai"),
	},
	{
		Patterns: []string{"cohere"},
		Result:   openAICompatible("https://api.cohere.com/v1"),
	},
	{
		Patterns: []string{"gemini", "google", "googleapis.com"},
		Result:   openAICompatible("https://generativelanguage.googleapis.com/v1beta"),
	},
}

// fallback is the explicit default branch: any provider that matches no
// rule is treated as OpenAI-compatible.
var fallback = openAICompatible("https://api.openai.com")

func openAICompatible(baseURL string) Classification {
	return Classification{
		AdapterFamily:     "openai",
		DefaultBaseURL:    baseURL,
		RequestsPerMinute: 60,
		Capabilities:      llmCaps,
	}
}

// Resolve classifies a provider by name, base URL, and declared family.
// It is total: every input resolves to exactly one classification.
func Resolve(name, baseURL string, family domain.Family) Classification {
	haystacks := []string{
		strings.ToLower(name),
		strings.ToLower(baseURL),
		strings.ToLower(string(family)),
	}
	for _, r := range rules {
		for _, p := range r.Patterns {
			for _, h := range haystacks {
				if h != "" && strings.Contains(h, p) {
					return r.Result
				}
			}
		}
	}
	return fallback
}

// Families returns the set of adapter family keys the table can produce,
// fallback included.
func Families() []string {
	seen := map[string]bool{fallback.AdapterFamily: true}
	out := []string{fallback.AdapterFamily}
	for _, r := range rules {
		if !seen[r.Result.AdapterFamily] {
			seen[r.Result.AdapterFamily] = true
			out = append(out, r.Result.AdapterFamily)
		}
	}
	return out
}
