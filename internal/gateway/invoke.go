package gateway

import (
	"context"
	"time"

	"github.com/pairwell/provider-gateway/internal/adapter"
	"github.com/pairwell/provider-gateway/internal/domain"
)

// InvokeResult is the non-throwing envelope returned by model and voice
// test invocations. Failures are reported inline with the taxonomy kind;
// these calls never surface a Go error to the operator path.
type InvokeResult struct {
	Success   bool             `json:"success"`
	Content   string           `json:"content,omitempty"`
	AudioURL  string           `json:"audio_url,omitempty"`
	Usage     *domain.Usage    `json:"usage,omitempty"`
	Cost      float64          `json:"cost,omitempty"`
	LatencyMs int64            `json:"latency_ms"`
	Error     string           `json:"error,omitempty"`
	ErrorKind domain.ErrorKind `json:"error_kind,omitempty"`
}

// defaultTestPrompt is used when the operator supplies no prompt.
const defaultTestPrompt = "Say hello in exactly five words."

// Defaults applied when the operator leaves an invoke option unset.
const (
	defaultTestTemperature      = 0.7
	defaultTestMaxTokens        = 100
	defaultTestTimeout          = 30 * time.Second
	defaultVoiceStability       = 0.5
	defaultVoiceSimilarityBoost = 0.5
)

// ModelTestOptions are the operator-tunable knobs for a model test
// invocation. Unset or non-positive fields take the defaults.
type ModelTestOptions struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	TimeoutMs   int     `json:"timeout_ms"`
}

func (o ModelTestOptions) chatOptions() adapter.ChatOptions {
	opts := adapter.ChatOptions{
		Temperature: o.Temperature,
		MaxTokens:   o.MaxTokens,
		Timeout:     time.Duration(o.TimeoutMs) * time.Millisecond,
	}
	if opts.Temperature <= 0 {
		opts.Temperature = defaultTestTemperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultTestMaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTestTimeout
	}
	return opts
}

// VoiceTestOptions is the synthesis counterpart of ModelTestOptions.
type VoiceTestOptions struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func (o VoiceTestOptions) speechOptions() adapter.SpeechOptions {
	opts := adapter.SpeechOptions{
		Stability:       o.Stability,
		SimilarityBoost: o.SimilarityBoost,
	}
	if opts.Stability <= 0 {
		opts.Stability = defaultVoiceStability
	}
	if opts.SimilarityBoost <= 0 {
		opts.SimilarityBoost = defaultVoiceSimilarityBoost
	}
	return opts
}

// TestModel resolves a stored model to its owning provider's adapter and
// runs one small chat completion against it.
func (r *Registry) TestModel(ctx context.Context, modelID, prompt string, opts ModelTestOptions) *InvokeResult {
	started := time.Now()

	model, err := r.store.GetModel(ctx, modelID)
	if err != nil {
		return failedInvoke(started, "model not found: "+modelID, "")
	}

	lookup := r.Adapter(model.ProviderID)
	if res := lookupFailure(started, lookup); res != nil {
		return res
	}

	if prompt == "" {
		prompt = defaultTestPrompt
	}
	out, err := lookup.Adapter.GenerateChatCompletion(ctx, model.ModelID,
		[]adapter.Message{{Role: "user", Content: prompt}},
		opts.chatOptions(),
	)
	if err != nil {
		return invokeError(started, model.ProviderID, err)
	}

	return &InvokeResult{
		Success:   true,
		Content:   out.Content,
		Usage:     &out.Usage,
		Cost:      out.Cost,
		LatencyMs: time.Since(started).Milliseconds(),
	}
}

// TestVoice is the synthesis counterpart of TestModel.
func (r *Registry) TestVoice(ctx context.Context, voiceID, text string, opts VoiceTestOptions) *InvokeResult {
	started := time.Now()

	voice, err := r.store.GetVoice(ctx, voiceID)
	if err != nil {
		return failedInvoke(started, "voice not found: "+voiceID, "")
	}

	lookup := r.Adapter(voice.ProviderID)
	if res := lookupFailure(started, lookup); res != nil {
		return res
	}

	if text == "" {
		text = "Hello, this is a voice test."
	}
	out, err := lookup.Adapter.GenerateSpeech(ctx, voice.VoiceID, text, opts.speechOptions())
	if err != nil {
		return invokeError(started, voice.ProviderID, err)
	}

	return &InvokeResult{
		Success:   true,
		AudioURL:  out.AudioURL,
		LatencyMs: time.Since(started).Milliseconds(),
	}
}

func lookupFailure(started time.Time, lookup AdapterLookup) *InvokeResult {
	switch lookup.State {
	case StateReady:
		return nil
	case StateSkipped:
		return failedInvoke(started, "provider skipped: "+lookup.Reason, "")
	default:
		return failedInvoke(started, "provider not registered", "")
	}
}

func invokeError(started time.Time, providerID string, err error) *InvokeResult {
	pe := domain.AsProviderError(providerID, err)
	return failedInvoke(started, pe.Message, pe.Kind)
}

func failedInvoke(started time.Time, message string, kind domain.ErrorKind) *InvokeResult {
	return &InvokeResult{
		Success:   false,
		Error:     message,
		ErrorKind: kind,
		LatencyMs: time.Since(started).Milliseconds(),
	}
}
