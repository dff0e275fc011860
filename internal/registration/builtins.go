// Package registration wires the built-in adapter families into the
// factory registry. Explicit calls replace init-based side effects and are
// made from cmd/gateway and tests before constructing the gateway.
package registration

import (
	"github.com/pairwell/provider-gateway/internal/adapter/anthropic"
	"github.com/pairwell/provider-gateway/internal/adapter/cartesia"
	"github.com/pairwell/provider-gateway/internal/adapter/deepgram"
	"github.com/pairwell/provider-gateway/internal/adapter/elevenlabs"
	"github.com/pairwell/provider-gateway/internal/adapter/hume"
	"github.com/pairwell/provider-gateway/internal/adapter/openai"
	"github.com/pairwell/provider-gateway/internal/adapter/zai"
)

// RegisterBuiltins registers every built-in adapter family. Safe to call
// more than once.
func RegisterBuiltins() {
	openai.Register()
	anthropic.Register()
	elevenlabs.Register()
	cartesia.Register()
	deepgram.Register()
	hume.Register()
	zai.Register()
}
