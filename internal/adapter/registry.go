package adapter

import (
	"fmt"
	"sort"
	"sync"
)

// Factory defines how to create adapters of a specific vendor family.
// Each family (openai, anthropic, elevenlabs, ...) registers a factory
// that knows how to construct instances from Config.
type Factory struct {
	// Family is the adapter family identifier produced by classification
	// (e.g. "openai", "anthropic", "elevenlabs").
	Family string

	// Description provides a human-readable description of the family.
	Description string

	// Create instantiates a new adapter from Config.
	Create func(cfg Config) (Adapter, error)
}

var (
	factoryMu  sync.RWMutex
	factoryMap = make(map[string]Factory)
)

// RegisterFactory registers a factory for a vendor family. Panics on a
// duplicate or malformed registration; both are programmer errors.
func RegisterFactory(f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if f.Family == "" {
		panic("adapter factory family cannot be empty")
	}
	if f.Create == nil {
		panic(fmt.Sprintf("adapter factory %q must have a Create function", f.Family))
	}
	if _, exists := factoryMap[f.Family]; exists {
		panic(fmt.Sprintf("adapter factory %q already registered", f.Family))
	}

	factoryMap[f.Family] = f
}

// IsRegistered reports whether a family already has a factory. Register
// functions use this to stay idempotent across repeated wiring in tests.
func IsRegistered(family string) bool {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	_, ok := factoryMap[family]
	return ok
}

// GetFactory returns the factory for a vendor family, if registered.
func GetFactory(family string) (Factory, bool) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	f, ok := factoryMap[family]
	return f, ok
}

// Create constructs an adapter for the given family.
func Create(family string, cfg Config) (Adapter, error) {
	f, ok := GetFactory(family)
	if !ok {
		return nil, fmt.Errorf("no adapter factory registered for family %q", family)
	}
	return f.Create(cfg)
}

// Families returns the registered family names in sorted order.
func Families() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	names := make([]string, 0, len(factoryMap))
	for name := range factoryMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
