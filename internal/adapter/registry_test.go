package adapter

import (
	"testing"

	"github.com/pairwell/provider-gateway/internal/domain"
)

func stubFactory(family string) Factory {
	return Factory{
		Family:      family,
		Description: "stub",
		Create: func(cfg Config) (Adapter, error) {
			return nil, nil
		},
	}
}

func TestRegisterFactory(t *testing.T) {
	resetFactories(t)

	RegisterFactory(stubFactory("acme"))
	if !IsRegistered("acme") {
		t.Error("IsRegistered(acme) = false after registration")
	}
	if IsRegistered("other") {
		t.Error("IsRegistered(other) = true, never registered")
	}

	f, ok := GetFactory("acme")
	if !ok || f.Family != "acme" {
		t.Errorf("GetFactory(acme) = %+v, %v", f, ok)
	}
}

func TestRegisterFactoryPanics(t *testing.T) {
	tests := []struct {
		name    string
		factory Factory
	}{
		{"empty family", Factory{Create: stubFactory("x").Create}},
		{"nil create", Factory{Family: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFactories(t)
			defer func() {
				if recover() == nil {
					t.Error("RegisterFactory did not panic")
				}
			}()
			RegisterFactory(tt.factory)
		})
	}
}

func TestRegisterFactoryPanicsOnDuplicate(t *testing.T) {
	resetFactories(t)
	RegisterFactory(stubFactory("acme"))

	defer func() {
		if recover() == nil {
			t.Error("duplicate registration did not panic")
		}
	}()
	RegisterFactory(stubFactory("acme"))
}

func TestCreateUnknownFamily(t *testing.T) {
	resetFactories(t)

	if _, err := Create("nope", Config{Provider: domain.Provider{ID: "p1"}}); err == nil {
		t.Error("Create(nope) error = nil, want unknown family error")
	}
}

func TestFamiliesSorted(t *testing.T) {
	resetFactories(t)
	RegisterFactory(stubFactory("zeta"))
	RegisterFactory(stubFactory("alpha"))
	RegisterFactory(stubFactory("mid"))

	got := Families()
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("Families() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Families()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// resetFactories clears the global factory table and restores it on cleanup
// so tests can run in any order.
func resetFactories(t *testing.T) {
	t.Helper()
	factoryMu.Lock()
	saved := factoryMap
	factoryMap = make(map[string]Factory)
	factoryMu.Unlock()

	t.Cleanup(func() {
		factoryMu.Lock()
		factoryMap = saved
		factoryMu.Unlock()
	})
}
