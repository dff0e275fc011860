package syncer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pairwell/provider-gateway/internal/adapter"
	"github.com/pairwell/provider-gateway/internal/domain"
)

// fakeAdapter scripts discovery outcomes and counts calls.
type fakeAdapter struct {
	prov domain.Provider

	healthy     bool
	healthError string

	models    []domain.Model
	modelsErr error
	voices    []domain.Voice
	voicesErr error

	healthCalls int
	modelCalls  int
	voiceCalls  int
}

func (f *fakeAdapter) Provider() domain.Provider { return f.prov }

func (f *fakeAdapter) TestConnection(context.Context) *domain.ProviderTestResult {
	f.healthCalls++
	return &domain.ProviderTestResult{
		ProviderID: f.prov.ID,
		Healthy:    f.healthy,
		Error:      f.healthError,
	}
}

func (f *fakeAdapter) DiscoverModels(context.Context) (*domain.ModelList, error) {
	f.modelCalls++
	if f.modelsErr != nil {
		return nil, f.modelsErr
	}
	return &domain.ModelList{Models: f.models, Total: len(f.models)}, nil
}

func (f *fakeAdapter) DiscoverVoices(context.Context) (*domain.VoiceList, error) {
	f.voiceCalls++
	if f.voicesErr != nil {
		return nil, f.voicesErr
	}
	return &domain.VoiceList{Voices: f.voices, Total: len(f.voices)}, nil
}

func (f *fakeAdapter) ValidateAPIKey(context.Context, string) bool { return true }
func (f *fakeAdapter) SetCredential(string)                        {}

func (f *fakeAdapter) GenerateChatCompletion(context.Context, string, []adapter.Message, adapter.ChatOptions) (*domain.ChatResult, error) {
	return nil, errors.New("not used")
}

func (f *fakeAdapter) GenerateSpeech(context.Context, string, string, adapter.SpeechOptions) (*domain.SpeechResult, error) {
	return nil, errors.New("not used")
}

// fakeStore records persistence calls in memory.
type fakeStore struct {
	models    []domain.Model
	voices    []domain.Voice
	appended  []*domain.SyncResult
	touched   []string
	upsertErr error
	appendErr error
}

func (s *fakeStore) UpsertModels(_ context.Context, models []domain.Model) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.models = append(s.models, models...)
	return nil
}

func (s *fakeStore) GetModel(context.Context, string) (*domain.Model, error) { return nil, nil }
func (s *fakeStore) ListModels(context.Context, string) ([]domain.Model, error) {
	return s.models, nil
}
func (s *fakeStore) SetModelEnabled(context.Context, string, string, bool) error { return nil }

func (s *fakeStore) UpsertVoices(_ context.Context, voices []domain.Voice) error {
	s.voices = append(s.voices, voices...)
	return nil
}

func (s *fakeStore) GetVoice(context.Context, string) (*domain.Voice, error) { return nil, nil }
func (s *fakeStore) ListVoices(context.Context, string) ([]domain.Voice, error) {
	return s.voices, nil
}
func (s *fakeStore) SetVoiceEnabled(context.Context, string, string, bool) error { return nil }

func (s *fakeStore) AppendSyncResult(_ context.Context, r *domain.SyncResult) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appended = append(s.appended, r)
	return nil
}

func (s *fakeStore) ListSyncResults(context.Context, string, int) ([]*domain.SyncResult, error) {
	return s.appended, nil
}

func (s *fakeStore) TouchProviderSync(_ context.Context, id string, _ time.Time) error {
	s.touched = append(s.touched, id)
	return nil
}

func fullCapProvider() domain.Provider {
	return domain.Provider{
		ID:   "p1",
		Name: "Test",
		Capabilities: domain.Capabilities{
			Models: true,
			Voices: true,
		},
	}
}

func TestSyncSuccess(t *testing.T) {
	ad := &fakeAdapter{
		prov:    fullCapProvider(),
		healthy: true,
		models:  []domain.Model{{ID: "p1-m1"}, {ID: "p1-m2"}},
		voices:  []domain.Voice{{ID: "p1-v1"}},
	}
	store := &fakeStore{}
	s := New(store, nil)

	result, err := s.Sync(context.Background(), ad, domain.SyncTypeFull)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Status != domain.SyncSuccess {
		t.Errorf("status = %q, want success", result.Status)
	}
	if result.ModelsDiscovered != 2 || result.VoicesDiscovered != 1 {
		t.Errorf("counts = %d models, %d voices", result.ModelsDiscovered, result.VoicesDiscovered)
	}
	if len(store.appended) != 1 {
		t.Errorf("sync log rows = %d, want 1", len(store.appended))
	}
	if len(store.touched) != 1 || store.touched[0] != "p1" {
		t.Errorf("touched = %v, want [p1]", store.touched)
	}
}

func TestSyncPartialWhenOneLegFails(t *testing.T) {
	ad := &fakeAdapter{
		prov:      fullCapProvider(),
		healthy:   true,
		models:    []domain.Model{{ID: "p1-m1"}, {ID: "p1-m2"}, {ID: "p1-m3"}},
		voicesErr: errors.New("voice endpoint melted"),
	}
	store := &fakeStore{}
	s := New(store, nil)

	result, err := s.Sync(context.Background(), ad, domain.SyncTypeFull)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Status != domain.SyncPartial {
		t.Errorf("status = %q, want partial", result.Status)
	}
	if result.ModelsDiscovered != 3 {
		t.Errorf("models discovered = %d", result.ModelsDiscovered)
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "Voice discovery failed: ") {
		t.Errorf("errors = %v", result.Errors)
	}
	// Partial runs still bump the provider sync time.
	if len(store.touched) != 1 {
		t.Errorf("touched = %v", store.touched)
	}
}

func TestSyncFailedHealthGateSkipsDiscovery(t *testing.T) {
	ad := &fakeAdapter{
		prov:        fullCapProvider(),
		healthy:     false,
		healthError: "401 from vendor",
	}
	store := &fakeStore{}
	s := New(store, nil)

	result, err := s.Sync(context.Background(), ad, domain.SyncTypeFull)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Status != domain.SyncFailed {
		t.Errorf("status = %q, want failed", result.Status)
	}
	if ad.modelCalls != 0 || ad.voiceCalls != 0 {
		t.Errorf("discovery ran despite failed health gate: %d model, %d voice calls", ad.modelCalls, ad.voiceCalls)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "provider health check failed") {
		t.Errorf("errors = %v", result.Errors)
	}
	// Failed runs are logged but never bump the sync time.
	if len(store.appended) != 1 {
		t.Errorf("sync log rows = %d, want 1", len(store.appended))
	}
	if len(store.touched) != 0 {
		t.Errorf("touched = %v, want none", store.touched)
	}
}

func TestSyncFailedWhenPersistenceRejectsEverything(t *testing.T) {
	ad := &fakeAdapter{
		prov:    fullCapProvider(),
		healthy: true,
		models:  []domain.Model{{ID: "p1-m1"}},
	}
	ad.prov.Capabilities.Voices = false
	store := &fakeStore{upsertErr: errors.New("disk full")}
	s := New(store, nil)

	result, err := s.Sync(context.Background(), ad, domain.SyncTypeFull)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	// Discovery counted rows but nothing persisted; the count keeps the
	// run partial rather than failed.
	if result.Status != domain.SyncPartial {
		t.Errorf("status = %q, want partial", result.Status)
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "Model persistence failed: ") {
		t.Errorf("errors = %v", result.Errors)
	}
}

func TestSyncTypeGatesDiscovery(t *testing.T) {
	tests := []struct {
		name       string
		syncType   domain.SyncType
		wantModels int
		wantVoices int
	}{
		{"models only", domain.SyncTypeModels, 1, 0},
		{"voices only", domain.SyncTypeVoices, 0, 1},
		{"full", domain.SyncTypeFull, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ad := &fakeAdapter{prov: fullCapProvider(), healthy: true}
			s := New(&fakeStore{}, nil)

			if _, err := s.Sync(context.Background(), ad, tt.syncType); err != nil {
				t.Fatalf("Sync() error = %v", err)
			}
			if ad.modelCalls != tt.wantModels || ad.voiceCalls != tt.wantVoices {
				t.Errorf("calls = %d model, %d voice; want %d, %d", ad.modelCalls, ad.voiceCalls, tt.wantModels, tt.wantVoices)
			}
		})
	}
}

func TestCapabilityGatesDiscovery(t *testing.T) {
	ad := &fakeAdapter{prov: fullCapProvider(), healthy: true}
	ad.prov.Capabilities.Voices = false
	s := New(&fakeStore{}, nil)

	if _, err := s.Sync(context.Background(), ad, domain.SyncTypeFull); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if ad.voiceCalls != 0 {
		t.Errorf("voice discovery ran for a provider without voice capability")
	}
	if ad.modelCalls != 1 {
		t.Errorf("model calls = %d, want 1", ad.modelCalls)
	}
}

func TestSyncReturnsErrorWhenLogAppendFails(t *testing.T) {
	ad := &fakeAdapter{prov: fullCapProvider(), healthy: true}
	store := &fakeStore{appendErr: errors.New("db locked")}
	s := New(store, nil)

	if _, err := s.Sync(context.Background(), ad, domain.SyncTypeFull); err == nil {
		t.Error("Sync() error = nil, want append failure")
	}
}
