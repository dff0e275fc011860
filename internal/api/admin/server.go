// Package admin exposes the operator JSON surface: provider CRUD and
// credential rotation, health probes, discovery syncs, catalog listing,
// and model/voice test invocations.
package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pairwell/provider-gateway/internal/domain"
	"github.com/pairwell/provider-gateway/internal/gateway"
	"github.com/pairwell/provider-gateway/internal/storage"
)

// Server is the admin HTTP surface over the registry and record store.
type Server struct {
	router    *chi.Mux
	registry  *gateway.Registry
	store     storage.RecordStore
	startTime time.Time
}

// NewServer builds the admin server and its routes.
func NewServer(registry *gateway.Registry, store storage.RecordStore) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		registry:  registry,
		store:     store,
		startTime: time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleStats)

		r.Route("/providers", func(r chi.Router) {
			r.Get("/", s.handleListProviders)
			r.Post("/", s.handleAddProvider)
			r.Post("/test", s.handleTestAll)
			r.Post("/sync", s.handleSyncAll)

			r.Route("/{provider_id}", func(r chi.Router) {
				r.Get("/", s.handleGetProvider)
				r.Delete("/", s.handleRemoveProvider)
				r.Put("/key", s.handleRotateKey)
				r.Post("/test", s.handleTestProvider)
				r.Post("/sync", s.handleSyncProvider)
				r.Get("/models", s.handleListModels)
				r.Get("/voices", s.handleListVoices)
				r.Get("/health", s.handleListHealth)
				r.Get("/sync-logs", s.handleListSyncLogs)
			})
		})

		r.Post("/models/{model_id}/test", s.handleTestModel)
		r.Post("/voices/{voice_id}/test", s.handleTestVoice)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type statsResponse struct {
	Uptime       string `json:"uptime"`
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	Providers    int    `json:"providers"`
	Skipped      int    `json:"skipped_providers"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	providers, err := s.store.ListProviders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Uptime:       time.Since(s.startTime).String(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		Providers:    len(providers),
		Skipped:      len(s.registry.SkippedProviders()),
	})
}

type providerSummary struct {
	*domain.Provider
	Skipped       bool   `json:"skipped"`
	SkippedReason string `json:"skipped_reason,omitempty"`
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := s.store.ListProviders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	skipped := s.registry.SkippedProviders()

	out := make([]providerSummary, 0, len(providers))
	for _, p := range providers {
		reason, isSkipped := skipped[p.ID]
		out = append(out, providerSummary{Provider: p, Skipped: isSkipped, SkippedReason: reason})
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": out, "total": len(out)})
}

func (s *Server) handleAddProvider(w http.ResponseWriter, r *http.Request) {
	var req gateway.AddProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	id, err := s.registry.AddProvider(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleGetProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "provider_id")
	prov, err := s.store.GetProvider(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	reason, isSkipped := s.registry.SkippedProviders()[id]
	writeJSON(w, http.StatusOK, providerSummary{Provider: prov, Skipped: isSkipped, SkippedReason: reason})
}

func (s *Server) handleRemoveProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "provider_id")
	if err := s.registry.RemoveProvider(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRotateKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "provider_id")

	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.APIKey == "" {
		writeError(w, http.StatusBadRequest, "api_key is required")
		return
	}

	if err := s.registry.UpdateProviderAPIKey(r.Context(), id, req.APIKey); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rotated"})
}

func (s *Server) handleTestProvider(w http.ResponseWriter, r *http.Request) {
	result, err := s.registry.TestProvider(r.Context(), chi.URLParam(r, "provider_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTestAll(w http.ResponseWriter, r *http.Request) {
	results, err := s.registry.TestAllProviders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "total": len(results)})
}

func syncTypeFromQuery(r *http.Request) domain.SyncType {
	switch r.URL.Query().Get("type") {
	case "models":
		return domain.SyncTypeModels
	case "voices":
		return domain.SyncTypeVoices
	default:
		return domain.SyncTypeFull
	}
}

func (s *Server) handleSyncProvider(w http.ResponseWriter, r *http.Request) {
	result, err := s.registry.SyncProvider(r.Context(), chi.URLParam(r, "provider_id"), syncTypeFromQuery(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSyncAll(w http.ResponseWriter, r *http.Request) {
	results, err := s.registry.SyncAllProviders(r.Context(), syncTypeFromQuery(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "total": len(results)})
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.store.ListModels(r.Context(), chi.URLParam(r, "provider_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, domain.ModelList{Models: models, Total: len(models)})
}

func (s *Server) handleListVoices(w http.ResponseWriter, r *http.Request) {
	voices, err := s.store.ListVoices(r.Context(), chi.URLParam(r, "provider_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, domain.VoiceList{Voices: voices, Total: len(voices)})
}

func (s *Server) handleListHealth(w http.ResponseWriter, r *http.Request) {
	results, err := s.store.ListTestResults(r.Context(), chi.URLParam(r, "provider_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "total": len(results)})
}

func (s *Server) handleListSyncLogs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	logs, err := s.store.ListSyncResults(r.Context(), chi.URLParam(r, "provider_id"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs, "total": len(logs)})
}

func (s *Server) handleTestModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
		gateway.ModelTestOptions
	}
	// Body is optional; missing fields fall back to the defaults.
	_ = json.NewDecoder(r.Body).Decode(&req)

	writeJSON(w, http.StatusOK, s.registry.TestModel(r.Context(), chi.URLParam(r, "model_id"), req.Prompt, req.ModelTestOptions))
}

func (s *Server) handleTestVoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
		gateway.VoiceTestOptions
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	writeJSON(w, http.StatusOK, s.registry.TestVoice(r.Context(), chi.URLParam(r, "voice_id"), req.Text, req.VoiceTestOptions))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
