package config

import (
	"encoding/json"
	"net/http"
	"time"

	"cantax/pkg/core/config"
	"cantax/pkg/core/tax"

	"github.com/go-chi/chi/v5"
)

// DataVersionsResponse is the rate-table registry with its freshness check.
type DataVersionsResponse struct {
	Versions  []tax.DataVersion   `json:"versions"`
	Freshness tax.FreshnessReport `json:"freshness"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	Config config.Config
	Now    func() time.Time
}

// NewHandler creates a new config handler
func NewHandler(cfg config.Config) *Handler {
	return &Handler{Config: cfg, Now: time.Now}
}

// Mount registers the config endpoints on r.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/api/config", h.HandleConfig)
	r.Get("/api/config/data-versions", h.HandleDataVersions)
}

// HandleConfig returns the effective configuration. The database URL is
// never serialized.
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Config)
}

// HandleDataVersions lists the rate tables and when each was last verified.
func (h *Handler) HandleDataVersions(w http.ResponseWriter, r *http.Request) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	resp := DataVersionsResponse{
		Versions:  tax.DataVersions(),
		Freshness: tax.CheckDataFreshness(now(), h.Config.Engine.DataMaxAgeDays),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
