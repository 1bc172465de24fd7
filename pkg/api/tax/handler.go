// Package tax exposes the tax engine over JSON HTTP endpoints.
package tax

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"cantax/pkg/core/config"
	"cantax/pkg/core/ingest"
	"cantax/pkg/core/store"
	"cantax/pkg/core/tax"
	"cantax/pkg/core/utils"
)

const maxBodyBytes = 1 << 20

// Handler holds dependencies for the tax endpoints. Manifests, Profiles and
// Rates are optional; endpoints that need a missing one answer 503.
type Handler struct {
	Engine    config.EngineConfig
	Manifests store.ManifestRepository
	Profiles  store.ProfileRepository
	Rates     *ingest.PrescribedRateSchedule
	Metrics   *Metrics
	Now       func() time.Time
}

// NewHandler creates a handler on the given repositories using the wall clock.
func NewHandler(engine config.EngineConfig, repos store.Repositories) *Handler {
	return &Handler{
		Engine:    engine,
		Manifests: repos.Manifests,
		Profiles:  repos.Profiles,
		Metrics:   NewMetrics(),
		Now:       time.Now,
	}
}

var (
	errNoManifestStore = errors.New("manifest storage is not configured")
	errNoProfileStore  = errors.New("profile storage is not configured")
)

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// asOf returns the request's as_of date, or today.
func (h *Handler) asOf(s string) (time.Time, error) {
	if s == "" {
		return h.now(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("as_of must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

// ErrorResponse is the body of every non-2xx JSON answer.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	id := requestID(r.Context())
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "request_id", id, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), RequestID: id})
}

// decode reads the body as JSON, falling back to Hjson and repaired JSON so
// hand-written requests are accepted. Unknown fields are rejected.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusRequestEntityTooLarge, err)
		return false
	}
	strategy, err := utils.DecodeLenient(body, v)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	if strategy != utils.StrategyJSON {
		slog.Debug("request body needed lenient decoding", "request_id", requestID(r.Context()), "strategy", strategy)
	}
	return true
}

// engineError maps engine lookup failures onto HTTP statuses.
func engineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tax.ErrUnknownProvince):
		writeError(w, r, http.StatusBadRequest, err)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusServiceUnavailable, err)
	default:
		writeError(w, r, http.StatusBadRequest, err)
	}
}

func parseProvince(w http.ResponseWriter, r *http.Request, code string) (tax.Province, bool) {
	p, err := tax.ParseProvince(code)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return "", false
	}
	return p, true
}
