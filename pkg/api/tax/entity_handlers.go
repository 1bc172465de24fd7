package tax

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"cantax/pkg/core/tax"
	"cantax/pkg/models"

	"github.com/go-chi/chi/v5"
)

// =============================================================================
// STORED ENTITIES
// Profiles and filing rows held by the application, and the close gate and
// manifest listing derived from them.
// =============================================================================

func (h *Handler) requireProfiles(w http.ResponseWriter, r *http.Request) bool {
	if h.Profiles == nil {
		writeError(w, r, http.StatusServiceUnavailable, errNoProfileStore)
		return false
	}
	return true
}

// entityYear reads the {entity} and {year} path parameters.
func entityYear(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("year must be a number"))
		return "", 0, false
	}
	return chi.URLParam(r, "entity"), year, true
}

// HandleSaveEntity validates a profile with ParseTaxProfile and stores it.
// A rejected profile answers 422 with the parse result.
func (h *Handler) HandleSaveEntity(w http.ResponseWriter, r *http.Request) {
	if !h.requireProfiles(w, r) {
		return
	}
	var req models.EntityProfile
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("id is required"))
		return
	}
	parsed := tax.ParseTaxProfile(req.Raw())
	if !parsed.OK {
		writeJSON(w, http.StatusUnprocessableEntity, parsed)
		return
	}
	req.LegalName = parsed.Value.LegalName
	if parsed.Value.BusinessNumber != "" {
		bn := parsed.Value.BusinessNumber
		req.BusinessNumber = &bn
	}
	if err := h.Profiles.SaveProfile(r.Context(), req); err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, parsed)
}

// HandleSaveFiling upserts one filing row for the entity in the path.
func (h *Handler) HandleSaveFiling(w http.ResponseWriter, r *http.Request) {
	if !h.requireProfiles(w, r) {
		return
	}
	var req models.FilingRecord
	if !decode(w, r, &req) {
		return
	}
	req.EntityID = chi.URLParam(r, "entity")
	req.Kind = strings.ToLower(strings.TrimSpace(req.Kind))
	if !models.KnownFilingKind(req.Kind) {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("unknown filing kind %q", req.Kind))
		return
	}
	if req.TaxYear <= 0 {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("tax_year is required"))
		return
	}
	if _, err := h.Profiles.LoadProfile(r.Context(), req.EntityID); err != nil {
		engineError(w, r, err)
		return
	}
	if err := h.Profiles.SaveFiling(r.Context(), req); err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// HandleStoredCloseGate evaluates the close gate from the stored filings of
// one entity-year.
func (h *Handler) HandleStoredCloseGate(w http.ResponseWriter, r *http.Request) {
	if !h.requireProfiles(w, r) {
		return
	}
	entity, year, ok := entityYear(w, r)
	if !ok {
		return
	}
	state, err := h.Profiles.LoadTaxYearState(r.Context(), entity, year)
	if err != nil {
		engineError(w, r, err)
		return
	}
	res := tax.EvaluateTaxYearCloseGate(state.ToCloseGateInput())
	h.Metrics.observeGate(res.CanClose)
	writeJSON(w, http.StatusOK, res)
}

// HandleListEvidence lists an entity's stored manifests, newest year first.
func (h *Handler) HandleListEvidence(w http.ResponseWriter, r *http.Request) {
	if h.Manifests == nil {
		writeError(w, r, http.StatusServiceUnavailable, errNoManifestStore)
		return
	}
	list, err := h.Manifests.ListManifests(r.Context(), chi.URLParam(r, "entity"))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
