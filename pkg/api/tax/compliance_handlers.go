package tax

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cantax/pkg/core/report"
	"cantax/pkg/core/tax"
)

// =============================================================================
// DEADLINES
// =============================================================================

// DeadlinesRequest computes the schedule and evaluates it against as_of.
// Statuses are keyed by deadline label.
type DeadlinesRequest struct {
	tax.DeadlineOptions
	Statuses map[string]string `json:"statuses,omitempty"`
	AsOf     string            `json:"as_of,omitempty"`
}

// DeadlinesResponse lists the evaluated deadlines, most urgent first.
type DeadlinesResponse struct {
	AsOf      string               `json:"as_of"`
	Deadlines []tax.DeadlineStatus `json:"deadlines"`
}

func (h *Handler) evaluateDeadlines(w http.ResponseWriter, r *http.Request, req DeadlinesRequest) (DeadlinesResponse, bool) {
	if _, ok := parseProvince(w, r, string(req.Province)); !ok {
		return DeadlinesResponse{}, false
	}
	now, err := h.asOf(req.AsOf)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return DeadlinesResponse{}, false
	}
	deadlines, err := tax.CalculateDeadlines(req.DeadlineOptions)
	if err != nil {
		engineError(w, r, err)
		return DeadlinesResponse{}, false
	}
	return DeadlinesResponse{
		AsOf:      now.Format(time.DateOnly),
		Deadlines: tax.SortDeadlines(tax.EvaluateDeadlines(deadlines, req.Statuses, now)),
	}, true
}

// HandleDeadlines computes and evaluates the filing and payment deadlines.
func (h *Handler) HandleDeadlines(w http.ResponseWriter, r *http.Request) {
	var req DeadlinesRequest
	if !decode(w, r, &req) {
		return
	}
	resp, ok := h.evaluateDeadlines(w, r, req)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// IDENTIFIERS & PROFILES
// =============================================================================

// Identifier kinds accepted by the validation endpoints.
const (
	KindBN             = "bn"
	KindProgramAccount = "program_account"
	KindNEQ            = "neq"
)

// ValidateRequest is the body of POST /api/tax/bn/validate.
type ValidateRequest struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// HandleValidate checks one BN, program account or NEQ.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if !decode(w, r, &req) {
		return
	}
	var res tax.ValidationResult
	switch req.Kind {
	case KindBN, "":
		res = tax.ValidateBN(req.Value)
	case KindProgramAccount:
		res = tax.ValidateProgramAccount(req.Value)
	case KindNEQ:
		res = tax.ValidateNEQ(req.Value)
	default:
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("unknown kind %q", req.Kind))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// BulkValidateRequest is the body of POST /api/tax/bn/bulk.
type BulkValidateRequest struct {
	Kind   string   `json:"kind"`
	Values []string `json:"values"`
}

// HandleBulkValidate checks a batch of BNs or program accounts.
func (h *Handler) HandleBulkValidate(w http.ResponseWriter, r *http.Request) {
	var req BulkValidateRequest
	if !decode(w, r, &req) {
		return
	}
	switch req.Kind {
	case KindBN, "":
		writeJSON(w, http.StatusOK, tax.ValidateBNBatch(req.Values))
	case KindProgramAccount:
		writeJSON(w, http.StatusOK, tax.ValidateProgramAccountBatch(req.Values))
	default:
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("bulk validation supports %s and %s", KindBN, KindProgramAccount))
	}
}

// HandleProfile answers 200 with the parse result even when the profile is
// rejected; the errors are part of the result.
func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	var req tax.RawTaxProfile
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, tax.ParseTaxProfile(req))
}

// =============================================================================
// CLOSE GATE & GOVERNANCE
// =============================================================================

// HandleCloseGate evaluates the tax-year close gate from the request body.
func (h *Handler) HandleCloseGate(w http.ResponseWriter, r *http.Request) {
	var req tax.CloseGateInput
	if !decode(w, r, &req) {
		return
	}
	res := tax.EvaluateTaxYearCloseGate(req)
	h.Metrics.observeGate(res.CanClose)
	writeJSON(w, http.StatusOK, res)
}

// SoDRequest is the body of POST /api/tax/sod.
type SoDRequest struct {
	Actor    string `json:"actor"`
	Role     string `json:"role"`
	Preparer string `json:"preparer"`
}

// HandleSoD applies segregation of duties to one approval.
func (h *Handler) HandleSoD(w http.ResponseWriter, r *http.Request) {
	var req SoDRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, tax.EnforceSoD(req.Actor, req.Role, req.Preparer))
}

// HandleDividendGovernance requires a resolution before a dividend slip filing.
func (h *Handler) HandleDividendGovernance(w http.ResponseWriter, r *http.Request) {
	var req tax.DividendFiling
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, tax.ValidateDividendGovernanceLink(req))
}

// HandleBorrowingGovernance requires a resolution for borrowing above the threshold.
func (h *Handler) HandleBorrowingGovernance(w http.ResponseWriter, r *http.Request) {
	var req tax.Borrowing
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, tax.ValidateBorrowingGovernanceLink(req, h.Engine.BorrowingThreshold))
}

// =============================================================================
// EVIDENCE & REPORT
// =============================================================================

// EvidenceRequest builds a manifest. With FromStore the tax artifacts, and
// the name and province when omitted, come from the stored filings.
type EvidenceRequest struct {
	tax.EvidenceInput
	Persist   bool `json:"persist"`
	FromStore bool `json:"from_store"`
}

// EvidenceResponse is the built manifest and whether it was stored.
type EvidenceResponse struct {
	Manifest tax.YearEndManifest `json:"manifest"`
	Stored   bool                `json:"stored"`
}

// HandleEvidence builds the year-end evidence manifest.
func (h *Handler) HandleEvidence(w http.ResponseWriter, r *http.Request) {
	var req EvidenceRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Persist && h.Manifests == nil {
		writeError(w, r, http.StatusServiceUnavailable, errNoManifestStore)
		return
	}
	if req.FromStore {
		if h.Profiles == nil {
			writeError(w, r, http.StatusServiceUnavailable, errNoProfileStore)
			return
		}
		state, err := h.Profiles.LoadTaxYearState(r.Context(), req.EntityID, req.TaxYear)
		if err != nil {
			engineError(w, r, err)
			return
		}
		req.Tax = state.ToEvidenceTax()
		if req.EntityName == "" {
			req.EntityName = state.Profile.LegalName
		}
		if req.Province == "" {
			req.Province = tax.Province(state.Profile.Province)
		}
	}
	if req.GeneratedAt.IsZero() {
		req.GeneratedAt = h.now()
	}
	m, err := tax.BuildEvidenceManifest(req.EvidenceInput)
	if err != nil {
		engineError(w, r, err)
		return
	}
	if req.Persist {
		if err := h.Manifests.SaveManifest(r.Context(), m); err != nil {
			writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		slog.Info("manifest saved", "entity", m.EntityID, "tax_year", m.TaxYear, "id", m.ID)
	}
	writeJSON(w, http.StatusOK, EvidenceResponse{Manifest: m, Stored: req.Persist})
}

// HandleGetEvidence returns one stored manifest after re-verifying its hash.
func (h *Handler) HandleGetEvidence(w http.ResponseWriter, r *http.Request) {
	if h.Manifests == nil {
		writeError(w, r, http.StatusServiceUnavailable, errNoManifestStore)
		return
	}
	entity, year, ok := entityYear(w, r)
	if !ok {
		return
	}
	m, err := h.Manifests.LoadManifest(r.Context(), entity, year)
	if err != nil {
		engineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ReportRequest gathers what the year-end report summarizes. The manifest
// is built from Evidence when given, otherwise loaded from storage by
// EntityID when storage is configured.
type ReportRequest struct {
	EntityID   string             `json:"entity_id,omitempty"`
	EntityName string             `json:"entity_name"`
	Deadlines  DeadlinesRequest   `json:"deadlines"`
	CloseGate  tax.CloseGateInput `json:"close_gate"`
	Evidence   *tax.EvidenceInput `json:"evidence,omitempty"`
}

// HandleReport renders the year-end compliance report as HTML.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if !decode(w, r, &req) {
		return
	}
	dl, ok := h.evaluateDeadlines(w, r, req.Deadlines)
	if !ok {
		return
	}
	now, _ := h.asOf(req.Deadlines.AsOf)

	in := report.YearEndInput{
		EntityName:  req.EntityName,
		Province:    req.Deadlines.Province,
		TaxYear:     req.Deadlines.TaxYear,
		Deadlines:   dl.Deadlines,
		CloseGate:   tax.EvaluateTaxYearCloseGate(req.CloseGate),
		GeneratedAt: now,
	}
	h.Metrics.observeGate(in.CloseGate.CanClose)

	switch {
	case req.Evidence != nil:
		if req.Evidence.GeneratedAt.IsZero() {
			req.Evidence.GeneratedAt = now
		}
		m, err := tax.BuildEvidenceManifest(*req.Evidence)
		if err != nil {
			engineError(w, r, err)
			return
		}
		in.Manifest = &m
	case req.EntityID != "" && h.Manifests != nil:
		m, err := h.Manifests.LoadManifest(r.Context(), req.EntityID, req.Deadlines.TaxYear)
		if err == nil {
			in.Manifest = &m
		} else {
			slog.Warn("no stored manifest for report", "entity", req.EntityID, "tax_year", req.Deadlines.TaxYear, "error", err)
		}
	}

	if h.Engine.DataMaxAgeDays > 0 {
		fresh := tax.CheckDataFreshness(now, h.Engine.DataMaxAgeDays)
		in.Freshness = &fresh
	}

	title := fmt.Sprintf("%s %d year-end report", req.EntityName, req.Deadlines.TaxYear)
	page, err := report.RenderHTML(title, report.BuildYearEndReport(in))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(page))
}
