package tax

import (
	"fmt"
	"net/http"

	"cantax/pkg/core/tax"

	"github.com/go-chi/chi/v5"
)

// =============================================================================
// RATES & TAX ESTIMATES
// =============================================================================

// HandleRates returns the combined federal and provincial corporate rates.
func (h *Handler) HandleRates(w http.ResponseWriter, r *http.Request) {
	p, ok := parseProvince(w, r, chi.URLParam(r, "province"))
	if !ok {
		return
	}
	rates, err := tax.GetCombinedRates(p)
	if err != nil {
		engineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

// CorporateRequest is the body of POST /api/tax/corporate.
type CorporateRequest struct {
	Province       string   `json:"province"`
	TaxableIncome  float64  `json:"taxable_income"`
	IsCCPC         *bool    `json:"is_ccpc,omitempty"`
	TaxableCapital *float64 `json:"taxable_capital,omitempty"`
	AAII           *float64 `json:"aaii,omitempty"`
}

// HandleCorporate estimates corporate income tax with the SBD grinds applied.
func (h *Handler) HandleCorporate(w http.ResponseWriter, r *http.Request) {
	var req CorporateRequest
	if !decode(w, r, &req) {
		return
	}
	p, ok := parseProvince(w, r, req.Province)
	if !ok {
		return
	}
	est, err := tax.EstimateCorporateTax(p, req.TaxableIncome, tax.CorporateTaxOptions{
		IsCCPC:         req.IsCCPC,
		TaxableCapital: req.TaxableCapital,
		AAII:           req.AAII,
	})
	if err != nil {
		engineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

// PersonalRequest is the body of POST /api/tax/personal.
type PersonalRequest struct {
	Province string  `json:"province"`
	Income   float64 `json:"income"`
}

// HandlePersonal estimates federal plus provincial personal income tax.
func (h *Handler) HandlePersonal(w http.ResponseWriter, r *http.Request) {
	var req PersonalRequest
	if !decode(w, r, &req) {
		return
	}
	p, ok := parseProvince(w, r, req.Province)
	if !ok {
		return
	}
	est, err := tax.EstimatePersonalTax(p, req.Income)
	if err != nil {
		engineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

// CapitalGainsRequest is the body of POST /api/tax/capital-gains.
type CapitalGainsRequest struct {
	Gain             float64 `json:"gain"`
	IsIndividual     bool    `json:"is_individual"`
	UseProposedRates bool    `json:"use_proposed_rates"`
}

// HandleCapitalGains returns the taxable portion of a capital gain.
func (h *Handler) HandleCapitalGains(w http.ResponseWriter, r *http.Request) {
	var req CapitalGainsRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, tax.CalculateTaxableCapitalGain(req.Gain, req.IsIndividual, req.UseProposedRates))
}

// =============================================================================
// DIVIDENDS & COMPENSATION
// =============================================================================

// DividendRequest is the body of POST /api/tax/dividend.
type DividendRequest struct {
	Amount       float64          `json:"amount"`
	Type         tax.DividendType `json:"type"`
	Province     string           `json:"province"`
	MarginalRate float64          `json:"marginal_rate"`
}

// HandleDividend computes the personal tax and RDTOH refund on a dividend.
func (h *Handler) HandleDividend(w http.ResponseWriter, r *http.Request) {
	var req DividendRequest
	if !decode(w, r, &req) {
		return
	}
	p, ok := parseProvince(w, r, req.Province)
	if !ok {
		return
	}
	res, err := tax.CalculateDividendTax(req.Amount, req.Type, p, req.MarginalRate)
	if err != nil {
		engineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CompareRequest is the body of POST /api/tax/dividend/compare.
type CompareRequest struct {
	PreTaxIncome  float64 `json:"pre_tax_income"`
	Province      string  `json:"province"`
	MarginalRate  float64 `json:"marginal_rate"`
	CorporateRate float64 `json:"corporate_rate"`
}

// HandleDividendCompare compares salary against dividends for one budget.
func (h *Handler) HandleDividendCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if !decode(w, r, &req) {
		return
	}
	p, ok := parseProvince(w, r, req.Province)
	if !ok {
		return
	}
	res, err := tax.CompareSalaryVsDividend(req.PreTaxIncome, p, req.MarginalRate, req.CorporateRate)
	if err != nil {
		engineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleDividendAdvanced runs the payroll-aware compensation analysis.
func (h *Handler) HandleDividendAdvanced(w http.ResponseWriter, r *http.Request) {
	var req tax.AdvancedComparisonInput
	if !decode(w, r, &req) {
		return
	}
	if _, ok := parseProvince(w, r, string(req.Province)); !ok {
		return
	}
	res, err := tax.AnalyzeCompensation(req)
	if err != nil {
		engineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RankRequest is the body of POST /api/tax/dividend/rank.
type RankRequest struct {
	PreTaxIncome float64 `json:"pre_tax_income"`
}

// HandleDividendRank orders the provinces by best net cash.
func (h *Handler) HandleDividendRank(w http.ResponseWriter, r *http.Request) {
	var req RankRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := tax.RankProvinces(req.PreTaxIncome)
	if err != nil {
		engineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// PayrollRequest is the body of POST /api/tax/payroll.
type PayrollRequest struct {
	Salary float64  `json:"salary"`
	AMWA   *float64 `json:"amwa,omitempty"`
}

// PayrollResponse carries the deductions and, when asked, the remitter type.
type PayrollResponse struct {
	Deductions tax.PayrollDeductions `json:"deductions"`
	Remitter   *tax.RemitterSchedule `json:"remitter,omitempty"`
}

// HandlePayroll computes CPP, CPP2 and EI on a salary.
func (h *Handler) HandlePayroll(w http.ResponseWriter, r *http.Request) {
	var req PayrollRequest
	if !decode(w, r, &req) {
		return
	}
	resp := PayrollResponse{Deductions: tax.CalculatePayrollDeductions(req.Salary)}
	if req.AMWA != nil {
		rem := tax.DeterminePayrollRemitterType(*req.AMWA)
		resp.Remitter = &rem
	}
	writeJSON(w, http.StatusOK, resp)
}

// SalesTaxRequest is the body of POST /api/tax/sales-tax.
type SalesTaxRequest struct {
	Amount   float64 `json:"amount"`
	Province string  `json:"province"`
}

// HandleSalesTax splits a sale into GST/HST, PST and QST.
func (h *Handler) HandleSalesTax(w http.ResponseWriter, r *http.Request) {
	var req SalesTaxRequest
	if !decode(w, r, &req) {
		return
	}
	p, ok := parseProvince(w, r, req.Province)
	if !ok {
		return
	}
	res, err := tax.CalculateSalesTax(req.Amount, p)
	if err != nil {
		engineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// INSTALLMENTS & PENALTIES
// =============================================================================

// HandleInstallments plans the installment schedule and recommends a method.
func (h *Handler) HandleInstallments(w http.ResponseWriter, r *http.Request) {
	var req tax.InstallmentInput
	if !decode(w, r, &req) {
		return
	}
	res, err := tax.PlanInstallments(req)
	if err != nil {
		engineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// InterestRequest omits annual_rate to use the published prescribed rate
// for as_of, or the configured default when no schedule is loaded.
type InterestRequest struct {
	Required   float64  `json:"required"`
	Paid       float64  `json:"paid"`
	DaysLate   int      `json:"days_late"`
	AnnualRate *float64 `json:"annual_rate,omitempty"`
	AsOf       string   `json:"as_of,omitempty"`
}

func (h *Handler) prescribedRate(asOf string) (float64, error) {
	if h.Rates == nil {
		return h.Engine.PrescribedRate, nil
	}
	when, err := h.asOf(asOf)
	if err != nil {
		return 0, err
	}
	return h.Rates.RateOn(when)
}

// HandleInstallmentInterest charges prescribed-rate interest on a late installment.
func (h *Handler) HandleInstallmentInterest(w http.ResponseWriter, r *http.Request) {
	var req InterestRequest
	if !decode(w, r, &req) {
		return
	}
	if req.DaysLate < 0 {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("days_late must not be negative"))
		return
	}
	rate := 0.0
	if req.AnnualRate != nil {
		rate = *req.AnnualRate
	} else {
		var err error
		if rate, err = h.prescribedRate(req.AsOf); err != nil {
			writeError(w, r, http.StatusBadRequest, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, tax.CalculateInstallmentInterest(req.Required, req.Paid, req.DaysLate, rate))
}

// Penalty kinds accepted by HandlePenalties.
const (
	PenaltyT2                = "t2"
	PenaltyGST               = "gst"
	PenaltyInformationReturn = "information_return"
)

// PenaltyRequest is the body of POST /api/tax/penalties.
type PenaltyRequest struct {
	Kind       string  `json:"kind"`
	TaxOwing   float64 `json:"tax_owing"`
	MonthsLate int     `json:"months_late"`
	Repeat     bool    `json:"repeat"`
	Slips      int     `json:"slips"`
	DaysLate   int     `json:"days_late"`
}

// HandlePenalties computes a T2, GST/HST or information-return late-filing penalty.
func (h *Handler) HandlePenalties(w http.ResponseWriter, r *http.Request) {
	var req PenaltyRequest
	if !decode(w, r, &req) {
		return
	}
	var res tax.PenaltyResult
	switch req.Kind {
	case PenaltyT2:
		res = tax.CalculateT2LateFilingPenalty(req.TaxOwing, req.MonthsLate, req.Repeat)
	case PenaltyGST:
		res = tax.CalculateGSTLateFilingPenalty(req.TaxOwing, req.MonthsLate, req.Repeat)
	case PenaltyInformationReturn:
		res = tax.CalculateInformationReturnPenalty(req.Slips, req.DaysLate)
	default:
		writeError(w, r, http.StatusBadRequest,
			fmt.Errorf("kind must be %s, %s or %s", PenaltyT2, PenaltyGST, PenaltyInformationReturn))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
