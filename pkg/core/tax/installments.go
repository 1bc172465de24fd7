package tax

import (
	"math"
	"time"
)

// =============================================================================
// INSTALLMENT PLANNER
// =============================================================================

// InstallmentThreshold: no installments when both prior-year tax and the
// current-year estimate are at or below this amount.
const InstallmentThreshold = 3_000.0

// Installment method names.
const (
	MethodCurrentYear = "currentYear"
	MethodPriorYear   = "priorYear"
	MethodReduced     = "reduced"
)

// InstallmentFrequency is how often installments fall due.
type InstallmentFrequency string

const (
	InstallmentMonthly   InstallmentFrequency = "monthly"
	InstallmentQuarterly InstallmentFrequency = "quarterly"
)

// InstallmentInput carries the tax history needed to plan installments.
// QualifiesForQuarterly marks a small CCPC eligible for quarterly payments.
type InstallmentInput struct {
	PriorYearTax          float64  `json:"prior_year_tax"`
	CurrentYearEstimate   float64  `json:"current_year_estimate"`
	TwoYearsPriorTax      *float64 `json:"two_years_prior_tax,omitempty"`
	QualifiesForQuarterly bool     `json:"qualifies_for_quarterly"`
	FiscalYearEnd         string   `json:"fiscal_year_end"`
	TaxYear               int      `json:"tax_year"`
}

// MethodResult is the schedule one method would produce.
type MethodResult struct {
	Method         string    `json:"method"`
	Total          float64   `json:"total"`
	FirstPayment   float64   `json:"first_payment"`
	RegularPayment float64   `json:"regular_payment"`
	Payments       []float64 `json:"payments"`
}

// InstallmentMethods compares the three methods. Reduced is nil when the
// two-years-prior figure is not supplied.
type InstallmentMethods struct {
	CurrentYearEstimate MethodResult  `json:"current_year_estimate"`
	PriorYearMethod     MethodResult  `json:"prior_year_method"`
	ReducedMethod       *MethodResult `json:"reduced_method"`
	Recommended         string        `json:"recommended"`
}

// ScheduledPayment is one installment of the recommended method.
type ScheduledPayment struct {
	DueDate time.Time `json:"due_date"`
	Amount  float64   `json:"amount"`
}

// InstallmentResult is the output of PlanInstallments.
type InstallmentResult struct {
	Required         bool                 `json:"required"`
	Frequency        InstallmentFrequency `json:"frequency"`
	NumberOfPayments int                  `json:"number_of_payments"`
	AmountPerPayment float64              `json:"amount_per_payment"`
	TotalObligation  float64              `json:"total_obligation"`
	Methods          InstallmentMethods   `json:"methods"`
	DueDates         []time.Time          `json:"due_dates"`
	Schedule         []ScheduledPayment   `json:"schedule"`
}

type methodRaw struct {
	name     string
	payments []float64
}

func (m methodRaw) total() float64 {
	var t float64
	for _, p := range m.payments {
		t += p
	}
	return t
}

func (m methodRaw) first() float64 {
	if len(m.payments) == 0 {
		return 0
	}
	return m.payments[0]
}

func (m methodRaw) regular() float64 {
	if len(m.payments) == 0 {
		return 0
	}
	return m.payments[len(m.payments)-1]
}

func (m methodRaw) rounded() MethodResult {
	payments := make([]float64, len(m.payments))
	for i, p := range m.payments {
		payments[i] = Round2(p)
	}
	return MethodResult{
		Method:         m.name,
		Total:          Round2(m.total()),
		FirstPayment:   Round2(m.first()),
		RegularPayment: Round2(m.regular()),
		Payments:       payments,
	}
}

func evenMethod(name string, annual float64, n int) methodRaw {
	per := math.Max(0, annual) / float64(n)
	payments := make([]float64, n)
	for i := range payments {
		payments[i] = per
	}
	return methodRaw{name: name, payments: payments}
}

// reducedMethod sizes the opening payment(s) from the two-years-prior tax
// and spreads the remainder of the prior-year tax over the rest. Monthly
// payers size the first two payments this way, quarterly payers the first.
func reducedMethod(twoYearsPrior, prior float64, n int) methodRaw {
	opening := 2
	if n == 4 {
		opening = 1
	}
	first := math.Max(0, twoYearsPrior) / float64(n)
	remaining := math.Max(0, math.Max(0, prior)-first*float64(opening)) / float64(n-opening)

	payments := make([]float64, n)
	for i := range payments {
		if i < opening {
			payments[i] = first
		} else {
			payments[i] = remaining
		}
	}
	return methodRaw{name: MethodReduced, payments: payments}
}

// recommend picks the lowest total. Ties go to the smaller first payment,
// then to candidate order.
func recommend(candidates ...methodRaw) methodRaw {
	best := candidates[0]
	for _, c := range candidates[1:] {
		ct, bt := Round2(c.total()), Round2(best.total())
		if ct < bt || (ct == bt && Round2(c.first()) < Round2(best.first())) {
			best = c
		}
	}
	return best
}

// InstallmentDueDates walks back from the fiscal-year-end in 1- or 3-month
// steps. Dates are returned in ascending order.
func InstallmentDueDates(fye time.Time, n int) []time.Time {
	step := 12 / n
	dates := make([]time.Time, n)
	for k := 0; k < n; k++ {
		dates[n-1-k] = AddMonthsClamped(fye, -step*k)
	}
	return dates
}

// PlanInstallments decides whether installments are required and compares
// the current-year, prior-year and reduced methods.
func PlanInstallments(in InstallmentInput) (InstallmentResult, error) {
	fye, err := FiscalYearEndDate(in.FiscalYearEnd, in.TaxYear)
	if err != nil {
		return InstallmentResult{}, err
	}

	n, freq := 12, InstallmentMonthly
	if in.QualifiesForQuarterly {
		n, freq = 4, InstallmentQuarterly
	}

	current := evenMethod(MethodCurrentYear, in.CurrentYearEstimate, n)
	prior := evenMethod(MethodPriorYear, in.PriorYearTax, n)
	candidates := []methodRaw{current, prior}
	methods := InstallmentMethods{
		CurrentYearEstimate: current.rounded(),
		PriorYearMethod:     prior.rounded(),
	}
	if in.TwoYearsPriorTax != nil {
		reduced := reducedMethod(*in.TwoYearsPriorTax, in.PriorYearTax, n)
		candidates = append(candidates, reduced)
		r := reduced.rounded()
		methods.ReducedMethod = &r
	}
	best := recommend(candidates...)
	methods.Recommended = best.name

	required := in.PriorYearTax > InstallmentThreshold || in.CurrentYearEstimate > InstallmentThreshold
	if !required {
		return InstallmentResult{
			Required:  false,
			Frequency: freq,
			Methods:   methods,
			DueDates:  []time.Time{},
			Schedule:  []ScheduledPayment{},
		}, nil
	}

	dueDates := InstallmentDueDates(fye, n)
	schedule := make([]ScheduledPayment, n)
	for i, d := range dueDates {
		schedule[i] = ScheduledPayment{DueDate: d, Amount: Round2(best.payments[i])}
	}

	return InstallmentResult{
		Required:         true,
		Frequency:        freq,
		NumberOfPayments: n,
		AmountPerPayment: Round2(best.regular()),
		TotalObligation:  Round2(best.total()),
		Methods:          methods,
		DueDates:         dueDates,
		Schedule:         schedule,
	}, nil
}

// InstallmentInterest is the result of CalculateInstallmentInterest.
type InstallmentInterest struct {
	Shortfall  float64 `json:"shortfall"`
	DaysLate   int     `json:"days_late"`
	AnnualRate float64 `json:"annual_rate"`
	Interest   float64 `json:"interest"`
}

// CalculateInstallmentInterest compounds daily on the unpaid shortfall.
//
// FORMULA: shortfall × ((1 + rate/365)^daysLate − 1), shortfall = max(0, required − paid)
func CalculateInstallmentInterest(required, paid float64, daysLate int, annualRate float64) InstallmentInterest {
	shortfall := math.Max(0, required-paid)
	interest := 0.0
	if shortfall > 0 && daysLate > 0 {
		interest = shortfall * (math.Pow(1+annualRate/365, float64(daysLate)) - 1)
	}
	return InstallmentInterest{
		Shortfall:  Round2(shortfall),
		DaysLate:   daysLate,
		AnnualRate: annualRate,
		Interest:   Round2(interest),
	}
}
