package tax

import "math"

// =============================================================================
// PERSONAL TAX ESTIMATOR
// =============================================================================

// CalculateBracketTax applies a progressive schedule to income.
//
// FORMULA: Σ (min(income, to ?? ∞) − from) × rate, for every bracket with from < income
//
// Brackets must be ascending and non-overlapping.
func CalculateBracketTax(income float64, brackets []TaxBracket) float64 {
	var tax float64
	for _, b := range brackets {
		if income <= b.From {
			break
		}
		upper := math.Inf(1)
		if b.To != nil {
			upper = *b.To
		}
		tax += (math.Min(income, upper) - b.From) * b.Rate
	}
	return tax
}

// GetMarginalRate returns the rate of the highest bracket whose lower bound
// is at or below income.
func GetMarginalRate(income float64, brackets []TaxBracket) float64 {
	rate := 0.0
	for _, b := range brackets {
		if b.From <= income {
			rate = b.Rate
		}
	}
	return rate
}

// PersonalTaxEstimate is the result of EstimatePersonalTax.
type PersonalTaxEstimate struct {
	Province       Province `json:"province"`
	Income         float64  `json:"income"`
	FederalTax     float64  `json:"federal_tax"`
	ProvincialTax  float64  `json:"provincial_tax"`
	TotalTax       float64  `json:"total_tax"`
	EffectiveRate  float64  `json:"effective_rate"`
	FederalRate    float64  `json:"federal_marginal_rate"`
	ProvincialRate float64  `json:"provincial_marginal_rate"`
	MarginalRate   float64  `json:"marginal_rate"`
}

type personalTaxRaw struct {
	federal, provincial         float64
	federalRate, provincialRate float64
}

func (r personalTaxRaw) total() float64    { return r.federal + r.provincial }
func (r personalTaxRaw) marginal() float64 { return r.federalRate + r.provincialRate }

func jurisdictionTax(income float64, s PersonalSchedule) float64 {
	gross := CalculateBracketTax(income, s.Brackets)
	credit := s.BasicPersonalAmount * s.lowestRate()
	return math.Max(0, gross-credit)
}

// personalTax is the unrounded core shared with the dividend analyzer.
func personalTax(p Province, income float64) (personalTaxRaw, error) {
	prov, err := ProvincialPersonalSchedule(p)
	if err != nil {
		return personalTaxRaw{}, err
	}
	fed := FederalPersonalSchedule()
	return personalTaxRaw{
		federal:        jurisdictionTax(income, fed),
		provincial:     jurisdictionTax(income, prov),
		federalRate:    GetMarginalRate(income, fed.Brackets),
		provincialRate: GetMarginalRate(income, prov.Brackets),
	}, nil
}

// EstimatePersonalTax computes federal and provincial income tax, each net
// of its basic personal amount credit and floored at zero.
func EstimatePersonalTax(p Province, income float64) (PersonalTaxEstimate, error) {
	raw, err := personalTax(p, income)
	if err != nil {
		return PersonalTaxEstimate{}, err
	}

	effective := 0.0
	if income != 0 {
		effective = raw.total() / income
	}

	return PersonalTaxEstimate{
		Province:       p,
		Income:         Round2(income),
		FederalTax:     Round2(raw.federal),
		ProvincialTax:  Round2(raw.provincial),
		TotalTax:       Round2(raw.total()),
		EffectiveRate:  roundRate(effective),
		FederalRate:    raw.federalRate,
		ProvincialRate: raw.provincialRate,
		MarginalRate:   roundRate(raw.marginal()),
	}, nil
}
