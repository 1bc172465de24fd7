package tax

import "math"

// =============================================================================
// CORPORATE TAX ESTIMATOR
// =============================================================================

// CombinedRates merges the federal and provincial corporate rates.
type CombinedRates struct {
	Province                  Province `json:"province"`
	FederalSmallBusinessRate  float64  `json:"federal_small_business_rate"`
	FederalGeneralRate        float64  `json:"federal_general_rate"`
	ProvincialSmallBusiness   float64  `json:"provincial_small_business_rate"`
	ProvincialGeneralRate     float64  `json:"provincial_general_rate"`
	CombinedSmallBusinessRate float64  `json:"combined_small_business_rate"`
	CombinedGeneralRate       float64  `json:"combined_general_rate"`
	SBDLimit                  float64  `json:"sbd_limit"`
}

// GetCombinedRates returns federal + provincial rates for p.
//
// The effective SBD limit is min(federal $500,000, provincial limit).
func GetCombinedRates(p Province) (CombinedRates, error) {
	prov, err := ProvincialCorporateRates(p)
	if err != nil {
		return CombinedRates{}, err
	}
	return CombinedRates{
		Province:                  p,
		FederalSmallBusinessRate:  FederalSmallBusinessRate,
		FederalGeneralRate:        FederalGeneralRate,
		ProvincialSmallBusiness:   prov.SmallBusinessRate,
		ProvincialGeneralRate:     prov.GeneralRate,
		CombinedSmallBusinessRate: roundRate(FederalSmallBusinessRate + prov.SmallBusinessRate),
		CombinedGeneralRate:       roundRate(FederalGeneralRate + prov.GeneralRate),
		SBDLimit:                  math.Min(FederalSBDLimit, prov.SBDLimit),
	}, nil
}

// CorporateTaxOptions narrows the business limit. A nil IsCCPC means the
// entity is treated as a CCPC.
type CorporateTaxOptions struct {
	IsCCPC         *bool    `json:"is_ccpc,omitempty"`
	TaxableCapital *float64 `json:"taxable_capital,omitempty"`
	AAII           *float64 `json:"aaii,omitempty"`
}

func (o CorporateTaxOptions) ccpc() bool {
	return o.IsCCPC == nil || *o.IsCCPC
}

// CorporateTaxEstimate is the result of EstimateCorporateTax.
type CorporateTaxEstimate struct {
	Province            Province `json:"province"`
	TaxableIncome       float64  `json:"taxable_income"`
	BusinessLimit       float64  `json:"business_limit"`
	SmallBusinessIncome float64  `json:"small_business_income"`
	GeneralIncome       float64  `json:"general_income"`
	SmallBusinessTax    float64  `json:"small_business_tax"`
	GeneralTax          float64  `json:"general_tax"`
	FederalTax          float64  `json:"federal_tax"`
	ProvincialTax       float64  `json:"provincial_tax"`
	TotalTax            float64  `json:"total_tax"`
	EffectiveRate       float64  `json:"effective_rate"`
}

// CalculateSbdBusinessLimit grinds the federal $500,000 limit by taxable capital.
//
// FORMULA: limit × (1 − (capital − 10M) / 5M), clamped to [0, limit]
func CalculateSbdBusinessLimit(taxableCapital float64) float64 {
	return grindByTaxableCapital(FederalSBDLimit, taxableCapital)
}

func grindByTaxableCapital(limit, capital float64) float64 {
	switch {
	case capital <= TaxableCapitalGrindStart:
		return limit
	case capital >= TaxableCapitalGrindEnd:
		return 0
	}
	span := TaxableCapitalGrindEnd - TaxableCapitalGrindStart
	return limit * (TaxableCapitalGrindEnd - capital) / span
}

// grindByAAII reduces the limit by $5 per $1 of AAII above $50,000.
func grindByAAII(limit, aaii float64) float64 {
	switch {
	case aaii <= AAIIGrindStart:
		return limit
	case aaii >= AAIIGrindEnd:
		return 0
	}
	return math.Max(0, limit-AAIIGrindFactor*(aaii-AAIIGrindStart))
}

// BusinessLimit applies the CCPC test and both grinds to the combined limit.
// The smaller of the two ground-down limits wins.
func BusinessLimit(combinedLimit float64, opts CorporateTaxOptions) float64 {
	if !opts.ccpc() {
		return 0
	}
	limit := combinedLimit
	if opts.TaxableCapital != nil {
		limit = math.Min(limit, grindByTaxableCapital(combinedLimit, *opts.TaxableCapital))
	}
	if opts.AAII != nil {
		limit = math.Min(limit, grindByAAII(combinedLimit, *opts.AAII))
	}
	return limit
}

// EstimateCorporateTax splits income at the business limit and taxes each band.
//
// FORMULA:
//
//	tax = min(income, limit) × combinedSmall + max(0, income − limit) × combinedGeneral
func EstimateCorporateTax(p Province, income float64, opts CorporateTaxOptions) (CorporateTaxEstimate, error) {
	rates, err := GetCombinedRates(p)
	if err != nil {
		return CorporateTaxEstimate{}, err
	}

	limit := BusinessLimit(rates.SBDLimit, opts)
	taxable := math.Max(0, income)
	smallIncome := math.Min(taxable, limit)
	generalIncome := taxable - smallIncome

	smallTax := smallIncome * (rates.FederalSmallBusinessRate + rates.ProvincialSmallBusiness)
	generalTax := generalIncome * (rates.FederalGeneralRate + rates.ProvincialGeneralRate)
	federal := smallIncome*rates.FederalSmallBusinessRate + generalIncome*rates.FederalGeneralRate
	provincial := smallIncome*rates.ProvincialSmallBusiness + generalIncome*rates.ProvincialGeneralRate
	total := smallTax + generalTax

	effective := 0.0
	if taxable > 0 {
		effective = total / taxable
	}

	return CorporateTaxEstimate{
		Province:            p,
		TaxableIncome:       Round2(taxable),
		BusinessLimit:       Round2(limit),
		SmallBusinessIncome: Round2(smallIncome),
		GeneralIncome:       Round2(generalIncome),
		SmallBusinessTax:    Round2(smallTax),
		GeneralTax:          Round2(generalTax),
		FederalTax:          Round2(federal),
		ProvincialTax:       Round2(provincial),
		TotalTax:            Round2(total),
		EffectiveRate:       roundRate(effective),
	}, nil
}

// =============================================================================
// CAPITAL GAINS INCLUSION
// =============================================================================

// CapitalGainResult is the taxable portion of a capital gain or loss.
type CapitalGainResult struct {
	Gain          float64 `json:"gain"`
	TaxableGain   float64 `json:"taxable_gain"`
	InclusionRate float64 `json:"inclusion_rate"`
	ProposedRules bool    `json:"proposed_rules"`
}

// CalculateTaxableCapitalGain applies the inclusion rate.
//
// Current rules include 50% of any gain or loss. With useProposedRates,
// corporations and trusts include 2/3 of the whole amount while individuals
// include 50% of the first $250,000 and 2/3 of the excess; the reported
// inclusion rate is then the blended effective rate.
func CalculateTaxableCapitalGain(gain float64, isIndividual, useProposedRates bool) CapitalGainResult {
	var taxable float64
	switch {
	case !useProposedRates:
		taxable = gain * CapitalGainsInclusionRate
	case !isIndividual:
		taxable = gain * ProposedInclusionRate
	case gain <= ProposedIndividualThreshold:
		taxable = gain * CapitalGainsInclusionRate
	default:
		taxable = ProposedIndividualThreshold*CapitalGainsInclusionRate +
			(gain-ProposedIndividualThreshold)*ProposedInclusionRate
	}

	rate := CapitalGainsInclusionRate
	if useProposedRates {
		switch {
		case gain != 0:
			rate = taxable / gain
		case !isIndividual:
			rate = ProposedInclusionRate
		}
	}

	return CapitalGainResult{
		Gain:          Round2(gain),
		TaxableGain:   Round2(taxable),
		InclusionRate: roundRate(rate),
		ProposedRules: useProposedRates,
	}
}
