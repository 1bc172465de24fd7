package tax

import "math"

// =============================================================================
// PENALTIES
// =============================================================================

// T2 late-filing penalty parameters.
const (
	T2FirstBaseRate     = 0.05
	T2FirstMonthlyRate  = 0.01
	T2FirstMonthCap     = 12
	T2RepeatBaseRate    = 0.10
	T2RepeatMonthlyRate = 0.02
	T2RepeatMonthCap    = 20
)

// GST/HST late-filing penalty parameters.
const (
	GSTBaseRate    = 0.01
	GSTMonthlyRate = 0.0025
	GSTMonthCap    = 12
)

// Information-return penalty parameters.
const (
	InfoReturnDailyPerSlip = 25.0
	InfoReturnMaxPerSlip   = 2_500.0
	InfoReturnMinimum      = 100.0
	InfoReturnMaximum      = 7_500.0
)

// PenaltyResult is the uniform shape of every penalty calculation.
type PenaltyResult struct {
	Base        float64 `json:"base"`
	Rate        float64 `json:"rate"`
	MonthsLate  int     `json:"months_late,omitempty"`
	MonthsUsed  int     `json:"months_used,omitempty"`
	DaysLate    int     `json:"days_late,omitempty"`
	Slips       int     `json:"slips,omitempty"`
	Penalty     float64 `json:"penalty"`
	RepeatRules bool    `json:"repeat_rules"`
}

// CalculateT2LateFilingPenalty: base% + monthly% × min(monthsLate, cap) of
// the unpaid tax. 5%/1%/12 for first offences, 10%/2%/20 for repeats.
func CalculateT2LateFilingPenalty(taxOwing float64, monthsLate int, repeatOffender bool) PenaltyResult {
	res := PenaltyResult{Base: Round2(taxOwing), MonthsLate: monthsLate, RepeatRules: repeatOffender}
	if taxOwing <= 0 || monthsLate <= 0 {
		return res
	}

	base, monthly, monthCap := T2FirstBaseRate, T2FirstMonthlyRate, T2FirstMonthCap
	if repeatOffender {
		base, monthly, monthCap = T2RepeatBaseRate, T2RepeatMonthlyRate, T2RepeatMonthCap
	}
	months := min(monthsLate, monthCap)
	rate := base + monthly*float64(months)

	res.MonthsUsed = months
	res.Rate = roundRate(rate)
	res.Penalty = Round2(taxOwing * rate)
	return res
}

// CalculateGSTLateFilingPenalty: 1% + 0.25% × min(monthsLate, 12) of the
// net tax owing, doubled for repeat offenders.
func CalculateGSTLateFilingPenalty(netTaxOwing float64, monthsLate int, repeatOffender bool) PenaltyResult {
	res := PenaltyResult{Base: Round2(netTaxOwing), MonthsLate: monthsLate, RepeatRules: repeatOffender}
	if netTaxOwing <= 0 || monthsLate <= 0 {
		return res
	}

	months := min(monthsLate, GSTMonthCap)
	rate := GSTBaseRate + GSTMonthlyRate*float64(months)
	if repeatOffender {
		rate *= 2
	}

	res.MonthsUsed = months
	res.Rate = roundRate(rate)
	res.Penalty = Round2(netTaxOwing * rate)
	return res
}

// CalculateInformationReturnPenalty: $25 per day per slip, at most $2,500
// per slip, clamped to [$100, $7,500] in total. Zero when filed on time.
func CalculateInformationReturnPenalty(slips, daysLate int) PenaltyResult {
	res := PenaltyResult{DaysLate: daysLate, Slips: slips}
	if daysLate <= 0 || slips <= 0 {
		return res
	}

	perSlip := math.Min(InfoReturnDailyPerSlip*float64(daysLate), InfoReturnMaxPerSlip)
	total := perSlip * float64(slips)
	total = math.Max(InfoReturnMinimum, math.Min(total, InfoReturnMaximum))

	res.Penalty = Round2(total)
	return res
}
