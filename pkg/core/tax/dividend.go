package tax

import (
	"fmt"
	"math"
)

// =============================================================================
// DIVIDEND INTEGRATION
// =============================================================================

// DividendType selects the gross-up and credit regime.
type DividendType string

const (
	EligibleDividend    DividendType = "eligible"
	NonEligibleDividend DividendType = "non_eligible"
)

func (t DividendType) grossUp() (float64, error) {
	switch t {
	case EligibleDividend:
		return EligibleGrossUp, nil
	case NonEligibleDividend:
		return NonEligibleGrossUp, nil
	}
	return 0, fmt.Errorf("unknown dividend type %q", string(t))
}

func (t DividendType) federalCredit() float64 {
	if t == EligibleDividend {
		return FederalEligibleDTCRate
	}
	return FederalNonEligibleDTCRate
}

func (c DividendCreditRates) forType(t DividendType) float64 {
	if t == EligibleDividend {
		return c.Eligible
	}
	return c.NonEligible
}

// DividendTaxResult breaks down personal tax on a cash dividend.
type DividendTaxResult struct {
	Type             DividendType `json:"type"`
	Province         Province     `json:"province"`
	CashDividend     float64      `json:"cash_dividend"`
	GrossUp          float64      `json:"gross_up"`
	GrossedUpAmount  float64      `json:"grossed_up_amount"`
	TaxBeforeCredits float64      `json:"tax_before_credits"`
	FederalCredit    float64      `json:"federal_credit"`
	ProvincialCredit float64      `json:"provincial_credit"`
	NetTax           float64      `json:"net_tax"`
	AfterTaxCash     float64      `json:"after_tax_cash"`
	EffectiveRate    float64      `json:"effective_rate"`
	RDTOHRefund      float64      `json:"rdtoh_refund"`
}

type dividendTaxRaw struct {
	grossUp, grossedUp, before float64
	fedCredit, provCredit      float64
	net, refund                float64
}

func dividendTax(cash float64, t DividendType, p Province, marginal float64) (dividendTaxRaw, error) {
	factor, err := t.grossUp()
	if err != nil {
		return dividendTaxRaw{}, err
	}
	credits, err := ProvincialDividendCredits(p)
	if err != nil {
		return dividendTaxRaw{}, err
	}

	grossUp := cash * factor
	grossed := cash + grossUp
	before := grossed * marginal
	fed := grossed * t.federalCredit()
	prov := grossed * credits.forType(t)

	return dividendTaxRaw{
		grossUp:    grossUp,
		grossedUp:  grossed,
		before:     before,
		fedCredit:  fed,
		provCredit: prov,
		net:        math.Max(0, before-fed-prov),
		refund:     cash * RDTOHRefundRate,
	}, nil
}

// CalculateDividendTax taxes the grossed-up dividend at the shareholder's
// marginal rate and subtracts the federal and provincial credits.
//
// FORMULA:
//
//	grossed  = cash × (1 + grossUp)
//	netTax   = max(0, grossed × marginal − grossed × fedDTC − grossed × provDTC)
//	refund   = cash × 38.33%   (RDTOH returned to the paying corporation)
func CalculateDividendTax(cash float64, t DividendType, p Province, personalMarginalRate float64) (DividendTaxResult, error) {
	raw, err := dividendTax(cash, t, p, personalMarginalRate)
	if err != nil {
		return DividendTaxResult{}, err
	}

	effective := 0.0
	if cash != 0 {
		effective = raw.net / cash
	}

	return DividendTaxResult{
		Type:             t,
		Province:         p,
		CashDividend:     Round2(cash),
		GrossUp:          Round2(raw.grossUp),
		GrossedUpAmount:  Round2(raw.grossedUp),
		TaxBeforeCredits: Round2(raw.before),
		FederalCredit:    Round2(raw.fedCredit),
		ProvincialCredit: Round2(raw.provCredit),
		NetTax:           Round2(raw.net),
		AfterTaxCash:     Round2(cash - raw.net),
		EffectiveRate:    roundRate(effective),
		RDTOHRefund:      Round2(raw.refund),
	}, nil
}

// =============================================================================
// SALARY VS DIVIDEND
// =============================================================================

// Strategy names used in comparisons.
const (
	StrategySalary      = "salary"
	StrategyEligible    = "eligible_dividend"
	StrategyNonEligible = "non_eligible_dividend"
)

// StrategyOutcome is the after-tax position of one payout path.
type StrategyOutcome struct {
	Strategy      string  `json:"strategy"`
	PreTaxAmount  float64 `json:"pre_tax_amount"`
	CorporateTax  float64 `json:"corporate_tax"`
	PersonalTax   float64 `json:"personal_tax"`
	EmployerCPP   float64 `json:"employer_cpp"`
	AfterTaxCash  float64 `json:"after_tax_cash"`
	TotalTax      float64 `json:"total_tax"`
	EffectiveRate float64 `json:"effective_rate"`
}

// SalaryDividendComparison holds the three paths side by side.
type SalaryDividendComparison struct {
	Province            Province        `json:"province"`
	PreTaxIncome        float64         `json:"pre_tax_income"`
	Salary              StrategyOutcome `json:"salary"`
	EligibleDividend    StrategyOutcome `json:"eligible_dividend"`
	NonEligibleDividend StrategyOutcome `json:"non_eligible_dividend"`
	Best                string          `json:"best"`
	Advantage           float64         `json:"advantage"`
}

type outcomeRaw struct {
	strategy                  string
	preTax, corpTax, personal float64
	employerCPP, afterTax     float64
}

func (o outcomeRaw) rounded() StrategyOutcome {
	total := o.corpTax + o.personal
	effective := 0.0
	if o.preTax != 0 {
		effective = total / o.preTax
	}
	return StrategyOutcome{
		Strategy:      o.strategy,
		PreTaxAmount:  Round2(o.preTax),
		CorporateTax:  Round2(o.corpTax),
		PersonalTax:   Round2(o.personal),
		EmployerCPP:   Round2(o.employerCPP),
		AfterTaxCash:  Round2(o.afterTax),
		TotalTax:      Round2(total),
		EffectiveRate: roundRate(effective),
	}
}

func dividendPath(preTax float64, t DividendType, p Province, marginal, corpRate float64) (outcomeRaw, error) {
	corpTax := preTax * corpRate
	cash := preTax - corpTax
	raw, err := dividendTax(cash, t, p, marginal)
	if err != nil {
		return outcomeRaw{}, err
	}
	name := StrategyEligible
	if t == NonEligibleDividend {
		name = StrategyNonEligible
	}
	return outcomeRaw{
		strategy: name,
		preTax:   preTax,
		corpTax:  corpTax,
		personal: raw.net,
		afterTax: cash - raw.net,
	}, nil
}

// employerCPPEstimate is the employer's base-tier CPP share on a salary.
func employerCPPEstimate(salary float64) float64 {
	pensionable := math.Min(math.Max(salary, 0), YMPE) - CPPBasicExemption
	return math.Max(0, pensionable) * CPPRate
}

// pickBest returns the strategy with the highest after-tax cash. Ties keep
// the earlier candidate.
func pickBest(outcomes ...outcomeRaw) (string, float64) {
	best := outcomes[0]
	for _, o := range outcomes[1:] {
		if o.afterTax > best.afterTax {
			best = o
		}
	}
	second := math.Inf(-1)
	for _, o := range outcomes {
		if o.strategy != best.strategy && o.afterTax > second {
			second = o.afterTax
		}
	}
	return best.strategy, best.afterTax - second
}

// CompareSalaryVsDividend compares paying preTaxIncome out as salary or as
// either dividend type.
//
// Salary is taxed in full at the personal marginal rate, with an employer CPP
// estimate reported alongside. Dividend paths first pay corporate tax at
// corporateTaxRate and then personal dividend tax on the remaining cash.
func CompareSalaryVsDividend(preTaxIncome float64, p Province, personalMarginalRate, corporateTaxRate float64) (SalaryDividendComparison, error) {
	if !p.Valid() {
		return SalaryDividendComparison{}, fmt.Errorf("%w: %q", ErrUnknownProvince, string(p))
	}

	salaryTax := preTaxIncome * personalMarginalRate
	salary := outcomeRaw{
		strategy:    StrategySalary,
		preTax:      preTaxIncome,
		personal:    salaryTax,
		employerCPP: employerCPPEstimate(preTaxIncome),
		afterTax:    preTaxIncome - salaryTax,
	}
	eligible, err := dividendPath(preTaxIncome, EligibleDividend, p, personalMarginalRate, corporateTaxRate)
	if err != nil {
		return SalaryDividendComparison{}, err
	}
	nonEligible, err := dividendPath(preTaxIncome, NonEligibleDividend, p, personalMarginalRate, corporateTaxRate)
	if err != nil {
		return SalaryDividendComparison{}, err
	}

	best, advantage := pickBest(salary, eligible, nonEligible)
	return SalaryDividendComparison{
		Province:            p,
		PreTaxIncome:        Round2(preTaxIncome),
		Salary:              salary.rounded(),
		EligibleDividend:    eligible.rounded(),
		NonEligibleDividend: nonEligible.rounded(),
		Best:                best,
		Advantage:           Round2(advantage),
	}, nil
}
