package tax

import (
	"fmt"
	"math"
	"sort"
)

// =============================================================================
// ADVANCED COMPENSATION ANALYSIS
// Payroll deductions, RRSP room, TFSA growth, multi-year projection and a
// 13-province ranking layered on the base salary/dividend comparison.
// =============================================================================

const (
	solverTolerance     = 0.005
	solverMaxIterations = 200
)

// EmployerCostResult is the gross salary and total employer cost that
// deliver a target take-home amount.
type EmployerCostResult struct {
	Province     Province `json:"province"`
	TargetNet    float64  `json:"target_net"`
	GrossSalary  float64  `json:"gross_salary"`
	PersonalTax  float64  `json:"personal_tax"`
	EmployeeCPP  float64  `json:"employee_cpp"`
	EmployeeEI   float64  `json:"employee_ei"`
	EmployerCPP  float64  `json:"employer_cpp"`
	EmployerEI   float64  `json:"employer_ei"`
	EmployerCost float64  `json:"employer_cost"`
	Iterations   int      `json:"iterations"`
}

func netSalary(p Province, gross float64) (float64, personalTaxRaw, payrollRaw, error) {
	pt, err := personalTax(p, gross)
	if err != nil {
		return 0, personalTaxRaw{}, payrollRaw{}, err
	}
	pr := payroll(gross)
	return gross - pt.total() - pr.employee(), pt, pr, nil
}

// bisect finds x in [lo, hi] with f(x) ≈ target for a non-decreasing f.
func bisect(lo, hi, target float64, f func(float64) (float64, error)) (float64, int, error) {
	for i := 1; i <= solverMaxIterations; i++ {
		mid := (lo + hi) / 2
		v, err := f(mid)
		if err != nil {
			return 0, i, err
		}
		if math.Abs(v-target) <= solverTolerance || hi-lo <= solverTolerance {
			return mid, i, nil
		}
		if v < target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, solverMaxIterations, nil
}

// SolveEmployerCostForNetSalary searches for the gross salary whose take-home
// pay after income tax, CPP and EI equals targetNet.
func SolveEmployerCostForNetSalary(targetNet float64, p Province) (EmployerCostResult, error) {
	if !p.Valid() {
		return EmployerCostResult{}, fmt.Errorf("%w: %q", ErrUnknownProvince, string(p))
	}
	if math.IsNaN(targetNet) || math.IsInf(targetNet, 0) {
		return EmployerCostResult{}, fmt.Errorf("target net salary must be finite, got %v", targetNet)
	}
	if targetNet <= 0 {
		return EmployerCostResult{Province: p}, nil
	}

	netOf := func(g float64) (float64, error) {
		n, _, _, err := netSalary(p, g)
		return n, err
	}

	// Grow the upper bound until it brackets the target; hi must stay finite.
	hi := targetNet * 2
	for i := 0; ; i++ {
		if i >= solverMaxIterations || math.IsInf(hi, 0) {
			return EmployerCostResult{}, fmt.Errorf("no gross salary found for target net %.2f", targetNet)
		}
		n, err := netOf(hi)
		if err != nil {
			return EmployerCostResult{}, err
		}
		if n >= targetNet {
			break
		}
		hi *= 2
	}

	gross, iterations, err := bisect(targetNet, hi, targetNet, netOf)
	if err != nil {
		return EmployerCostResult{}, err
	}
	_, pt, pr, err := netSalary(p, gross)
	if err != nil {
		return EmployerCostResult{}, err
	}

	return EmployerCostResult{
		Province:     p,
		TargetNet:    Round2(targetNet),
		GrossSalary:  Round2(gross),
		PersonalTax:  Round2(pt.total()),
		EmployeeCPP:  Round2(pr.cpp + pr.cpp2),
		EmployeeEI:   Round2(pr.ei),
		EmployerCPP:  Round2(pr.cpp + pr.cpp2),
		EmployerEI:   Round2(pr.employerEI()),
		EmployerCost: Round2(gross + pr.employer()),
		Iterations:   iterations,
	}, nil
}

// CalculateRRSPRoom is 18% of earned salary capped at the annual dollar
// limit. Dividends are not earned income and create no room.
func CalculateRRSPRoom(salary float64) float64 {
	return Round2(rrspRoom(salary))
}

func rrspRoom(salary float64) float64 {
	return math.Min(math.Max(0, salary)*RRSPContributionRate, RRSPDollarLimit)
}

// TFSAComparison contrasts tax-free compounding with a taxable account whose
// yearly return is taxed at the marginal rate.
type TFSAComparison struct {
	AnnualContribution float64 `json:"annual_contribution"`
	Years              int     `json:"years"`
	ReturnRate         float64 `json:"return_rate"`
	MarginalRate       float64 `json:"marginal_rate"`
	TFSAValue          float64 `json:"tfsa_value"`
	TaxableValue       float64 `json:"taxable_value"`
	Advantage          float64 `json:"advantage"`
}

// CompareTFSA compounds contributions made at the start of each year.
// Contributions are capped at the annual TFSA limit.
func CompareTFSA(annualContribution float64, years int, returnRate, marginalRate float64) TFSAComparison {
	contrib := math.Min(math.Max(0, annualContribution), TFSAAnnualLimit)
	afterTaxReturn := returnRate * (1 - marginalRate)

	var tfsa, taxable float64
	for y := 0; y < years; y++ {
		tfsa = (tfsa + contrib) * (1 + returnRate)
		taxable = (taxable + contrib) * (1 + afterTaxReturn)
	}

	return TFSAComparison{
		AnnualContribution: Round2(contrib),
		Years:              years,
		ReturnRate:         returnRate,
		MarginalRate:       roundRate(marginalRate),
		TFSAValue:          Round2(tfsa),
		TaxableValue:       Round2(taxable),
		Advantage:          Round2(tfsa - taxable),
	}
}

// AdvancedComparisonInput configures AnalyzeCompensation.
type AdvancedComparisonInput struct {
	PreTaxIncome     float64  `json:"pre_tax_income"`
	Province         Province `json:"province"`
	Years            int      `json:"years"`
	TFSAContribution float64  `json:"tfsa_contribution"`
	InvestmentReturn float64  `json:"investment_return"`
	TargetNetSalary  float64  `json:"target_net_salary,omitempty"` // solve employer cost when > 0
}

// AdvancedStrategy is one payout path with payroll and registered-plan effects.
type AdvancedStrategy struct {
	Strategy          string  `json:"strategy"`
	GrossPayout       float64 `json:"gross_payout"`
	CorporateTax      float64 `json:"corporate_tax"`
	PersonalTax       float64 `json:"personal_tax"`
	EmployeePayroll   float64 `json:"employee_payroll"`
	EmployerPayroll   float64 `json:"employer_payroll"`
	NetCash           float64 `json:"net_cash"`
	MarginalRate      float64 `json:"marginal_rate"`
	RRSPRoom          float64 `json:"rrsp_room"`
	RRSPDeferralValue float64 `json:"rrsp_deferral_value"`
	EffectiveRate     float64 `json:"effective_rate"`
}

// YearProjection is the cumulative net cash of each path after Year years.
type YearProjection struct {
	Year        int     `json:"year"`
	Salary      float64 `json:"salary"`
	Eligible    float64 `json:"eligible_dividend"`
	NonEligible float64 `json:"non_eligible_dividend"`
}

// AdvancedComparison is the full compensation analysis.
type AdvancedComparison struct {
	Province            Province            `json:"province"`
	PreTaxIncome        float64             `json:"pre_tax_income"`
	Salary              AdvancedStrategy    `json:"salary"`
	EligibleDividend    AdvancedStrategy    `json:"eligible_dividend"`
	NonEligibleDividend AdvancedStrategy    `json:"non_eligible_dividend"`
	Best                string              `json:"best"`
	Projection          []YearProjection    `json:"projection"`
	TFSA                *TFSAComparison     `json:"tfsa,omitempty"`
	EmployerCost        *EmployerCostResult `json:"employer_cost,omitempty"`
}

type advancedRaw struct {
	strategy                              string
	gross, corpTax, personal              float64
	employeePayroll, employerPayroll, net float64
	marginal, rrsp                        float64
	preTax                                float64
}

func (a advancedRaw) rounded() AdvancedStrategy {
	effective := 0.0
	if a.preTax != 0 {
		effective = (a.preTax - a.net) / a.preTax
	}
	return AdvancedStrategy{
		Strategy:          a.strategy,
		GrossPayout:       Round2(a.gross),
		CorporateTax:      Round2(a.corpTax),
		PersonalTax:       Round2(a.personal),
		EmployeePayroll:   Round2(a.employeePayroll),
		EmployerPayroll:   Round2(a.employerPayroll),
		NetCash:           Round2(a.net),
		MarginalRate:      roundRate(a.marginal),
		RRSPRoom:          Round2(a.rrsp),
		RRSPDeferralValue: Round2(a.rrsp * a.marginal),
		EffectiveRate:     roundRate(effective),
	}
}

// salaryWithinBudget pays the largest salary whose employer cost (salary +
// employer CPP + employer EI) fits the pre-tax budget.
func salaryWithinBudget(p Province, budget float64) (advancedRaw, error) {
	out := advancedRaw{strategy: StrategySalary, preTax: budget}
	if budget <= 0 {
		return out, nil
	}
	costOf := func(s float64) (float64, error) {
		return s + payroll(s).employer(), nil
	}
	gross, _, err := bisect(0, budget, budget, costOf)
	if err != nil {
		return advancedRaw{}, err
	}
	net, pt, pr, err := netSalary(p, gross)
	if err != nil {
		return advancedRaw{}, err
	}
	out.gross = gross
	out.personal = pt.total()
	out.employeePayroll = pr.employee()
	out.employerPayroll = pr.employer()
	out.net = net
	out.marginal = pt.marginal()
	out.rrsp = rrspRoom(gross)
	return out, nil
}

// dividendWithinBudget pays corporate tax first, then a dividend of the rest.
// Eligible dividends are modelled out of general-rate income and
// non-eligible dividends out of small-business income.
func dividendWithinBudget(p Province, budget float64, t DividendType) (advancedRaw, error) {
	rates, err := GetCombinedRates(p)
	if err != nil {
		return advancedRaw{}, err
	}
	corpRate := rates.CombinedSmallBusinessRate
	name := StrategyNonEligible
	if t == EligibleDividend {
		corpRate = rates.CombinedGeneralRate
		name = StrategyEligible
	}

	corpTax := math.Max(0, budget) * corpRate
	cash := math.Max(0, budget) - corpTax
	factor, err := t.grossUp()
	if err != nil {
		return advancedRaw{}, err
	}
	pt, err := personalTax(p, cash*(1+factor))
	if err != nil {
		return advancedRaw{}, err
	}
	div, err := dividendTax(cash, t, p, pt.marginal())
	if err != nil {
		return advancedRaw{}, err
	}
	return advancedRaw{
		strategy: name,
		preTax:   budget,
		gross:    cash,
		corpTax:  corpTax,
		personal: div.net,
		net:      cash - div.net,
		marginal: pt.marginal(),
	}, nil
}

func analyzeRaw(p Province, preTax float64) (advancedRaw, advancedRaw, advancedRaw, error) {
	salary, err := salaryWithinBudget(p, preTax)
	if err != nil {
		return advancedRaw{}, advancedRaw{}, advancedRaw{}, err
	}
	eligible, err := dividendWithinBudget(p, preTax, EligibleDividend)
	if err != nil {
		return advancedRaw{}, advancedRaw{}, advancedRaw{}, err
	}
	nonEligible, err := dividendWithinBudget(p, preTax, NonEligibleDividend)
	if err != nil {
		return advancedRaw{}, advancedRaw{}, advancedRaw{}, err
	}
	return salary, eligible, nonEligible, nil
}

func bestOf(candidates ...advancedRaw) advancedRaw {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.net > best.net {
			best = c
		}
	}
	return best
}

// AnalyzeCompensation runs the advanced salary vs dividend comparison.
//
// Years ≤ 0 is treated as a single year. The projection assumes income and
// rates stay constant, so year n is simply n × the annual net cash.
func AnalyzeCompensation(in AdvancedComparisonInput) (AdvancedComparison, error) {
	if !in.Province.Valid() {
		return AdvancedComparison{}, fmt.Errorf("%w: %q", ErrUnknownProvince, string(in.Province))
	}
	salary, eligible, nonEligible, err := analyzeRaw(in.Province, in.PreTaxIncome)
	if err != nil {
		return AdvancedComparison{}, err
	}

	years := in.Years
	if years <= 0 {
		years = 1
	}
	projection := make([]YearProjection, 0, years)
	for y := 1; y <= years; y++ {
		n := float64(y)
		projection = append(projection, YearProjection{
			Year:        y,
			Salary:      Round2(salary.net * n),
			Eligible:    Round2(eligible.net * n),
			NonEligible: Round2(nonEligible.net * n),
		})
	}

	result := AdvancedComparison{
		Province:            in.Province,
		PreTaxIncome:        Round2(in.PreTaxIncome),
		Salary:              salary.rounded(),
		EligibleDividend:    eligible.rounded(),
		NonEligibleDividend: nonEligible.rounded(),
		Best:                bestOf(salary, eligible, nonEligible).strategy,
		Projection:          projection,
	}
	if in.TFSAContribution > 0 {
		tfsa := CompareTFSA(in.TFSAContribution, years, in.InvestmentReturn, salary.marginal)
		result.TFSA = &tfsa
	}
	if in.TargetNetSalary > 0 {
		cost, err := SolveEmployerCostForNetSalary(in.TargetNetSalary, in.Province)
		if err != nil {
			return AdvancedComparison{}, err
		}
		result.EmployerCost = &cost
	}
	return result, nil
}

// ProvinceRanking is one row of RankProvinces.
type ProvinceRanking struct {
	Rank         int      `json:"rank"`
	Province     Province `json:"province"`
	BestStrategy string   `json:"best_strategy"`
	NetCash      float64  `json:"net_cash"`
	Salary       float64  `json:"salary_net_cash"`
	Eligible     float64  `json:"eligible_net_cash"`
	NonEligible  float64  `json:"non_eligible_net_cash"`
}

// RankProvinces evaluates every province at the same pre-tax income and
// orders them by the net cash of each province's best strategy. Equal
// results keep table order.
func RankProvinces(preTaxIncome float64) ([]ProvinceRanking, error) {
	type row struct {
		p    Province
		best advancedRaw
		s    advancedRaw
		e    advancedRaw
		n    advancedRaw
	}
	rows := make([]row, 0, provinceCount)
	for _, p := range AllProvinces() {
		s, e, n, err := analyzeRaw(p, preTaxIncome)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row{p: p, best: bestOf(s, e, n), s: s, e: e, n: n})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].best.net > rows[j].best.net
	})

	out := make([]ProvinceRanking, len(rows))
	for i, r := range rows {
		out[i] = ProvinceRanking{
			Rank:         i + 1,
			Province:     r.p,
			BestStrategy: r.best.strategy,
			NetCash:      Round2(r.best.net),
			Salary:       Round2(r.s.net),
			Eligible:     Round2(r.e.net),
			NonEligible:  Round2(r.n.net),
		}
	}
	return out, nil
}
