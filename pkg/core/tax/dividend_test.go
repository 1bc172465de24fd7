package tax

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateDividendTax(t *testing.T) {
	got, err := CalculateDividendTax(1_000, EligibleDividend, ON, 0.4341)
	require.NoError(t, err)

	assert.Equal(t, 380.0, got.GrossUp)
	assert.Equal(t, 1_380.0, got.GrossedUpAmount)
	assert.InDelta(t, 207.27, got.FederalCredit, 0.001)
	assert.Equal(t, 138.0, got.ProvincialCredit)
	assert.InDelta(t, 253.78, got.NetTax, 0.001)
	assert.InDelta(t, 746.22, got.AfterTaxCash, 0.001)
	assert.Equal(t, 383.3, got.RDTOHRefund)
}

func TestCalculateDividendTaxFloorsAtZero(t *testing.T) {
	got, err := CalculateDividendTax(10_000, NonEligibleDividend, ON, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.NetTax)
	assert.Equal(t, 10_000.0, got.AfterTaxCash)
}

func TestCalculateDividendTaxRejectsUnknownType(t *testing.T) {
	_, err := CalculateDividendTax(1_000, "capital", ON, 0.3)
	assert.Error(t, err)
}

func TestCompareSalaryVsDividend(t *testing.T) {
	got, err := CompareSalaryVsDividend(100_000, ON, 0.4341, 0.122)
	require.NoError(t, err)

	assert.InDelta(t, 56_590, got.Salary.AfterTaxCash, 0.01)
	assert.InDelta(t, 3_867.5, got.Salary.EmployerCPP, 0.01)
	assert.InDelta(t, 12_200, got.EligibleDividend.CorporateTax, 0.01)
	assert.InDelta(t, 65_517.70, got.EligibleDividend.AfterTaxCash, 0.01)
	assert.InDelta(t, 56_101.88, got.NonEligibleDividend.AfterTaxCash, 0.01)
	assert.Equal(t, StrategyEligible, got.Best)
	assert.InDelta(t, 8_927.70, got.Advantage, 0.01)
}

func TestCalculatePayrollDeductions(t *testing.T) {
	got := CalculatePayrollDeductions(100_000)
	assert.Equal(t, 3_867.5, got.EmployeeCPP)
	assert.Equal(t, 188.0, got.EmployeeCPP2)
	assert.InDelta(t, 1_049.12, got.EmployeeEI, 0.001)
	assert.InDelta(t, 1_468.77, got.EmployerEI, 0.001)
	assert.InDelta(t, 5_104.62, got.TotalEmployee, 0.001)
	assert.InDelta(t, 5_524.27, got.TotalEmployer, 0.001)

	low := CalculatePayrollDeductions(3_000)
	assert.Equal(t, 0.0, low.EmployeeCPP)
	assert.Equal(t, 0.0, low.EmployeeCPP2)
}

func TestDeterminePayrollRemitterType(t *testing.T) {
	tests := []struct {
		amwa float64
		want RemitterType
		n    int
	}{
		{0, RemitterQuarterly, 4},
		{2_999.99, RemitterQuarterly, 4},
		{3_000, RemitterRegular, 12},
		{24_999.99, RemitterRegular, 12},
		{25_000, RemitterAccelerated1, 24},
		{100_000, RemitterAccelerated2, 48},
	}
	for _, tc := range tests {
		got := DeterminePayrollRemitterType(tc.amwa)
		assert.Equal(t, tc.want, got.Type, "amwa %.2f", tc.amwa)
		assert.Equal(t, tc.n, got.RemittancesPerYear, "amwa %.2f", tc.amwa)
	}
}

func TestSolveEmployerCostForNetSalary(t *testing.T) {
	got, err := SolveEmployerCostForNetSalary(60_000, ON)
	require.NoError(t, err)

	net, _, _, err := netSalary(ON, got.GrossSalary)
	require.NoError(t, err)
	if math.Abs(net-60_000) > 0.05 {
		t.Errorf("net salary at solved gross = %.2f, want 60000", net)
	}
	assert.Greater(t, got.EmployerCost, got.GrossSalary)
	assert.Greater(t, got.GrossSalary, 60_000.0)
	assert.LessOrEqual(t, got.Iterations, solverMaxIterations)
}

func TestSolveEmployerCostReturnsForExtremeTargets(t *testing.T) {
	for _, target := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1e308, math.MaxFloat64} {
		done := make(chan error, 1)
		go func() {
			_, err := SolveEmployerCostForNetSalary(target, ON)
			done <- err
		}()
		select {
		case err := <-done:
			assert.Error(t, err, "target %v", target)
		case <-time.After(5 * time.Second):
			t.Fatalf("SolveEmployerCostForNetSalary(%v) did not return", target)
		}
	}

	got, err := SolveEmployerCostForNetSalary(1e12, ON)
	require.NoError(t, err)
	assert.Greater(t, got.GrossSalary, 1e12)
}

func TestRRSPRoomAndTFSA(t *testing.T) {
	assert.Equal(t, 9_000.0, CalculateRRSPRoom(50_000))
	assert.Equal(t, RRSPDollarLimit, CalculateRRSPRoom(500_000))
	assert.Equal(t, 0.0, CalculateRRSPRoom(-1))

	c := CompareTFSA(10_000, 2, 0.05, 0.4)
	assert.Equal(t, TFSAAnnualLimit, c.AnnualContribution)
	// (7000×1.05 + 7000)×1.05 tax-free vs the same at 5%×(1−0.4) = 3%.
	assert.InDelta(t, 15_067.50, c.TFSAValue, 0.001)
	assert.InDelta(t, 14_636.30, c.TaxableValue, 0.001)
	assert.InDelta(t, 431.20, c.Advantage, 0.001)
}

func TestAnalyzeCompensation(t *testing.T) {
	in := AdvancedComparisonInput{PreTaxIncome: 150_000, Province: ON, Years: 5, TFSAContribution: 7_000, InvestmentReturn: 0.05}
	got, err := AnalyzeCompensation(in)
	require.NoError(t, err)

	// Salary plus employer payroll uses the whole budget.
	assert.InDelta(t, 150_000, got.Salary.GrossPayout+got.Salary.EmployerPayroll, 0.02)
	assert.Greater(t, got.Salary.RRSPRoom, 0.0)
	assert.Equal(t, 0.0, got.EligibleDividend.RRSPRoom)
	assert.Equal(t, 0.0, got.NonEligibleDividend.RRSPRoom)

	require.Len(t, got.Projection, 5)
	for _, y := range got.Projection {
		assert.InDelta(t, got.Salary.NetCash*float64(y.Year), y.Salary, 0.05)
	}
	require.NotNil(t, got.TFSA)
	assert.Equal(t, 5, got.TFSA.Years)
	assert.Nil(t, got.EmployerCost)

	nets := map[string]float64{
		StrategySalary:      got.Salary.NetCash,
		StrategyEligible:    got.EligibleDividend.NetCash,
		StrategyNonEligible: got.NonEligibleDividend.NetCash,
	}
	for name, n := range nets {
		assert.GreaterOrEqual(t, nets[got.Best], n, "best %s beaten by %s", got.Best, name)
	}
}

func TestAnalyzeCompensationSolvesTargetNetSalary(t *testing.T) {
	got, err := AnalyzeCompensation(AdvancedComparisonInput{PreTaxIncome: 150_000, Province: ON, TargetNetSalary: 60_000})
	require.NoError(t, err)
	require.NotNil(t, got.EmployerCost)

	direct, err := SolveEmployerCostForNetSalary(60_000, ON)
	require.NoError(t, err)
	assert.Equal(t, direct, *got.EmployerCost)

	_, err = AnalyzeCompensation(AdvancedComparisonInput{PreTaxIncome: 150_000, Province: ON, TargetNetSalary: math.Inf(1)})
	assert.Error(t, err)
}

func TestRankProvinces(t *testing.T) {
	got, err := RankProvinces(120_000)
	require.NoError(t, err)
	require.Len(t, got, provinceCount)

	seen := map[Province]bool{}
	for i, r := range got {
		assert.Equal(t, i+1, r.Rank)
		seen[r.Province] = true
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].NetCash, r.NetCash)
		}
	}
	assert.Len(t, seen, provinceCount)

	again, err := RankProvinces(120_000)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}
