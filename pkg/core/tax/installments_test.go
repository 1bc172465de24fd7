package tax

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallmentsNotRequiredAtOrBelowThreshold(t *testing.T) {
	got, err := PlanInstallments(InstallmentInput{
		PriorYearTax:        2_000,
		CurrentYearEstimate: 3_000,
		FiscalYearEnd:       "12-31",
		TaxYear:             2024,
	})
	require.NoError(t, err)
	assert.False(t, got.Required)
	assert.Empty(t, got.DueDates)
	assert.Equal(t, 0, got.NumberOfPayments)
}

func TestInstallmentsRecommendPriorYear(t *testing.T) {
	got, err := PlanInstallments(InstallmentInput{
		PriorYearTax:        100_000,
		CurrentYearEstimate: 120_000,
		FiscalYearEnd:       "12-31",
		TaxYear:             2024,
	})
	require.NoError(t, err)

	assert.True(t, got.Required)
	assert.Equal(t, InstallmentMonthly, got.Frequency)
	assert.Equal(t, 12, got.NumberOfPayments)
	assert.Equal(t, MethodPriorYear, got.Methods.Recommended)
	assert.Nil(t, got.Methods.ReducedMethod)
	assert.Equal(t, 8_333.33, got.AmountPerPayment)
	assert.Equal(t, 100_000.0, got.TotalObligation)
	assert.Equal(t, 10_000.0, got.Methods.CurrentYearEstimate.RegularPayment)

	require.Len(t, got.DueDates, 12)
	assert.Equal(t, "2024-01-31", got.DueDates[0].Format(time.DateOnly))
	assert.Equal(t, "2024-02-29", got.DueDates[1].Format(time.DateOnly))
	assert.Equal(t, "2024-12-31", got.DueDates[11].Format(time.DateOnly))
}

func TestInstallmentsReducedMethodMonthly(t *testing.T) {
	two := 60_000.0
	got, err := PlanInstallments(InstallmentInput{
		PriorYearTax:        100_000,
		CurrentYearEstimate: 120_000,
		TwoYearsPriorTax:    &two,
		FiscalYearEnd:       "12-31",
		TaxYear:             2024,
	})
	require.NoError(t, err)

	reduced := got.Methods.ReducedMethod
	require.NotNil(t, reduced)
	assert.Equal(t, 5_000.0, reduced.Payments[0])
	assert.Equal(t, 5_000.0, reduced.Payments[1])
	assert.Equal(t, 9_000.0, reduced.Payments[2])
	assert.Equal(t, 100_000.0, reduced.Total)

	// Same total as the prior-year method; the smaller first payment wins.
	assert.Equal(t, MethodReduced, got.Methods.Recommended)
	assert.Equal(t, 5_000.0, got.Schedule[0].Amount)
	assert.Equal(t, 9_000.0, got.Schedule[11].Amount)
}

func TestInstallmentsQuarterly(t *testing.T) {
	two := 60_000.0
	got, err := PlanInstallments(InstallmentInput{
		PriorYearTax:          100_000,
		CurrentYearEstimate:   150_000,
		TwoYearsPriorTax:      &two,
		QualifiesForQuarterly: true,
		FiscalYearEnd:         "12-31",
		TaxYear:               2024,
	})
	require.NoError(t, err)

	assert.Equal(t, InstallmentQuarterly, got.Frequency)
	assert.Equal(t, 4, got.NumberOfPayments)
	var due []string
	for _, x := range got.DueDates {
		due = append(due, x.Format(time.DateOnly))
	}
	assert.Equal(t, []string{"2024-03-31", "2024-06-30", "2024-09-30", "2024-12-31"}, due)

	reduced := got.Methods.ReducedMethod
	require.NotNil(t, reduced)
	assert.Equal(t, 15_000.0, reduced.FirstPayment)
	assert.Equal(t, 28_333.33, reduced.RegularPayment)
	assert.Equal(t, MethodReduced, got.Methods.Recommended)
}

func TestInstallmentsRecommendCurrentYearWhenLowest(t *testing.T) {
	got, err := PlanInstallments(InstallmentInput{
		PriorYearTax:        80_000,
		CurrentYearEstimate: 40_000,
		FiscalYearEnd:       "06-30",
		TaxYear:             2024,
	})
	require.NoError(t, err)
	assert.Equal(t, MethodCurrentYear, got.Methods.Recommended)
	assert.Equal(t, 40_000.0, got.TotalObligation)
}

func TestInstallmentsRejectBadFiscalYearEnd(t *testing.T) {
	_, err := PlanInstallments(InstallmentInput{PriorYearTax: 10_000, FiscalYearEnd: "31-12", TaxYear: 2024})
	assert.Error(t, err)
}

func TestCalculateInstallmentInterest(t *testing.T) {
	got := CalculateInstallmentInterest(10_000, 4_000, 30, 0.10)
	assert.Equal(t, 6_000.0, got.Shortfall)
	if math.Abs(got.Interest-49.51) > 0.001 {
		t.Errorf("interest = %.4f, want 49.51", got.Interest)
	}

	assert.Equal(t, 0.0, CalculateInstallmentInterest(10_000, 12_000, 30, 0.10).Interest)
	assert.Equal(t, 0.0, CalculateInstallmentInterest(10_000, 0, 0, 0.10).Interest)
	assert.Equal(t, 0.0, CalculateInstallmentInterest(10_000, 0, -3, 0.10).Interest)
}
