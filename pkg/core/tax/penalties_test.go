package tax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateT2LateFilingPenalty(t *testing.T) {
	tests := []struct {
		name       string
		owing      float64
		months     int
		repeat     bool
		want       float64
		monthsUsed int
	}{
		{"three months first offence", 10_000, 3, false, 800, 3},
		{"first offence caps at 12 months", 10_000, 20, false, 1_700, 12},
		{"repeat offence", 10_000, 3, true, 1_600, 3},
		{"repeat offence caps at 20 months", 10_000, 25, true, 5_000, 20},
		{"nothing owing", 0, 5, false, 0, 0},
		{"not late", 10_000, 0, false, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateT2LateFilingPenalty(tc.owing, tc.months, tc.repeat)
			assert.InDelta(t, tc.want, got.Penalty, 0.001)
			assert.Equal(t, tc.monthsUsed, got.MonthsUsed)
		})
	}
}

func TestCalculateGSTLateFilingPenalty(t *testing.T) {
	assert.InDelta(t, 175, CalculateGSTLateFilingPenalty(10_000, 3, false).Penalty, 0.001)
	assert.InDelta(t, 350, CalculateGSTLateFilingPenalty(10_000, 3, true).Penalty, 0.001)
	assert.InDelta(t, 400, CalculateGSTLateFilingPenalty(10_000, 20, false).Penalty, 0.001)
	assert.Equal(t, 0.0, CalculateGSTLateFilingPenalty(10_000, 0, true).Penalty)
}

func TestCalculateInformationReturnPenalty(t *testing.T) {
	tests := []struct {
		name  string
		slips int
		days  int
		want  float64
	}{
		{"per slip per day", 5, 10, 1_250},
		{"minimum applies", 1, 2, 100},
		{"per-slip cap then total cap", 10, 200, 7_500},
		{"per-slip cap", 2, 150, 5_000},
		{"on time", 10, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CalculateInformationReturnPenalty(tc.slips, tc.days).Penalty)
		})
	}
}
