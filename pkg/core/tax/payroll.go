package tax

import "math"

// =============================================================================
// PAYROLL DEDUCTIONS
// =============================================================================

// PayrollDeductions are the statutory CPP/CPP2/EI amounts on one salary.
type PayrollDeductions struct {
	Salary        float64 `json:"salary"`
	EmployeeCPP   float64 `json:"employee_cpp"`
	EmployeeCPP2  float64 `json:"employee_cpp2"`
	EmployeeEI    float64 `json:"employee_ei"`
	EmployerCPP   float64 `json:"employer_cpp"`
	EmployerCPP2  float64 `json:"employer_cpp2"`
	EmployerEI    float64 `json:"employer_ei"`
	TotalEmployee float64 `json:"total_employee"`
	TotalEmployer float64 `json:"total_employer"`
}

type payrollRaw struct {
	cpp, cpp2, ei float64
}

func (r payrollRaw) employee() float64   { return r.cpp + r.cpp2 + r.ei }
func (r payrollRaw) employerEI() float64 { return r.ei * EIEmployerMultiplier }
func (r payrollRaw) employer() float64   { return r.cpp + r.cpp2 + r.employerEI() }

// payroll computes both CPP tiers and EI.
//
// FORMULA:
//
//	CPP  = max(0, min(salary, YMPE) − 3,500) × 5.95%
//	CPP2 = max(0, min(salary, YAMPE) − YMPE) × 4%
//	EI   = min(salary, MIE) × 1.66%   (employer pays 1.4×)
func payroll(salary float64) payrollRaw {
	s := math.Max(0, salary)
	return payrollRaw{
		cpp:  math.Max(0, math.Min(s, YMPE)-CPPBasicExemption) * CPPRate,
		cpp2: math.Max(0, math.Min(s, YAMPE)-YMPE) * CPP2Rate,
		ei:   math.Min(s, EIMaxInsurable) * EIEmployeeRate,
	}
}

// CalculatePayrollDeductions returns employee and employer contributions.
func CalculatePayrollDeductions(salary float64) PayrollDeductions {
	r := payroll(salary)
	return PayrollDeductions{
		Salary:        Round2(salary),
		EmployeeCPP:   Round2(r.cpp),
		EmployeeCPP2:  Round2(r.cpp2),
		EmployeeEI:    Round2(r.ei),
		EmployerCPP:   Round2(r.cpp),
		EmployerCPP2:  Round2(r.cpp2),
		EmployerEI:    Round2(r.employerEI()),
		TotalEmployee: Round2(r.employee()),
		TotalEmployer: Round2(r.employer()),
	}
}

// =============================================================================
// REMITTER TYPE
// =============================================================================

// RemitterType is the source-deduction remittance frequency class.
type RemitterType string

const (
	RemitterQuarterly    RemitterType = "quarterly"
	RemitterRegular      RemitterType = "regular"
	RemitterAccelerated1 RemitterType = "accelerated_threshold_1"
	RemitterAccelerated2 RemitterType = "accelerated_threshold_2"
)

// AMWA thresholds.
const (
	AMWAQuarterlyMax    = 3_000.0
	AMWARegularMax      = 25_000.0
	AMWAAccelerated1Max = 100_000.0
)

// RemitterSchedule describes how often source deductions are remitted.
type RemitterSchedule struct {
	Type               RemitterType `json:"type"`
	AMWA               float64      `json:"amwa"`
	RemittancesPerYear int          `json:"remittances_per_year"`
}

// DeterminePayrollRemitterType classifies an employer by its average monthly
// withholding amount from two years prior.
func DeterminePayrollRemitterType(amwa float64) RemitterSchedule {
	switch {
	case amwa < AMWAQuarterlyMax:
		return RemitterSchedule{Type: RemitterQuarterly, AMWA: Round2(amwa), RemittancesPerYear: 4}
	case amwa < AMWARegularMax:
		return RemitterSchedule{Type: RemitterRegular, AMWA: Round2(amwa), RemittancesPerYear: 12}
	case amwa < AMWAAccelerated1Max:
		return RemitterSchedule{Type: RemitterAccelerated1, AMWA: Round2(amwa), RemittancesPerYear: 24}
	}
	return RemitterSchedule{Type: RemitterAccelerated2, AMWA: Round2(amwa), RemittancesPerYear: 48}
}
