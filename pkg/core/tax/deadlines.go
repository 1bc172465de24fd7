package tax

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// CALENDAR ARITHMETIC
// =============================================================================

// ParseFiscalYearEnd splits an "MM-DD" fiscal-year-end. February 29 is
// accepted and clamped per year by FiscalYearEndDate.
func ParseFiscalYearEnd(fye string) (time.Month, int, error) {
	if len(fye) != 5 || fye[2] != '-' {
		return 0, 0, fmt.Errorf("fiscal year end %q must be MM-DD", fye)
	}
	m, errM := strconv.Atoi(fye[:2])
	d, errD := strconv.Atoi(fye[3:])
	if errM != nil || errD != nil || !isDigits(fye[:2]) || !isDigits(fye[3:]) {
		return 0, 0, fmt.Errorf("fiscal year end %q must be MM-DD", fye)
	}
	if m < 1 || m > 12 {
		return 0, 0, fmt.Errorf("fiscal year end %q has invalid month", fye)
	}
	if d < 1 || d > daysIn(time.Month(m), 2024) {
		return 0, 0, fmt.Errorf("fiscal year end %q has invalid day", fye)
	}
	return time.Month(m), d, nil
}

// FiscalYearEndDate resolves an "MM-DD" fiscal-year-end in taxYear.
func FiscalYearEndDate(fye string, taxYear int) (time.Time, error) {
	m, d, err := ParseFiscalYearEnd(fye)
	if err != nil {
		return time.Time{}, err
	}
	return date(taxYear, m, min(d, daysIn(m, taxYear))), nil
}

// AddMonthsClamped adds n months, clamping the day to the end of the target
// month instead of rolling over (Jan 31 + 1 month = Feb 28/29).
func AddMonthsClamped(t time.Time, n int) time.Time {
	total := int(t.Month()) - 1 + n
	year := t.Year() + floorDiv(total, 12)
	month := time.Month(floorMod(total, 12) + 1)
	day := min(t.Day(), daysIn(month, year))
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// TaxYearPeriod is the date range of one fiscal year.
type TaxYearPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// TaxYearRange returns the fiscal year ending on fye in taxYear. The start
// is the day after the previous year's fiscal-year-end.
func TaxYearRange(fye string, taxYear int) (TaxYearPeriod, error) {
	end, err := FiscalYearEndDate(fye, taxYear)
	if err != nil {
		return TaxYearPeriod{}, err
	}
	prev, err := FiscalYearEndDate(fye, taxYear-1)
	if err != nil {
		return TaxYearPeriod{}, err
	}
	return TaxYearPeriod{Start: prev.AddDate(0, 0, 1), End: end}, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func lastDayOfFebruary(year int) time.Time {
	return date(year, time.February, daysIn(time.February, year))
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// =============================================================================
// DEADLINES
// =============================================================================

// DeadlineType groups deadlines for display.
type DeadlineType string

const (
	DeadlineFiling  DeadlineType = "filing"
	DeadlinePayment DeadlineType = "payment"
	DeadlineSlip    DeadlineType = "slip"
	DeadlineSales   DeadlineType = "sales_tax"
)

// Deadline is a derived statutory due date. It is never stored; callers
// recompute it from the fiscal-year-end.
type Deadline struct {
	Label   string       `json:"label"`
	DueDate time.Time    `json:"due_date"`
	Type    DeadlineType `json:"type"`
	Rule    string       `json:"rule"`
}

// GSTFrequency is the GST/HST (and QST) reporting period. The empty value
// means the entity is not a registrant and has no sales-tax returns.
type GSTFrequency string

const (
	GSTAnnual    GSTFrequency = "annual"
	GSTQuarterly GSTFrequency = "quarterly"
	GSTMonthly   GSTFrequency = "monthly"
)

// SlipType is an information slip with a fixed calendar deadline.
type SlipType string

const (
	SlipT4    SlipType = "T4"
	SlipT4A   SlipType = "T4A"
	SlipT5    SlipType = "T5"
	SlipT5013 SlipType = "T5013"
)

// Balance-due extension threshold on prior-year taxable income.
const BalanceDueExtensionLimit = 500_000.0

// DeadlineOptions describes the entity whose deadlines are computed.
type DeadlineOptions struct {
	FiscalYearEnd          string       `json:"fiscal_year_end"`
	TaxYear                int          `json:"tax_year"`
	Province               Province     `json:"province"`
	IsCCPC                 bool         `json:"is_ccpc"`
	PriorYearTaxableIncome *float64     `json:"prior_year_taxable_income,omitempty"`
	GSTFrequency           GSTFrequency `json:"gst_frequency,omitempty"`
	Slips                  []SlipType   `json:"slips,omitempty"`
}

// qualifiesForExtendedBalanceDue: CCPC with prior-year taxable income ≤ $500,000.
func (o DeadlineOptions) qualifiesForExtendedBalanceDue() bool {
	return o.IsCCPC && o.PriorYearTaxableIncome != nil && *o.PriorYearTaxableIncome <= BalanceDueExtensionLimit
}

// CalculateDeadlines derives every filing and payment deadline for one
// fiscal year. The result is ordered by due date, then label.
func CalculateDeadlines(opts DeadlineOptions) ([]Deadline, error) {
	if !opts.Province.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvince, string(opts.Province))
	}
	fye, err := FiscalYearEndDate(opts.FiscalYearEnd, opts.TaxYear)
	if err != nil {
		return nil, err
	}

	filing := AddMonthsClamped(fye, 6)
	balanceMonths := 2
	if opts.qualifiesForExtendedBalanceDue() {
		balanceMonths = 3
	}
	balance := AddMonthsClamped(fye, balanceMonths)

	out := []Deadline{
		{Label: "T2 corporate income tax return", DueDate: filing, Type: DeadlineFiling, Rule: "ITA 150(1)(a)"},
		{Label: "T2 balance due", DueDate: balance, Type: DeadlinePayment, Rule: "ITA 157(1)(b)"},
	}
	quebec := opts.Province == QC
	if quebec {
		out = append(out,
			Deadline{Label: "CO-17 corporate income tax return", DueDate: filing, Type: DeadlineFiling, Rule: "TA 1000"},
			Deadline{Label: "CO-17 balance due", DueDate: balance, Type: DeadlinePayment, Rule: "TA 1027"},
		)
	}

	slipDue := lastDayOfFebruary(opts.TaxYear + 1)
	for _, s := range opts.Slips {
		switch s {
		case SlipT4, SlipT4A:
			out = append(out, Deadline{Label: string(s) + " information return", DueDate: slipDue, Type: DeadlineSlip, Rule: "ITR 205(1)"})
			if quebec && s == SlipT4 {
				out = append(out, Deadline{Label: "RL-1 slips", DueDate: slipDue, Type: DeadlineSlip, Rule: "TA 1086R82"})
			}
		case SlipT5:
			out = append(out, Deadline{Label: "T5 information return", DueDate: slipDue, Type: DeadlineSlip, Rule: "ITR 205(1)"})
			if quebec {
				out = append(out, Deadline{Label: "RL-3 slips", DueDate: slipDue, Type: DeadlineSlip, Rule: "TA 1086R82"})
			}
		case SlipT5013:
			out = append(out, Deadline{Label: "T5013 partnership information return", DueDate: date(opts.TaxYear+1, time.March, 31), Type: DeadlineSlip, Rule: "ITR 229(5)"})
		default:
			return nil, fmt.Errorf("unknown slip type %q", string(s))
		}
	}

	gst, err := salesTaxDeadlines(fye, opts.GSTFrequency, "GST/HST", "ETA 238(1)")
	if err != nil {
		return nil, err
	}
	out = append(out, gst...)
	if quebec {
		qst, err := salesTaxDeadlines(fye, opts.GSTFrequency, "QST", "AQST 468")
		if err != nil {
			return nil, err
		}
		out = append(out, qst...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

// salesTaxDeadlines: annual returns are due FYE + 3 months; quarterly and
// monthly period ends step back from the FYE and are due one month later.
func salesTaxDeadlines(fye time.Time, freq GSTFrequency, name, rule string) ([]Deadline, error) {
	var step, periods int
	switch freq {
	case "":
		return nil, nil
	case GSTAnnual:
		return []Deadline{{
			Label:   name + " annual return",
			DueDate: AddMonthsClamped(fye, 3),
			Type:    DeadlineSales,
			Rule:    rule,
		}}, nil
	case GSTQuarterly:
		step, periods = 3, 4
	case GSTMonthly:
		step, periods = 1, 12
	default:
		return nil, fmt.Errorf("unknown GST frequency %q", string(freq))
	}

	out := make([]Deadline, 0, periods)
	for k := periods - 1; k >= 0; k-- {
		end := AddMonthsClamped(fye, -step*k)
		out = append(out, Deadline{
			Label:   fmt.Sprintf("%s return (period ending %s)", name, end.Format("2006-01-02")),
			DueDate: AddMonthsClamped(end, 1),
			Type:    DeadlineSales,
			Rule:    rule,
		})
	}
	return out, nil
}

// =============================================================================
// URGENCY
// =============================================================================

// Urgency is the traffic-light classification of a deadline.
type Urgency string

const (
	UrgencyRed    Urgency = "red"
	UrgencyYellow Urgency = "yellow"
	UrgencyGreen  Urgency = "green"
)

// UrgencyWindowDays is the yellow window.
const UrgencyWindowDays = 30

func (u Urgency) rank() int {
	switch u {
	case UrgencyRed:
		return 0
	case UrgencyYellow:
		return 1
	}
	return 2
}

// DaysUntil counts calendar days from now's date to due's date.
func DaysUntil(due, now time.Time) int {
	d := date(due.Year(), due.Month(), due.Day())
	n := date(now.Year(), now.Month(), now.Day())
	return int(d.Sub(n).Hours() / 24)
}

// isSettled reports statuses that override urgency to green.
func isSettled(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	return s == "paid" || s == "filed"
}

// ComputeUrgency is green beyond 30 days, yellow within 1..30 days and red on
// or after the due date. A paid or filed status is always green.
func ComputeUrgency(due, now time.Time, status string) Urgency {
	if isSettled(status) {
		return UrgencyGreen
	}
	days := DaysUntil(due, now)
	switch {
	case days > UrgencyWindowDays:
		return UrgencyGreen
	case days > 0:
		return UrgencyYellow
	}
	return UrgencyRed
}

// DeadlineStatus is a deadline evaluated against a date and filing status.
type DeadlineStatus struct {
	Deadline
	Status        string  `json:"status,omitempty"`
	DaysRemaining int     `json:"days_remaining"`
	Urgency       Urgency `json:"urgency"`
}

// EvaluateDeadlines attaches days remaining and urgency. statuses is keyed
// by deadline label; missing labels have no status.
func EvaluateDeadlines(deadlines []Deadline, statuses map[string]string, now time.Time) []DeadlineStatus {
	out := make([]DeadlineStatus, len(deadlines))
	for i, d := range deadlines {
		status := statuses[d.Label]
		out[i] = DeadlineStatus{
			Deadline:      d,
			Status:        status,
			DaysRemaining: DaysUntil(d.DueDate, now),
			Urgency:       ComputeUrgency(d.DueDate, now, status),
		}
	}
	return out
}

// SortDeadlines orders red before yellow before green, then by fewest days
// remaining. The input slice is left untouched.
func SortDeadlines(items []DeadlineStatus) []DeadlineStatus {
	out := make([]DeadlineStatus, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Urgency.rank(), out[j].Urgency.rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].DaysRemaining < out[j].DaysRemaining
	})
	return out
}
