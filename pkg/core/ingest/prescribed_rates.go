// Package ingest loads published reference data (CRA prescribed interest
// rates) from the HTML pages it is distributed in.
package ingest

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// =============================================================================
// PRESCRIBED INTEREST RATES
// =============================================================================

// QuarterRate is the prescribed rate charged on overdue taxes for one
// calendar quarter, as a decimal (0.10 = 10%).
type QuarterRate struct {
	Year    int     `json:"year"`
	Quarter int     `json:"quarter"` // 1-4
	Rate    float64 `json:"rate"`
}

// PrescribedRateSchedule is a chronologically sorted list of quarter rates.
type PrescribedRateSchedule struct {
	Rates []QuarterRate `json:"rates"`
}

func quarterOf(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// RateOn returns the rate in force for the quarter containing date.
func (s *PrescribedRateSchedule) RateOn(date time.Time) (float64, error) {
	year, q := date.Year(), quarterOf(date)
	for _, r := range s.Rates {
		if r.Year == year && r.Quarter == q {
			return r.Rate, nil
		}
	}
	return 0, fmt.Errorf("no prescribed rate published for %d Q%d", year, q)
}

// Latest returns the most recent published quarter.
func (s *PrescribedRateSchedule) Latest() (QuarterRate, bool) {
	if len(s.Rates) == 0 {
		return QuarterRate{}, false
	}
	return s.Rates[len(s.Rates)-1], true
}

// ParsePrescribedRates reads the first table whose header row names the
// quarters (Q1..Q4). Each following row holds a year then one percentage per
// quarter. Blank or dash cells are quarters not yet published.
//
// Example:
//
//	| Year | Q1  | Q2  | Q3  | Q4  |
//	| 2024 | 10% | 10% | 9%  | 9%  |
//	| 2025 | 8%  | 8%  | -   |     |
func ParsePrescribedRates(html string) (*PrescribedRateSchedule, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var table *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		header := strings.ToUpper(t.Find("tr").First().Text())
		if strings.Contains(header, "Q1") && strings.Contains(header, "Q4") {
			table = t
			return false
		}
		return true
	})
	if table == nil {
		return nil, fmt.Errorf("no quarterly rate table found")
	}

	schedule := &PrescribedRateSchedule{Rates: []QuarterRate{}}
	var parseErr error
	table.Find("tr").Slice(1, goquery.ToEnd).EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td, th")
		if cells.Length() == 0 {
			return true
		}
		yearText := strings.TrimSpace(cells.First().Text())
		year, err := strconv.Atoi(yearText)
		if err != nil {
			parseErr = fmt.Errorf("row %d: bad year %q", i+1, yearText)
			return false
		}
		cells.Slice(1, goquery.ToEnd).EachWithBreak(func(j int, cell *goquery.Selection) bool {
			if j >= 4 {
				return false
			}
			rate, ok, err := parsePercent(cell.Text())
			if err != nil {
				parseErr = fmt.Errorf("%d Q%d: %w", year, j+1, err)
				return false
			}
			if ok {
				schedule.Rates = append(schedule.Rates, QuarterRate{Year: year, Quarter: j + 1, Rate: rate})
			}
			return true
		})
		return parseErr == nil
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if len(schedule.Rates) == 0 {
		return nil, fmt.Errorf("rate table has no published quarters")
	}

	sort.SliceStable(schedule.Rates, func(i, j int) bool {
		a, b := schedule.Rates[i], schedule.Rates[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Quarter < b.Quarter
	})
	return schedule, nil
}

// parsePercent turns "10%" or "9.5 %" into 0.10 / 0.095. The bool is false
// for an unpublished (blank or dash) cell.
func parsePercent(text string) (float64, bool, error) {
	s := strings.TrimSpace(strings.ReplaceAll(text, "\u00a0", " "))
	if s == "" || s == "-" || s == "\u2013" || s == "\u2014" {
		return 0, false, nil
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("bad rate %q", text)
	}
	if v < 0 || v > 100 {
		return 0, false, fmt.Errorf("rate %q out of range", text)
	}
	return math.Round(v*100) / 10000, true, nil
}
