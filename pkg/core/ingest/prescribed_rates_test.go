package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ratePage = `<html><body>
<h2>Prescribed interest rates</h2>
<table class="nav"><tr><td>Home</td><td>Taxes</td></tr></table>
<table>
  <tr><th>Year</th><th>Q1</th><th>Q2</th><th>Q3</th><th>Q4</th></tr>
  <tr><td>2025</td><td>8%</td><td>8 %</td><td>-</td><td></td></tr>
  <tr><td>2024</td><td>10%</td><td>10%</td><td>9.5%</td><td>9%</td></tr>
</table>
</body></html>`

func TestParsePrescribedRates(t *testing.T) {
	s, err := ParsePrescribedRates(ratePage)
	require.NoError(t, err)
	require.Len(t, s.Rates, 6)

	// Sorted oldest first regardless of table order.
	assert.Equal(t, QuarterRate{Year: 2024, Quarter: 1, Rate: 0.10}, s.Rates[0])
	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, QuarterRate{Year: 2025, Quarter: 2, Rate: 0.08}, latest)

	tests := []struct {
		date time.Time
		want float64
	}{
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0.10},
		{time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC), 0.095},
		{time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), 0.09},
		{time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC), 0.08},
	}
	for _, tc := range tests {
		got, err := s.RateOn(tc.date)
		require.NoError(t, err, tc.date)
		assert.InDelta(t, tc.want, got, 1e-12, tc.date)
	}

	_, err = s.RateOn(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorContains(t, err, "2025 Q3")
}

func TestParsePrescribedRatesErrors(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"no table", `<p>nothing here</p>`, "no quarterly rate table"},
		{"bad year", `<table><tr><th>Year</th><th>Q1</th><th>Q2</th><th>Q3</th><th>Q4</th></tr><tr><td>twenty</td><td>1%</td></tr></table>`, "bad year"},
		{"bad rate", `<table><tr><th>Year</th><th>Q1</th><th>Q2</th><th>Q3</th><th>Q4</th></tr><tr><td>2024</td><td>ten</td></tr></table>`, "bad rate"},
		{"empty", `<table><tr><th>Year</th><th>Q1</th><th>Q2</th><th>Q3</th><th>Q4</th></tr><tr><td>2024</td><td>-</td></tr></table>`, "no published quarters"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePrescribedRates(tc.html)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestFetchPrescribedRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		if r.URL.Path != "/rates" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(ratePage))
	}))
	defer srv.Close()

	f := NewRateFetcher()
	s, err := f.FetchPrescribedRates(context.Background(), srv.URL+"/rates")
	require.NoError(t, err)
	assert.Len(t, s.Rates, 6)

	_, err = f.FetchPrescribedRates(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "status 404")
}
