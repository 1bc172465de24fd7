package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// UserAgent identifies this tool to the sites it downloads from.
const UserAgent = "cantax/1.0 (compliance@example.com)"

// RateFetcher downloads a prescribed-rate page over HTTP.
type RateFetcher struct {
	httpClient *http.Client
}

func NewRateFetcher() *RateFetcher {
	return &RateFetcher{httpClient: &http.Client{Timeout: 30 * time.Second}}
}

// FetchPrescribedRates downloads url and parses its rate table.
func (f *RateFetcher) FetchPrescribedRates(ctx context.Context, url string) (*PrescribedRateSchedule, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return ParsePrescribedRates(string(body))
}

// LoadPrescribedRates parses a rate page saved on disk.
func LoadPrescribedRates(path string) (*PrescribedRateSchedule, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParsePrescribedRates(string(body))
}
