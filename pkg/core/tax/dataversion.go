package tax

import (
	_ "embed"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v2"
)

// =============================================================================
// DATA VERSION REGISTRY
// =============================================================================

//go:embed dataversions.yaml
var dataVersionsYAML []byte

// DataVersion records where one module's rule data came from and when it was
// last checked against the authoritative source.
type DataVersion struct {
	Module        string `yaml:"module" json:"module"`
	Version       string `yaml:"version" json:"version"`
	TaxYear       int    `yaml:"tax_year" json:"tax_year"`
	EffectiveDate string `yaml:"effective_date" json:"effective_date"`
	LastVerified  string `yaml:"last_verified" json:"last_verified"`
	Source        string `yaml:"source" json:"source"`

	lastVerified time.Time
}

type dataVersionFile struct {
	Modules []DataVersion `yaml:"modules"`
}

// dataVersions is built once from the embedded file and never mutated.
var dataVersions = mustLoadDataVersions(dataVersionsYAML)

func mustLoadDataVersions(raw []byte) []DataVersion {
	versions, err := parseDataVersions(raw)
	if err != nil {
		panic(err)
	}
	return versions
}

func parseDataVersions(raw []byte) ([]DataVersion, error) {
	var f dataVersionFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse data versions: %w", err)
	}
	seen := make(map[string]bool, len(f.Modules))
	for i := range f.Modules {
		v := &f.Modules[i]
		if v.Module == "" {
			return nil, fmt.Errorf("data version %d has no module name", i)
		}
		if seen[v.Module] {
			return nil, fmt.Errorf("data version for %q declared twice", v.Module)
		}
		seen[v.Module] = true
		if _, err := time.Parse(time.DateOnly, v.EffectiveDate); err != nil {
			return nil, fmt.Errorf("data version %q: bad effective_date: %w", v.Module, err)
		}
		t, err := time.Parse(time.DateOnly, v.LastVerified)
		if err != nil {
			return nil, fmt.Errorf("data version %q: bad last_verified: %w", v.Module, err)
		}
		v.lastVerified = t
	}
	sort.Slice(f.Modules, func(i, j int) bool { return f.Modules[i].Module < f.Modules[j].Module })
	return f.Modules, nil
}

// DataVersions returns every registered module sorted by name.
func DataVersions() []DataVersion {
	out := make([]DataVersion, len(dataVersions))
	copy(out, dataVersions)
	return out
}

// GetDataVersion looks up one module.
func GetDataVersion(module string) (DataVersion, bool) {
	for _, v := range dataVersions {
		if v.Module == module {
			return v, true
		}
	}
	return DataVersion{}, false
}

// StaleModule is a module whose data has not been verified recently enough.
type StaleModule struct {
	Module       string `json:"module"`
	LastVerified string `json:"last_verified"`
	AgeDays      int    `json:"age_days"`
}

// FreshnessReport is the output of CheckDataFreshness.
type FreshnessReport struct {
	CheckedAt  time.Time     `json:"checked_at"`
	MaxAgeDays int           `json:"max_age_days"`
	Fresh      bool          `json:"fresh"`
	Stale      []StaleModule `json:"stale"`
}

// CheckDataFreshness reports modules last verified more than maxAgeDays
// before now.
func CheckDataFreshness(now time.Time, maxAgeDays int) FreshnessReport {
	rep := FreshnessReport{CheckedAt: now, MaxAgeDays: maxAgeDays, Stale: []StaleModule{}}
	for _, v := range dataVersions {
		age := DaysUntil(now, v.lastVerified)
		if age > maxAgeDays {
			rep.Stale = append(rep.Stale, StaleModule{Module: v.Module, LastVerified: v.LastVerified, AgeDays: age})
		}
	}
	rep.Fresh = len(rep.Stale) == 0
	return rep
}
