package tax

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// YEAR-END EVIDENCE PACK
// =============================================================================

// ArtifactRef points at one document in the vault.
type ArtifactRef struct {
	Name        string `json:"name"`
	DocumentRef string `json:"document_ref"`
	ContentHash string `json:"content_hash"`
}

func (a *ArtifactRef) present() bool {
	return a != nil && hasDocument(a.DocumentRef, a.ContentHash)
}

func anyPresent(refs []ArtifactRef) bool {
	for i := range refs {
		if refs[i].present() {
			return true
		}
	}
	return false
}

// FinancialArtifacts are the year-end financial records.
type FinancialArtifacts struct {
	TrialBalance        *ArtifactRef `json:"trial_balance,omitempty"`
	FinancialStatements *ArtifactRef `json:"financial_statements,omitempty"`
	GeneralLedger       *ArtifactRef `json:"general_ledger,omitempty"`
}

// GovernanceArtifacts are the minute-book records.
type GovernanceArtifacts struct {
	AnnualResolution     *ArtifactRef  `json:"annual_resolution,omitempty"`
	DividendResolutions  []ArtifactRef `json:"dividend_resolutions,omitempty"`
	BorrowingResolutions []ArtifactRef `json:"borrowing_resolutions,omitempty"`
}

// TaxArtifacts are filed returns, slips and notices.
type TaxArtifacts struct {
	T2                 *ArtifactRef  `json:"t2,omitempty"`
	CO17               *ArtifactRef  `json:"co17,omitempty"`
	GSTReturns         []ArtifactRef `json:"gst_returns,omitempty"`
	QSTReturns         []ArtifactRef `json:"qst_returns,omitempty"`
	Slips              []ArtifactRef `json:"slips,omitempty"`
	NoticeOfAssessment *ArtifactRef  `json:"notice_of_assessment,omitempty"`
}

// EvidenceInput is everything the caller collected for one entity-year.
// GeneratedAt is supplied by the caller so the build stays deterministic.
type EvidenceInput struct {
	EntityID    string              `json:"entity_id"`
	EntityName  string              `json:"entity_name"`
	Province    Province            `json:"province"`
	TaxYear     int                 `json:"tax_year"`
	Financial   FinancialArtifacts  `json:"financial"`
	Governance  GovernanceArtifacts `json:"governance"`
	Tax         TaxArtifacts        `json:"tax"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// Completeness is present/required over the required artifact list.
type Completeness struct {
	Present  int      `json:"present"`
	Required int      `json:"required"`
	Score    float64  `json:"score"`
	Missing  []string `json:"missing"`
}

// YearEndManifest is the hashed year-end evidence pack.
type YearEndManifest struct {
	ID           string              `json:"id"`
	EntityID     string              `json:"entity_id"`
	EntityName   string              `json:"entity_name"`
	Province     Province            `json:"province"`
	TaxYear      int                 `json:"tax_year"`
	Financial    FinancialArtifacts  `json:"financial"`
	Governance   GovernanceArtifacts `json:"governance"`
	Tax          TaxArtifacts        `json:"tax"`
	Completeness Completeness        `json:"completeness"`
	ManifestHash string              `json:"manifest_hash"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

// manifestBody is the hashed part of a manifest: everything except the ID,
// the hash itself and the generation time.
type manifestBody struct {
	EntityID     string              `json:"entity_id"`
	EntityName   string              `json:"entity_name"`
	Province     Province            `json:"province"`
	TaxYear      int                 `json:"tax_year"`
	Financial    FinancialArtifacts  `json:"financial"`
	Governance   GovernanceArtifacts `json:"governance"`
	Tax          TaxArtifacts        `json:"tax"`
	Completeness Completeness        `json:"completeness"`
}

// manifestNamespace scopes manifest IDs derived from their hash.
var manifestNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("cantax:year-end-manifest"))

type requirement struct {
	name string
	ok   bool
}

func requirements(in EvidenceInput) []requirement {
	reqs := []requirement{
		{"trial_balance", in.Financial.TrialBalance.present()},
		{"financial_statements", in.Financial.FinancialStatements.present()},
		{"annual_resolution", in.Governance.AnnualResolution.present()},
		{"t2", in.Tax.T2.present()},
		{"gst_returns", anyPresent(in.Tax.GSTReturns)},
	}
	if in.Province == QC {
		reqs = append(reqs,
			requirement{"co17", in.Tax.CO17.present()},
			requirement{"qst_returns", anyPresent(in.Tax.QSTReturns)},
		)
	}
	return reqs
}

// ScoreCompleteness counts present required artifacts. CO-17 and QST
// returns are required only for Quebec entities.
func ScoreCompleteness(in EvidenceInput) Completeness {
	reqs := requirements(in)
	c := Completeness{Required: len(reqs), Missing: []string{}}
	for _, r := range reqs {
		if r.ok {
			c.Present++
		} else {
			c.Missing = append(c.Missing, r.name)
		}
	}
	c.Score = roundRate(float64(c.Present) / float64(c.Required))
	return c
}

// HashManifest returns the hex SHA-256 of the manifest's hashed body.
func HashManifest(m YearEndManifest) (string, error) {
	body := manifestBody{
		EntityID:     m.EntityID,
		EntityName:   m.EntityName,
		Province:     m.Province,
		TaxYear:      m.TaxYear,
		Financial:    m.Financial,
		Governance:   m.Governance,
		Tax:          m.Tax,
		Completeness: m.Completeness,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to serialize manifest: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// BuildEvidenceManifest assembles and hashes the year-end evidence pack.
// The ID is derived from the hash, so identical evidence yields the same ID.
func BuildEvidenceManifest(in EvidenceInput) (YearEndManifest, error) {
	if !in.Province.Valid() {
		return YearEndManifest{}, fmt.Errorf("%w: %q", ErrUnknownProvince, string(in.Province))
	}
	m := YearEndManifest{
		EntityID:     in.EntityID,
		EntityName:   in.EntityName,
		Province:     in.Province,
		TaxYear:      in.TaxYear,
		Financial:    in.Financial,
		Governance:   in.Governance,
		Tax:          in.Tax,
		Completeness: ScoreCompleteness(in),
		GeneratedAt:  in.GeneratedAt.UTC(),
	}
	hash, err := HashManifest(m)
	if err != nil {
		return YearEndManifest{}, err
	}
	m.ManifestHash = hash
	m.ID = uuid.NewSHA1(manifestNamespace, []byte(hash)).String()
	return m, nil
}

// VerifyManifest recomputes the hash of a stored manifest.
func VerifyManifest(m YearEndManifest) (bool, error) {
	hash, err := HashManifest(m)
	if err != nil {
		return false, err
	}
	return hash == m.ManifestHash, nil
}
