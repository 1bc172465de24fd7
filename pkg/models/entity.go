package models

import (
	"strings"
	"time"

	"cantax/pkg/core/tax"
)

// EntityProfile is the tax profile row owned by the surrounding application.
type EntityProfile struct {
	ID             string    `json:"id"`
	LegalName      string    `json:"legal_name"`
	Province       string    `json:"province"`
	BusinessNumber *string   `json:"business_number,omitempty"`
	FiscalYearEnd  string    `json:"fiscal_year_end"` // MM-DD
	IsCCPC         *bool     `json:"is_ccpc,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Raw converts the row into engine input for ParseTaxProfile.
func (p EntityProfile) Raw() tax.RawTaxProfile {
	return tax.RawTaxProfile{
		LegalName:      p.LegalName,
		Province:       p.Province,
		FiscalYearEnd:  p.FiscalYearEnd,
		BusinessNumber: p.BusinessNumber,
		IsCCPC:         p.IsCCPC,
	}
}

// Filing kinds stored in FilingRecord.Kind.
const (
	FilingT2                 = "t2"
	FilingCO17               = "co17"
	FilingNoticeOfAssessment = "noa"
	FilingGST                = "gst"
	FilingQST                = "qst"
)

// KnownFilingKind reports whether kind is one of the Filing* constants.
func KnownFilingKind(kind string) bool {
	switch kind {
	case FilingT2, FilingCO17, FilingNoticeOfAssessment, FilingGST, FilingQST:
		return true
	}
	return false
}

// FilingRecord is one filing, indirect-tax period or notice row.
type FilingRecord struct {
	EntityID    string     `json:"entity_id"`
	TaxYear     int        `json:"tax_year"`
	Kind        string     `json:"kind"`
	PeriodLabel string     `json:"period_label,omitempty"` // gst/qst only
	Status      string     `json:"status"`
	DocumentRef string     `json:"document_ref,omitempty"`
	ContentHash string     `json:"content_hash,omitempty"`
	FiledAt     *time.Time `json:"filed_at,omitempty"`
}

func (f FilingRecord) artifact() *tax.FilingArtifact {
	return &tax.FilingArtifact{DocumentRef: f.DocumentRef, ContentHash: f.ContentHash}
}

// TaxYearState is everything the application holds for one entity-year.
type TaxYearState struct {
	Profile EntityProfile  `json:"profile"`
	TaxYear int            `json:"tax_year"`
	Filings []FilingRecord `json:"filings"`
}

// ToCloseGateInput maps stored rows onto the close-gate input. When a kind
// appears more than once the last row wins.
func (s TaxYearState) ToCloseGateInput() tax.CloseGateInput {
	in := tax.CloseGateInput{
		Province:        tax.Province(s.Profile.Province),
		TaxYear:         s.TaxYear,
		IndirectPeriods: []tax.IndirectPeriod{},
	}
	for _, f := range s.Filings {
		if f.TaxYear != s.TaxYear {
			continue
		}
		switch strings.ToLower(f.Kind) {
		case FilingT2:
			in.T2 = f.artifact()
		case FilingCO17:
			in.CO17 = f.artifact()
		case FilingNoticeOfAssessment:
			in.NoticeOfAssessment = f.artifact()
		case FilingGST, FilingQST:
			label := f.PeriodLabel
			if label == "" {
				label = strings.ToUpper(f.Kind)
			}
			in.IndirectPeriods = append(in.IndirectPeriods, tax.IndirectPeriod{Label: label, Status: f.Status})
		}
	}
	return in
}

// ToEvidenceTax collects the tax artifacts of the year for a manifest.
func (s TaxYearState) ToEvidenceTax() tax.TaxArtifacts {
	var out tax.TaxArtifacts
	for _, f := range s.Filings {
		if f.TaxYear != s.TaxYear || f.DocumentRef == "" {
			continue
		}
		ref := tax.ArtifactRef{Name: f.Kind, DocumentRef: f.DocumentRef, ContentHash: f.ContentHash}
		if f.PeriodLabel != "" {
			ref.Name = f.Kind + ":" + f.PeriodLabel
		}
		switch strings.ToLower(f.Kind) {
		case FilingT2:
			out.T2 = &ref
		case FilingCO17:
			out.CO17 = &ref
		case FilingNoticeOfAssessment:
			out.NoticeOfAssessment = &ref
		case FilingGST:
			out.GSTReturns = append(out.GSTReturns, ref)
		case FilingQST:
			out.QSTReturns = append(out.QSTReturns, ref)
		}
	}
	return out
}
