package tax

import "strings"

// RawTaxProfile is an entity profile as received from the application,
// before any checks.
type RawTaxProfile struct {
	LegalName      string  `json:"legal_name"`
	Province       string  `json:"province"`
	FiscalYearEnd  string  `json:"fiscal_year_end"`
	BusinessNumber *string `json:"business_number,omitempty"`
	IsCCPC         *bool   `json:"is_ccpc,omitempty"`
}

// TaxProfile is a profile that passed ParseTaxProfile.
type TaxProfile struct {
	LegalName      string   `json:"legal_name"`
	Province       Province `json:"province"`
	FiscalYearEnd  string   `json:"fiscal_year_end"`
	BusinessNumber string   `json:"business_number,omitempty"`
	IsCCPC         bool     `json:"is_ccpc"`
}

// ParseResult is either a parsed value (OK) or the list of reasons it was
// rejected.
type ParseResult[T any] struct {
	OK     bool     `json:"ok"`
	Value  T        `json:"value"`
	Errors []string `json:"errors"`
}

// ParseTaxProfile checks every field explicitly. Province codes must match
// exactly and are never case-folded. A BN is optional but must be valid
// when given.
func ParseTaxProfile(raw RawTaxProfile) ParseResult[TaxProfile] {
	var errs []string
	var out TaxProfile

	out.LegalName = strings.TrimSpace(raw.LegalName)

	if p, err := ParseProvince(raw.Province); err != nil {
		errs = append(errs, "province must be one of ON, QC, BC, AB, SK, MB, NB, NS, PE, NL, YT, NT, NU")
	} else {
		out.Province = p
	}

	if _, _, err := ParseFiscalYearEnd(raw.FiscalYearEnd); err != nil {
		errs = append(errs, err.Error())
	} else {
		out.FiscalYearEnd = raw.FiscalYearEnd
	}

	if raw.BusinessNumber != nil {
		v := ValidateBN(*raw.BusinessNumber)
		if v.Valid {
			out.BusinessNumber = v.Normalized
		} else {
			errs = append(errs, v.Errors...)
		}
	}

	out.IsCCPC = raw.IsCCPC == nil || *raw.IsCCPC

	if len(errs) > 0 {
		return ParseResult[TaxProfile]{OK: false, Errors: errs}
	}
	return ParseResult[TaxProfile]{OK: true, Value: out, Errors: []string{}}
}
