package tax

import (
	"fmt"
	"strings"
	"unicode"
)

// =============================================================================
// BUSINESS NUMBER / PROGRAM ACCOUNT / NEQ VALIDATION
// =============================================================================

// Identifier lengths after separators are stripped.
const (
	BNLength             = 9
	ProgramCodeLength    = 2
	ReferenceLength      = 4
	ProgramAccountLength = BNLength + ProgramCodeLength + ReferenceLength
	NEQLength            = 10
)

// ProgramCode is a CRA program identifier within a program account.
type ProgramCode struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

var programCodes = [...]ProgramCode{
	{Code: "RC", Description: "Corporation income tax"},
	{Code: "RP", Description: "Payroll deductions"},
	{Code: "RT", Description: "GST/HST"},
	{Code: "RM", Description: "Import/export"},
	{Code: "RR", Description: "Registered charity"},
	{Code: "RZ", Description: "Information returns"},
	{Code: "RD", Description: "Excise duty"},
	{Code: "RG", Description: "Air travellers security charge"},
}

// ProgramCodes returns the accepted program codes in a fresh slice.
func ProgramCodes() []ProgramCode {
	out := make([]ProgramCode, len(programCodes))
	copy(out, programCodes[:])
	return out
}

func isProgramCode(code string) bool {
	for _, pc := range programCodes {
		if pc.Code == code {
			return true
		}
	}
	return false
}

// ValidationResult is returned by every identifier validator. Normalized is
// the separator-free form; Formatted is the canonical display form and is
// only set when the input is valid.
type ValidationResult struct {
	Valid          bool     `json:"valid"`
	Errors         []string `json:"errors"`
	Input          string   `json:"input"`
	Normalized     string   `json:"normalized"`
	Formatted      string   `json:"formatted,omitempty"`
	BusinessNumber string   `json:"business_number,omitempty"`
	ProgramCode    string   `json:"program_code,omitempty"`
	Reference      string   `json:"reference,omitempty"`
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) finish() ValidationResult {
	r.Valid = len(r.Errors) == 0
	if !r.Valid {
		r.Formatted = ""
	}
	return *r
}

// NormalizeIdentifier drops whitespace and dashes and upper-cases letters.
func NormalizeIdentifier(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '-' {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// LuhnValid runs the mod-10 checksum over a string of ASCII digits. The last
// digit is the check digit.
func LuhnValid(digits string) bool {
	if !isDigits(digits) {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// checkBN appends BN errors to res. Length and character problems are
// reported before the checksum is attempted.
func checkBN(res *ValidationResult, bn string) {
	switch {
	case len(bn) != BNLength:
		res.fail("business number must be %d digits, got %d characters", BNLength, len(bn))
	case !isDigits(bn):
		res.fail("business number must contain only digits")
	case !LuhnValid(bn):
		res.fail("business number check digit is invalid")
	}
}

// ValidateBN validates a 9-digit Business Number.
func ValidateBN(input string) ValidationResult {
	n := NormalizeIdentifier(input)
	res := ValidationResult{Input: input, Normalized: n, Errors: []string{}}
	checkBN(&res, n)
	res.BusinessNumber = n
	res.Formatted = FormatBN(n)
	return res.finish()
}

// ValidateProgramAccount validates BN + program code + reference, e.g.
// "123456782RC0001". Each part is checked independently so that every
// problem is reported at once.
func ValidateProgramAccount(input string) ValidationResult {
	n := NormalizeIdentifier(input)
	res := ValidationResult{Input: input, Normalized: n, Errors: []string{}}
	if len(n) != ProgramAccountLength {
		res.fail("program account must be %d characters (BN, program code, reference), got %d", ProgramAccountLength, len(n))
		return res.finish()
	}

	bn, code, ref := n[:BNLength], n[BNLength:BNLength+ProgramCodeLength], n[BNLength+ProgramCodeLength:]
	res.BusinessNumber, res.ProgramCode, res.Reference = bn, code, ref

	checkBN(&res, bn)
	if !isProgramCode(code) {
		res.fail("unknown program code %q", code)
	}
	switch {
	case !isDigits(ref):
		res.fail("reference number must be %d digits", ReferenceLength)
	case ref == "0000":
		res.fail("reference number must be 0001 or greater")
	}

	res.Formatted = FormatProgramAccount(bn, code, ref)
	return res.finish()
}

// ValidateNEQ validates a Quebec enterprise number. Only the length and the
// digit content are checked.
func ValidateNEQ(input string) ValidationResult {
	n := NormalizeIdentifier(input)
	res := ValidationResult{Input: input, Normalized: n, Errors: []string{}}
	switch {
	case len(n) != NEQLength:
		res.fail("NEQ must be %d digits, got %d characters", NEQLength, len(n))
	case !isDigits(n):
		res.fail("NEQ must contain only digits")
	}
	res.Formatted = n
	return res.finish()
}

// FormatBN renders a 9-digit BN as "123 456 789". Other input is returned
// unchanged.
func FormatBN(bn string) string {
	if len(bn) != BNLength {
		return bn
	}
	return bn[0:3] + " " + bn[3:6] + " " + bn[6:9]
}

// FormatProgramAccount renders "123 456 789 RC 0001".
func FormatProgramAccount(bn, code, ref string) string {
	return FormatBN(bn) + " " + strings.ToUpper(code) + " " + ref
}
