package tax

import (
	"fmt"
	"strings"
)

// =============================================================================
// TAX-YEAR CLOSE GATE
// =============================================================================

// FilingArtifact is a filed return or notice held by the document vault.
// It only counts as present when both the document and its hash are set.
type FilingArtifact struct {
	DocumentRef string `json:"document_ref"`
	ContentHash string `json:"content_hash"`
}

func (a *FilingArtifact) present() bool {
	return a != nil && hasDocument(a.DocumentRef, a.ContentHash)
}

// hasDocument is the presence rule shared by filings and evidence refs.
func hasDocument(ref, hash string) bool {
	return strings.TrimSpace(ref) != "" && strings.TrimSpace(hash) != ""
}

// IndirectPeriod is one GST/HST or QST reporting period and its status.
type IndirectPeriod struct {
	Label  string `json:"label"`
	Status string `json:"status"`
}

// Statuses that settle an indirect-tax period.
const (
	PeriodFiled  = "filed"
	PeriodPaid   = "paid"
	PeriodClosed = "closed"
)

func periodSettled(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case PeriodFiled, PeriodPaid, PeriodClosed:
		return true
	}
	return false
}

// CloseGateInput is the tax-year state gathered by the caller.
type CloseGateInput struct {
	Province           Province         `json:"province"`
	TaxYear            int              `json:"tax_year"`
	T2                 *FilingArtifact  `json:"t2,omitempty"`
	CO17               *FilingArtifact  `json:"co17,omitempty"`
	IndirectPeriods    []IndirectPeriod `json:"indirect_periods"`
	NoticeOfAssessment *FilingArtifact  `json:"notice_of_assessment,omitempty"`
}

// CloseGateArtifacts shows which artifacts were found.
type CloseGateArtifacts struct {
	T2Filed                 bool `json:"t2_filed"`
	CO17Filed               bool `json:"co17_filed"`
	CO17Required            bool `json:"co17_required"`
	AllIndirectPeriodsFiled bool `json:"all_indirect_periods_filed"`
	NOAUploaded             bool `json:"noa_uploaded"`
}

// CloseGateResult is the close/no-close decision.
type CloseGateResult struct {
	CanClose  bool               `json:"can_close"`
	Blockers  []string           `json:"blockers"`
	Warnings  []string           `json:"warnings"`
	Artifacts CloseGateArtifacts `json:"artifacts"`
}

// EvaluateTaxYearCloseGate blocks close until the T2 (and CO-17 for Quebec)
// is on file and every indirect-tax period is settled. A missing Notice of
// Assessment only warns.
func EvaluateTaxYearCloseGate(in CloseGateInput) CloseGateResult {
	res := CloseGateResult{Blockers: []string{}, Warnings: []string{}}

	if !in.Province.Valid() {
		res.Blockers = append(res.Blockers, fmt.Sprintf("unknown province %q", string(in.Province)))
	}

	res.Artifacts.T2Filed = in.T2.present()
	if !res.Artifacts.T2Filed {
		res.Blockers = append(res.Blockers, "T2 return has not been filed with a document and content hash")
	}

	res.Artifacts.CO17Required = in.Province == QC
	res.Artifacts.CO17Filed = in.CO17.present()
	if res.Artifacts.CO17Required && !res.Artifacts.CO17Filed {
		res.Blockers = append(res.Blockers, "CO-17 return has not been filed with a document and content hash")
	}

	res.Artifacts.AllIndirectPeriodsFiled = true
	for _, p := range in.IndirectPeriods {
		if !periodSettled(p.Status) {
			res.Artifacts.AllIndirectPeriodsFiled = false
			res.Blockers = append(res.Blockers, fmt.Sprintf("indirect tax period %q is %q", p.Label, p.Status))
		}
	}

	res.Artifacts.NOAUploaded = in.NoticeOfAssessment.present()
	if !res.Artifacts.NOAUploaded {
		res.Warnings = append(res.Warnings, "notice of assessment has not been uploaded")
	}

	res.CanClose = len(res.Blockers) == 0
	return res
}

// =============================================================================
// SEGREGATION OF DUTIES & GOVERNANCE LINKS
// =============================================================================

// Roles recognized by EnforceSoD.
const (
	RolePreparer = "preparer"
	RoleApprover = "approver"
	RoleAdmin    = "admin"
)

// GateCheck is a permit/deny decision with its reasons.
type GateCheck struct {
	Allowed bool     `json:"allowed"`
	Reasons []string `json:"reasons"`
}

func allow() GateCheck { return GateCheck{Allowed: true, Reasons: []string{}} }

func deny(format string, args ...any) GateCheck {
	return GateCheck{Allowed: false, Reasons: []string{fmt.Sprintf(format, args...)}}
}

// EnforceSoD stops an approver from approving their own work. Preparers and
// admins always pass; unknown roles are rejected.
func EnforceSoD(actor, role, preparer string) GateCheck {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RolePreparer, RoleAdmin:
		return allow()
	case RoleApprover:
		if actor != "" && actor == preparer {
			return deny("approver %q prepared this item and cannot approve it", actor)
		}
		return allow()
	}
	return deny("unknown role %q", role)
}

// DividendFiling is a dividend slip about to be filed.
type DividendFiling struct {
	SlipType           SlipType `json:"slip_type"`
	Amount             float64  `json:"amount"`
	GovernanceRecordID string   `json:"governance_record_id"`
}

// ValidateDividendGovernanceLink requires a declaring resolution before a
// dividend slip is filed.
func ValidateDividendGovernanceLink(f DividendFiling) GateCheck {
	if strings.TrimSpace(f.GovernanceRecordID) == "" {
		return deny("%s dividend slip of %.2f has no linked dividend resolution", orDefault(string(f.SlipType), string(SlipT5)), Round2(f.Amount))
	}
	return allow()
}

// DefaultBorrowingThreshold applies when no threshold is configured.
const DefaultBorrowingThreshold = 100_000.0

// Borrowing is a loan or credit facility the entity intends to draw.
type Borrowing struct {
	Amount             float64 `json:"amount"`
	Lender             string  `json:"lender,omitempty"`
	GovernanceRecordID string  `json:"governance_record_id"`
}

// ValidateBorrowingGovernanceLink requires a board resolution for borrowing
// above threshold. A threshold of zero means DefaultBorrowingThreshold.
func ValidateBorrowingGovernanceLink(b Borrowing, threshold float64) GateCheck {
	if threshold <= 0 {
		threshold = DefaultBorrowingThreshold
	}
	if b.Amount > threshold && strings.TrimSpace(b.GovernanceRecordID) == "" {
		return deny("borrowing of %.2f exceeds %.2f and has no linked board resolution", Round2(b.Amount), Round2(threshold))
	}
	return allow()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
