package tax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func filed(ref string) *FilingArtifact {
	return &FilingArtifact{DocumentRef: ref, ContentHash: "sha256:" + ref}
}

func TestCloseGateBlocksWithoutT2(t *testing.T) {
	got := EvaluateTaxYearCloseGate(CloseGateInput{Province: ON, TaxYear: 2024})
	assert.False(t, got.CanClose)
	assert.False(t, got.Artifacts.T2Filed)
	assert.Len(t, got.Blockers, 1)

	noHash := EvaluateTaxYearCloseGate(CloseGateInput{Province: ON, TaxYear: 2024, T2: &FilingArtifact{DocumentRef: "doc-1"}})
	assert.False(t, noHash.CanClose, "a T2 without a content hash is not filed")
}

func TestCloseGateQuebecRequiresCO17(t *testing.T) {
	got := EvaluateTaxYearCloseGate(CloseGateInput{Province: QC, TaxYear: 2024, T2: filed("t2")})
	assert.False(t, got.CanClose)
	assert.True(t, got.Artifacts.T2Filed)
	assert.True(t, got.Artifacts.CO17Required)
	assert.False(t, got.Artifacts.CO17Filed)

	ok := EvaluateTaxYearCloseGate(CloseGateInput{Province: QC, TaxYear: 2024, T2: filed("t2"), CO17: filed("co17")})
	assert.True(t, ok.CanClose)
}

func TestCloseGateOntarioNeverRequiresCO17(t *testing.T) {
	got := EvaluateTaxYearCloseGate(CloseGateInput{Province: ON, TaxYear: 2024, T2: filed("t2"), NoticeOfAssessment: filed("noa")})
	assert.True(t, got.CanClose)
	assert.False(t, got.Artifacts.CO17Required)
	assert.Empty(t, got.Blockers)
	assert.Empty(t, got.Warnings)
}

func TestCloseGateIndirectPeriods(t *testing.T) {
	in := CloseGateInput{
		Province: ON,
		TaxYear:  2024,
		T2:       filed("t2"),
		IndirectPeriods: []IndirectPeriod{
			{Label: "2024-Q1", Status: "filed"},
			{Label: "2024-Q2", Status: "PAID"},
			{Label: "2024-Q3", Status: "closed"},
			{Label: "2024-Q4", Status: "draft"},
		},
	}
	got := EvaluateTaxYearCloseGate(in)
	assert.False(t, got.CanClose)
	assert.False(t, got.Artifacts.AllIndirectPeriodsFiled)
	assert.Len(t, got.Blockers, 1)
	assert.Contains(t, got.Blockers[0], "2024-Q4")
}

func TestCloseGateMissingNOAOnlyWarns(t *testing.T) {
	got := EvaluateTaxYearCloseGate(CloseGateInput{Province: BC, TaxYear: 2024, T2: filed("t2")})
	assert.True(t, got.CanClose)
	assert.False(t, got.Artifacts.NOAUploaded)
	assert.Len(t, got.Warnings, 1)
}

func TestEnforceSoD(t *testing.T) {
	tests := []struct {
		name     string
		actor    string
		role     string
		preparer string
		allowed  bool
	}{
		{"approver approving own work", "alice", "approver", "alice", false},
		{"approver approving other work", "bob", "approver", "alice", true},
		{"preparer always passes", "alice", "preparer", "alice", true},
		{"admin always passes", "alice", "admin", "alice", true},
		{"unknown role", "alice", "auditor", "bob", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := EnforceSoD(tc.actor, tc.role, tc.preparer)
			assert.Equal(t, tc.allowed, got.Allowed)
			if !tc.allowed {
				assert.NotEmpty(t, got.Reasons)
			}
		})
	}
}

func TestGovernanceLinks(t *testing.T) {
	assert.False(t, ValidateDividendGovernanceLink(DividendFiling{SlipType: SlipT5, Amount: 5_000}).Allowed)
	assert.True(t, ValidateDividendGovernanceLink(DividendFiling{SlipType: SlipT5, Amount: 5_000, GovernanceRecordID: "res-1"}).Allowed)

	assert.True(t, ValidateBorrowingGovernanceLink(Borrowing{Amount: 100_000}, 0).Allowed, "at the threshold")
	assert.False(t, ValidateBorrowingGovernanceLink(Borrowing{Amount: 100_000.01}, 0).Allowed)
	assert.True(t, ValidateBorrowingGovernanceLink(Borrowing{Amount: 250_000, GovernanceRecordID: "res-2"}, 0).Allowed)
	assert.False(t, ValidateBorrowingGovernanceLink(Borrowing{Amount: 60_000}, 50_000).Allowed)
}
