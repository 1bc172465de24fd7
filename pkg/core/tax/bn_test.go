package tax

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLuhnValid(t *testing.T) {
	assert.True(t, LuhnValid("123456782"))
	assert.False(t, LuhnValid("123456789"))
	assert.False(t, LuhnValid("12345678a"))
	assert.False(t, LuhnValid(""))
}

func TestValidateBN(t *testing.T) {
	tests := []struct {
		input   string
		valid   bool
		errPart string
	}{
		{"123456782", true, ""},
		{"123 456 782", true, ""},
		{"123-456-782", true, ""},
		{"123456789", false, "check digit"},
		{"12345678", false, "9 digits"},
		{"1234567890", false, "9 digits"},
		{"12345678X", false, "only digits"},
		{"", false, "9 digits"},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got := ValidateBN(tc.input)
			assert.Equal(t, tc.valid, got.Valid)
			if tc.valid {
				assert.Empty(t, got.Errors)
				assert.Equal(t, "123 456 782", got.Formatted)
				return
			}
			require.Len(t, got.Errors, 1)
			assert.Contains(t, got.Errors[0], tc.errPart)
			assert.Empty(t, got.Formatted)
		})
	}
}

func TestBNFormatRoundTrip(t *testing.T) {
	for _, bn := range []string{"123456782", "872100003", "987654324", "456789122"} {
		first := ValidateBN(bn)
		require.True(t, first.Valid, bn)
		again := ValidateBN(first.Formatted)
		require.True(t, again.Valid, first.Formatted)
		assert.Equal(t, bn, again.Normalized)
	}
}

func TestValidateProgramAccount(t *testing.T) {
	for _, in := range []string{"123456782RC0001", "123456782rc0001", "123 456 782 RC 0001", "123-456-782-rt-0002"} {
		got := ValidateProgramAccount(in)
		assert.True(t, got.Valid, "%q: %v", in, got.Errors)
		assert.Equal(t, "123456782", got.BusinessNumber)
	}

	ok := ValidateProgramAccount("123456782rc0001")
	assert.Equal(t, "123 456 782 RC 0001", ok.Formatted)
	assert.Equal(t, "RC", ok.ProgramCode)
	assert.Equal(t, "0001", ok.Reference)
}

func TestValidateProgramAccountErrors(t *testing.T) {
	unknown := ValidateProgramAccount("123456782XX0001")
	assert.False(t, unknown.Valid)
	require.Len(t, unknown.Errors, 1)
	assert.Contains(t, unknown.Errors[0], "program code")

	both := ValidateProgramAccount("123456789XX0000")
	assert.False(t, both.Valid)
	assert.Len(t, both.Errors, 3, "checksum, program code and reference are reported together: %v", both.Errors)

	short := ValidateProgramAccount("123456782RC01")
	assert.False(t, short.Valid)
	assert.Contains(t, short.Errors[0], "15 characters")

	letters := ValidateProgramAccount("123456782RC00A1")
	assert.False(t, letters.Valid)
	assert.Contains(t, strings.Join(letters.Errors, ";"), "reference")
}

func TestValidateNEQ(t *testing.T) {
	assert.True(t, ValidateNEQ("1143456789").Valid)
	assert.True(t, ValidateNEQ("1143 456 789").Valid)
	assert.False(t, ValidateNEQ("114345678").Valid)
	assert.False(t, ValidateNEQ("11434567AB").Valid)
}

func TestProgramCodesAreACopy(t *testing.T) {
	codes := ProgramCodes()
	require.Len(t, codes, 8)
	codes[0].Code = "ZZ"
	assert.Equal(t, "RC", ProgramCodes()[0].Code)
}

func TestValidateBNBatch(t *testing.T) {
	got := ValidateBNBatch([]string{
		"123456782",
		"123 456 782",
		"123456789",
		"872100003",
		"872-100-003",
		"bad",
	})

	assert.Equal(t, 6, got.Stats.Total)
	assert.Equal(t, 4, got.Stats.Unique)
	assert.Equal(t, 2, got.Stats.Valid)
	assert.Equal(t, 2, got.Stats.Invalid)
	assert.Equal(t, 2, got.Stats.Duplicates)
	assert.Equal(t, 50.0, got.Stats.ValidationRate)

	require.Len(t, got.Duplicates, 2)
	assert.Equal(t, 1, got.Duplicates[0].Index)
	assert.Equal(t, 0, got.Duplicates[0].FirstIndex)
	assert.Equal(t, 4, got.Duplicates[1].Index)
	assert.Equal(t, 3, got.Duplicates[1].FirstIndex)

	var idx []int
	for _, it := range got.Items {
		idx = append(idx, it.Index)
	}
	assert.Equal(t, []int{0, 2, 3, 5}, idx)
}

func TestValidateProgramAccountBatchRate(t *testing.T) {
	got := ValidateProgramAccountBatch([]string{"123456782RC0001", "123456782RP0001", "123456782XX0001"})
	assert.Equal(t, 3, got.Stats.Unique)
	assert.Equal(t, 66.67, got.Stats.ValidationRate)

	empty := ValidateBNBatch(nil)
	assert.Equal(t, 0.0, empty.Stats.ValidationRate)
	assert.NotNil(t, empty.Items)
}
