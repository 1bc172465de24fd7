package tax

import "math"

// =============================================================================
// BULK VALIDATION
// =============================================================================

// BulkItem is one unique identifier from a batch.
type BulkItem struct {
	Index  int              `json:"index"`
	Result ValidationResult `json:"result"`
}

// BulkDuplicate records an input that normalized to an identifier already
// seen earlier in the batch.
type BulkDuplicate struct {
	Index      int    `json:"index"`
	Input      string `json:"input"`
	Normalized string `json:"normalized"`
	FirstIndex int    `json:"first_index"`
}

// BulkStats summarizes a batch. ValidationRate is the percentage of unique
// identifiers that are valid.
type BulkStats struct {
	Total          int     `json:"total"`
	Unique         int     `json:"unique"`
	Valid          int     `json:"valid"`
	Invalid        int     `json:"invalid"`
	Duplicates     int     `json:"duplicates"`
	ValidationRate float64 `json:"validation_rate"`
}

// BulkValidationResult is the output of the batch validators.
type BulkValidationResult struct {
	Items      []BulkItem      `json:"items"`
	Duplicates []BulkDuplicate `json:"duplicates"`
	Stats      BulkStats       `json:"stats"`
}

// ValidateBNBatch validates many business numbers at once.
func ValidateBNBatch(inputs []string) BulkValidationResult {
	return validateBatch(inputs, ValidateBN)
}

// ValidateProgramAccountBatch validates many program accounts at once.
func ValidateProgramAccountBatch(inputs []string) BulkValidationResult {
	return validateBatch(inputs, ValidateProgramAccount)
}

// validateBatch dedupes by normalized value, keeping the first occurrence.
// Input order is preserved.
func validateBatch(inputs []string, validate func(string) ValidationResult) BulkValidationResult {
	out := BulkValidationResult{
		Items:      []BulkItem{},
		Duplicates: []BulkDuplicate{},
	}
	seen := make(map[string]int, len(inputs))

	for i, in := range inputs {
		n := NormalizeIdentifier(in)
		if first, ok := seen[n]; ok {
			out.Duplicates = append(out.Duplicates, BulkDuplicate{Index: i, Input: in, Normalized: n, FirstIndex: first})
			continue
		}
		seen[n] = i

		res := validate(in)
		out.Items = append(out.Items, BulkItem{Index: i, Result: res})
		if res.Valid {
			out.Stats.Valid++
		} else {
			out.Stats.Invalid++
		}
	}

	out.Stats.Total = len(inputs)
	out.Stats.Unique = len(out.Items)
	out.Stats.Duplicates = len(out.Duplicates)
	if out.Stats.Unique > 0 {
		rate := float64(out.Stats.Valid) / float64(out.Stats.Unique) * 100
		out.Stats.ValidationRate = math.Round(rate*100) / 100
	}
	return out
}
