package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Province string  `json:"province"`
	Income   float64 `json:"income"`
}

func TestDecodeLenient(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		strategy string
	}{
		{"strict json", `{"province": "ON", "income": 200000}`, StrategyJSON},
		{"hjson with comments", "{\n  # entity\n  province: ON\n  income: 200000\n}", StrategyHJSON},
		{"trailing comma", `{"province": "ON", "income": 200000,}`, StrategyHJSON},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var s sample
			got, err := DecodeLenient([]byte(tc.input), &s)
			require.NoError(t, err)
			assert.Equal(t, tc.strategy, got)
			assert.Equal(t, "ON", s.Province)
			assert.Equal(t, 200_000.0, s.Income)
		})
	}
}

func TestDecodeStrictRejectsUnknownFields(t *testing.T) {
	var s sample
	err := DecodeStrict([]byte(`{"province": "ON", "incom": 1}`), &s)
	assert.Error(t, err)

	_, err = DecodeLenient([]byte(`{"province": "ON", "incom": 1}`), &s)
	assert.Error(t, err)
}

func TestParseHJSON(t *testing.T) {
	out, err := ParseHJSON([]byte("a: 1\nb: text"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1, "b": "text"}`, string(out))
}
