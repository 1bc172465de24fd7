package utils

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// Strategy names reported by DecodeLenient.
const (
	StrategyJSON     = "json"
	StrategyRepaired = "json-repair"
	StrategyHJSON    = "hjson"
)

// DecodeStrict decodes exactly one JSON value and rejects unknown fields.
func DecodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("JSON_STRUCTURAL_ERROR: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("JSON_STRUCTURAL_ERROR: trailing data after value")
	}
	return nil
}

// RepairJSON fixes common hand-editing mistakes: unquoted keys, single
// quotes, trailing commas, comments and unclosed brackets.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %w", err)
	}
	return repaired, nil
}

// ParseHJSON converts Hjson (comments, unquoted keys and strings, optional
// commas) to standard JSON.
func ParseHJSON(data []byte) ([]byte, error) {
	var result any
	if err := hjson.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("HJSON_PARSE_ERROR: %w", err)
	}
	out, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("JSON_MARSHAL_ERROR: %w", err)
	}
	return out, nil
}

// DecodeLenient tries, in order: strict JSON, Hjson, then JSON repair. It
// returns the strategy that succeeded. Unknown fields are rejected by every
// strategy so that typos in hand-written input files surface as errors.
func DecodeLenient(data []byte, v any) (string, error) {
	strictErr := DecodeStrict(data, v)
	if strictErr == nil {
		return StrategyJSON, nil
	}

	if converted, err := ParseHJSON(data); err == nil {
		if err := DecodeStrict(converted, v); err == nil {
			return StrategyHJSON, nil
		}
	}

	if repaired, err := RepairJSON(string(data)); err == nil {
		if err := DecodeStrict([]byte(repaired), v); err == nil {
			return StrategyRepaired, nil
		}
	}

	return "", fmt.Errorf("SMART_PARSE_FAILED: %w", strictErr)
}
