// Package tax is the Canadian corporate/personal tax computation and
// compliance-deadline engine.
//
// Every function in this package is a pure transformation of its inputs over
// immutable rate tables. Nothing here performs I/O, logs, or keeps state
// between calls, so results are safe to cache and replay.
package tax

import (
	"errors"
	"fmt"
)

// Province is one of the 13 Canadian provinces and territories.
type Province string

const (
	ON Province = "ON" // Ontario
	QC Province = "QC" // Quebec
	BC Province = "BC" // British Columbia
	AB Province = "AB" // Alberta
	SK Province = "SK" // Saskatchewan
	MB Province = "MB" // Manitoba
	NB Province = "NB" // New Brunswick
	NS Province = "NS" // Nova Scotia
	PE Province = "PE" // Prince Edward Island
	NL Province = "NL" // Newfoundland and Labrador
	YT Province = "YT" // Yukon
	NT Province = "NT" // Northwest Territories
	NU Province = "NU" // Nunavut
)

// ErrUnknownProvince is returned by rate lookups for codes outside the 13.
var ErrUnknownProvince = errors.New("unknown province")

// provinceCount is the size of every per-province table.
const provinceCount = 13

// AllProvinces returns the 13 codes in table order. The slice is a fresh copy.
func AllProvinces() []Province {
	return []Province{ON, QC, BC, AB, SK, MB, NB, NS, PE, NL, YT, NT, NU}
}

// index maps a province to its slot in the rate tables.
func (p Province) index() (int, bool) {
	switch p {
	case ON:
		return 0, true
	case QC:
		return 1, true
	case BC:
		return 2, true
	case AB:
		return 3, true
	case SK:
		return 4, true
	case MB:
		return 5, true
	case NB:
		return 6, true
	case NS:
		return 7, true
	case PE:
		return 8, true
	case NL:
		return 9, true
	case YT:
		return 10, true
	case NT:
		return 11, true
	case NU:
		return 12, true
	}
	return -1, false
}

// Valid reports whether p is one of the 13 codes.
func (p Province) Valid() bool {
	_, ok := p.index()
	return ok
}

// ParseProvince accepts an exact two-letter code. No case folding is applied.
func ParseProvince(code string) (Province, error) {
	p := Province(code)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvince, code)
	}
	return p, nil
}

func mustIndex(p Province) (int, error) {
	i, ok := p.index()
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrUnknownProvince, string(p))
	}
	return i, nil
}
