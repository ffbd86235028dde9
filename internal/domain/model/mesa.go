// Package model contains the domain records passed between pipeline stages.
package model

import "github.com/okian/padron/internal/domain/keys"

// VoterKind distinguishes the native roll from the foreign-resident roll.
type VoterKind string

const (
	VoterNative  VoterKind = "NATIVE"
	VoterForeign VoterKind = "FOREIGN"
)

// PollingTable is one mesa. Raw identifying values are kept exactly as the
// first source spelled them; grouping always goes through Key.
type PollingTable struct {
	CircuitCode  string    `json:"circuit_code"`
	District     string    `json:"district"`
	DistrictName string    `json:"district_name"` // municipality name when the extract carries one
	FacilityName string    `json:"facility_name"`
	TableNumber  string    `json:"table_number"`
	ElectorCount int       `json:"elector_count"`
	ForeignCount int       `json:"foreign_count"`
	TotalCount   int       `json:"total_count"`
	VoterKind    VoterKind `json:"voter_kind"`
	Section      string    `json:"section"`
}

// Key is the deduplication identity including voter kind.
func (p PollingTable) Key() keys.Key {
	return keys.MesaKey(p.CircuitCode, p.District, p.FacilityName, p.TableNumber, string(p.VoterKind))
}

// MatchKey is the identity used to pair native and foreign rows.
func (p PollingTable) MatchKey() keys.Key {
	return keys.MesaKey(p.CircuitCode, p.District, p.FacilityName, p.TableNumber, "")
}

// NameKey is MatchKey with the folded municipality in place of the district
// code. It pairs rows when only one side carries a code.
func (p PollingTable) NameKey() keys.Key {
	return keys.Composite(
		keys.Normalize(keys.CircuitCode, p.CircuitCode),
		keys.Fold(p.Municipality()),
		keys.Normalize(keys.FacilityName, p.FacilityName),
		keys.Normalize(keys.TableNumber, p.TableNumber),
	)
}

// HasDistrictCode reports whether the row carries a district code.
func (p PollingTable) HasDistrictCode() bool {
	return keys.Normalize(keys.District, p.District) != ""
}

// Municipality is the name used for section lookup: the municipality name
// when present, otherwise the district value itself.
func (p PollingTable) Municipality() string {
	if p.DistrictName != "" {
		return p.DistrictName
	}
	return p.District
}

// Clone returns a copy of rows so callers can derive a new table without
// touching the one they were given.
func Clone(rows []PollingTable) []PollingTable {
	if rows == nil {
		return nil
	}
	out := make([]PollingTable, len(rows))
	copy(out, rows)
	return out
}
