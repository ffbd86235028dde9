// Package outlier finds polling tables whose vote share for one party
// deviates from the share of the whole facility they belong to.
package outlier

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/padron/internal/domain/keys"
	"github.com/okian/padron/internal/domain/model"
)

// Default detection parameters.
const (
	DefaultTargetParty    = "FUERZA PATRIA"
	DefaultMinDeviationPP = -5.0
	DefaultMaxDeviationPP = 5.0

	knownPartiesLimit = 20
)

// Params selects the party, the deviation window in percentage points and
// the denominator policy. Both bounds are inclusive.
type Params struct {
	TargetParty    string  `json:"target_party"`
	MinDeviationPP float64 `json:"min_deviation_pp"`
	MaxDeviationPP float64 `json:"max_deviation_pp"`
	// IncludeBlanks adds blank votes to the denominator.
	IncludeBlanks bool `json:"include_blanks"`
}

// DefaultParams returns the window used when none is configured.
func DefaultParams() Params {
	return Params{
		TargetParty:    DefaultTargetParty,
		MinDeviationPP: DefaultMinDeviationPP,
		MaxDeviationPP: DefaultMaxDeviationPP,
	}
}

// Validate checks that the parameters describe a usable window.
func (p Params) Validate() error {
	if strings.TrimSpace(p.TargetParty) == "" {
		return ErrNoParty
	}
	if !finite(p.MinDeviationPP) || !finite(p.MaxDeviationPP) {
		return fmt.Errorf("%w: bounds must be finite, got [%v, %v]", ErrInvalidRange, p.MinDeviationPP, p.MaxDeviationPP)
	}
	if p.MinDeviationPP > p.MaxDeviationPP {
		return fmt.Errorf("%w: %.2f > %.2f", ErrInvalidRange, p.MinDeviationPP, p.MaxDeviationPP)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Row is one polling table inside the deviation window.
type Row struct {
	District           string  `json:"district"`
	Facility           string  `json:"facility"`
	Table              string  `json:"table"`
	PartyVotesTable    int     `json:"party_votes_table"`
	DenomTable         int     `json:"denom_table"`
	PctTable           float64 `json:"pct_table"`
	PartyVotesFacility int     `json:"party_votes_facility"`
	DenomFacility      int     `json:"denom_facility"`
	PctFacility        float64 `json:"pct_facility"`
	DeviationPP        float64 `json:"deviation_pp"`
}

// Diagnostic explains an empty or partial result.
type Diagnostic struct {
	// EmptyResult is set whenever no row is returned.
	EmptyResult bool `json:"empty_result"`
	// PartyMissing is set when the target party has no positive votes at all.
	PartyMissing bool `json:"party_missing"`
	// KnownParties lists the most frequent normalized parties when the target
	// is missing, to show why it did not match.
	KnownParties []string `json:"known_parties"`
	// Tables is the number of polling tables evaluated.
	Tables int `json:"tables"`
}

type tally struct {
	district, facility, table string
	party, denom              int
}

// Detect computes, for every polling table seen in records, the target
// party's share of the table and of its facility and keeps the tables whose
// difference lies inside [MinDeviationPP, MaxDeviationPP]. A zero
// denominator yields a share of 0. Rows are ordered by district, facility
// and table number.
func Detect(records []model.VoteRecord, p Params) ([]Row, Diagnostic) {
	target := keys.Normalize(keys.Party, p.TargetParty)

	tableIdx := make(map[keys.Key]int)
	var tables []tally
	facilities := make(map[keys.Key]*tally)
	partyHits := make(map[string]int)
	var partyOrder []string
	found := false

	for _, r := range records {
		fk := keys.Composite(keys.Normalize(keys.District, r.District), keys.Normalize(keys.FacilityName, r.FacilityName))
		tk := keys.Composite(string(fk), keys.Normalize(keys.TableNumber, r.TableNumber))
		i, ok := tableIdx[tk]
		if !ok {
			i = len(tables)
			tableIdx[tk] = i
			tables = append(tables, tally{district: r.District, facility: r.FacilityName, table: r.TableNumber})
		}
		fac, ok := facilities[fk]
		if !ok {
			fac = &tally{}
			facilities[fk] = fac
		}

		pk := r.PartyKey()
		if pk != "" {
			if _, seen := partyHits[pk]; !seen {
				partyOrder = append(partyOrder, pk)
			}
			partyHits[pk]++
		}

		if r.VoteKind == model.VotePositive || (p.IncludeBlanks && r.VoteKind == model.VoteBlank) {
			tables[i].denom += r.VoteCount
			fac.denom += r.VoteCount
		}
		if r.VoteKind == model.VotePositive && pk == target {
			found = true
			tables[i].party += r.VoteCount
			fac.party += r.VoteCount
		}
	}

	diag := Diagnostic{Tables: len(tables)}
	if !found {
		diag.EmptyResult = true
		diag.PartyMissing = true
		diag.KnownParties = topParties(partyOrder, partyHits)
		return nil, diag
	}

	var out []Row
	for _, t := range tables {
		fk := keys.Composite(keys.Normalize(keys.District, t.district), keys.Normalize(keys.FacilityName, t.facility))
		fac := facilities[fk]
		row := Row{
			District:           t.district,
			Facility:           t.facility,
			Table:              t.table,
			PartyVotesTable:    t.party,
			DenomTable:         t.denom,
			PctTable:           share(t.party, t.denom),
			PartyVotesFacility: fac.party,
			DenomFacility:      fac.denom,
			PctFacility:        share(fac.party, fac.denom),
		}
		row.DeviationPP = settle(row.PctTable - row.PctFacility)
		if row.DeviationPP < p.MinDeviationPP || row.DeviationPP > p.MaxDeviationPP {
			continue
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].District != out[b].District {
			return out[a].District < out[b].District
		}
		if out[a].Facility != out[b].Facility {
			return out[a].Facility < out[b].Facility
		}
		return keys.TableLess(out[a].Table, out[b].Table)
	})
	diag.EmptyResult = len(out) == 0
	return out, diag
}

func share(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}

// settle removes float noise below 1e-9 pp so window bounds compare exactly.
func settle(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}

func topParties(order []string, hits map[string]int) []string {
	out := make([]string, len(order))
	copy(out, order)
	sort.SliceStable(out, func(a, b int) bool { return hits[out[a]] > hits[out[b]] })
	if len(out) > knownPartiesLimit {
		out = out[:knownPartiesLimit]
	}
	return out
}
