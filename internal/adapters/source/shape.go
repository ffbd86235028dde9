package source

import (
	"strings"

	"github.com/okian/padron/internal/domain/keys"
	"github.com/okian/padron/internal/domain/model"
)

// shaper turns resolved records into the role's typed output.
type shaper interface {
	add(rec []string)
	finish()
}

func newShaper(role Role, lay layout, t *Table, offices []string) shaper {
	switch role {
	case RoleNativeRoll:
		return newRollShaper(lay, t, model.VoterNative)
	case RoleForeignRoll:
		return newRollShaper(lay, t, model.VoterForeign)
	case RoleFacilityRegistry:
		return &registryShaper{lay: lay, t: t}
	case RoleTally:
		s := &tallyShaper{lay: lay, t: t, filter: newOfficeFilter(offices)}
		if s.filter != nil && !lay.has(fieldOffice) {
			s.filter = nil
			t.Diagnostics = append(t.Diagnostics, "office column not found; office filter not applied")
		}
		return s
	case RoleElectorSummary:
		return &electorShaper{lay: lay, t: t}
	default:
		return &referenceShaper{lay: lay, t: t}
	}
}

// rollShaper aggregates per-elector rows into polling tables. Native rows
// group by (circuit, table); foreign rows also by district and facility,
// since the foreign roll reuses table numbers across municipalities. Raw
// values are grouped as written; normalization happens in dedupe.
type rollShaper struct {
	lay    layout
	t      *Table
	kind   model.VoterKind
	groups map[string]int
}

func newRollShaper(lay layout, t *Table, kind model.VoterKind) *rollShaper {
	return &rollShaper{lay: lay, t: t, kind: kind, groups: make(map[string]int)}
}

func (s *rollShaper) add(rec []string) {
	circuit := s.lay.get(rec, fieldCircuit)
	table := s.lay.get(rec, fieldTable)
	district := s.lay.get(rec, fieldDistrict)
	name := s.lay.get(rec, fieldDistrictName)
	facility := s.lay.get(rec, fieldFacility)

	parts := []string{circuit, table}
	if s.kind == model.VoterForeign {
		parts = append(parts, district, name, facility)
	}
	k := string(keys.Composite(parts...))

	i, ok := s.groups[k]
	if !ok {
		i = len(s.t.Mesas)
		s.groups[k] = i
		s.t.Mesas = append(s.t.Mesas, model.PollingTable{
			CircuitCode:  circuit,
			District:     district,
			DistrictName: name,
			FacilityName: facility,
			TableNumber:  table,
			VoterKind:    s.kind,
		})
	}
	if s.kind == model.VoterForeign {
		s.t.Mesas[i].ForeignCount++
	} else {
		s.t.Mesas[i].ElectorCount++
	}
}

func (s *rollShaper) finish() {
	for i := range s.t.Mesas {
		m := &s.t.Mesas[i]
		m.TotalCount = m.ElectorCount + m.ForeignCount
	}
}

// registryShaper reads already aggregated polling-table rows.
type registryShaper struct {
	lay layout
	t   *Table
}

func (s *registryShaper) add(rec []string) {
	electors, ok := ParseCount(s.lay.get(rec, fieldElectors))
	if !ok {
		s.t.Coerced++
	}
	foreign := 0
	if s.lay.has(fieldForeign) {
		if foreign, ok = ParseCount(s.lay.get(rec, fieldForeign)); !ok {
			s.t.Coerced++
		}
	}
	s.t.Mesas = append(s.t.Mesas, model.PollingTable{
		CircuitCode:  s.lay.get(rec, fieldCircuit),
		District:     s.lay.get(rec, fieldDistrict),
		DistrictName: s.lay.get(rec, fieldDistrictName),
		FacilityName: s.lay.get(rec, fieldFacility),
		TableNumber:  s.lay.get(rec, fieldTable),
		ElectorCount: electors,
		ForeignCount: foreign,
		TotalCount:   electors + foreign,
		VoterKind:    parseVoterKind(s.lay.get(rec, fieldVoterKind)),
		Section:      s.lay.get(rec, fieldSection),
	})
}

func (s *registryShaper) finish() {}

func parseVoterKind(raw string) model.VoterKind {
	switch keys.Fold(raw) {
	case "extranjera", "extranjero", "extranjeros", "foreign":
		return model.VoterForeign
	default:
		return model.VoterNative
	}
}

// tallyShaper reads vote lines, dropping offices outside the filter.
type tallyShaper struct {
	lay    layout
	t      *Table
	filter officeFilter
}

func (s *tallyShaper) add(rec []string) {
	office := s.lay.get(rec, fieldOffice)
	if !s.filter.keep(office) {
		return
	}
	votes, ok := ParseCount(s.lay.get(rec, fieldVotes))
	if !ok {
		s.t.Coerced++
	}
	s.t.Votes = append(s.t.Votes, model.VoteRecord{
		District:     s.lay.get(rec, fieldDistrict),
		Section:      s.lay.get(rec, fieldSection),
		FacilityName: s.lay.get(rec, fieldFacility),
		TableNumber:  s.lay.get(rec, fieldTable),
		Party:        s.lay.get(rec, fieldParty),
		Office:       office,
		VoteKind:     model.ClassifyVoteKind(s.lay.get(rec, fieldVoteKind)),
		VoteCount:    votes,
	})
}

func (s *tallyShaper) finish() {}

// electorShaper sums an elector column written with thousands separators.
type electorShaper struct {
	lay layout
	t   *Table
}

func (s *electorShaper) add(rec []string) {
	n, ok := ParseThousands(s.lay.get(rec, fieldElectors))
	if !ok {
		s.t.Coerced++
	}
	s.t.Electors += n
}

func (s *electorShaper) finish() {}

// referenceShaper collects (section, municipality) pairs, skipping rows where
// either side is blank.
type referenceShaper struct {
	lay layout
	t   *Table
}

func (s *referenceShaper) add(rec []string) {
	section := s.lay.get(rec, fieldSection)
	muni := s.lay.get(rec, fieldMunicipality)
	if section == "" || strings.TrimSpace(muni) == "" {
		return
	}
	s.t.References = append(s.t.References, ReferenceRow{Section: section, Municipality: muni})
}

func (s *referenceShaper) finish() {}
