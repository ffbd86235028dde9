package sections

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/padron/internal/domain/keys"
	"github.com/okian/padron/internal/domain/model"
)

// Unmapped is a municipality that resolved to the sentinel, with the number
// of rows that carried it.
type Unmapped struct {
	District string `json:"district"`
	Count    int    `json:"count"`
}

// Conflict records a municipality listed under more than one section. The
// first listing wins.
type Conflict struct {
	Municipality string `json:"municipality"`
	Kept         string `json:"kept"`
	Ignored      string `json:"ignored"`
}

// Mapper resolves municipalities to sections through an inverse index built
// once from the reference. It is read-only after construction.
type Mapper struct {
	sentinel  string
	strict    bool
	index     map[string]string
	conflicts []Conflict
}

// NewMapper builds the inverse index of ref.
func NewMapper(ref Reference, opts ...Option) *Mapper {
	m := &Mapper{sentinel: DefaultSentinel, index: make(map[string]string, ref.Len())}
	for _, opt := range opts {
		opt(m)
	}
	for _, s := range ref.Sections {
		for _, muni := range s.Municipalities {
			k := indexKey(muni)
			if k == "" {
				continue
			}
			if prev, ok := m.index[k]; ok {
				if prev != s.Name {
					m.conflicts = append(m.conflicts, Conflict{Municipality: muni, Kept: prev, Ignored: s.Name})
				}
				continue
			}
			m.index[k] = s.Name
		}
	}
	return m
}

func indexKey(s string) string {
	return keys.Fold(strings.TrimSpace(s))
}

// Sentinel returns the label used for unmapped municipalities.
func (m *Mapper) Sentinel() string { return m.sentinel }

// Conflicts lists municipalities claimed by more than one section.
func (m *Mapper) Conflicts() []Conflict { return m.conflicts }

// Size is the number of indexed municipalities.
func (m *Mapper) Size() int { return len(m.index) }

// Section returns the section of district, or the sentinel and false when the
// municipality is not in the reference. It never fails.
func (m *Mapper) Section(district string) (string, bool) {
	if s, ok := m.index[indexKey(district)]; ok {
		return s, true
	}
	return m.sentinel, false
}

// Assign returns a copy of rows with Section set from each row's municipality,
// plus the unmapped municipalities in first-seen order. The only error is
// ErrMissingDistrict in strict mode.
func (m *Mapper) Assign(rows []model.PollingTable) ([]model.PollingTable, []Unmapped, error) {
	out := model.Clone(rows)
	var unmapped []Unmapped
	pos := map[string]int{}

	for i := range out {
		muni := out[i].Municipality()
		if strings.TrimSpace(muni) == "" && m.strict {
			return nil, nil, fmt.Errorf("%w: row %d (circuit %q, table %q)",
				ErrMissingDistrict, i, out[i].CircuitCode, out[i].TableNumber)
		}
		s, ok := m.Section(muni)
		out[i].Section = s
		if ok {
			continue
		}
		if j, seen := pos[muni]; seen {
			unmapped[j].Count++
			continue
		}
		pos[muni] = len(unmapped)
		unmapped = append(unmapped, Unmapped{District: muni, Count: 1})
	}
	return out, unmapped, nil
}

// CoverageReport compares the municipalities seen in data with the reference.
type CoverageReport struct {
	// MissingFromReference are data municipalities with no section.
	MissingFromReference []string `json:"missing_from_reference"`
	// UnusedInReference are reference municipalities absent from the data.
	UnusedInReference []string `json:"unused_in_reference"`
}

// Coverage reports both directions of mismatch between data and ref. Both
// lists are sorted and use the spelling found in their own source.
func Coverage(ref Reference, districts []string) CoverageReport {
	refKeys := map[string]string{}
	for _, s := range ref.Sections {
		for _, muni := range s.Municipalities {
			if k := indexKey(muni); k != "" {
				if _, ok := refKeys[k]; !ok {
					refKeys[k] = muni
				}
			}
		}
	}
	dataKeys := map[string]string{}
	for _, d := range districts {
		if k := indexKey(d); k != "" {
			if _, ok := dataKeys[k]; !ok {
				dataKeys[k] = strings.TrimSpace(d)
			}
		}
	}

	var rep CoverageReport
	for k, d := range dataKeys {
		if _, ok := refKeys[k]; !ok {
			rep.MissingFromReference = append(rep.MissingFromReference, d)
		}
	}
	for k, muni := range refKeys {
		if _, ok := dataKeys[k]; !ok {
			rep.UnusedInReference = append(rep.UnusedInReference, muni)
		}
	}
	sort.Strings(rep.MissingFromReference)
	sort.Strings(rep.UnusedInReference)
	return rep
}
