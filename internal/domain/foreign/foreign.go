// Package foreign folds the foreign-resident roll into the consolidated
// polling-table set.
package foreign

import (
	"sort"

	"github.com/okian/padron/internal/domain/dedupe"
	"github.com/okian/padron/internal/domain/keys"
	"github.com/okian/padron/internal/domain/model"
	"github.com/okian/padron/internal/domain/sections"
)

// Sentinel is the section given to foreign-only tables until they are re-sectioned.
const Sentinel = "EXTRANJEROS"

// Report counts what Merge did.
type Report struct {
	NativeRows      int `json:"native_rows"`
	ForeignGroups   int `json:"foreign_groups"`
	Attached        int `json:"attached"`
	Synthesized     int `json:"synthesized"`
	NativeElectors  int `json:"native_electors"`
	ForeignElectors int `json:"foreign_electors"`
	TotalElectors   int `json:"total_electors"`
}

// Merger unions foreign counts into native polling tables.
type Merger struct {
	sentinel string
}

// New creates a Merger.
func New(opts ...Option) *Merger {
	m := &Merger{sentinel: Sentinel}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var defaultMerger = New()

// Aggregate collapses foreign roll rows by the cross-kind match key so each
// mesa appears once with its summed ForeignCount.
func Aggregate(rows []model.PollingTable) []model.PollingTable {
	out, _ := dedupe.New(dedupe.WithKey(aggregateKey)).Merge(rows)
	return out
}

// aggregateKey groups by district code, or by municipality name for rows
// without one.
func aggregateKey(p model.PollingTable) keys.Key {
	if p.HasDistrictCode() {
		return p.MatchKey()
	}
	return p.NameKey()
}

// Merge uses the default sentinel.
func Merge(native, foreignAgg []model.PollingTable) ([]model.PollingTable, Report) {
	return defaultMerger.Merge(native, foreignAgg)
}

// Resection uses the default sentinel.
func Resection(rows []model.PollingTable, m *sections.Mapper) ([]model.PollingTable, []sections.Unmapped) {
	return defaultMerger.Resection(rows, m)
}

// Merge attaches each foreign count to the native row with the same match key,
// or appends a synthetic FOREIGN row with no native electors when there is
// none. Every returned row satisfies TotalCount = ElectorCount + ForeignCount.
func (m *Merger) Merge(native, foreignAgg []model.PollingTable) ([]model.PollingTable, Report) {
	out := model.Clone(native)
	if out == nil {
		out = make([]model.PollingTable, 0, len(foreignAgg))
	}
	rep := Report{NativeRows: len(native), ForeignGroups: len(foreignAgg)}

	idx := newIndex(len(out))
	for i := range out {
		rep.NativeElectors += out[i].ElectorCount
		idx.add(out[i], i)
	}

	for _, f := range foreignAgg {
		count := f.ForeignCount
		rep.ForeignElectors += count
		if i, ok := idx.match(out, f); ok {
			out[i].ForeignCount += count
			rep.Attached++
			continue
		}
		syn := f
		syn.ElectorCount = 0
		syn.ForeignCount = count
		syn.VoterKind = model.VoterForeign
		syn.Section = m.sentinel
		idx.add(syn, len(out))
		out = append(out, syn)
		rep.Synthesized++
	}

	for i := range out {
		out[i].TotalCount = out[i].ElectorCount + out[i].ForeignCount
		rep.TotalElectors += out[i].TotalCount
	}
	return out, rep
}

// index finds the row a foreign table belongs to. Rows are looked up by
// district code first and by municipality name when either side lacks a code.
type index struct {
	byCode map[keys.Key]int
	byName map[keys.Key]int
}

func newIndex(n int) *index {
	return &index{byCode: make(map[keys.Key]int, n), byName: make(map[keys.Key]int, n)}
}

func (x *index) add(p model.PollingTable, i int) {
	if p.HasDistrictCode() {
		if _, ok := x.byCode[p.MatchKey()]; !ok {
			x.byCode[p.MatchKey()] = i
		}
	}
	if _, ok := x.byName[p.NameKey()]; !ok {
		x.byName[p.NameKey()] = i
	}
}

func (x *index) match(rows []model.PollingTable, f model.PollingTable) (int, bool) {
	if f.HasDistrictCode() {
		if i, ok := x.byCode[f.MatchKey()]; ok {
			return i, true
		}
	}
	i, ok := x.byName[f.NameKey()]
	if !ok {
		return 0, false
	}
	// Two codes that differ are different districts whatever the names say.
	if f.HasDistrictCode() && rows[i].HasDistrictCode() {
		return 0, false
	}
	return i, true
}

// Resection maps rows still carrying the foreign sentinel to the section of
// their municipality, keeping the sentinel only when the municipality itself
// is unmapped. The result is ordered by municipality then table number.
func (m *Merger) Resection(rows []model.PollingTable, mapper *sections.Mapper) ([]model.PollingTable, []sections.Unmapped) {
	out := model.Clone(rows)
	var unmapped []sections.Unmapped
	pos := map[string]int{}
	for i := range out {
		if out[i].Section != m.sentinel {
			continue
		}
		muni := out[i].Municipality()
		if s, ok := mapper.Section(muni); ok {
			out[i].Section = s
			continue
		}
		if j, seen := pos[muni]; seen {
			unmapped[j].Count++
			continue
		}
		pos[muni] = len(unmapped)
		unmapped = append(unmapped, sections.Unmapped{District: muni, Count: 1})
	}

	sort.SliceStable(out, func(a, b int) bool {
		ka, kb := keys.Fold(out[a].Municipality()), keys.Fold(out[b].Municipality())
		if ka != kb {
			return ka < kb
		}
		return keys.TableLess(out[a].TableNumber, out[b].TableNumber)
	})
	return out, unmapped
}
