// Package dedupe collapses polling-table rows that describe the same mesa
// under different spellings.
package dedupe

import (
	"strings"

	"github.com/okian/padron/internal/domain/keys"
	"github.com/okian/padron/internal/domain/model"
)

// Duplicate describes one key group that held more than one row.
type Duplicate struct {
	Key      keys.Key `json:"key"`
	Rows     int      `json:"rows"`
	Electors int      `json:"electors"`
}

// Report is the exact side-channel account of a merge.
type Report struct {
	InputRows       int `json:"input_rows"`
	OutputRows      int `json:"output_rows"`
	CollapsedGroups int `json:"collapsed_groups"`
	CollapsedRows   int `json:"collapsed_rows"`
	ElectorsBefore  int `json:"electors_before"`
	ElectorsAfter   int `json:"electors_after"`
	ForeignBefore   int `json:"foreign_before"`
	ForeignAfter    int `json:"foreign_after"`
	// Delta is ElectorsAfter - ElectorsBefore. Merging sums, so it is 0
	// unless the input was corrupted in a way that breaks conservation.
	Delta      int         `json:"delta"`
	Duplicates []Duplicate `json:"duplicates"`
}

// Merger groups rows by a key function and sums their counts.
type Merger struct {
	key func(model.PollingTable) keys.Key
}

// New creates a Merger. By default rows are grouped by model.PollingTable.Key.
func New(opts ...Option) *Merger {
	m := &Merger{key: model.PollingTable.Key}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var defaultMerger = New()

// Merge collapses rows sharing a normalized mesa key with the default Merger.
func Merge(rows []model.PollingTable) ([]model.PollingTable, Report) {
	return defaultMerger.Merge(rows)
}

// Merge returns one row per key in first-occurrence order. Elector and
// foreign counts are summed across the group; every other field keeps the
// first row's raw value. The input slice is not modified.
func (m *Merger) Merge(rows []model.PollingTable) ([]model.PollingTable, Report) {
	rep := Report{InputRows: len(rows)}
	out := make([]model.PollingTable, 0, len(rows))
	index := make(map[keys.Key]int, len(rows))
	sizes := make([]int, 0, len(rows))

	for _, r := range rows {
		rep.ElectorsBefore += r.ElectorCount
		rep.ForeignBefore += r.ForeignCount

		k := m.key(r)
		if i, ok := index[k]; ok {
			out[i].ElectorCount += r.ElectorCount
			out[i].ForeignCount += r.ForeignCount
			sizes[i]++
			continue
		}
		index[k] = len(out)
		out = append(out, r)
		sizes = append(sizes, 1)
	}

	for i := range out {
		out[i].TotalCount = out[i].ElectorCount + out[i].ForeignCount
		rep.ElectorsAfter += out[i].ElectorCount
		rep.ForeignAfter += out[i].ForeignCount
		if sizes[i] > 1 {
			rep.CollapsedGroups++
			rep.Duplicates = append(rep.Duplicates, Duplicate{
				Key:      m.key(out[i]),
				Rows:     sizes[i],
				Electors: out[i].ElectorCount,
			})
		}
	}
	rep.OutputRows = len(out)
	rep.CollapsedRows = rep.InputRows - rep.OutputRows
	rep.Delta = rep.ElectorsAfter - rep.ElectorsBefore
	return out, rep
}

// KeyStats compares identity before and after normalization.
type KeyStats struct {
	Rows           int `json:"rows"`
	RawKeys        int `json:"raw_keys"`
	NormalizedKeys int `json:"normalized_keys"`
	// Collisions is how many raw identities normalization folded into
	// another one, i.e. RawKeys - NormalizedKeys.
	Collisions int `json:"collisions"`
}

// Compare counts distinct raw and normalized mesa identities in rows. It shows
// how many duplicates only become visible once keys are normalized.
func Compare(rows []model.PollingTable) KeyStats {
	raw := make(map[string]struct{}, len(rows))
	norm := make(map[keys.Key]struct{}, len(rows))
	for _, r := range rows {
		raw[strings.Join([]string{r.CircuitCode, r.District, r.FacilityName, r.TableNumber, string(r.VoterKind)}, "\x00")] = struct{}{}
		norm[r.Key()] = struct{}{}
	}
	return KeyStats{
		Rows:           len(rows),
		RawKeys:        len(raw),
		NormalizedKeys: len(norm),
		Collisions:     len(raw) - len(norm),
	}
}
