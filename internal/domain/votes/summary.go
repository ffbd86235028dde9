package votes

import (
	"sort"

	"github.com/okian/padron/internal/domain/keys"
	"github.com/okian/padron/internal/domain/model"
)

// BlankLabel names the blank-vote line of a Breakdown.
const BlankLabel = "EN BLANCO"

// OfficeSummary splits one office's votes into valid and null-like.
type OfficeSummary struct {
	Office string `json:"office"`
	Valid  int    `json:"valid"`
	Null   int    `json:"null"`
}

// Total is valid plus null-like votes.
func (s OfficeSummary) Total() int { return s.Valid + s.Null }

// GroupShare is one party's share of the positive votes in a group.
type GroupShare struct {
	Group      string  `json:"group"`
	PartyVotes int     `json:"party_votes"`
	ValidVotes int     `json:"valid_votes"`
	Pct        float64 `json:"pct"`
}

// Breakdown lists every party of one group with its votes and share of the
// group's positive plus blank votes, most voted first.
type Breakdown struct {
	Group string       `json:"group"`
	Lines []PartyShare `json:"lines"`
	Blank int          `json:"blank"`
	Total int          `json:"total"`
}

// SummaryByOffice sums valid (positive and blank) and null-like votes per
// office in first-seen order. Unknown kinds count toward neither.
func SummaryByOffice(records []model.VoteRecord) []OfficeSummary {
	index := make(map[string]int)
	var out []OfficeSummary
	for _, r := range records {
		k := keys.Fold(r.Office)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, OfficeSummary{Office: r.Office})
		}
		switch {
		case r.VoteKind.Valid():
			out[i].Valid += r.VoteCount
		case r.VoteKind.NullLike():
			out[i].Null += r.VoteCount
		}
	}
	return out
}

// PartyShareBy reports party's positive votes against all positive votes in
// each group, with the percentage rounded to one decimal. Groups are sorted
// by name; a group without valid votes reports 0.
func PartyShareBy(g Grouping, records []model.VoteRecord, party string, opts ...Option) []GroupShare {
	gc := group(g, records, nil, buildOptions(opts))
	pk := keys.Normalize(keys.Party, party)
	out := make([]GroupShare, len(gc.groups.labels))
	for i, label := range gc.groups.labels {
		pv := gc.parties[i].get(pk)
		valid := gc.groups.sums[i]
		out[i] = GroupShare{Group: label, PartyVotes: pv, ValidVotes: valid, Pct: round1(pct(pv, valid))}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Group < out[b].Group })
	return out
}

// BreakdownOf details one section or district. Blank votes join the lines as
// BlankLabel when there are any. It reports false when no record matches name.
func BreakdownOf(g Grouping, records []model.VoteRecord, name string) (Breakdown, bool) {
	want := groupKey(name)
	parties := newCounter()
	blank, found := 0, false
	label := name
	for _, r := range records {
		if g.key(r) != want {
			continue
		}
		if !found {
			label = g.value(r)
			found = true
		}
		switch r.VoteKind {
		case model.VotePositive:
			parties.add(r.PartyKey(), r.Party, r.VoteCount)
		case model.VoteBlank:
			blank += r.VoteCount
		}
	}
	if !found {
		return Breakdown{Group: name}, false
	}

	b := Breakdown{Group: label, Blank: blank, Total: parties.total() + blank}
	for i := range parties.labels {
		b.Lines = append(b.Lines, PartyShare{Party: parties.labels[i], Votes: parties.sums[i], Pct: round1(pct(parties.sums[i], b.Total))})
	}
	if blank > 0 {
		b.Lines = append(b.Lines, PartyShare{Party: BlankLabel, Votes: blank, Pct: round1(pct(blank, b.Total))})
	}
	sort.SliceStable(b.Lines, func(i, j int) bool { return b.Lines[i].Votes > b.Lines[j].Votes })
	return b, true
}
