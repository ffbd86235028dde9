package votes

import (
	"github.com/okian/padron/internal/domain/keys"
	"github.com/okian/padron/internal/domain/model"
)

// Winner is the party with the most positive votes in one group.
type Winner struct {
	Group string `json:"group"`
	Party string `json:"party"`
	Votes int    `json:"votes"`
}

// WinCount is the number of groups a party won.
type WinCount struct {
	Party string `json:"party"`
	Wins  int    `json:"wins"`
}

// RangeCount is how many districts gave Party a share inside Range.
type RangeCount struct {
	Party string `json:"party"`
	Range string `json:"range"`
	Count int    `json:"count"`
}

// Ranges are the vote-share buckets in ascending order.
var Ranges = []string{"<20%", "20-30%", "30-40%", "40-50%", ">=50%"}

func bucket(share float64) string {
	switch {
	case share < 20:
		return Ranges[0]
	case share < 30:
		return Ranges[1]
	case share < 40:
		return Ranges[2]
	case share < 50:
		return Ranges[3]
	}
	return Ranges[4]
}

// groupedCounts accumulates per-group party counters in first-seen order.
type groupedCounts struct {
	groups  *counter
	parties []*counter
}

func (g *groupedCounts) add(groupKey, groupLabel, partyKey, partyLabel string, n int) {
	g.groups.add(groupKey, groupLabel, n)
	i := g.groups.index[groupKey]
	if i == len(g.parties) {
		g.parties = append(g.parties, newCounter())
	}
	g.parties[i].add(partyKey, partyLabel, n)
}

func group(g Grouping, records []model.VoteRecord, parties map[string]struct{}, o options) *groupedCounts {
	gc := &groupedCounts{groups: newCounter()}
	for _, r := range records {
		if r.VoteKind != model.VotePositive {
			continue
		}
		gk := g.key(r)
		if !o.keep(gk) {
			continue
		}
		pk := r.PartyKey()
		if parties != nil {
			if _, ok := parties[pk]; !ok {
				continue
			}
		}
		gc.add(gk, g.value(r), pk, r.Party, r.VoteCount)
	}
	return gc
}

// WinnersBy picks, per section or district, the party of parties with the
// strictly greatest positive-vote sum. On a tie the party seen first in
// records keeps the win. An empty parties list considers every party.
// Groups are returned in first-seen order.
func WinnersBy(g Grouping, records []model.VoteRecord, parties []string, opts ...Option) []Winner {
	gc := group(g, records, foldSet(parties), buildOptions(opts))
	out := make([]Winner, 0, len(gc.groups.labels))
	for i, label := range gc.groups.labels {
		pc := gc.parties[i]
		best := 0
		for j := 1; j < len(pc.sums); j++ {
			if pc.sums[j] > pc.sums[best] {
				best = j
			}
		}
		out = append(out, Winner{Group: label, Party: pc.labels[best], Votes: pc.sums[best]})
	}
	return out
}

// CountWins tallies winners per party in the order of parties, including
// parties that won nothing.
func CountWins(winners []Winner, parties []string) []WinCount {
	out := make([]WinCount, len(parties))
	pos := make(map[string]int, len(parties))
	for i, p := range parties {
		out[i].Party = p
		k := keys.Normalize(keys.Party, p)
		if _, ok := pos[k]; !ok {
			pos[k] = i
		}
	}
	for _, w := range winners {
		if i, ok := pos[keys.Normalize(keys.Party, w.Party)]; ok {
			out[i].Wins++
		}
	}
	return out
}

// VoteShareRanges buckets each district's share of positive votes for every
// party in parties. Districts with no positive votes are skipped. The result
// holds one entry per party and bucket, parties first.
func VoteShareRanges(records []model.VoteRecord, parties []string, opts ...Option) []RangeCount {
	gc := group(GroupDistrict, records, nil, buildOptions(opts))
	out := make([]RangeCount, 0, len(parties)*len(Ranges))
	for _, p := range parties {
		pk := keys.Normalize(keys.Party, p)
		counts := make(map[string]int, len(Ranges))
		for i, sum := range gc.groups.sums {
			if sum == 0 {
				continue
			}
			counts[bucket(pct(gc.parties[i].get(pk), sum))]++
		}
		for _, r := range Ranges {
			out = append(out, RangeCount{Party: p, Range: r, Count: counts[r]})
		}
	}
	return out
}
