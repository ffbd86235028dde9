// Package votes aggregates tally records into per-party totals, shares and
// winners. Every function is pure and groups parties, sections and districts
// by their normalized form while reporting the first spelling seen.
package votes

import (
	"math"
	"sort"

	"github.com/okian/padron/internal/domain/keys"
	"github.com/okian/padron/internal/domain/model"
)

// PartyTotal is the positive-vote sum of one party.
type PartyTotal struct {
	Party string `json:"party"`
	Votes int    `json:"votes"`
}

// PartyShare is a party's percentage of the positive votes.
type PartyShare struct {
	Party string  `json:"party"`
	Votes int     `json:"votes"`
	Pct   float64 `json:"pct"`
}

// counter sums values under normalized keys in first-seen order.
type counter struct {
	index  map[string]int
	labels []string
	sums   []int
}

func newCounter() *counter {
	return &counter{index: make(map[string]int)}
}

func (c *counter) add(key, label string, n int) {
	i, ok := c.index[key]
	if !ok {
		i = len(c.labels)
		c.index[key] = i
		c.labels = append(c.labels, label)
		c.sums = append(c.sums, 0)
	}
	c.sums[i] += n
}

func (c *counter) get(key string) int {
	if i, ok := c.index[key]; ok {
		return c.sums[i]
	}
	return 0
}

func (c *counter) total() int {
	t := 0
	for _, s := range c.sums {
		t += s
	}
	return t
}

// TotalsByParty sums POSITIVE votes per normalized party. The result is in
// first-seen order and each party is labelled with its first spelling.
func TotalsByParty(records []model.VoteRecord) []PartyTotal {
	c := newCounter()
	for _, r := range records {
		if r.VoteKind != model.VotePositive {
			continue
		}
		c.add(r.PartyKey(), r.Party, r.VoteCount)
	}
	out := make([]PartyTotal, len(c.labels))
	for i := range c.labels {
		out[i] = PartyTotal{Party: c.labels[i], Votes: c.sums[i]}
	}
	return out
}

// Percentages turns totals into shares of their sum, ordered by votes
// descending. It returns nil when the sum is zero.
func Percentages(totals []PartyTotal) []PartyShare {
	sum := 0
	for _, t := range totals {
		sum += t.Votes
	}
	if sum == 0 {
		return nil
	}
	out := make([]PartyShare, len(totals))
	for i, t := range totals {
		out[i] = PartyShare{Party: t.Party, Votes: t.Votes, Pct: pct(t.Votes, sum)}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Votes > out[b].Votes })
	return out
}

// Participation is votes as a percentage of electors, 0 when there are none.
func Participation(votes, electors int) float64 {
	return pct(votes, electors)
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// foldSet returns the normalized parties, or nil for an empty list.
func foldSet(parties []string) map[string]struct{} {
	if len(parties) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(parties))
	for _, p := range parties {
		set[keys.Normalize(keys.Party, p)] = struct{}{}
	}
	return set
}
