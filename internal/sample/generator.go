package sample

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	circuitStride   = 100
	foreignCircuit  = 99
	maxBlank        = 3
	maxNull         = 2
	maxAttached     = 3
	maxForeignOnly  = 5
	weightBase      = 1
	weightSpread    = 10
	weightNoise     = 3
	extraOfficeCast = 1
)

var (
	rollHeader  = []string{"cod_circ", "distrito", "nombre_distrito", "establecimiento", "nro_mesa", "id_persona"}
	tallyHeader = []string{"Distrito", "Establecimiento", "Mesa", "Agrupacion", "tipoVoto", "votos", "Cargo"}
)

// district is everything generated for one municipality.
type district struct {
	m       municipality
	native  [][]string
	foreign [][]string
	tally   [][]string

	tables          int
	foreignOnly     int
	attached        int
	nativeElectors  int
	foreignElectors int
	votes           map[string]int
	blank           int
	null            int
}

func (d *district) electors() int { return d.nativeElectors + d.foreignElectors }

// generateDistricts builds every municipality concurrently. Each one draws
// from its own seeded source so the output does not depend on scheduling.
func generateDistricts(ctx context.Context, cfg Config, ms []municipality) ([]*district, error) {
	type result struct {
		index int
		d     *district
		err   error
	}

	jobs := make(chan int)
	results := make(chan result, len(ms))
	workers := min(max(cfg.Workers, 1), len(ms))

	for w := 0; w < workers; w++ {
		go func() {
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{index: i, err: err}
					continue
				}
				results <- result{index: i, d: newGenerator(cfg, ms[i]).run()}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for i := range ms {
			jobs <- i
		}
	}()

	out := make([]*district, len(ms))
	for range ms {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("sample generation cancelled: %w", ctx.Err())
		case r := <-results:
			if r.err != nil {
				return nil, fmt.Errorf("generate %s: %w", ms[r.index].Name, r.err)
			}
			out[r.index] = r.d
		}
	}
	return out, nil
}

type generator struct {
	cfg     Config
	rng     *rand.Rand
	d       *district
	weights []int
	voter   int
}

func newGenerator(cfg Config, m municipality) *generator {
	g := &generator{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(cfg.Seed, uint64(m.Code))),
		d:   &district{m: m, votes: make(map[string]int, len(Parties))},
	}
	g.weights = make([]int, len(Parties))
	for i := range g.weights {
		g.weights[i] = weightBase + g.rng.IntN(weightSpread)
	}
	return g
}

func (g *generator) run() *district {
	table := 0
	for f := 0; f < g.cfg.FacilitiesPerDist; f++ {
		circuit := g.d.m.Code*circuitStride + f + 1
		facility := fmt.Sprintf(facilityNames[f%len(facilityNames)], f+1)
		for t := 0; t < g.cfg.TablesPerFacility; t++ {
			table++
			g.mesa(circuit, facility, table)
		}
	}
	for f := 0; f < g.cfg.ForeignOnly; f++ {
		table++
		circuit := g.d.m.Code*circuitStride + foreignCircuit
		facility := fmt.Sprintf("Anexo Consular %d", f+1)
		n := 1 + g.rng.IntN(maxForeignOnly)
		g.voters(&g.d.foreign, circuit, facility, table, n)
		g.d.foreignOnly++
		g.d.foreignElectors += n
	}
	return g.d
}

// mesa writes one native polling table, its optional foreign electors and
// its tally lines.
func (g *generator) mesa(circuit int, facility string, table int) {
	native := g.cfg.MinElectors + g.rng.IntN(g.cfg.MaxElectors-g.cfg.MinElectors+1)
	g.voters(&g.d.native, circuit, facility, table, native)
	g.d.tables++
	g.d.nativeElectors += native

	foreign := 0
	if g.rng.Float64() < g.cfg.ForeignShare {
		foreign = 1 + g.rng.IntN(maxAttached)
		g.voters(&g.d.foreign, circuit, facility, table, foreign)
		g.d.attached++
		g.d.foreignElectors += foreign
	}
	g.ballots(facility, table, native+foreign)
}

func (g *generator) voters(dst *[][]string, circuit int, facility string, table, n int) {
	for i := 0; i < n; i++ {
		g.voter++
		id := uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%d/%d/%d", g.cfg.Seed, g.d.m.Code, g.voter))
		*dst = append(*dst, []string{
			g.circuit(circuit),
			g.code(g.d.m.Code),
			g.text(g.d.m.Name),
			g.text(facility),
			g.code(table),
			id.String(),
		})
	}
}

// ballots splits the table's turnout into blank, null and per-party votes
// using the district weights with a little per-table noise.
func (g *generator) ballots(facility string, table, electors int) {
	cast := int(float64(electors)*g.cfg.Turnout + 0.5)
	blank, null := g.rng.IntN(maxBlank+1), g.rng.IntN(maxNull+1)
	if blank+null > cast {
		blank, null = 0, 0
	}
	positive := cast - blank - null

	w := make([]int, len(g.weights))
	total := 0
	for i, base := range g.weights {
		w[i] = base + g.rng.IntN(weightNoise)
		total += w[i]
	}
	split := make([]int, len(w))
	rest := positive
	for i := range w {
		split[i] = positive * w[i] / total
		rest -= split[i]
	}
	split[0] += rest

	mesa := strconv.Itoa(table)
	for i, party := range Parties {
		g.d.tally = append(g.d.tally, []string{g.d.m.Name, facility, mesa, party, "positivo", strconv.Itoa(split[i]), office})
		g.d.votes[party] += split[i]
	}
	if blank > 0 {
		g.d.tally = append(g.d.tally, []string{g.d.m.Name, facility, mesa, "", "blancos", strconv.Itoa(blank), office})
		g.d.blank += blank
	}
	if null > 0 {
		g.d.tally = append(g.d.tally, []string{g.d.m.Name, facility, mesa, "", "nulo", strconv.Itoa(null), office})
		g.d.null += null
	}
	g.d.tally = append(g.d.tally, []string{g.d.m.Name, facility, mesa, Parties[0], "positivo", strconv.Itoa(extraOfficeCast), otherOffice})
}

// circuit spells a circuit code with a varying number of leading zeros.
func (g *generator) circuit(c int) string {
	if !g.cfg.Quirks {
		return fmt.Sprintf("%04d", c)
	}
	width := len(strconv.Itoa(c)) + g.rng.IntN(3)
	return fmt.Sprintf("%0*d", width, c)
}

// code spells an integer code, sometimes float formatted.
func (g *generator) code(n int) string {
	if g.cfg.Quirks && g.rng.IntN(2) == 0 {
		return strconv.Itoa(n) + ".0"
	}
	return strconv.Itoa(n)
}

// text respells a name: upper case, without accents or with doubled spaces.
func (g *generator) text(s string) string {
	if !g.cfg.Quirks {
		return s
	}
	switch g.rng.IntN(4) {
	case 1:
		return strings.ToUpper(s)
	case 2:
		return stripAccents(s)
	case 3:
		return strings.Replace(s, " ", "  ", 1)
	}
	return s
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
