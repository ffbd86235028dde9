package sample

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/okian/padron/internal/config"
	"github.com/okian/padron/internal/domain/sections"
	"github.com/okian/padron/pkg/logger"
)

// Manifest lists the written files and the totals a correct pipeline run
// over them must reproduce.
type Manifest struct {
	Dir            string `json:"dir"`
	NativeRoll     string `json:"native_roll"`
	ForeignRoll    string `json:"foreign_roll"`
	Tally          string `json:"tally"`
	ElectorSummary string `json:"elector_summary"`
	Reference      string `json:"reference"`

	Districts         int `json:"districts"`
	Tables            int `json:"tables"`
	ForeignOnlyTables int `json:"foreign_only_tables"`
	AttachedTables    int `json:"attached_tables"`
	NativeElectors    int `json:"native_electors"`
	ForeignElectors   int `json:"foreign_electors"`
	// UnmappedTables counts native mesas in municipalities missing from the reference.
	UnmappedTables int      `json:"unmapped_tables"`
	Unmapped       []string `json:"unmapped"`

	Votes      map[string]int `json:"votes"`
	BlankVotes int            `json:"blank_votes"`
	NullVotes  int            `json:"null_votes"`
}

// TotalElectors is the native plus foreign elector count.
func (m *Manifest) TotalElectors() int { return m.NativeElectors + m.ForeignElectors }

// Apply points c at the generated files.
func (m *Manifest) Apply(c *config.Config) {
	c.NativeRollPath, c.NativeRollMember = m.NativeRoll, ""
	c.ForeignRollPath, c.ForeignRollMember = m.ForeignRoll, ""
	c.TallyPath, c.TallyMember = m.Tally, ""
	c.ElectorSummaryPath = m.ElectorSummary
	c.ElectorSeparator = ";"
	c.SectionReferencePath = m.Reference
	c.TallyOffices = []string{office}
}

// Run generates the data set described by cfg and writes it under cfg.Dir.
func Run(ctx context.Context, cfg Config, opts ...Option) (*Manifest, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := runOptions{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log
	ms := catalogue
	if cfg.Districts > 0 && cfg.Districts < len(ms) {
		ms = ms[:cfg.Districts]
	}
	log.Info(ctx, "generating sample extracts",
		logger.String("dir", cfg.Dir),
		logger.Int("districts", len(ms)),
		logger.Any("seed", cfg.Seed),
		logger.Bool("quirks", cfg.Quirks))

	ds, err := generateDistricts(ctx, cfg, ms)
	if err != nil {
		return nil, err
	}
	m := summarize(cfg, ds)
	if err := write(cfg, ds, m); err != nil {
		return nil, err
	}

	log.Info(ctx, "sample extracts written",
		logger.Int("tables", m.Tables),
		logger.Int("foreign_only", m.ForeignOnlyTables),
		logger.Int("electors", m.TotalElectors()),
		logger.Int("unmapped_tables", m.UnmappedTables))
	return m, nil
}

func summarize(cfg Config, ds []*district) *Manifest {
	rollExt := ".csv"
	if cfg.Zip {
		rollExt = ".zip"
	}
	m := &Manifest{
		Dir:            cfg.Dir,
		NativeRoll:     filepath.Join(cfg.Dir, "padron_nativos"+rollExt),
		ForeignRoll:    filepath.Join(cfg.Dir, "padron_extranjeros"+rollExt),
		Tally:          filepath.Join(cfg.Dir, "Base_Elecciones.csv"),
		ElectorSummary: filepath.Join(cfg.Dir, "ELECTORES.csv"),
		Reference:      filepath.Join(cfg.Dir, "secciones.yaml"),
		Districts:      len(ds),
		Votes:          make(map[string]int, len(Parties)),
	}
	for _, d := range ds {
		m.Tables += d.tables
		m.ForeignOnlyTables += d.foreignOnly
		m.AttachedTables += d.attached
		m.NativeElectors += d.nativeElectors
		m.ForeignElectors += d.foreignElectors
		m.BlankVotes += d.blank
		m.NullVotes += d.null
		for p, v := range d.votes {
			m.Votes[p] += v
		}
		if d.m.Section == "" {
			m.UnmappedTables += d.tables
			m.Unmapped = append(m.Unmapped, d.m.Name)
		}
	}
	return m
}

func write(cfg Config, ds []*district, m *Manifest) error {
	var native, foreign, tally, electors [][]string
	for _, d := range ds {
		native = append(native, d.native...)
		foreign = append(foreign, d.foreign...)
		tally = append(tally, d.tally...)
		electors = append(electors, []string{d.m.Name, thousands(d.electors())})
	}

	files := []struct {
		path, member string
		header       []string
		rows         [][]string
		comma        rune
		latin1, zip  bool
	}{
		{m.NativeRoll, "padron_nativos.csv", rollHeader, native, ',', cfg.Latin1, cfg.Zip},
		{m.ForeignRoll, "padron_extranjeros.csv", rollHeader, foreign, ',', cfg.Latin1, cfg.Zip},
		{m.Tally, "", tallyHeader, tally, ',', false, false},
		{m.ElectorSummary, "", []string{"Distrito", "Electores"}, electors, ';', false, false},
	}
	for _, f := range files {
		data, err := encodeCSV(f.header, f.rows, f.comma, f.latin1)
		if err != nil {
			return fmt.Errorf("encode %s: %w", f.path, err)
		}
		if err := writeExtract(f.path, f.member, data, f.zip); err != nil {
			return err
		}
	}
	return sections.SaveReference(m.Reference, reference(ds))
}

// reference groups the mapped municipalities by section, sections sorted by
// name and municipalities in catalogue order.
func reference(ds []*district) sections.Reference {
	by := map[string][]string{}
	for _, d := range ds {
		if d.m.Section != "" {
			by[d.m.Section] = append(by[d.m.Section], d.m.Name)
		}
	}
	names := make([]string, 0, len(by))
	for s := range by {
		names = append(names, s)
	}
	sort.Strings(names)
	ref := sections.Reference{Sections: make([]sections.Section, 0, len(names))}
	for _, s := range names {
		ref.Sections = append(ref.Sections, sections.Section{Name: s, Municipalities: by[s]})
	}
	return ref
}
