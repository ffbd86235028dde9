package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/padron/internal/sample"
)

func (c *cli) sampleCmd() *cobra.Command {
	cfg := sample.DefaultConfig()
	var plain, utf8, unzipped bool
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a synthetic data set with real-world extract quirks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.Quirks = !plain
			cfg.Latin1 = !utf8
			cfg.Zip = !unzipped
			m, err := sample.Run(cmd.Context(), cfg, sample.WithLogger(c.log.Named("sample")))
			if err != nil {
				return err
			}
			tbl := table{header: []string{"FILE", "PATH"}}
			tbl.add("native roll", m.NativeRoll)
			tbl.add("foreign roll", m.ForeignRoll)
			tbl.add("tally", m.Tally)
			tbl.add("elector summary", m.ElectorSummary)
			tbl.add("section reference", m.Reference)
			tbl.add("tables", count(m.Tables))
			tbl.add("electors", count(m.TotalElectors()))
			return c.emit(cmd, m, tbl)
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.Dir, "dir", cfg.Dir, "output directory")
	f.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	f.IntVar(&cfg.Districts, "districts", cfg.Districts, "municipalities to generate (0 for all)")
	f.IntVar(&cfg.FacilitiesPerDist, "facilities", cfg.FacilitiesPerDist, "facilities per municipality")
	f.IntVar(&cfg.TablesPerFacility, "tables", cfg.TablesPerFacility, "polling tables per facility")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent generators")
	f.BoolVar(&plain, "plain", false, "write canonical spellings only")
	f.BoolVar(&utf8, "utf8", false, "write the rolls as UTF-8")
	f.BoolVar(&unzipped, "no-zip", false, "write the rolls as plain CSV")
	return cmd
}
