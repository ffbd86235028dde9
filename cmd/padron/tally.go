package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/padron/internal/adapters/export"
	"github.com/okian/padron/internal/domain/outlier"
	"github.com/okian/padron/internal/domain/votes"
	"github.com/okian/padron/pkg/logger"
)

func (c *cli) totalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "Positive votes and share per party",
		RunE: func(cmd *cobra.Command, _ []string) error {
			shares, err := c.svc.Totals(cmd.Context())
			if err != nil {
				return err
			}
			tbl := table{header: []string{"PARTY", "VOTES", "SHARE"}}
			for _, s := range shares {
				tbl.add(s.Party, count(s.Votes), pct(s.Pct))
			}
			return c.emit(cmd, shares, tbl)
		},
	}
}

func (c *cli) overviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Valid and null votes per office and participation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ov, err := c.svc.Overview(cmd.Context())
			if err != nil {
				return err
			}
			tbl := table{header: []string{"OFFICE", "VALID", "NULL", "TOTAL"}}
			for _, o := range ov.Offices {
				tbl.add(o.Office, count(o.Valid), count(o.Null), count(o.Total()))
			}
			tbl.add("ALL", count(ov.ValidVotes), count(ov.NullVotes), count(ov.TotalVotes))
			tbl.add("", "", "electors", count(ov.Electors))
			tbl.add("", "", "participation", pct(ov.Participation))
			return c.emit(cmd, ov, tbl)
		},
	}
}

// grouping registers the --by flag shared by the grouped queries.
func grouping(cmd *cobra.Command) *string {
	return cmd.Flags().String("by", "section", "group by section or district")
}

type winnersResult struct {
	Winners []votes.Winner   `json:"winners"`
	Counts  []votes.WinCount `json:"counts"`
}

func (c *cli) winnersCmd() *cobra.Command {
	var subset bool
	cmd := &cobra.Command{
		Use:   "winners",
		Short: "Winning focus party per section or district",
	}
	by := grouping(cmd)
	cmd.Flags().BoolVar(&subset, "subset", false, "only the configured subset districts (AMBA)")
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		g, err := votes.ParseGrouping(*by)
		if err != nil {
			return err
		}
		ws, counts, err := c.svc.Winners(cmd.Context(), g, subset)
		if err != nil {
			return err
		}
		tbl := table{header: []string{strings.ToUpper(g.String()), "WINNER", "VOTES"}}
		for _, w := range ws {
			tbl.add(w.Group, w.Party, count(w.Votes))
		}
		for _, wc := range counts {
			tbl.add("wins", wc.Party, strconv.Itoa(wc.Wins))
		}
		return c.emit(cmd, winnersResult{Winners: ws, Counts: counts}, tbl)
	}
	return cmd
}

func (c *cli) rangesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ranges",
		Short: "Districts per vote-share range for the focus parties",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := c.svc.Ranges(cmd.Context())
			if err != nil {
				return err
			}
			tbl := table{header: []string{"PARTY", "RANGE", "DISTRICTS"}}
			for _, r := range rc {
				tbl.add(r.Party, r.Range, strconv.Itoa(r.Count))
			}
			return c.emit(cmd, rc, tbl)
		},
	}
}

func (c *cli) shareCmd() *cobra.Command {
	var party string
	cmd := &cobra.Command{
		Use:   "share",
		Short: "One party's share of valid votes per section or district",
	}
	by := grouping(cmd)
	cmd.Flags().StringVar(&party, "party", "", "party name (required)")
	_ = cmd.MarkFlagRequired("party")
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		g, err := votes.ParseGrouping(*by)
		if err != nil {
			return err
		}
		shares, err := c.svc.PartyShare(cmd.Context(), g, party)
		if err != nil {
			return err
		}
		tbl := table{header: []string{strings.ToUpper(g.String()), "VOTES", "VALID", "SHARE"}}
		for _, s := range shares {
			tbl.add(s.Group, count(s.PartyVotes), count(s.ValidVotes), pct(s.Pct))
		}
		return c.emit(cmd, shares, tbl)
	}
	return cmd
}

func (c *cli) breakdownCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Every party's votes in one section or district",
	}
	by := grouping(cmd)
	cmd.Flags().StringVar(&name, "name", "", "section or district name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		g, err := votes.ParseGrouping(*by)
		if err != nil {
			return err
		}
		b, ok, err := c.svc.Breakdown(cmd.Context(), g, name)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s %q not found in tally", g, name)
		}
		tbl := table{header: []string{"PARTY", "VOTES", "SHARE"}}
		for _, l := range b.Lines {
			tbl.add(l.Party, count(l.Votes), pct(l.Pct))
		}
		tbl.add("TOTAL", count(b.Total), "")
		return c.emit(cmd, b, tbl)
	}
	return cmd
}

type outliersResult struct {
	Params     outlier.Params     `json:"params"`
	Output     string             `json:"output,omitempty"`
	Rows       []outlier.Row      `json:"rows"`
	Diagnostic outlier.Diagnostic `json:"diagnostic"`
}

func (c *cli) outliersCmd() *cobra.Command {
	var (
		out    string
		params outlier.Params
	)
	cmd := &cobra.Command{
		Use:   "outliers",
		Short: "Tables whose party share deviates from their facility's share within a window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := c.svc.OutlierParams()
			f := cmd.Flags()
			if f.Changed("party") {
				p.TargetParty = params.TargetParty
			}
			if f.Changed("min") {
				p.MinDeviationPP = params.MinDeviationPP
			}
			if f.Changed("max") {
				p.MaxDeviationPP = params.MaxDeviationPP
			}
			if f.Changed("blanks") {
				p.IncludeBlanks = params.IncludeBlanks
			}

			rows, diag, err := c.svc.Outliers(cmd.Context(), p)
			if err != nil {
				return err
			}
			if out != "" {
				if err := export.ToFile(out, func(w io.Writer) error { return export.WriteOutliers(w, rows) }); err != nil {
					return err
				}
				c.log.Info(cmd.Context(), "outliers written", logger.String("path", out), logger.Int("rows", len(rows)))
			}

			tbl := table{header: []string{"DISTRICT", "FACILITY", "TABLE", "TABLE %", "FACILITY %", "DEVIATION PP"}}
			for _, r := range rows {
				tbl.add(r.District, r.Facility, r.Table, num(r.PctTable), num(r.PctFacility), num(r.DeviationPP))
			}
			if diag.PartyMissing {
				tbl.add("party not found; known:", strings.Join(diag.KnownParties, ", "), "", "", "", "")
			}
			return c.emit(cmd, outliersResult{Params: p, Output: out, Rows: rows, Diagnostic: diag}, tbl)
		},
	}
	f := cmd.Flags()
	f.StringVar(&params.TargetParty, "party", "", "target party (default from config)")
	f.Float64Var(&params.MinDeviationPP, "min", 0, "minimum deviation in percentage points (default from config)")
	f.Float64Var(&params.MaxDeviationPP, "max", 0, "maximum deviation in percentage points (default from config)")
	f.BoolVar(&params.IncludeBlanks, "blanks", false, "count blank votes in the denominator")
	f.StringVar(&out, "out", "", "also write the rows as CSV")
	return cmd
}
