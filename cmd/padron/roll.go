package main

import (
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/padron/internal/adapters/export"
	app "github.com/okian/padron/internal/app"
	"github.com/okian/padron/pkg/logger"
)

const (
	mesasFile    = "mesas_consolidadas.csv"
	registryFile = "mesas_por_seccion.csv"
)

// stepResult is the machine-readable outcome of a table-producing step.
type stepResult struct {
	Output  string         `json:"output"`
	Rows    int            `json:"rows"`
	Summary app.RunSummary `json:"summary"`
}

func (c *cli) buildMesasCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "build-mesas",
		Short: "Consolidate native and foreign rolls into one table per polling table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mt, err := c.svc.BuildMesas(cmd.Context())
			if err != nil {
				return err
			}
			return c.writeStep(cmd, c.outPath(out, mesasFile), mt)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "CSV output path (default <output_dir>/"+mesasFile+")")
	return cmd
}

func (c *cli) assignSectionsCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "assign-sections",
		Short: "Deduplicate the facility registry and assign electoral sections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mt, err := c.svc.AssignSections(cmd.Context())
			if err != nil {
				return err
			}
			return c.writeStep(cmd, c.outPath(out, registryFile), mt)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "CSV output path (default <output_dir>/"+registryFile+")")
	return cmd
}

func (c *cli) outPath(flag, name string) string {
	if flag != "" {
		return flag
	}
	return filepath.Join(c.cfg.OutputDir, name)
}

func (c *cli) writeStep(cmd *cobra.Command, path string, mt *app.MesaTable) error {
	if err := export.ToFile(path, func(w io.Writer) error { return export.WriteMesas(w, mt.Rows) }); err != nil {
		return err
	}
	c.log.Info(cmd.Context(), "table written", logger.String("path", path), logger.Int("rows", len(mt.Rows)))

	s := mt.Summary
	tbl := table{header: []string{"FIELD", "VALUE"}}
	tbl.add("run", s.RunID)
	tbl.add("output", path)
	tbl.add("rows", count(len(mt.Rows)))
	tbl.add("sources", strings.Join(s.Sources, ", "))
	tbl.add("coerced cells", count(s.Coerced))
	tbl.add("collapsed groups", count(s.Dedupe.CollapsedGroups))
	tbl.add("collapsed rows", count(s.Dedupe.CollapsedRows))
	tbl.add("foreign attached", count(s.Foreign.Attached))
	tbl.add("foreign synthesized", count(s.Foreign.Synthesized))
	tbl.add("unmapped rows", count(s.UnmappedRows()))
	tbl.add("conflicts", strconv.Itoa(len(s.Conflicts)))
	for _, d := range s.Diagnostics {
		tbl.add("diagnostic", d)
	}
	return c.emit(cmd, stepResult{Output: path, Rows: len(mt.Rows), Summary: s}, tbl)
}

func (c *cli) deriveSectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "derive-sections",
		Short: "Rebuild the section reference from the reference extract",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref, err := c.svc.DeriveSections(cmd.Context())
			if err != nil {
				return err
			}
			tbl := table{header: []string{"SECTION", "MUNICIPALITIES"}}
			for _, s := range ref.Sections {
				tbl.add(s.Name, strings.Join(s.Municipalities, ", "))
			}
			return c.emit(cmd, ref, tbl)
		},
	}
}

func (c *cli) coverageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coverage",
		Short: "Compare roll municipalities with the section reference",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, err := c.svc.Coverage(cmd.Context())
			if err != nil {
				return err
			}
			tbl := table{header: []string{"STATUS", "MUNICIPALITY"}}
			for _, m := range rep.MissingFromReference {
				tbl.add("missing from reference", m)
			}
			for _, m := range rep.UnusedInReference {
				tbl.add("unused in reference", m)
			}
			return c.emit(cmd, rep, tbl)
		},
	}
}

func (c *cli) keyStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "key-stats",
		Short: "Count unique raw and normalized polling-table keys",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ks, err := c.svc.KeyStats(cmd.Context())
			if err != nil {
				return err
			}
			tbl := table{header: []string{"FIELD", "VALUE"}}
			tbl.add("rows", count(ks.Rows))
			tbl.add("raw keys", count(ks.RawKeys))
			tbl.add("normalized keys", count(ks.NormalizedKeys))
			tbl.add("collisions", count(ks.Collisions))
			return c.emit(cmd, ks, tbl)
		},
	}
}

func (c *cli) rollStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roll-stats",
		Short: "Summarize the consolidated roll",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := c.svc.RollStats(cmd.Context())
			if err != nil {
				return err
			}
			tbl := table{header: []string{"FIELD", "VALUE"}}
			tbl.add("districts", count(st.Districts))
			tbl.add("circuits", count(st.Circuits))
			tbl.add("facilities", count(st.Facilities))
			tbl.add("tables", count(st.Tables))
			tbl.add("native tables", count(st.NativeTables))
			tbl.add("foreign tables", count(st.ForeignTables))
			tbl.add("native electors", count(st.NativeElectors))
			tbl.add("foreign electors", count(st.ForeignElectors))
			tbl.add("total electors", count(st.TotalElectors))
			return c.emit(cmd, st, tbl)
		},
	}
}
