package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	outputAuto  = "auto"
	outputTable = "table"
	outputJSON  = "json"
)

// table is a header and its rows as display strings.
type table struct {
	header []string
	rows   [][]string
}

func (t *table) add(cells ...string) { t.rows = append(t.rows, cells) }

// emit writes v as JSON or tbl as aligned columns. auto picks the table for
// terminals and JSON for pipes.
func (c *cli) emit(cmd *cobra.Command, v any, tbl table) error {
	w := cmd.OutOrStdout()
	if c.asJSON(w) {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(tbl.header) > 0 {
		fmt.Fprintln(tw, strings.Join(tbl.header, "\t"))
	}
	for _, r := range tbl.rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func (c *cli) asJSON(w io.Writer) bool {
	switch c.output {
	case outputJSON:
		return true
	case outputTable:
		return false
	}
	f, ok := w.(*os.File)
	return !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// count formats n with dot thousands separators.
func count(n int) string { return humanize.FormatInteger("#.###,", n) }

func pct(v float64) string { return fmt.Sprintf("%.1f%%", v) }

func num(v float64) string { return fmt.Sprintf("%.1f", v) }
