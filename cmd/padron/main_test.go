package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/okian/padron/internal/adapters/export"
	"github.com/okian/padron/internal/domain/votes"
	"github.com/okian/padron/internal/sample"
	. "github.com/smartystreets/goconvey/convey"
)

// run executes the CLI with args and returns what it printed.
func run(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// generate writes a sample into dir and a config file pointing at it.
func generate(t *testing.T, dir string) (*sample.Manifest, string) {
	t.Helper()
	out, err := run("-o", "json", "sample", "--dir", dir, "--seed", "7")
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	var m sample.Manifest
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	cfg := fmt.Sprintf(`native_roll_path: %q
foreign_roll_path: %q
tally_path: %q
elector_summary_path: %q
section_reference_path: %q
output_dir: %q
tally_offices:
  - DIPUTADOS PROVINCIALES
log_level: warn
`, m.NativeRoll, m.ForeignRoll, m.Tally, m.ElectorSummary, m.Reference, filepath.Join(dir, "out"))
	path := filepath.Join(dir, "padron.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &m, path
}

func TestCLI(t *testing.T) {
	t.Setenv("PADRON_CONFIG", "")

	Convey("Given a generated sample and a config pointing at it", t, func() {
		dir := t.TempDir()
		m, cfgPath := generate(t, dir)

		Convey("When running build-mesas", func() {
			out, err := run("--config", cfgPath, "-o", "json", "build-mesas")
			So(err, ShouldBeNil)

			var res stepResult
			So(json.Unmarshal([]byte(out), &res), ShouldBeNil)

			Convey("Then the consolidated CSV is written with one line per mesa", func() {
				So(res.Output, ShouldEqual, filepath.Join(dir, "out", mesasFile))
				So(res.Rows, ShouldEqual, m.Tables+m.ForeignOnlyTables)

				f, err := os.Open(res.Output)
				So(err, ShouldBeNil)
				defer f.Close()
				sc := bufio.NewScanner(f)
				lines := 0
				for sc.Scan() {
					if lines == 0 {
						So(sc.Text(), ShouldEqual, strings.Join(export.MesaColumns, ","))
					}
					lines++
				}
				So(lines, ShouldEqual, res.Rows+1)
			})

			Convey("Then the run summary reports the merge", func() {
				So(res.Summary.RunID, ShouldNotBeBlank)
				So(res.Summary.Foreign.Synthesized, ShouldEqual, m.ForeignOnlyTables)
			})
		})

		Convey("When querying totals", func() {
			out, err := run("--config", cfgPath, "-o", "json", "totals")
			So(err, ShouldBeNil)

			var shares []votes.PartyShare
			So(json.Unmarshal([]byte(out), &shares), ShouldBeNil)

			Convey("Then every party matches the generated votes", func() {
				So(shares, ShouldNotBeEmpty)
				for _, s := range shares {
					So(s.Votes, ShouldEqual, m.Votes[s.Party])
				}
			})
		})

		Convey("When rendering a table", func() {
			out, err := run("--config", cfgPath, "-o", "table", "roll-stats")
			So(err, ShouldBeNil)

			Convey("Then aligned rows are printed", func() {
				So(out, ShouldStartWith, "FIELD")
				So(out, ShouldContainSubstring, "total electors")
			})
		})

		Convey("When asking for an unknown breakdown", func() {
			_, err := run("--config", cfgPath, "breakdown", "--name", "Octava")

			Convey("Then the command fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "not found")
			})
		})

		Convey("When the outlier window is inverted", func() {
			_, err := run("--config", cfgPath, "outliers", "--min=5", "--max=-5")

			Convey("Then validation rejects it", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When writing outliers to CSV", func() {
			path := filepath.Join(dir, "out", "outliers.csv")
			out, err := run("--config", cfgPath, "-o", "json", "outliers", "--min=-100", "--max=100", "--out", path)
			So(err, ShouldBeNil)

			var res outliersResult
			So(json.Unmarshal([]byte(out), &res), ShouldBeNil)

			Convey("Then every table of the target party is listed", func() {
				So(res.Params.MinDeviationPP, ShouldEqual, -100)
				So(res.Rows, ShouldHaveLength, m.Tables)
				_, err := os.Stat(path)
				So(err, ShouldBeNil)
			})
		})

		Convey("When serving HTTP", func() {
			c := &cli{configPath: cfgPath, output: outputJSON}
			cmd := &cobra.Command{}
			cmd.SetContext(context.Background())
			cmd.SetErr(&bytes.Buffer{})
			So(c.setup(cmd, nil), ShouldBeNil)

			srv := httptest.NewServer(c.handler())
			defer srv.Close()

			Convey("Then the query endpoints answer", func() {
				resp, err := http.Get(srv.URL + "/totals")
				So(err, ShouldBeNil)
				defer resp.Body.Close()
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestCLI_BadOutput(t *testing.T) {
	Convey("Given an unknown output format", t, func() {
		_, err := run("-o", "xml", "totals")

		Convey("Then setup fails before touching any source", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unknown output format")
		})
	})
}
