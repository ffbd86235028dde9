// Package export writes consolidated tables as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/okian/padron/internal/domain/model"
	"github.com/okian/padron/internal/domain/outlier"
)

// MesaColumns is the fixed header of the consolidated mesa table.
var MesaColumns = []string{
	"district", "section", "circuit_code", "facility_name",
	"table_number", "elector_count", "foreign_count", "voter_kind",
}

// OutlierColumns is the header of an outlier report.
var OutlierColumns = []string{
	"district", "facility_name", "table_number",
	"party_votes_table", "denom_table", "pct_table",
	"party_votes_facility", "denom_facility", "pct_facility", "deviation_pp",
}

// WriteMesas writes rows with MesaColumns. The district column carries the
// municipality name when the source had one.
func WriteMesas(w io.Writer, rows []model.PollingTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(MesaColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.Municipality(),
			r.Section,
			r.CircuitCode,
			r.FacilityName,
			r.TableNumber,
			strconv.Itoa(r.ElectorCount),
			strconv.Itoa(r.ForeignCount),
			string(r.VoterKind),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteOutliers writes an outlier report with percentages to one decimal.
func WriteOutliers(w io.Writer, rows []outlier.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(OutlierColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.District,
			r.Facility,
			r.Table,
			strconv.Itoa(r.PartyVotesTable),
			strconv.Itoa(r.DenomTable),
			pct(r.PctTable),
			strconv.Itoa(r.PartyVotesFacility),
			strconv.Itoa(r.DenomFacility),
			pct(r.PctFacility),
			pct(r.DeviationPP),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// ToFile runs write on a temporary file next to path and renames it over
// path once write and close succeed, so a failed run never leaves a partial
// file behind. Parent directories are created as needed.
func ToFile(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
