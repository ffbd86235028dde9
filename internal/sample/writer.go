package sample

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/encoding/charmap"

	"github.com/okian/padron/internal/adapters/export"
)

// archiveTime is stamped on ZIP members so archives are reproducible.
var archiveTime = time.Date(2025, time.September, 7, 0, 0, 0, 0, time.UTC)

// encodeCSV renders header and rows, optionally as ISO-8859-1.
func encodeCSV(header []string, rows [][]string, comma rune, latin1 bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = comma
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	if !latin1 {
		return buf.Bytes(), nil
	}
	out, err := charmap.ISO8859_1.NewEncoder().Bytes(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("encode iso-8859-1: %w", err)
	}
	return out, nil
}

// writeExtract writes data to path, inside a single-member ZIP when zipped.
func writeExtract(path, member string, data []byte, zipped bool) error {
	return export.ToFile(path, func(w io.Writer) error {
		if !zipped {
			_, err := w.Write(data)
			return err
		}
		zw := zip.NewWriter(w)
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: member, Method: zip.Deflate, Modified: archiveTime})
		if err != nil {
			return err
		}
		if _, err := fw.Write(data); err != nil {
			return err
		}
		return zw.Close()
	})
}

// thousands formats n with dot group separators, as the elector summary does.
func thousands(n int) string {
	return humanize.FormatInteger("#.###,", n)
}
