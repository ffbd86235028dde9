package source

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const (
	encUTF8        = "utf-8"
	encLatin1      = "iso-8859-1"
	encWindows1252 = "windows-1252"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readSource returns the raw bytes of the descriptor's CSV, opening the ZIP
// member when the path is an archive.
func readSource(d Descriptor) ([]byte, string, error) {
	if d.Path == "" {
		return nil, "", ErrEmptyPath
	}
	if !isZip(d.Path) {
		b, err := os.ReadFile(d.Path)
		return b, d.Path, err
	}

	zr, err := zip.OpenReader(d.Path)
	if err != nil {
		return nil, d.Path, err
	}
	defer func() { _ = zr.Close() }()

	f := pickMember(zr.File, d.Member)
	if f == nil {
		return nil, d.Path, fmt.Errorf("%s: %w (member %q)", d.Path, ErrNoMember, d.Member)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, d.Path, err
	}
	defer func() { _ = rc.Close() }()

	b, err := io.ReadAll(rc)
	return b, d.Path + "!" + f.Name, err
}

func isZip(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zip")
}

func pickMember(files []*zip.File, member string) *zip.File {
	for _, f := range files {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		if member != "" {
			if f.Name == member || filepath.Base(f.Name) == member {
				return f
			}
			continue
		}
		if strings.EqualFold(filepath.Ext(f.Name), ".csv") {
			return f
		}
	}
	return nil
}

// decode converts raw bytes to UTF-8 text trying UTF-8, ISO-8859-1 and
// Windows-1252 in that order. A legacy decoding is rejected when it yields C1
// control characters or replacement runes, which is how bytes unassigned in
// Windows-1252 surface.
func decode(raw []byte, file string) (string, string, error) {
	if utf8.Valid(raw) {
		return string(bytes.TrimPrefix(raw, utf8BOM)), encUTF8, nil
	}
	if s, err := charmap.ISO8859_1.NewDecoder().Bytes(raw); err == nil && !hasC1(s) {
		return string(s), encLatin1, nil
	}
	if s, err := charmap.Windows1252.NewDecoder().Bytes(raw); err == nil && !hasC1(s) && !bytes.ContainsRune(s, utf8.RuneError) {
		return string(s), encWindows1252, nil
	}
	return "", "", &EncodingError{File: file, Tried: []string{encUTF8, encLatin1, encWindows1252}}
}

func hasC1(s []byte) bool {
	for _, r := range string(s) {
		if r >= 0x80 && r <= 0x9F {
			return true
		}
	}
	return false
}

// sniffComma picks the most frequent candidate separator in the header line,
// ignoring quoted text. Comma wins ties and empty headers.
func sniffComma(text string) rune {
	line := text
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		line = text[:i]
	}
	counts := map[rune]int{}
	quoted := false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case !quoted && (r == ',' || r == ';' || r == '\t' || r == '|'):
			counts[r]++
		}
	}
	best, n := ',', counts[',']
	for _, r := range []rune{';', '\t', '|'} {
		if counts[r] > n {
			best, n = r, counts[r]
		}
	}
	return best
}
