package source

import (
	"strings"

	"github.com/okian/padron/internal/domain/keys"
)

// column describes one logical field and the header spellings that satisfy it.
// Candidates and exclusions are compared against folded headers, so
// "cod_circ", "COD CIRC" and "Cód. Circ" are the same header.
type column struct {
	field      string
	candidates []string
	exclude    []string
	required   bool
}

// layout is the result of resolving a schema against a header row: the
// column index of each logical field, -1 for absent optional fields.
type layout struct {
	index map[string]int
	names map[string]string
}

// resolve matches every column of schema against headers. Exact matches win
// over substring matches; a header claimed by one field is not offered to
// later fields.
func resolve(headers []string, schema []column, file string) (layout, error) {
	folded := make([]string, len(headers))
	for i, h := range headers {
		folded[i] = keys.Fold(h)
	}
	l := layout{index: make(map[string]int, len(schema)), names: make(map[string]string, len(schema))}
	claimed := make(map[int]bool, len(schema))

	for _, c := range schema {
		idx := match(folded, c, claimed)
		if idx < 0 && c.required {
			return layout{}, &SchemaError{Field: c.field, File: file, Headers: headers}
		}
		l.index[c.field] = idx
		if idx >= 0 {
			claimed[idx] = true
			l.names[c.field] = headers[idx]
		}
	}
	return l, nil
}

func match(folded []string, c column, claimed map[int]bool) int {
	usable := func(i int) bool {
		if claimed[i] || folded[i] == "" {
			return false
		}
		for _, x := range c.exclude {
			if strings.Contains(folded[i], x) {
				return false
			}
		}
		return true
	}
	for _, cand := range c.candidates {
		for i, h := range folded {
			if h == cand && usable(i) {
				return i
			}
		}
	}
	for _, cand := range c.candidates {
		for i, h := range folded {
			if strings.Contains(h, cand) && usable(i) {
				return i
			}
		}
	}
	return -1
}

func (l layout) has(field string) bool { return l.index[field] >= 0 }

// get returns the trimmed cell for field, or "" when the field is absent or
// the record is short.
func (l layout) get(rec []string, field string) string {
	i, ok := l.index[field]
	if !ok || i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
