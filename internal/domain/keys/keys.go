// Package keys canonicalizes the identifying fields of polling-table and
// tally records so rows from differently formatted extracts can be grouped
// by exact string equality.
//
// Normalize is total and pure: any input, including nil, yields a string and
// the same input always yields the same string.
package keys

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Field names the kind of value being normalized.
type Field int

const (
	CircuitCode Field = iota
	TableNumber
	District
	FacilityName
	Party
	VoteKind
)

func (f Field) String() string {
	switch f {
	case CircuitCode:
		return "circuit_code"
	case TableNumber:
		return "table_number"
	case District:
		return "district"
	case FacilityName:
		return "facility_name"
	case Party:
		return "party"
	case VoteKind:
		return "vote_kind"
	default:
		return "field(" + strconv.Itoa(int(f)) + ")"
	}
}

// Numeric reports whether f holds a code that arrives as a number in some extracts.
func (f Field) Numeric() bool {
	return f == CircuitCode || f == TableNumber || f == District
}

// Key is a canonical grouping key. It is never displayed.
type Key string

const separator = "|"

// Normalize canonicalizes raw according to kind.
//
// Numeric-like fields are stringified, lose one trailing ".0" and, for
// circuit codes only, their leading zeros. Text fields are folded to lower
// case without diacritics, with every run of non alphanumeric characters
// collapsed to one space.
func Normalize(kind Field, raw any) string {
	s := stringify(raw)
	if kind.Numeric() {
		return numeric(kind, s)
	}
	return Fold(s)
}

func numeric(kind Field, s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".0")
	if kind != CircuitCode || s == "" {
		return s
	}
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// Fold is the text normalization shared by facility, party and vote kind.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), cases.Fold())
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = strings.ToLower(s)
	}

	var b strings.Builder
	b.Grow(len(folded))
	space := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}

func stringify(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return formatFloat(v)
	case float32:
		return formatFloat(float64(v))
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Composite joins already normalized parts into a Key.
func Composite(parts ...string) Key {
	return Key(strings.Join(parts, separator))
}

// MesaKey builds the polling-table identity from raw values.
// voterKind is part of the key; pass "" to build the cross-kind match key.
func MesaKey(circuit, district, facility, table any, voterKind string) Key {
	parts := []string{
		Normalize(CircuitCode, circuit),
		Normalize(District, district),
		Normalize(FacilityName, facility),
		Normalize(TableNumber, table),
	}
	if voterKind != "" {
		parts = append(parts, voterKind)
	}
	return Composite(parts...)
}

// TableLess orders raw table numbers: numerically when both normalize to
// numbers, numbers before text, and textually otherwise.
func TableLess(a, b string) bool {
	na, ea := strconv.ParseFloat(Normalize(TableNumber, a), 64)
	nb, eb := strconv.ParseFloat(Normalize(TableNumber, b), 64)
	if ea == nil && eb == nil {
		return na < nb
	}
	if (ea == nil) != (eb == nil) {
		return ea == nil
	}
	return a < b
}

// Parts splits a Key back into its components. It exists for diagnostics only.
func (k Key) Parts() []string {
	if k == "" {
		return nil
	}
	return strings.Split(string(k), separator)
}
