package votes

import (
	"fmt"
	"strings"

	"github.com/okian/padron/internal/domain/keys"
	"github.com/okian/padron/internal/domain/model"
)

// Grouping selects the record field results are grouped by.
type Grouping int

const (
	GroupSection Grouping = iota
	GroupDistrict
)

func (g Grouping) String() string {
	if g == GroupDistrict {
		return "district"
	}
	return "section"
}

// ParseGrouping accepts "section" or "district" in any case. An empty name
// selects GroupSection.
func ParseGrouping(name string) (Grouping, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "section", "seccion", "sección":
		return GroupSection, nil
	case "district", "distrito", "municipio":
		return GroupDistrict, nil
	}
	return GroupSection, fmt.Errorf("%w: %q", ErrUnknownGrouping, name)
}

// value returns the raw grouping value of r.
func (g Grouping) value(r model.VoteRecord) string {
	if g == GroupDistrict {
		return r.District
	}
	return r.Section
}

func (g Grouping) key(r model.VoteRecord) string {
	return groupKey(g.value(r))
}

// groupKey folds a section or district name. Districts sometimes arrive as
// float-formatted codes, so one trailing ".0" is dropped first.
func groupKey(s string) string {
	return keys.Fold(strings.TrimSuffix(strings.TrimSpace(s), ".0"))
}
