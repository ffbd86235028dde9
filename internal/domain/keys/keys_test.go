package keys_test

import (
	"math"
	"sort"
	"testing"

	"github.com/okian/padron/internal/domain/keys"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalizeNumeric(t *testing.T) {
	Convey("Given numeric-like fields", t, func() {
		Convey("Circuit codes lose zero padding and one trailing .0", func() {
			So(keys.Normalize(keys.CircuitCode, "007"), ShouldEqual, keys.Normalize(keys.CircuitCode, "7"))
			So(keys.Normalize(keys.CircuitCode, "0007.0"), ShouldEqual, "7")
			So(keys.Normalize(keys.CircuitCode, " 0012A "), ShouldEqual, "12A")
			So(keys.Normalize(keys.CircuitCode, "000"), ShouldEqual, "0")
			So(keys.Normalize(keys.CircuitCode, 7.0), ShouldEqual, "7")
		})

		Convey("Table numbers and districts keep their zero padding", func() {
			So(keys.Normalize(keys.TableNumber, "3.0"), ShouldEqual, keys.Normalize(keys.TableNumber, "3"))
			So(keys.Normalize(keys.TableNumber, "03"), ShouldEqual, "03")
			So(keys.Normalize(keys.District, "001"), ShouldEqual, "001")
			So(keys.Normalize(keys.District, 12), ShouldEqual, "12")
		})

		Convey("Only a single trailing .0 is stripped", func() {
			So(keys.Normalize(keys.TableNumber, "3.0.0"), ShouldEqual, "3.0")
			So(keys.Normalize(keys.TableNumber, "30"), ShouldEqual, "30")
		})
	})
}

func TestNormalizeText(t *testing.T) {
	Convey("Given text fields", t, func() {
		Convey("Case and accents do not matter", func() {
			So(keys.Normalize(keys.FacilityName, "Roma"), ShouldEqual, keys.Normalize(keys.FacilityName, "ROMÁ"))
			So(keys.Normalize(keys.Party, "Unión Cívica"), ShouldEqual, "union civica")
		})

		Convey("Punctuation runs and whitespace collapse to one space", func() {
			So(keys.Normalize(keys.FacilityName, "  Esc.  N°12 -- \"San Martín\" "), ShouldEqual, "esc n 12 san martin")
			So(keys.Normalize(keys.FacilityName, "ESC A"), ShouldEqual, keys.Normalize(keys.FacilityName, "Esc   a"))
			So(keys.Normalize(keys.VoteKind, "En Blanco"), ShouldEqual, "en blanco")
		})

		Convey("Letters with marks fold to their base letter", func() {
			So(keys.Normalize(keys.FacilityName, "Peñarol"), ShouldEqual, "penarol")
			So(keys.Normalize(keys.Party, "ÑANDÚ"), ShouldEqual, "nandu")
		})
	})
}

func TestNormalizeTotal(t *testing.T) {
	Convey("Given degenerate input", t, func() {
		for _, f := range []keys.Field{keys.CircuitCode, keys.TableNumber, keys.District, keys.FacilityName, keys.Party, keys.VoteKind} {
			So(keys.Normalize(f, nil), ShouldEqual, "")
			So(keys.Normalize(f, ""), ShouldEqual, "")
			So(keys.Normalize(f, math.NaN()), ShouldEqual, "")
		}
		So(keys.Normalize(keys.FacilityName, "---"), ShouldEqual, "")
	})

	Convey("Normalization is stable", t, func() {
		in := "Escuela Nº 5 \"Güemes\""
		first := keys.Normalize(keys.FacilityName, in)
		So(keys.Normalize(keys.FacilityName, in), ShouldEqual, first)
		So(keys.Normalize(keys.FacilityName, first), ShouldEqual, first)
	})
}

func TestMesaKey(t *testing.T) {
	Convey("Given two spellings of the same polling table", t, func() {
		a := keys.MesaKey("07", "1", "Esc A", "3.0", "NATIVE")
		b := keys.MesaKey("7", "1", "ESC A", "3", "NATIVE")

		Convey("They share a key", func() {
			So(a, ShouldEqual, b)
			So(a.Parts(), ShouldResemble, []string{"7", "1", "esc a", "3", "NATIVE"})
		})

		Convey("Voter kind separates them", func() {
			So(keys.MesaKey("7", "1", "ESC A", "3", "FOREIGN"), ShouldNotEqual, a)
		})

		Convey("An empty voter kind yields the four-part match key", func() {
			So(keys.MesaKey("7", "1", "ESC A", "3", "").Parts(), ShouldHaveLength, 4)
		})
	})

	Convey("Composite joins with a separator", t, func() {
		So(keys.Composite("a", "", "b"), ShouldEqual, keys.Key("a||b"))
		So(keys.Key("").Parts(), ShouldBeNil)
	})
}

func TestTableLess(t *testing.T) {
	Convey("Given table numbers spelled by different extracts", t, func() {
		tables := []string{"10", "B", "3.0", "2", "A", "9.0"}
		sort.SliceStable(tables, func(a, b int) bool { return keys.TableLess(tables[a], tables[b]) })

		Convey("Then numbers sort numerically before text, ignoring the float suffix", func() {
			So(tables, ShouldResemble, []string{"2", "3.0", "9.0", "10", "A", "B"})
		})

		Convey("Then equal numbers are not ordered", func() {
			So(keys.TableLess("3", "3.0"), ShouldBeFalse)
			So(keys.TableLess("3.0", "3"), ShouldBeFalse)
		})
	})
}
