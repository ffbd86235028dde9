package dedupe_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/okian/padron/internal/domain/dedupe"
	"github.com/okian/padron/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func mesa(circ, district, facility, table string, electors int) model.PollingTable {
	return model.PollingTable{
		CircuitCode: circ, District: district, FacilityName: facility, TableNumber: table,
		ElectorCount: electors, VoterKind: model.VoterNative,
	}
}

func TestMerge(t *testing.T) {
	Convey("Given two spellings of one polling table", t, func() {
		rows := []model.PollingTable{
			mesa("07", "1", "Esc A", "3.0", 1),
			mesa("7", "1", "ESC A", "3", 1),
		}

		Convey("When merging", func() {
			out, rep := dedupe.Merge(rows)

			Convey("Then exactly one row remains with both electors", func() {
				So(out, ShouldHaveLength, 1)
				So(out[0].ElectorCount, ShouldEqual, 2)
				So(out[0].TotalCount, ShouldEqual, 2)
			})

			Convey("Then the first row's raw spelling is kept", func() {
				So(out[0].CircuitCode, ShouldEqual, "07")
				So(out[0].FacilityName, ShouldEqual, "Esc A")
				So(out[0].TableNumber, ShouldEqual, "3.0")
			})

			Convey("Then the report is exact", func() {
				So(rep.InputRows, ShouldEqual, 2)
				So(rep.OutputRows, ShouldEqual, 1)
				So(rep.CollapsedGroups, ShouldEqual, 1)
				So(rep.CollapsedRows, ShouldEqual, 1)
				So(rep.ElectorsBefore, ShouldEqual, 2)
				So(rep.ElectorsAfter, ShouldEqual, 2)
				So(rep.Delta, ShouldEqual, 0)
				So(rep.Duplicates, ShouldHaveLength, 1)
				So(rep.Duplicates[0].Rows, ShouldEqual, 2)
			})

			Convey("Then the input is untouched", func() {
				So(rows[0].ElectorCount, ShouldEqual, 1)
			})
		})
	})

	Convey("Given rows with elector counts 10 and 15 under one key", t, func() {
		out, _ := dedupe.Merge([]model.PollingTable{
			mesa("1", "1", "E", "1", 10),
			mesa("1", "1", "E", "1", 15),
		})
		So(out, ShouldHaveLength, 1)
		So(out[0].ElectorCount, ShouldEqual, 25)
	})

	Convey("Given rows without duplicates", t, func() {
		rows := []model.PollingTable{mesa("1", "1", "E", "1", 3), mesa("1", "1", "E", "2", 4)}
		out, rep := dedupe.Merge(rows)

		Convey("Then the output is a pass-through copy", func() {
			So(out, ShouldResemble, []model.PollingTable{
				{CircuitCode: "1", District: "1", FacilityName: "E", TableNumber: "1", ElectorCount: 3, TotalCount: 3, VoterKind: model.VoterNative},
				{CircuitCode: "1", District: "1", FacilityName: "E", TableNumber: "2", ElectorCount: 4, TotalCount: 4, VoterKind: model.VoterNative},
			})
			So(rep.CollapsedGroups, ShouldEqual, 0)
			So(rep.Duplicates, ShouldBeEmpty)
		})
	})

	Convey("Given a native and a foreign row for the same mesa", t, func() {
		n := mesa("1", "1", "E", "1", 3)
		f := n
		f.VoterKind = model.VoterForeign
		f.ElectorCount, f.ForeignCount = 0, 2

		Convey("Then the default key keeps them apart", func() {
			out, _ := dedupe.Merge([]model.PollingTable{n, f})
			So(out, ShouldHaveLength, 2)
		})

		Convey("Then the match key merges them and sums foreign counts", func() {
			out, rep := dedupe.New(dedupe.WithKey(model.PollingTable.MatchKey)).Merge([]model.PollingTable{n, f})
			So(out, ShouldHaveLength, 1)
			So(out[0].ForeignCount, ShouldEqual, 2)
			So(out[0].TotalCount, ShouldEqual, 5)
			So(rep.ForeignAfter, ShouldEqual, rep.ForeignBefore)
		})
	})
}

func TestMergeProperties(t *testing.T) {
	Convey("Given random tables with noisy spellings", t, func() {
		rng := rand.New(rand.NewSource(7))
		circuits := []string{"1", "01", "001", "2", "0002"}
		facilities := []string{"Esc A", "ESC A", "esc. a", "Colegio B", "COLEGIO  B"}
		tables := []string{"1", "1.0", "2", "2.0", "10"}

		for round := 0; round < 20; round++ {
			rows := make([]model.PollingTable, 0, 50)
			total := 0
			for i := 0; i < 50; i++ {
				n := rng.Intn(20)
				total += n
				rows = append(rows, mesa(
					circuits[rng.Intn(len(circuits))],
					fmt.Sprint(rng.Intn(2)),
					facilities[rng.Intn(len(facilities))],
					tables[rng.Intn(len(tables))],
					n,
				))
			}

			once, rep := dedupe.Merge(rows)
			twice, rep2 := dedupe.Merge(once)

			So(twice, ShouldResemble, once)
			So(rep2.CollapsedGroups, ShouldEqual, 0)
			So(rep.ElectorsAfter, ShouldEqual, total)
			So(rep.Delta, ShouldEqual, 0)

			seen := map[string]bool{}
			for _, r := range once {
				So(seen[string(r.Key())], ShouldBeFalse)
				seen[string(r.Key())] = true
			}
		}
	})
}

func TestCompare(t *testing.T) {
	Convey("Given rows whose raw identities differ only in formatting", t, func() {
		stats := dedupe.Compare([]model.PollingTable{
			mesa("07", "1", "Esc A", "3.0", 1),
			mesa("7", "1", "ESC A", "3", 1),
			mesa("7", "1", "ESC A", "3", 1),
			mesa("8", "1", "ESC A", "3", 1),
		})

		Convey("Then normalization uncovers one extra collision", func() {
			So(stats.Rows, ShouldEqual, 4)
			So(stats.RawKeys, ShouldEqual, 3)
			So(stats.NormalizedKeys, ShouldEqual, 2)
			So(stats.Collisions, ShouldEqual, 1)
		})
	})
}
