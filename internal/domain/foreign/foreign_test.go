package foreign_test

import (
	"testing"

	"github.com/okian/padron/internal/domain/foreign"
	"github.com/okian/padron/internal/domain/model"
	"github.com/okian/padron/internal/domain/sections"
	. "github.com/smartystreets/goconvey/convey"
)

func nativeRow(name, circ, facility, table string, electors int) model.PollingTable {
	return model.PollingTable{DistrictName: name, CircuitCode: circ, FacilityName: facility,
		TableNumber: table, ElectorCount: electors, TotalCount: electors, VoterKind: model.VoterNative, Section: "sec-" + name}
}

func foreignRow(name, circ, facility, table string, count int) model.PollingTable {
	return model.PollingTable{DistrictName: name, CircuitCode: circ, FacilityName: facility,
		TableNumber: table, ForeignCount: count, VoterKind: model.VoterForeign}
}

func TestAggregate(t *testing.T) {
	Convey("Given foreign rows spelled differently", t, func() {
		out := foreign.Aggregate([]model.PollingTable{
			foreignRow("Lanús", "01", "Esc 1", "1.0", 2),
			foreignRow("Lanús", "1", "ESC 1", "1", 3),
		})

		Convey("Then they collapse into one mesa with the summed count", func() {
			So(out, ShouldHaveLength, 1)
			So(out[0].ForeignCount, ShouldEqual, 5)
		})
	})
}

func TestMerge(t *testing.T) {
	Convey("Given native tables and aggregated foreign tables", t, func() {
		native := []model.PollingTable{
			nativeRow("Lanús", "1", "Esc 1", "1", 300),
			nativeRow("Lanús", "1", "Esc 1", "2", 280),
		}
		foreignAgg := []model.PollingTable{
			foreignRow("Lanús", "001", "ESC 1", "2.0", 4),
			foreignRow("Quilmes", "9", "Colegio", "7", 6),
		}

		Convey("When merging", func() {
			out, rep := foreign.Merge(native, foreignAgg)

			Convey("Then matching foreign counts attach to the native row", func() {
				So(out, ShouldHaveLength, 3)
				So(out[1].ForeignCount, ShouldEqual, 4)
				So(out[1].ElectorCount, ShouldEqual, 280)
				So(out[1].VoterKind, ShouldEqual, model.VoterNative)
			})

			Convey("Then an unmatched foreign table becomes a synthetic row", func() {
				syn := out[2]
				So(syn.ElectorCount, ShouldEqual, 0)
				So(syn.ForeignCount, ShouldEqual, 6)
				So(syn.VoterKind, ShouldEqual, model.VoterForeign)
				So(syn.Section, ShouldEqual, foreign.Sentinel)
			})

			Convey("Then every total is the sum of its parts", func() {
				for _, r := range out {
					So(r.TotalCount, ShouldEqual, r.ElectorCount+r.ForeignCount)
				}
			})

			Convey("Then the report accounts for every foreign elector", func() {
				So(rep.Attached, ShouldEqual, 1)
				So(rep.Synthesized, ShouldEqual, 1)
				So(rep.NativeElectors, ShouldEqual, 580)
				So(rep.ForeignElectors, ShouldEqual, 10)
				So(rep.TotalElectors, ShouldEqual, 590)
			})

			Convey("Then the inputs are untouched", func() {
				So(native[1].ForeignCount, ShouldEqual, 0)
			})
		})

		Convey("When merging with a custom sentinel", func() {
			out, _ := foreign.New(foreign.WithSentinel("FOREIGN")).Merge(native, foreignAgg)
			So(out[2].Section, ShouldEqual, "FOREIGN")
		})

		Convey("When there are no native rows", func() {
			out, rep := foreign.Merge(nil, foreignAgg)
			So(out, ShouldHaveLength, 2)
			So(rep.Synthesized, ShouldEqual, 2)
		})
	})
}

func TestResection(t *testing.T) {
	Convey("Given merged rows with synthetic foreign tables", t, func() {
		ref := sections.Reference{Sections: []sections.Section{{Name: "Tercera", Municipalities: []string{"Quilmes"}}}}
		mapper := sections.NewMapper(ref)
		rows := []model.PollingTable{
			nativeRow("Quilmes", "9", "Colegio", "10", 100),
			{DistrictName: "Quilmes", TableNumber: "7", ForeignCount: 6, VoterKind: model.VoterForeign, Section: foreign.Sentinel},
			{DistrictName: "Atlántida", TableNumber: "1", ForeignCount: 1, VoterKind: model.VoterForeign, Section: foreign.Sentinel},
			nativeRow("Quilmes", "9", "Colegio", "9", 90),
		}

		out, unmapped := foreign.Resection(rows, mapper)

		Convey("Then mapped municipalities replace the sentinel", func() {
			So(out[1].DistrictName, ShouldEqual, "Quilmes")
			So(out[1].TableNumber, ShouldEqual, "7")
			So(out[1].Section, ShouldEqual, "Tercera")
		})

		Convey("Then unmapped municipalities keep the foreign sentinel", func() {
			So(out[0].DistrictName, ShouldEqual, "Atlántida")
			So(out[0].Section, ShouldEqual, foreign.Sentinel)
			So(unmapped, ShouldResemble, []sections.Unmapped{{District: "Atlántida", Count: 1}})
		})

		Convey("Then rows are ordered by municipality and numeric table", func() {
			tables := []string{}
			for _, r := range out {
				tables = append(tables, r.TableNumber)
			}
			So(tables, ShouldResemble, []string{"1", "7", "9", "10"})
		})

		Convey("Then native sections are not touched", func() {
			So(out[3].Section, ShouldEqual, "sec-Quilmes")
		})
	})
}

func TestMerge_DistrictIdentity(t *testing.T) {
	Convey("Given a native table carrying both district code and name", t, func() {
		native := []model.PollingTable{{
			CircuitCode: "7", District: "1", DistrictName: "Lanús", FacilityName: "Esc A",
			TableNumber: "3", ElectorCount: 20, TotalCount: 20, VoterKind: model.VoterNative,
		}}

		Convey("When the foreign roll names the municipality without a code", func() {
			out, rep := foreign.Merge(native, foreign.Aggregate([]model.PollingTable{
				{CircuitCode: "007", DistrictName: "LANUS", FacilityName: "ESC A", TableNumber: "3.0", ForeignCount: 2, VoterKind: model.VoterForeign},
				{CircuitCode: "7", DistrictName: "Lanús", FacilityName: "Esc A", TableNumber: "3", ForeignCount: 1, VoterKind: model.VoterForeign},
			}))

			Convey("Then the count attaches to the native row", func() {
				So(out, ShouldHaveLength, 1)
				So(out[0].ForeignCount, ShouldEqual, 3)
				So(out[0].TotalCount, ShouldEqual, 23)
				So(rep.Attached, ShouldEqual, 1)
				So(rep.Synthesized, ShouldEqual, 0)
			})
		})

		Convey("When the foreign roll carries only the code", func() {
			out, rep := foreign.Merge(native, []model.PollingTable{
				{CircuitCode: "7", District: "1.0", FacilityName: "Esc A", TableNumber: "3", ForeignCount: 4, VoterKind: model.VoterForeign},
			})

			Convey("Then the code match attaches it", func() {
				So(out, ShouldHaveLength, 1)
				So(out[0].ForeignCount, ShouldEqual, 4)
				So(rep.Attached, ShouldEqual, 1)
			})
		})

		Convey("When the names agree but the codes differ", func() {
			out, rep := foreign.Merge(native, []model.PollingTable{
				{CircuitCode: "7", District: "2", DistrictName: "Lanús", FacilityName: "Esc A", TableNumber: "3", ForeignCount: 1, VoterKind: model.VoterForeign},
			})

			Convey("Then the foreign table stays separate", func() {
				So(out, ShouldHaveLength, 2)
				So(out[0].ForeignCount, ShouldEqual, 0)
				So(rep.Synthesized, ShouldEqual, 1)
			})
		})
	})
}
