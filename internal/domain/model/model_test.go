package model_test

import (
	"testing"

	"github.com/okian/padron/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestPollingTableKeys(t *testing.T) {
	convey.Convey("Given two spellings of one native polling table", t, func() {
		a := model.PollingTable{CircuitCode: "07", District: "1", FacilityName: "Esc A", TableNumber: "3.0", VoterKind: model.VoterNative}
		b := model.PollingTable{CircuitCode: "7", District: "1", FacilityName: "ESC A", TableNumber: "3", VoterKind: model.VoterNative}

		convey.Convey("Then both keys are equal", func() {
			convey.So(a.Key(), convey.ShouldEqual, b.Key())
			convey.So(a.MatchKey(), convey.ShouldEqual, b.MatchKey())
		})

		convey.Convey("Then the foreign counterpart only shares the match key", func() {
			f := b
			f.VoterKind = model.VoterForeign
			convey.So(f.Key(), convey.ShouldNotEqual, b.Key())
			convey.So(f.MatchKey(), convey.ShouldEqual, b.MatchKey())
		})
	})

	convey.Convey("Given a row with code and name and one with only the name", t, func() {
		both := model.PollingTable{CircuitCode: "7", District: "1", DistrictName: "Lanús", FacilityName: "Esc A", TableNumber: "3"}
		named := model.PollingTable{CircuitCode: "007", DistrictName: "LANUS", FacilityName: "esc a", TableNumber: "3.0"}

		convey.Convey("Then only the code-bearing row reports a code", func() {
			convey.So(both.HasDistrictCode(), convey.ShouldBeTrue)
			convey.So(named.HasDistrictCode(), convey.ShouldBeFalse)
		})

		convey.Convey("Then they differ by match key but share the name key", func() {
			convey.So(named.MatchKey(), convey.ShouldNotEqual, both.MatchKey())
			convey.So(named.NameKey(), convey.ShouldEqual, both.NameKey())
		})
	})

	convey.Convey("Municipality prefers the district name", t, func() {
		convey.So(model.PollingTable{District: "42", DistrictName: "Lanús"}.Municipality(), convey.ShouldEqual, "Lanús")
		convey.So(model.PollingTable{District: "Lanús"}.Municipality(), convey.ShouldEqual, "Lanús")
	})

	convey.Convey("Clone copies rows", t, func() {
		rows := []model.PollingTable{{ElectorCount: 1}}
		c := model.Clone(rows)
		c[0].ElectorCount = 9
		convey.So(rows[0].ElectorCount, convey.ShouldEqual, 1)
		convey.So(model.Clone(nil), convey.ShouldBeNil)
	})
}

func TestClassifyVoteKind(t *testing.T) {
	convey.Convey("Given tally vote-kind labels", t, func() {
		cases := map[string]model.VoteKind{
			"positivo":   model.VotePositive,
			"POSITIVOS":  model.VotePositive,
			"Válidos":    model.VotePositive,
			"blancos":    model.VoteBlank,
			"En  Blanco": model.VoteBlank,
			"nulo":       model.VoteNull,
			"RECURRIDOS": model.VoteContested,
			"comando":    model.VoteCommand,
			"Impugnados": model.VoteChallenged,
			"BLANK":      model.VoteBlank,
			"identidad":  model.VoteUnknown,
			"":           model.VoteUnknown,
		}
		for raw, want := range cases {
			convey.So(model.ClassifyVoteKind(raw), convey.ShouldEqual, want)
		}
	})

	convey.Convey("Valid and null-like partitions", t, func() {
		convey.So(model.VotePositive.Valid(), convey.ShouldBeTrue)
		convey.So(model.VoteBlank.Valid(), convey.ShouldBeTrue)
		convey.So(model.VoteNull.Valid(), convey.ShouldBeFalse)
		convey.So(model.VoteChallenged.NullLike(), convey.ShouldBeTrue)
		convey.So(model.VoteUnknown.NullLike(), convey.ShouldBeFalse)
	})
}
