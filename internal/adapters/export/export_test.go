package export_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/padron/internal/adapters/export"
	"github.com/okian/padron/internal/domain/model"
	"github.com/okian/padron/internal/domain/outlier"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWriteMesas(t *testing.T) {
	Convey("Given consolidated rows", t, func() {
		rows := []model.PollingTable{
			{District: "12", DistrictName: "Lanús", Section: "Tercera", CircuitCode: "0123", FacilityName: "Esc, 1", TableNumber: "3", ElectorCount: 300, ForeignCount: 2, VoterKind: model.VoterNative},
			{District: "12", Section: "EXTRANJEROS", CircuitCode: "0123", FacilityName: "Esc 2", TableNumber: "9", ForeignCount: 5, VoterKind: model.VoterForeign},
		}
		var buf bytes.Buffer

		Convey("When writing", func() {
			So(export.WriteMesas(&buf, rows), ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

			Convey("Then the header has the fixed order", func() {
				So(lines[0], ShouldEqual, "district,section,circuit_code,facility_name,table_number,elector_count,foreign_count,voter_kind")
			})

			Convey("Then raw values are kept and quoted when needed", func() {
				So(lines[1], ShouldEqual, `Lanús,Tercera,0123,"Esc, 1",3,300,2,NATIVE`)
				So(lines[2], ShouldEqual, "12,EXTRANJEROS,0123,Esc 2,9,0,5,FOREIGN")
			})
		})
	})
}

func TestWriteOutliers(t *testing.T) {
	Convey("Given outlier rows", t, func() {
		var buf bytes.Buffer
		err := export.WriteOutliers(&buf, []outlier.Row{{
			District: "Tigre", Facility: "Esc 1", Table: "10",
			PartyVotesTable: 20, DenomTable: 100, PctTable: 20,
			PartyVotesFacility: 100, DenomFacility: 400, PctFacility: 25, DeviationPP: -5,
		}})
		So(err, ShouldBeNil)
		So(buf.String(), ShouldContainSubstring, "Tigre,Esc 1,10,20,100,20.0,100,400,25.0,-5.0")
	})
}

func TestToFile(t *testing.T) {
	Convey("Given a nested output path", t, func() {
		path := filepath.Join(t.TempDir(), "out", "mesas.csv")
		err := export.ToFile(path, func(w io.Writer) error {
			return export.WriteMesas(w, nil)
		})
		So(err, ShouldBeNil)
		b, err := os.ReadFile(path)
		So(err, ShouldBeNil)
		So(string(b), ShouldStartWith, "district,section")
	})
}

func TestToFile_FailedWrite(t *testing.T) {
	Convey("Given an existing output file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "mesas.csv")
		So(os.WriteFile(path, []byte("previous\n"), 0o644), ShouldBeNil)
		boom := errors.New("boom")

		Convey("When the writer fails half way", func() {
			err := export.ToFile(path, func(w io.Writer) error {
				if _, err := io.WriteString(w, "district,sec"); err != nil {
					return err
				}
				return boom
			})

			Convey("Then the error is returned and the old file is intact", func() {
				So(err, ShouldEqual, boom)
				b, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, "previous\n")
			})

			Convey("Then no temporary file is left behind", func() {
				entries, err := os.ReadDir(dir)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
			})
		})
	})
}
