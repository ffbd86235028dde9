package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	service "github.com/okian/padron/internal/app"
	"github.com/okian/padron/internal/config"
	"github.com/okian/padron/internal/domain/model"
	"github.com/okian/padron/internal/domain/votes"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	nativeRoll = `cod_circ,distrito,nombre_distrito,establecimiento,nro_mesa,id_persona
07,1,Lanús,Esc A,3.0,1
7,1,Lanús,ESC A,3,2
0001,2,Quilmes,Colegio,1,3
0001,2,Quilmes,Colegio,1,4
0009,9,Atlántida,Club,5,5
`
	foreignRoll = `cod_circ,distrito,nombre_distrito,establecimiento,nro_mesa,id_persona
0001,2,Quilmes,Colegio,1,100
0002,2,Quilmes,Anexo,8,101
0002,2,Quilmes,Anexo,8,102
`
	reference = `Primera:
  - Tigre
Tercera:
  - Lanús
  - Quilmes
`
	tally = `Distrito,Establecimiento,Mesa,Agrupacion,tipoVoto,votos,Cargo
Lanús,Esc A,1,Fuerza Patria,positivo,60,DIPUTADOS PROVINCIALES
Lanús,Esc A,1,La Libertad Avanza,positivo,40,DIPUTADOS PROVINCIALES
Lanús,Esc A,1,,blancos,10,DIPUTADOS PROVINCIALES
Lanús,Esc A,2,Fuerza Patria,positivo,30,DIPUTADOS PROVINCIALES
Lanús,Esc A,2,La Libertad Avanza,positivo,70,DIPUTADOS PROVINCIALES
Tigre,Esc T,1,Fuerza Patria,positivo,20,SENADORES PROVINCIALES
Tigre,Esc T,1,La Libertad Avanza,positivo,80,SENADORES PROVINCIALES
Tigre,Esc T,1,,nulo,5,SENADORES PROVINCIALES
Tigre,Esc T,1,Fuerza Patria,positivo,999,CONCEJALES
`
	electors = "Distrito;Electores\nLanús;300\nTigre;330\n"
	registry = `cod_circ,distrito,nombre_distrito,establecimiento,nro_mesa,electores,tipo
0001,1,Lanús,Esc A,3,200,NATIVA
1,1,LANUS,esc a,3.0,100,NATIVA
5,9,Tigre,Esc T,1,50,EXTRANJERA
`
	referenceExtract = "seccion,municipio\nPrimera,Tigre\nTercera,Lanús\nTercera,Quilmes\nPrimera,Pilar\n"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func fixtures(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.New(context.Background())
	cfg.NativeRollPath = write(t, dir, "nativos.csv", nativeRoll)
	cfg.ForeignRollPath = write(t, dir, "extranjeros.csv", foreignRoll)
	cfg.SectionReferencePath = write(t, dir, "secciones.yaml", reference)
	cfg.TallyPath = write(t, dir, "tally.csv", tally)
	cfg.ElectorSummaryPath = write(t, dir, "ELECTORES.csv", electors)
	cfg.FacilityRegistryPath = write(t, dir, "mesas.csv", registry)
	cfg.ReferenceExtractPath = write(t, dir, "referencia.csv", referenceExtract)
	cfg.OutputDir = filepath.Join(dir, "out")
	return cfg
}

func TestService_BuildMesas(t *testing.T) {
	ctx := context.Background()

	Convey("Given native and foreign rolls with a section reference", t, func() {
		svc := service.New(fixtures(t), service.WithRunIDs(func() string { return "run-1" }))

		Convey("When building the consolidated table", func() {
			mt, err := svc.BuildMesas(ctx)
			So(err, ShouldBeNil)

			Convey("Then spelling variants of one mesa collapse into one row", func() {
				So(mt.Rows, ShouldHaveLength, 4)
				lanus := mt.Rows[1]
				So(lanus.DistrictName, ShouldEqual, "Lanús")
				So(lanus.ElectorCount, ShouldEqual, 2)
				So(lanus.Section, ShouldEqual, "Tercera")
				So(mt.Summary.Dedupe.CollapsedGroups, ShouldEqual, 1)
			})

			Convey("Then foreign counts attach or become re-sectioned rows", func() {
				So(mt.Rows[2].ForeignCount, ShouldEqual, 1)
				So(mt.Rows[2].TotalCount, ShouldEqual, 3)
				syn := mt.Rows[3]
				So(syn.VoterKind, ShouldEqual, model.VoterForeign)
				So(syn.ForeignCount, ShouldEqual, 2)
				So(syn.Section, ShouldEqual, "Tercera")
				So(mt.Summary.Foreign.Attached, ShouldEqual, 1)
				So(mt.Summary.Foreign.Synthesized, ShouldEqual, 1)
			})

			Convey("Then unknown municipalities get the sentinel and are reported", func() {
				So(mt.Rows[0].DistrictName, ShouldEqual, "Atlántida")
				So(mt.Rows[0].Section, ShouldEqual, "Sección Desconocida")
				So(mt.Summary.UnmappedRows(), ShouldEqual, 1)
			})

			Convey("Then the run is identified", func() {
				So(mt.Summary.RunID, ShouldEqual, "run-1")
				So(mt.Summary.Sources, ShouldHaveLength, 2)
			})

			Convey("Then roll statistics count kinds and electors", func() {
				st, err := svc.RollStats(ctx)
				So(err, ShouldBeNil)
				So(st, ShouldResemble, service.RollStats{
					Districts: 3, Circuits: 4, Facilities: 4, Tables: 4,
					NativeTables: 3, ForeignTables: 1,
					NativeElectors: 5, ForeignElectors: 3, TotalElectors: 8,
				})
			})

			Convey("Then coverage lists the gaps in both directions", func() {
				cov, err := svc.Coverage(ctx)
				So(err, ShouldBeNil)
				So(cov.MissingFromReference, ShouldResemble, []string{"Atlántida"})
				So(cov.UnusedInReference, ShouldResemble, []string{"Tigre"})
			})

			Convey("Then key statistics show normalization collisions", func() {
				ks, err := svc.KeyStats(ctx)
				So(err, ShouldBeNil)
				So(ks.RawKeys, ShouldEqual, 4)
				So(ks.NormalizedKeys, ShouldEqual, 3)
			})
		})

		Convey("When the native roll is missing", func() {
			cfg := fixtures(t)
			cfg.NativeRollPath = filepath.Join(t.TempDir(), "missing.csv")
			_, err := service.New(cfg).BuildMesas(ctx)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "build_mesas")
		})
	})
}

func TestService_AssignAndDerive(t *testing.T) {
	ctx := context.Background()

	Convey("Given a facility registry", t, func() {
		cfg := fixtures(t)
		svc := service.New(cfg)

		Convey("When assigning sections", func() {
			mt, err := svc.AssignSections(ctx)
			So(err, ShouldBeNil)
			So(mt.Rows, ShouldHaveLength, 2)
			So(mt.Rows[0].ElectorCount, ShouldEqual, 300)
			So(mt.Rows[0].Section, ShouldEqual, "Tercera")
			So(mt.Rows[1].VoterKind, ShouldEqual, model.VoterForeign)
			So(mt.Rows[1].Section, ShouldEqual, "Primera")
		})

		Convey("When deriving the reference from an extract", func() {
			ref, err := svc.DeriveSections(ctx)
			So(err, ShouldBeNil)
			So(ref.Sections, ShouldHaveLength, 2)
			So(ref.Len(), ShouldEqual, 4)

			Convey("Then the saved reference replaces the cached one", func() {
				got, err := svc.Reference(ctx)
				So(err, ShouldBeNil)
				So(got.Len(), ShouldEqual, 4)
			})
		})
	})
}

func TestService_TallyQueries(t *testing.T) {
	ctx := context.Background()

	Convey("Given a tally without a section column", t, func() {
		cfg := fixtures(t)
		svc := service.New(cfg)

		Convey("Then sections come from the reference and offices are filtered", func() {
			recs, err := svc.Votes(ctx)
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 8)
			So(recs[0].Section, ShouldEqual, "Tercera")
			So(recs[7].Section, ShouldEqual, "Primera")
		})

		Convey("Then totals are ordered by votes", func() {
			shares, err := svc.Totals(ctx)
			So(err, ShouldBeNil)
			So(shares[0].Party, ShouldEqual, "La Libertad Avanza")
			So(shares[0].Votes, ShouldEqual, 190)
			So(shares[1].Votes, ShouldEqual, 110)
		})

		Convey("Then the overview relates votes to electors", func() {
			ov, err := svc.Overview(ctx)
			So(err, ShouldBeNil)
			So(ov.ValidVotes, ShouldEqual, 310)
			So(ov.NullVotes, ShouldEqual, 5)
			So(ov.Electors, ShouldEqual, 630)
			So(ov.Participation, ShouldEqual, 50)
		})

		Convey("Then winners are counted per focus party", func() {
			w, counts, err := svc.Winners(ctx, votes.GroupSection, false)
			So(err, ShouldBeNil)
			So(w, ShouldHaveLength, 2)
			So(counts, ShouldResemble, []votes.WinCount{
				{Party: "Fuerza Patria", Wins: 0},
				{Party: "La Libertad Avanza", Wins: 2},
			})

			w, _, err = svc.Winners(ctx, votes.GroupDistrict, true)
			So(err, ShouldBeNil)
			So(w, ShouldHaveLength, 2)
		})

		Convey("Then a section breakdown is available", func() {
			b, ok, err := svc.Breakdown(ctx, votes.GroupSection, "Tercera")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(b.Total, ShouldEqual, 210)
		})

		Convey("Then outliers use the configured window", func() {
			rows, diag, err := svc.Outliers(ctx, svc.OutlierParams())
			So(err, ShouldBeNil)
			So(diag.Tables, ShouldEqual, 3)
			So(rows, ShouldHaveLength, 1)
			So(rows[0].District, ShouldEqual, "Tigre")

			p := svc.OutlierParams()
			p.MinDeviationPP, p.MaxDeviationPP = -20, 20
			rows, _, err = svc.Outliers(ctx, p)
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 3)

			p.MinDeviationPP = 30
			_, _, err = svc.Outliers(ctx, p)
			So(err, ShouldNotBeNil)
		})

		Convey("When the tally changes and is invalidated", func() {
			_, err := svc.Totals(ctx)
			So(err, ShouldBeNil)
			So(len(svc.CacheEntries()), ShouldBeGreaterThan, 0)

			So(os.WriteFile(cfg.TallyPath, []byte("Distrito,Agrupacion,tipoVoto,votos,Cargo\nTigre,Somos,positivo,5,DIPUTADOS PROVINCIALES\n"), 0o600), ShouldBeNil)
			So(svc.Invalidate(ctx, cfg.TallyPath), ShouldBeGreaterThan, 0)

			shares, err := svc.Totals(ctx)
			So(err, ShouldBeNil)
			So(shares, ShouldResemble, []votes.PartyShare{{Party: "Somos", Votes: 5, Pct: 100}})
		})

		Convey("When purging", func() {
			_, err := svc.Votes(ctx)
			So(err, ShouldBeNil)
			So(svc.Purge(ctx), ShouldBeGreaterThan, 0)
			So(svc.CacheEntries(), ShouldBeEmpty)
		})
	})
}

func TestService_VotesWithoutReference(t *testing.T) {
	ctx := context.Background()

	Convey("Given a tally without sections and a missing reference", t, func() {
		cfg := fixtures(t)
		refPath := cfg.SectionReferencePath
		cfg.SectionReferencePath = filepath.Join(t.TempDir(), "later.yaml")
		svc := service.New(cfg)

		recs, err := svc.Votes(ctx)
		So(err, ShouldBeNil)
		So(recs, ShouldHaveLength, 8)
		So(recs[0].Section, ShouldEqual, "")

		Convey("Then the section-less records are not cached", func() {
			for _, e := range svc.CacheEntries() {
				So(e.Source, ShouldNotEqual, "derived:votes")
			}
		})

		Convey("When the reference appears", func() {
			b, err := os.ReadFile(refPath)
			So(err, ShouldBeNil)
			So(os.WriteFile(cfg.SectionReferencePath, b, 0o600), ShouldBeNil)

			Convey("Then the next query carries sections without an invalidation", func() {
				recs, err := svc.Votes(ctx)
				So(err, ShouldBeNil)
				So(recs[0].Section, ShouldEqual, "Tercera")
			})
		})
	})
}
