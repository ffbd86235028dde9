package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/padron/internal/adapters/cache"
	"github.com/okian/padron/internal/adapters/source"
	"github.com/okian/padron/internal/domain/dedupe"
	"github.com/okian/padron/internal/domain/foreign"
	"github.com/okian/padron/internal/domain/keys"
	"github.com/okian/padron/internal/domain/model"
	"github.com/okian/padron/internal/domain/sections"
	"github.com/okian/padron/pkg/logger"
	"github.com/okian/padron/pkg/metrics"
)

// RunSummary describes one pipeline run.
type RunSummary struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Sources   []string      `json:"sources"`
	// Coerced counts numeric cells read as zero across all loaded sources.
	Coerced     int                 `json:"coerced"`
	Dedupe      dedupe.Report       `json:"dedupe"`
	Foreign     foreign.Report      `json:"foreign"`
	Unmapped    []sections.Unmapped `json:"unmapped"`
	Conflicts   []sections.Conflict `json:"conflicts"`
	Diagnostics []string            `json:"diagnostics"`
}

// UnmappedRows is the number of rows that fell back to a sentinel section.
func (r RunSummary) UnmappedRows() int {
	n := 0
	for _, u := range r.Unmapped {
		n += u.Count
	}
	return n
}

// MesaTable is a consolidated polling-table set and the run that built it.
type MesaTable struct {
	Rows    []model.PollingTable `json:"rows"`
	Summary RunSummary           `json:"summary"`
}

// BuildMesas runs the full roll pipeline: load both rolls, collapse
// duplicates, assign sections, merge foreign counts and re-section foreign
// only tables. The result is cached until an input is invalidated. An empty
// foreign roll path skips the foreign merge.
func (s *Service) BuildMesas(ctx context.Context) (*MesaTable, error) {
	key := cache.Key{Source: derivedMesas, Params: cache.NewParams(
		s.nativeRoll().String(), s.foreignRoll().String(), s.cfg.SectionReferencePath)}
	return cache.Load(ctx, s.cache, key, s.buildMesas)
}

func (s *Service) buildMesas(ctx context.Context) (*MesaTable, error) {
	run := s.begin(ctx, "build_mesas")

	native, err := s.load(ctx, s.nativeRoll(), source.RoleNativeRoll)
	if err != nil {
		return nil, run.fail(ctx, err)
	}
	run.addSource(native)

	var foreignRows []model.PollingTable
	if s.cfg.ForeignRollPath != "" {
		ft, err := s.load(ctx, s.foreignRoll(), source.RoleForeignRoll)
		if err != nil {
			return nil, run.fail(ctx, err)
		}
		run.addSource(ft)
		foreignRows = ft.Mesas
	}

	rows, err := s.consolidate(ctx, run, native.Mesas)
	if err != nil {
		return nil, run.fail(ctx, err)
	}

	if foreignRows != nil {
		mapper, err := s.mapper(ctx)
		if err != nil {
			return nil, run.fail(ctx, err)
		}
		start := s.now()
		merger := foreign.New(foreign.WithSentinel(s.cfg.ForeignSection))
		merged, rep := merger.Merge(rows, foreign.Aggregate(foreignRows))
		var unmapped []sections.Unmapped
		rows, unmapped = merger.Resection(merged, mapper)
		s.stage("foreign_merge", start)

		metrics.RecordForeignMerge(rep.Synthesized, rep.Attached)
		run.summary.Foreign = rep
		run.unmapped(ctx, unmapped)
		run.log.Info(ctx, "foreign roll merged",
			logger.Int("groups", rep.ForeignGroups),
			logger.Int("attached", rep.Attached),
			logger.Int("synthesized", rep.Synthesized),
			logger.Int("total_electors", rep.TotalElectors))
	}

	return run.done(ctx, rows), nil
}

// AssignSections loads the facility registry, collapses duplicates and
// assigns sections, without any foreign merge.
func (s *Service) AssignSections(ctx context.Context) (*MesaTable, error) {
	key := cache.Key{Source: derivedRegistry, Params: cache.NewParams(
		s.registry().String(), s.cfg.SectionReferencePath)}
	return cache.Load(ctx, s.cache, key, func(ctx context.Context) (*MesaTable, error) {
		run := s.begin(ctx, "assign_sections")
		reg, err := s.load(ctx, s.registry(), source.RoleFacilityRegistry)
		if err != nil {
			return nil, run.fail(ctx, err)
		}
		run.addSource(reg)
		rows, err := s.consolidate(ctx, run, reg.Mesas)
		if err != nil {
			return nil, run.fail(ctx, err)
		}
		return run.done(ctx, rows), nil
	})
}

// consolidate deduplicates rows and assigns their sections.
func (s *Service) consolidate(ctx context.Context, run *pipelineRun, rows []model.PollingTable) ([]model.PollingTable, error) {
	start := s.now()
	merged, rep := dedupe.Merge(rows)
	s.stage("dedupe", start)
	metrics.RecordDuplicates(rep.CollapsedGroups, rep.CollapsedRows)
	run.summary.Dedupe = rep
	run.log.Info(ctx, "duplicates collapsed",
		logger.Int("input_rows", rep.InputRows),
		logger.Int("output_rows", rep.OutputRows),
		logger.Int("groups", rep.CollapsedGroups),
		logger.Int("electors", rep.ElectorsAfter))
	for _, d := range rep.Duplicates {
		run.log.Debug(ctx, "duplicate mesa", logger.String("key", string(d.Key)), logger.Int("rows", d.Rows))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mapper, err := s.mapper(ctx)
	if err != nil {
		return nil, err
	}
	start = s.now()
	assigned, unmapped, err := mapper.Assign(merged)
	s.stage("assign_sections", start)
	if err != nil {
		return nil, err
	}
	run.summary.Conflicts = mapper.Conflicts()
	run.unmapped(ctx, unmapped)
	return assigned, nil
}

// DeriveSections builds the section reference from the reference extract,
// writes it to the configured reference path and drops the cached copy.
func (s *Service) DeriveSections(ctx context.Context) (sections.Reference, error) {
	t, err := s.loader.Load(ctx, s.referenceExtract(), source.RoleSectionReference)
	if err != nil {
		return sections.Reference{}, err
	}
	pairs := make([]sections.Pair, len(t.References))
	for i, r := range t.References {
		pairs[i] = sections.Pair{Section: r.Section, Municipality: r.Municipality}
	}
	ref := sections.Derive(pairs)
	if err := sections.SaveReference(s.cfg.SectionReferencePath, ref); err != nil {
		return sections.Reference{}, err
	}
	s.Invalidate(ctx, s.cfg.SectionReferencePath)
	s.logger.Info(ctx, "section reference derived",
		logger.String("path", s.cfg.SectionReferencePath),
		logger.Int("sections", len(ref.Sections)),
		logger.Int("municipalities", ref.Len()))
	return ref, nil
}

// Coverage compares the municipalities of the consolidated table with the
// section reference.
func (s *Service) Coverage(ctx context.Context) (sections.CoverageReport, error) {
	mt, err := s.BuildMesas(ctx)
	if err != nil {
		return sections.CoverageReport{}, err
	}
	ref, err := s.Reference(ctx)
	if err != nil {
		return sections.CoverageReport{}, err
	}
	munis := make([]string, 0, len(mt.Rows))
	for _, r := range mt.Rows {
		munis = append(munis, r.Municipality())
	}
	return sections.Coverage(ref, munis), nil
}

// KeyStats shows how many distinct raw keys of the native roll collapse
// under normalization.
func (s *Service) KeyStats(ctx context.Context) (dedupe.KeyStats, error) {
	t, err := s.load(ctx, s.nativeRoll(), source.RoleNativeRoll)
	if err != nil {
		return dedupe.KeyStats{}, err
	}
	return dedupe.Compare(t.Mesas), nil
}

// RollStats summarizes a consolidated table.
type RollStats struct {
	Districts       int `json:"districts"`
	Circuits        int `json:"circuits"`
	Facilities      int `json:"facilities"`
	Tables          int `json:"tables"`
	NativeTables    int `json:"native_tables"`
	ForeignTables   int `json:"foreign_tables"`
	NativeElectors  int `json:"native_electors"`
	ForeignElectors int `json:"foreign_electors"`
	TotalElectors   int `json:"total_electors"`
}

// RollStats computes headline counts over the consolidated table.
func (s *Service) RollStats(ctx context.Context) (RollStats, error) {
	mt, err := s.BuildMesas(ctx)
	if err != nil {
		return RollStats{}, err
	}
	return Stats(mt.Rows), nil
}

// Stats counts distinct normalized districts, circuits and facilities and
// sums electors by kind.
func Stats(rows []model.PollingTable) RollStats {
	districts := map[string]struct{}{}
	circuits := map[string]struct{}{}
	facilities := map[keys.Key]struct{}{}
	st := RollStats{Tables: len(rows)}
	for _, r := range rows {
		districts[keys.Fold(r.Municipality())] = struct{}{}
		circuits[keys.Normalize(keys.CircuitCode, r.CircuitCode)] = struct{}{}
		facilities[keys.Composite(keys.Normalize(keys.District, r.District), keys.Normalize(keys.FacilityName, r.FacilityName))] = struct{}{}
		if r.VoterKind == model.VoterForeign {
			st.ForeignTables++
		} else {
			st.NativeTables++
		}
		st.NativeElectors += r.ElectorCount
		st.ForeignElectors += r.ForeignCount
	}
	st.Districts = len(districts)
	st.Circuits = len(circuits)
	st.Facilities = len(facilities)
	st.TotalElectors = st.NativeElectors + st.ForeignElectors
	return st
}

// pipelineRun carries the logger and summary of one pipeline invocation.
type pipelineRun struct {
	s       *Service
	name    string
	log     logger.Logger
	summary RunSummary
}

func (s *Service) begin(ctx context.Context, name string) *pipelineRun {
	id := s.runID()
	r := &pipelineRun{
		s:       s,
		name:    name,
		log:     s.logger.With(logger.String("run_id", id), logger.String("run", name)),
		summary: RunSummary{RunID: id, StartedAt: s.now()},
	}
	r.log.Info(ctx, "run started")
	return r
}

func (r *pipelineRun) addSource(t *source.Table) {
	r.summary.Sources = append(r.summary.Sources, t.File)
	r.summary.Coerced += t.Coerced
	r.summary.Diagnostics = append(r.summary.Diagnostics, t.Diagnostics...)
}

func (r *pipelineRun) unmapped(ctx context.Context, u []sections.Unmapped) {
	if len(u) == 0 {
		return
	}
	metrics.RecordUnmapped(len(u))
	r.summary.Unmapped = append(r.summary.Unmapped, u...)
	for _, e := range u {
		r.log.Warn(ctx, "municipality without section",
			logger.String("municipality", e.District), logger.Int("rows", e.Count))
	}
}

func (r *pipelineRun) fail(ctx context.Context, err error) error {
	metrics.RecordError("service", r.name)
	r.log.Error(ctx, "run failed", logger.Error(err))
	return fmt.Errorf("%s: %w", r.name, err)
}

func (r *pipelineRun) done(ctx context.Context, rows []model.PollingTable) *MesaTable {
	r.summary.Duration = r.s.now().Sub(r.summary.StartedAt)
	r.s.stage(r.name, r.summary.StartedAt)
	r.log.Info(ctx, "run finished",
		logger.Int("rows", len(rows)),
		logger.Int("unmapped_rows", r.summary.UnmappedRows()),
		logger.Int("coerced", r.summary.Coerced),
		logger.Int("duration_ms", int(r.summary.Duration.Milliseconds())))
	return &MesaTable{Rows: rows, Summary: r.summary}
}
