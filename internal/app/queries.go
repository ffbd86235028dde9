package service

import (
	"context"
	"errors"
	"strings"

	"github.com/okian/padron/internal/adapters/cache"
	"github.com/okian/padron/internal/adapters/source"
	"github.com/okian/padron/internal/domain/model"
	"github.com/okian/padron/internal/domain/outlier"
	"github.com/okian/padron/internal/domain/votes"
	"github.com/okian/padron/pkg/logger"
	"github.com/okian/padron/pkg/metrics"
)

// Overview is the headline tally summary.
type Overview struct {
	Offices       []votes.OfficeSummary `json:"offices"`
	ValidVotes    int                   `json:"valid_votes"`
	NullVotes     int                   `json:"null_votes"`
	TotalVotes    int                   `json:"total_votes"`
	Electors      int                   `json:"electors"`
	Participation float64               `json:"participation"`
	Diagnostics   []string              `json:"diagnostics"`
}

// Votes returns the tally records filtered by the configured offices. Rows
// without a section get the section of their district when the reference
// has one.
func (s *Service) Votes(ctx context.Context) ([]model.VoteRecord, error) {
	d := s.tally()
	key := cache.Key{Source: derivedVotes, Params: cache.NewParams(append([]string{d.String()}, d.Offices...)...)}
	recs, err := cache.Load(ctx, s.cache, key, func(ctx context.Context) ([]model.VoteRecord, error) {
		t, err := s.load(ctx, d, source.RoleTally)
		if err != nil {
			return nil, err
		}
		recs := make([]model.VoteRecord, len(t.Votes))
		copy(recs, t.Votes)
		if t.Columns["section"] != "" {
			return recs, nil
		}

		m, err := s.mapper(ctx)
		if err != nil {
			s.logger.Warn(ctx, "tally has no section column and no reference is available",
				logger.Error(err))
			return nil, uncached[[]model.VoteRecord]{value: recs}
		}
		for i := range recs {
			recs[i].Section, _ = m.Section(recs[i].District)
		}
		return recs, nil
	})
	// Section-less records are served but not kept, so a reference that
	// appears later is picked up without an invalidation.
	var partial uncached[[]model.VoteRecord]
	if errors.As(err, &partial) {
		return partial.value, nil
	}
	return recs, err
}

// uncached carries a usable load result that must not be memoized.
type uncached[T any] struct{ value T }

func (uncached[T]) Error() string { return "result not cached" }

// Totals returns every party's positive votes and share, most voted first.
func (s *Service) Totals(ctx context.Context) ([]votes.PartyShare, error) {
	recs, err := s.Votes(ctx)
	if err != nil {
		return nil, err
	}
	return votes.Percentages(votes.TotalsByParty(recs)), nil
}

// Overview sums votes per office and relates them to the elector summary.
// A missing elector summary leaves participation at 0 with a diagnostic.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	recs, err := s.Votes(ctx)
	if err != nil {
		return Overview{}, err
	}
	ov := Overview{Offices: votes.SummaryByOffice(recs)}
	for _, o := range ov.Offices {
		ov.ValidVotes += o.Valid
		ov.NullVotes += o.Null
	}
	ov.TotalVotes = ov.ValidVotes + ov.NullVotes

	if s.cfg.ElectorSummaryPath == "" {
		ov.Diagnostics = append(ov.Diagnostics, "no elector summary configured")
		return ov, nil
	}
	t, err := s.load(ctx, s.electorSummary(), source.RoleElectorSummary)
	if err != nil {
		return Overview{}, err
	}
	ov.Electors = t.Electors
	ov.Participation = votes.Participation(ov.TotalVotes, ov.Electors)
	ov.Diagnostics = append(ov.Diagnostics, t.Diagnostics...)
	return ov, nil
}

// Winners returns the winner of every section or district among the focus
// parties and the number of wins per party. subset restricts districts to
// the configured subset.
func (s *Service) Winners(ctx context.Context, g votes.Grouping, subset bool) ([]votes.Winner, []votes.WinCount, error) {
	recs, err := s.Votes(ctx)
	if err != nil {
		return nil, nil, err
	}
	var opts []votes.Option
	if subset {
		opts = append(opts, votes.WithGroups(s.cfg.SubsetDistricts...))
	}
	w := votes.WinnersBy(g, recs, s.cfg.FocusParties, opts...)
	return w, votes.CountWins(w, s.cfg.FocusParties), nil
}

// Ranges buckets district vote shares of the focus parties.
func (s *Service) Ranges(ctx context.Context) ([]votes.RangeCount, error) {
	recs, err := s.Votes(ctx)
	if err != nil {
		return nil, err
	}
	return votes.VoteShareRanges(recs, s.cfg.FocusParties), nil
}

// PartyShare returns party's share in every section or district.
func (s *Service) PartyShare(ctx context.Context, g votes.Grouping, party string) ([]votes.GroupShare, error) {
	recs, err := s.Votes(ctx)
	if err != nil {
		return nil, err
	}
	return votes.PartyShareBy(g, recs, party), nil
}

// Breakdown details one section or district.
func (s *Service) Breakdown(ctx context.Context, g votes.Grouping, name string) (votes.Breakdown, bool, error) {
	recs, err := s.Votes(ctx)
	if err != nil {
		return votes.Breakdown{}, false, err
	}
	b, ok := votes.BreakdownOf(g, recs, name)
	return b, ok, nil
}

// OutlierParams returns the configured detection parameters.
func (s *Service) OutlierParams() outlier.Params {
	return outlier.Params{
		TargetParty:    s.cfg.TargetParty,
		MinDeviationPP: s.cfg.MinDeviationPP,
		MaxDeviationPP: s.cfg.MaxDeviationPP,
		IncludeBlanks:  s.cfg.IncludeBlanks,
	}
}

// Outliers runs the deviation detector over the tally.
func (s *Service) Outliers(ctx context.Context, p outlier.Params) ([]outlier.Row, outlier.Diagnostic, error) {
	if err := p.Validate(); err != nil {
		return nil, outlier.Diagnostic{}, err
	}
	recs, err := s.Votes(ctx)
	if err != nil {
		return nil, outlier.Diagnostic{}, err
	}
	start := s.now()
	rows, diag := outlier.Detect(recs, p)
	s.stage("outliers", start)
	metrics.UpdateOutlierRows(len(rows))
	if diag.PartyMissing {
		s.logger.Warn(ctx, "target party not found in tally",
			logger.String("party", p.TargetParty),
			logger.String("known", strings.Join(diag.KnownParties, ", ")))
	}
	s.logger.Info(ctx, "outliers detected",
		logger.String("party", p.TargetParty),
		logger.Int("tables", diag.Tables),
		logger.Int("rows", len(rows)))
	return rows, diag, nil
}
