// Package service orchestrates the reconciliation pipeline and the tally
// queries behind the CLI and the HTTP API.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/padron/internal/adapters/cache"
	"github.com/okian/padron/internal/adapters/source"
	"github.com/okian/padron/internal/config"
	"github.com/okian/padron/internal/domain/sections"
	"github.com/okian/padron/pkg/logger"
	"github.com/okian/padron/pkg/metrics"
)

// Cache sources for derived tables. They are dropped whenever any input is
// invalidated.
const (
	derivedMesas    = "derived:mesas"
	derivedRegistry = "derived:registry"
	derivedVotes    = "derived:votes"
)

// Service owns the loader and the cache of processed tables.
type Service struct {
	cfg    *config.Config
	loader *source.Loader
	cache  cache.Store
	logger logger.Logger
	runID  func() string
	now    func() time.Time
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCache replaces the in-memory cache.
func WithCache(c cache.Store) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithRunIDs sets the run identifier generator.
func WithRunIDs(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.runID = fn
		}
	}
}

// WithClock sets the time source used for run timing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service over cfg. A nil cfg uses the defaults.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New(context.Background())
	}
	s := &Service{
		cfg:    cfg,
		cache:  cache.New(),
		logger: logger.Nop(),
		runID:  uuid.NewString,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.loader = source.NewLoader(source.WithLogger(s.logger.Named("loader")), source.WithClock(s.now))
	return s
}

// Config returns the configuration the service was built with.
func (s *Service) Config() *config.Config { return s.cfg }

// Invalidate drops cached tables loaded from src together with every derived
// table, and returns how many entries were dropped.
func (s *Service) Invalidate(ctx context.Context, src string) int {
	n := s.cache.Invalidate(src)
	for _, d := range []string{derivedMesas, derivedRegistry, derivedVotes} {
		n += s.cache.Invalidate(d)
	}
	s.logger.Info(ctx, "cache invalidated", logger.String("source", src), logger.Int("dropped", n))
	return n
}

// Purge drops every cached table.
func (s *Service) Purge(ctx context.Context) int {
	n := s.cache.Purge()
	s.logger.Info(ctx, "cache purged", logger.Int("dropped", n))
	return n
}

// CacheEntries lists what is currently cached.
func (s *Service) CacheEntries() []cache.Info { return s.cache.Entries() }

// load reads d through the cache.
func (s *Service) load(ctx context.Context, d source.Descriptor, role source.Role) (*source.Table, error) {
	params := append([]string{role.String(), string(d.Comma)}, d.Offices...)
	key := cache.Key{Source: d.Path, Params: cache.NewParams(append(params, d.Member)...)}
	return cache.Load(ctx, s.cache, key, func(ctx context.Context) (*source.Table, error) {
		return s.loader.Load(ctx, d, role)
	})
}

// Reference returns the section reference, cached until invalidated.
func (s *Service) Reference(ctx context.Context) (sections.Reference, error) {
	path := s.cfg.SectionReferencePath
	return cache.Load(ctx, s.cache, cache.Key{Source: path}, func(context.Context) (sections.Reference, error) {
		ref, err := sections.LoadReference(path)
		if err != nil {
			metrics.RecordError("sections", "load_reference")
			return sections.Reference{}, err
		}
		return ref, nil
	})
}

func (s *Service) mapper(ctx context.Context) (*sections.Mapper, error) {
	ref, err := s.Reference(ctx)
	if err != nil {
		return nil, err
	}
	m := sections.NewMapper(ref, sections.WithSentinel(s.cfg.UnmappedSection))
	for _, c := range m.Conflicts() {
		s.logger.Warn(ctx, "municipality listed under two sections",
			logger.String("municipality", c.Municipality),
			logger.String("kept", c.Kept),
			logger.String("ignored", c.Ignored))
	}
	return m, nil
}

func (s *Service) descriptor(path, member, sep string) source.Descriptor {
	return source.Descriptor{Path: path, Member: member, Comma: config.Separator(sep)}
}

func (s *Service) nativeRoll() source.Descriptor {
	return s.descriptor(s.cfg.NativeRollPath, s.cfg.NativeRollMember, s.cfg.CSVSeparator)
}

func (s *Service) foreignRoll() source.Descriptor {
	return s.descriptor(s.cfg.ForeignRollPath, s.cfg.ForeignRollMember, s.cfg.CSVSeparator)
}

func (s *Service) registry() source.Descriptor {
	return s.descriptor(s.cfg.FacilityRegistryPath, "", s.cfg.CSVSeparator)
}

func (s *Service) tally() source.Descriptor {
	d := s.descriptor(s.cfg.TallyPath, s.cfg.TallyMember, s.cfg.TallySeparator)
	d.Offices = s.cfg.TallyOffices
	return d
}

func (s *Service) electorSummary() source.Descriptor {
	return s.descriptor(s.cfg.ElectorSummaryPath, "", s.cfg.ElectorSeparator)
}

func (s *Service) referenceExtract() source.Descriptor {
	return s.descriptor(s.cfg.ReferenceExtractPath, "", s.cfg.CSVSeparator)
}

// stage records how long a pipeline stage took.
func (s *Service) stage(name string, start time.Time) {
	metrics.RecordStageLatency(name, float64(s.now().Sub(start).Milliseconds()))
}
