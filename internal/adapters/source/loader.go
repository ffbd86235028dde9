// Package source reads electoral extracts (CSV files, optionally inside ZIP
// archives) into typed in-memory tables.
//
// Column names vary across extracts, so every role declares its logical
// fields with tolerant header candidates. Columns are resolved once per load;
// absent optional fields are recorded in the layout and downstream code never
// checks for them again.
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/okian/padron/internal/domain/keys"
	"github.com/okian/padron/internal/domain/model"
	"github.com/okian/padron/pkg/logger"
	"github.com/okian/padron/pkg/metrics"
)

// Descriptor identifies one extract.
type Descriptor struct {
	// Path is a .csv file or a .zip archive.
	Path string
	// Member picks the CSV inside a ZIP by name; empty picks the first .csv.
	Member string
	// Comma forces the field separator; 0 sniffs it from the header row.
	Comma rune
	// Offices keeps only tally rows for these offices. Ignored by other roles.
	Offices []string
}

// String renders the descriptor for logs and cache keys.
func (d Descriptor) String() string {
	if d.Member == "" {
		return d.Path
	}
	return d.Path + "!" + d.Member
}

// ReferenceRow is one (section, municipality) pair from a reference extract.
type ReferenceRow struct {
	Section      string
	Municipality string
}

// Table is the typed result of a load. Which slice is populated depends on Role.
type Table struct {
	Role     Role
	File     string
	Encoding string
	Comma    rune
	// Columns maps resolved logical fields to the header that satisfied them.
	Columns map[string]string
	// RawRows counts data rows read, before any aggregation or filtering.
	RawRows int
	// Coerced counts numeric cells that were missing or unparseable and read as 0.
	Coerced int

	Mesas      []model.PollingTable // roll, registry
	Votes      []model.VoteRecord   // tally
	Electors   int                  // elector summary
	References []ReferenceRow       // section reference

	// Diagnostics holds non-fatal notes for the caller to render.
	Diagnostics []string
}

// Loader reads extracts. It holds no state between loads.
type Loader struct {
	log logger.Logger
	now func() time.Time
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{log: logger.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads d and shapes it according to role. Loading is blocking; ctx is
// checked between rows so a long read can be abandoned.
func (l *Loader) Load(ctx context.Context, d Descriptor, role Role) (*Table, error) {
	start := l.now()
	t, err := l.load(ctx, d, role)
	metrics.RecordStageLatency("load_"+role.String(), float64(l.now().Sub(start).Milliseconds()))
	if err != nil {
		metrics.RecordLoadError(role.String(), errorKind(err))
		l.log.Error(ctx, "load failed", logger.String("role", role.String()),
			logger.String("source", d.String()), logger.Error(err))
		return nil, err
	}

	metrics.RecordRowsLoaded(role.String(), t.RawRows)
	metrics.RecordCoercedCells(role.String(), t.Coerced)
	if t.Coerced > 0 {
		l.log.Warn(ctx, "numeric cells coerced to zero", logger.String("role", role.String()),
			logger.String("file", t.File), logger.Int("cells", t.Coerced))
	}
	for _, note := range t.Diagnostics {
		l.log.Warn(ctx, note, logger.String("role", role.String()), logger.String("file", t.File))
	}
	l.log.Info(ctx, "source loaded",
		logger.String("role", role.String()),
		logger.String("file", t.File),
		logger.String("encoding", t.Encoding),
		logger.Int("raw_rows", t.RawRows),
		logger.Int("mesas", len(t.Mesas)),
		logger.Int("votes", len(t.Votes)))
	return t, nil
}

func (l *Loader) load(ctx context.Context, d Descriptor, role Role) (*Table, error) {
	schema, ok := role.schema()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, int(role))
	}
	raw, file, err := readSource(d)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", d.String(), err)
	}
	text, enc, err := decode(raw, file)
	if err != nil {
		return nil, err
	}
	comma := d.Comma
	if comma == 0 {
		comma = sniffComma(text)
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = comma
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	headers, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", file, ErrEmptySource)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: header: %w", file, err)
	}
	lay, err := resolve(headers, schema, file)
	if err != nil {
		return nil, err
	}
	if (role == RoleNativeRoll || role == RoleForeignRoll || role == RoleFacilityRegistry) &&
		!lay.has(fieldDistrict) && !lay.has(fieldDistrictName) {
		return nil, &SchemaError{Field: fieldDistrict, File: file, Headers: headers}
	}

	t := &Table{Role: role, File: file, Encoding: enc, Comma: comma, Columns: lay.names}
	s := newShaper(role, lay, t, d.Offices)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		if blank(rec) {
			continue
		}
		t.RawRows++
		s.add(rec)
	}
	s.finish()
	return t, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseCount reads a non-negative integer count. Float formatted integers
// such as "12.0" are accepted. Anything else, including negatives and empty
// cells, yields 0 and ok=false so the caller can count the coercion.
func ParseCount(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, false
		}
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// ParseThousands reads counts written with "." or "," thousands separators,
// e.g. "14.227.683".
func ParseThousands(s string) (int, bool) {
	s = strings.NewReplacer(".", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// officeFilter matches offices case and space insensitively.
type officeFilter map[string]bool

func newOfficeFilter(offices []string) officeFilter {
	if len(offices) == 0 {
		return nil
	}
	f := officeFilter{}
	for _, o := range offices {
		f[keys.Fold(o)] = true
	}
	return f
}

func (f officeFilter) keep(office string) bool {
	return f == nil || f[keys.Fold(office)]
}
