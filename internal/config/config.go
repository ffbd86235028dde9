// Package config defines padron configuration and its loading layers.
//
// Conventions:
//   - Keys are flat so every field can be overridden by a PADRON_ env var.
//   - New returns a Config populated with defaults; Load layers file and env on top.
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json log records.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address of the query server.
	Addr string `koanf:"addr"`

	// Source extracts. A *_member names the CSV inside a ZIP; empty picks the first .csv.
	NativeRollPath       string `koanf:"native_roll_path"`
	NativeRollMember     string `koanf:"native_roll_member"`
	ForeignRollPath      string `koanf:"foreign_roll_path"`
	ForeignRollMember    string `koanf:"foreign_roll_member"`
	TallyPath            string `koanf:"tally_path"`
	TallyMember          string `koanf:"tally_member"`
	ElectorSummaryPath   string `koanf:"elector_summary_path"`
	FacilityRegistryPath string `koanf:"facility_registry_path"`

	// SectionReferencePath is the YAML section -> municipalities table.
	SectionReferencePath string `koanf:"section_reference_path"`
	// ReferenceExtractPath is the extract sections are derived from once.
	ReferenceExtractPath string `koanf:"reference_extract_path"`

	// OutputDir receives consolidated CSV files.
	OutputDir string `koanf:"output_dir"`

	// CSVSeparator forces a field separator for roll extracts; empty sniffs the header.
	CSVSeparator string `koanf:"csv_separator"`
	// TallySeparator forces a field separator for tally extracts.
	TallySeparator string `koanf:"tally_separator"`
	// ElectorSeparator forces a field separator for the elector summary.
	ElectorSeparator string `koanf:"elector_separator"`

	// UnmappedSection labels districts missing from the section reference.
	UnmappedSection string `koanf:"unmapped_section"`
	// ForeignSection labels foreign-only polling tables before re-sectioning.
	ForeignSection string `koanf:"foreign_section"`

	// TallyOffices keeps only tally rows for these offices; empty keeps all.
	TallyOffices []string `koanf:"tally_offices"`

	// Outlier defaults.
	TargetParty    string  `koanf:"target_party"`
	MinDeviationPP float64 `koanf:"min_deviation_pp"`
	MaxDeviationPP float64 `koanf:"max_deviation_pp"`
	IncludeBlanks  bool    `koanf:"include_blanks"`

	// FocusParties restricts winner and range queries.
	FocusParties []string `koanf:"focus_parties"`
	// SubsetDistricts is the municipality subset used for subset winners (AMBA).
	SubsetDistricts []string `koanf:"subset_districts"`
}

// New creates a Config populated with defaults. The context is reserved for
// loaders that need it.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		NativeRollPath:       "data/padron_nativos.zip",
		ForeignRollPath:      "data/padron_extranjeros.zip",
		TallyPath:            "data/Base_Elecciones.csv",
		ElectorSummaryPath:   "data/ELECTORES.csv",
		FacilityRegistryPath: "data/mesas.csv",
		SectionReferencePath: "data/secciones.yaml",
		ReferenceExtractPath: "data/secciones_referencia.zip",
		OutputDir:            "out",
		ElectorSeparator:     ";",
		UnmappedSection:      "Sección Desconocida",
		ForeignSection:       "EXTRANJEROS",
		TallyOffices:         []string{"DIPUTADOS PROVINCIALES", "SENADORES PROVINCIALES"},
		TargetParty:          "FUERZA PATRIA",
		MinDeviationPP:       -5,
		MaxDeviationPP:       5,
		FocusParties:         []string{"Fuerza Patria", "La Libertad Avanza"},
		SubsetDistricts:      AMBA(),
	}
}

// AMBA returns the 24 Buenos Aires metropolitan municipalities.
func AMBA() []string {
	return []string{
		"Almirante Brown", "Avellaneda", "Berazategui", "Esteban Echeverría",
		"Ezeiza", "Florencio Varela", "General San Martín", "Hurlingham",
		"Ituzaingó", "José C. Paz", "La Matanza", "Lanús",
		"Lomas de Zamora", "Malvinas Argentinas", "Merlo", "Moreno",
		"Morón", "Quilmes", "San Fernando", "San Isidro",
		"San Miguel", "Tigre", "Tres de Febrero", "Vicente López",
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if math.IsNaN(c.MinDeviationPP) || math.IsNaN(c.MaxDeviationPP) ||
		math.IsInf(c.MinDeviationPP, 0) || math.IsInf(c.MaxDeviationPP, 0) {
		return fmt.Errorf("%w: deviation bounds must be finite", ErrInvalidConfig)
	}
	if c.MinDeviationPP > c.MaxDeviationPP {
		return fmt.Errorf("%w: min_deviation_pp %.2f exceeds max_deviation_pp %.2f",
			ErrInvalidConfig, c.MinDeviationPP, c.MaxDeviationPP)
	}
	for name, sep := range map[string]string{
		"csv_separator":     c.CSVSeparator,
		"tally_separator":   c.TallySeparator,
		"elector_separator": c.ElectorSeparator,
	} {
		if sep != `\t` && len([]rune(sep)) > 1 {
			return fmt.Errorf("%w: %s must be a single character, got %q", ErrInvalidConfig, name, sep)
		}
	}
	if strings.TrimSpace(c.UnmappedSection) == "" || strings.TrimSpace(c.ForeignSection) == "" {
		return fmt.Errorf("%w: section sentinels must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// Separator converts a configured separator to the rune the loader expects.
// An empty value yields 0 which means "sniff".
func Separator(s string) rune {
	r := []rune(s)
	if len(r) == 0 {
		return 0
	}
	if s == `\t` {
		return '\t'
	}
	return r[0]
}
