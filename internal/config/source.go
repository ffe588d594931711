package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/storm-track-etl/internal/domain"
	"github.com/couchcryptid/storm-track-etl/internal/units"
)

// SkipColumn names an input field that is read but ignored.
const SkipColumn = "skip"

// Longitudes wraps domain.LongitudeConvention to accept "east" or "west" in YAML.
type Longitudes domain.LongitudeConvention

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *Longitudes) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "east":
		*l = Longitudes(domain.EastPositive)
	case "west":
		*l = Longitudes(domain.WestPositive)
	default:
		return fmt.Errorf("invalid longitude convention %q: want east or west", s)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (l Longitudes) MarshalYAML() (interface{}, error) {
	if domain.LongitudeConvention(l) == domain.WestPositive {
		return "west", nil
	}
	return "east", nil
}

// Source describes one best-track data provider: how its file is laid out
// and which units and conventions its values use.
type Source struct {
	Name          string     `yaml:"name"`
	Columns       []string   `yaml:"columns"`
	Delimiter     string     `yaml:"delimiter"`
	HeaderRows    int        `yaml:"header_rows"`
	SpeedUnits    string     `yaml:"speed_units"`
	PressureUnits string     `yaml:"pressure_units"`
	LengthUnits   string     `yaml:"length_units"`
	DateFormat    string     `yaml:"date_format"`
	StartSeason   int        `yaml:"start_season"`
	Longitudes    Longitudes `yaml:"longitudes"`
}

// LoadSource reads a source description from a YAML file, applies defaults and validates it.
func LoadSource(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source config: %w", err)
	}
	return ParseSource(data)
}

// ParseSource parses a YAML source description.
func ParseSource(data []byte) (*Source, error) {
	var src Source
	if err := yaml.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("parse source config: %w", err)
	}
	src.applyDefaults()
	if err := src.Validate(); err != nil {
		return nil, err
	}
	return &src, nil
}

func (s *Source) applyDefaults() {
	if s.Delimiter == "" {
		s.Delimiter = ","
	}
	if s.SpeedUnits == "" {
		s.SpeedUnits = "mps"
	}
	if s.PressureUnits == "" {
		s.PressureUnits = "hPa"
	}
	if s.LengthUnits == "" {
		s.LengthUnits = "km"
	}
	if s.DateFormat == "" {
		s.DateFormat = domain.DefaultDateFormat
	}
	for i, c := range s.Columns {
		s.Columns[i] = strings.ToLower(strings.TrimSpace(c))
	}
}

// Validate checks column names, units and delimiter.
func (s *Source) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("source name is required"))
	}
	if len(s.Columns) == 0 {
		errs = append(errs, errors.New("at least one column is required"))
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if c == SkipColumn {
			continue
		}
		if !domain.IsKnownColumn(c) {
			errs = append(errs, fmt.Errorf("unknown column %q", c))
		}
		if seen[c] {
			errs = append(errs, fmt.Errorf("duplicate column %q", c))
		}
		seen[c] = true
	}
	for _, need := range []string{domain.ColLon, domain.ColLat, domain.ColPressure} {
		if !seen[need] {
			errs = append(errs, fmt.Errorf("column %q is required", need))
		}
	}
	if utf8.RuneCountInString(s.resolvedDelimiter()) != 1 {
		errs = append(errs, fmt.Errorf("delimiter %q must be a single character", s.Delimiter))
	}
	if s.HeaderRows < 0 {
		errs = append(errs, errors.New("header_rows must not be negative"))
	}
	for _, u := range []struct{ field, name, canonical string }{
		{"speed_units", s.SpeedUnits, domain.WindUnit},
		{"pressure_units", s.PressureUnits, domain.PressureUnit},
		{"length_units", s.LengthUnits, domain.LengthUnit},
	} {
		if err := units.Validate(u.name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", u.field, err))
		} else if _, err := units.Convert(nil, u.name, u.canonical); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", u.field, err))
		}
	}
	return errors.Join(errs...)
}

// resolvedDelimiter resolves the named delimiters "tab" and "space".
func (s *Source) resolvedDelimiter() string {
	switch strings.ToLower(s.Delimiter) {
	case "tab", `\t`:
		return "\t"
	case "space", "whitespace":
		return " "
	default:
		return s.Delimiter
	}
}

// Delim returns the delimiter as a rune for the CSV reader.
func (s *Source) Delim() rune {
	r, _ := utf8.DecodeRuneInString(s.resolvedDelimiter())
	return r
}

// EngineOptions returns the engine settings this source implies.
func (s *Source) EngineOptions() domain.Options {
	return domain.Options{
		SpeedUnit:    s.SpeedUnits,
		PressureUnit: s.PressureUnits,
		LengthUnit:   s.LengthUnits,
		DateFormat:   s.DateFormat,
		MinSeason:    s.StartSeason,
		Longitudes:   domain.LongitudeConvention(s.Longitudes),
	}
}
