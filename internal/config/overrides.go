package config

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/storm-impact-etl/internal/domain"
	"github.com/spf13/viper"
)

// OverridesFile is the on-disk shape of the override tables. Any format viper
// reads (YAML, JSON, TOML) works; the extension picks the parser.
type OverridesFile struct {
	RenameCountry   int               `mapstructure:"rename_country"`
	TypoCorrections map[string]string `mapstructure:"typo_corrections"`
	NotRecognized   []RecordEntry     `mapstructure:"not_recognized"`
	Renames         []RenameEntry     `mapstructure:"renames"`
	SpecificIDs     []SIDEntry        `mapstructure:"specific_ids"`
	Tiebreaks       []SIDEntry        `mapstructure:"tiebreaks"`
}

// RecordEntry names one impact record.
type RecordEntry struct {
	Name    string `mapstructure:"name"`
	Year    int    `mapstructure:"year"`
	Asap0ID int    `mapstructure:"asap0_id"`
}

// RenameEntry replaces the matching name of an event in a year.
type RenameEntry struct {
	Name string `mapstructure:"name"`
	Year int    `mapstructure:"year"`
	To   string `mapstructure:"to"`
}

// SIDEntry pins an impact record to a storm id.
type SIDEntry struct {
	Name    string `mapstructure:"name"`
	Year    int    `mapstructure:"year"`
	Asap0ID int    `mapstructure:"asap0_id"`
	SID     string `mapstructure:"sid"`
}

func (e RecordEntry) key() domain.RecordKey {
	return domain.RecordKey{Name: e.Name, Year: e.Year, Asap0ID: e.Asap0ID}
}

func (e SIDEntry) key() domain.RecordKey {
	return domain.RecordKey{Name: e.Name, Year: e.Year, Asap0ID: e.Asap0ID}
}

// LoadOverrides reads the override tables from path. An empty path yields
// empty tables.
func LoadOverrides(path string) (*domain.Overrides, error) {
	if path == "" {
		return &domain.Overrides{}, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("rename_country", 0)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read overrides file: %w", err)
	}

	var file OverridesFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal overrides: %w", err)
	}

	return file.Build()
}

// Build validates the file contents and converts them to lookup tables.
func (f *OverridesFile) Build() (*domain.Overrides, error) {
	o := &domain.Overrides{
		RenameCountry:   f.RenameCountry,
		TypoCorrections: make(map[string]string, len(f.TypoCorrections)),
		NotRecognized:   make(map[domain.RecordKey]struct{}, len(f.NotRecognized)),
		Renames:         make(map[domain.NameYear]string, len(f.Renames)),
		SpecificIDs:     make(map[domain.RecordKey]string, len(f.SpecificIDs)),
		Tiebreaks:       make(map[domain.RecordKey]string, len(f.Tiebreaks)),
	}

	for from, to := range f.TypoCorrections {
		if strings.TrimSpace(from) == "" {
			return nil, fmt.Errorf("typo_corrections: empty source word")
		}
		o.TypoCorrections[from] = to
	}
	o.NormalizeTypos()

	for i, e := range f.NotRecognized {
		if e.Name == "" {
			return nil, fmt.Errorf("not_recognized[%d]: name is required", i)
		}
		o.NotRecognized[e.key()] = struct{}{}
	}

	if len(f.Renames) > 0 && f.RenameCountry == 0 {
		return nil, fmt.Errorf("renames given but rename_country is not set")
	}
	for i, e := range f.Renames {
		if e.Name == "" || e.To == "" {
			return nil, fmt.Errorf("renames[%d]: name and to are required", i)
		}
		k := domain.NameYear{Name: e.Name, Year: e.Year}
		if _, dup := o.Renames[k]; dup {
			return nil, fmt.Errorf("renames[%d]: duplicate entry for %q %d", i, e.Name, e.Year)
		}
		o.Renames[k] = e.To
	}

	if err := addSIDs(o.SpecificIDs, f.SpecificIDs, "specific_ids"); err != nil {
		return nil, err
	}
	if err := addSIDs(o.Tiebreaks, f.Tiebreaks, "tiebreaks"); err != nil {
		return nil, err
	}

	return o, nil
}

func addSIDs(dst map[domain.RecordKey]string, entries []SIDEntry, table string) error {
	for i, e := range entries {
		if e.Name == "" || e.SID == "" {
			return fmt.Errorf("%s[%d]: name and sid are required", table, i)
		}
		k := e.key()
		if prev, dup := dst[k]; dup && prev != e.SID {
			return fmt.Errorf("%s[%d]: %q %d asap0_id=%d maps to both %s and %s",
				table, i, e.Name, e.Year, e.Asap0ID, prev, e.SID)
		}
		dst[k] = e.SID
	}
	return nil
}
