package domain

import "strings"

// RecordKey identifies an impact record by its source event name, start year
// and country.
type RecordKey struct {
	Name    string `json:"name" mapstructure:"name"`
	Year    int    `json:"year" mapstructure:"year"`
	Asap0ID int    `json:"asap0_id" mapstructure:"asap0_id"`
}

// NameYear identifies an event name within a year.
type NameYear struct {
	Name string `json:"name" mapstructure:"name"`
	Year int    `json:"year" mapstructure:"year"`
}

// Overrides holds the hand-curated tables consulted around the matching
// algorithm. The zero value is valid and overrides nothing. Lookups on Name
// use the event name exactly as it appears in the impact table.
type Overrides struct {
	// TypoCorrections maps a lowercase event-name word to the word used for
	// matching.
	TypoCorrections map[string]string
	// NotRecognized lists records whose storm is absent from the track archive.
	NotRecognized map[RecordKey]struct{}
	// RenameCountry is the only country Renames applies to. Zero disables it.
	RenameCountry int
	// Renames replaces the event name used for matching.
	Renames map[NameYear]string
	// SpecificIDs assigns a sid directly, skipping the algorithm.
	SpecificIDs map[RecordKey]string
	// Tiebreaks picks a sid when several candidates survive every filter, or
	// when the trigger stage leaves several untriggered candidates.
	Tiebreaks map[RecordKey]string
}

func (o *Overrides) correct(word string) string {
	if o == nil {
		return word
	}
	if fixed, ok := o.TypoCorrections[word]; ok {
		return fixed
	}
	return word
}

func (o *Overrides) specificID(k RecordKey) (string, bool) {
	if o == nil {
		return "", false
	}
	sid, ok := o.SpecificIDs[k]
	return sid, ok
}

func (o *Overrides) rename(k RecordKey) (string, bool) {
	if o == nil || o.RenameCountry == 0 || k.Asap0ID != o.RenameCountry {
		return "", false
	}
	name, ok := o.Renames[NameYear{Name: k.Name, Year: k.Year}]
	return name, ok
}

func (o *Overrides) notRecognized(k RecordKey) bool {
	if o == nil {
		return false
	}
	_, ok := o.NotRecognized[k]
	return ok
}

func (o *Overrides) tiebreak(k RecordKey) (string, bool) {
	if o == nil {
		return "", false
	}
	sid, ok := o.Tiebreaks[k]
	return sid, ok
}

// NormalizeTypos lowercases both sides of the typo table so lookups match
// the lowercased words produced by the name cleaner.
func (o *Overrides) NormalizeTypos() {
	if o == nil || len(o.TypoCorrections) == 0 {
		return
	}
	fixed := make(map[string]string, len(o.TypoCorrections))
	for from, to := range o.TypoCorrections {
		fixed[strings.ToLower(strings.TrimSpace(from))] = strings.ToLower(strings.TrimSpace(to))
	}
	o.TypoCorrections = fixed
}
