package main

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/couchcryptid/storm-impact-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func compareKeys(a, b domain.RecordKey) int {
	return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Year, b.Year), cmp.Compare(a.Asap0ID, b.Asap0ID))
}

func sortedRecordKeys(m map[domain.RecordKey]string) []domain.RecordKey {
	return slices.SortedFunc(maps.Keys(m), compareKeys)
}

// ── Phase 1: sids ──

func validateSIDs(tracks []domain.StormTrack, o *domain.Overrides) *phase {
	p := &phase{name: "Phase 1: Override sids (track table)"}

	known := make(map[string]struct{}, len(tracks))
	for _, t := range tracks {
		known[t.SID] = struct{}{}
	}

	for _, table := range []struct {
		name string
		m    map[domain.RecordKey]string
	}{
		{"specific_ids", o.SpecificIDs},
		{"tiebreaks", o.Tiebreaks},
	} {
		for _, k := range sortedRecordKeys(table.m) {
			sid := table.m[k]
			if _, ok := known[sid]; !ok {
				p.errorf("%s: %q %d asap0_id=%d: sid %s is not in the track table", table.name, k.Name, k.Year, k.Asap0ID, sid)
			}
		}
	}
	return p
}

// ── Phase 2: typos ──

func validateTypos(o *domain.Overrides) *phase {
	p := &phase{name: "Phase 2: Typo corrections"}
	for _, from := range slices.Sorted(maps.Keys(o.TypoCorrections)) {
		to := o.TypoCorrections[from]
		switch {
		case to == "":
			p.errorf("typo_corrections: %q maps to an empty word", from)
		case to == from:
			p.errorf("typo_corrections: %q maps to itself", from)
		}
	}
	return p
}

// ── Phase 3: renames ──

func validateRenames(r *domain.Reconciler, o *domain.Overrides) *phase {
	p := &phase{name: "Phase 3: Renames (track names)"}
	if len(o.Renames) > 0 && o.RenameCountry == 0 {
		p.errorf("renames: %d entries but rename_country is not set", len(o.Renames))
	}

	keys := slices.SortedFunc(maps.Keys(o.Renames), func(a, b domain.NameYear) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Year, b.Year))
	})
	for _, k := range keys {
		to := o.Renames[k]
		sids, err := r.NameCandidates(to)
		if err != nil {
			p.errorf("renames: %q %d: %v", k.Name, k.Year, err)
			continue
		}
		if len(sids) == 0 {
			p.errorf("renames: %q %d: target %q matches no track name", k.Name, k.Year, to)
		}
	}
	return p
}

// ── Phase 4: tiebreaks ──

func validateTiebreaks(r *domain.Reconciler, o *domain.Overrides) *phase {
	p := &phase{name: "Phase 4: Tiebreaks (name candidates)"}
	for _, k := range sortedRecordKeys(o.Tiebreaks) {
		name := k.Name
		if o.RenameCountry != 0 && k.Asap0ID == o.RenameCountry {
			if to, ok := o.Renames[domain.NameYear{Name: k.Name, Year: k.Year}]; ok {
				name = to
			}
		}
		sids, err := r.NameCandidates(name)
		if err != nil {
			p.errorf("tiebreaks: %q %d: %v", k.Name, k.Year, err)
			continue
		}
		if sid := o.Tiebreaks[k]; !slices.Contains(sids, sid) {
			p.errorf("tiebreaks: %q %d asap0_id=%d: sid %s is not a name candidate", k.Name, k.Year, k.Asap0ID, sid)
		}
	}
	return p
}
