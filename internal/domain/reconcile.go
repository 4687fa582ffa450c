package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultPatternCacheSize bounds the compiled pattern cache when callers do
// not pick a size.
const DefaultPatternCacheSize = 512

// Reconciler assigns IBTrACS sids to EM-DAT impact records. It holds
// immutable snapshots of its tables and is safe for concurrent use.
type Reconciler struct {
	tracks     []indexedTrack
	latestYear int
	triggers   *TriggerIndex
	overrides  *Overrides
	patterns   *patternCache
	stages     []stage
}

type indexedTrack struct {
	StormTrack
	matchName string
}

// matchState is the working set threaded through the stages for one record.
type matchState struct {
	rec        ImpactRecord
	key        RecordKey
	name       string
	pattern    *regexp.Regexp
	candidates []indexedTrack
}

// stage is one named resolution step. It either settles the record (done),
// lets the next stage run, or fails.
type stage struct {
	name string
	run  func(r *Reconciler, st *matchState) (res Resolution, done bool, err error)
}

// NewReconciler snapshots tracks and triggers. triggers must already be
// filtered to a single threshold pair (see LenientThreshold and
// FilterTriggers). A nil overrides is treated as empty. cacheSize <= 0
// disables pattern caching.
func NewReconciler(tracks []StormTrack, triggers []TriggerFact, overrides *Overrides, cacheSize int) *Reconciler {
	indexed := make([]indexedTrack, len(tracks))
	for i, t := range tracks {
		t.Name = strings.ToLower(t.Name)
		indexed[i] = indexedTrack{StormTrack: t, matchName: matchName(t.Name)}
	}
	if overrides == nil {
		overrides = &Overrides{}
	}
	return &Reconciler{
		tracks:     indexed,
		latestYear: LatestYear(tracks),
		triggers:   NewTriggerIndex(triggers),
		overrides:  overrides,
		patterns:   newPatternCache(cacheSize),
		stages: []stage{
			{name: "empty_name", run: (*Reconciler).stageEmptyName},
			{name: "specific_id", run: (*Reconciler).stageSpecificID},
			{name: "rename", run: (*Reconciler).stageRename},
			{name: "name", run: (*Reconciler).stageName},
			{name: "year", run: (*Reconciler).stageYearWindow},
			{name: "trigger", run: (*Reconciler).stageTrigger},
			{name: "tiebreak", run: (*Reconciler).stageTiebreak},
			{name: "single", run: (*Reconciler).stageSingle},
		},
	}
}

// LatestYear is the most recent track year the reconciler knows about.
func (r *Reconciler) LatestYear() int {
	return r.latestYear
}

// NameCandidates returns the sids of every track whose name matches name,
// ignoring year and country. A name with no words matches nothing.
func (r *Reconciler) NameCandidates(name string) ([]string, error) {
	re, err := r.pattern(name)
	if err != nil || re == nil {
		return nil, err
	}
	var out []string
	for _, t := range r.tracks {
		if re.MatchString(t.matchName) {
			out = append(out, t.SID)
		}
	}
	return out, nil
}

// Resolve settles one impact record. The error is a *MatchError or an
// *AmbiguityError when the override tables need a new entry.
func (r *Reconciler) Resolve(rec ImpactRecord) (Resolution, error) {
	st := &matchState{rec: rec, key: rec.Key(), name: rec.EventName}
	for _, s := range r.stages {
		res, done, err := s.run(r, st)
		if err != nil {
			return Resolution{}, err
		}
		if done {
			return res, nil
		}
	}
	return Resolution{}, fmt.Errorf("reconcile %q: no stage settled the record", rec.EventName)
}

func (r *Reconciler) stageEmptyName(st *matchState) (Resolution, bool, error) {
	if strings.TrimSpace(st.rec.EventName) == "" {
		return Resolution{Outcome: OutcomeEmptyName}, true, nil
	}
	return Resolution{}, false, nil
}

func (r *Reconciler) stageSpecificID(st *matchState) (Resolution, bool, error) {
	if sid, ok := r.overrides.specificID(st.key); ok {
		return Resolution{SID: sid, Outcome: OutcomeSpecificID}, true, nil
	}
	return Resolution{}, false, nil
}

func (r *Reconciler) stageRename(st *matchState) (Resolution, bool, error) {
	if name, ok := r.overrides.rename(st.key); ok {
		st.name = name
	}
	return Resolution{}, false, nil
}

func (r *Reconciler) stageName(st *matchState) (Resolution, bool, error) {
	re, err := r.pattern(st.name)
	if err != nil {
		return Resolution{}, false, err
	}
	if re == nil {
		// Nothing but punctuation: no words to match on.
		return Resolution{Outcome: OutcomeEmptyName}, true, nil
	}
	st.pattern = re

	for _, t := range r.tracks {
		if re.MatchString(t.matchName) {
			st.candidates = append(st.candidates, t)
		}
	}
	if len(st.candidates) == 0 {
		return r.unmatched(st, "name")
	}
	return Resolution{}, false, nil
}

func (r *Reconciler) stageYearWindow(st *matchState) (Resolution, bool, error) {
	year := st.rec.StartYear
	kept := st.candidates[:0:0]
	for _, t := range st.candidates {
		if t.Year == year || t.Year == year-1 {
			kept = append(kept, t)
		}
	}
	st.candidates = kept
	if len(kept) == 0 {
		return r.unmatched(st, "year")
	}
	return Resolution{}, false, nil
}

func (r *Reconciler) stageTrigger(st *matchState) (Resolution, bool, error) {
	before := st.candidates
	kept := make([]indexedTrack, 0, len(before))
	for _, t := range before {
		if r.triggers.Triggered(t.SID, st.rec.Asap0ID) {
			kept = append(kept, t)
		}
	}
	if len(kept) > 0 {
		st.candidates = kept
		return Resolution{}, false, nil
	}

	if st.rec.StartYear > r.latestYear {
		return Resolution{Outcome: OutcomeFutureYear}, true, nil
	}
	// The trigger table is a soft signal: a lone name/year match stands even
	// when the storm never reached the lenient threshold for this country.
	if len(before) == 1 {
		return Resolution{SID: before[0].SID, Outcome: OutcomeSoftThreshold}, true, nil
	}

	var exact []indexedTrack
	for _, t := range before {
		if t.Year == st.rec.StartYear {
			exact = append(exact, t)
		}
	}
	if len(exact) == 1 {
		return Resolution{SID: exact[0].SID, Outcome: OutcomeExactYear}, true, nil
	}
	if sid, ok := r.overrides.tiebreak(st.key); ok {
		return Resolution{SID: sid, Outcome: OutcomeTiebreak}, true, nil
	}
	return Resolution{}, false, &AmbiguityError{RecordKey: st.key, Candidates: sids(before)}
}

func (r *Reconciler) stageTiebreak(st *matchState) (Resolution, bool, error) {
	if len(st.candidates) <= 1 {
		return Resolution{}, false, nil
	}
	if sid, ok := r.overrides.tiebreak(st.key); ok {
		return Resolution{SID: sid, Outcome: OutcomeTiebreak}, true, nil
	}
	return Resolution{}, false, &AmbiguityError{RecordKey: st.key, Candidates: sids(st.candidates)}
}

func (r *Reconciler) stageSingle(st *matchState) (Resolution, bool, error) {
	return Resolution{SID: st.candidates[0].SID, Outcome: OutcomeMatched}, true, nil
}

// unmatched applies the shared policy for an empty candidate set.
func (r *Reconciler) unmatched(st *matchState, stageName string) (Resolution, bool, error) {
	if st.rec.StartYear > r.latestYear {
		return Resolution{Outcome: OutcomeFutureYear}, true, nil
	}
	if r.overrides.notRecognized(st.key) {
		return Resolution{Outcome: OutcomeNotRecognized}, true, nil
	}
	return Resolution{}, false, &MatchError{RecordKey: st.key, Stage: stageName}
}

func (r *Reconciler) pattern(name string) (*regexp.Regexp, error) {
	words := NameWords(name, r.overrides)
	if len(words) == 0 {
		return nil, nil
	}
	key := strings.Join(words, "|")
	if re, ok := r.patterns.get(key); ok {
		return re, nil
	}
	re, err := CompileWords(words)
	if err != nil {
		return nil, err
	}
	r.patterns.put(key, re)
	return re, nil
}

func sids(tracks []indexedTrack) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.SID
	}
	return out
}
