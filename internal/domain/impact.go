package domain

import "time"

// ImpactRecord is one EM-DAT row: a country hit by a named event in a year.
// Extra holds the remaining source columns so output keeps them.
type ImpactRecord struct {
	EventName string            `json:"event_name"`
	StartYear int               `json:"start_year"`
	Asap0ID   int               `json:"asap0_id"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Key identifies the record in override tables.
func (r ImpactRecord) Key() RecordKey {
	return RecordKey{Name: r.EventName, Year: r.StartYear, Asap0ID: r.Asap0ID}
}

// Outcome names the reconciler stage that settled a record.
type Outcome string

const (
	OutcomeEmptyName     Outcome = "empty_name"
	OutcomeSpecificID    Outcome = "specific_id"
	OutcomeFutureYear    Outcome = "future_year"
	OutcomeNotRecognized Outcome = "not_recognized"
	OutcomeSoftThreshold Outcome = "soft_threshold"
	OutcomeExactYear     Outcome = "exact_year"
	OutcomeTiebreak      Outcome = "tiebreak"
	OutcomeMatched       Outcome = "matched"
)

// Resolution is the reconciler's answer for one record. SID is empty when
// the record is deliberately unresolved.
type Resolution struct {
	SID     string  `json:"sid"`
	Outcome Outcome `json:"match_outcome"`
}

// Resolved reports whether a storm id was assigned.
func (r Resolution) Resolved() bool {
	return r.SID != ""
}

// ResolvedImpact is an impact record joined with its resolution and the run
// that produced it.
type ResolvedImpact struct {
	ImpactRecord
	Resolution
	RunID      string    `json:"run_id"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// NewResolvedImpact stamps a resolution with the run id and the current time.
func NewResolvedImpact(rec ImpactRecord, res Resolution, runID string) ResolvedImpact {
	return ResolvedImpact{
		ImpactRecord: rec,
		Resolution:   res,
		RunID:        runID,
		ResolvedAt:   clock.Now().UTC(),
	}
}
