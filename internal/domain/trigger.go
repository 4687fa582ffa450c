package domain

// TriggerFact records that storm SID passed within DistanceKm of country
// Asap0ID while its WMO wind was at least WindSpeed.
type TriggerFact struct {
	SID        string `json:"sid"`
	Asap0ID    int    `json:"asap0_id"`
	DistanceKm int    `json:"d_thresh"`
	WindSpeed  int    `json:"s_thresh"`
}

// Threshold is a (distance, wind) pair in the trigger grid.
type Threshold struct {
	DistanceKm int
	WindSpeed  int
}

// LenientThreshold returns the most permissive pair present in facts: the
// largest distance and the smallest wind. ok is false when facts is empty.
func LenientThreshold(facts []TriggerFact) (th Threshold, ok bool) {
	for i, f := range facts {
		if i == 0 {
			th = Threshold{DistanceKm: f.DistanceKm, WindSpeed: f.WindSpeed}
			continue
		}
		if f.DistanceKm > th.DistanceKm {
			th.DistanceKm = f.DistanceKm
		}
		if f.WindSpeed < th.WindSpeed {
			th.WindSpeed = f.WindSpeed
		}
	}
	return th, len(facts) > 0
}

// FilterTriggers keeps the facts recorded for exactly the given pair.
func FilterTriggers(facts []TriggerFact, th Threshold) []TriggerFact {
	out := make([]TriggerFact, 0, len(facts)/4+1)
	for _, f := range facts {
		if f.DistanceKm == th.DistanceKm && f.WindSpeed == th.WindSpeed {
			out = append(out, f)
		}
	}
	return out
}

// TriggerIndex answers "did storm sid trigger country asap0" in O(1).
type TriggerIndex struct {
	hits map[string]map[int]struct{}
}

// NewTriggerIndex indexes facts by sid and country. Thresholds are ignored,
// so callers filter to one pair first.
func NewTriggerIndex(facts []TriggerFact) *TriggerIndex {
	idx := &TriggerIndex{hits: make(map[string]map[int]struct{})}
	for _, f := range facts {
		countries, ok := idx.hits[f.SID]
		if !ok {
			countries = make(map[int]struct{})
			idx.hits[f.SID] = countries
		}
		countries[f.Asap0ID] = struct{}{}
	}
	return idx
}

// Triggered reports whether sid has a fact for asap0.
func (t *TriggerIndex) Triggered(sid string, asap0 int) bool {
	if t == nil {
		return false
	}
	_, ok := t.hits[sid][asap0]
	return ok
}

// Len returns the number of indexed storms.
func (t *TriggerIndex) Len() int {
	if t == nil {
		return 0
	}
	return len(t.hits)
}
