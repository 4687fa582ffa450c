package domain

import "sort"

// TrackDistance is the distance from one track observation to one country.
type TrackDistance struct {
	RowID     int     `json:"row_id"`
	SID       string  `json:"sid"`
	Asap0ID   int     `json:"asap0_id"`
	DistanceM int     `json:"distance_m"`
	WMOWind   float64 `json:"wmo_wind"`
}

// ThresholdGrid describes the distance and wind thresholds to enumerate.
// Distances run 0..MaxDistanceKm and winds 0..max observed wind, both
// inclusive.
type ThresholdGrid struct {
	MaxDistanceKm  int
	DistanceStepKm int
	WindStep       int
}

// DefaultThresholdGrid is 0..500 km in 10 km steps and 5 knot wind steps.
var DefaultThresholdGrid = ThresholdGrid{MaxDistanceKm: 500, DistanceStepKm: 10, WindStep: 5}

type stormCountry struct {
	sid   string
	asap0 int
}

// reach is a storm/country pair's observations sorted by distance, with the
// running maximum wind so "max wind within d" is one binary search.
type reach struct {
	distances []int
	maxWind   []float64
}

func (r reach) maxWindWithin(distanceM int) (float64, bool) {
	n := sort.SearchInts(r.distances, distanceM+1)
	if n == 0 {
		return 0, false
	}
	return r.maxWind[n-1], true
}

// ComputeTriggers enumerates every threshold pair of grid and emits one fact
// per storm/country pair with an observation at or inside the distance whose
// wind is at least the wind threshold. Output is ordered by distance, wind,
// sid, then country.
func ComputeTriggers(dists []TrackDistance, grid ThresholdGrid) []TriggerFact {
	if len(dists) == 0 || grid.DistanceStepKm <= 0 || grid.WindStep <= 0 {
		return nil
	}

	grouped := make(map[stormCountry][]TrackDistance)
	peakWind := 0.0
	for _, d := range dists {
		k := stormCountry{sid: d.SID, asap0: d.Asap0ID}
		grouped[k] = append(grouped[k], d)
		if d.WMOWind > peakWind {
			peakWind = d.WMOWind
		}
	}

	keys := make([]stormCountry, 0, len(grouped))
	reaches := make(map[stormCountry]reach, len(grouped))
	for k, rows := range grouped {
		keys = append(keys, k)
		sort.Slice(rows, func(i, j int) bool { return rows[i].DistanceM < rows[j].DistanceM })
		r := reach{distances: make([]int, len(rows)), maxWind: make([]float64, len(rows))}
		for i, row := range rows {
			r.distances[i] = row.DistanceM
			r.maxWind[i] = row.WMOWind
			if i > 0 && r.maxWind[i-1] > r.maxWind[i] {
				r.maxWind[i] = r.maxWind[i-1]
			}
		}
		reaches[k] = r
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].sid != keys[j].sid {
			return keys[i].sid < keys[j].sid
		}
		return keys[i].asap0 < keys[j].asap0
	})

	maxWindThreshold := int(peakWind)
	var facts []TriggerFact
	for d := 0; d <= grid.MaxDistanceKm; d += grid.DistanceStepKm {
		for s := 0; s <= maxWindThreshold; s += grid.WindStep {
			for _, k := range keys {
				w, ok := reaches[k].maxWindWithin(d * 1000)
				if !ok || w < float64(s) {
					continue
				}
				facts = append(facts, TriggerFact{SID: k.sid, Asap0ID: k.asap0, DistanceKm: d, WindSpeed: s})
			}
		}
	}
	return facts
}
