package domain

import (
	"sort"
	"strings"
	"time"
)

// TrackObservation is one IBTrACS fix that carries a WMO wind value.
type TrackObservation struct {
	RowID   int       `json:"row_id"`
	SID     string    `json:"sid"`
	Name    string    `json:"name"`
	Time    time.Time `json:"time"`
	Lat     float64   `json:"lat"`
	Lon     float64   `json:"lon"`
	WMOWind float64   `json:"wmo_wind"`
}

// StormTrack is the per-storm summary the reconciler matches against.
type StormTrack struct {
	SID  string `json:"sid"`
	Name string `json:"name"`
	Year int    `json:"year"`
}

// GroupTracks collapses observations to one track per sid using the earliest
// fix. Names are lowercased. Output is sorted by year, then sid.
func GroupTracks(obs []TrackObservation) []StormTrack {
	first := make(map[string]TrackObservation, len(obs)/8+1)
	for _, o := range obs {
		prev, ok := first[o.SID]
		if !ok || o.Time.Before(prev.Time) {
			first[o.SID] = o
		}
	}

	tracks := make([]StormTrack, 0, len(first))
	for sid, o := range first {
		tracks = append(tracks, StormTrack{
			SID:  sid,
			Name: strings.ToLower(strings.TrimSpace(o.Name)),
			Year: o.Time.UTC().Year(),
		})
	}
	sort.Slice(tracks, func(i, j int) bool {
		if tracks[i].Year != tracks[j].Year {
			return tracks[i].Year < tracks[j].Year
		}
		return tracks[i].SID < tracks[j].SID
	})
	return tracks
}

// LatestYear returns the most recent first-observed year in tracks, or 0.
func LatestYear(tracks []StormTrack) int {
	latest := 0
	for _, t := range tracks {
		if t.Year > latest {
			latest = t.Year
		}
	}
	return latest
}

// matchName is the track name as seen by name patterns.
func matchName(name string) string {
	return strings.ReplaceAll(name, "-", " ")
}
