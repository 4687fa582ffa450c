// Command thresholds builds the track and trigger tables from IBTrACS
// observations and admin-0 boundaries. The reconcile command reads both.
//
// Usage:
//
//	go run ./cmd/thresholds \
//	  -observations data/ibtracs_observations.csv \
//	  -boundaries data/adm0_polygons.geojson \
//	  -tracks-out data/ibtracs_tracks.csv \
//	  -triggers-out data/all_adm0_thresholds.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/couchcryptid/storm-impact-etl/internal/adapter/csvtable"
	"github.com/couchcryptid/storm-impact-etl/internal/domain"
	"github.com/couchcryptid/storm-impact-etl/internal/geo"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	obsPath := flag.String("observations", "", "IBTrACS observation CSV (time,lat,lon,wmo_wind,name,sid)")
	boundariesPath := flag.String("boundaries", "", "admin-0 boundary GeoJSON with asap0_id and isocode properties")
	tracksOut := flag.String("tracks-out", "", "output path for the sid,name,year track table")
	triggersOut := flag.String("triggers-out", "", "output path for the trigger table")
	maxDistance := flag.Int("max-distance-km", domain.DefaultThresholdGrid.MaxDistanceKm, "largest distance threshold in km")
	distanceStep := flag.Int("distance-step-km", domain.DefaultThresholdGrid.DistanceStepKm, "distance threshold step in km")
	windStep := flag.Int("wind-step", domain.DefaultThresholdGrid.WindStep, "wind threshold step in knots")
	flag.Parse()

	if *obsPath == "" || *boundariesPath == "" || *tracksOut == "" || *triggersOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -observations, -boundaries, -tracks-out, -triggers-out")
	}
	grid := domain.ThresholdGrid{MaxDistanceKm: *maxDistance, DistanceStepKm: *distanceStep, WindStep: *windStep}
	if grid.MaxDistanceKm < 0 || grid.DistanceStepKm <= 0 || grid.WindStep <= 0 {
		return fmt.Errorf("invalid threshold grid %+v", grid)
	}

	start := time.Now()
	obs, err := csvtable.ReadFile(*obsPath, csvtable.ReadObservations)
	if err != nil {
		return err
	}
	log.Printf("observations: %d rows", len(obs))

	boundaries, err := geo.LoadBoundariesFile(*boundariesPath)
	if err != nil {
		return err
	}
	log.Printf("boundaries: %d countries", len(boundaries))

	dists, err := geo.Distances(obs, boundaries, grid.MaxDistanceKm*1000)
	if err != nil {
		return fmt.Errorf("compute distances: %w", err)
	}
	log.Printf("distances: %d pairs within %d km", len(dists), grid.MaxDistanceKm)

	facts := domain.ComputeTriggers(dists, grid)
	tracks := domain.GroupTracks(obs)

	if err := csvtable.WriteFile(*tracksOut, func(w io.Writer) error {
		return csvtable.WriteTracks(w, tracks)
	}); err != nil {
		return err
	}
	if err := csvtable.WriteFile(*triggersOut, func(w io.Writer) error {
		return csvtable.WriteTriggers(w, facts)
	}); err != nil {
		return err
	}

	log.Printf("wrote %d tracks to %s", len(tracks), *tracksOut)
	log.Printf("wrote %d trigger facts to %s in %s", len(facts), *triggersOut, time.Since(start).Round(time.Millisecond))
	return nil
}
