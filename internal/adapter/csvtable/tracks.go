package csvtable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-impact-etl/internal/domain"
)

var observationTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ReadTracks reads a sid,name,year track table.
func ReadTracks(r io.Reader, source string) ([]domain.StormTrack, error) {
	rr, err := newRowReader(r, source, "sid", "name", "year")
	if err != nil {
		return nil, err
	}

	var tracks []domain.StormTrack
	for {
		rec, err := rr.next()
		if errors.Is(err, io.EOF) {
			return tracks, nil
		}
		if err != nil {
			return nil, err
		}
		year, err := rr.int(rec, "year")
		if err != nil {
			return nil, err
		}
		sid := rr.get(rec, "sid")
		if sid == "" {
			return nil, rr.errorf("empty sid")
		}
		tracks = append(tracks, domain.StormTrack{SID: sid, Name: rr.get(rec, "name"), Year: year})
	}
}

// WriteTracks writes a sid,name,year track table.
func WriteTracks(w io.Writer, tracks []domain.StormTrack) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"sid", "name", "year"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range tracks {
		if err := cw.Write([]string{t.SID, t.Name, strconv.Itoa(t.Year)}); err != nil {
			return fmt.Errorf("write track %s: %w", t.SID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadObservations reads raw track fixes (time,lat,lon,wmo_wind,name,sid).
// Rows without a WMO wind value are skipped. RowID is the zero-based data
// row index of the source file.
func ReadObservations(r io.Reader, source string) ([]domain.TrackObservation, error) {
	rr, err := newRowReader(r, source, "time", "lat", "lon", "wmo_wind", "name", "sid")
	if err != nil {
		return nil, err
	}

	var obs []domain.TrackObservation
	for row := 0; ; row++ {
		rec, err := rr.next()
		if errors.Is(err, io.EOF) {
			return obs, nil
		}
		if err != nil {
			return nil, err
		}
		if rr.get(rec, "wmo_wind") == "" {
			continue
		}

		o := domain.TrackObservation{RowID: row, SID: rr.get(rec, "sid"), Name: rr.get(rec, "name")}
		if o.WMOWind, err = rr.float(rec, "wmo_wind"); err != nil {
			return nil, err
		}
		if o.Lat, err = rr.float(rec, "lat"); err != nil {
			return nil, err
		}
		if o.Lon, err = rr.float(rec, "lon"); err != nil {
			return nil, err
		}
		if o.Time, err = parseObservationTime(rr.get(rec, "time")); err != nil {
			return nil, rr.errorf("column %q: %w", "time", err)
		}
		obs = append(obs, o)
	}
}

func parseObservationTime(s string) (time.Time, error) {
	for _, layout := range observationTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

// ReadTriggers reads a sid,asap0_id,d_thresh,s_thresh trigger table.
func ReadTriggers(r io.Reader, source string) ([]domain.TriggerFact, error) {
	rr, err := newRowReader(r, source, "sid", "asap0_id", "d_thresh", "s_thresh")
	if err != nil {
		return nil, err
	}

	var facts []domain.TriggerFact
	for {
		rec, err := rr.next()
		if errors.Is(err, io.EOF) {
			return facts, nil
		}
		if err != nil {
			return nil, err
		}
		f := domain.TriggerFact{SID: rr.get(rec, "sid")}
		if f.Asap0ID, err = rr.int(rec, "asap0_id"); err != nil {
			return nil, err
		}
		if f.DistanceKm, err = rr.int(rec, "d_thresh"); err != nil {
			return nil, err
		}
		if f.WindSpeed, err = rr.int(rec, "s_thresh"); err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
}

// WriteTriggers writes a sid,asap0_id,d_thresh,s_thresh trigger table.
func WriteTriggers(w io.Writer, facts []domain.TriggerFact) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"sid", "asap0_id", "d_thresh", "s_thresh"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, f := range facts {
		rec := []string{f.SID, strconv.Itoa(f.Asap0ID), strconv.Itoa(f.DistanceKm), strconv.Itoa(f.WindSpeed)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write trigger %s/%d: %w", f.SID, f.Asap0ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
