package geo

import (
	"fmt"

	"github.com/couchcryptid/storm-impact-etl/internal/domain"
	"github.com/twpayne/go-geos"
)

// Distances measures every observation against every boundary. Distances are
// planar EPSG:3857 metres truncated to integers; zero means inside or on the
// border. When maxDistanceM is positive, pairs farther than it are dropped.
func Distances(obs []domain.TrackObservation, boundaries []Boundary, maxDistanceM int) ([]domain.TrackDistance, error) {
	var out []domain.TrackDistance
	for _, o := range obs {
		x, y := WebMercator(o.Lon, o.Lat)
		pt, err := geos.NewGeomFromWKT("POINT(" + formatCoord(x, y) + ")")
		if err != nil {
			return nil, fmt.Errorf("row %d: build point: %w", o.RowID, err)
		}
		for _, b := range boundaries {
			d := int(pt.Distance(b.geom))
			if maxDistanceM > 0 && d > maxDistanceM {
				continue
			}
			out = append(out, domain.TrackDistance{
				RowID:     o.RowID,
				SID:       o.SID,
				Asap0ID:   b.Asap0ID,
				DistanceM: d,
				WMOWind:   o.WMOWind,
			})
		}
	}
	return out, nil
}
