// Package geo loads country boundaries and measures how far storm track
// positions are from them in Web Mercator metres.
package geo

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	geojson "github.com/paulmach/go.geojson"
	"github.com/twpayne/go-geos"
)

// Boundary is one country outline, projected to EPSG:3857.
type Boundary struct {
	Asap0ID int
	ISOCode string
	geom    *geos.Geom
}

// LoadBoundaries decodes a GeoJSON FeatureCollection of country polygons.
// Each feature needs an asap0_id property; isocode is optional.
func LoadBoundaries(r io.Reader) ([]Boundary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read boundaries: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode boundaries: %w", err)
	}

	out := make([]Boundary, 0, len(fc.Features))
	for i, f := range fc.Features {
		b, err := newBoundary(f)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// LoadBoundariesFile reads boundaries from a GeoJSON file.
func LoadBoundariesFile(path string) ([]Boundary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open boundaries: %w", err)
	}
	defer f.Close()
	return LoadBoundaries(f)
}

func newBoundary(f *geojson.Feature) (Boundary, error) {
	id, err := asap0ID(f)
	if err != nil {
		return Boundary{}, err
	}
	iso, _ := f.PropertyString("isocode")

	if f.Geometry == nil {
		return Boundary{}, fmt.Errorf("asap0_id %d: missing geometry", id)
	}
	wkt, err := projectedWKT(f.Geometry)
	if err != nil {
		return Boundary{}, fmt.Errorf("asap0_id %d: %w", id, err)
	}
	g, err := geos.NewGeomFromWKT(wkt)
	if err != nil {
		return Boundary{}, fmt.Errorf("asap0_id %d: build geometry: %w", id, err)
	}
	return Boundary{Asap0ID: id, ISOCode: strings.ToUpper(iso), geom: g}, nil
}

// asap0ID accepts the id as a JSON number or a numeric string.
func asap0ID(f *geojson.Feature) (int, error) {
	if v, err := f.PropertyFloat64("asap0_id"); err == nil {
		return int(v), nil
	}
	s, err := f.PropertyString("asap0_id")
	if err != nil {
		return 0, fmt.Errorf("asap0_id property: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("asap0_id property: %w", err)
	}
	return n, nil
}

func projectedWKT(g *geojson.Geometry) (string, error) {
	var sb strings.Builder
	switch g.Type {
	case geojson.GeometryPolygon:
		sb.WriteString("POLYGON")
		writePolygon(&sb, g.Polygon)
	case geojson.GeometryMultiPolygon:
		sb.WriteString("MULTIPOLYGON(")
		for i, p := range g.MultiPolygon {
			if i > 0 {
				sb.WriteString(", ")
			}
			writePolygon(&sb, p)
		}
		sb.WriteString(")")
	default:
		return "", fmt.Errorf("unsupported geometry type %q", g.Type)
	}
	return sb.String(), nil
}

func writePolygon(sb *strings.Builder, rings [][][]float64) {
	sb.WriteString("(")
	for i, ring := range rings {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j, pos := range ring {
			if j > 0 {
				sb.WriteString(", ")
			}
			x, y := WebMercator(pos[0], pos[1])
			sb.WriteString(formatCoord(x, y))
		}
		sb.WriteString(")")
	}
	sb.WriteString(")")
}

func formatCoord(x, y float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64) + " " + strconv.FormatFloat(y, 'f', -1, 64)
}

// ISOIndex maps each ISO2 code to the asap0_id of the first boundary
// carrying it.
func ISOIndex(bs []Boundary) map[string]int {
	idx := make(map[string]int, len(bs))
	for _, b := range bs {
		if b.ISOCode == "" {
			continue
		}
		if _, ok := idx[b.ISOCode]; !ok {
			idx[b.ISOCode] = b.Asap0ID
		}
	}
	return idx
}
