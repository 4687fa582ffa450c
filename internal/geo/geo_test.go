package geo

import (
	"strings"
	"testing"

	"github.com/couchcryptid/storm-impact-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boundariesJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"asap0_id": 7, "isocode": "aa"},
      "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]}
    },
    {
      "type": "Feature",
      "properties": {"asap0_id": "9", "isocode": "BB"},
      "geometry": {"type": "MultiPolygon", "coordinates": [
        [[[10,0],[11,0],[11,1],[10,1],[10,0]]],
        [[[20,0],[21,0],[21,1],[20,1],[20,0]]]
      ]}
    }
  ]
}`

func TestWebMercator(t *testing.T) {
	x, y := WebMercator(0, 0)
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)

	x, _ = WebMercator(180, 0)
	assert.InDelta(t, 20037508.342789244, x, 1e-6)

	_, yMax := WebMercator(0, 90)
	_, yLimit := WebMercator(0, maxMercatorLat)
	assert.InDelta(t, yLimit, yMax, 1e-9, "poles are clamped")
	assert.InDelta(t, 20037508.34, yLimit, 1)
}

func TestLoadBoundaries(t *testing.T) {
	bs, err := LoadBoundaries(strings.NewReader(boundariesJSON))
	require.NoError(t, err)
	require.Len(t, bs, 2)

	assert.Equal(t, 7, bs[0].Asap0ID)
	assert.Equal(t, "AA", bs[0].ISOCode)
	assert.Equal(t, 9, bs[1].Asap0ID, "string ids are accepted")

	assert.Equal(t, map[string]int{"AA": 7, "BB": 9}, ISOIndex(bs))
}

func TestLoadBoundaries_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", "nope"},
		{"missing id", `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},
			"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}]}`},
		{"point geometry", `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"asap0_id":1},
			"geometry":{"type":"Point","coordinates":[0,0]}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBoundaries(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestDistances(t *testing.T) {
	bs, err := LoadBoundaries(strings.NewReader(boundariesJSON))
	require.NoError(t, err)

	obs := []domain.TrackObservation{
		{RowID: 1, SID: "S1", Lat: 0.5, Lon: 0.5, WMOWind: 40},
		{RowID: 2, SID: "S1", Lat: 0.5, Lon: 2, WMOWind: 55},
	}

	dists, err := Distances(obs, bs, 0)
	require.NoError(t, err)
	require.Len(t, dists, 4)

	byKey := make(map[[2]int]domain.TrackDistance)
	for _, d := range dists {
		byKey[[2]int{d.RowID, d.Asap0ID}] = d
	}

	inside := byKey[[2]int{1, 7}]
	assert.Equal(t, 0, inside.DistanceM)
	assert.Equal(t, "S1", inside.SID)
	assert.InDelta(t, 40, inside.WMOWind, 0)

	// One degree of longitude at the equator, truncated.
	assert.Equal(t, 111319, byKey[[2]int{2, 7}].DistanceM)
	// Nearest part of the multipolygon is 8 degrees east.
	assert.Equal(t, 890555, byKey[[2]int{2, 9}].DistanceM)

	t.Run("cutoff drops far pairs", func(t *testing.T) {
		near, err := Distances(obs, bs, 200_000)
		require.NoError(t, err)
		require.Len(t, near, 2)
		for _, d := range near {
			assert.Equal(t, 7, d.Asap0ID)
		}
	})
}
