package geo

import "math"

const (
	earthRadiusM = 6378137.0
	// maxMercatorLat is the latitude where EPSG:3857 becomes square.
	maxMercatorLat = 85.05112878
)

// WebMercator projects a WGS84 (EPSG:4326) position to EPSG:3857 metres.
// Latitudes beyond the projection's limit are clamped.
func WebMercator(lon, lat float64) (x, y float64) {
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	x = earthRadiusM * lon * math.Pi / 180
	y = earthRadiusM * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))
	return x, y
}
