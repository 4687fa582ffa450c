// Package ecmwf decodes ECMWF tropical cyclone forecasts in the CXML
// exchange format into flat per-fix records.
package ecmwf

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the timestamp layout used for ValidTime and ForecastTime in
// flat output tables.
const TimeLayout = "2006/01/02, 15:04:05"

// Forecast data types kept by the decoder. Analysis blocks are dropped.
const (
	TypeForecast         = "forecast"
	TypeEnsembleForecast = "ensembleForecast"
)

// ErrMalformed marks a file that is not CXML or is missing its header.
var ErrMalformed = errors.New("malformed cxml")

// Fix is one forecast position of one cyclone from one model run.
type Fix struct {
	MType         string    `json:"mtype"`
	Product       string    `json:"product"`
	CycloneNumber string    `json:"cyc_number"`
	Ensemble      string    `json:"ensemble"`
	Name          string    `json:"name"`
	Basin         string    `json:"basin"`
	Speed         string    `json:"speed"`
	Pressure      string    `json:"pressure"`
	ValidTime     time.Time `json:"time"`
	Lat           float64   `json:"lat"`
	Lon           float64   `json:"lon"`
	LeadTimeHours int       `json:"lead_time"`
	ForecastTime  time.Time `json:"forecast_time"`
}

type document struct {
	XMLName xml.Name `xml:"cxml"`
	Header  struct {
		ProductionCenter struct {
			Text string `xml:",chardata"`
		} `xml:"productionCenter"`
		BaseTime string `xml:"baseTime"`
	} `xml:"header"`
	Data []dataBlock `xml:"data"`
}

type dataBlock struct {
	Type         string        `xml:"type,attr"`
	Member       string        `xml:"member,attr"`
	Disturbances []disturbance `xml:"disturbance"`
}

type disturbance struct {
	CycloneNames   []string `xml:"cycloneName"`
	CycloneNumbers []string `xml:"cycloneNumber"`
	Basin          string   `xml:"basin"`
	Fixes          []fix    `xml:"fix"`
}

type fix struct {
	Hour      string     `xml:"hour,attr"`
	ValidTime string     `xml:"validTime"`
	Latitude  coordinate `xml:"latitude"`
	Longitude coordinate `xml:"longitude"`
	Speed     []string   `xml:"cycloneData>maximumWind>speed"`
	Pressure  []string   `xml:"cycloneData>minimumPressure>pressure"`
}

type coordinate struct {
	Units string `xml:"units,attr"`
	Value string `xml:",chardata"`
}

// signed applies the hemisphere in the units attribute: "deg S" and "deg W"
// are negative.
func (c coordinate) signed() (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
	if err != nil {
		return 0, err
	}
	switch c.Units {
	case "deg S", "deg W":
		return -v, nil
	}
	return v, nil
}

// Decode reads one CXML document. When names is non-empty only cyclones
// with one of those names (case-insensitive) are returned.
func Decode(r io.Reader, names ...string) ([]Fix, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if doc.Header.BaseTime == "" {
		return nil, fmt.Errorf("%w: header has no baseTime", ErrMalformed)
	}

	baseTime, err := parseTime(doc.Header.BaseTime)
	if err != nil {
		return nil, fmt.Errorf("%w: baseTime: %w", ErrMalformed, err)
	}
	product := strings.ToLower(strings.Join(strings.Fields(doc.Header.ProductionCenter.Text), " "))
	keep := nameFilter(names)

	var fixes []Fix
	for _, d := range doc.Data {
		if d.Type != TypeForecast && d.Type != TypeEnsembleForecast {
			continue
		}
		for _, dist := range d.Disturbances {
			if len(dist.CycloneNames) == 0 {
				continue
			}
			name := strings.ToLower(strings.TrimSpace(dist.CycloneNames[0]))
			if keep != nil {
				if _, ok := keep[name]; !ok {
					continue
				}
			}
			for _, f := range dist.Fixes {
				out, err := convertFix(f)
				if err != nil {
					return nil, fmt.Errorf("%w: cyclone %q hour %s: %w", ErrMalformed, name, f.Hour, err)
				}
				out.MType = d.Type
				out.Product = product
				out.CycloneNumber = first(dist.CycloneNumbers)
				out.Ensemble = d.Member
				out.Name = name
				out.Basin = strings.TrimSpace(dist.Basin)
				out.ForecastTime = baseTime
				fixes = append(fixes, out)
			}
		}
	}
	return fixes, nil
}

func convertFix(f fix) (Fix, error) {
	var out Fix
	var err error

	if out.ValidTime, err = parseTime(f.ValidTime); err != nil {
		return out, fmt.Errorf("validTime: %w", err)
	}
	if out.Lat, err = f.Latitude.signed(); err != nil {
		return out, fmt.Errorf("latitude: %w", err)
	}
	if out.Lon, err = f.Longitude.signed(); err != nil {
		return out, fmt.Errorf("longitude: %w", err)
	}
	if f.Hour != "" {
		if out.LeadTimeHours, err = strconv.Atoi(f.Hour); err != nil {
			return out, fmt.Errorf("hour: %w", err)
		}
	}
	out.Speed = strings.TrimSpace(first(f.Speed))
	out.Pressure = strings.TrimSpace(first(f.Pressure))
	return out, nil
}

// DecodeFile decodes the CXML file at path.
func DecodeFile(path string, names ...string) ([]Fix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cxml: %w", err)
	}
	defer f.Close()

	fixes, err := Decode(f, names...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fixes, nil
}

// DecodeDir decodes every *.xml file in dir in name order. Malformed files
// are logged and skipped; I/O errors stop the walk.
func DecodeDir(dir string, logger *slog.Logger, names ...string) ([]Fix, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.xml"))
	if err != nil {
		return nil, fmt.Errorf("list cxml files: %w", err)
	}
	sort.Strings(paths)

	var all []Fix
	for _, p := range paths {
		fixes, err := DecodeFile(p, names...)
		if errors.Is(err, ErrMalformed) {
			logger.Warn("skipping malformed cxml file", "path", p, "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		all = append(all, fixes...)
	}
	return all, nil
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.TrimSpace(s))
}

func nameFilter(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	return m
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
