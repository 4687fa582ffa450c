package csvtable

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/storm-impact-etl/internal/ecmwf"
)

// FixColumns is the header of a flat forecast fix table.
var FixColumns = []string{
	"mtype", "product", "cyc_number", "ensemble", "name", "basin",
	"speed", "pressure", "time", "lat", "lon", "lead_time", "forecast_time",
}

// WriteFixes writes forecast fixes as a flat table.
func WriteFixes(w io.Writer, fixes []ecmwf.Fix) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(FixColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, f := range fixes {
		rec := []string{
			f.MType,
			f.Product,
			f.CycloneNumber,
			f.Ensemble,
			f.Name,
			f.Basin,
			f.Speed,
			f.Pressure,
			f.ValidTime.Format(ecmwf.TimeLayout),
			strconv.FormatFloat(f.Lat, 'f', -1, 64),
			strconv.FormatFloat(f.Lon, 'f', -1, 64),
			strconv.Itoa(f.LeadTimeHours),
			f.ForecastTime.Format(ecmwf.TimeLayout),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write fix for %s: %w", f.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
