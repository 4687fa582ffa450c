// Command countries adds ISO2 and asap0_id columns to a country-named table,
// either a CERF allocation export or an operations list.
//
// Usage:
//
//	go run ./cmd/countries \
//	  -in data/cerf_allocations.csv \
//	  -boundaries data/adm0_polygons.geojson \
//	  -flavour cerf \
//	  -out data/cerf_allocations_iso.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/couchcryptid/storm-impact-etl/internal/adapter/csvtable"
	"github.com/couchcryptid/storm-impact-etl/internal/country"
	"github.com/couchcryptid/storm-impact-etl/internal/geo"
)

var flavours = map[string]country.Flavour{
	"cerf":       country.CERF,
	"operations": country.OperationsList,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "input CSV with a country name column")
	out := flag.String("out", "", "output CSV path (may equal -in)")
	boundariesPath := flag.String("boundaries", "", "admin-0 boundary GeoJSON; required for the cerf flavour")
	flavourName := flag.String("flavour", "cerf", "table flavour: cerf or operations")
	flag.Parse()

	if *in == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -in, -out")
	}
	flavour, ok := flavours[strings.ToLower(*flavourName)]
	if !ok {
		return fmt.Errorf("unknown flavour %q (want cerf or operations)", *flavourName)
	}

	var index map[string]int
	if flavour.Asap0Column != "" {
		if *boundariesPath == "" {
			return fmt.Errorf("-boundaries is required for the %s flavour", *flavourName)
		}
		bs, err := geo.LoadBoundariesFile(*boundariesPath)
		if err != nil {
			return err
		}
		index = geo.ISOIndex(bs)
	}

	table, err := csvtable.ReadFile(*in, csvtable.ReadTable)
	if err != nil {
		return err
	}
	if !table.HasColumn(flavour.NameColumn) {
		return fmt.Errorf("%s: missing column %q", *in, flavour.NameColumn)
	}

	report := country.NewResolver(index).Tag(table, flavour)

	if err := csvtable.WriteFile(*out, func(w io.Writer) error {
		return csvtable.WriteTable(w, table)
	}); err != nil {
		return err
	}

	log.Printf("tagged %d rows", len(table.Rows))
	if len(report.UnmatchedNames) > 0 {
		log.Printf("no ISO2 code for %d names: %s", len(report.UnmatchedNames), strings.Join(report.UnmatchedNames, "; "))
	}
	if len(report.UnmatchedCodes) > 0 {
		log.Printf("no asap0_id for %d codes: %s", len(report.UnmatchedCodes), strings.Join(report.UnmatchedCodes, ", "))
	}
	return nil
}
