// Command ecmwf flattens a directory of ECMWF tropical cyclone CXML files
// into one CSV of forecast fixes.
//
// Usage:
//
//	go run ./cmd/ecmwf -dir data/ecmwf/xml -names harold,irondro -out data/ecmwf_fixes.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/storm-impact-etl/internal/adapter/csvtable"
	"github.com/couchcryptid/storm-impact-etl/internal/ecmwf"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dir := flag.String("dir", "", "directory of CXML files")
	out := flag.String("out", "", "output CSV path")
	names := flag.String("names", "", "comma separated storm names to keep; empty keeps all")
	flag.Parse()

	if *dir == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -dir, -out")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	fixes, err := ecmwf.DecodeDir(*dir, logger, splitNames(*names)...)
	if err != nil {
		return err
	}

	if err := csvtable.WriteFile(*out, func(w io.Writer) error {
		return csvtable.WriteFixes(w, fixes)
	}); err != nil {
		return err
	}
	log.Printf("wrote %d fixes to %s", len(fixes), *out)
	return nil
}

func splitNames(s string) []string {
	var names []string
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}
