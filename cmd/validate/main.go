// Command validate checks the override tables against a track table before a
// reconcile run. Every sid an override assigns must exist, and every rename
// or tiebreak must be reachable by name matching.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -tracks data/ibtracs_tracks.csv \
//	  -overrides data/overrides.yaml
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/storm-impact-etl/internal/adapter/csvtable"
	"github.com/couchcryptid/storm-impact-etl/internal/config"
	"github.com/couchcryptid/storm-impact-etl/internal/domain"
)

func main() {
	tracksPath := flag.String("tracks", "", "sid,name,year track table")
	overridesPath := flag.String("overrides", "", "override tables (YAML, JSON or TOML)")
	flag.Parse()

	if *tracksPath == "" || *overridesPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*tracksPath, *overridesPath); code != 0 {
		os.Exit(code)
	}
}

func run(tracksPath, overridesPath string) int {
	fmt.Println("=== Override Table Validation ===")
	fmt.Println()

	tracks, err := csvtable.ReadFile(tracksPath, csvtable.ReadTracks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load tracks: %v\n", err)
		return 1
	}

	overrides, err := config.LoadOverrides(overridesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load overrides: %v\n", err)
		return 1
	}

	phases := validate(tracks, overrides)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Tables: %d tracks, %d specific ids, %d tiebreaks, %d renames, %d typo corrections\n",
		len(tracks), len(overrides.SpecificIDs), len(overrides.Tiebreaks), len(overrides.Renames), len(overrides.TypoCorrections))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validate(tracks []domain.StormTrack, o *domain.Overrides) []*phase {
	r := domain.NewReconciler(tracks, nil, o, domain.DefaultPatternCacheSize)
	return []*phase{
		validateSIDs(tracks, o),
		validateTypos(o),
		validateRenames(r, o),
		validateTiebreaks(r, o),
	}
}
