// Package country tags tables that name countries in free text with ISO2
// codes and asap0_id administrative-unit identifiers.
package country

import (
	"sort"
	"strconv"
	"strings"

	"github.com/biter777/countries"
	"github.com/couchcryptid/storm-impact-etl/internal/adapter/csvtable"
)

// Source-table spellings the country library misses or misreads.
var nameBackups = map[string]string{
	"cape verde":                       "CV",
	"cote d'ivoire":                    "CI",
	"democratic republic of the congo": "CD",
	"occupied palestinian territory":   "PS",
	"republic of congo":                "CG",
	"swaziland":                        "SZ",
	"venezuela":                        "VE",
}

// Codes with no boundary of their own in the admin-0 layer.
var asap0Backups = map[string]int{
	"VC": 11,
	"PS": 75,
}

// Flavour describes the columns of one kind of country-named table.
type Flavour struct {
	NameColumn  string
	ISOColumn   string
	Asap0Column string // empty: no asap0_id column is added
	Unknown     string // written for names that resolve to nothing
}

// Known table flavours.
var (
	CERF           = Flavour{NameColumn: "Country", ISOColumn: "iso2", Asap0Column: "asap0_id"}
	OperationsList = Flavour{NameColumn: "Plans", ISOColumn: "ISO2", Unknown: "Unknown"}
)

// Resolver maps country names to ISO2 and ISO2 to asap0_id.
type Resolver struct {
	asap0 map[string]int
}

// NewResolver builds a resolver over an ISO2 -> asap0_id index, usually
// geo.ISOIndex of the admin-0 boundaries.
func NewResolver(asap0 map[string]int) *Resolver {
	return &Resolver{asap0: asap0}
}

// ISO2 returns the alpha-2 code for a country name. The backup table is
// consulted before the country library.
func (r *Resolver) ISO2(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	// The library matches loosely ("Republic of Congo" resolves to CD), so
	// the curated spellings take precedence.
	if code, ok := nameBackups[strings.ToLower(name)]; ok {
		return code, true
	}
	if c := countries.ByName(name); c != countries.Unknown {
		return c.Alpha2(), true
	}
	return "", false
}

// Asap0ID returns the admin-0 id for an ISO2 code.
func (r *Resolver) Asap0ID(iso2 string) (int, bool) {
	iso2 = strings.ToUpper(strings.TrimSpace(iso2))
	if id, ok := r.asap0[iso2]; ok {
		return id, true
	}
	id, ok := asap0Backups[iso2]
	return id, ok
}

// Report lists what a Tag call could not resolve. Entries are unique and
// sorted.
type Report struct {
	UnmatchedNames []string
	UnmatchedCodes []string
}

// Tag adds the flavour's code columns to every row of t.
func (r *Resolver) Tag(t *csvtable.Table, f Flavour) Report {
	t.AddColumn(f.ISOColumn)
	if f.Asap0Column != "" {
		t.AddColumn(f.Asap0Column)
	}

	names := make(map[string]struct{})
	codes := make(map[string]struct{})
	for _, row := range t.Rows {
		name := row[f.NameColumn]
		iso, ok := r.ISO2(name)
		if !ok {
			names[name] = struct{}{}
			row[f.ISOColumn] = f.Unknown
			if f.Asap0Column != "" {
				row[f.Asap0Column] = ""
			}
			continue
		}
		row[f.ISOColumn] = iso

		if f.Asap0Column == "" {
			continue
		}
		id, ok := r.Asap0ID(iso)
		if !ok {
			codes[iso] = struct{}{}
			row[f.Asap0Column] = ""
			continue
		}
		row[f.Asap0Column] = strconv.Itoa(id)
	}

	return Report{UnmatchedNames: sortedKeys(names), UnmatchedCodes: sortedKeys(codes)}
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
