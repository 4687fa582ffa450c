// Package domain models tropical-cyclone impact data and the rules that tie
// an EM-DAT impact record to an IBTrACS storm track.
//
// # Data Sources
//
// Storm tracks come from IBTrACS (International Best Track Archive for Climate
// Stewardship), https://www.ncei.noaa.gov/products/international-best-track-archive.
// Upstream tooling reduces the NetCDF archive to one row per observation with
// a WMO wind value; [GroupTracks] collapses those rows to one [StormTrack] per
// storm id (sid), keeping the earliest observation.
//
// Impact records come from EM-DAT (Emergency Events Database) tropical cyclone
// exports: one row per country, year and event. The event name is free text
// typed by a human and is the only link to the track archive.
//
// # Conventions
//
// Storm ids:
//
//	IBTrACS sids look like "2000032S11116": year, day of year, hemisphere,
//	latitude and longitude of the first fix. Only the year is meaningful to
//	this package and it is read from the observation time, never the sid.
//
// Country ids:
//
//	asap0_id is the GAUL/ASAP level-0 unit id. It is the join key between
//	impacts, triggers and boundaries; ISO2 codes are mapped onto it by the
//	country package.
//
// Event names:
//
//	"Tropical cyclone 'Idai'", "Storms Ana/Batsirai", "Hurricane Jack-Jill".
//	Apostrophes are removed, other punctuation and slashes split words, and
//	every remaining word becomes an alternative in a case-insensitive,
//	word-bounded pattern. Track names have hyphens replaced by spaces so
//	"JACK-JILL" matches either half.
//
// Years:
//
//	EM-DAT start years lag the track's first fix when a storm forms late in
//	December or is reported after the new year, so a track first seen in year
//	Y is a candidate for impacts starting in Y or Y+1.
//
// # Triggers
//
// A [TriggerFact] states that a storm passed within a distance threshold (km)
// of a country with at least a wind threshold (knots). The grid is built by
// [ComputeTriggers] over 0..500 km in 10 km steps and 0..max wind in 5 knot
// steps. The reconciler only looks at the lenient pair (largest distance,
// smallest wind), and treats it as a plausibility signal rather than a rule.
//
// # Overrides
//
// Text matching cannot settle every record. [Overrides] carries the human
// decisions: word typo fixes, rename entries for one designated country,
// records known to be absent from IBTrACS, direct sid assignments and tie
// breaks. Missing entries surface as [MatchError] or [AmbiguityError] naming
// the record, so an operator can add one and rerun.
package domain
