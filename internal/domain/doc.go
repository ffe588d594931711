// Package domain turns a flat, chronologically ordered stream of historical
// tropical-cyclone fixes into per-quantity derived series used to fit the
// statistical models behind synthetic track generation.
//
// # Data Source
//
// Input is a best-track archive (IBTrACS, BoM, JTWC, or a synthetic set) read
// by an input adapter into a [Dataset]: recognized column names mapped to
// equal-length raw values. Provider-specific header names are mapped onto the
// Col* constants by the source configuration, not here.
//
// # Track Boundaries
//
// Archives disagree on how storms are delimited. The first applicable strategy
// in [DefaultBoundaryStrategies] wins:
//
//	index       explicit 0/1 start flag, used verbatim
//	tcserialno  new track whenever the serial changes
//	season+num  new track whenever season or number changes
//	num         new track whenever the number increases
//
// After that, [ForceSplits] always starts a new track where consecutive fixes
// jump more than 15° of longitude or 5° of latitude. IBTrACS reuses season and
// number across basins, and this keeps two storms from merging into one track.
//
// [InitialIndex] narrows the indicator to tracks with at least two fixes. It is
// used for bearing and speed, which only exist for a leg between two fixes.
//
// # Time Representations
//
//	age           hours since genesis, differenced directly
//	date          one string per fix, parsed with a strftime or Go layout
//	year..minute  separate fields; minute defaults to 0 with a warning
//
// Year-less sources get a placeholder year: 2000 at every track start, 2001
// once the track reaches January. Elapsed time is always computed from full
// timestamps so month and year rollovers are handled.
//
// # Missing Values
//
// Missing, invalid and undefined entries are NaN in memory ([Missing],
// [IsMissing]). NaN propagates through arithmetic, so a rate that touches a
// missing operand is itself missing. Raw inputs may carry the legacy marker
// [LegacyMissingValue]; it is recognized on input and kept out of unit
// conversion. Sinks decide how to serialize missing values.
//
// # Plausibility Bounds
//
//	pressure       600–1100 hPa
//	speed          0–200 km/h
//	max wind       0–200 m/s
//	rMax           0 (exclusive) – 1000 km
//	pressure rate  |dp/dt| ≤ 10 hPa/hr (Typhoon Forrest, 1983: ~100 hPa in 24 h)
//
// # Rates
//
// Every rate is a first difference over elapsed hours, masked at track starts.
// Bearing and speed rates are also masked at the second fix of each track,
// whose difference spans the genesis leg. Bearing differences are wrapped into
// [-180, 180] before dividing. A fix with an out-of-range speed is treated as a
// track start when computing acceleration.
package domain
