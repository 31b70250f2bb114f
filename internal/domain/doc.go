// Package domain implements the weather-based date-of-loss evidence engine:
// pure functions that turn raw station observations and point hail reports
// into quality scores, fused station evidence, and ranked candidate events.
//
// # Data Sources
//
// Wind observations come from METAR-style station feeds. Each observation
// carries up to three wind measurements (sustained speed, gust, peak gust),
// all in miles per hour, and an optional raw report string for provenance.
// A measurement that the station did not report is nil, not zero.
//
// Hail evidence comes from the same feeds via present-weather codes: any code
// containing the GR token (GR, TSGR, SHGR) indicates hail at the station.
// METAR hail codes do not carry a size, so derived reports have no magnitude
// unless the feed supplies one separately.
//
// # Timestamps and Day Bucketing
//
// Feeds deliver timestamps as strings in one of a small set of formats
// ("2006-01-02 15:04", with optional seconds, or ISO-8601 with an optional
// zone). Candidate events are bucketed by the civil date of the parsed
// timestamp exactly as the feed reported it; no timezone conversion is
// performed, because the feeds carry no zone metadata to normalize against.
// See [DayOf].
//
// # Quality Control
//
// Every observation gets a [0,1] QC score starting from 1.0, with penalties
// for a missing or unparsable timestamp (-0.35), no wind values at all
// (-0.45), and the first implausible wind value found (-0.55; negative or
// above [MaxPlausibleWindMPH]). A present raw report string earns +0.05.
// Malformed input always degrades the score; it never produces an error.
//
// # Confidence Tiers
//
// Candidates carry a discrete confidence label, evaluated first match wins:
//
//	wind: confirmed  ≥2 stations, peak ≥58 mph, support ≥0.18
//	      high       ≥2 stations, peak ≥45 mph, support ≥0.12
//	      medium     ≥1 station,  peak ≥35 mph
//	      low        peak ≥25 mph
//	hail: confirmed  ≥3 reports, nearest ≤10 mi, size ≥1.0 in
//	      high       ≥2 reports, nearest ≤15 mi
//	      medium     ≥1 report,  nearest ≤25 mi
//	      low        ≥1 report
//
// The thresholds and rank weightings are hand-tuned operational constants
// with no documented derivation; they are kept as named constants rather
// than recalibrated.
package domain
