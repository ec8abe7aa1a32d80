// Package batch aggregates per-item outcomes of bulk calendar operations,
// such as declining several events, into one JSON report with success and
// failure counts.
package batch
