// Package sqlite provides the durable store backing solsync.
//
// A single Store owns the database handle and exposes the record,
// progress and run-history interfaces through wrapper types. Schema
// changes ship as embedded, numbered migrations.
package sqlite
