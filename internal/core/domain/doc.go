// Package domain defines the core business entities for solsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Photo: A stored record ingested from an upstream feed
//   - RawPhoto: A parsed upstream item before validation
//   - SourceProgress: The durable per-source sync cursor
//   - Run / SourceRunDetail: The append-only run history ledger
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
