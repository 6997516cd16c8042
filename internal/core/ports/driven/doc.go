// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - SolFetcher: Fetches and parses one sol of upstream items
//   - FetcherRegistry: Selects the fetcher variant for a source
//   - RecordWriter: Idempotent insertion of parsed items
//   - RecordStore: Record persistence
//   - ProgressStore: Per-source sync cursor persistence
//   - RunStore: Run history ledger persistence
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or fetcher package
package driven
