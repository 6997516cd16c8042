// Package fetchers implements the per-source fetcher variants and the
// static registry that maps source identifiers to them.
//
// Each supported source maps to exactly one variant at compile time:
// legacy rover feeds expose the photos API shape, newer missions the
// raw-images API shape. Variants parse their upstream payloads into
// domain.RawPhoto items and persist them through the record writer
// port, so storage behaviour stays identical across shapes.
package fetchers
