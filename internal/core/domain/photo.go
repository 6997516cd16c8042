package domain

import "time"

// Photo represents one stored record ingested from an upstream feed.
// It is the canonical representation after parsing and validation.
type Photo struct {
	// SourceID links to the source that produced this record.
	SourceID string

	// ExternalID is the upstream's natural identifier for the item.
	// Unique per source; the idempotency key for ingestion.
	ExternalID string

	// Sol is the discrete time-unit index the item belongs to.
	Sol int

	// Camera is the instrument that captured the image.
	Camera string

	// ImgURL is the upstream location of the image itself.
	ImgURL string

	// TakenAt is the earth-date timestamp reported by the upstream.
	TakenAt time.Time

	// Metadata contains source-specific key-value pairs.
	Metadata map[string]string

	// IngestedAt is when the record was first written locally.
	IngestedAt time.Time
}

// RawPhoto is a parsed upstream item before validation.
// The record writer rejects items missing ExternalID or TakenAt
// as data-quality skips rather than fetch failures.
type RawPhoto struct {
	// ExternalID is the upstream's natural identifier, if present.
	ExternalID string

	// Sol is the time-unit index the item was fetched under.
	Sol int

	// Camera is the instrument name, if present.
	Camera string

	// ImgURL is the upstream image location.
	ImgURL string

	// TakenAt is the upstream timestamp; zero when missing.
	TakenAt time.Time

	// Metadata contains source-specific key-value pairs.
	Metadata map[string]string
}

// Valid reports whether the item carries the fields required for storage.
func (p RawPhoto) Valid() bool {
	return p.ExternalID != "" && !p.TakenAt.IsZero()
}

// Record converts a validated raw item into a storable Photo.
func (p RawPhoto) Record(sourceID string, now time.Time) Photo {
	return Photo{
		SourceID:   sourceID,
		ExternalID: p.ExternalID,
		Sol:        p.Sol,
		Camera:     p.Camera,
		ImgURL:     p.ImgURL,
		TakenAt:    p.TakenAt,
		Metadata:   p.Metadata,
		IngestedAt: now.UTC(),
	}
}

// WriteResult summarises one record-writer invocation.
type WriteResult struct {
	// Inserted is the number of records newly written.
	Inserted int

	// Skipped is the number of items dropped for missing
	// required fields. Not an error; logged only.
	Skipped int
}
