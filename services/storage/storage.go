package storage

import (
	"context"

	"cabf05/lotworker/internal/scraper"
)

// CollectionDay is one entry of the collection history
type CollectionDay struct {
	Date  string `json:"data_coleta"`
	Count int    `json:"total"`
}

// ResultSink represents the persisted store for accepted records. The engine
// reads the highest id before allocating and inserts once per completed run;
// it never touches the store mid-run.
type ResultSink interface {
	// HighestExistingID returns the highest persisted record id, 0 when empty
	HighestExistingID(ctx context.Context) (int64, error)

	// InsertBatch upserts a batch and returns the number of rows inserted.
	// Delivery is at-least-once; replays are absorbed by the id conflict rule.
	InsertBatch(ctx context.Context, records []scraper.Listing) (int, error)

	// AlreadyCollectedToday reports whether a collection ran today
	AlreadyCollectedToday(ctx context.Context) (bool, error)

	// History returns the per-day record counts in date order
	History(ctx context.Context) ([]CollectionDay, error)

	// Close releases the store connection
	Close()
}
