package enrichment

import "context"

// Store is the per-country relational enrichment store contract. One instance
// per country, each backed by its own database.
type Store interface {
	// Upsert inserts the record or overwrites its mutable fields when the id
	// already exists. Never duplicates rows.
	Upsert(ctx context.Context, rec *Enriched) error

	// GetByID returns the record or a not-found error.
	GetByID(ctx context.Context, id string) (*Enriched, error)

	// ListByInsuredID returns all records for the insured party, newest
	// processed first.
	ListByInsuredID(ctx context.Context, insuredID string) ([]Enriched, error)
}
