package appointment

import (
	"context"
	"time"
)

// Repository is the key-value appointment store contract. Implementations
// must provide per-id atomicity for PutIfAbsent and UpdateStatus; the service
// takes no locks of its own.
type Repository interface {
	// PutIfAbsent inserts the record, failing with a conflict error when a
	// record with the same id already exists.
	PutIfAbsent(ctx context.Context, appt *Appointment) error

	// GetByID returns the record or a not-found error.
	GetByID(ctx context.Context, id string) (*Appointment, error)

	// ListByInsuredID returns all records for the insured party, newest
	// created first.
	ListByInsuredID(ctx context.Context, insuredID string) ([]Appointment, error)

	// UpdateStatus sets status and updatedAt, guarded by existence: it fails
	// with a not-found error when the id is absent. Concurrent updates
	// resolve last-write-wins on updatedAt.
	UpdateStatus(ctx context.Context, id string, status Status, updatedAt time.Time) error

	// Scan returns one page matching the filter, newest created first, and
	// whether strictly more matching records exist beyond it. Implementations
	// read limit+1 rows so a second round trip is never needed.
	Scan(ctx context.Context, f ListFilter) ([]Appointment, bool, error)
}
