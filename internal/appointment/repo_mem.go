package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/insuhealth/appointment-service/internal/apperr"
)

// MemoryRepository is a map-backed appointment store with the same
// conditional-write semantics as the Postgres implementation. Used for local
// single-process runs and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]Appointment
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]Appointment)}
}

func (r *MemoryRepository) PutIfAbsent(_ context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[appt.ID]; ok {
		return apperr.Conflict("Appointment already exists")
	}
	r.items[appt.ID] = *appt
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.items[id]
	if !ok {
		return nil, apperr.NotFound("Appointment")
	}
	return &a, nil
}

func (r *MemoryRepository) ListByInsuredID(_ context.Context, insuredID string) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Appointment
	for _, a := range r.items {
		if a.InsuredID == insuredID {
			out = append(out, a)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id string, status Status, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return apperr.NotFound("Appointment")
	}
	a.Status = status
	a.UpdatedAt = updatedAt
	r.items[id] = a
	return nil
}

func (r *MemoryRepository) Scan(_ context.Context, f ListFilter) ([]Appointment, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []Appointment
	for _, a := range r.items {
		if f.CountryISO != "" && a.CountryISO != f.CountryISO {
			continue
		}
		if f.Status != "" && a.Status != Status(f.Status) {
			continue
		}
		matched = append(matched, a)
	}
	sortNewestFirst(matched)

	if f.Offset >= len(matched) {
		return nil, false, nil
	}
	matched = matched[f.Offset:]
	hasMore := len(matched) > f.Limit
	if hasMore {
		matched = matched[:f.Limit]
	}
	return matched, hasMore, nil
}

// sortNewestFirst orders by createdAt descending, id as a deterministic
// tie-break.
func sortNewestFirst(items []Appointment) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
}
