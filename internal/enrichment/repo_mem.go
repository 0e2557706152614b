package enrichment

import (
	"context"
	"sort"
	"sync"

	"github.com/insuhealth/appointment-service/internal/apperr"
)

// MemoryStore keeps enriched records in a map with the same upsert semantics
// as the Postgres store. Used for local single-process runs and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Enriched
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Enriched)}
}

func (s *MemoryStore) Upsert(_ context.Context, rec *Enriched) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.ID] = *rec
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*Enriched, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[id]
	if !ok {
		return nil, apperr.NotFound("Enriched appointment")
	}
	return &e, nil
}

func (s *MemoryStore) ListByInsuredID(_ context.Context, insuredID string) ([]Enriched, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Enriched
	for _, e := range s.items {
		if e.InsuredID == insuredID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProcessedAt.After(out[j].ProcessedAt)
	})
	return out, nil
}

// Len reports the number of stored rows; used by idempotency tests.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
