package memory

import (
	"context"
	"sort"
	"sync"

	"learning-friend-service/internal/domain"
)

// ProgressStore keeps progress records in memory; used when no database is configured.
type ProgressStore struct {
	mu      sync.RWMutex
	order   []string
	records map[string]domain.ProgressRecord
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{records: make(map[string]domain.ProgressRecord)}
}

func (s *ProgressStore) Save(_ context.Context, records ...domain.ProgressRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if _, ok := s.records[r.ID]; ok {
			continue
		}
		r.Answers = append([]bool(nil), r.Answers...)
		s.records[r.ID] = r
		s.order = append(s.order, r.ID)
	}
	return nil
}

func (s *ProgressStore) ListByStudent(_ context.Context, student domain.Student) ([]domain.ProgressRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ProgressRecord
	for _, id := range s.order {
		r := s.records[id]
		if r.StudentName == student.Name && r.Grade == student.Grade {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	return out, nil
}

// Len returns the number of stored records.
func (s *ProgressStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
