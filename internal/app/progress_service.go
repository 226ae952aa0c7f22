package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"learning-friend-service/internal/domain"
	"learning-friend-service/internal/logging"

	"github.com/google/uuid"
)

// ProgressStore persists completed lesson runs.
type ProgressStore interface {
	// Save stores records; a record whose ID is already stored is skipped.
	Save(ctx context.Context, records ...domain.ProgressRecord) error
	ListByStudent(ctx context.Context, student domain.Student) ([]domain.ProgressRecord, error)
}

// ProgressService accepts progress synced from offline clients and summarizes it.
type ProgressService struct {
	store ProgressStore
	now   func() time.Time
}

func NewProgressService(store ProgressStore) *ProgressService {
	return &ProgressService{store: store, now: time.Now}
}

// Sync validates and stores a batch of records. The whole batch is rejected if
// any record is invalid, so a client can retry it unchanged after fixing it.
func (s *ProgressService) Sync(ctx context.Context, records []domain.ProgressRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	batch := make([]domain.ProgressRecord, 0, len(records))
	for i, record := range records {
		if err := record.Validate(); err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		student, _ := domain.Student{Name: record.StudentName, Grade: record.Grade}.Normalize()
		record.StudentName = student.Name
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		if record.CompletedAt.IsZero() {
			record.CompletedAt = s.now()
		}
		batch = append(batch, record)
	}
	if err := s.store.Save(ctx, batch...); err != nil {
		return 0, err
	}
	logging.WithContext(ctx).WithField("records", len(batch)).Info("progress synced")
	return len(batch), nil
}

// Summary aggregates a student's runs per subject, ordered by subject id.
func (s *ProgressService) Summary(ctx context.Context, student domain.Student) ([]domain.SubjectProgress, error) {
	student, err := student.Normalize()
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListByStudent(ctx, student)
	if err != nil {
		return nil, err
	}
	return summarize(records), nil
}

func summarize(records []domain.ProgressRecord) []domain.SubjectProgress {
	bySubject := make(map[string]*domain.SubjectProgress)
	for _, r := range records {
		p, ok := bySubject[r.SubjectID]
		if !ok {
			p = &domain.SubjectProgress{SubjectID: r.SubjectID}
			bySubject[r.SubjectID] = p
		}
		p.CompletedRuns++
		if r.Score > p.BestScore {
			p.BestScore = r.Score
		}
		if !r.CompletedAt.Before(p.LastActivityAt) {
			p.LastActivityAt = r.CompletedAt
			p.LastScore = r.Score
			p.Total = r.Total
		}
	}
	out := make([]domain.SubjectProgress, 0, len(bySubject))
	for _, p := range bySubject {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectID < out[j].SubjectID })
	return out
}
